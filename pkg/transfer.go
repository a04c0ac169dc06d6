package pkg

import (
	"fmt"
	"io"
	"os"

	"github.com/n64vault/cpaktools/pkg/common"
	"github.com/n64vault/cpaktools/pkg/n64"
)

// The transfer engine moves whole images between a file and the physical
// device one bank at a time, so memory stays bounded at a single 32 KiB
// buffer and a failure can always be pinned to a bank index. A failed
// bank aborts the transfer immediately: skipping a bank and continuing
// would produce a silently corrupt image.

// writeBank writes data to the start of a device bank, one page-sized
// chunk at a time, and returns the number of bytes the device accepted.
// A short chunk write stops the loop; the caller reports the shortfall.
func writeBank(dev n64.Device, bank int, data []byte) (int, error) {
	written := 0
	for written < len(data) {
		chunk := data[written:min(written+PageSize, len(data))]
		n, err := dev.WritePage(bank, written, chunk)
		written += n
		if err != nil {
			return written, err
		}
		if n < len(chunk) {
			return written, nil
		}
	}
	return written, nil
}

// readBank fills buf from the start of a device bank, one page-sized
// chunk at a time, and returns the number of bytes actually read
func readBank(dev n64.Device, bank int, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		chunk := buf[read:min(read+PageSize, len(buf))]
		n, err := dev.ReadPage(bank, read, chunk)
		read += n
		if err != nil {
			return read, err
		}
		if n < len(chunk) {
			return read, nil
		}
	}
	return read, nil
}

// RestoreToPhysical copies a pak image file onto the physical device,
// bank by bank. The device capacity is verified before any byte is
// written; banks on the device beyond the image's bank count are left
// untouched. A short final read from the image is expected when the file
// is not bank-aligned, but any short device write aborts with the failing
// bank recorded in the returned context.
func RestoreToPhysical(dev n64.Device, imagePath string) (*TransferContext, error) {
	ctx := &TransferContext{FailedBank: -1}

	if !dev.Present() {
		return ctx, ErrNoDevice
	}

	// Drop any mounted filesystem view before raw writes
	if err := dev.Unmount(); err != nil {
		return ctx, common.FormatError(common.ErrFailedToUnmountDevice, err)
	}

	file, err := os.Open(imagePath)
	if err != nil {
		return ctx, common.FormatError(common.ErrFailedToOpenImage, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return ctx, common.FormatError(common.ErrFailedToStatImage, err)
	}
	ctx.FileSize = stat.Size()
	ctx.TotalBanks = int((ctx.FileSize + BankSize - 1) / BankSize)
	common.LogDebug(common.DebugImageSize, ctx.FileSize, ctx.TotalBanks)

	banks, err := dev.ProbeBanks()
	if err != nil {
		return ctx, common.FormatError(common.ErrFailedToProbeBanks, err)
	}
	ctx.DeviceBanks = banks
	common.LogDebug(common.DebugDeviceBanks, banks)
	if banks < 1 {
		return ctx, fmt.Errorf("%w: device reported %d bank(s)", ErrProbeBanks, banks)
	}
	if ctx.TotalBanks > banks {
		return ctx, fmt.Errorf("%w: image needs %d bank(s), device has %d", ErrTooLarge, ctx.TotalBanks, banks)
	}

	buf := make([]byte, BankSize)
	for bank := 0; bank < ctx.TotalBanks; bank++ {
		n, err := io.ReadFull(file, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			ctx.FailedBank = bank
			return ctx, common.FormatError(common.ErrFailedToReadImage, err)
		}
		if n == 0 {
			break
		}

		written, err := writeBank(dev, bank, buf[:n])
		if err != nil || written < n {
			ctx.FailedBank = bank
			ctx.BytesExpected = n
			ctx.BytesActual = written
			if err != nil {
				return ctx, common.FormatError(common.ErrFailedToWriteDevice, err)
			}
			return ctx, fmt.Errorf("%w: bank %d wrote %d of %d bytes", ErrShortWrite, bank, written, n)
		}
		common.LogDebug(common.DebugBankTransferred, bank, written)
	}

	return ctx, nil
}

// BackupFromPhysical copies the physical device contents into a pak image
// file, bank by bank. An inconclusive bank probe falls back to a single
// bank rather than aborting. Unlike the restore path, a short device read
// is an error: the device's bank size is fixed and known. On failure the
// output file is left truncated at the failing bank and must not be
// treated as a valid image.
func BackupFromPhysical(dev n64.Device, imagePath string) (*TransferContext, error) {
	ctx := &TransferContext{FailedBank: -1}

	if !dev.Present() {
		return ctx, ErrNoDevice
	}

	banks, err := dev.ProbeBanks()
	if err != nil || banks < 1 {
		common.LogWarn(common.WarnProbeInconclusive)
		banks = 1
	}
	ctx.DeviceBanks = banks
	ctx.TotalBanks = banks
	common.LogDebug(common.DebugDeviceBanks, banks)

	file, err := os.Create(imagePath)
	if err != nil {
		return ctx, common.FormatError(common.ErrFailedToCreateBackup, err)
	}
	defer file.Close()

	buf := make([]byte, BankSize)
	for bank := 0; bank < banks; bank++ {
		n, err := readBank(dev, bank, buf)
		if err != nil || n < BankSize {
			ctx.FailedBank = bank
			ctx.BytesExpected = BankSize
			ctx.BytesActual = n
			common.LogWarn(common.WarnTruncatedBackup, bank)
			if err != nil {
				return ctx, common.FormatError(common.ErrFailedToReadDevice, err)
			}
			return ctx, fmt.Errorf("%w: bank %d read %d of %d bytes", ErrShortRead, bank, n, BankSize)
		}

		written, err := file.Write(buf)
		ctx.FileSize += int64(written)
		if err != nil || written < BankSize {
			ctx.FailedBank = bank
			ctx.BytesExpected = BankSize
			ctx.BytesActual = written
			if err != nil {
				return ctx, common.FormatError(common.ErrFailedToWriteBackup, err)
			}
			return ctx, fmt.Errorf("%w: bank %d wrote %d of %d bytes", ErrShortWrite, bank, written, BankSize)
		}
		common.LogDebug(common.DebugBankTransferred, bank, written)
	}

	return ctx, nil
}
