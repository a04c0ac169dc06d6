// Package pkg provides tests for the bank transfer engine
package pkg

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/n64vault/cpaktools/pkg/n64"
)

// fakeDevice is an in-memory Device with scriptable failures
type fakeDevice struct {
	present   bool
	banks     int
	probeErr  error
	data      []byte
	failBank  int // bank whose reads come up short (-1 for none)
	unmounted bool
}

func newFakeDevice(banks int) *fakeDevice {
	return &fakeDevice{
		present:  true,
		banks:    banks,
		data:     make([]byte, banks*BankSize),
		failBank: -1,
	}
}

func (d *fakeDevice) Present() bool { return d.present }

func (d *fakeDevice) ProbeBanks() (int, error) {
	if d.probeErr != nil {
		return 0, d.probeErr
	}
	return d.banks, nil
}

func (d *fakeDevice) ReadPage(bank, offset int, buf []byte) (int, error) {
	if bank == d.failBank {
		return copy(buf, d.data[bank*BankSize+offset:bank*BankSize+offset+len(buf)/2]), nil
	}
	return copy(buf, d.data[bank*BankSize+offset:]), nil
}

func (d *fakeDevice) WritePage(bank, offset int, buf []byte) (int, error) {
	if bank == d.failBank {
		return copy(d.data[bank*BankSize+offset:], buf[:len(buf)/2]), nil
	}
	return copy(d.data[bank*BankSize+offset:], buf), nil
}

func (d *fakeDevice) Unmount() error {
	d.unmounted = true
	return nil
}

// patternDeviceFile writes a recognizable multi-bank device image
func patternDeviceFile(t *testing.T, path string, banks int) []byte {
	t.Helper()
	data := make([]byte, banks*BankSize)
	for i := range data {
		data[i] = byte(i*7 + i/BankSize)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write device image: %v", err)
	}
	return data
}

func TestBackupThenRestore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	devicePath := filepath.Join(dir, "device.img")
	original := patternDeviceFile(t, devicePath, 2)

	device, err := n64.OpenFileDevice(devicePath)
	if err != nil {
		t.Fatalf("OpenFileDevice() failed: %v", err)
	}
	defer device.Close()

	imagePath := filepath.Join(dir, "backup.pak")
	ctx, err := BackupFromPhysical(device, imagePath)
	if err != nil {
		t.Fatalf("BackupFromPhysical() failed: %v", err)
	}
	if ctx.TotalBanks != 2 || ctx.FileSize != 2*BankSize {
		t.Errorf("backup ctx = %d banks / %d bytes, want 2 / %d", ctx.TotalBanks, ctx.FileSize, 2*BankSize)
	}

	// Restore onto a blank device of the same capacity
	blankPath := filepath.Join(dir, "blank.img")
	blank, err := n64.CreateFileDevice(blankPath, 2)
	if err != nil {
		t.Fatalf("CreateFileDevice() failed: %v", err)
	}
	defer blank.Close()

	if _, err := RestoreToPhysical(blank, imagePath); err != nil {
		t.Fatalf("RestoreToPhysical() failed: %v", err)
	}

	restored, err := os.ReadFile(blankPath)
	if err != nil {
		t.Fatalf("failed to read restored device: %v", err)
	}
	if !bytes.Equal(restored, original) {
		t.Error("restored device contents differ from the original device")
	}
}

func TestRestore_NoDevice(t *testing.T) {
	device := newFakeDevice(1)
	device.present = false

	_, err := RestoreToPhysical(device, "ignored.pak")
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("RestoreToPhysical() error = %v, want ErrNoDevice", err)
	}
}

func TestRestore_UnmountsBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "image.pak")
	if err := CreateEmpty(imagePath); err != nil {
		t.Fatalf("CreateEmpty() failed: %v", err)
	}

	device := newFakeDevice(1)
	if _, err := RestoreToPhysical(device, imagePath); err != nil {
		t.Fatalf("RestoreToPhysical() failed: %v", err)
	}
	if !device.unmounted {
		t.Error("restore did not unmount the device filesystem view first")
	}
}

func TestRestore_TooLargeFailsBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "twobanks.pak")
	if err := os.WriteFile(imagePath, make([]byte, 2*BankSize), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	device := newFakeDevice(1)
	device.data[0] = 0xEE // sentinel that must survive

	ctx, err := RestoreToPhysical(device, imagePath)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("RestoreToPhysical() error = %v, want ErrTooLarge", err)
	}
	if ctx.TotalBanks != 2 || ctx.DeviceBanks != 1 {
		t.Errorf("ctx = %d image banks / %d device banks, want 2 / 1", ctx.TotalBanks, ctx.DeviceBanks)
	}
	if device.data[0] != 0xEE {
		t.Error("device was written to despite the capacity check failing")
	}
}

func TestRestore_ShortFinalRead(t *testing.T) {
	// A non-bank-aligned image is valid: the final short read covers the
	// remainder and banks beyond it stay untouched.
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "partial.pak")
	data := make([]byte, BankSize+100)
	for i := range data {
		data[i] = byte(i + 1)
	}
	if err := os.WriteFile(imagePath, data, 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	device := newFakeDevice(2)
	device.data[BankSize+100] = 0xEE // just past the image's extent

	ctx, err := RestoreToPhysical(device, imagePath)
	if err != nil {
		t.Fatalf("RestoreToPhysical() failed: %v", err)
	}
	if ctx.TotalBanks != 2 {
		t.Errorf("TotalBanks = %d, want 2", ctx.TotalBanks)
	}
	if !bytes.Equal(device.data[:len(data)], data) {
		t.Error("device contents do not match the image")
	}
	if device.data[BankSize+100] != 0xEE {
		t.Error("device bytes beyond the image extent were overwritten")
	}
}

func TestRestore_ShortWriteReportsBank(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "twobanks.pak")
	if err := os.WriteFile(imagePath, make([]byte, 2*BankSize), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	device := newFakeDevice(2)
	device.failBank = 1

	ctx, err := RestoreToPhysical(device, imagePath)
	if !errors.Is(err, ErrShortWrite) {
		t.Fatalf("RestoreToPhysical() error = %v, want ErrShortWrite", err)
	}
	if ctx.FailedBank != 1 {
		t.Errorf("FailedBank = %d, want 1", ctx.FailedBank)
	}
	if ctx.BytesExpected != BankSize {
		t.Errorf("BytesExpected = %d, want %d", ctx.BytesExpected, BankSize)
	}
	if ctx.BytesActual >= ctx.BytesExpected {
		t.Errorf("BytesActual = %d, want less than %d", ctx.BytesActual, ctx.BytesExpected)
	}
}

func TestBackup_ShortReadLeavesTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "truncated.pak")

	device := newFakeDevice(2)
	for i := range device.data[:BankSize] {
		device.data[i] = 0xAB
	}
	device.failBank = 1

	ctx, err := BackupFromPhysical(device, imagePath)
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("BackupFromPhysical() error = %v, want ErrShortRead", err)
	}
	if ctx.FailedBank != 1 {
		t.Errorf("FailedBank = %d, want 1", ctx.FailedBank)
	}

	// Bank 0 stays on disk; no automatic cleanup of the partial output
	written, err := os.ReadFile(imagePath)
	if err != nil {
		t.Fatalf("failed to read truncated output: %v", err)
	}
	if len(written) != BankSize {
		t.Errorf("truncated output = %d bytes, want %d", len(written), BankSize)
	}
	if !bytes.Equal(written, device.data[:BankSize]) {
		t.Error("bank 0 of the truncated output does not match the device")
	}
}

func TestBackup_ProbeInconclusiveDefaultsToOneBank(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "onebank.pak")

	device := newFakeDevice(4)
	device.probeErr = errors.New("probe timeout")

	ctx, err := BackupFromPhysical(device, imagePath)
	if err != nil {
		t.Fatalf("BackupFromPhysical() failed: %v", err)
	}
	if ctx.TotalBanks != 1 || ctx.FileSize != BankSize {
		t.Errorf("ctx = %d banks / %d bytes, want 1 / %d", ctx.TotalBanks, ctx.FileSize, BankSize)
	}
}

func TestBackup_NoDevice(t *testing.T) {
	device := newFakeDevice(1)
	device.present = false

	_, err := BackupFromPhysical(device, "ignored.pak")
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("BackupFromPhysical() error = %v, want ErrNoDevice", err)
	}
}
