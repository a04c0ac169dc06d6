// Package n64 provides the Controller Pak device abstraction consumed by
// the transfer engine. The real console driver performs joybus page reads
// and writes; on the host side the same surface is implemented over a raw
// image file so backups and restores can be exercised end to end.
package n64

import (
	"errors"
	"fmt"
	"os"
)

// BankSize is the fixed size of one Controller Pak bank in bytes
const BankSize = 32 * 1024

// ErrDeviceClosed is returned for operations on a closed device
var ErrDeviceClosed = errors.New("device is closed")

// Device is a bank-addressed Controller Pak. Reads and writes operate on
// byte ranges within a single bank; callers never cross a bank boundary
// in one call. Probing and transfers on the same device must not be
// interleaved.
type Device interface {
	// Present reports whether a pak is inserted and responding
	Present() bool

	// ProbeBanks returns the number of 32 KiB banks the pak exposes.
	// A zero or negative count means the pak is unusable.
	ProbeBanks() (int, error)

	// ReadPage reads len(buf) bytes starting at offset within bank.
	// Returns the number of bytes actually read.
	ReadPage(bank int, offset int, buf []byte) (int, error)

	// WritePage writes buf starting at offset within bank. Returns the
	// number of bytes actually written.
	WritePage(bank int, offset int, buf []byte) (int, error)

	// Unmount invalidates any mounted filesystem view of the pak so raw
	// writes cannot race stale cached state
	Unmount() error
}

// FileDevice implements Device over a raw pak image file of fixed size.
// It stands in for the physical device on the host: the file's size fixes
// the bank count, and writes past the end are cut short the same way a
// real pak bounds a write at its last page.
type FileDevice struct {
	file  *os.File
	path  string
	banks int
}

// OpenFileDevice opens an existing image file as a device. The file size
// must be a whole number of banks.
func OpenFileDevice(path string) (*FileDevice, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if stat.Size() == 0 || stat.Size()%BankSize != 0 {
		file.Close()
		return nil, fmt.Errorf("device image %s is %d bytes, not a whole number of %d byte banks",
			path, stat.Size(), BankSize)
	}
	return &FileDevice{
		file:  file,
		path:  path,
		banks: int(stat.Size() / BankSize),
	}, nil
}

// CreateFileDevice creates a zero-filled device image with the given bank
// count and opens it
func CreateFileDevice(path string, banks int) (*FileDevice, error) {
	if banks < 1 {
		return nil, fmt.Errorf("device needs at least 1 bank, got %d", banks)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := file.Truncate(int64(banks) * BankSize); err != nil {
		file.Close()
		return nil, err
	}
	return &FileDevice{file: file, path: path, banks: banks}, nil
}

// Path returns the backing image file path
func (d *FileDevice) Path() string {
	return d.path
}

// Present reports whether the backing file is open
func (d *FileDevice) Present() bool {
	return d.file != nil
}

// ProbeBanks returns the bank count derived from the file size
func (d *FileDevice) ProbeBanks() (int, error) {
	if d.file == nil {
		return 0, ErrDeviceClosed
	}
	return d.banks, nil
}

// ReadPage reads len(buf) bytes at offset within bank
func (d *FileDevice) ReadPage(bank int, offset int, buf []byte) (int, error) {
	if d.file == nil {
		return 0, ErrDeviceClosed
	}
	if bank < 0 || bank >= d.banks || offset < 0 || offset >= BankSize {
		return 0, fmt.Errorf("read outside device: bank %d offset %d", bank, offset)
	}
	pos := int64(bank)*BankSize + int64(offset)
	end := int64(d.banks) * BankSize
	if pos+int64(len(buf)) > end {
		buf = buf[:end-pos]
	}
	return d.file.ReadAt(buf, pos)
}

// WritePage writes buf at offset within bank. Writes that run past the
// device capacity are cut short, mirroring a physical pak bounding the
// write at its last page.
func (d *FileDevice) WritePage(bank int, offset int, buf []byte) (int, error) {
	if d.file == nil {
		return 0, ErrDeviceClosed
	}
	if bank < 0 || bank >= d.banks || offset < 0 || offset >= BankSize {
		return 0, fmt.Errorf("write outside device: bank %d offset %d", bank, offset)
	}
	pos := int64(bank)*BankSize + int64(offset)
	end := int64(d.banks) * BankSize
	if pos+int64(len(buf)) > end {
		buf = buf[:end-pos]
	}
	return d.file.WriteAt(buf, pos)
}

// Unmount flushes pending writes. The host stand-in has no mounted
// filesystem view, so a sync is the whole of the invalidation.
func (d *FileDevice) Unmount() error {
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

// Close releases the backing file
func (d *FileDevice) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
