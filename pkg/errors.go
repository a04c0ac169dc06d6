package pkg

import "errors"

// Sentinel errors distinguishing the failure classes of pak operations.
// Callers match them with errors.Is to render precise diagnostics; I/O
// failures from the filesystem are wrapped and carry the underlying os
// error for inspection.
var (
	// ErrNoDevice indicates no Controller Pak is present on the port.
	ErrNoDevice = errors.New("no controller pak present")

	// ErrProbeBanks indicates the device reported an invalid bank count.
	ErrProbeBanks = errors.New("bank probe returned an invalid count")

	// ErrTooLarge indicates the image needs more banks than the device has.
	ErrTooLarge = errors.New("image too large for device")

	// ErrShortRead indicates a device read returned fewer bytes than the
	// fixed bank size requires.
	ErrShortRead = errors.New("short read")

	// ErrShortWrite indicates a device or file write was not completed.
	ErrShortWrite = errors.New("short write")

	// ErrCorrupted indicates malformed data: a bad journal magic, a short
	// journal record, or an image with no consistent ID sector copy.
	ErrCorrupted = errors.New("corrupted data")

	// ErrNotFound indicates a missing journal record or pak file.
	ErrNotFound = errors.New("not found")
)
