package common

import (
	"bytes"
	"os"
)

// FileExists reports whether path exists and is a regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// DirExists reports whether path exists and is a directory
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDir creates a directory if it does not already exist.
// Creating an existing directory is not an error.
func EnsureDir(path string) error {
	if DirExists(path) {
		return nil
	}
	return os.MkdirAll(path, 0o755)
}

// CString converts a fixed-width, NUL-padded byte field to a Go string.
// ROM header fields and journal record fields are not guaranteed to carry
// a terminator, so the full width is used when no NUL is found.
func CString(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		return string(field[:i])
	}
	return string(field)
}

// CopyCString copies s into a fixed-width byte field, truncating if needed
// and leaving room for a NUL terminator.
func CopyCString(field []byte, s string) {
	n := copy(field[:len(field)-1], s)
	for i := n; i < len(field); i++ {
		field[i] = 0
	}
}
