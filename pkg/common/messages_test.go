// Package common provides tests for logging and error formatting
package common

import (
	"errors"
	"testing"
)

func TestSetVerboseMode(t *testing.T) {
	defer SetVerboseMode(false)

	SetVerboseMode(true)
	if !VerboseMode {
		t.Error("VerboseMode = false after SetVerboseMode(true)")
	}
	SetVerboseMode(false)
	if VerboseMode {
		t.Error("VerboseMode = true after SetVerboseMode(false)")
	}
}

func TestFormatError_WrapsErrors(t *testing.T) {
	base := errors.New("disk full")

	err := FormatError(ErrFailedToWriteImage, base)
	if !errors.Is(err, base) {
		t.Error("FormatError() lost the wrapped error")
	}
	if err.Error() != ErrFailedToWriteImage+": disk full" {
		t.Errorf("FormatError() = %q", err.Error())
	}
}

func TestFormatError_NonErrorDetails(t *testing.T) {
	err := FormatError(ErrFailedToProbeBanks, 42)
	if err.Error() != ErrFailedToProbeBanks+": 42" {
		t.Errorf("FormatError() = %q", err.Error())
	}
}
