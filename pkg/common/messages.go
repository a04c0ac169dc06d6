package common

import (
	"fmt"
	"log"
)

// Global variable to control debug output
var VerboseMode bool = false

// SetVerboseMode enables or disables verbose/debug output
func SetVerboseMode(verbose bool) {
	VerboseMode = verbose
}

// Error messages
const (
	ErrFailedToCreateImage     = "failed to create pak image"
	ErrFailedToWriteImage      = "failed to write pak image"
	ErrFailedToOpenImage       = "failed to open pak image"
	ErrFailedToParseID         = "failed to parse ID sector"
	ErrFailedToReadImage       = "failed to read pak image"
	ErrFailedToStatImage       = "failed to determine pak image size"
	ErrFailedToCreateBackup    = "failed to create backup file"
	ErrFailedToWriteBackup     = "failed to write backup file"
	ErrFailedToCreateDirectory = "failed to create directory"
	ErrFailedToScanDirectory   = "failed to scan pak directory"
	ErrFailedToDeletePak       = "failed to delete pak file"
	ErrFailedToWriteJournal    = "failed to write journal record"
	ErrFailedToReadJournal     = "failed to read journal record"
	ErrFailedToClearJournal    = "failed to clear journal record"
	ErrFailedToProbeBanks      = "failed to probe device banks"
	ErrFailedToUnmountDevice   = "failed to unmount device filesystem view"
	ErrFailedToReadDevice      = "failed to read bank from device"
	ErrFailedToWriteDevice     = "failed to write bank to device"
)

// Info messages
const (
	InfoImageCreated     = "Created empty pak image: %s"
	InfoBackupComplete   = "Backup complete: %d banks (%d bytes) -> %s"
	InfoRestoreComplete  = "Restore complete: %d banks (%d bytes) -> device"
	InfoJournalCleared   = "Journal record cleared"
	InfoJournalClean     = "Journal is clean (no session in progress)"
	InfoRecoveryBackedUp = "Recovered unclean session: device backed up to %s"
	InfoRecoveryManual   = "Unclean session detected but no device present; manual recovery required"
)

// Debug messages
const (
	DebugIDSectorChecksums = "ID sector checksums: 0x%04X / 0x%04X"
	DebugFATChecksum       = "FAT page checksum: 0x%02X"
	DebugBankTransferred   = "Bank %d: transferred %d bytes"
	DebugDeviceBanks       = "Device reports %d bank(s)"
	DebugImageSize         = "Image size: %d bytes (%d banks)"
	DebugJournalLoaded     = "Journal loaded: game=%s, dirty=%d"
	DebugCatalogEntry      = "Catalog entry %d: %s (last used: %v)"
)

// Warning messages
const (
	WarnProbeInconclusive = "Bank probe inconclusive, assuming 1 bank"
	WarnStaleJournal      = "Overwriting a stale dirty journal record from a previous session"
	WarnTruncatedBackup   = "Backup failed at bank %d; output file is truncated and must not be used"
)

// LogInfo logs an informational message
func LogInfo(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[INFO] "+message, args...)
	} else {
		log.Printf("[INFO] %s", message)
	}
}

// LogWarn logs a warning message
func LogWarn(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[WARN] "+message, args...)
	} else {
		log.Printf("[WARN] %s", message)
	}
}

// LogError logs an error message
func LogError(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[ERROR] "+message, args...)
	} else {
		log.Printf("[ERROR] %s", message)
	}
}

// LogDebug logs a debug message (only if VerboseMode is enabled)
func LogDebug(message string, args ...interface{}) {
	if !VerboseMode {
		return
	}
	if len(args) > 0 {
		log.Printf("[DEBUG] "+message, args...)
	} else {
		log.Printf("[DEBUG] %s", message)
	}
}

// FormatError creates a formatted error with additional context
func FormatError(baseMessage string, details interface{}) error {
	if err, ok := details.(error); ok {
		return fmt.Errorf("%s: %w", baseMessage, err)
	}
	return fmt.Errorf("%s: %v", baseMessage, details)
}
