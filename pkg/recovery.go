package pkg

import (
	"errors"

	"github.com/n64vault/cpaktools/pkg/common"
	"github.com/n64vault/cpaktools/pkg/n64"
)

// RecoveryAction describes the outcome of the startup recovery check
type RecoveryAction int

const (
	// RecoveryNotNeeded means the journal was clean: the previous session
	// ended normally
	RecoveryNotNeeded RecoveryAction = iota

	// RecoveryBackedUp means an unclean exit was detected, the device was
	// backed up to the recorded image, and the journal was cleared
	RecoveryBackedUp

	// RecoveryManualNeeded means an unclean exit was detected but the
	// device is absent or the backup failed; the journal stays dirty and
	// the caller must drive a manual recovery (reinsert the pak and retry,
	// or explicitly discard)
	RecoveryManualNeeded
)

// RecoveryResult bundles what the recovery check found and did
type RecoveryResult struct {
	Action   RecoveryAction
	Record   *JournalRecord   // the dirty record, when one was found
	Transfer *TransferContext // backup diagnostics, when one was attempted
}

// RunStartupRecovery performs the crash-recovery check. It runs once at
// startup, before normal operation. If the journal holds a dirty record
// and the device is present, the device contents are backed up to the
// recorded image path and the journal is cleared only when that backup
// succeeds. With no device present the journal is left untouched so the
// user can reinsert the original pak and retry.
func RunStartupRecovery(journal *Journal, dev n64.Device) (*RecoveryResult, error) {
	result := &RecoveryResult{Action: RecoveryNotNeeded}

	record, err := journal.Load()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return result, nil
		}
		// A corrupted record cannot be honored automatically
		result.Action = RecoveryManualNeeded
		return result, err
	}
	if record.Dirty == 0 {
		return result, nil
	}
	result.Record = record

	if !dev.Present() {
		common.LogInfo(common.InfoRecoveryManual)
		result.Action = RecoveryManualNeeded
		return result, nil
	}

	pakPath := common.CString(record.PakPath[:])
	ctx, err := BackupFromPhysical(dev, pakPath)
	result.Transfer = ctx
	if err != nil {
		// Leave the journal dirty so the failure is not silently lost
		result.Action = RecoveryManualNeeded
		return result, err
	}

	if err := journal.Clear(); err != nil {
		result.Action = RecoveryManualNeeded
		return result, err
	}

	common.LogInfo(common.InfoRecoveryBackedUp, pakPath)
	result.Action = RecoveryBackedUp
	return result, nil
}
