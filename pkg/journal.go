package pkg

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/n64vault/cpaktools/pkg/common"
)

const (
	// JournalMagic is the record validation constant ("VCPS")
	JournalMagic = 0x56435053

	// journalDir and journalFilename locate the single global journal
	// slot under the storage root
	journalDir      = "menu"
	journalFilename = "vcpak_state.dat"
)

// JournalRecord is the fixed-layout session marker written before a game
// session starts and deleted on clean return. Its presence with Dirty=1
// at the next startup is the sole signal of an unclean prior exit. All
// fields are big-endian on the wire; string fields are NUL-padded.
type JournalRecord struct {
	Magic     uint32
	GameCode  [5]byte
	GameTitle [21]byte
	RomPath   [256]byte
	PakPath   [256]byte
	Timestamp uint32
	Dirty     uint8
	Reserved  [30]byte
}

// JournalRecordSize is the serialized record size in bytes
const JournalRecordSize = 577

// NewJournalRecord builds a dirty record for a session about to start.
// Field contents longer than the fixed widths are truncated.
func NewJournalRecord(gameCode, gameTitle, romPath, pakPath string) (*JournalRecord, error) {
	timestamp, err := common.SafeInt64ToUint32(time.Now().Unix())
	if err != nil {
		return nil, err
	}

	record := &JournalRecord{
		Magic:     JournalMagic,
		Timestamp: timestamp,
		Dirty:     1,
	}
	common.CopyCString(record.GameCode[:], safeGameCode(gameCode))
	common.CopyCString(record.GameTitle[:], gameTitle)
	common.CopyCString(record.RomPath[:], romPath)
	common.CopyCString(record.PakPath[:], pakPath)
	return record, nil
}

// Journal is the single durable session slot. There is one record
// regardless of game or port; a new session's record supersedes any stale
// dirty record from a prior crash.
type Journal struct {
	path string
}

// NewJournal returns the journal rooted at the given storage prefix
func NewJournal(storageRoot string) *Journal {
	return &Journal{
		path: filepath.Join(storageRoot, journalDir, journalFilename),
	}
}

// Path returns the journal record file path
func (j *Journal) Path() string {
	return j.path
}

// Write persists the record, overwriting any prior one. This is the
// Clean to Dirty transition, performed just before a session launches.
func (j *Journal) Write(record *JournalRecord) error {
	if j.IsDirty() {
		common.LogWarn(common.WarnStaleJournal)
	}

	if err := common.EnsureDir(filepath.Dir(j.path)); err != nil {
		return common.FormatError(common.ErrFailedToCreateDirectory, err)
	}

	file, err := os.Create(j.path)
	if err != nil {
		return common.FormatError(common.ErrFailedToWriteJournal, err)
	}
	defer file.Close()

	if err := binary.Write(file, binary.BigEndian, record); err != nil {
		return common.FormatError(common.ErrFailedToWriteJournal, err)
	}
	return nil
}

// Load reads and validates the record. A missing file is ErrNotFound; a
// short record or a bad magic is ErrCorrupted, never a false success.
func (j *Journal) Load() (*JournalRecord, error) {
	file, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("journal record: %w", ErrNotFound)
		}
		return nil, common.FormatError(common.ErrFailedToReadJournal, err)
	}
	defer file.Close()

	record := &JournalRecord{}
	if err := binary.Read(file, binary.BigEndian, record); err != nil {
		return nil, fmt.Errorf("%w: journal record truncated: %v", ErrCorrupted, err)
	}
	if record.Magic != JournalMagic {
		return nil, fmt.Errorf("%w: journal magic 0x%08X, want 0x%08X", ErrCorrupted, record.Magic, uint32(JournalMagic))
	}

	common.LogDebug(common.DebugJournalLoaded, common.CString(record.GameCode[:]), record.Dirty)
	return record, nil
}

// Clear removes the record. This is the Dirty to Clean transition; a
// missing record is already clean and not an error.
func (j *Journal) Clear() error {
	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return common.FormatError(common.ErrFailedToClearJournal, err)
	}
	return nil
}

// IsDirty reports whether a valid record with the dirty flag set exists.
// Missing or corrupted records read as clean.
func (j *Journal) IsDirty() bool {
	record, err := j.Load()
	if err != nil {
		return false
	}
	return record.Dirty != 0
}
