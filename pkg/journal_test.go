// Package pkg provides tests for the session journal
package pkg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/n64vault/cpaktools/pkg/common"
)

func TestJournalRecord_WireSize(t *testing.T) {
	// The record layout is a fixed external contract
	if size := binary.Size(&JournalRecord{}); size != JournalRecordSize {
		t.Errorf("binary.Size(JournalRecord) = %d, want %d", size, JournalRecordSize)
	}
}

func TestJournal_WriteThenLoad(t *testing.T) {
	journal := NewJournal(t.TempDir())

	record, err := NewJournalRecord("NSME", "Super Mario 64", "/sd/roms/mario.z64", "/sd/cpak_saves/NSME/Mario_001.pak")
	if err != nil {
		t.Fatalf("NewJournalRecord() failed: %v", err)
	}
	if err := journal.Write(record); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	loaded, err := journal.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Magic != JournalMagic {
		t.Errorf("Magic = 0x%08X, want 0x%08X", loaded.Magic, uint32(JournalMagic))
	}
	if got := common.CString(loaded.GameCode[:]); got != "NSME" {
		t.Errorf("GameCode = %q, want NSME", got)
	}
	if got := common.CString(loaded.GameTitle[:]); got != "Super Mario 64" {
		t.Errorf("GameTitle = %q, want %q", got, "Super Mario 64")
	}
	if got := common.CString(loaded.PakPath[:]); got != "/sd/cpak_saves/NSME/Mario_001.pak" {
		t.Errorf("PakPath = %q", got)
	}
	if loaded.Dirty != 1 {
		t.Errorf("Dirty = %d, want 1", loaded.Dirty)
	}
	if loaded.Timestamp == 0 {
		t.Error("Timestamp not set")
	}
	if !journal.IsDirty() {
		t.Error("IsDirty() = false after writing a dirty record")
	}
}

func TestJournal_ClearThenLoad(t *testing.T) {
	journal := NewJournal(t.TempDir())

	record, err := NewJournalRecord("NSME", "Title", "/rom", "/pak")
	if err != nil {
		t.Fatalf("NewJournalRecord() failed: %v", err)
	}
	if err := journal.Write(record); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	if err := journal.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, err := journal.Load(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after Clear() error = %v, want ErrNotFound", err)
	}

	// Clearing an already-clean journal is not an error
	if err := journal.Clear(); err != nil {
		t.Errorf("second Clear() failed: %v", err)
	}
	if journal.IsDirty() {
		t.Error("IsDirty() = true after Clear()")
	}
}

func TestJournal_LoadMissing(t *testing.T) {
	journal := NewJournal(t.TempDir())
	if _, err := journal.Load(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestJournal_CorruptedMagic(t *testing.T) {
	journal := NewJournal(t.TempDir())

	record, err := NewJournalRecord("NSME", "Title", "/rom", "/pak")
	if err != nil {
		t.Fatalf("NewJournalRecord() failed: %v", err)
	}
	record.Magic = 0xDEADBEEF

	// Serialize by hand so Write's validation cannot get in the way
	var buffer bytes.Buffer
	if err := binary.Write(&buffer, binary.BigEndian, record); err != nil {
		t.Fatalf("failed to serialize record: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(journal.Path()), 0o755); err != nil {
		t.Fatalf("failed to create journal dir: %v", err)
	}
	if err := os.WriteFile(journal.Path(), buffer.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write corrupt record: %v", err)
	}

	if _, err := journal.Load(); !errors.Is(err, ErrCorrupted) {
		t.Errorf("Load() error = %v, want ErrCorrupted", err)
	}
	if journal.IsDirty() {
		t.Error("IsDirty() = true for a corrupted record")
	}
}

func TestJournal_TruncatedRecord(t *testing.T) {
	journal := NewJournal(t.TempDir())

	record, err := NewJournalRecord("NSME", "Title", "/rom", "/pak")
	if err != nil {
		t.Fatalf("NewJournalRecord() failed: %v", err)
	}
	if err := journal.Write(record); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := os.Truncate(journal.Path(), 100); err != nil {
		t.Fatalf("failed to truncate record: %v", err)
	}

	if _, err := journal.Load(); !errors.Is(err, ErrCorrupted) {
		t.Errorf("Load() error = %v, want ErrCorrupted", err)
	}
}

func TestJournal_WriteSupersedesStaleRecord(t *testing.T) {
	journal := NewJournal(t.TempDir())

	first, err := NewJournalRecord("AAAA", "First", "/rom1", "/pak1")
	if err != nil {
		t.Fatalf("NewJournalRecord() failed: %v", err)
	}
	if err := journal.Write(first); err != nil {
		t.Fatalf("first Write() failed: %v", err)
	}

	second, err := NewJournalRecord("BBBB", "Second", "/rom2", "/pak2")
	if err != nil {
		t.Fatalf("NewJournalRecord() failed: %v", err)
	}
	if err := journal.Write(second); err != nil {
		t.Fatalf("second Write() failed: %v", err)
	}

	loaded, err := journal.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := common.CString(loaded.GameCode[:]); got != "BBBB" {
		t.Errorf("GameCode = %q, want BBBB (stale record superseded)", got)
	}
}
