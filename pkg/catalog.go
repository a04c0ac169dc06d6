package pkg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/n64vault/cpaktools/pkg/common"
)

const (
	// SavesBaseDir is the directory under the storage root holding one
	// subdirectory of pak images per game code
	SavesBaseDir = "cpak_saves"

	// PakExtension is the recognized image file extension
	PakExtension = ".pak"

	// maxPakNumber bounds the numeric filename probe before falling back
	// to timestamp naming
	maxPakNumber = 999

	// titleStemLimit caps how many source bytes of a game title feed the
	// filename stem. ROM title fields are fixed 20-byte regions with no
	// guaranteed terminator.
	titleStemLimit = 20
)

// safeGameCode returns a printable copy of a game code. The code is a
// fixed 4-byte ROM header field with no guaranteed terminator, so only
// the first four bytes are ever consulted.
func safeGameCode(gameCode string) string {
	if len(gameCode) > 4 {
		gameCode = gameCode[:4]
	}
	if i := strings.IndexByte(gameCode, 0); i >= 0 {
		gameCode = gameCode[:i]
	}
	return gameCode
}

// GameDirectory returns the pak directory for a game:
// <storageRoot>/cpak_saves/<code>/
func GameDirectory(storageRoot, gameCode string) string {
	return filepath.Join(storageRoot, SavesBaseDir, safeGameCode(gameCode))
}

// EnsureGameDirectory creates the per-game pak directory, including the
// saves base directory, if either does not exist. Idempotent.
func EnsureGameDirectory(storageRoot, gameCode string) error {
	if err := common.EnsureDir(filepath.Join(storageRoot, SavesBaseDir)); err != nil {
		return common.FormatError(common.ErrFailedToCreateDirectory, err)
	}
	if err := common.EnsureDir(GameDirectory(storageRoot, gameCode)); err != nil {
		return common.FormatError(common.ErrFailedToCreateDirectory, err)
	}
	return nil
}

// List scans a game's pak directory and returns its catalog listing.
// Entries are files with the pak extension (case-insensitive). A missing
// directory yields an empty listing, not an error. At most one entry is
// marked last-used, by exact filename match; when nothing matches but
// entries exist, the first entry is selected, and an empty listing
// selects the implicit "create new" choice.
func List(storageRoot, gameCode, lastUsedFilename string) (*PakListing, error) {
	listing := &PakListing{
		GameCode: safeGameCode(gameCode),
		Selected: SelectionCreateNew,
	}

	gameDir := GameDirectory(storageRoot, gameCode)
	dirEntries, err := os.ReadDir(gameDir)
	if err != nil {
		if os.IsNotExist(err) {
			return listing, nil
		}
		return nil, common.FormatError(common.ErrFailedToScanDirectory, err)
	}

	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		name := dirEntry.Name()
		if !strings.EqualFold(filepath.Ext(name), PakExtension) {
			continue
		}

		entry := PakEntry{
			Filename: name,
			FullPath: filepath.Join(gameDir, name),
		}
		if lastUsedFilename != "" && name == lastUsedFilename {
			entry.IsLastUsed = true
			listing.Selected = len(listing.Entries)
		}
		common.LogDebug(common.DebugCatalogEntry, len(listing.Entries), name, entry.IsLastUsed)
		listing.Entries = append(listing.Entries, entry)
	}

	// No last-used match: default to the first entry when any exist
	if listing.Selected == SelectionCreateNew && len(listing.Entries) > 0 {
		listing.Selected = 0
	}

	return listing, nil
}

// titleStem derives a filesystem-safe stem from a game title by keeping
// only ASCII letters and digits from its first 20 source bytes. An empty
// result falls back to the game code.
func titleStem(gameTitle, gameCode string) string {
	var stem strings.Builder
	for i := 0; i < len(gameTitle) && i < titleStemLimit; i++ {
		c := gameTitle[i]
		if c == 0 {
			break
		}
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			stem.WriteByte(c)
		}
	}
	if stem.Len() == 0 {
		return safeGameCode(gameCode)
	}
	return stem.String()
}

// GenerateFilename picks an unused filename for a new pak image in the
// game's directory, probing <stem>_001.pak through <stem>_999.pak. If all
// numbered names are taken it falls back to a Unix-timestamp suffix.
func GenerateFilename(storageRoot, gameCode, gameTitle string) string {
	gameDir := GameDirectory(storageRoot, gameCode)
	stem := titleStem(gameTitle, gameCode)

	for i := 1; i <= maxPakNumber; i++ {
		name := fmt.Sprintf("%s_%03d%s", stem, i, PakExtension)
		if !common.FileExists(filepath.Join(gameDir, name)) {
			return name
		}
	}

	return fmt.Sprintf("%s_%d%s", stem, time.Now().Unix(), PakExtension)
}

// Delete removes a pak image file. Any listing scanned before the delete
// is stale and must be rebuilt by the caller.
func Delete(fullPath string) error {
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", fullPath, ErrNotFound)
		}
		return common.FormatError(common.ErrFailedToDeletePak, err)
	}
	return nil
}
