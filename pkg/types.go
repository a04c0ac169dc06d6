package pkg

// PakEntry represents one virtual pak image file in a game's catalog
type PakEntry struct {
	Filename   string // Filename only (no path)
	FullPath   string // Absolute path to the image file
	IsLastUsed bool   // True if this was the last pak used for this game
}

// SelectionCreateNew is the listing selection sentinel for the implicit
// "create new pak" choice when no existing entry is selected.
const SelectionCreateNew = -1

// PakListing is the result of scanning a game's pak directory.
//
// A listing is a snapshot: it must be discarded and rebuilt after any
// create or delete in the underlying directory, since entry indices are
// only meaningful against the directory state they were scanned from.
type PakListing struct {
	GameCode string     // 4-character game code the listing is scoped to
	Entries  []PakEntry // Scanned entries, in directory order
	Selected int        // Index of the selected entry, or SelectionCreateNew
}

// TransferContext carries per-bank diagnostics for a transfer operation.
// It is populated on every call, success or failure, and never persisted.
type TransferContext struct {
	FailedBank    int   // Bank where the operation failed (-1 if none)
	TotalBanks    int   // Banks required by the image
	DeviceBanks   int   // Banks reported by the device probe
	FileSize      int64 // Image file size in bytes
	BytesExpected int   // Expected byte count for the failing bank
	BytesActual   int   // Actual byte count transferred for the failing bank
}
