// Package pkg implements the core of CpakTools: a byte-exact codec for
// N64 Controller Pak filesystem images, a bank-granular transfer engine
// between image files and physical devices, a per-game pak catalog, and a
// crash-recovery session journal.
package pkg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/n64vault/cpaktools/pkg/common"
	"github.com/n64vault/cpaktools/pkg/n64"
)

// Controller Pak geometry. One bank is 32 KiB, addressed as 128 pages of
// 256 bytes. Bank 0 reserves pages 0-4 for the filesystem structures.
const (
	BankSize     = n64.BankSize
	PageSize     = 256
	PagesPerBank = BankSize / PageSize

	IDSectorSize = 32
	NoteCount    = 16
	noteSize     = 32
)

// Structural offsets within bank 0. The ID sector is replicated at four
// fixed offsets inside page 0; the native reader accepts an image when a
// majority of the copies are internally consistent.
var idSectorOffsets = [4]int64{0x020, 0x060, 0x080, 0x0C0}

const (
	fatOffset       = 1 * PageSize // primary allocation table (page 1)
	fatBackupOffset = 2 * PageSize // redundant copy (page 2)
	noteTableOffset = 3 * PageSize // 16 note slots over pages 3-4
	firstDataPage   = 5
)

// Allocation table entry values. Each entry is a big-endian (bank, page)
// byte pair; entry 0's low byte holds the table checksum.
const (
	fatEntryReserved = 0x0000
	fatEntryLast     = 0x0001
	fatEntryFree     = 0x0003
)

// idSerialTag occupies the first bytes of the serial field in images
// created by this tool. The native reader does not interpret the serial,
// so the tag doubles as a provenance marker.
var idSerialTag = []byte("N64MENUVPAK")

// IDSector is the decoded 32-byte structural header of a pak image.
// All fields are big-endian on the wire.
type IDSector struct {
	Serial      [24]byte // serial area; carries idSerialTag for our images
	DeviceID    uint16
	BankCount   uint8
	Version     uint8
	Checksum    uint16
	ChecksumInv uint16
}

// IDChecksum computes both ID sector checksums over the first 28 bytes of
// a raw sector: the sum of its 14 big-endian words, and 0xFFF2 minus that
// sum. The arithmetic matches the native reader bit for bit and must not
// be altered.
func IDChecksum(sector []byte) (checksum uint16, checksumInv uint16) {
	var sum uint32
	for i := 0; i < 14; i++ {
		sum += uint32(binary.BigEndian.Uint16(sector[i*2:]))
	}
	checksum = uint16(sum)
	checksumInv = 0xFFF2 - checksum
	return checksum, checksumInv
}

// Valid reports whether the sector's stored checksums match the computed
// pair.
func (s *IDSector) Valid() bool {
	raw := s.encode()
	checksum, checksumInv := IDChecksum(raw[:])
	return checksum == s.Checksum && checksumInv == s.ChecksumInv
}

// encode serializes the sector back to its 32-byte wire form.
func (s *IDSector) encode() [IDSectorSize]byte {
	var raw [IDSectorSize]byte
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, s)
	copy(raw[:], buf.Bytes())
	return raw
}

// ParseIDSector decodes one raw 32-byte ID sector
func ParseIDSector(raw []byte) (*IDSector, error) {
	if len(raw) < IDSectorSize {
		return nil, common.FormatError(common.ErrFailedToParseID, fmt.Sprintf("need %d bytes, got %d", IDSectorSize, len(raw)))
	}
	sector := &IDSector{}
	if err := binary.Read(bytes.NewReader(raw[:IDSectorSize]), binary.BigEndian, sector); err != nil {
		return nil, common.FormatError(common.ErrFailedToParseID, err)
	}
	return sector, nil
}

// buildIDSector assembles the raw ID sector for a freshly formatted image
// of the given bank count, with both checksums filled in.
func buildIDSector(bankCount int) ([IDSectorSize]byte, error) {
	var sector [IDSectorSize]byte

	// Bytes 0-10: ASCII tag, rest of the serial stays zero
	copy(sector[:], idSerialTag)

	// Bytes 24-25: device-id field (big-endian, value 1)
	binary.BigEndian.PutUint16(sector[24:], 1)

	// Byte 26: bank count, byte 27: version 0
	banks, err := common.SafeIntToUint8(bankCount)
	if err != nil {
		return sector, err
	}
	sector[26] = banks
	sector[27] = 0

	checksum, checksumInv := IDChecksum(sector[:])
	binary.BigEndian.PutUint16(sector[28:], checksum)
	binary.BigEndian.PutUint16(sector[30:], checksumInv)

	common.LogDebug(common.DebugIDSectorChecksums, checksum, checksumInv)
	return sector, nil
}

// fatChecksum sums the (bank, page) byte pairs of all entries from
// firstEntry through the end of the page, truncated to 8 bits. The first
// allocation table page starts the sum after the reserved entries.
func fatChecksum(fatPage []byte, firstEntry int) byte {
	var checksum byte
	for i := firstEntry; i < PagesPerBank; i++ {
		checksum += fatPage[i*2]   // bank byte
		checksum += fatPage[i*2+1] // page byte
	}
	return checksum
}

// buildFATPage assembles the allocation table page for an empty single
// bank image: entries 1-4 reserved for the filesystem structures, entries
// 5-127 free, entry 0's low byte holding the table checksum.
func buildFATPage() [PageSize]byte {
	var fatPage [PageSize]byte

	// Entries 0-4 stay zero: entry 0 is the checksum slot, entries 1-4
	// mark the reserved system pages.
	for i := firstDataPage; i < PagesPerBank; i++ {
		binary.BigEndian.PutUint16(fatPage[i*2:], fatEntryFree)
	}

	checksum := fatChecksum(fatPage[:], firstDataPage)
	fatPage[1] = checksum

	common.LogDebug(common.DebugFATChecksum, checksum)
	return fatPage
}

// NewEmptyBank builds one fully formatted, empty 32 KiB Controller Pak
// bank in memory: zero-filled, with the ID sector replicated at its four
// offsets, the allocation table written at its primary and backup pages,
// and the note table left zeroed (no save entries).
func NewEmptyBank() ([]byte, error) {
	bank := make([]byte, BankSize)

	sector, err := buildIDSector(1)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToCreateImage, err)
	}
	for _, offset := range idSectorOffsets {
		copy(bank[offset:], sector[:])
	}

	fatPage := buildFATPage()
	copy(bank[fatOffset:], fatPage[:])
	copy(bank[fatBackupOffset:], fatPage[:])

	// Note table (pages 3-4) and data pages (5-127) stay zero
	return bank, nil
}

// CreateEmpty writes a new single-bank pak image to path. The result is a
// structurally valid, empty Controller Pak filesystem that the console's
// native reader will mount. A short write fails the call and the partial
// file must not be used.
func CreateEmpty(path string) error {
	bank, err := NewEmptyBank()
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return common.FormatError(common.ErrFailedToCreateImage, err)
	}
	defer file.Close()

	n, err := file.Write(bank)
	if err != nil {
		return common.FormatError(common.ErrFailedToWriteImage, err)
	}
	if n != BankSize {
		return common.FormatError(common.ErrFailedToWriteImage,
			fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, BankSize))
	}
	return nil
}
