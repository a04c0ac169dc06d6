package pkg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/n64vault/cpaktools/pkg/common"
)

// note is one of the 16 directory slots of a pak filesystem. A slot with
// StartPage zero is empty. All fields are big-endian on the wire.
type note struct {
	GameCode      [4]byte
	PublisherCode [2]byte
	StartPage     uint16
	Status        uint8
	_             uint8
	_             uint16
	Extension     [4]byte
	FileName      [16]byte
}

// NoteInfo describes one occupied note slot for display purposes
type NoteInfo struct {
	Index     int    `yaml:"index"`
	GameCode  string `yaml:"game_code"`
	Publisher string `yaml:"publisher"`
	FileName  string `yaml:"filename"`
	Extension string `yaml:"extension"`
	StartPage int    `yaml:"start_page"`
	Pages     int    `yaml:"pages"`
}

// ImageInfo is the decoded structural summary of a pak image file
type ImageInfo struct {
	Path           string     `yaml:"path"`
	Size           int64      `yaml:"size"`
	Banks          int        `yaml:"banks"`
	ValidIDCopies  int        `yaml:"valid_id_copies"`
	Serial         string     `yaml:"serial,omitempty"`
	DeviceID       uint16     `yaml:"device_id"`
	IDBankCount    int        `yaml:"id_bank_count"`
	Checksum       uint16     `yaml:"checksum"`
	ChecksumInv    uint16     `yaml:"checksum_inv"`
	FATValid       bool       `yaml:"fat_valid"`
	FATBackupValid bool       `yaml:"fat_backup_valid"`
	ReservedPages  int        `yaml:"reserved_pages"`
	FreePages      int        `yaml:"free_pages"`
	UsedPages      int        `yaml:"used_pages"`
	Notes          []NoteInfo `yaml:"notes"`
}

// noteNameTable covers the ASCII range of the N64 font code used by note
// filenames: codes 0x10-0x3F. Code 0x00 terminates a name and 0x0F is a
// space; everything past the ASCII range renders as '?'.
const noteNameTable = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ!\"#'*+,-./:="

// decodeNoteName renders a font-coded note name field as ASCII
func decodeNoteName(field []byte) string {
	var name strings.Builder
	for _, c := range field {
		switch {
		case c == 0x00:
			return name.String()
		case c == 0x0F:
			name.WriteByte(' ')
		case c >= 0x10 && c < 0x10+byte(len(noteNameTable)):
			name.WriteByte(noteNameTable[c-0x10])
		default:
			name.WriteByte('?')
		}
	}
	return name.String()
}

// fatEntry returns the allocation table entry for a data page
func fatEntry(fatPage []byte, page int) uint16 {
	return binary.BigEndian.Uint16(fatPage[page*2:])
}

// fatPageValid checks the allocation table page checksum: the 8-bit sum
// of the entries after the reserved region must equal entry 0's low byte.
func fatPageValid(fatPage []byte) bool {
	return fatChecksum(fatPage, firstDataPage) == fatPage[1]
}

// chainLength walks a note's page chain through the allocation table and
// returns the number of pages it occupies. Walks are bounded by the page
// count so a corrupt chain cannot loop forever.
func chainLength(fatPage []byte, startPage uint16) int {
	pages := 0
	page := startPage
	for page != fatEntryLast {
		if page < firstDataPage || int(page) >= PagesPerBank {
			return pages
		}
		pages++
		if pages > PagesPerBank {
			return pages
		}
		page = fatEntry(fatPage, int(page))
	}
	return pages
}

// ReadImageInfo decodes the structural regions of a pak image: the four
// ID sector copies, both allocation table copies, and the note directory.
// Structural damage is reported in the returned info rather than as an
// error; only I/O failures and an undersized file fail the call. The
// decode uses the single-bank layout (FAT at page 1, note table at pages
// 3-4); multi-bank images report bank 0's view.
func ReadImageInfo(path string) (*ImageInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToOpenImage, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToStatImage, err)
	}
	size := stat.Size()
	if size < BankSize {
		return nil, common.FormatError(common.ErrFailedToReadImage,
			fmt.Errorf("%w: image is %d bytes, want at least one %d byte bank", ErrCorrupted, size, BankSize))
	}

	// All structural regions live in bank 0
	bank := make([]byte, BankSize)
	if _, err := file.ReadAt(bank, 0); err != nil {
		return nil, common.FormatError(common.ErrFailedToReadImage, err)
	}

	info := &ImageInfo{
		Path:  path,
		Size:  size,
		Banks: int((size + BankSize - 1) / BankSize),
	}

	var id *IDSector
	for _, offset := range idSectorOffsets {
		sector, err := ParseIDSector(bank[offset : offset+IDSectorSize])
		if err != nil {
			return nil, err
		}
		if sector.Valid() {
			info.ValidIDCopies++
			if id == nil {
				id = sector
			}
		}
	}
	if id != nil {
		info.Serial = common.CString(id.Serial[:])
		info.DeviceID = id.DeviceID
		info.IDBankCount = int(id.BankCount)
		info.Checksum = id.Checksum
		info.ChecksumInv = id.ChecksumInv
	}

	fatPage := bank[fatOffset : fatOffset+PageSize]
	fatBackup := bank[fatBackupOffset : fatBackupOffset+PageSize]
	info.FATValid = fatPageValid(fatPage)
	info.FATBackupValid = fatPageValid(fatBackup)
	if !info.FATValid && info.FATBackupValid {
		fatPage = fatBackup
	}

	info.ReservedPages = firstDataPage
	for page := firstDataPage; page < PagesPerBank; page++ {
		if fatEntry(fatPage, page) == fatEntryFree {
			info.FreePages++
		} else {
			info.UsedPages++
		}
	}

	noteTable := bank[noteTableOffset : noteTableOffset+NoteCount*noteSize]
	reader := bytes.NewReader(noteTable)
	for i := 0; i < NoteCount; i++ {
		var slot note
		if err := binary.Read(reader, binary.BigEndian, &slot); err != nil {
			return nil, common.FormatError(common.ErrFailedToReadImage, err)
		}
		if slot.StartPage == 0 {
			continue
		}
		info.Notes = append(info.Notes, NoteInfo{
			Index:     i,
			GameCode:  common.CString(slot.GameCode[:]),
			Publisher: common.CString(slot.PublisherCode[:]),
			FileName:  decodeNoteName(slot.FileName[:]),
			Extension: decodeNoteName(slot.Extension[:]),
			StartPage: int(slot.StartPage),
			Pages:     chainLength(fatPage, slot.StartPage),
		})
	}

	return info, nil
}
