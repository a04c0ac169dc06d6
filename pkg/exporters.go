package pkg

import (
	"io"

	"gopkg.in/yaml.v3"
)

// listingExport is the YAML shape of a catalog listing
type listingExport struct {
	GameCode string            `yaml:"game_code"`
	Selected int               `yaml:"selected"`
	Entries  []listingEntryDoc `yaml:"entries"`
}

type listingEntryDoc struct {
	Filename   string `yaml:"filename"`
	FullPath   string `yaml:"full_path"`
	IsLastUsed bool   `yaml:"is_last_used"`
}

// ExportPakInfo decodes a pak image and writes its structural summary
// (ID sector copies, allocation table statistics, note directory) as a
// YAML document.
func ExportPakInfo(imagePath string, writer io.Writer) error {
	info, err := ReadImageInfo(imagePath)
	if err != nil {
		return err
	}

	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(info)
}

// ExportListing writes a catalog listing as a YAML document
func ExportListing(listing *PakListing, writer io.Writer) error {
	doc := listingExport{
		GameCode: listing.GameCode,
		Selected: listing.Selected,
		Entries:  make([]listingEntryDoc, 0, len(listing.Entries)),
	}
	for _, entry := range listing.Entries {
		doc.Entries = append(doc.Entries, listingEntryDoc{
			Filename:   entry.Filename,
			FullPath:   entry.FullPath,
			IsLastUsed: entry.IsLastUsed,
		})
	}

	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(doc)
}
