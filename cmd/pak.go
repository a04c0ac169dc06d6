// Package cmd provides command-line interface for pak image management.
// This file contains commands for creating, listing, inspecting and
// deleting virtual Controller Pak images.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/n64vault/cpaktools/pkg"
	"github.com/n64vault/cpaktools/pkg/common"
	"github.com/spf13/cobra"
)

// pakCmd represents the parent command for all pak image operations
var pakCmd = &cobra.Command{
	Use:   "pak",
	Short: "Manage virtual Controller Pak image files",
	Long: `Manage per-game virtual Controller Pak image files.

Commands:
  create    Create a new formatted empty pak image for a game
  list      List the pak images available for a game
  info      Inspect the filesystem structure of a pak image
  delete    Delete a pak image file

Examples:
  cpaktools pak create ./sdcard NSME "Super Mario 64"
  cpaktools pak list ./sdcard NSME --last-used SuperMario64_001.pak
  cpaktools pak info SuperMario64_001.pak
  cpaktools pak delete SuperMario64_001.pak`,
}

// pakCreateCmd creates a formatted empty pak image under the per-game
// directory, picking the first unused numbered filename
var pakCreateCmd = &cobra.Command{
	Use:   "create [storage_root] [game_code] [game_title]",
	Short: "Create a new formatted empty pak image",
	Long: `Create a new empty pak image for a game.

The image is a structurally valid, empty Controller Pak filesystem:
ID sector replicated at its four offsets with correct checksums, both
allocation table copies, and a zeroed note table. The filename is derived
from the game title (SuperMario64_001.pak, _002, ...).

Example:
  cpaktools pak create ./sdcard NSME "Super Mario 64"`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		storageRoot, gameCode, gameTitle := args[0], args[1], args[2]

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		common.SetVerboseMode(verbose)

		if err := pkg.EnsureGameDirectory(storageRoot, gameCode); err != nil {
			return err
		}

		filename := pkg.GenerateFilename(storageRoot, gameCode, gameTitle)
		fullPath := filepath.Join(pkg.GameDirectory(storageRoot, gameCode), filename)

		if err := pkg.CreateEmpty(fullPath); err != nil {
			return err
		}

		common.LogInfo(common.InfoImageCreated, fullPath)
		fmt.Printf("Created: %s\n", fullPath)
		return nil
	},
}

// pakListCmd renders the catalog listing for a game
var pakListCmd = &cobra.Command{
	Use:   "list [storage_root] [game_code]",
	Short: "List the pak images available for a game",
	Long: `List the pak images available for a game.

Scans <storage_root>/cpak_saves/<game_code>/ for .pak files. The entry
matching --last-used is marked and selected; otherwise the first entry is
selected. A missing directory lists nothing. With --yaml the listing is
printed as a YAML document.

Example:
  cpaktools pak list ./sdcard NSME --last-used SuperMario64_001.pak`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		storageRoot, gameCode := args[0], args[1]

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		common.SetVerboseMode(verbose)

		lastUsed, err := cmd.Flags().GetString("last-used")
		if err != nil {
			return fmt.Errorf("error getting last-used flag: %w", err)
		}
		asYAML, err := cmd.Flags().GetBool("yaml")
		if err != nil {
			return fmt.Errorf("error getting yaml flag: %w", err)
		}

		listing, err := pkg.List(storageRoot, gameCode, lastUsed)
		if err != nil {
			return err
		}

		if asYAML {
			return pkg.ExportListing(listing, os.Stdout)
		}

		if len(listing.Entries) == 0 {
			fmt.Printf("No pak images for %s (selection: create new)\n", listing.GameCode)
			return nil
		}
		for i, entry := range listing.Entries {
			marker := " "
			if i == listing.Selected {
				marker = ">"
			}
			lastUsedNote := ""
			if entry.IsLastUsed {
				lastUsedNote = " (last used)"
			}
			fmt.Printf("%s %3d  %s%s\n", marker, i, entry.Filename, lastUsedNote)
		}
		return nil
	},
}

// pakInfoCmd dumps the decoded structure of a pak image as YAML
var pakInfoCmd = &cobra.Command{
	Use:   "info [image_file]",
	Short: "Inspect the filesystem structure of a pak image",
	Long: `Inspect the filesystem structure of a pak image.

Decodes the four ID sector copies (reporting how many are checksum
valid), verifies both allocation table copies, counts reserved, free and
used pages, and enumerates the note directory. Output is YAML.

Example:
  cpaktools pak info SuperMario64_001.pak`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		common.SetVerboseMode(verbose)

		return pkg.ExportPakInfo(args[0], os.Stdout)
	},
}

// pakDeleteCmd removes a pak image file
var pakDeleteCmd = &cobra.Command{
	Use:   "delete [image_file]",
	Short: "Delete a pak image file",
	Long: `Delete a pak image file.

Any catalog listing scanned before the delete is stale afterwards and
must be rebuilt.

Example:
  cpaktools pak delete SuperMario64_001.pak`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pkg.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted: %s\n", args[0])
		return nil
	},
}

// init initializes the pak command with its subcommands and flags
func init() {
	rootCmd.AddCommand(pakCmd)

	pakCmd.AddCommand(pakCreateCmd)
	pakCmd.AddCommand(pakListCmd)
	pakCmd.AddCommand(pakInfoCmd)
	pakCmd.AddCommand(pakDeleteCmd)

	pakCreateCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	pakListCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	pakListCmd.Flags().String("last-used", "", "Filename of the last used pak for this game")
	pakListCmd.Flags().Bool("yaml", false, "Print the listing as YAML")
	pakInfoCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
}
