// Package cmd provides the command-line interface for CpakTools.
// CpakTools manages per-game virtual Controller Pak images on removable
// storage and mirrors them to and from physical Controller Pak devices.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
// It provides the main entry point for the CpakTools application.
var rootCmd = &cobra.Command{
	Use:   "cpaktools",
	Short: "Tools for managing virtual N64 Controller Pak images",
	Long: `CpakTools - Utilities for managing per-game virtual Controller Pak
images and mirroring them to and from physical Controller Pak devices.

Currently supports:
  - PAK images (create formatted empty images, list per-game catalogs,
    inspect filesystem structure, delete)
  - Transfers (bank-granular backup and restore against a device image)
  - Session journal (crash detection and startup recovery)

Examples:
  cpaktools pak create ./sdcard NSME "Super Mario 64"
  cpaktools pak list ./sdcard NSME
  cpaktools pak info ./sdcard/cpak_saves/NSME/SuperMario64_001.pak
  cpaktools transfer backup controller.img backup.pak
  cpaktools transfer restore SuperMario64_001.pak controller.img
  cpaktools journal status ./sdcard

Use 'cpaktools [command] --help' for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main() and serves as the entry
// point for command execution.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
