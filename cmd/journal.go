// Package cmd provides command-line interface for the session journal.
// This file contains commands for querying, clearing and recovering the
// crash-detection journal record.
package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/n64vault/cpaktools/pkg"
	"github.com/n64vault/cpaktools/pkg/common"
	"github.com/n64vault/cpaktools/pkg/n64"
	"github.com/spf13/cobra"
)

// journalCmd represents the parent command for session journal operations
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query and recover the crash-detection session journal",
	Long: `Query and recover the session journal.

A journal record is written before a game session starts and cleared on
clean return. A record still marked dirty at startup means the previous
session ended uncleanly and the physical pak holds unsaved changes.

Commands:
  status    Show the journal state and the recorded session
  clear     Discard the journal record
  recover   Run the startup recovery protocol against a device

Examples:
  cpaktools journal status ./sdcard
  cpaktools journal recover ./sdcard controller.img
  cpaktools journal clear ./sdcard`,
}

// journalStatusCmd shows the journal state and the recorded session
var journalStatusCmd = &cobra.Command{
	Use:   "status [storage_root]",
	Short: "Show the journal state and the recorded session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		journal := pkg.NewJournal(args[0])

		record, err := journal.Load()
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				fmt.Println("Journal: clean (no session in progress)")
				return nil
			}
			return err
		}

		state := "clean"
		if record.Dirty != 0 {
			state = "DIRTY (unclean exit detected)"
		}
		fmt.Printf("Journal: %s\n", state)
		fmt.Printf("  Game code:  %s\n", common.CString(record.GameCode[:]))
		fmt.Printf("  Game title: %s\n", common.CString(record.GameTitle[:]))
		fmt.Printf("  ROM path:   %s\n", common.CString(record.RomPath[:]))
		fmt.Printf("  Pak image:  %s\n", common.CString(record.PakPath[:]))
		fmt.Printf("  Started:    %s\n", time.Unix(int64(record.Timestamp), 0).UTC().Format(time.RFC3339))
		return nil
	},
}

// journalClearCmd discards the journal record
var journalClearCmd = &cobra.Command{
	Use:   "clear [storage_root]",
	Short: "Discard the journal record",
	Long: `Discard the journal record.

Clearing a dirty record abandons whatever the physical pak holds from the
interrupted session; use recover first unless that is intended. Clearing
an already-clean journal does nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		journal := pkg.NewJournal(args[0])
		if err := journal.Clear(); err != nil {
			return err
		}
		common.LogInfo(common.InfoJournalCleared)
		fmt.Println("Journal cleared")
		return nil
	},
}

// journalRecoverCmd runs the startup recovery protocol
var journalRecoverCmd = &cobra.Command{
	Use:   "recover [storage_root] [device_image]",
	Short: "Run the startup recovery protocol against a device",
	Long: `Run the startup recovery protocol.

If the journal holds a dirty record and the device is present, the device
contents are backed up to the recorded pak image and the journal is
cleared. If the backup fails or no device is present, the journal is left
dirty for a later retry.

Example:
  cpaktools journal recover ./sdcard controller.img`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		storageRoot, devicePath := args[0], args[1]

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		common.SetVerboseMode(verbose)

		journal := pkg.NewJournal(storageRoot)

		device, err := n64.OpenFileDevice(devicePath)
		if err != nil {
			return fmt.Errorf("failed to open device image: %w", err)
		}
		defer device.Close()

		result, err := pkg.RunStartupRecovery(journal, device)
		if err != nil {
			if result != nil && result.Transfer != nil {
				return describeTransferFailure(result.Transfer, err)
			}
			return err
		}

		switch result.Action {
		case pkg.RecoveryNotNeeded:
			fmt.Println("Journal is clean; nothing to recover")
		case pkg.RecoveryBackedUp:
			fmt.Printf("Recovered: device backed up to %s\n",
				common.CString(result.Record.PakPath[:]))
		case pkg.RecoveryManualNeeded:
			fmt.Println("Manual recovery needed: insert the original pak and retry, or clear the journal to discard")
		}
		return nil
	},
}

// init initializes the journal command with its subcommands and flags
func init() {
	rootCmd.AddCommand(journalCmd)

	journalCmd.AddCommand(journalStatusCmd)
	journalCmd.AddCommand(journalClearCmd)
	journalCmd.AddCommand(journalRecoverCmd)

	journalRecoverCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
}
