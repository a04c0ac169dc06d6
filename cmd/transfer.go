// Package cmd provides command-line interface for bank transfers.
// This file contains commands for copying whole pak images between files
// and a Controller Pak device, one 32 KiB bank at a time.
package cmd

import (
	"errors"
	"fmt"

	"github.com/n64vault/cpaktools/pkg"
	"github.com/n64vault/cpaktools/pkg/common"
	"github.com/n64vault/cpaktools/pkg/n64"
	"github.com/spf13/cobra"
)

// transferCmd represents the parent command for transfer operations
var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Copy pak images to and from a Controller Pak device",
	Long: `Copy whole pak images between files and a Controller Pak device,
one bank at a time, with per-bank error reporting.

The device argument is a raw device image file standing in for the
physical pak; its size fixes the device's bank count.

Commands:
  backup    Copy the device contents into a pak image file
  restore   Copy a pak image file onto the device

Examples:
  cpaktools transfer backup controller.img backup.pak
  cpaktools transfer restore SuperMario64_001.pak controller.img`,
}

// describeTransferFailure renders the per-bank diagnostics of a failed
// transfer the way the recovery screens do: failing bank plus expected
// versus actual byte counts.
func describeTransferFailure(ctx *pkg.TransferContext, err error) error {
	switch {
	case errors.Is(err, pkg.ErrTooLarge):
		return fmt.Errorf("image too large (%d banks) for device (%d banks): %w",
			ctx.TotalBanks, ctx.DeviceBanks, err)
	case ctx.FailedBank >= 0:
		return fmt.Errorf("bank %d: %d of %d bytes transferred: %w",
			ctx.FailedBank, ctx.BytesActual, ctx.BytesExpected, err)
	default:
		return err
	}
}

// transferBackupCmd copies the device contents into a pak image file
var transferBackupCmd = &cobra.Command{
	Use:   "backup [device_image] [output_file]",
	Short: "Copy the device contents into a pak image file",
	Long: `Copy every bank of the Controller Pak device into a pak image file.

An inconclusive bank probe falls back to a single bank. A failed bank
aborts the backup and leaves the output file truncated; a truncated
output must not be treated as a valid image.

Example:
  cpaktools transfer backup controller.img backup.pak`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		devicePath, outputFile := args[0], args[1]

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		common.SetVerboseMode(verbose)

		device, err := n64.OpenFileDevice(devicePath)
		if err != nil {
			return fmt.Errorf("failed to open device image: %w", err)
		}
		defer device.Close()

		ctx, err := pkg.BackupFromPhysical(device, outputFile)
		if err != nil {
			return describeTransferFailure(ctx, err)
		}

		common.LogInfo(common.InfoBackupComplete, ctx.TotalBanks, ctx.FileSize, outputFile)
		fmt.Printf("Backed up %d bank(s) (%d bytes) to %s\n", ctx.TotalBanks, ctx.FileSize, outputFile)
		return nil
	},
}

// transferRestoreCmd copies a pak image file onto the device
var transferRestoreCmd = &cobra.Command{
	Use:   "restore [image_file] [device_image]",
	Short: "Copy a pak image file onto the device",
	Long: `Copy a pak image file onto the Controller Pak device, bank by bank.

The device capacity is verified before anything is written; an image
needing more banks than the device provides fails up front. Device banks
beyond the image's bank count are left untouched.

Example:
  cpaktools transfer restore SuperMario64_001.pak controller.img`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		imageFile, devicePath := args[0], args[1]

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		common.SetVerboseMode(verbose)

		device, err := n64.OpenFileDevice(devicePath)
		if err != nil {
			return fmt.Errorf("failed to open device image: %w", err)
		}
		defer device.Close()

		ctx, err := pkg.RestoreToPhysical(device, imageFile)
		if err != nil {
			return describeTransferFailure(ctx, err)
		}

		common.LogInfo(common.InfoRestoreComplete, ctx.TotalBanks, ctx.FileSize)
		fmt.Printf("Restored %d bank(s) (%d bytes) to %s\n", ctx.TotalBanks, ctx.FileSize, devicePath)
		return nil
	},
}

// init initializes the transfer command with its subcommands and flags
func init() {
	rootCmd.AddCommand(transferCmd)

	transferCmd.AddCommand(transferBackupCmd)
	transferCmd.AddCommand(transferRestoreCmd)

	transferBackupCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	transferRestoreCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
}
