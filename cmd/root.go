// Package cmd provides command-line interface functionality for MFMTools.
// MFMTools is a collection of utilities for recovering and verifying
// Commodore Amiga floppy disks from raw MFM track captures.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
// It provides the main entry point for the MFMTools application.
var rootCmd = &cobra.Command{
	Use:   "mfmtools",
	Short: "Tools for recovering and verifying Amiga floppy disks",
	Long: `MFMTools - Utilities for recovering and verifying Commodore Amiga
floppy disks from raw MFM track captures.

Currently supports:
  - Recovering ADF disk images from raw track captures (with retries)
  - Computing two-level verification checksums of ADF images
  - Inspecting individual sector records in a raw capture

Examples:
  mfmtools recover capture.raw disk.adf
  mfmtools recover --retries 5 --report report.yaml capture.raw disk.adf
  mfmtools checksum disk.adf backup/*.adf
  mfmtools inspect --track 40 capture.raw

Use 'mfmtools [command] --help' for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main() and serves as the entry point for command execution.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
