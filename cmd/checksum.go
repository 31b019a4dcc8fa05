// Package cmd provides the command-line interface for image verification.
// This file contains the command that fingerprints ADF disk images with the
// two-level checksum scheme.
package cmd

import (
	"fmt"
	"os"

	"github.com/retroflux/mfmtools/pkg"
	"github.com/retroflux/mfmtools/pkg/amiga"
	"github.com/retroflux/mfmtools/pkg/common"
	"github.com/spf13/cobra"
)

// checksumCmd fingerprints disk images. Files that are not regular files of
// a canonical image size are skipped without failing the run, so the
// command can be pointed at whole directories worth of globbed paths.
var checksumCmd = &cobra.Command{
	Use:   "checksum [file]...",
	Short: "Compute verification checksums of ADF disk images",
	Long: `Compute verification checksums of ADF disk images.

For every accepted file one line is printed: an 11-character checksum token
followed by the file path. Files that are not regular files, or whose size
is not one of the two canonical image sizes (880K or 1760K ADF), are
silently skipped.

The token is derived from a two-level checksum: each of the 160 tracks is
checksummed independently, and the per-track values are folded into one
image fingerprint. With verbose mode the per-track checksums are printed
too, which localizes a divergence between two images to a specific track.

Example:
  mfmtools checksum disk.adf
  mfmtools checksum backup/*.adf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		common.SetVerboseMode(verbose)

		engine := pkg.NewChecksumEngine()
		for _, path := range args {
			if err := checksumFile(engine, path); err != nil {
				return err
			}
		}
		return nil
	},
}

// checksumFile fingerprints one file, skipping anything the engine cannot
// accept. Only genuine read failures propagate as errors.
func checksumFile(engine *pkg.ChecksumEngine, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		common.LogDebug(common.WarnFileSkipped, path, "not a regular file")
		return nil
	}
	size, err := common.SafeInt64ToInt(info.Size())
	if err != nil {
		return fmt.Errorf("failed to size %s: %w", path, err)
	}
	if size != amiga.ImageSizeDD && size != amiga.ImageSizeHD {
		common.LogDebug(common.WarnFileSkipped, path, "not a canonical image size")
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	ic, err := engine.ChecksumImage(data)
	if err != nil {
		return fmt.Errorf("failed to checksum %s: %w", path, err)
	}

	for t, tc := range ic.Tracks {
		common.LogDebug(common.DebugChecksumTrack, t, tc.Hi, tc.Lo)
	}
	fmt.Printf("%s %s\n", ic.Final.Token(), path)
	return nil
}

// init initializes the checksum command with its flags.
func init() {
	rootCmd.AddCommand(checksumCmd)

	checksumCmd.Flags().BoolP("verbose", "v", false, "Print per-track checksums")
}
