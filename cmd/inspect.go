// Package cmd provides the command-line interface for capture diagnostics.
// This file contains the command that dumps decoded sector records from a
// raw MFM track capture.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/retroflux/mfmtools/pkg"
	"github.com/retroflux/mfmtools/pkg/amiga"
	"github.com/retroflux/mfmtools/pkg/common"
	"github.com/spf13/cobra"
)

// inspectCmd dumps per-sector diagnostics from a raw capture: every decoded
// header field annotated pass/fail, and with verbose mode a hex/ASCII dump
// of the decoded payload.
var inspectCmd = &cobra.Command{
	Use:   "inspect [capture_file]",
	Short: "Inspect sector records in a raw MFM track capture",
	Long: `Inspect sector records in a raw MFM track capture.

For every sector record found on the selected track this command prints the
decoded format, track and sector fields and both checksums, each annotated
pass or FAIL against what the track should contain. With verbose mode the
decoded payload is dumped as hex and printable characters.

Example:
  mfmtools inspect --track 40 capture.raw
  mfmtools inspect -v --track 40 --density hd capture.raw`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		captureFile := args[0]

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		common.SetVerboseMode(verbose)

		track, err := cmd.Flags().GetInt("track")
		if err != nil {
			return fmt.Errorf("error getting track flag: %w", err)
		}
		density, err := cmd.Flags().GetString("density")
		if err != nil {
			return fmt.Errorf("error getting density flag: %w", err)
		}

		geo, err := geometryForDensity(density)
		if err != nil {
			return err
		}
		if track < 0 || track >= geo.TrackCount {
			return fmt.Errorf("invalid track %d: must be in [0,%d)", track, geo.TrackCount)
		}

		capture, err := amiga.OpenCapture(captureFile, geo)
		if err != nil {
			return fmt.Errorf("failed to open capture: %w", err)
		}
		defer capture.Close()

		inspector, err := pkg.NewTrackInspector(geo)
		if err != nil {
			return err
		}

		raw := make([]byte, capture.RawTrackSize())
		if err := capture.ReadRawTrack(track, raw); err != nil {
			return fmt.Errorf("failed to read track %d: %w", track, err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		err = inspector.InspectTrack(ctx, os.Stdout, raw, track, verbose)
		if errors.Is(err, pkg.ErrAborted) {
			fmt.Println("Inspection cancelled.")
			return nil
		}
		return err
	},
}

// init initializes the inspect command with its flags.
func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().IntP("track", "t", 0, "Track number to inspect")
	inspectCmd.Flags().StringP("density", "d", "dd", "Disk density: dd (880K) or hd (1760K)")
	inspectCmd.Flags().BoolP("verbose", "v", false, "Dump decoded payload bytes")
}
