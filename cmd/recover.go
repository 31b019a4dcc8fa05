// Package cmd provides the command-line interface for disk recovery.
// This file contains the command that rebuilds an ADF disk image from a raw
// MFM track capture.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/retroflux/mfmtools/pkg"
	"github.com/retroflux/mfmtools/pkg/amiga"
	"github.com/retroflux/mfmtools/pkg/common"
	"github.com/spf13/cobra"
)

// recoverCmd rebuilds a disk image from a raw track capture, retrying
// damaged tracks up to the configured ceiling and classifying every track
// in the recovery report.
var recoverCmd = &cobra.Command{
	Use:   "recover [capture_file] [output_image]",
	Short: "Recover an ADF disk image from a raw MFM track capture",
	Long: `Recover an ADF disk image from a raw MFM track capture.

This command will:
- Scan every track of the capture for AmigaDOS sector records
- Validate each sector's header and data checksums
- Retry damaged tracks up to the configured ceiling
- Write the recovered image and, optionally, a YAML recovery report

Damaged sectors never stop the run: each track is classified (recovered,
data-damaged, format-damaged or unformatted) and recovery continues with
the next track. Press Ctrl-C to abort the whole run.

Example:
  mfmtools recover capture.raw disk.adf
  mfmtools recover --retries 5 --density hd --report report.yaml capture.raw disk.adf`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		captureFile := args[0]
		outputFile := args[1]

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		common.SetVerboseMode(verbose)

		retries, err := cmd.Flags().GetInt("retries")
		if err != nil {
			return fmt.Errorf("error getting retries flag: %w", err)
		}
		density, err := cmd.Flags().GetString("density")
		if err != nil {
			return fmt.Errorf("error getting density flag: %w", err)
		}
		reportFile, err := cmd.Flags().GetString("report")
		if err != nil {
			return fmt.Errorf("error getting report flag: %w", err)
		}

		geo, err := geometryForDensity(density)
		if err != nil {
			return err
		}

		// The session owns everything the run opens and releases it in
		// reverse order on every exit path.
		session := pkg.NewRecoverySession()
		defer session.Close()

		capture, err := amiga.OpenCapture(captureFile, geo)
		if err != nil {
			return fmt.Errorf("failed to open capture: %w", err)
		}
		session.Track(capture)

		out, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output image: %w", err)
		}
		session.Track(out)

		processor, err := pkg.NewRecoveryProcessor(capture, geo, pkg.RecoverOptions{
			MaxRetries: retries,
		})
		if err != nil {
			return err
		}

		// Ctrl-C is the abort tier: it unwinds the run and discards
		// partial output.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		common.LogInfo(common.InfoRecoveryStarted, geo.TrackCount, geo.SectorsPerTrack, captureFile)

		report, err := processor.Recover(ctx, out)
		if errors.Is(err, pkg.ErrAborted) {
			session.Close()
			os.Remove(outputFile)
			fmt.Println("Recovery cancelled; partial output discarded.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to recover disk: %w", err)
		}

		report.Session = uuid.New().String()
		report.Source = captureFile

		recovered := 0
		for _, tr := range report.Tracks {
			if tr.Classification == pkg.TrackRecovered {
				recovered++
			}
		}
		common.LogInfo(common.InfoRecoveryResult, report.Result, recovered, len(report.Tracks))
		common.LogInfo(common.InfoImageWritten, outputFile)

		if reportFile != "" {
			if err := writeReport(report, reportFile); err != nil {
				return err
			}
			common.LogInfo(common.InfoReportWritten, reportFile)
		}

		return nil
	},
}

// geometryForDensity maps the --density flag to a canonical geometry.
func geometryForDensity(density string) (amiga.Geometry, error) {
	switch density {
	case "dd":
		return amiga.GeometryDD(), nil
	case "hd":
		return amiga.GeometryHD(), nil
	}
	return amiga.Geometry{}, fmt.Errorf("invalid density %q: must be dd or hd", density)
}

// writeReport exports the recovery report as YAML.
func writeReport(report *pkg.RecoveryReport, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	exporter := pkg.NewReportExporter()
	if err := exporter.ExportYAML(report, f); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// init initializes the recover command with its flags.
func init() {
	rootCmd.AddCommand(recoverCmd)

	recoverCmd.Flags().IntP("retries", "r", 3, "Per-track retry ceiling (minimum 1)")
	recoverCmd.Flags().StringP("density", "d", "dd", "Disk density: dd (880K) or hd (1760K)")
	recoverCmd.Flags().String("report", "", "Write a YAML recovery report to this file")
	recoverCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output with per-track details")
}
