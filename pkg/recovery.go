package pkg

import (
	"context"
	"fmt"
	"io"

	"github.com/retroflux/mfmtools/pkg/amiga"
	"github.com/retroflux/mfmtools/pkg/common"
)

// TrackClassification is the outcome of one track's recovery loop.
type TrackClassification int

const (
	// TrackRecovered means every expected sector was plausible and intact.
	TrackRecovered TrackClassification = iota
	// TrackDataDamaged means every header was plausible but at least one
	// sector failed only the data checksum.
	TrackDataDamaged
	// TrackFormatDamaged means some, but not all, headers were implausible.
	TrackFormatDamaged
	// TrackUnformatted means no plausible header was seen at all.
	TrackUnformatted
)

// String returns the report label of a classification.
func (c TrackClassification) String() string {
	switch c {
	case TrackRecovered:
		return "recovered"
	case TrackDataDamaged:
		return "data-damaged"
	case TrackFormatDamaged:
		return "format-damaged"
	case TrackUnformatted:
		return "unformatted"
	}
	return "unknown"
}

// RunResult summarizes a whole recovery run.
type RunResult int

const (
	// RunOK means every track was fully recovered.
	RunOK RunResult = iota
	// RunDegraded means at least one track was recovered but some were not.
	RunDegraded
	// RunFailed means no track was fully recovered.
	RunFailed
)

// String returns the report label of a run result.
func (r RunResult) String() string {
	switch r {
	case RunOK:
		return "ok"
	case RunDegraded:
		return "degraded"
	case RunFailed:
		return "failed"
	}
	return "unknown"
}

// TrackReport records the outcome of one track.
type TrackReport struct {
	Track          int                 `yaml:"track"`
	Classification TrackClassification `yaml:"-"`
	Result         string              `yaml:"result"`
	Attempts       int                 `yaml:"attempts"`
	Plausible      int                 `yaml:"plausible_sectors"`
	Intact         int                 `yaml:"intact_sectors"`
	Skipped        bool                `yaml:"skipped,omitempty"`
}

// RecoveryReport records the outcome of a whole run.
type RecoveryReport struct {
	Session         string        `yaml:"session"`
	Source          string        `yaml:"source,omitempty"`
	SectorsPerTrack int           `yaml:"sectors_per_track"`
	TrackCount      int           `yaml:"track_count"`
	Tracks          []TrackReport `yaml:"tracks"`
	Result          string        `yaml:"result"`
}

// RecoverOptions configures a recovery run.
type RecoverOptions struct {
	// MaxRetries is the per-track attempt ceiling; it must be at least 1.
	MaxRetries int

	// SkipRequested, when non-nil, is polled between attempts and reports
	// whether the user asked to give up on the current track. Skipping ends
	// the track's retries without success; the run continues with the next
	// track.
	SkipRequested func(track int) bool
}

// Validate checks the options once, before any track is read.
func (o RecoverOptions) Validate() error {
	if o.MaxRetries < 1 {
		return fmt.Errorf("invalid retry ceiling %d: must be at least 1", o.MaxRetries)
	}
	return nil
}

// scanSignal is the result of one scan pass over a raw track buffer. The two
// cancellation tiers are explicit return values, propagated by the caller.
type scanSignal int

const (
	scanDone scanSignal = iota
	scanAbort
)

// RecoveryProcessor runs the per-track recovery loop over a raw track
// source and assembles the recovered disk image.
type RecoveryProcessor struct {
	reader  amiga.TrackReader
	geo     amiga.Geometry
	opts    RecoverOptions
	decoder *SectorDecoder
}

// NewRecoveryProcessor creates a recovery processor. Geometry and options
// are validated here; a mismatch aborts before any track is read.
func NewRecoveryProcessor(reader amiga.TrackReader, geo amiga.Geometry, opts RecoverOptions) (*RecoveryProcessor, error) {
	if err := geo.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate geometry: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate recovery options: %w", err)
	}
	decoder, err := NewSectorDecoder(geo.SectorSize)
	if err != nil {
		return nil, err
	}
	return &RecoveryProcessor{
		reader:  reader,
		geo:     geo,
		opts:    opts,
		decoder: decoder,
	}, nil
}

// Recover reads every track in ascending order, retrying damaged tracks up
// to the configured ceiling, and writes each track's output region to out as
// its recovery attempt concludes, recovered or not. Sector slots no decode
// reached keep the fill pattern.
//
// A device error on a raw read is fatal to the whole run. Checksum and
// header mismatches never escape as errors; they end up in the per-track
// classification. A context cancellation aborts the run, discarding the
// in-progress track.
func (p *RecoveryProcessor) Recover(ctx context.Context, out io.Writer) (*RecoveryReport, error) {
	report := &RecoveryReport{
		SectorsPerTrack: p.geo.SectorsPerTrack,
		TrackCount:      p.geo.TrackCount,
	}

	raw := make([]byte, p.reader.RawTrackSize())
	for track := 0; track < p.geo.TrackCount; track++ {
		if err := ctx.Err(); err != nil {
			return nil, ErrAborted
		}

		tr, err := p.recoverTrack(ctx, track, raw, out)
		if err != nil {
			return nil, err
		}
		report.Tracks = append(report.Tracks, tr)
	}

	report.Result = overallResult(report.Tracks).String()
	return report, nil
}

// recoverTrack runs the retry loop for one track and writes its output
// region. The track buffer is pre-filled so unrecovered sector slots are
// recognizable in the image.
func (p *RecoveryProcessor) recoverTrack(ctx context.Context, track int, raw []byte, out io.Writer) (TrackReport, error) {
	state := NewTrackRecoveryState(p.geo.SectorsPerTrack)
	validator := NewSectorValidator(track, p.geo.SectorsPerTrack)

	trackBuf := make([]byte, p.geo.TrackSize())
	fill(trackBuf)

	tr := TrackReport{Track: track}
	for attempt := 1; ; attempt++ {
		tr.Attempts = attempt

		fill(raw)
		if err := p.reader.ReadRawTrack(track, raw); err != nil {
			// Hardware failure: fatal to the run, never retried here.
			return tr, fmt.Errorf("raw read of track %d failed: %w", track, err)
		}

		if sig := p.scanTrack(ctx, raw, validator, state, trackBuf); sig == scanAbort {
			return tr, ErrAborted
		}

		if state.Complete() {
			break
		}
		common.LogDebug(common.DebugTrackDamaged, track, attempt,
			state.PlausibleCount(), state.IntactCount(), p.geo.SectorsPerTrack)

		if p.opts.SkipRequested != nil && p.opts.SkipRequested(track) {
			tr.Skipped = true
			common.LogInfo(common.InfoTrackSkipped, track)
			break
		}
		if attempt >= p.opts.MaxRetries {
			break
		}
	}

	tr.Plausible = state.PlausibleCount()
	tr.Intact = state.IntactCount()
	tr.Classification = classify(state)
	tr.Result = tr.Classification.String()
	if tr.Classification != TrackRecovered {
		common.LogWarn(common.WarnTrackNotRecovered, track, tr.Result, tr.Attempts)
	}

	// The track region goes out regardless of how recovery ended.
	if _, err := out.Write(trackBuf); err != nil {
		return tr, fmt.Errorf("failed to write track %d output: %w", track, err)
	}
	return tr, nil
}

// scanTrack makes one pass over a freshly read raw buffer, locating,
// decoding and validating sector records until the locator comes up empty or
// the per-pass ceiling is reached. The abort tier is polled between scan
// iterations and surfaces as an explicit signal.
func (p *RecoveryProcessor) scanTrack(ctx context.Context, raw []byte, validator *SectorValidator, state *TrackRecoveryState, trackBuf []byte) scanSignal {
	pos := 0
	for hits := 0; hits < p.geo.SectorsPerTrack; hits++ {
		if ctx.Err() != nil {
			return scanAbort
		}

		loc, ok := FindSync(raw, pos)
		if !ok {
			break
		}

		sec, err := p.decoder.Decode(raw, loc)
		if err != nil {
			// Record ran off the end of the buffer; nothing further to scan.
			break
		}
		if validator.Accept(sec, state, trackBuf) {
			common.LogDebug(common.DebugSectorFound,
				sec.Header.Sector, sec.Header.Track, loc.ByteOffset, loc.BitOffset)
		}

		pos = loc.ByteOffset + p.decoder.RecordBytes()
	}
	return scanDone
}

// classify maps final track state to its damage classification.
func classify(state *TrackRecoveryState) TrackClassification {
	expected := len(state.plausible)
	switch plausible := state.PlausibleCount(); {
	case plausible == expected && state.Complete():
		return TrackRecovered
	case plausible == expected:
		return TrackDataDamaged
	case plausible == 0:
		return TrackUnformatted
	default:
		return TrackFormatDamaged
	}
}

// overallResult folds per-track classifications into the run result.
func overallResult(tracks []TrackReport) RunResult {
	recovered := 0
	for _, tr := range tracks {
		if tr.Classification == TrackRecovered {
			recovered++
		}
	}
	switch {
	case recovered == len(tracks):
		return RunOK
	case recovered > 0:
		return RunDegraded
	default:
		return RunFailed
	}
}

// fill overwrites buf with the fill pattern.
func fill(buf []byte) {
	for i := range buf {
		buf[i] = FillByte
	}
}
