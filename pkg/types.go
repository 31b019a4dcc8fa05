// Package pkg implements the core of MFMTools: locating and decoding
// AmigaDOS sector records inside raw MFM track captures, driving the
// per-track recovery loop, and computing two-level verification checksums
// over recovered disk images.
package pkg

import (
	"context"
	"errors"
	"io"
)

// MFM constants of the AmigaDOS track format.
const (
	// FillerWord is the idle gap pattern between sector records. Because the
	// bit phase of a raw read is arbitrary, its complement 0x5555 is an
	// equally valid reading of the same flux.
	FillerWord uint16 = 0xAAAA

	// SyncWord marks the start of a sector record. The pattern violates the
	// MFM encoding rules, so it can never occur inside encoded data.
	SyncWord uint16 = 0x4489

	// MFMMask selects the data bit-plane of a raw longword; the other plane
	// carries the self-clocking bits.
	MFMMask uint32 = 0x55555555

	// FormatAmigaDOS is the format byte of a standard AmigaDOS sector header.
	FormatAmigaDOS uint8 = 0xFF

	// LabelSize is the size of the OS label area in a sector header.
	LabelSize = 16

	// FillByte is written over the raw track buffer before every read and
	// over the track output buffer before recovery, so regions no decode
	// ever touched are distinguishable from genuine data.
	FillByte byte = 0xE5
)

// syncRegionWords is the number of 16-bit words occupied by the two filler
// words and the two sync words preceding the header of a sector record.
const syncRegionWords = 4

// Sentinel errors shared across the core.
var (
	// ErrBufferExhausted reports a sector record that extends past the end
	// of the raw track buffer. The decode fails closed.
	ErrBufferExhausted = errors.New("sector record extends past end of raw buffer")

	// ErrAborted reports a user-requested abort of the entire run.
	ErrAborted = errors.New("run aborted")
)

// SyncLocation is the exact bit position where a sector record begins inside
// a raw track buffer: the byte offset of the two filler words preceding the
// sync mark, and the bit rotation of the record within the word stream.
type SyncLocation struct {
	ByteOffset int
	BitOffset  uint // always in [0,15]
}

// SectorHeader holds the decoded header fields of one sector record.
// Remaining counts the sectors between this one and the track gap; it is
// recorded by the format but not needed for recovery.
type SectorHeader struct {
	Format    uint8
	Track     uint8
	Sector    uint8
	Remaining uint8
	Label     [LabelSize]byte

	// Recorded checksums, decoded from the record for comparison against
	// the recomputed values.
	HeaderChecksum uint32
	DataChecksum   uint32
}

// DecodedSector is the result of decoding one sector record: the header, the
// payload, and the checksums recomputed from the raw words during decode,
// independent of the recorded values.
type DecodedSector struct {
	Header SectorHeader

	Payload []byte

	ComputedHeaderChecksum uint32
	ComputedDataChecksum   uint32
}

// TrackRecoveryState tracks which sectors of the current track have been
// seen with a plausible header and which of those also had intact payloads.
// It is owned by one track's retry loop and reset at the start of every
// track.
type TrackRecoveryState struct {
	plausible []bool
	intact    []bool
}

// NewTrackRecoveryState creates recovery state for a track with the given
// sector count.
func NewTrackRecoveryState(sectorCount int) *TrackRecoveryState {
	return &TrackRecoveryState{
		plausible: make([]bool, sectorCount),
		intact:    make([]bool, sectorCount),
	}
}

// Found reports whether the given sector number has already been accepted
// during this track's retries.
func (s *TrackRecoveryState) Found(sector int) bool {
	return s.plausible[sector]
}

// Intact reports whether the given sector's payload passed the data
// checksum.
func (s *TrackRecoveryState) Intact(sector int) bool {
	return s.intact[sector]
}

// mark records a first sighting of a sector. Later duplicate sightings must
// never reach this method; the validator enforces first-seen-wins.
func (s *TrackRecoveryState) mark(sector int, intact bool) {
	s.plausible[sector] = true
	if intact {
		s.intact[sector] = true
	}
}

// PlausibleCount returns the number of sectors seen with a plausible header.
func (s *TrackRecoveryState) PlausibleCount() int {
	return countSet(s.plausible)
}

// IntactCount returns the number of sectors whose payload was intact.
func (s *TrackRecoveryState) IntactCount() int {
	return countSet(s.intact)
}

// Complete reports whether every expected sector is plausible and intact.
func (s *TrackRecoveryState) Complete() bool {
	return s.IntactCount() == len(s.intact)
}

func countSet(set []bool) int {
	n := 0
	for _, b := range set {
		if b {
			n++
		}
	}
	return n
}

// RecoveryRunner drives a full disk recovery and streams the recovered
// image to an output writer.
type RecoveryRunner interface {
	Recover(ctx context.Context, out io.Writer) (*RecoveryReport, error)
}

// ReportExporter writes a recovery report in an external format.
type ReportExporter interface {
	ExportYAML(report *RecoveryReport, w io.Writer) error
}
