// Package amiga provides the trackdisk-side collaborators of MFMTools: the
// canonical floppy geometries and raw track capture access. The decoding
// core consumes these through small interfaces and never touches hardware.
package amiga

import (
	"errors"
	"fmt"
)

// Canonical AmigaDOS floppy parameters. Exactly two geometries exist:
// double density (880K) and high density (1760K).
const (
	SectorSize = 512
	TrackCount = 160

	SectorsPerTrackDD = 11
	SectorsPerTrackHD = 22

	ImageSizeDD = TrackCount * SectorsPerTrackDD * SectorSize
	ImageSizeHD = TrackCount * SectorsPerTrackHD * SectorSize

	// Raw capture sizes per track. A revolution of flux produces more raw
	// words than the decoded track holds; these match the buffer sizes
	// trackdisk-era raw reads used.
	RawTrackSizeDD = 0x3A00
	RawTrackSizeHD = 0x7400
)

var (
	// ErrGeometry reports geometry parameters outside the two canonical
	// floppy formats.
	ErrGeometry = errors.New("unsupported disk geometry")

	// ErrImageSize reports a byte length that is neither canonical image
	// size.
	ErrImageSize = errors.New("not a canonical disk image size")
)

// Geometry describes one of the two canonical floppy formats.
type Geometry struct {
	SectorSize      int
	SectorsPerTrack int
	TrackCount      int
}

// GeometryDD returns the double density (880K) geometry.
func GeometryDD() Geometry {
	return Geometry{SectorSize: SectorSize, SectorsPerTrack: SectorsPerTrackDD, TrackCount: TrackCount}
}

// GeometryHD returns the high density (1760K) geometry.
func GeometryHD() Geometry {
	return Geometry{SectorSize: SectorSize, SectorsPerTrack: SectorsPerTrackHD, TrackCount: TrackCount}
}

// Validate checks the geometry against the two canonical formats.
func (g Geometry) Validate() error {
	if g.SectorSize != SectorSize {
		return fmt.Errorf("%w: sector size %d (must be %d)", ErrGeometry, g.SectorSize, SectorSize)
	}
	if g.SectorsPerTrack != SectorsPerTrackDD && g.SectorsPerTrack != SectorsPerTrackHD {
		return fmt.Errorf("%w: %d sectors per track (must be %d or %d)",
			ErrGeometry, g.SectorsPerTrack, SectorsPerTrackDD, SectorsPerTrackHD)
	}
	if g.TrackCount != TrackCount {
		return fmt.Errorf("%w: track count %d (must be %d)", ErrGeometry, g.TrackCount, TrackCount)
	}
	return nil
}

// TrackSize returns the decoded size of one track in bytes.
func (g Geometry) TrackSize() int {
	return g.SectorsPerTrack * g.SectorSize
}

// ImageSize returns the decoded size of a whole disk image in bytes.
func (g Geometry) ImageSize() int {
	return g.TrackCount * g.TrackSize()
}

// RawTrackSize returns the raw capture size of one track in bytes.
func (g Geometry) RawTrackSize() int {
	if g.SectorsPerTrack == SectorsPerTrackHD {
		return RawTrackSizeHD
	}
	return RawTrackSizeDD
}

// GeometryForImageSize maps a disk image byte length to its geometry. Any
// length other than the two canonical sizes is an error.
func GeometryForImageSize(size int64) (Geometry, error) {
	switch size {
	case ImageSizeDD:
		return GeometryDD(), nil
	case ImageSizeHD:
		return GeometryHD(), nil
	}
	return Geometry{}, fmt.Errorf("%w: %d bytes (must be %d or %d)", ErrImageSize, size, ImageSizeDD, ImageSizeHD)
}
