package amiga

import (
	"fmt"
	"io"
	"os"
)

// TrackReader supplies raw track data. A read either fully populates the
// destination buffer or reports an error; a partial fill never goes
// unreported. Implementations own their underlying resource and release it
// on Close.
type TrackReader interface {
	// ReadRawTrack fills dst with the raw capture of the given track.
	ReadRawTrack(track int, dst []byte) error

	// RawTrackSize returns the size in bytes of one raw track.
	RawTrackSize() int

	io.Closer
}

// CaptureFile reads raw tracks from a flux capture file: the concatenation
// of every track's raw read in ascending order, at the fixed per-track raw
// size of the capture's density. It stands in for the trackdisk raw-read
// capability when recovery runs against a capture taken earlier.
type CaptureFile struct {
	file *os.File
	geo  Geometry
}

// OpenCapture opens a raw capture file for the given geometry. The file
// length must be exactly one raw track per track of the geometry.
func OpenCapture(path string, geo Geometry) (*CaptureFile, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat capture file: %w", err)
	}
	want := int64(geo.TrackCount) * int64(geo.RawTrackSize())
	if info.Size() != want {
		file.Close()
		return nil, fmt.Errorf("capture file %s has %d bytes, want %d (%d tracks of %d raw bytes)",
			path, info.Size(), want, geo.TrackCount, geo.RawTrackSize())
	}

	return &CaptureFile{file: file, geo: geo}, nil
}

// ReadRawTrack fills dst with the raw capture of one track. dst must not be
// larger than the raw track size.
func (c *CaptureFile) ReadRawTrack(track int, dst []byte) error {
	if track < 0 || track >= c.geo.TrackCount {
		return fmt.Errorf("track %d out of range [0,%d)", track, c.geo.TrackCount)
	}
	if len(dst) > c.geo.RawTrackSize() {
		return fmt.Errorf("destination buffer of %d bytes exceeds raw track size %d", len(dst), c.geo.RawTrackSize())
	}

	// ReadAt reads len(dst) bytes or returns an error; a short read cannot
	// pass silently.
	offset := int64(track) * int64(c.geo.RawTrackSize())
	if _, err := c.file.ReadAt(dst, offset); err != nil {
		return fmt.Errorf("failed to read raw track %d: %w", track, err)
	}
	return nil
}

// RawTrackSize returns the per-track raw size of this capture.
func (c *CaptureFile) RawTrackSize() int {
	return c.geo.RawTrackSize()
}

// Close releases the underlying file.
func (c *CaptureFile) Close() error {
	return c.file.Close()
}
