package pkg

// SectorValidator judges decoded sectors for the track currently being
// recovered.
type SectorValidator struct {
	track       int
	sectorCount int
}

// NewSectorValidator creates a validator for the given track number and
// expected sector count.
func NewSectorValidator(track, sectorCount int) *SectorValidator {
	return &SectorValidator{track: track, sectorCount: sectorCount}
}

// Plausible reports whether the decoded header can belong to the track under
// recovery: standard format byte, matching track number, sector number in
// range, and a recorded header checksum equal to the recomputed one. A
// header from an adjacent track is rejected here even when its checksums are
// internally consistent.
func (v *SectorValidator) Plausible(sec *DecodedSector) bool {
	h := &sec.Header
	return h.Format == FormatAmigaDOS &&
		int(h.Track) == v.track &&
		int(h.Sector) < v.sectorCount &&
		h.HeaderChecksum == sec.ComputedHeaderChecksum
}

// Intact reports whether the payload of a plausible sector survived: the
// recorded data checksum equals the one recomputed during decode.
func (v *SectorValidator) Intact(sec *DecodedSector) bool {
	return sec.Header.DataChecksum == sec.ComputedDataChecksum
}

// Accept applies a decoded sector to the track state and output buffer.
// Only a plausible header whose sector number has not been seen before in
// this track's retries updates anything; the payload is copied into the
// sector's slot of trackBuf on that first sighting only. Duplicate
// sightings, implausible headers and out-of-range sectors are ignored.
// It reports whether the sector was accepted.
func (v *SectorValidator) Accept(sec *DecodedSector, state *TrackRecoveryState, trackBuf []byte) bool {
	if !v.Plausible(sec) {
		return false
	}
	n := int(sec.Header.Sector)
	if state.Found(n) {
		return false
	}
	state.mark(n, v.Intact(sec))
	copy(trackBuf[n*len(sec.Payload):], sec.Payload)
	return true
}
