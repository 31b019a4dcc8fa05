package pkg

import (
	"bytes"
	"testing"
)

// decodeOne encodes a single test sector and decodes it back.
func decodeOne(t *testing.T, sec testSector) *DecodedSector {
	t.Helper()
	buf := encodeTrack(4096, 0, 8, []testSector{sec})
	loc, ok := FindSync(buf, 0)
	if !ok {
		t.Fatal("sync not found")
	}
	decoder, err := NewSectorDecoder(512)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := decoder.Decode(buf, loc)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	return dec
}

func TestValidatorAcceptsGoodSector(t *testing.T) {
	dec := decodeOne(t, newTestSector(t, 40, 3, 11, testPayload(40, 3, 512)))
	v := NewSectorValidator(40, 11)
	if !v.Plausible(dec) {
		t.Error("Plausible() = false for a good sector")
	}
	if !v.Intact(dec) {
		t.Error("Intact() = false for a good sector")
	}
}

func TestValidatorRejectsCrossTrackContamination(t *testing.T) {
	// A sector bled over from track 41 is internally consistent: both
	// checksums match. It still must not pass for track 40.
	dec := decodeOne(t, newTestSector(t, 41, 3, 11, testPayload(41, 3, 512)))
	if dec.Header.HeaderChecksum != dec.ComputedHeaderChecksum {
		t.Fatal("test sector should have a valid header checksum")
	}
	v := NewSectorValidator(40, 11)
	if v.Plausible(dec) {
		t.Error("Plausible() accepted a sector from another track")
	}
}

func TestValidatorRejectsBadFormat(t *testing.T) {
	sec := newTestSector(t, 40, 3, 11, testPayload(40, 3, 512))
	sec.format = 0x00
	dec := decodeOne(t, sec)
	if NewSectorValidator(40, 11).Plausible(dec) {
		t.Error("Plausible() accepted a non-standard format byte")
	}
}

func TestValidatorRejectsSectorOutOfRange(t *testing.T) {
	dec := decodeOne(t, newTestSector(t, 40, 11, 12, testPayload(40, 11, 512)))
	if NewSectorValidator(40, 11).Plausible(dec) {
		t.Error("Plausible() accepted sector number 11 with 11 sectors per track")
	}
}

func TestValidatorRejectsHeaderChecksumMismatch(t *testing.T) {
	sec := newTestSector(t, 40, 3, 11, testPayload(40, 3, 512))
	sec.corruptHeaderChecksum = 0x00000004
	dec := decodeOne(t, sec)
	if NewSectorValidator(40, 11).Plausible(dec) {
		t.Error("Plausible() accepted a corrupted header checksum")
	}
}

func TestValidatorDataDamageIsNotPlausibilityDamage(t *testing.T) {
	sec := newTestSector(t, 40, 3, 11, testPayload(40, 3, 512))
	sec.corruptDataChecksum = 0x00010000
	dec := decodeOne(t, sec)
	v := NewSectorValidator(40, 11)
	if !v.Plausible(dec) {
		t.Error("Plausible() = false for a sector with only data damage")
	}
	if v.Intact(dec) {
		t.Error("Intact() = true for a corrupted data checksum")
	}
}

func TestValidatorFirstSeenWins(t *testing.T) {
	first := decodeOne(t, newTestSector(t, 40, 3, 11, testPayload(40, 3, 512)))
	second := decodeOne(t, newTestSector(t, 40, 3, 11, bytes.Repeat([]byte{0x42}, 512)))

	v := NewSectorValidator(40, 11)
	state := NewTrackRecoveryState(11)
	trackBuf := make([]byte, 11*512)

	if !v.Accept(first, state, trackBuf) {
		t.Fatal("first sighting not accepted")
	}
	if v.Accept(second, state, trackBuf) {
		t.Error("duplicate sighting accepted")
	}
	if !bytes.Equal(trackBuf[3*512:4*512], first.Payload) {
		t.Error("later duplicate overwrote the first-seen payload")
	}
	if state.PlausibleCount() != 1 || state.IntactCount() != 1 {
		t.Errorf("state counts = %d/%d, want 1/1", state.PlausibleCount(), state.IntactCount())
	}
}

func TestValidatorAcceptCopiesToSectorSlot(t *testing.T) {
	dec := decodeOne(t, newTestSector(t, 40, 7, 11, testPayload(40, 7, 512)))
	v := NewSectorValidator(40, 11)
	state := NewTrackRecoveryState(11)
	trackBuf := make([]byte, 11*512)
	fill(trackBuf)

	if !v.Accept(dec, state, trackBuf) {
		t.Fatal("sector not accepted")
	}
	if !bytes.Equal(trackBuf[7*512:8*512], dec.Payload) {
		t.Error("payload not copied to its sector slot")
	}
	// Neighboring slots keep the fill pattern.
	for _, b := range trackBuf[6*512 : 7*512] {
		if b != FillByte {
			t.Error("neighboring slot disturbed")
			break
		}
	}
}
