package pkg

// Test-only MFM encoding support. Writing flux data is not something the
// tools do, so the inverse of the sector decoder lives here: it builds raw
// track buffers, at any bit rotation, for the locator and decoder tests to
// chew on.

import (
	"encoding/binary"
	"testing"

	"github.com/retroflux/mfmtools/pkg/common"
)

// bitWriter writes values MSB-first at an arbitrary bit position of a
// zeroed buffer, so whole records can be laid down at any rotation.
type bitWriter struct {
	buf []byte
	pos int // absolute bit position
}

func newBitWriter(size int, rot uint) *bitWriter {
	return &bitWriter{buf: make([]byte, size), pos: int(rot)}
}

func (w *bitWriter) writeBits(value uint32, n int) {
	for k := n - 1; k >= 0; k-- {
		if value>>uint(k)&1 != 0 {
			w.buf[w.pos/8] |= 0x80 >> uint(w.pos%8)
		}
		w.pos++
	}
}

func (w *bitWriter) writeWord(v uint16) { w.writeBits(uint32(v), 16) }
func (w *bitWriter) writeLong(v uint32) { w.writeBits(v, 32) }

// mfmPlanes splits a logical longword into its raw odd and even bit-plane
// longwords. Clock bits are left clear; the decoder masks them off anyway.
func mfmPlanes(v uint32) (odd, even uint32) {
	return (v >> 1) & MFMMask, v & MFMMask
}

// testSector describes one sector record to encode.
type testSector struct {
	format    uint8
	track     uint8
	sector    uint8
	remaining uint8
	label     [LabelSize]byte
	payload   []byte

	// XOR deltas applied to the recorded checksums, to fabricate damage.
	corruptHeaderChecksum uint32
	corruptDataChecksum   uint32
}

func newTestSector(t *testing.T, track, sector, sectorCount int, payload []byte) testSector {
	t.Helper()
	trk, err := common.SafeIntToUint8(track)
	if err != nil {
		t.Fatalf("bad track number: %v", err)
	}
	sec, err := common.SafeIntToUint8(sector)
	if err != nil {
		t.Fatalf("bad sector number: %v", err)
	}
	rem, err := common.SafeIntToUint8(sectorCount - sector)
	if err != nil {
		t.Fatalf("bad remaining count: %v", err)
	}
	return testSector{
		format:    FormatAmigaDOS,
		track:     trk,
		sector:    sec,
		remaining: rem,
		payload:   payload,
	}
}

// encodeSector writes one complete sector record: two filler words, two
// sync words, then the MFM-encoded header, recorded checksums and payload.
func encodeSector(w *bitWriter, s testSector) {
	w.writeWord(FillerWord)
	w.writeWord(FillerWord)
	w.writeWord(SyncWord)
	w.writeWord(SyncWord)

	var hsum, dsum uint32
	emit := func(v uint32, sum *uint32) {
		odd, even := mfmPlanes(v)
		if sum != nil {
			*sum ^= odd
			*sum ^= even
		}
		w.writeLong(odd)
		w.writeLong(even)
	}

	// Header checksum covers identification and label; the data checksum
	// has to be known before the recorded checksums are emitted, so the
	// payload planes are folded first.
	for i := 0; i < len(s.payload); i += 4 {
		odd, even := mfmPlanes(binary.BigEndian.Uint32(s.payload[i:]))
		dsum ^= odd
		dsum ^= even
	}

	info := uint32(s.format)<<24 | uint32(s.track)<<16 | uint32(s.sector)<<8 | uint32(s.remaining)
	emit(info, &hsum)
	for i := 0; i < LabelSize; i += 4 {
		emit(binary.BigEndian.Uint32(s.label[i:]), &hsum)
	}
	emit(hsum^s.corruptHeaderChecksum, nil)
	emit(dsum^s.corruptDataChecksum, nil)
	for i := 0; i < len(s.payload); i += 4 {
		emit(binary.BigEndian.Uint32(s.payload[i:]), nil)
	}
}

// encodeTrack builds a raw track buffer at the given bit rotation: a lead-in
// gap followed by the sector records back to back, the way a formatted track
// reads.
func encodeTrack(size int, rot uint, gapWords int, sectors []testSector) []byte {
	w := newBitWriter(size, rot)
	for i := 0; i < gapWords; i++ {
		w.writeWord(FillerWord)
	}
	for _, s := range sectors {
		encodeSector(w, s)
	}
	return w.buf
}

// testPayload returns a deterministic payload for a track/sector pair.
func testPayload(track, sector, size int) []byte {
	p := make([]byte, size)
	for i := range p {
		p[i] = byte(track + sector*3 + i)
	}
	return p
}
