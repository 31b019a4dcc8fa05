package pkg

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retroflux/mfmtools/pkg/amiga"
)

func TestChecksumUpdate(t *testing.T) {
	var c Checksum
	for _, w := range []uint32{1, 2, 3} {
		c.Update(w)
	}
	// Lo = 1+2+3, Hi = 1 + 3 + 6.
	require.Equal(t, uint32(6), c.Lo)
	require.Equal(t, uint32(10), c.Hi)
	require.Equal(t, uint64(10)<<32|6, c.Value())
}

func TestChecksumOrderSensitive(t *testing.T) {
	var a, b Checksum
	for _, w := range []uint32{1, 2, 3} {
		a.Update(w)
	}
	for _, w := range []uint32{2, 1, 3} {
		b.Update(w)
	}
	require.NotEqual(t, a.Value(), b.Value(), "permuting distinct words must change the checksum")
}

func TestChecksumConcatenationIdentity(t *testing.T) {
	bufA := []byte{0x01, 0x02, 0x03, 0x04, 0xAA, 0xBB, 0xCC, 0xDD}
	bufB := []byte{0xFF, 0x00, 0xFF, 0x00, 0x12, 0x34, 0x56, 0x78}

	var split, joined Checksum
	split.UpdateBytes(bufA)
	split.UpdateBytes(bufB)
	joined.UpdateBytes(append(append([]byte{}, bufA...), bufB...))
	require.Equal(t, joined, split)
}

func TestChecksumIgnoresTrailingPartialWord(t *testing.T) {
	var whole, trailing Checksum
	whole.UpdateBytes([]byte{0x01, 0x02, 0x03, 0x04})
	trailing.UpdateBytes([]byte{0x01, 0x02, 0x03, 0x04, 0xEE, 0xEE, 0xEE})
	require.Equal(t, whole, trailing)
}

func TestChecksumTokenLiterals(t *testing.T) {
	// Pinned renderings. The token is a fixed function of the 64-bit
	// value: eleven alphabet symbols, low six bits first, with the signed
	// value arithmetically shifted right between symbols.
	cases := []struct {
		csum Checksum
		want string
	}{
		{Checksum{Hi: 0, Lo: 0}, "00000000000"},
		{Checksum{Hi: 0, Lo: 1}, "10000000000"},
		{Checksum{Hi: 0, Lo: 64}, "01000000000"},
		// The sign bit reaches the last symbol through the arithmetic
		// shift: the eleventh symbol reads the sign-extended high bits.
		{Checksum{Hi: 0x80000000, Lo: 0}, "0000000000w"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.csum.Token(), "token of %016X", tc.csum.Value())
	}
}

func TestChecksumTokenDeterministic(t *testing.T) {
	c := Checksum{Hi: 0xDEADBEEF, Lo: 0x01234567}
	first := c.Token()
	require.Len(t, first, 11)
	require.Equal(t, first, c.Token())
	for _, r := range first {
		require.Contains(t, tokenAlphabet, string(r))
		require.NotContains(t, "Ol", string(r), "confusable symbols must never appear")
	}
}

func TestTokenAlphabetShape(t *testing.T) {
	require.Len(t, tokenAlphabet, 64)
	seen := map[rune]bool{}
	for _, r := range tokenAlphabet {
		require.False(t, seen[r], "duplicate symbol %q", r)
		seen[r] = true
	}
	require.False(t, seen['O'])
	require.False(t, seen['l'])
}

func TestChecksumImageHighDensity(t *testing.T) {
	data := make([]byte, amiga.ImageSizeHD)
	for i := range data {
		data[i] = byte(i * 7)
	}

	engine := NewChecksumEngine()
	ic, err := engine.ChecksumImage(data)
	require.NoError(t, err)
	require.Len(t, ic.Tracks, amiga.TrackCount)
	require.Equal(t, amiga.SectorsPerTrackHD, ic.Geometry.SectorsPerTrack)

	// Deterministic across runs.
	again, err := engine.ChecksumImage(data)
	require.NoError(t, err)
	require.Equal(t, ic.Final, again.Final)
	require.Len(t, ic.Final.Token(), 11)

	// The final checksum is the fold of the per-track pairs plus the
	// trailing size record.
	var want Checksum
	for _, tc := range ic.Tracks {
		want.Update(tc.Hi)
		want.Update(tc.Lo)
	}
	want.Update(0)
	want.Update(uint32(len(data)))
	require.Equal(t, want, ic.Final)
}

func TestChecksumImageLocalizesDivergence(t *testing.T) {
	a := make([]byte, amiga.ImageSizeDD)
	b := make([]byte, amiga.ImageSizeDD)
	copy(b, a)
	// Flip one word inside track 93.
	geo := amiga.GeometryDD()
	binary.BigEndian.PutUint32(b[93*geo.TrackSize()+100:], 0xCAFEBABE)

	engine := NewChecksumEngine()
	ca, err := engine.ChecksumImage(a)
	require.NoError(t, err)
	cb, err := engine.ChecksumImage(b)
	require.NoError(t, err)

	require.NotEqual(t, ca.Final, cb.Final)
	for tr := 0; tr < geo.TrackCount; tr++ {
		if tr == 93 {
			require.NotEqual(t, ca.Tracks[tr], cb.Tracks[tr])
		} else {
			require.Equal(t, ca.Tracks[tr], cb.Tracks[tr], "track %d", tr)
		}
	}
}

func TestChecksumImageRejectsBadSize(t *testing.T) {
	engine := NewChecksumEngine()
	for _, size := range []int{0, 512, amiga.ImageSizeDD - 1, amiga.ImageSizeDD + 1} {
		_, err := engine.ChecksumImage(make([]byte, size))
		require.ErrorIs(t, err, amiga.ErrImageSize, "size %d", size)
	}
}
