package pkg

import "encoding/binary"

// tailWords is the number of 16-bit words at the end of the raw buffer that
// FindSync never searches: a match there could not be followed by the sync
// words and the rotation spill without reading past the buffer.
const tailWords = 4

// FindSync scans a raw track buffer for the next sector record, starting at
// the given byte offset. The buffer is bit-addressed in spirit but stored as
// big-endian 16-bit words, and a record may begin at any of 16 bit rotations
// within a word.
//
// The scan looks for gap filler first. Both the idle pattern and its
// complement count as filler, because the bit phase of the capture is
// arbitrary. After skipping the run of filler words, each rotation is tried
// in turn: the expected words are built by combining the filler and sync
// patterns, and for nonzero rotations the low bits of the second sync word
// spill into a third buffer word and are compared under a mask.
//
// On success the returned location addresses the two filler words preceding
// the sync mark, which the decoder expects to skip itself.
func FindSync(buf []byte, start int) (SyncLocation, bool) {
	words := len(buf) / 2
	limit := words - tailWords
	if start < 0 {
		start = 0
	}

	for i := start / 2; i < limit; i++ {
		if !isFiller(wordAt(buf, i)) {
			continue
		}

		// Skip the remainder of the gap.
		j := i + 1
		for j < limit && isFiller(wordAt(buf, j)) {
			j++
		}
		if j >= limit {
			return SyncLocation{}, false
		}
		if j < 2 {
			// Not enough gap before the candidate to address the two
			// filler words the decoder needs.
			i = j
			continue
		}

		if rot, ok := matchSync(buf, j); ok {
			return SyncLocation{ByteOffset: (j - 2) * 2, BitOffset: rot}, true
		}

		// No rotation matched; resume scanning past this gap.
		i = j
	}

	return SyncLocation{}, false
}

// matchSync tries all 16 bit rotations of the two sync words at word index
// j, where buf[j] is the first non-filler word after a gap. It returns the
// first rotation under which both sync words match.
func matchSync(buf []byte, j int) (uint, bool) {
	w1 := uint32(wordAt(buf, j))
	w2 := uint32(wordAt(buf, j+1))
	w3 := uint32(wordAt(buf, j+2))

	filler := uint32(FillerWord)
	sync := uint32(SyncWord)

	for rot := uint(0); rot < 16; rot++ {
		// First word: tail of the gap filler followed by the head of the
		// first sync word.
		exp1 := ((filler<<16 | sync) >> rot) & 0xFFFF
		if w1 != exp1 {
			continue
		}

		// Second word: tail of the first sync word, head of the second.
		exp2 := ((sync<<16 | sync) >> rot) & 0xFFFF
		if w2 != exp2 {
			continue
		}

		if rot == 0 {
			return 0, true
		}

		// The low rot bits of the second sync word spill into the third
		// buffer word; compare just those under a mask.
		mask := uint32(0xFFFF) << (16 - rot) & 0xFFFF
		exp3 := (sync << (16 - rot)) & 0xFFFF
		if w3&mask == exp3 {
			return rot, true
		}
	}

	return 0, false
}

func isFiller(w uint16) bool {
	return w == FillerWord || w == ^FillerWord
}

func wordAt(buf []byte, index int) uint16 {
	return binary.BigEndian.Uint16(buf[index*2:])
}
