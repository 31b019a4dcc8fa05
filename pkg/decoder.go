package pkg

import (
	"encoding/binary"
	"fmt"
)

// mfmCursor reads raw 32-bit longwords from a track buffer at a fixed bit
// rotation. For nonzero rotations each read combines the tail of one
// longword with the head of the next, so the cursor needs two spare bytes
// beyond the last longword it returns. Every read is bounds-checked; running
// off the buffer fails the decode rather than fabricating bits.
type mfmCursor struct {
	buf []byte
	pos int  // byte offset of the next raw longword
	rot uint // bit rotation in [0,15]
}

func newMFMCursor(buf []byte, loc SyncLocation) *mfmCursor {
	return &mfmCursor{
		buf: buf,
		pos: loc.ByteOffset + syncRegionWords*2,
		rot: loc.BitOffset,
	}
}

// rawLong returns the next raw longword at the cursor's rotation and
// advances by four bytes.
func (c *mfmCursor) rawLong() (uint32, error) {
	need := c.pos + 4
	if c.rot > 0 {
		need += 2
	}
	if c.pos < 0 || need > len(c.buf) {
		return 0, ErrBufferExhausted
	}

	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	if c.rot > 0 {
		spill := binary.BigEndian.Uint16(c.buf[c.pos+4:])
		v = v<<c.rot | uint32(spill)>>(16-c.rot)
	}
	c.pos += 4
	return v, nil
}

// fieldLong reconstructs one logical longword from the next two raw
// longwords, separating the two interleaved bit-planes and stripping the
// clock bits. The masked raw words are also XORed into *csum when the field
// is covered by a checksum; passing nil skips accumulation (the recorded
// checksum longs are excluded from their own computation).
func (c *mfmCursor) fieldLong(csum *uint32) (uint32, error) {
	odd, err := c.rawLong()
	if err != nil {
		return 0, err
	}
	even, err := c.rawLong()
	if err != nil {
		return 0, err
	}
	if csum != nil {
		*csum ^= odd & MFMMask
		*csum ^= even & MFMMask
	}
	return (odd&MFMMask)<<1 | even&MFMMask, nil
}

// SectorDecoder reconstructs sector records from raw MFM track buffers.
type SectorDecoder struct {
	payloadSize int
}

// NewSectorDecoder creates a decoder for sectors with the given payload
// size in bytes. The payload size must be a multiple of four.
func NewSectorDecoder(payloadSize int) (*SectorDecoder, error) {
	if payloadSize <= 0 || payloadSize%4 != 0 {
		return nil, fmt.Errorf("invalid sector payload size %d: must be a positive multiple of 4", payloadSize)
	}
	return &SectorDecoder{payloadSize: payloadSize}, nil
}

// RecordBytes returns the size in bytes of one complete sector record in the
// raw buffer, from the two filler words through the last payload longword.
// The recovery loop uses it to resume scanning past a decoded record.
func (d *SectorDecoder) RecordBytes() int {
	// sync region + (info + 4 label + 2 recorded checksums + payload
	// longwords), each logical longword occupying two raw longwords.
	logical := 1 + 4 + 2 + d.payloadSize/4
	return syncRegionWords*2 + logical*8
}

// Decode reconstructs the sector record at loc. The header checksum is
// recomputed over the masked raw words of the identification and label
// fields, the data checksum over the masked raw payload words; the recorded
// checksum longwords contribute to neither. A record that runs past the end
// of the buffer aborts the decode.
func (d *SectorDecoder) Decode(buf []byte, loc SyncLocation) (*DecodedSector, error) {
	if loc.BitOffset > 15 {
		return nil, fmt.Errorf("invalid bit rotation %d: must be in [0,15]", loc.BitOffset)
	}
	c := newMFMCursor(buf, loc)
	sec := &DecodedSector{Payload: make([]byte, d.payloadSize)}

	info, err := c.fieldLong(&sec.ComputedHeaderChecksum)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sector info: %w", err)
	}
	sec.Header.Format = uint8(info >> 24)
	sec.Header.Track = uint8(info >> 16)
	sec.Header.Sector = uint8(info >> 8)
	sec.Header.Remaining = uint8(info)

	for i := 0; i < LabelSize/4; i++ {
		label, err := c.fieldLong(&sec.ComputedHeaderChecksum)
		if err != nil {
			return nil, fmt.Errorf("failed to decode sector label: %w", err)
		}
		binary.BigEndian.PutUint32(sec.Header.Label[i*4:], label)
	}

	if sec.Header.HeaderChecksum, err = c.fieldLong(nil); err != nil {
		return nil, fmt.Errorf("failed to decode header checksum: %w", err)
	}
	if sec.Header.DataChecksum, err = c.fieldLong(nil); err != nil {
		return nil, fmt.Errorf("failed to decode data checksum: %w", err)
	}

	for i := 0; i < d.payloadSize/4; i++ {
		word, err := c.fieldLong(&sec.ComputedDataChecksum)
		if err != nil {
			return nil, fmt.Errorf("failed to decode payload longword %d: %w", i, err)
		}
		binary.BigEndian.PutUint32(sec.Payload[i*4:], word)
	}

	return sec, nil
}
