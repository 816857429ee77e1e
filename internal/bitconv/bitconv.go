// Package bitconv packs label maps into fixed-width bit streams.
package bitconv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"

	"github.com/yyyoichi/bitstream-go"
)

var (
	ErrInvalidLabel  = errors.New("bitconv: invalid label")
	ErrInvalidPacked = errors.New("bitconv: invalid packed labels")
)

// Packed is a label vector stored with Width bits per label, most
// significant bit first.
type Packed struct {
	Width int
	Count int
	Words []uint64
}

// Width returns the number of bits needed for labels in [0, k).
func Width(k int) int {
	if k <= 2 {
		return 1
	}
	return bits.Len(uint(k - 1))
}

// PackLabels stores labels with the smallest width that holds the largest one.
func PackLabels(labels []int) (Packed, error) {
	top := 0
	for i, l := range labels {
		if l < 0 {
			return Packed{}, fmt.Errorf("%w: %d at %d", ErrInvalidLabel, l, i)
		}
		top = max(top, l)
	}
	width := Width(top + 1)

	w := bitstream.NewBitWriter[uint64](0, 0)
	for _, l := range labels {
		for b := width - 1; b >= 0; b-- {
			w.WriteBool((l>>b)&1 == 1)
		}
	}
	return Packed{Width: width, Count: len(labels), Words: w.Data()}, nil
}

// UnpackLabels restores the label vector of p.
func UnpackLabels(p Packed) ([]int, error) {
	if p.Width < 1 || p.Width > 63 || p.Count < 0 {
		return nil, fmt.Errorf("%w: width %d count %d", ErrInvalidPacked, p.Width, p.Count)
	}
	total := p.Width * p.Count
	labels := make([]int, p.Count)
	if total == 0 {
		return labels, nil
	}

	reader := bitstream.NewBitReader(p.Words, 0, 0)
	reader.SetBits(total)
	pos := 0
	for i := range labels {
		var l int
		for range p.Width {
			bit, err := reader.ReadBitAt(pos)
			if err != nil {
				return nil, fmt.Errorf("%w: bit %d: %w", ErrInvalidPacked, pos, err)
			}
			l <<= 1
			if bit {
				l |= 1
			}
			pos++
		}
		labels[i] = l
	}
	return labels, nil
}

// Bytes serializes the words big endian.
func (p Packed) Bytes() []byte {
	out := make([]byte, 0, len(p.Words)*8)
	for _, w := range p.Words {
		out = binary.BigEndian.AppendUint64(out, w)
	}
	return out
}

// ParsePacked is the inverse of Packed.Bytes.
func ParsePacked(width, count int, b []byte) (Packed, error) {
	if len(b)%8 != 0 {
		return Packed{}, fmt.Errorf("%w: %d bytes", ErrInvalidPacked, len(b))
	}
	words := make([]uint64, len(b)/8)
	for i := range words {
		words[i] = binary.BigEndian.Uint64(b[i*8:])
	}
	return Packed{Width: width, Count: count, Words: words}, nil
}
