// Package gf2 holds the bit-vector primitives shared by the register and
// circuit models. Every value is a uint8 restricted to 0 or 1.
package gf2

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidBit is returned when a value outside {0, 1} is used as a bit.
var ErrInvalidBit = errors.New("bit must be 0 or 1")

// CheckBit reports ErrInvalidBit for anything other than 0 or 1.
func CheckBit(b uint8) error {
	if b > 1 {
		return errors.Wrapf(ErrInvalidBit, "got %d", b)
	}
	return nil
}

// CheckBits validates every element of bs.
func CheckBits(bs []uint8) error {
	for i, b := range bs {
		if b > 1 {
			return errors.Wrapf(ErrInvalidBit, "got %d at index %d", b, i)
		}
	}
	return nil
}

// Parity returns the XOR-reduction of a AND mask. The vectors must have the
// same length; extra elements of the longer one are ignored.
func Parity(a, mask []uint8) uint8 {
	n := len(a)
	if len(mask) < n {
		n = len(mask)
	}
	var p uint8
	for i := 0; i < n; i++ {
		p ^= a[i] & mask[i]
	}
	return p
}

// RotateRight shifts every element one position toward the end, moving the
// last element to index 0.
func RotateRight(bs []uint8) {
	if len(bs) < 2 {
		return
	}
	last := bs[len(bs)-1]
	copy(bs[1:], bs[:len(bs)-1])
	bs[0] = last
}

// RotateLeft shifts every element one position toward the start, moving
// element 0 to the end.
func RotateLeft(bs []uint8) {
	if len(bs) < 2 {
		return
	}
	first := bs[0]
	copy(bs, bs[1:])
	bs[len(bs)-1] = first
}

// Weight counts the set bits.
func Weight(bs []uint8) int {
	n := 0
	for _, b := range bs {
		n += int(b)
	}
	return n
}

// IsZero reports whether every bit is 0.
func IsZero(bs []uint8) bool {
	for _, b := range bs {
		if b != 0 {
			return false
		}
	}
	return true
}

// Pack folds bs into an integer with index 0 as the most significant bit.
func Pack(bs []uint8) uint64 {
	var v uint64
	for _, b := range bs {
		v = v<<1 | uint64(b&1)
	}
	return v
}

// Unpack is the inverse of Pack for a vector of n bits.
func Unpack(v uint64, n int) []uint8 {
	bs := make([]uint8, n)
	for i := n - 1; i >= 0; i-- {
		bs[i] = uint8(v & 1)
		v >>= 1
	}
	return bs
}

// Format renders bs as a string of '0' and '1' characters.
func Format(bs []uint8) string {
	var sb strings.Builder
	sb.Grow(len(bs))
	for _, b := range bs {
		sb.WriteByte('0' + b)
	}
	return sb.String()
}

// ParseBits is the inverse of Format.
func ParseBits(s string) ([]uint8, error) {
	bs := make([]uint8, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			bs[i] = 0
		case '1':
			bs[i] = 1
		default:
			return nil, errors.Wrapf(ErrInvalidBit, "character %q at index %d", s[i], i)
		}
	}
	return bs, nil
}
