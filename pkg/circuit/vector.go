package circuit

import (
	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/gf2"
)

// VectorCount is the number of distinct test vectors.
const VectorCount = 1 << InputCount

// ErrInvalidTestVector is returned for an input vector that is not exactly
// seven bits of 0 or 1.
var ErrInvalidTestVector = errors.New("test vector must have 7 inputs")

// Vector assigns x1..x7.
type Vector [InputCount]uint8

// Output holds f1..f6.
type Output [InternalCount]uint8

// NewVector validates bits and copies them into a Vector.
func NewVector(bits []uint8) (Vector, error) {
	var v Vector
	if len(bits) != InputCount {
		return v, errors.Wrapf(ErrInvalidTestVector, "got %d inputs %v", len(bits), bits)
	}
	if err := gf2.CheckBits(bits); err != nil {
		return v, errors.Wrapf(ErrInvalidTestVector, "%v: %v", bits, err)
	}
	copy(v[:], bits)
	return v, nil
}

// ParseVector reads a vector written as seven '0'/'1' characters.
func ParseVector(s string) (Vector, error) {
	bits, err := gf2.ParseBits(s)
	if err != nil {
		return Vector{}, errors.Wrapf(ErrInvalidTestVector, "%q: %v", s, err)
	}
	return NewVector(bits)
}

// VectorFromIndex returns vector i of the enumeration, x1 most significant.
func VectorFromIndex(i int) Vector {
	var v Vector
	copy(v[:], gf2.Unpack(uint64(i)&(VectorCount-1), InputCount))
	return v
}

// AllVectors returns the 128 vectors in enumeration order.
func AllVectors() []Vector {
	vs := make([]Vector, VectorCount)
	for i := range vs {
		vs[i] = VectorFromIndex(i)
	}
	return vs
}

// Index is the inverse of VectorFromIndex.
func (v Vector) Index() int {
	return int(gf2.Pack(v[:]))
}

// Bits returns the vector as a slice.
func (v Vector) Bits() []uint8 {
	return append([]uint8(nil), v[:]...)
}

func (v Vector) validate() error {
	if err := gf2.CheckBits(v[:]); err != nil {
		return errors.Wrapf(ErrInvalidTestVector, "%v: %v", v[:], err)
	}
	return nil
}

func (v Vector) String() string {
	return gf2.Format(v[:])
}

// MarshalText implements encoding.TextMarshaler.
func (v Vector) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Bits returns the output as a slice, f1 first.
func (o Output) Bits() []uint8 {
	return append([]uint8(nil), o[:]...)
}

// Get returns the value of gate output n. Inputs are not part of an Output.
func (o Output) Get(n Node) (uint8, error) {
	if !n.Valid() || n.IsInput() {
		return 0, errors.Wrapf(ErrInvalidFaultNode, "%s is not an output", n)
	}
	return o[n.Number()-1], nil
}

func (o Output) String() string {
	return gf2.Format(o[:])
}

// MarshalText implements encoding.TextMarshaler.
func (o Output) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
