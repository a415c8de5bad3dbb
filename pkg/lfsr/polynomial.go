package lfsr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/gf2"
)

// MaxDegree bounds register length so a state always packs into a uint64.
const MaxDegree = 64

// ErrInvalidPolynomial is returned for a malformed tap vector or expression.
var ErrInvalidPolynomial = errors.New("invalid polynomial")

// Polynomial is an immutable feedback tap vector.
type Polynomial struct {
	taps []uint8
}

// NewPolynomial copies bits into a Polynomial.
func NewPolynomial(bits []uint8) (Polynomial, error) {
	if len(bits) == 0 || len(bits) > MaxDegree {
		return Polynomial{}, errors.Wrapf(ErrInvalidPolynomial, "degree %d outside 1..%d", len(bits), MaxDegree)
	}
	if err := gf2.CheckBits(bits); err != nil {
		return Polynomial{}, errors.Wrap(err, "lfsr: polynomial taps")
	}
	return Polynomial{taps: append([]uint8(nil), bits...)}, nil
}

// MustPolynomial is NewPolynomial for literals known to be valid.
func MustPolynomial(bits ...uint8) Polynomial {
	p, err := NewPolynomial(bits)
	if err != nil {
		panic(err)
	}
	return p
}

// ReferencePolynomial returns the primitive degree-7 generator polynomial
// x7 + x6 + x5 + x3 + x2 + x1 + 1.
func ReferencePolynomial() Polynomial {
	return MustPolynomial(1, 1, 1, 0, 1, 1, 1)
}

// Degree is the register length the polynomial feeds.
func (p Polynomial) Degree() int {
	return len(p.taps)
}

// Taps counts the set taps, one XOR (adder) per tap in hardware.
func (p Polynomial) Taps() int {
	return gf2.Weight(p.taps)
}

// Bits returns a copy of the tap vector.
func (p Polynomial) Bits() []uint8 {
	return append([]uint8(nil), p.taps...)
}

// IsZero reports whether no tap is set.
func (p Polynomial) IsZero() bool {
	return gf2.IsZero(p.taps)
}

// Equal reports whether both polynomials have the same tap vector.
func (p Polynomial) Equal(o Polynomial) bool {
	if len(p.taps) != len(o.taps) {
		return false
	}
	for i := range p.taps {
		if p.taps[i] != o.taps[i] {
			return false
		}
	}
	return true
}

// String renders the polynomial as x<i> + x<j> + ... + 1 in descending power.
func (p Polynomial) String() string {
	terms := make([]string, 0, len(p.taps)+1)
	for i, b := range p.taps {
		if b == 1 {
			terms = append(terms, fmt.Sprintf("x%d", len(p.taps)-i))
		}
	}
	terms = append(terms, "1")
	return strings.Join(terms, " + ")
}

// MarshalText implements encoding.TextMarshaler so reports carry the
// symbolic form.
func (p Polynomial) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// MaxWalkDegree bounds the degrees Enumerate accepts and the generators a
// full cycle walk is run on. Both grow as 2^degree.
const MaxWalkDegree = 20

// Enumerate returns every nonzero polynomial of the given degree, counting
// up in binary with tap 0 as the most significant bit.
func Enumerate(degree int) ([]Polynomial, error) {
	if degree < 1 || degree > MaxWalkDegree {
		return nil, errors.Wrapf(ErrInvalidPolynomial, "cannot enumerate degree %d", degree)
	}
	total := uint64(1)<<uint(degree) - 1
	polys := make([]Polynomial, 0, total)
	for v := uint64(1); v <= total; v++ {
		polys = append(polys, Polynomial{taps: gf2.Unpack(v, degree)})
	}
	return polys, nil
}
