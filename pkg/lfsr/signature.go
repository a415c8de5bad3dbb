package lfsr

import (
	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/gf2"
)

// ErrInvalidSequence is returned when SignatureAnalyzer.Run is given a nil
// input. An empty, non-nil slice is a valid empty sequence.
var ErrInvalidSequence = errors.New("input must be a bit sequence")

// SignatureAnalyzer compacts an arbitrary-length bit stream into a
// fixed-width register. Two streams ending on the same state are aliased.
type SignatureAnalyzer struct {
	poly  Polynomial
	state []uint8
}

// NewSignatureAnalyzer creates an analyzer with an all-zero register.
func NewSignatureAnalyzer(poly Polynomial) *SignatureAnalyzer {
	return &SignatureAnalyzer{
		poly:  poly,
		state: make([]uint8, poly.Degree()),
	}
}

// Polynomial returns the feedback polynomial.
func (sa *SignatureAnalyzer) Polynomial() Polynomial {
	return sa.poly
}

// State returns a copy of the register.
func (sa *SignatureAnalyzer) State() []uint8 {
	return append([]uint8(nil), sa.state...)
}

// Signature packs the register into an integer, cell 0 most significant.
func (sa *SignatureAnalyzer) Signature() uint64 {
	return gf2.Pack(sa.state)
}

// Reset clears every cell.
func (sa *SignatureAnalyzer) Reset() {
	for i := range sa.state {
		sa.state[i] = 0
	}
}

// Feed folds one input bit into the register and returns the new state.
func (sa *SignatureAnalyzer) Feed(bit uint8) ([]uint8, error) {
	if err := gf2.CheckBit(bit); err != nil {
		return nil, errors.Wrap(err, "lfsr: signature input")
	}
	if len(sa.state) == 0 {
		return nil, nil
	}
	gf2.RotateLeft(sa.state)
	sa.state[len(sa.state)-1] = gf2.Parity(sa.state, sa.poly.taps) ^ bit
	return sa.State(), nil
}

// Run feeds every bit in order and returns all register states, starting
// with the state before the first bit. The whole input is validated before
// the register is touched.
func (sa *SignatureAnalyzer) Run(bits []uint8) ([][]uint8, error) {
	if bits == nil {
		return nil, errors.Wrap(ErrInvalidSequence, "lfsr: nil input")
	}
	if err := gf2.CheckBits(bits); err != nil {
		return nil, errors.Wrap(err, "lfsr: signature input")
	}
	states := make([][]uint8, 0, len(bits)+1)
	states = append(states, sa.State())
	for _, b := range bits {
		next, err := sa.Feed(b)
		if err != nil {
			return nil, err
		}
		states = append(states, next)
	}
	return states, nil
}
