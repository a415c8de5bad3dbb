package lfsr

import (
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/gf2"
)

// LFSR is the test pattern generator. It does not touch any circuit; callers
// feed its states to whatever they are testing.
type LFSR struct {
	poly  Polynomial
	seed  []uint8
	state []uint8
}

// New creates a generator seeded with a single 1 in cell 0.
func New(poly Polynomial) *LFSR {
	seed := make([]uint8, poly.Degree())
	if len(seed) > 0 {
		seed[0] = 1
	}
	return &LFSR{
		poly:  poly,
		seed:  seed,
		state: append([]uint8(nil), seed...),
	}
}

// Polynomial returns the feedback polynomial.
func (l *LFSR) Polynomial() Polynomial {
	return l.poly
}

// State returns a copy of the register.
func (l *LFSR) State() []uint8 {
	return append([]uint8(nil), l.state...)
}

// Seed returns a copy of the initial register value.
func (l *LFSR) Seed() []uint8 {
	return append([]uint8(nil), l.seed...)
}

// Reset returns the register to the seed.
func (l *LFSR) Reset() {
	copy(l.state, l.seed)
}

// Step clocks the register once and returns the new state.
func (l *LFSR) Step() []uint8 {
	if len(l.state) == 0 {
		return nil
	}
	feedback := gf2.Parity(l.state, l.poly.taps)
	gf2.RotateRight(l.state)
	l.state[0] = feedback
	return l.State()
}

// Cycle walks the register from its current state until a state repeats
// and returns the visited states in order, starting with the current one.
// The repeated state is not included and the register is left on it.
//
// With a primitive polynomial of degree n this is every nonzero vector, 2^n-1
// states, ending back on the start. Other polynomials may settle into a
// shorter loop that never returns to the start; the walk still stops there.
func (l *LFSR) Cycle() [][]uint8 {
	start := l.State()
	states := [][]uint8{start}
	seen := map[uint64]struct{}{gf2.Pack(start): {}}
	for {
		next := l.Step()
		key := gf2.Pack(next)
		if _, ok := seen[key]; ok {
			return states
		}
		seen[key] = struct{}{}
		states = append(states, next)
	}
}
