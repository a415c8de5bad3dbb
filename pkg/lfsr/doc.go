// Package lfsr models the two feedback shift registers of a BIST
// (built-in self-test) arrangement over GF(2).
//
// # Overview
//
// The package provides:
//   - Polynomial: an immutable tap vector with a symbolic x<i> + ... + 1 form
//   - LFSR: the pattern generator that walks the register state cycle
//   - SignatureAnalyzer: the compactor that folds an output bit stream into
//     a fixed-width signature
//
// # Usage
//
//	gen := lfsr.New(lfsr.ReferencePolynomial())
//	for _, state := range gen.Cycle() {
//		fmt.Println(gf2.Format(state))
//	}
//
//	poly, err := lfsr.ParsePolynomial("x9 + x4 + 1", 9)
//	sa := lfsr.NewSignatureAnalyzer(poly)
//	states, err := sa.Run([]uint8{1, 0, 1, 1})
//
// # Register Conventions
//
// A register of length n is indexed 0..n-1. Tap k of a polynomial is
// rendered as x<n-k>, so index 0 is the highest power.
//
// The generator is seeded with a single 1 in cell 0. Each step rotates the
// register toward the end and writes the parity of (previous state AND taps)
// into cell 0.
//
// The signature analyzer starts at all zeros. Each fed bit rotates the
// register toward the start and writes the parity of (rotated state AND
// taps) XOR the input into the last cell.
package lfsr
