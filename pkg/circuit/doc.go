// Package circuit is the gate-level model of the circuit under test and its
// single stuck-at fault injection.
//
// The network is fixed: seven primary inputs x1..x7 drive six gates whose
// outputs are f1..f6.
//
//	f1 = NAND2(x1, x2)
//	f2 = NAND1(x3)
//	f3 = AND2(x5, x6)
//	f4 = AND3(x4, f3, x7)
//	f5 = XOR2(f2, f4)
//	f6 = NAND2(f1, f5)
//
// The gate table is evaluated in that order. A fault replaces the value of
// its node before any dependent gate is evaluated; every other node is
// computed normally. A Scheme holds no per-evaluation state.
package circuit
