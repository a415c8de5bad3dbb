package circuit

import (
	"fmt"

	"github.com/pkg/errors"
)

// Op is a gate function.
type Op uint8

const (
	// OpNAND is the negated conjunction of all operands; with one operand it
	// is an inverter.
	OpNAND Op = iota
	// OpAND is the conjunction of all operands.
	OpAND
	// OpXOR is the exclusive-or of all operands.
	OpXOR
)

var opNames = map[Op]string{
	OpNAND: "NAND",
	OpAND:  "AND",
	OpXOR:  "XOR",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", o)
}

func (o Op) apply(in []uint8) uint8 {
	switch o {
	case OpNAND:
		return 1 ^ and(in)
	case OpAND:
		return and(in)
	case OpXOR:
		var x uint8
		for _, b := range in {
			x ^= b
		}
		return x
	}
	panic(fmt.Sprintf("circuit: unhandled op %d", o))
}

func and(in []uint8) uint8 {
	r := uint8(1)
	for _, b := range in {
		r &= b
	}
	return r
}

// Gate drives Out with Op applied to In.
type Gate struct {
	Out Node
	Op  Op
	In  []Node
}

// Name is the gate type with its arity, e.g. NAND2.
func (g Gate) Name() string {
	return fmt.Sprintf("%s%d", g.Op, len(g.In))
}

func (g Gate) String() string {
	return fmt.Sprintf("%s = %s%v", g.Out, g.Name(), g.In)
}

// gateTable is the fixed network in topological order.
var gateTable = []Gate{
	{Out: F1, Op: OpNAND, In: []Node{X1, X2}},
	{Out: F2, Op: OpNAND, In: []Node{X3}},
	{Out: F3, Op: OpAND, In: []Node{X5, X6}},
	{Out: F4, Op: OpAND, In: []Node{X4, F3, X7}},
	{Out: F5, Op: OpXOR, In: []Node{F2, F4}},
	{Out: F6, Op: OpNAND, In: []Node{F1, F5}},
}

// Scheme is the faultable combinational circuit. It holds no evaluation
// state, so one Scheme can be shared by every caller.
type Scheme struct {
	gates []Gate
}

// NewScheme returns the fixed 13-node circuit.
func NewScheme() *Scheme {
	return &Scheme{gates: gateTable}
}

// Gates returns a copy of the gate table.
func (s *Scheme) Gates() []Gate {
	gates := make([]Gate, len(s.gates))
	for i, g := range s.gates {
		gates[i] = Gate{Out: g.Out, Op: g.Op, In: append([]Node(nil), g.In...)}
	}
	return gates
}

// Evaluate computes f1..f6 for v with no fault.
func (s *Scheme) Evaluate(v Vector) (Output, error) {
	values, err := s.values(v, nil)
	if err != nil {
		return Output{}, err
	}
	return outputOf(values), nil
}

// EvaluateFault computes f1..f6 for v with f injected. The faulted node is
// fixed to f.Value and every node downstream of it sees the forced value.
func (s *Scheme) EvaluateFault(v Vector, f Fault) (Output, error) {
	if err := f.Validate(); err != nil {
		return Output{}, err
	}
	values, err := s.values(v, &f)
	if err != nil {
		return Output{}, err
	}
	return outputOf(values), nil
}

// Value returns the fault-free value of any node for v.
func (s *Scheme) Value(v Vector, n Node) (uint8, error) {
	if !n.Valid() {
		return 0, errors.Wrapf(ErrInvalidFaultNode, "%s", n)
	}
	values, err := s.values(v, nil)
	if err != nil {
		return 0, err
	}
	return values[n.Index()], nil
}

// Values returns every node value for v in AllNodes order.
func (s *Scheme) Values(v Vector) ([NodeCount]uint8, error) {
	return s.values(v, nil)
}

func (s *Scheme) values(v Vector, f *Fault) ([NodeCount]uint8, error) {
	var values [NodeCount]uint8
	if err := v.validate(); err != nil {
		return values, err
	}

	copy(values[:InputCount], v[:])
	if f != nil && f.Node.IsInput() {
		values[f.Node.Index()] = f.Value
	}

	in := make([]uint8, 0, 3)
	for _, g := range s.gates {
		out := g.Out.Index()
		if f != nil && f.Node == g.Out {
			values[out] = f.Value
			continue
		}
		in = in[:0]
		for _, n := range g.In {
			in = append(in, values[n.Index()])
		}
		values[out] = g.Op.apply(in)
	}
	return values, nil
}

func outputOf(values [NodeCount]uint8) Output {
	var o Output
	copy(o[:], values[InputCount:])
	return o
}
