package coverage

import (
	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
)

// Evaluator is the circuit surface the builder needs.
type Evaluator interface {
	Evaluate(v circuit.Vector) (circuit.Output, error)
	EvaluateFault(v circuit.Vector, f circuit.Fault) (circuit.Output, error)
}

// Builder drives a circuit through every fault and vector.
type Builder struct {
	scheme Evaluator
}

// NewBuilder creates a builder for scheme.
func NewBuilder(scheme Evaluator) *Builder {
	return &Builder{scheme: scheme}
}

// Build simulates every node, both stuck-at values and all 128 vectors
// exactly once. A detection is recorded only when the faulty output differs
// from the fault-free one. Any evaluation error aborts the build.
func (b *Builder) Build() (*Table, error) {
	if b.scheme == nil {
		return nil, errors.New("coverage: builder has no circuit")
	}

	vectors := circuit.AllVectors()
	correct := make(map[circuit.Vector]circuit.Output, len(vectors))
	for _, v := range vectors {
		out, err := b.scheme.Evaluate(v)
		if err != nil {
			return nil, errors.Wrapf(err, "coverage: evaluate %s", v)
		}
		correct[v] = out
	}

	sets := make(map[circuit.Vector][]Detection)
	for _, node := range circuit.AllNodes() {
		for _, value := range []uint8{0, 1} {
			f := circuit.Fault{Node: node, Value: value}
			for _, v := range vectors {
				faulty, err := b.scheme.EvaluateFault(v, f)
				if err != nil {
					return nil, errors.Wrapf(err, "coverage: evaluate %s with %s", v, f)
				}
				if faulty != correct[v] {
					sets[v] = append(sets[v], Detection{Value: value, Node: node})
				}
			}
		}
	}
	return NewTable(sets), nil
}
