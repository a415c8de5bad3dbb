// Package sweep ranks signature analyzer polynomials for the circuit under
// test.
//
// For each candidate polynomial the reference generator walks its full
// cycle, the circuit's fault-free response to every pattern is fed into a
// fresh signature analyzer, and the number of distinct analyzer states is
// recorded. More distinct states means fewer signatures aliased together.
//
// The metric counts distinct compactor states. It is a proxy for aliasing
// resistance and is not cross-checked against the stuck-at detection table.
package sweep

import (
	"context"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/lfsr"
)

// Evaluator is the fault-free circuit surface the sweep needs.
type Evaluator interface {
	Evaluate(v circuit.Vector) (circuit.Output, error)
}

// Record is one row of the sweep result.
type Record struct {
	Polynomial lfsr.Polynomial `json:"polynomial" yaml:"polynomial"`
	Taps       int             `json:"taps" yaml:"taps"`
	Distinct   int             `json:"distinct" yaml:"distinct"`
	Total      int             `json:"total" yaml:"total"`
	Coverage   float64         `json:"coverage" yaml:"coverage"`
}

// Step is one pattern of a candidate evaluation, handed to a Tracer.
type Step struct {
	Index     int
	Pattern   []uint8
	Output    circuit.Output
	Signature []uint8
}

// Tracer observes every step of an evaluation. Returning an error aborts
// the evaluation.
type Tracer interface {
	Trace(Step) error
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(Step) error

// Trace calls f.
func (f TracerFunc) Trace(s Step) error {
	return f(s)
}

// Progress reports the sweep position.
type Progress struct {
	Phase  string // "init", "sweeping", "done"
	Index  int
	Total  int
	Record Record // set while sweeping
}

// Evaluate measures one candidate polynomial. Both registers are created
// here, so no state carries over between candidates. tracer may be nil.
func Evaluate(scheme Evaluator, cfg *Config, candidate lfsr.Polynomial, tracer Tracer) (Record, error) {
	if err := cfg.Validate(); err != nil {
		return Record{}, errors.Wrap(err, "sweep")
	}
	return evaluate(scheme, cfg, candidate, tracer)
}

// evaluate is Evaluate for a config that has already been validated.
func evaluate(scheme Evaluator, cfg *Config, candidate lfsr.Polynomial, tracer Tracer) (Record, error) {
	if candidate.Degree() == 0 {
		return Record{}, errors.Wrap(lfsr.ErrInvalidPolynomial, "sweep: empty candidate")
	}

	gen := lfsr.New(cfg.Reference)
	sa := lfsr.NewSignatureAnalyzer(candidate)

	patterns := gen.Cycle()
	gen.Reset()

	seen := make(map[uint64]struct{}, len(patterns))
	for i := range patterns {
		seen[sa.Signature()] = struct{}{}

		pattern := gen.Step()
		v, err := circuit.NewVector(pattern)
		if err != nil {
			return Record{}, errors.Wrapf(err, "sweep: pattern %d", i)
		}
		out, err := scheme.Evaluate(v)
		if err != nil {
			return Record{}, errors.Wrapf(err, "sweep: evaluate %s", v)
		}
		for _, n := range cfg.Observe {
			bit, err := out.Get(n)
			if err != nil {
				return Record{}, err
			}
			if _, err := sa.Feed(bit); err != nil {
				return Record{}, errors.Wrapf(err, "sweep: feed %s", n)
			}
		}

		if tracer != nil {
			step := Step{Index: i, Pattern: pattern, Output: out, Signature: sa.State()}
			if err := tracer.Trace(step); err != nil {
				return Record{}, errors.Wrap(err, "sweep: trace")
			}
		}
	}

	return Record{
		Polynomial: candidate,
		Taps:       candidate.Taps(),
		Distinct:   len(seen),
		Total:      len(patterns),
		Coverage:   float64(len(seen)) * 100 / float64(len(patterns)),
	}, nil
}

// Run evaluates every nonzero polynomial of cfg.Width in enumeration order.
// progress may be nil; the caller owns and closes it. Any failure aborts
// the whole sweep with no partial result.
func Run(ctx context.Context, scheme Evaluator, cfg *Config, progress chan<- Progress) ([]Record, error) {
	return RunTraced(ctx, scheme, cfg, progress, nil)
}

// RunTraced is Run with a tracer attached to every candidate.
func RunTraced(ctx context.Context, scheme Evaluator, cfg *Config, progress chan<- Progress, tracer Tracer) ([]Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "sweep")
	}
	candidates, err := lfsr.Enumerate(cfg.Width)
	if err != nil {
		return nil, errors.Wrap(err, "sweep")
	}

	if progress != nil {
		progress <- Progress{Phase: "init", Total: len(candidates)}
	}

	records := make([]Record, 0, len(candidates))
	for i, candidate := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := evaluate(scheme, cfg, candidate, tracer)
		if err != nil {
			return nil, errors.Wrapf(err, "sweep: candidate %s", candidate)
		}
		records = append(records, rec)

		if progress != nil {
			progress <- Progress{Phase: "sweeping", Index: i, Total: len(candidates), Record: rec}
		}
	}

	if progress != nil {
		progress <- Progress{Phase: "done", Index: len(candidates), Total: len(candidates)}
	}
	return records, nil
}
