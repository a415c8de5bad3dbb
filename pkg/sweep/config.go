package sweep

import (
	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/lfsr"
)

// MaxWidth bounds the signature register so a sweep stays exhaustive over
// a small space.
const MaxWidth = 16

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid sweep config")

// Config controls a polynomial sweep.
type Config struct {
	// Reference is the pattern generator polynomial. Its degree must match
	// the circuit input count.
	Reference lfsr.Polynomial

	// Width is the signature register length; every nonzero polynomial of
	// this degree is a candidate.
	Width int

	// Observe lists the circuit outputs fed into the signature analyzer after
	// each pattern, in feed order.
	Observe []circuit.Node
}

// DefaultConfig returns the reference generator, a 9-bit signature register
// and all six outputs observed in f1..f6 order.
func DefaultConfig() *Config {
	return &Config{
		Reference: lfsr.ReferencePolynomial(),
		Width:     9,
		Observe:   circuit.OutputNodes(),
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return errors.Wrap(ErrInvalidConfig, "nil config")
	}
	if c.Reference.Degree() != circuit.InputCount {
		return errors.Wrapf(ErrInvalidConfig, "reference polynomial degree %d, circuit has %d inputs",
			c.Reference.Degree(), circuit.InputCount)
	}
	if c.Reference.IsZero() {
		return errors.Wrap(ErrInvalidConfig, "reference polynomial has no taps")
	}
	if c.Width < 1 || c.Width > MaxWidth {
		return errors.Wrapf(ErrInvalidConfig, "signature width %d outside 1..%d", c.Width, MaxWidth)
	}
	if len(c.Observe) == 0 {
		return errors.Wrap(ErrInvalidConfig, "no observed outputs")
	}
	for _, n := range c.Observe {
		if !n.Valid() {
			return errors.Wrapf(circuit.ErrInvalidFaultNode, "observed node %s", n)
		}
		if n.IsInput() {
			return errors.Wrapf(ErrInvalidConfig, "observed node %s is a primary input", n)
		}
	}
	return nil
}
