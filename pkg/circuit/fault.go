package circuit

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/gf2"
)

// Fault is a single stuck-at fault: Node is forced to Value.
type Fault struct {
	Node  Node  `json:"node" yaml:"node"`
	Value uint8 `json:"value" yaml:"value"`
}

// StuckAt builds a fault after validating both fields.
func StuckAt(n Node, value uint8) (Fault, error) {
	f := Fault{Node: n, Value: value}
	if err := f.Validate(); err != nil {
		return Fault{}, err
	}
	return f, nil
}

// Validate checks the node and the stuck-at value.
func (f Fault) Validate() error {
	if !f.Node.Valid() {
		return errors.Wrapf(ErrInvalidFaultNode, "%s", f.Node)
	}
	if err := gf2.CheckBit(f.Value); err != nil {
		return errors.Wrapf(err, "circuit: stuck-at value for %s", f.Node)
	}
	return nil
}

// String renders the conventional n/v notation, e.g. f1/0 for f1 stuck-at-0.
func (f Fault) String() string {
	return fmt.Sprintf("%s/%d", f.Node, f.Value)
}

// AllFaults returns both stuck-at faults of every node, node-major.
func AllFaults() []Fault {
	faults := make([]Fault, 0, 2*NodeCount)
	for _, n := range AllNodes() {
		faults = append(faults, Fault{Node: n, Value: 0}, Fault{Node: n, Value: 1})
	}
	return faults
}

// faultLexer tokenizes faults like "f1/0", "x3@1" or "f6 = 0".
var faultLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Name", Pattern: `[A-Za-z][A-Za-z0-9]*`},
	{Name: "Sep", Pattern: `[/@=]`},
	{Name: "Int", Pattern: `[0-9]+`},
})

type faultExpr struct {
	Node  string `parser:"@Name Sep"`
	Value int    `parser:"@Int"`
}

var faultParser = participle.MustBuild[faultExpr](
	participle.Lexer(faultLexer),
	participle.Elide("Whitespace"),
)

// ParseFault reads a fault written as node/value, e.g. "f1/0".
func ParseFault(s string) (Fault, error) {
	ast, err := faultParser.ParseString("", s)
	if err != nil {
		return Fault{}, errors.Wrapf(ErrInvalidFaultNode, "fault %q: %v", s, err)
	}
	n, err := ParseNode(ast.Node)
	if err != nil {
		return Fault{}, err
	}
	if ast.Value < 0 || ast.Value > 1 {
		return Fault{}, errors.Wrapf(gf2.ErrInvalidBit, "fault %q: stuck-at %d", s, ast.Value)
	}
	return Fault{Node: n, Value: uint8(ast.Value)}, nil
}
