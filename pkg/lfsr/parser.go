package lfsr

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// polyLexer tokenizes symbolic polynomials such as "x9 + x4 + 1".
var polyLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Var", Pattern: `[xX]`},
	{Name: "Caret", Pattern: `\^`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Plus", Pattern: `\+`},
})

// polyExpr is a sum of terms.
type polyExpr struct {
	Terms []*polyTerm `parser:"@@ ( Plus @@ )*"`
}

// polyTerm is either x<power> or the constant 1.
type polyTerm struct {
	Monomial *monomial `parser:"  @@"`
	Constant *int      `parser:"| @Int"`
}

// monomial accepts x, x3 and x^3.
type monomial struct {
	Var   string `parser:"@Var Caret?"`
	Power *int   `parser:"@Int?"`
}

var polyParser = participle.MustBuild[polyExpr](
	participle.Lexer(polyLexer),
	participle.Elide("Whitespace"),
)

// ParsePolynomial parses the symbolic form produced by Polynomial.String.
// A degree of 0 takes the degree from the highest power present. The
// constant term is mandatory and every power may appear at most once.
func ParsePolynomial(expr string, degree int) (Polynomial, error) {
	ast, err := polyParser.ParseString("", expr)
	if err != nil {
		return Polynomial{}, errors.Wrapf(ErrInvalidPolynomial, "%q: %v", expr, err)
	}

	powers := make(map[int]bool)
	highest := 0
	hasConstant := false
	for _, term := range ast.Terms {
		if term.Constant != nil {
			if *term.Constant != 1 || hasConstant {
				return Polynomial{}, errors.Wrapf(ErrInvalidPolynomial, "%q: unexpected constant %d", expr, *term.Constant)
			}
			hasConstant = true
			continue
		}
		power := 1
		if term.Monomial.Power != nil {
			power = *term.Monomial.Power
		}
		if power < 1 {
			return Polynomial{}, errors.Wrapf(ErrInvalidPolynomial, "%q: power %d", expr, power)
		}
		if powers[power] {
			return Polynomial{}, errors.Wrapf(ErrInvalidPolynomial, "%q: x%d repeated", expr, power)
		}
		powers[power] = true
		if power > highest {
			highest = power
		}
	}
	if !hasConstant {
		return Polynomial{}, errors.Wrapf(ErrInvalidPolynomial, "%q: missing constant term", expr)
	}

	if degree == 0 {
		degree = highest
	}
	if highest > degree {
		return Polynomial{}, errors.Wrapf(ErrInvalidPolynomial, "%q: x%d exceeds degree %d", expr, highest, degree)
	}
	if degree < 1 || degree > MaxDegree {
		return Polynomial{}, errors.Wrapf(ErrInvalidPolynomial, "%q: degree %d outside 1..%d", expr, degree, MaxDegree)
	}

	taps := make([]uint8, degree)
	for power := range powers {
		taps[degree-power] = 1
	}
	return Polynomial{taps: taps}, nil
}
