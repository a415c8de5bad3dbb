package circuit

import (
	"errors"
	"testing"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/gf2"
)

func mustVector(t *testing.T, s string) Vector {
	t.Helper()
	v, err := ParseVector(s)
	if err != nil {
		t.Fatalf("ParseVector(%q) returned error: %v", s, err)
	}
	return v
}

func TestEvaluateLiterals(t *testing.T) {
	s := NewScheme()
	cases := []struct {
		vector string
		want   string
	}{
		{"0000000", "110010"},
		{"1111111", "001111"},
		{"0001111", "111101"},
	}
	for _, tc := range cases {
		got, err := s.Evaluate(mustVector(t, tc.vector))
		if err != nil {
			t.Fatalf("Evaluate(%s) returned error: %v", tc.vector, err)
		}
		if got.String() != tc.want {
			t.Fatalf("Evaluate(%s) = %s, want %s", tc.vector, got, tc.want)
		}
	}
}

func TestEvaluateFaultPropagation(t *testing.T) {
	s := NewScheme()
	cases := []struct {
		vector string
		fault  Fault
		want   string
	}{
		// f1 forced low: f5 does not depend on f1, f6 = NAND2(0, f5) flips.
		{"0000000", Fault{F1, 0}, "010011"},
		// An input fault is substituted before any gate sees it.
		{"0000000", Fault{X3, 1}, "100001"},
		// f3 forced low drops f4, which flips f5 and f6.
		{"0001111", Fault{F3, 0}, "110010"},
	}
	for _, tc := range cases {
		got, err := s.EvaluateFault(mustVector(t, tc.vector), tc.fault)
		if err != nil {
			t.Fatalf("EvaluateFault(%s, %s) returned error: %v", tc.vector, tc.fault, err)
		}
		if got.String() != tc.want {
			t.Fatalf("EvaluateFault(%s, %s) = %s, want %s", tc.vector, tc.fault, got, tc.want)
		}
	}
}

func TestEvaluateIsPure(t *testing.T) {
	s := NewScheme()
	for _, v := range AllVectors() {
		first, err := s.Evaluate(v)
		if err != nil {
			t.Fatalf("Evaluate(%s) returned error: %v", v, err)
		}
		if _, err := s.EvaluateFault(v, Fault{F6, 1 ^ first[5]}); err != nil {
			t.Fatalf("EvaluateFault returned error: %v", err)
		}
		second, _ := s.Evaluate(v)
		if first != second {
			t.Fatalf("Evaluate(%s) changed between calls: %s then %s", v, first, second)
		}
	}
}

func TestFaultMaskingLaw(t *testing.T) {
	s := NewScheme()
	for _, v := range AllVectors() {
		correct, err := s.Evaluate(v)
		if err != nil {
			t.Fatalf("Evaluate(%s) returned error: %v", v, err)
		}
		for _, f := range AllFaults() {
			good, err := s.Value(v, f.Node)
			if err != nil {
				t.Fatalf("Value(%s, %s) returned error: %v", v, f.Node, err)
			}
			if good != f.Value {
				continue
			}
			faulty, err := s.EvaluateFault(v, f)
			if err != nil {
				t.Fatalf("EvaluateFault(%s, %s) returned error: %v", v, f, err)
			}
			if faulty != correct {
				t.Fatalf("fault %s on %s matches the good value but changed the output: %s vs %s",
					f, v, faulty, correct)
			}
		}
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	s := NewScheme()

	if _, err := NewVector([]uint8{0, 1, 0}); !errors.Is(err, ErrInvalidTestVector) {
		t.Fatalf("NewVector(3 bits) = %v, want ErrInvalidTestVector", err)
	}
	if _, err := NewVector([]uint8{0, 1, 0, 1, 0, 1, 0, 1}); !errors.Is(err, ErrInvalidTestVector) {
		t.Fatalf("NewVector(8 bits) = %v, want ErrInvalidTestVector", err)
	}
	if _, err := s.Evaluate(Vector{0, 0, 2, 0, 0, 0, 0}); !errors.Is(err, ErrInvalidTestVector) {
		t.Fatalf("Evaluate with bit 2 = %v, want ErrInvalidTestVector", err)
	}
	if _, err := s.EvaluateFault(Vector{}, Fault{}); !errors.Is(err, ErrInvalidFaultNode) {
		t.Fatalf("EvaluateFault with zero node = %v, want ErrInvalidFaultNode", err)
	}
	if _, err := s.EvaluateFault(Vector{}, Fault{F2, 3}); !errors.Is(err, gf2.ErrInvalidBit) {
		t.Fatalf("EvaluateFault with stuck-at 3 = %v, want ErrInvalidBit", err)
	}
}

func TestVectorIndexRoundTrip(t *testing.T) {
	for i := 0; i < VectorCount; i++ {
		if got := VectorFromIndex(i).Index(); got != i {
			t.Fatalf("VectorFromIndex(%d).Index() = %d", i, got)
		}
	}
	if got := VectorFromIndex(1).String(); got != "0000001" {
		t.Fatalf("VectorFromIndex(1) = %s, want 0000001", got)
	}
	if got := VectorFromIndex(64).String(); got != "1000000" {
		t.Fatalf("VectorFromIndex(64) = %s, want 1000000", got)
	}
}

func TestGatesAreCopied(t *testing.T) {
	s := NewScheme()
	gates := s.Gates()
	if len(gates) != InternalCount {
		t.Fatalf("Gates returned %d gates, want %d", len(gates), InternalCount)
	}
	gates[0].In[0] = X7
	if s.Gates()[0].In[0] != X1 {
		t.Fatalf("mutating Gates() changed the scheme")
	}
	if got := gates[3].Name(); got != "AND3" {
		t.Fatalf("f4 gate = %s, want AND3", got)
	}
}
