package circuit

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/chewxy/sexp"
	"github.com/pkg/errors"
)

// ErrInvalidNetlist is returned when a KiCad netlist cannot be read or does
// not describe the gate network.
var ErrInvalidNetlist = errors.New("invalid netlist")

// OutputPin is the pin name of a gate's output. Input pins are numbered
// from 1.
const OutputPin = "Y"

// PinRef is one component pin attached to a net.
type PinRef struct {
	Ref string
	Pin string
}

func (p PinRef) String() string {
	return p.Ref + "." + p.Pin
}

// gateRef is the component reference of the i-th gate (0-based).
func gateRef(i int) string {
	return "U" + strconv.Itoa(i+1)
}

// Nets maps every node to the gate pins it connects, in gate order.
func (s *Scheme) Nets() map[Node][]PinRef {
	nets := make(map[Node][]PinRef, NodeCount)
	for i, g := range s.gates {
		ref := gateRef(i)
		nets[g.Out] = append(nets[g.Out], PinRef{ref, OutputPin})
		for j, in := range g.In {
			nets[in] = append(nets[in], PinRef{ref, strconv.Itoa(j + 1)})
		}
	}
	return nets
}

func sym(s string) sexp.Symbol { return sexp.Symbol(s) }

func pair(key, value string) sexp.List {
	return sexp.List{sym(key), sym(value)}
}

// Netlist builds the KiCad netlist tree: one component per gate and one net
// per node.
func (s *Scheme) Netlist() sexp.List {
	components := sexp.List{sym("components")}
	for i, g := range s.gates {
		components = append(components, sexp.List{
			sym("comp"),
			pair("ref", gateRef(i)),
			pair("value", g.Name()),
			sexp.List{sym("libsource"), pair("lib", "logic"), pair("part", g.Name())},
		})
	}

	pins := s.Nets()
	nets := sexp.List{sym("nets")}
	for _, n := range AllNodes() {
		net := sexp.List{sym("net"), pair("code", strconv.Itoa(n.Index()+1)), pair("name", n.String())}
		for _, p := range pins[n] {
			net = append(net, sexp.List{sym("node"), pair("ref", p.Ref), pair("pin", p.Pin)})
		}
		nets = append(nets, net)
	}

	return sexp.List{
		sym("export"),
		pair("version", "D"),
		sexp.List{sym("design"), pair("source", "OpenTraceBIST"), pair("tool", "bist-netlist")},
		components,
		nets,
	}
}

// ExportKiCad renders Netlist on a single line.
func (s *Scheme) ExportKiCad() string {
	return fmt.Sprintf("%s", s.Netlist())
}

// parseSexp wraps sexp.ParseString, which panics on an unbalanced closing
// paren and returns nothing for an unclosed one.
func parseSexp(text string) (exprs []sexp.Sexp, err error) {
	defer func() {
		if r := recover(); r != nil {
			exprs = nil
			err = errors.Wrapf(ErrInvalidNetlist, "unbalanced parentheses: %v", r)
		}
	}()
	exprs, err = sexp.ParseString(text)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidNetlist, err.Error())
	}
	if len(exprs) != 1 {
		return nil, errors.Wrapf(ErrInvalidNetlist, "want one top-level expression, got %d", len(exprs))
	}
	return exprs, nil
}

// head returns the leading symbol of a list, or "" for anything else.
func head(e sexp.Sexp) string {
	l, ok := e.(sexp.List)
	if !ok || len(l) == 0 {
		return ""
	}
	s, ok := l[0].(sexp.Symbol)
	if !ok {
		return ""
	}
	return string(s)
}

// children returns the sub-lists of l whose head is key.
func children(l sexp.List, key string) []sexp.List {
	var out []sexp.List
	for _, e := range l[1:] {
		if head(e) == key {
			out = append(out, e.(sexp.List))
		}
	}
	return out
}

// value reads the single symbol of a (key value) child.
func value(l sexp.List, key string) (string, error) {
	found := children(l, key)
	if len(found) != 1 {
		return "", errors.Wrapf(ErrInvalidNetlist, "(%s ...) appears %d times in %s", key, len(found), head(l))
	}
	if len(found[0]) != 2 {
		return "", errors.Wrapf(ErrInvalidNetlist, "(%s ...) wants one value", key)
	}
	v, ok := found[0][1].(sexp.Symbol)
	if !ok {
		return "", errors.Wrapf(ErrInvalidNetlist, "(%s ...) value is not a symbol", key)
	}
	return string(v), nil
}

// ReadNets parses a KiCad netlist and returns the pins on each named net.
func ReadNets(text string) (map[Node][]PinRef, error) {
	exprs, err := parseSexp(text)
	if err != nil {
		return nil, err
	}
	if head(exprs[0]) != "export" {
		return nil, errors.Wrap(ErrInvalidNetlist, "missing (export ...)")
	}
	sections := children(exprs[0].(sexp.List), "nets")
	if len(sections) != 1 {
		return nil, errors.Wrapf(ErrInvalidNetlist, "(nets ...) appears %d times", len(sections))
	}

	nets := make(map[Node][]PinRef)
	for _, net := range children(sections[0], "net") {
		name, err := value(net, "name")
		if err != nil {
			return nil, err
		}
		n, err := ParseNode(name)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidNetlist, "net %q: %v", name, err)
		}
		if _, dup := nets[n]; dup {
			return nil, errors.Wrapf(ErrInvalidNetlist, "net %s listed twice", n)
		}
		pins := []PinRef{}
		for _, node := range children(net, "node") {
			ref, err := value(node, "ref")
			if err != nil {
				return nil, err
			}
			pin, err := value(node, "pin")
			if err != nil {
				return nil, err
			}
			pins = append(pins, PinRef{ref, pin})
		}
		nets[n] = pins
	}
	return nets, nil
}

func sortedPins(pins []PinRef) []string {
	out := make([]string, len(pins))
	for i, p := range pins {
		out[i] = p.String()
	}
	sort.Strings(out)
	return out
}

// VerifyKiCad reads a netlist and checks that every net connects exactly
// the pins the gate table gives it.
func (s *Scheme) VerifyKiCad(text string) error {
	got, err := ReadNets(text)
	if err != nil {
		return err
	}
	want := s.Nets()
	for _, n := range AllNodes() {
		pins, ok := got[n]
		if !ok {
			return errors.Wrapf(ErrInvalidNetlist, "net %s missing", n)
		}
		g, w := sortedPins(pins), sortedPins(want[n])
		if fmt.Sprint(g) != fmt.Sprint(w) {
			return errors.Wrapf(ErrInvalidNetlist, "net %s connects %v, want %v", n, g, w)
		}
	}
	return nil
}
