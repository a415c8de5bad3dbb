package circuit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Circuit dimensions.
const (
	InputCount    = 7
	InternalCount = 6
	NodeCount     = InputCount + InternalCount
)

// ErrInvalidFaultNode is returned for a node name or number outside
// x1..x7 and f1..f6.
var ErrInvalidFaultNode = errors.New("invalid circuit node")

// Kind separates primary inputs from gate outputs.
type Kind uint8

const (
	// KindInput is a primary input x1..x7.
	KindInput Kind = iota + 1
	// KindInternal is a gate output f1..f6.
	KindInternal
)

// Node identifies one of the 13 circuit signals. The zero value is invalid.
type Node struct {
	kind Kind
	num  uint8 // 1-based
}

// The 13 circuit signals.
var (
	X1 = Node{KindInput, 1}
	X2 = Node{KindInput, 2}
	X3 = Node{KindInput, 3}
	X4 = Node{KindInput, 4}
	X5 = Node{KindInput, 5}
	X6 = Node{KindInput, 6}
	X7 = Node{KindInput, 7}

	F1 = Node{KindInternal, 1}
	F2 = Node{KindInternal, 2}
	F3 = Node{KindInternal, 3}
	F4 = Node{KindInternal, 4}
	F5 = Node{KindInternal, 5}
	F6 = Node{KindInternal, 6}
)

// Input returns primary input x<i>.
func Input(i int) (Node, error) {
	if i < 1 || i > InputCount {
		return Node{}, errors.Wrapf(ErrInvalidFaultNode, "input x%d", i)
	}
	return Node{KindInput, uint8(i)}, nil
}

// Internal returns gate output f<i>.
func Internal(i int) (Node, error) {
	if i < 1 || i > InternalCount {
		return Node{}, errors.Wrapf(ErrInvalidFaultNode, "internal f%d", i)
	}
	return Node{KindInternal, uint8(i)}, nil
}

// ParseNode parses "x1".."x7" and "f1".."f6", case-insensitively.
func ParseNode(s string) (Node, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if len(name) < 2 {
		return Node{}, errors.Wrapf(ErrInvalidFaultNode, "%q", s)
	}
	num, err := strconv.Atoi(name[1:])
	if err != nil || name[1] == '+' || name[1] == '-' {
		return Node{}, errors.Wrapf(ErrInvalidFaultNode, "%q", s)
	}
	switch name[0] {
	case 'x':
		n, err := Input(num)
		if err != nil {
			return Node{}, errors.Wrapf(ErrInvalidFaultNode, "%q", s)
		}
		return n, nil
	case 'f':
		n, err := Internal(num)
		if err != nil {
			return Node{}, errors.Wrapf(ErrInvalidFaultNode, "%q", s)
		}
		return n, nil
	}
	return Node{}, errors.Wrapf(ErrInvalidFaultNode, "%q", s)
}

// AllNodes returns x1..x7 followed by f1..f6.
func AllNodes() []Node {
	nodes := make([]Node, 0, NodeCount)
	for i := 1; i <= InputCount; i++ {
		nodes = append(nodes, Node{KindInput, uint8(i)})
	}
	for i := 1; i <= InternalCount; i++ {
		nodes = append(nodes, Node{KindInternal, uint8(i)})
	}
	return nodes
}

// OutputNodes returns f1..f6, the order of an Output.
func OutputNodes() []Node {
	return AllNodes()[InputCount:]
}

// Valid reports whether n names one of the 13 signals.
func (n Node) Valid() bool {
	switch n.kind {
	case KindInput:
		return n.num >= 1 && n.num <= InputCount
	case KindInternal:
		return n.num >= 1 && n.num <= InternalCount
	}
	return false
}

// Kind reports whether n is a primary input or a gate output.
func (n Node) Kind() Kind {
	return n.kind
}

// IsInput reports whether n is a primary input.
func (n Node) IsInput() bool {
	return n.kind == KindInput
}

// Number is the 1-based position within the node's kind.
func (n Node) Number() int {
	return int(n.num)
}

// Index is the position in AllNodes, or -1 for an invalid node.
func (n Node) Index() int {
	if !n.Valid() {
		return -1
	}
	if n.kind == KindInput {
		return int(n.num) - 1
	}
	return InputCount + int(n.num) - 1
}

func (n Node) String() string {
	switch n.kind {
	case KindInput:
		return fmt.Sprintf("x%d", n.num)
	case KindInternal:
		return fmt.Sprintf("f%d", n.num)
	}
	return fmt.Sprintf("Node(%d,%d)", n.kind, n.num)
}

// MarshalText implements encoding.TextMarshaler.
func (n Node) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, errors.Wrapf(ErrInvalidFaultNode, "%s", n)
	}
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Node) UnmarshalText(text []byte) error {
	parsed, err := ParseNode(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
