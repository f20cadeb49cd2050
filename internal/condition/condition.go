// Package condition implements the boolean rule trees that map parameter
// values to machine statuses. A rule is a status label plus a tree of
// comparisons combined with per-operand logic operators.
package condition

import (
	"encoding/json"
	"fmt"
)

// Comparison operators accepted in leaf conditions.
const (
	OpEqual        = "="
	OpNotEqual     = "!="
	OpGreater      = ">"
	OpLess         = "<"
	OpLessEqual    = "<="
	OpGreaterEqual = ">="
)

// Logic operators joining an operand to its predecessor.
const (
	LogicAnd = "AND"
	LogicOr  = "OR"
)

// Node is one node of a condition tree. A leaf carries a parameter
// comparison; an internal node carries a list of operands. Every operand
// after the first is joined to the running result by its LogicOperator;
// the first operand of any list carries none.
type Node struct {
	// LogicOperator joins this node to the preceding sibling. Empty on the
	// first operand of a list and on the root. Missing operators are
	// treated as AND during evaluation.
	LogicOperator string `json:"logic_operator,omitempty"`

	// Leaf fields.
	Parameter  string `json:"parameter,omitempty"`
	Comparison string `json:"comparison_operator,omitempty"`
	Value      string `json:"value,omitempty"`

	// Internal node field. A node with operands is never treated as a leaf.
	Operands []*Node `json:"operands,omitempty"`
}

// IsLeaf reports whether the node is a parameter comparison.
func (n *Node) IsLeaf() bool {
	return len(n.Operands) == 0
}

// Leaf builds a leaf comparison node.
func Leaf(parameter, comparison, value string) *Node {
	return &Node{Parameter: parameter, Comparison: comparison, Value: value}
}

// Group builds an internal node from the given operands.
func Group(operands ...*Node) *Node {
	return &Node{Operands: operands}
}

// StatusRule binds a machine status label to the condition tree that implies
// it. A rule without conditions is the trivial form used for templates that
// have no parameters.
type StatusRule struct {
	Status     string `json:"status"`
	Conditions *Node  `json:"conditions,omitempty"`
}

// Parse decodes a condition tree from its JSON form.
func Parse(data []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parse condition: %w", err)
	}
	return &n, nil
}

// Serialize encodes the tree back to JSON. Trees produced by Parse
// round-trip structurally.
func Serialize(n *Node) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("serialize condition: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of the tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if len(n.Operands) > 0 {
		c.Operands = make([]*Node, len(n.Operands))
		for i, op := range n.Operands {
			c.Operands[i] = op.Clone()
		}
	}
	return &c
}

// Equal reports structural equality of two trees.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.LogicOperator != other.LogicOperator ||
		n.Parameter != other.Parameter ||
		n.Comparison != other.Comparison ||
		n.Value != other.Value ||
		len(n.Operands) != len(other.Operands) {
		return false
	}
	for i := range n.Operands {
		if !n.Operands[i].Equal(other.Operands[i]) {
			return false
		}
	}
	return true
}

// Parameters returns the set of parameter names referenced by the tree.
func (n *Node) Parameters() []string {
	seen := make(map[string]bool)
	var names []string
	var walk func(*Node)
	walk = func(node *Node) {
		if node == nil {
			return
		}
		if node.IsLeaf() {
			if node.Parameter != "" && !seen[node.Parameter] {
				seen[node.Parameter] = true
				names = append(names, node.Parameter)
			}
			return
		}
		for _, op := range node.Operands {
			walk(op)
		}
	}
	walk(n)
	return names
}
