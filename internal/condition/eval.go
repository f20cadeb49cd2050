package condition

import (
	"fmt"
	"strconv"
)

// Evaluate computes the truth value of the tree against a set of parameter
// values. Internal nodes fold their operands left to right: the first operand
// seeds the accumulator and every subsequent operand is combined via its
// logic operator (AND when absent). There is no operator precedence; mixed
// AND/OR siblings evaluate strictly in list order with short-circuiting.
func Evaluate(n *Node, values map[string]string) (bool, error) {
	if n == nil {
		return false, fmt.Errorf("evaluate: nil condition")
	}
	if n.IsLeaf() {
		return evalLeaf(n, values)
	}

	acc, err := Evaluate(n.Operands[0], values)
	if err != nil {
		return false, err
	}
	for _, op := range n.Operands[1:] {
		logic := op.LogicOperator
		if logic == "" {
			logic = LogicAnd
		}
		switch logic {
		case LogicAnd:
			if !acc {
				continue
			}
			v, err := Evaluate(op, values)
			if err != nil {
				return false, err
			}
			acc = v
		case LogicOr:
			if acc {
				continue
			}
			v, err := Evaluate(op, values)
			if err != nil {
				return false, err
			}
			acc = v
		default:
			return false, fmt.Errorf("evaluate: unknown logic operator %q", logic)
		}
	}
	return acc, nil
}

// evalLeaf compares a single parameter value against the leaf's literal.
// Both sides are compared numerically when they parse as numbers; otherwise
// only equality operators are defined.
func evalLeaf(n *Node, values map[string]string) (bool, error) {
	actual, ok := values[n.Parameter]
	if !ok {
		return false, fmt.Errorf("evaluate: no value for parameter %q", n.Parameter)
	}

	// Wildcard literal matches any present value.
	if n.Value == "*" {
		switch n.Comparison {
		case OpEqual:
			return true, nil
		case OpNotEqual:
			return false, nil
		}
	}

	a, errA := strconv.ParseFloat(actual, 64)
	b, errB := strconv.ParseFloat(n.Value, 64)
	numeric := errA == nil && errB == nil

	switch n.Comparison {
	case OpEqual:
		if numeric {
			return a == b, nil
		}
		return actual == n.Value, nil
	case OpNotEqual:
		if numeric {
			return a != b, nil
		}
		return actual != n.Value, nil
	case OpGreater, OpLess, OpLessEqual, OpGreaterEqual:
		if !numeric {
			return false, fmt.Errorf("evaluate: %q requires numeric operands, got %q %s %q",
				n.Comparison, actual, n.Comparison, n.Value)
		}
		switch n.Comparison {
		case OpGreater:
			return a > b, nil
		case OpLess:
			return a < b, nil
		case OpLessEqual:
			return a <= b, nil
		default:
			return a >= b, nil
		}
	default:
		return false, fmt.Errorf("evaluate: unknown comparison operator %q", n.Comparison)
	}
}

// ResolveStatus evaluates the rules in order against the extracted parameter
// values and returns the status of the first rule whose tree holds. A trivial
// rule (no condition tree) always matches. The boolean result reports whether
// any rule matched.
func ResolveStatus(rules []StatusRule, values map[string]string) (string, bool, error) {
	for _, rule := range rules {
		if rule.Conditions == nil {
			return rule.Status, true, nil
		}
		ok, err := Evaluate(rule.Conditions, values)
		if err != nil {
			return "", false, fmt.Errorf("resolve status %q: %w", rule.Status, err)
		}
		if ok {
			return rule.Status, true, nil
		}
	}
	return "", false, nil
}
