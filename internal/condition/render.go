package condition

import "strings"

// Render produces a human-readable infix form of the tree, e.g.
// "run = * AND (S > 0 OR T < 100)". Every internal node below the root is
// parenthesized. The result is display-only and is never parsed back.
func Render(n *Node) string {
	if n == nil {
		return ""
	}
	return render(n, true)
}

func render(n *Node, root bool) string {
	if n.IsLeaf() {
		return strings.TrimSpace(n.Parameter + " " + n.Comparison + " " + n.Value)
	}

	var sb strings.Builder
	for i, op := range n.Operands {
		if i > 0 {
			logic := op.LogicOperator
			if logic == "" {
				logic = LogicAnd
			}
			sb.WriteString(" " + logic + " ")
		}
		sb.WriteString(render(op, false))
	}
	if root {
		return sb.String()
	}
	return "(" + sb.String() + ")"
}

// RenderRule formats a full status rule for display in the UI status list.
func RenderRule(r StatusRule) string {
	if r.Conditions == nil {
		return r.Status
	}
	return r.Status + ": " + Render(r.Conditions)
}
