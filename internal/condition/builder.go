package condition

import "fmt"

// SessionState tracks a rule authoring session.
type SessionState int

const (
	StateEmpty SessionState = iota
	StateEditing
	StateCommitted
)

// RowDraft is one editable comparison row inside a group. Logic is empty on
// the first row of a group.
type RowDraft struct {
	Logic      string
	Parameter  string
	Comparison string
	Value      string
}

// GroupDraft is one editable rule: a status label plus its comparison rows.
type GroupDraft struct {
	Status string
	Rows   []RowDraft
}

// Builder collects condition groups during an authoring session and turns
// them into a validated rule set on submit. Drafts may be transiently
// invalid; only Submit enforces the invariants. A failed Submit leaves the
// session editable.
type Builder struct {
	state    SessionState
	groups   []*GroupDraft
	statuses []string
}

// NewBuilder starts an empty session. statuses is the configured machine
// status enumeration used to validate labels at submission time; nil skips
// that check.
func NewBuilder(statuses []string) *Builder {
	return &Builder{statuses: statuses}
}

// LoadRules seeds the session from an existing rule set so it can be edited.
func (b *Builder) LoadRules(rules []StatusRule) {
	b.groups = nil
	for _, rule := range rules {
		g := &GroupDraft{Status: rule.Status}
		if rule.Conditions != nil {
			for _, op := range rule.Conditions.Operands {
				g.Rows = append(g.Rows, RowDraft{
					Logic:      op.LogicOperator,
					Parameter:  op.Parameter,
					Comparison: op.Comparison,
					Value:      op.Value,
				})
			}
		}
		b.groups = append(b.groups, g)
	}
	if len(b.groups) > 0 {
		b.state = StateEditing
	}
}

// State returns the current session state.
func (b *Builder) State() SessionState { return b.state }

// Groups returns the current drafts, for the UI to render.
func (b *Builder) Groups() []*GroupDraft { return b.groups }

// AddGroup appends a new empty condition group and returns it.
func (b *Builder) AddGroup() *GroupDraft {
	g := &GroupDraft{}
	b.groups = append(b.groups, g)
	b.state = StateEditing
	return g
}

// RemoveGroup deletes a group from the session.
func (b *Builder) RemoveGroup(g *GroupDraft) {
	for i, have := range b.groups {
		if have == g {
			b.groups = append(b.groups[:i], b.groups[i+1:]...)
			return
		}
	}
}

// AddRow appends a comparison row to a group. Rows after the first default
// to AND, matching how the original editor seeds new rows.
func (b *Builder) AddRow(g *GroupDraft, parameter, comparison, value string) {
	row := RowDraft{Parameter: parameter, Comparison: comparison, Value: value}
	if len(g.Rows) > 0 {
		row.Logic = LogicAnd
	}
	g.Rows = append(g.Rows, row)
	b.state = StateEditing
}

// RemoveRow deletes row i from a group. When the first row is removed the
// new first row sheds its logic operator.
func (b *Builder) RemoveRow(g *GroupDraft, i int) {
	if i < 0 || i >= len(g.Rows) {
		return
	}
	g.Rows = append(g.Rows[:i], g.Rows[i+1:]...)
	if len(g.Rows) > 0 {
		g.Rows[0].Logic = ""
	}
}

// Rules builds the rule set from the current drafts without validating.
func (b *Builder) Rules() []StatusRule {
	rules := make([]StatusRule, 0, len(b.groups))
	for _, g := range b.groups {
		rule := StatusRule{Status: g.Status}
		if len(g.Rows) > 0 {
			root := &Node{}
			for _, row := range g.Rows {
				root.Operands = append(root.Operands, &Node{
					LogicOperator: row.Logic,
					Parameter:     row.Parameter,
					Comparison:    row.Comparison,
					Value:         row.Value,
				})
			}
			rule.Conditions = root
		}
		rules = append(rules, rule)
	}
	return rules
}

// Submit validates the drafts and hands the resulting rule set to commit.
// On validation failure or commit failure the session stays in Editing and
// nothing is persisted; on success the session is Committed.
func (b *Builder) Submit(commit func([]StatusRule) error) error {
	rules := b.Rules()
	if err := ValidateRules(rules, b.statuses); err != nil {
		return err
	}
	for i, g := range b.groups {
		if len(g.Rows) == 0 {
			return fmt.Errorf("group %d (%s): %w", i+1, g.Status, ErrNoOperands)
		}
	}
	if err := commit(rules); err != nil {
		return fmt.Errorf("commit rules: %w", err)
	}
	b.state = StateCommitted
	return nil
}
