package condition

import (
	"errors"
	"fmt"
)

// Validation failures are reported with sentinel errors so the UI can show
// the user a message while keeping the authoring session open.
var (
	ErrNoOperands    = errors.New("condition group has no operands")
	ErrEmptyField    = errors.New("condition has an empty field")
	ErrNoRules       = errors.New("no status rules defined")
	ErrUnknownStatus = errors.New("status is not a configured machine status")
)

// Validate checks a tree for structural completeness: no internal node may
// be empty and every leaf must have a parameter, comparison operator and
// value. Intermediate UI states may be invalid; validation runs at
// submission time.
func Validate(n *Node) error {
	if n == nil {
		return ErrNoOperands
	}
	if n.IsLeaf() {
		if n.Parameter == "" || n.Comparison == "" || n.Value == "" {
			return fmt.Errorf("%w: %q %q %q", ErrEmptyField, n.Parameter, n.Comparison, n.Value)
		}
		return nil
	}
	if len(n.Operands) == 0 {
		return ErrNoOperands
	}
	for _, op := range n.Operands {
		if err := Validate(op); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRules validates a full rule set prior to committing it. When
// statuses is non-nil, every rule's status label must be one of the
// configured machine statuses.
func ValidateRules(rules []StatusRule, statuses []string) error {
	if len(rules) == 0 {
		return ErrNoRules
	}
	var allowed map[string]bool
	if statuses != nil {
		allowed = make(map[string]bool, len(statuses))
		for _, s := range statuses {
			allowed[s] = true
		}
	}
	for _, rule := range rules {
		if rule.Status == "" {
			return fmt.Errorf("%w: empty status", ErrUnknownStatus)
		}
		if allowed != nil && !allowed[rule.Status] {
			return fmt.Errorf("%w: %q", ErrUnknownStatus, rule.Status)
		}
		if rule.Conditions != nil {
			if err := Validate(rule.Conditions); err != nil {
				return fmt.Errorf("rule %q: %w", rule.Status, err)
			}
		}
	}
	return nil
}
