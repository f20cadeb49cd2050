package condition

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(logic, param, op, value string) *Node {
	return &Node{LogicOperator: logic, Parameter: param, Comparison: op, Value: value}
}

func group(logic string, operands ...*Node) *Node {
	return &Node{LogicOperator: logic, Operands: operands}
}

func TestParseSerializeRoundTrip(t *testing.T) {
	src := []byte(`{
		"operands": [
			{"parameter": "SPEED", "comparison_operator": ">", "value": "100"},
			{"logic_operator": "OR", "operands": [
				{"parameter": "MODE", "comparison_operator": "=", "value": "AUTO"},
				{"logic_operator": "AND", "parameter": "TEMP", "comparison_operator": "<", "value": "80"}
			]}
		]
	}`)

	node, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, node.Operands, 2)
	assert.Equal(t, "SPEED", node.Operands[0].Parameter)
	assert.Equal(t, "OR", node.Operands[1].LogicOperator)
	assert.False(t, node.Operands[1].IsLeaf())

	out, err := Serialize(node)
	require.NoError(t, err)

	again, err := Parse(out)
	require.NoError(t, err)
	assert.True(t, node.Equal(again))
}

func TestSerializeOmitsEmptyLogicOperator(t *testing.T) {
	node := group("", leaf("", "A", OpEqual, "1"), leaf(LogicAnd, "B", OpEqual, "2"))
	out, err := Serialize(node)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &raw))
	operands := raw["operands"].([]interface{})
	first := operands[0].(map[string]interface{})
	_, present := first["logic_operator"]
	assert.False(t, present, "first operand must not carry a logic operator")
}

func TestEvaluateNumericComparison(t *testing.T) {
	values := map[string]string{"SPEED": "120.5"}

	for _, tc := range []struct {
		op   string
		val  string
		want bool
	}{
		{OpGreater, "100", true},
		{OpGreater, "120.5", false},
		{OpGreaterEqual, "120.5", true},
		{OpLess, "200", true},
		{OpLessEqual, "120", false},
		{OpEqual, "120.5", true},
		{OpEqual, "120.50", true}, // numeric, not textual, equality
		{OpNotEqual, "120.5", false},
	} {
		got, err := Evaluate(leaf("", "SPEED", tc.op, tc.val), values)
		require.NoError(t, err, "op %s %s", tc.op, tc.val)
		assert.Equal(t, tc.want, got, "op %s %s", tc.op, tc.val)
	}
}

func TestEvaluateStringFallback(t *testing.T) {
	values := map[string]string{"MODE": "AUTO"}

	got, err := Evaluate(leaf("", "MODE", OpEqual, "AUTO"), values)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = Evaluate(leaf("", "MODE", OpNotEqual, "MANUAL"), values)
	require.NoError(t, err)
	assert.True(t, got)

	// Ordering operators have no meaning for non-numeric text.
	_, err = Evaluate(leaf("", "MODE", OpGreater, "AUTO"), values)
	assert.Error(t, err)
}

func TestEvaluateWildcard(t *testing.T) {
	got, err := Evaluate(leaf("", "ANY", OpEqual, "*"), map[string]string{"ANY": "whatever"})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluateLeftToRightFold(t *testing.T) {
	// true OR false AND false folds as ((true OR false) AND false) = false.
	// With precedence it would be true.
	values := map[string]string{"A": "1", "B": "2", "C": "3"}
	node := group("",
		leaf("", "A", OpEqual, "1"),
		leaf(LogicOr, "B", OpEqual, "9"),
		leaf(LogicAnd, "C", OpEqual, "9"),
	)
	got, err := Evaluate(node, values)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluateMissingLogicOperatorDefaultsToAnd(t *testing.T) {
	values := map[string]string{"A": "1", "B": "2"}
	node := group("",
		leaf("", "A", OpEqual, "1"),
		leaf("", "B", OpEqual, "9"), // no logic operator on a later operand
	)
	got, err := Evaluate(node, values)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluateShortCircuit(t *testing.T) {
	// The second operand references a parameter with a non-numeric value
	// under an ordering operator, which would error if evaluated.
	values := map[string]string{"A": "1", "BAD": "oops"}

	node := group("",
		leaf("", "A", OpEqual, "2"),
		leaf(LogicAnd, "BAD", OpGreater, "5"),
	)
	got, err := Evaluate(node, values)
	require.NoError(t, err, "AND with false accumulator must skip the operand")
	assert.False(t, got)

	node = group("",
		leaf("", "A", OpEqual, "1"),
		leaf(LogicOr, "BAD", OpGreater, "5"),
	)
	got, err = Evaluate(node, values)
	require.NoError(t, err, "OR with true accumulator must skip the operand")
	assert.True(t, got)
}

func TestEvaluateNestedGroups(t *testing.T) {
	values := map[string]string{"SPEED": "150", "MODE": "AUTO", "TEMP": "70"}
	node := group("",
		leaf("", "SPEED", OpGreater, "100"),
		group(LogicAnd,
			leaf("", "MODE", OpEqual, "MANUAL"),
			leaf(LogicOr, "TEMP", OpLess, "80"),
		),
	)
	got, err := Evaluate(node, values)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluateMissingParameter(t *testing.T) {
	_, err := Evaluate(leaf("", "ABSENT", OpEqual, "1"), map[string]string{})
	assert.Error(t, err)
}

func TestResolveStatusFirstMatchWins(t *testing.T) {
	rules := []StatusRule{
		{Status: "RUNNING", Conditions: group("", leaf("", "SPEED", OpGreater, "0"))},
		{Status: "STOPPED", Conditions: group("", leaf("", "SPEED", OpGreaterEqual, "0"))},
	}
	status, ok, err := ResolveStatus(rules, map[string]string{"SPEED": "10"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "RUNNING", status)

	status, ok, err = ResolveStatus(rules, map[string]string{"SPEED": "0"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "STOPPED", status)

	_, ok, err = ResolveStatus(rules, map[string]string{"SPEED": "-5"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	node := group("",
		leaf("", "SPEED", OpGreater, "100"),
		group(LogicAnd,
			leaf("", "MODE", OpEqual, "AUTO"),
			leaf(LogicOr, "TEMP", OpLess, "80"),
		),
	)
	got := Render(node)
	assert.Equal(t, "SPEED > 100 AND (MODE = AUTO OR TEMP < 80)", got)
}

func TestValidateRejectsEmptyGroup(t *testing.T) {
	err := Validate(nil)
	assert.ErrorIs(t, err, ErrNoOperands)

	// A node with neither operands nor leaf fields reads as an empty leaf.
	err = Validate(&Node{})
	assert.ErrorIs(t, err, ErrEmptyField)
}

func TestValidateRejectsIncompleteLeaf(t *testing.T) {
	err := Validate(group("", leaf("", "SPEED", "", "100")))
	assert.ErrorIs(t, err, ErrEmptyField)

	err = Validate(group("", leaf("", "", OpEqual, "100")))
	assert.ErrorIs(t, err, ErrEmptyField)
}

func TestValidateRulesUnknownStatus(t *testing.T) {
	rules := []StatusRule{
		{Status: "BOGUS", Conditions: group("", leaf("", "A", OpEqual, "1"))},
	}
	err := ValidateRules(rules, []string{"RUNNING", "STOPPED"})
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestCloneIsDeep(t *testing.T) {
	node := group("", leaf("", "A", OpEqual, "1"))
	dup := node.Clone()
	dup.Operands[0].Value = "2"
	assert.Equal(t, "1", node.Operands[0].Value)
}

func TestParameters(t *testing.T) {
	node := group("",
		leaf("", "SPEED", OpGreater, "0"),
		group(LogicAnd,
			leaf("", "MODE", OpEqual, "AUTO"),
			leaf(LogicOr, "SPEED", OpLess, "200"),
		),
	)
	assert.ElementsMatch(t, []string{"SPEED", "MODE"}, node.Parameters())
}
