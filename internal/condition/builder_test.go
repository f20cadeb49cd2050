package condition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStatuses = []string{"RUNNING", "STOPPED", "ALARM"}

func TestBuilderSessionFlow(t *testing.T) {
	b := NewBuilder(testStatuses)
	assert.Equal(t, StateEmpty, b.State())

	g := b.AddGroup()
	g.Status = "RUNNING"
	b.AddRow(g, "SPEED", OpGreater, "0")
	assert.Equal(t, StateEditing, b.State())

	var committed []StatusRule
	err := b.Submit(func(rules []StatusRule) error {
		committed = rules
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, b.State())
	require.Len(t, committed, 1)
	assert.Equal(t, "RUNNING", committed[0].Status)
	require.NotNil(t, committed[0].Conditions)
	require.Len(t, committed[0].Conditions.Operands, 1)
}

func TestBuilderRowsAfterFirstDefaultToAnd(t *testing.T) {
	b := NewBuilder(testStatuses)
	g := b.AddGroup()
	b.AddRow(g, "A", OpEqual, "1")
	b.AddRow(g, "B", OpEqual, "2")

	assert.Equal(t, "", g.Rows[0].Logic)
	assert.Equal(t, LogicAnd, g.Rows[1].Logic)
}

func TestBuilderRemoveFirstRowShedsLogic(t *testing.T) {
	b := NewBuilder(testStatuses)
	g := b.AddGroup()
	b.AddRow(g, "A", OpEqual, "1")
	b.AddRow(g, "B", OpEqual, "2")
	g.Rows[1].Logic = LogicOr

	b.RemoveRow(g, 0)
	require.Len(t, g.Rows, 1)
	assert.Equal(t, "B", g.Rows[0].Parameter)
	assert.Equal(t, "", g.Rows[0].Logic)
}

func TestBuilderSubmitRejectsIncompleteRow(t *testing.T) {
	b := NewBuilder(testStatuses)
	g := b.AddGroup()
	g.Status = "RUNNING"
	b.AddRow(g, "SPEED", OpGreater, "") // missing value

	err := b.Submit(func([]StatusRule) error { return nil })
	assert.ErrorIs(t, err, ErrEmptyField)
	assert.Equal(t, StateEditing, b.State(), "failed submit keeps the session editable")
}

func TestBuilderSubmitRejectsEmptyGroup(t *testing.T) {
	b := NewBuilder(testStatuses)
	g := b.AddGroup()
	g.Status = "RUNNING"

	err := b.Submit(func([]StatusRule) error { return nil })
	assert.ErrorIs(t, err, ErrNoOperands)
}

func TestBuilderSubmitRejectsUnknownStatus(t *testing.T) {
	b := NewBuilder(testStatuses)
	g := b.AddGroup()
	g.Status = "NONSENSE"
	b.AddRow(g, "A", OpEqual, "1")

	err := b.Submit(func([]StatusRule) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestBuilderCommitFailureKeepsEditing(t *testing.T) {
	b := NewBuilder(testStatuses)
	g := b.AddGroup()
	g.Status = "ALARM"
	b.AddRow(g, "TEMP", OpGreater, "90")

	boom := errors.New("disk full")
	err := b.Submit(func([]StatusRule) error { return boom })
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateEditing, b.State())
}

func TestBuilderLoadRulesRoundTrip(t *testing.T) {
	original := []StatusRule{
		{Status: "RUNNING", Conditions: &Node{Operands: []*Node{
			{Parameter: "SPEED", Comparison: OpGreater, Value: "0"},
			{LogicOperator: LogicOr, Parameter: "MODE", Comparison: OpEqual, Value: "AUTO"},
		}}},
	}

	b := NewBuilder(testStatuses)
	b.LoadRules(original)
	assert.Equal(t, StateEditing, b.State())

	rebuilt := b.Rules()
	require.Len(t, rebuilt, 1)
	assert.True(t, original[0].Conditions.Equal(rebuilt[0].Conditions))
}
