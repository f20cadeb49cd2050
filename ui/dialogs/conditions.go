package dialogs

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"hmi-config/internal/condition"
)

var comparisonChoices = []string{
	condition.OpEqual,
	condition.OpNotEqual,
	condition.OpGreater,
	condition.OpLess,
	condition.OpGreaterEqual,
	condition.OpLessEqual,
}

var logicChoices = []string{condition.LogicAnd, condition.LogicOr}

// ConditionsEditor is the dialog for authoring the machine status rules of a
// template. It edits a condition.Builder and commits through the callback
// handed to Show.
type ConditionsEditor struct {
	win        fyne.Window
	builder    *condition.Builder
	statuses   []string
	parameters []string

	groupsBox *fyne.Container
	preview   *widget.Label
}

// NewConditionsEditor creates an editor seeded with existing rules.
func NewConditionsEditor(win fyne.Window, statuses, parameters []string, rules []condition.StatusRule) *ConditionsEditor {
	b := condition.NewBuilder(statuses)
	b.LoadRules(rules)
	return &ConditionsEditor{
		win:        win,
		builder:    b,
		statuses:   statuses,
		parameters: parameters,
	}
}

// Show opens the dialog. commit receives the validated rules when the user
// confirms; a validation failure shows the error and reopens the editor with
// the drafts intact.
func (ce *ConditionsEditor) Show(commit func([]condition.StatusRule) error) {
	ce.groupsBox = container.NewVBox()
	ce.preview = widget.NewLabel("")
	ce.preview.Wrapping = fyne.TextWrapWord
	ce.rebuild()

	addGroupBtn := widget.NewButton("Add Status Group", func() {
		ce.builder.AddGroup()
		ce.rebuild()
	})

	content := container.NewBorder(
		nil,
		container.NewVBox(addGroupBtn, widget.NewSeparator(), ce.preview),
		nil, nil,
		container.NewVScroll(ce.groupsBox),
	)

	d := dialog.NewCustomConfirm("Machine Status Conditions", "Save", "Cancel", content,
		func(confirmed bool) {
			if !confirmed {
				return
			}
			if err := ce.builder.Submit(commit); err != nil {
				dialog.ShowError(err, ce.win)
				ce.Show(commit)
			}
		}, ce.win)
	d.Resize(fyne.NewSize(640, 480))
	d.Show()
}

// rebuild regenerates the group widgets from the builder drafts.
func (ce *ConditionsEditor) rebuild() {
	ce.groupsBox.Objects = nil

	for _, group := range ce.builder.Groups() {
		group := group
		statusSelect := widget.NewSelect(ce.statuses, func(s string) {
			group.Status = s
			ce.updatePreview()
		})
		statusSelect.SetSelected(group.Status)

		removeGroupBtn := widget.NewButton("Remove Group", func() {
			ce.builder.RemoveGroup(group)
			ce.rebuild()
		})
		addRowBtn := widget.NewButton("Add Condition", func() {
			ce.builder.AddRow(group, "", condition.OpEqual, "")
			ce.rebuild()
		})

		header := container.NewHBox(
			widget.NewLabel("Status:"),
			statusSelect,
			addRowBtn,
			removeGroupBtn,
		)

		rowsBox := container.NewVBox()
		for ri := range group.Rows {
			rowsBox.Add(ce.buildRow(group, ri))
		}

		ce.groupsBox.Add(container.NewVBox(header, rowsBox, widget.NewSeparator()))
	}

	ce.updatePreview()
	ce.groupsBox.Refresh()
}

// buildRow creates the widgets for one condition row. The first row of a
// group carries no logic operator.
func (ce *ConditionsEditor) buildRow(group *condition.GroupDraft, ri int) fyne.CanvasObject {
	row := &group.Rows[ri]

	var logicObj fyne.CanvasObject
	if ri == 0 {
		logicObj = widget.NewLabel("      ")
	} else {
		logicSelect := widget.NewSelect(logicChoices, func(s string) {
			row.Logic = s
			ce.updatePreview()
		})
		logicSelect.SetSelected(row.Logic)
		logicObj = logicSelect
	}

	paramSelect := widget.NewSelect(ce.parameters, func(s string) {
		row.Parameter = s
		ce.updatePreview()
	})
	paramSelect.SetSelected(row.Parameter)

	compSelect := widget.NewSelect(comparisonChoices, func(s string) {
		row.Comparison = s
		ce.updatePreview()
	})
	compSelect.SetSelected(row.Comparison)

	valueEntry := widget.NewEntry()
	valueEntry.SetText(row.Value)
	valueEntry.OnChanged = func(s string) {
		row.Value = s
		ce.updatePreview()
	}

	removeBtn := widget.NewButton("X", func() {
		ce.builder.RemoveRow(group, ri)
		ce.rebuild()
	})

	return container.NewHBox(logicObj, paramSelect, compSelect, valueEntry, removeBtn)
}

// updatePreview renders the drafted rules as text.
func (ce *ConditionsEditor) updatePreview() {
	text := ""
	for _, rule := range ce.builder.Rules() {
		text += condition.RenderRule(rule) + "\n"
	}
	ce.preview.SetText(text)
}
