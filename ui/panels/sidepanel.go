// Package panels provides the side panel of the configuration tool: the
// template list, the annotation item lists, and the action buttons.
package panels

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"sort"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"hmi-config/internal/app"
	"hmi-config/internal/condition"
	"hmi-config/internal/imaging"
	"hmi-config/internal/matcher"
	"hmi-config/internal/store"
	"hmi-config/pkg/geometry"
	"hmi-config/ui/canvas"
	"hmi-config/ui/dialogs"
)

var (
	parameterColor = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	featureColor   = color.RGBA{R: 220, G: 40, B: 40, A: 255}
)

// itemRow is one entry of the annotation list.
type itemRow struct {
	id   store.ItemID
	item store.Item
}

// SidePanel shows the templates of the store and the items of the selected
// template, and hosts the annotation actions.
type SidePanel struct {
	state  *app.State
	canvas *canvas.ScreenshotCanvas
	window fyne.Window

	templateList *widget.List
	templateIDs  []store.TemplateID

	categoryRadio *widget.RadioGroup
	itemList      *widget.List
	rows          []itemRow
	selectedRows  map[int]struct{}

	statusLabel *widget.Label

	container fyne.CanvasObject
}

// NewSidePanel creates the side panel.
func NewSidePanel(state *app.State, sc *canvas.ScreenshotCanvas) *SidePanel {
	sp := &SidePanel{
		state:        state,
		canvas:       sc,
		selectedRows: make(map[int]struct{}),
	}
	sp.buildUI()
	sp.RefreshTemplates()
	return sp
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(win fyne.Window) {
	sp.window = win
}

// Container returns the panel's root container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

func (sp *SidePanel) buildUI() {
	sp.templateList = widget.NewList(
		func() int { return len(sp.templateIDs) },
		func() fyne.CanvasObject { return widget.NewLabel("template") },
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			id := sp.templateIDs[i]
			label := fmt.Sprintf("Template %d", id)
			if t, err := sp.state.Store.Template(id); err == nil {
				label = fmt.Sprintf("Template %d (%dx%d)", id, t.Size.Width, t.Size.Height)
			}
			obj.(*widget.Label).SetText(label)
		},
	)
	sp.templateList.OnSelected = func(i widget.ListItemID) {
		sp.state.SetCurrentTemplate(sp.templateIDs[i])
	}

	sp.categoryRadio = widget.NewRadioGroup([]string{"Parameters", "Features"}, func(s string) {
		cat := store.Parameters
		if s == "Features" {
			cat = store.Features
		}
		sp.state.SetSelection(cat, nil)
		sp.RefreshItems()
	})
	sp.categoryRadio.SetSelected("Parameters")

	sp.itemList = widget.NewList(
		func() int { return len(sp.rows) },
		func() fyne.CanvasObject { return widget.NewLabel("item") },
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			row := sp.rows[i]
			obj.(*widget.Label).SetText(fmt.Sprintf("%d: %s", row.id, row.item.Name))
		},
	)
	sp.itemList.OnSelected = func(i widget.ListItemID) {
		sp.selectedRows[i] = struct{}{}
		sp.pushSelection()
	}
	sp.itemList.OnUnselected = func(i widget.ListItemID) {
		delete(sp.selectedRows, i)
		sp.pushSelection()
	}

	sp.statusLabel = widget.NewLabel("")
	sp.statusLabel.Wrapping = fyne.TextWrapWord

	buttons := container.NewVBox(
		widget.NewButton("Add Template", sp.onAddTemplate),
		widget.NewButton("Add Parameter", func() { sp.onAddItem(store.Parameters) }),
		widget.NewButton("Add Feature", func() { sp.onAddItem(store.Features) }),
		widget.NewButton("Delete Selected", sp.onDeleteSelected),
		widget.NewSeparator(),
		widget.NewButton("Match Screenshot", sp.onMatch),
		widget.NewButton("Edit Conditions", sp.onEditConditions),
		widget.NewButton("Delete Template", sp.onDeleteTemplate),
	)

	sp.container = container.NewBorder(
		widget.NewLabel("Templates"),
		container.NewVBox(buttons, sp.statusLabel),
		nil, nil,
		container.NewVSplit(
			sp.templateList,
			container.NewBorder(sp.categoryRadio, nil, nil, nil, sp.itemList),
		),
	)
}

// RefreshTemplates reloads the template list from the store.
func (sp *SidePanel) RefreshTemplates() {
	doc := sp.state.Store.Snapshot()
	sp.templateIDs = doc.TemplateIDs()
	sp.templateList.Refresh()
}

// RefreshItems reloads the item list for the current template and category.
func (sp *SidePanel) RefreshItems() {
	sp.rows = nil
	sp.selectedRows = make(map[int]struct{})

	cat, _ := sp.state.Selection()
	t, err := sp.state.Store.Template(sp.state.CurrentTemplate)
	if err == nil {
		items := t.Items(cat)
		ids := make([]store.ItemID, 0, len(items))
		for id := range items {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			sp.rows = append(sp.rows, itemRow{id: id, item: items[id]})
		}
	}
	sp.itemList.Refresh()
	sp.SyncOverlays()
}

// SyncOverlays redraws the annotation rectangles on the canvas.
func (sp *SidePanel) SyncOverlays() {
	t, err := sp.state.Store.Template(sp.state.CurrentTemplate)
	if err != nil {
		sp.canvas.ClearAllOverlays()
		return
	}

	cat, selected := sp.state.Selection()
	selectedSet := make(map[store.ItemID]struct{}, len(selected))
	for _, id := range selected {
		selectedSet[id] = struct{}{}
	}

	params := &canvas.Overlay{Color: parameterColor}
	for id, item := range t.Parameters {
		r := canvas.RectFromBox(item.Position, item.Name)
		if cat == store.Parameters {
			_, r.Selected = selectedSet[id]
		}
		params.Rectangles = append(params.Rectangles, r)
	}
	feats := &canvas.Overlay{Color: featureColor}
	for id, item := range t.Features {
		r := canvas.RectFromBox(item.Position, item.Name)
		if cat == store.Features {
			_, r.Selected = selectedSet[id]
		}
		feats.Rectangles = append(feats.Rectangles, r)
	}

	sp.canvas.SetOverlay("parameters", params)
	sp.canvas.SetOverlay("features", feats)
}

func (sp *SidePanel) pushSelection() {
	cat, _ := sp.state.Selection()
	var ids []store.ItemID
	for i := range sp.selectedRows {
		if i < len(sp.rows) {
			ids = append(ids, sp.rows[i].id)
		}
	}
	sp.state.SetSelection(cat, ids)
	sp.SyncOverlays()
}

// ShowTemplate loads a template's screenshot into the canvas.
func (sp *SidePanel) ShowTemplate(id store.TemplateID) {
	t, err := sp.state.Store.Template(id)
	if err != nil {
		sp.setStatus(err.Error())
		return
	}
	img, err := imaging.LoadImage(t.Path)
	if err != nil {
		sp.setStatus(err.Error())
		return
	}
	sp.canvas.SetImage(img)
	sp.RefreshItems()
}

func (sp *SidePanel) setStatus(text string) {
	sp.statusLabel.SetText(text)
}

// onAddTemplate registers the currently loaded screenshot as a new template.
func (sp *SidePanel) onAddTemplate() {
	path := sp.state.CurrentImage
	if path == "" {
		sp.setStatus("Load a screenshot first")
		return
	}
	size, err := imaging.Dimensions(path)
	if err != nil {
		dialog.ShowError(err, sp.window)
		return
	}
	id, err := sp.state.Store.AddTemplate(path, size)
	if err != nil {
		dialog.ShowError(err, sp.window)
		return
	}
	sp.RefreshTemplates()
	sp.state.SetCurrentTemplate(id)
	sp.setStatus(fmt.Sprintf("Added template %d", id))
}

// onAddItem runs a draw-and-name session for a new parameter or feature.
func (sp *SidePanel) onAddItem(cat store.Category) {
	tid := sp.state.CurrentTemplate
	if tid == 0 {
		sp.setStatus("Select a template first")
		return
	}

	what := "parameter"
	if cat == store.Features {
		what = "feature"
	}
	sp.setStatus(fmt.Sprintf("Drag a rectangle for the new %s", what))

	session := app.NewCaptureSession()
	sp.canvas.EnableSelectMode()
	sp.canvas.OnSelect(func(box geometry.Box) {
		session.SetBox(box)
		dialogs.ShowNamePrompt(sp.window, session, what)
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		cap, err := session.Result(ctx)
		if err != nil {
			sp.setStatus("Capture canceled")
			return
		}
		id, err := sp.state.Store.AddItemWith(tid, cat, cap.Name, cap.Box, sp.allocatorFor(cap.Name))
		if err != nil {
			log.Printf("adding %s: %v", what, err)
			sp.setStatus(err.Error())
			return
		}
		sp.setStatus(fmt.Sprintf("Added %s %q (%d)", what, cap.Name, id))
		sp.state.Emit(app.EventItemsChanged, tid)
		sp.RefreshItems()
	}()
}

// allocatorFor picks the item ID policy for a new item. Items named after a
// configured machine status draw their ID from that status's reserved band,
// everything else gets the next sequential ID.
func (sp *SidePanel) allocatorFor(name string) store.IDAllocator {
	for _, sc := range sp.state.Config.Statuses {
		if sc.Name == name {
			return store.StatusRange{Lo: store.ItemID(sc.IDLo), Hi: store.ItemID(sc.IDHi)}
		}
	}
	return store.Sequential{}
}

// onDeleteSelected removes the selected items after confirmation.
func (sp *SidePanel) onDeleteSelected() {
	tid := sp.state.CurrentTemplate
	cat, ids := sp.state.Selection()
	if tid == 0 || len(ids) == 0 {
		sp.setStatus("Nothing selected")
		return
	}
	dialogs.ShowConfirmDelete(sp.window, string(cat), len(ids), func() {
		for _, id := range ids {
			if err := sp.state.Store.RemoveItem(tid, cat, id); err != nil {
				sp.setStatus(err.Error())
				return
			}
		}
		sp.state.Emit(app.EventItemsChanged, tid)
		sp.RefreshTemplates()
		sp.RefreshItems()
	})
}

// onDeleteTemplate removes the current template and its image.
func (sp *SidePanel) onDeleteTemplate() {
	tid := sp.state.CurrentTemplate
	if tid == 0 {
		sp.setStatus("Select a template first")
		return
	}
	dialogs.ShowConfirmDelete(sp.window, "template", 1, func() {
		if err := sp.state.Store.RemoveTemplate(tid); err != nil {
			sp.setStatus(err.Error())
			return
		}
		sp.state.SetCurrentTemplate(0)
		sp.canvas.SetImage(nil)
		sp.canvas.ClearAllOverlays()
		sp.RefreshTemplates()
		sp.RefreshItems()
	})
}

// Match runs the matcher over the loaded screenshot.
func (sp *SidePanel) Match() {
	sp.onMatch()
}

// ScoreAll scores every template against the loaded screenshot and shows the
// per-feature results.
func (sp *SidePanel) ScoreAll() {
	path := sp.state.CurrentImage
	if path == "" {
		sp.setStatus("Load a screenshot first")
		return
	}
	m := matcher.New(matcher.Options{
		Threshold: sp.state.Config.Matching.Threshold,
		Workers:   sp.state.Config.Matching.Workers,
	})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		results, err := m.ScoreAll(ctx, path, sp.state.Store.Snapshot())
		if err != nil {
			sp.setStatus(err.Error())
			return
		}
		text := ""
		for _, res := range results {
			verdict := "no match"
			if res.Found {
				verdict = "MATCH"
			}
			text += fmt.Sprintf("Template %d: %s (min %.3f mean %.3f)\n",
				res.TemplateID, verdict, res.MinScore, res.MeanScore)
		}
		if text == "" {
			text = "Store has no templates"
		}
		dialog.ShowInformation("Template Scores", text, sp.window)
	}()
}

// onMatch runs the matcher over the loaded screenshot.
func (sp *SidePanel) onMatch() {
	path := sp.state.CurrentImage
	if path == "" {
		sp.setStatus("Load a screenshot first")
		return
	}
	m := matcher.New(matcher.Options{
		Threshold: sp.state.Config.Matching.Threshold,
		Workers:   sp.state.Config.Matching.Workers,
	})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		res, err := m.Match(ctx, path, sp.state.Store.Snapshot())
		if err != nil {
			sp.setStatus(err.Error())
			return
		}
		sp.state.SetMatchResult(res)
		if res.Found {
			sp.setStatus(fmt.Sprintf("Matched template %d (min score %.3f)", res.TemplateID, res.MinScore))
		} else {
			sp.setStatus("No template matched")
		}
	}()
}

// onEditConditions opens the condition editor for the current template.
func (sp *SidePanel) onEditConditions() {
	tid := sp.state.CurrentTemplate
	t, err := sp.state.Store.Template(tid)
	if err != nil {
		sp.setStatus("Select a template first")
		return
	}
	// A template without parameters has nothing to compare, so its status is
	// assigned directly instead of through condition trees.
	if len(t.Parameters) == 0 {
		sp.pickFixedStatus(tid, t)
		return
	}

	editor := dialogs.NewConditionsEditor(
		sp.window,
		sp.state.Config.StatusNames(),
		t.ParameterNames(),
		t.StatusRules,
	)
	editor.Show(func(rules []condition.StatusRule) error {
		if err := sp.state.Store.SetStatusRules(tid, rules); err != nil {
			return err
		}
		sp.state.Emit(app.EventConditionsChanged, tid)
		return nil
	})
}

// pickFixedStatus stores a single unconditional status rule for a template
// without parameter regions.
func (sp *SidePanel) pickFixedStatus(tid store.TemplateID, t *store.Template) {
	current := ""
	if len(t.StatusRules) > 0 {
		current = t.StatusRules[0].Status
	}
	sel := widget.NewSelect(sp.state.Config.StatusNames(), nil)
	sel.SetSelected(current)

	dialog.ShowCustomConfirm("Machine Status", "Apply", "Cancel", sel, func(ok bool) {
		if !ok || sel.Selected == "" {
			return
		}
		rules := []condition.StatusRule{{Status: sel.Selected}}
		if err := sp.state.Store.SetStatusRules(tid, rules); err != nil {
			sp.setStatus(err.Error())
			return
		}
		sp.setStatus(fmt.Sprintf("Template %d status set to %s", tid, sel.Selected))
		sp.state.Emit(app.EventConditionsChanged, tid)
	}, sp.window)
}
