// Package dialogs provides the modal dialogs of the configuration tool.
package dialogs

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"hmi-config/internal/app"
)

// ShowNamePrompt asks for the name of a freshly drawn rectangle and resolves
// the capture session. Dismissing the dialog cancels the session.
func ShowNamePrompt(win fyne.Window, session *app.CaptureSession, what string) {
	entry := widget.NewEntry()
	entry.SetPlaceHolder(fmt.Sprintf("%s name", what))

	items := []*widget.FormItem{
		widget.NewFormItem("Name", entry),
	}

	d := dialog.NewForm(fmt.Sprintf("New %s", what), "Add", "Cancel", items,
		func(confirmed bool) {
			if !confirmed || entry.Text == "" {
				session.Cancel()
				return
			}
			session.SetName(entry.Text)
		}, win)
	d.Resize(fyne.NewSize(300, 120))
	d.Show()
}

// ShowConfirmDelete asks before removing the named things.
func ShowConfirmDelete(win fyne.Window, what string, count int, onConfirm func()) {
	msg := fmt.Sprintf("Delete %d %s?", count, what)
	if count == 1 {
		msg = fmt.Sprintf("Delete this %s?", what)
	}
	dialog.ShowConfirm("Confirm Delete", msg, func(ok bool) {
		if ok {
			onConfirm()
		}
	}, win)
}
