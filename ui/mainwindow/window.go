// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"hmi-config/internal/app"
	"hmi-config/internal/imaging"
	"hmi-config/internal/matcher"
	"hmi-config/internal/store"
	"hmi-config/internal/version"
	"hmi-config/ui/canvas"
	"hmi-config/ui/panels"
	"hmi-config/ui/prefs"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.ScreenshotCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	watcher   *app.StoreWatcher

	fitToWindowItem *fyne.MenuItem
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("HMI Configuration Tool")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.startWatcher()

	// The title-bar close button must run the same save prompt as File/Quit.
	win.SetCloseIntercept(mw.onQuit)

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewScreenshotCanvas()

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas)
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,               // top
		nil,                   // bottom
		nil,                   // left
		nil,                   // right
		mw.canvas.Container(), // center
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(
		float32(mw.prefs.Float(prefs.KeyWindowWidth, 1200)),
		float32(mw.prefs.Float(prefs.KeyWindowHeight, 800)),
	))
}

// createToolbar creates the toolbar with zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	zoomOutBtn := widget.NewButton("-", func() {
		mw.onZoomOut()
	})
	zoomInBtn := widget.NewButton("+", func() {
		mw.onZoomIn()
	})
	fitBtn := widget.NewButton("Fit", func() {
		mw.onToggleFitToWindow()
	})
	actualBtn := widget.NewButton("1:1", func() {
		mw.onActualSize()
	})

	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
		actualBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Screenshot...", mw.onOpenScreenshot),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Store", mw.onSaveStore),
		fyne.NewMenuItem("Reload Store", mw.onReloadStore),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.onQuit() }),
	)

	mw.fitToWindowItem = fyne.NewMenuItem("  Fit to Window", mw.onToggleFitToWindow)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		mw.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Match Screenshot", mw.onMatch),
		fyne.NewMenuItem("Score All Templates", mw.onScoreAll),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, viewMenu, toolsMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventTemplateSelected, func(data interface{}) {
		if id, ok := data.(store.TemplateID); ok && id != 0 {
			mw.sidePanel.ShowTemplate(id)
			mw.updateStatus(fmt.Sprintf("Template %d", id))
		}
	})

	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.updateStatus("Screenshot loaded: " + filepath.Base(path))
		}
	})

	mw.state.On(app.EventItemsChanged, func(data interface{}) {
		mw.sidePanel.SyncOverlays()
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventMatchComplete, func(data interface{}) {
		if res, ok := data.(matcher.Result); ok && res.Found {
			mw.sidePanel.RefreshTemplates()
			mw.sidePanel.ShowTemplate(res.TemplateID)
		}
	})

	mw.state.On(app.EventConditionsChanged, func(data interface{}) {
		mw.updateStatus("Status conditions saved")
	})
}

// startWatcher polls the store document for external edits.
func (mw *MainWindow) startWatcher() {
	interval := mw.state.Config.WatchInterval
	if interval <= 0 {
		return
	}
	mw.watcher = app.NewStoreWatcher(mw.state.Store.Path(), time.Duration(interval)*time.Second)
	mw.watcher.OnChanged(func() {
		mw.state.Store.Reload()
		mw.sidePanel.RefreshTemplates()
		mw.updateStatus("Store reloaded after external change")
		mw.watcher.ResetBaseline()
		mw.watcher.Start()
	})
	mw.watcher.Start()
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastImageDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastImageDir, filepath.Dir(filePath))
	if err := mw.prefs.Save(); err != nil {
		mw.updateStatus("Saving preferences: " + err.Error())
	}
}

// Menu action handlers

func (mw *MainWindow) onOpenScreenshot() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		img, err := imaging.LoadImage(path)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.canvas.SetImage(img)
		mw.canvas.ClearAllOverlays()
		mw.state.SetCurrentImage(path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveStore() {
	if err := mw.state.Store.Save(); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	if mw.watcher != nil {
		mw.watcher.ResetBaseline()
	}
	mw.updateStatus("Store saved")
}

func (mw *MainWindow) onReloadStore() {
	mw.state.Store.Reload()
	mw.sidePanel.RefreshTemplates()
	mw.sidePanel.RefreshItems()
	mw.updateStatus("Store reloaded")
}

func (mw *MainWindow) onQuit() {
	if mw.watcher != nil {
		mw.watcher.Stop()
	}
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	_ = mw.prefs.Save()

	if mw.state.Store.HasChanged() {
		dialog.ShowConfirm("Unsaved Changes", "Save the template store before quitting?",
			func(save bool) {
				if save {
					_ = mw.state.Store.Save()
				}
				mw.app.Quit()
			}, mw.Window)
		return
	}
	mw.app.Quit()
}

func (mw *MainWindow) onMatch() {
	mw.updateStatus("Matching...")
	mw.sidePanel.SyncOverlays()
	// The side panel owns the match flow; this menu entry mirrors its button.
	mw.sidePanel.Match()
}

func (mw *MainWindow) onScoreAll() {
	mw.sidePanel.ScoreAll()
}

func (mw *MainWindow) onZoomIn() {
	mw.disableFitToWindow()
	mw.canvas.ZoomIn()
}

func (mw *MainWindow) onZoomOut() {
	mw.disableFitToWindow()
	mw.canvas.ZoomOut()
}

func (mw *MainWindow) onToggleFitToWindow() {
	enabled := !mw.canvas.GetFitToWindow()
	mw.canvas.SetFitToWindow(enabled)

	if enabled {
		mw.fitToWindowItem.Label = "✓ Fit to Window"
	} else {
		mw.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (mw *MainWindow) onActualSize() {
	mw.disableFitToWindow()
	mw.canvas.SetZoom(1.0)
}

func (mw *MainWindow) disableFitToWindow() {
	if mw.canvas.GetFitToWindow() {
		mw.canvas.SetFitToWindow(false)
		mw.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About HMI Configuration Tool",
		fmt.Sprintf("HMI Configuration Tool v%s\n\n"+
			"Annotates HMI screenshots with parameter and feature regions\n"+
			"and defines machine status conditions.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
