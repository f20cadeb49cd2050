// Package canvas provides a screenshot canvas with pan, zoom, and rectangle
// selection for annotating templates.
package canvas

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"hmi-config/pkg/geometry"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25
)

// ScreenshotCanvas displays one screenshot with annotation overlays. The
// mouse wheel zooms, dragging in selection mode rubber-bands a rectangle.
type ScreenshotCanvas struct {
	widget.BaseWidget

	img image.Image

	// Overlays keyed by name, e.g. "parameters", "features".
	overlays map[string]*Overlay

	raster *fynecanvas.Raster
	zoom   float64

	// Selection (rubber-band)
	selecting     bool
	selectMode    bool
	selectStart   fyne.Position
	selectEnd     fyne.Position
	selectionRect *OverlayRect

	scroll  *zoomScroll
	content *draggableContent
	imgSize fyne.Size

	fitToWindow    bool
	lastScrollSize fyne.Size

	onZoomChange func(zoom float64)
	onSelect     func(box geometry.Box) // Image coordinates
	onLeftClick  func(x, y float64)     // Image coordinates
}

// zoomScroll wraps a scroll container but intercepts wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *ScreenshotCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *ScreenshotCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// draggableContent wraps the raster to handle mouse events.
type draggableContent struct {
	widget.BaseWidget
	canvas *ScreenshotCanvas
	raster *fynecanvas.Raster
}

func newDraggableContent(sc *ScreenshotCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{
		canvas: sc,
		raster: raster,
	}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return &draggableContentRenderer{content: dc}
}

func (dc *draggableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	if !dc.canvas.selectMode {
		return
	}

	// ev.Position is relative to viewport, add scroll offset for content position
	scrollOffset := dc.canvas.scroll.Offset()
	pos := fyne.Position{
		X: ev.Position.X + scrollOffset.X,
		Y: ev.Position.Y + scrollOffset.Y,
	}

	if !dc.canvas.selecting {
		dc.canvas.selecting = true
		dc.canvas.selectStart = pos
	}
	dc.canvas.selectEnd = pos

	x1, y1 := float64(dc.canvas.selectStart.X), float64(dc.canvas.selectStart.Y)
	x2, y2 := float64(dc.canvas.selectEnd.X), float64(dc.canvas.selectEnd.Y)
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}

	// selectionRect holds canvas coordinates until the drag ends
	dc.canvas.selectionRect = &OverlayRect{
		X:      int(x1),
		Y:      int(y1),
		Width:  int(x2 - x1),
		Height: int(y2 - y1),
	}
	dc.canvas.Refresh()
}

func (dc *draggableContent) DragEnd() {
	if !dc.canvas.selectMode || !dc.canvas.selecting {
		return
	}

	dc.canvas.selecting = false
	dc.canvas.selectMode = false

	if dc.canvas.onSelect != nil && dc.canvas.selectionRect != nil {
		rect := dc.canvas.selectionRect
		// Convert canvas (zoomed) coordinates back to image coordinates
		z := dc.canvas.zoom
		box := geometry.NewBox(
			float64(rect.X)/z,
			float64(rect.Y)/z,
			float64(rect.X+rect.Width)/z,
			float64(rect.Y+rect.Height)/z,
		)
		dc.canvas.onSelect(box)
	}

	dc.canvas.selectionRect = nil
	dc.canvas.Refresh()
}

func (dc *draggableContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		dc.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		dc.canvas.ZoomOut()
	}
}

// Tapped handles left-click events.
func (dc *draggableContent) Tapped(ev *fyne.PointEvent) {
	if dc.canvas.onLeftClick == nil {
		return
	}

	// Workaround for Fyne bug: reject clicks outside widget bounds
	size := dc.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}

	scrollOffset := dc.canvas.scroll.Offset()
	canvasX := float64(ev.Position.X + scrollOffset.X)
	canvasY := float64(ev.Position.Y + scrollOffset.Y)

	dc.canvas.onLeftClick(canvasX/dc.canvas.zoom, canvasY/dc.canvas.zoom)
}

type draggableContentRenderer struct {
	content *draggableContent
}

func (r *draggableContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *draggableContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *draggableContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *draggableContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *draggableContentRenderer) Destroy() {}

// NewScreenshotCanvas creates a new screenshot canvas.
func NewScreenshotCanvas() *ScreenshotCanvas {
	sc := &ScreenshotCanvas{
		zoom:     1.0,
		imgSize:  fyne.NewSize(400, 300),
		overlays: make(map[string]*Overlay),
	}

	sc.raster = fynecanvas.NewRaster(sc.draw)
	sc.raster.ScaleMode = fynecanvas.ImageScalePixels
	sc.raster.SetMinSize(sc.imgSize)

	sc.content = newDraggableContent(sc, sc.raster)
	sc.scroll = newZoomScroll(sc.content, sc)

	sc.ExtendBaseWidget(sc)
	return sc
}

// EnableSelectMode enables rubber-band selection for the next drag.
func (sc *ScreenshotCanvas) EnableSelectMode() {
	sc.selectMode = true
	sc.selecting = false
	sc.selectionRect = nil
}

// Container returns the canvas container for embedding in layouts.
func (sc *ScreenshotCanvas) Container() fyne.CanvasObject {
	return sc.scroll
}

// SetImage sets the screenshot to display.
func (sc *ScreenshotCanvas) SetImage(img image.Image) {
	sc.img = img
	sc.updateContentSize()
}

// GetImage returns the displayed screenshot.
func (sc *ScreenshotCanvas) GetImage() image.Image {
	return sc.img
}

// SetOverlay sets an overlay with the given name.
func (sc *ScreenshotCanvas) SetOverlay(name string, overlay *Overlay) {
	sc.overlays[name] = overlay
	sc.Refresh()
}

// ClearOverlay removes an overlay by name.
func (sc *ScreenshotCanvas) ClearOverlay(name string) {
	delete(sc.overlays, name)
	sc.Refresh()
}

// ClearAllOverlays removes all overlays.
func (sc *ScreenshotCanvas) ClearAllOverlays() {
	sc.overlays = make(map[string]*Overlay)
	sc.Refresh()
}

// SetZoom sets the zoom level.
func (sc *ScreenshotCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	sc.zoom = zoom
	sc.updateContentSize()

	if sc.onZoomChange != nil {
		sc.onZoomChange(zoom)
	}
}

// GetZoom returns the current zoom level.
func (sc *ScreenshotCanvas) GetZoom() float64 {
	return sc.zoom
}

// ZoomIn increases the zoom level.
func (sc *ScreenshotCanvas) ZoomIn() {
	sc.SetZoom(sc.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (sc *ScreenshotCanvas) ZoomOut() {
	sc.SetZoom(sc.zoom / zoomStep)
}

// FitToWindow adjusts zoom to fit the image in the visible area.
func (sc *ScreenshotCanvas) FitToWindow() {
	if sc.img == nil {
		return
	}
	bounds := sc.img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return
	}

	viewSize := sc.scroll.Size()
	if viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	zoomX := float64(viewSize.Width) / float64(bounds.Dx())
	zoomY := float64(viewSize.Height) / float64(bounds.Dy())

	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}

	sc.SetZoom(zoom * 0.95) // Leave a small margin
}

// SetFitToWindow enables or disables auto-fit on resize.
func (sc *ScreenshotCanvas) SetFitToWindow(fit bool) {
	sc.fitToWindow = fit
	if fit {
		sc.FitToWindow()
	}
}

// GetFitToWindow returns the current fit-to-window state.
func (sc *ScreenshotCanvas) GetFitToWindow() bool {
	return sc.fitToWindow
}

// OnZoomChange sets a callback for zoom changes.
func (sc *ScreenshotCanvas) OnZoomChange(callback func(zoom float64)) {
	sc.onZoomChange = callback
}

// OnSelect sets a callback for rubber-band completion. The box is in image
// coordinates.
func (sc *ScreenshotCanvas) OnSelect(callback func(box geometry.Box)) {
	sc.onSelect = callback
}

// OnLeftClick sets a callback for left-click events in image coordinates.
func (sc *ScreenshotCanvas) OnLeftClick(callback func(x, y float64)) {
	sc.onLeftClick = callback
}

// Refresh refreshes the canvas display.
func (sc *ScreenshotCanvas) Refresh() {
	sc.raster.Refresh()
}

func (sc *ScreenshotCanvas) updateContentSize() {
	if sc.img == nil {
		sc.imgSize = fyne.NewSize(400, 300)
	} else {
		bounds := sc.img.Bounds()
		width := float32(float64(bounds.Dx()) * sc.zoom)
		height := float32(float64(bounds.Dy()) * sc.zoom)
		sc.imgSize = fyne.NewSize(width, height)
	}

	sc.raster.SetMinSize(sc.imgSize)
	sc.raster.Resize(sc.imgSize)
	if sc.content != nil {
		sc.content.Resize(sc.imgSize)
		sc.content.Refresh()
	}
	sc.raster.Refresh()
	if sc.scroll != nil {
		sc.scroll.Refresh()
	}
}

// draw is the raster drawing function.
func (sc *ScreenshotCanvas) draw(w, h int) image.Image {
	currentSize := fyne.NewSize(float32(w), float32(h))
	if sc.fitToWindow && currentSize != sc.lastScrollSize && w > 0 && h > 0 {
		sc.lastScrollSize = currentSize
		// Schedule fit after this draw completes
		go func() {
			sc.FitToWindow()
		}()
	}

	output := image.NewRGBA(image.Rect(0, 0, w, h))

	// Black background
	for i := 3; i < len(output.Pix); i += 4 {
		output.Pix[i] = 255
	}

	if sc.img != nil {
		sc.drawImage(output, w, h)
	}

	for _, overlay := range sc.overlays {
		if overlay != nil {
			sc.drawOverlay(output, overlay)
		}
	}

	if sc.selecting && sc.selectionRect != nil {
		sc.drawSelectionRect(output, sc.selectionRect)
	}

	return output
}

// drawImage composites the screenshot onto the output at the current zoom.
func (sc *ScreenshotCanvas) drawImage(output *image.RGBA, w, h int) {
	src := sc.img
	srcBounds := src.Bounds()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			srcX := int(float64(x)/sc.zoom) + srcBounds.Min.X
			srcY := int(float64(y)/sc.zoom) + srcBounds.Min.Y
			if srcX < srcBounds.Min.X || srcX >= srcBounds.Max.X ||
				srcY < srcBounds.Min.Y || srcY >= srcBounds.Max.Y {
				continue
			}
			output.Set(x, y, src.At(srcX, srcY))
		}
	}
}

// drawSelectionRect draws the rubber-band rectangle with a dashed outline.
func (sc *ScreenshotCanvas) drawSelectionRect(output *image.RGBA, rect *OverlayRect) {
	col := color.RGBA{R: 255, G: 255, B: 0, A: 255}

	// rect is already in canvas coordinates
	x1 := rect.X
	y1 := rect.Y
	x2 := rect.X + rect.Width
	y2 := rect.Y + rect.Height

	bounds := output.Bounds()

	for x := x1; x <= x2; x++ {
		if (x+y1)%4 < 2 && x >= bounds.Min.X && x < bounds.Max.X && y1 >= bounds.Min.Y && y1 < bounds.Max.Y {
			output.Set(x, y1, col)
		}
	}
	for x := x1; x <= x2; x++ {
		if (x+y2)%4 < 2 && x >= bounds.Min.X && x < bounds.Max.X && y2 >= bounds.Min.Y && y2 < bounds.Max.Y {
			output.Set(x, y2, col)
		}
	}
	for y := y1; y <= y2; y++ {
		if (x1+y)%4 < 2 && x1 >= bounds.Min.X && x1 < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			output.Set(x1, y, col)
		}
	}
	for y := y1; y <= y2; y++ {
		if (x2+y)%4 < 2 && x2 >= bounds.Min.X && x2 < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			output.Set(x2, y, col)
		}
	}
}

// ImageToCanvas converts image coordinates to canvas coordinates.
func (sc *ScreenshotCanvas) ImageToCanvas(imgX, imgY float64) (canvasX, canvasY float64) {
	canvasX = imgX * sc.zoom
	canvasY = imgY * sc.zoom
	return
}

// CanvasToImage converts canvas coordinates to image coordinates.
func (sc *ScreenshotCanvas) CanvasToImage(canvasX, canvasY float64) (imgX, imgY float64) {
	imgX = canvasX / sc.zoom
	imgY = canvasY / sc.zoom
	return
}

// CreateRenderer implements fyne.Widget.
func (sc *ScreenshotCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &screenshotCanvasRenderer{canvas: sc}
}

type screenshotCanvasRenderer struct {
	canvas *ScreenshotCanvas
}

func (r *screenshotCanvasRenderer) Layout(size fyne.Size) {
	if r.canvas.scroll != nil {
		r.canvas.scroll.Resize(size)
	}
}

func (r *screenshotCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *screenshotCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *screenshotCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *screenshotCanvasRenderer) Destroy() {}
