// Package canvas provides overlay types for the screenshot canvas.
package canvas

import (
	"image/color"

	"hmi-config/pkg/geometry"
)

// Overlay represents a drawable set of annotation rectangles on the canvas.
type Overlay struct {
	Rectangles []OverlayRect
	Color      color.RGBA
}

// OverlayRect represents a rectangle to draw on the overlay.
type OverlayRect struct {
	X, Y, Width, Height int
	Label               string // Optional label drawn above the rectangle
	Selected            bool   // Selected rectangles get a solid thicker outline
}

// RectFromBox converts an image-space box to an overlay rectangle.
func RectFromBox(box geometry.Box, label string) OverlayRect {
	r := box.Rect()
	return OverlayRect{
		X:      r.Min.X,
		Y:      r.Min.Y,
		Width:  r.Dx(),
		Height: r.Dy(),
		Label:  label,
	}
}
