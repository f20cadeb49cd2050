// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"image"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToFloat converts to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// Box represents an axis-aligned rectangle by its two corners, matching the
// {x1,y1,x2,y2} shape annotation rectangles are stored in.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// NewBox returns a Box with its corners normalized so that (X1,Y1) is the
// top-left and (X2,Y2) the bottom-right corner.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.X2 - b.X1 }

// Height returns the box height.
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Center returns the center point of the box.
func (b Box) Center() Point2D {
	return Point2D{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// Empty reports whether the box has zero (or negative) area.
func (b Box) Empty() bool {
	return b.X2 <= b.X1 || b.Y2 <= b.Y1
}

// Rect converts the box to an image.Rectangle, truncating coordinates to
// integers the way the persisted positions are interpreted during cropping.
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
}

// Clamp limits the box to the area of an image with the given width and height.
func (b Box) Clamp(width, height int) Box {
	c := b
	c.X1 = math.Max(0, math.Min(c.X1, float64(width)))
	c.Y1 = math.Max(0, math.Min(c.Y1, float64(height)))
	c.X2 = math.Max(c.X1, math.Min(c.X2, float64(width)))
	c.Y2 = math.Max(c.Y1, math.Min(c.Y2, float64(height)))
	return c
}

// Contains returns true if the point is inside the box.
func (b Box) Contains(p Point2D) bool {
	return p.X >= b.X1 && p.X <= b.X2 && p.Y >= b.Y1 && p.Y <= b.Y2
}

// RectInt represents a rectangle with integer origin and dimensions, used by
// the canvas overlay code.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromBox converts a Box to a RectInt, truncating coordinates.
func FromBox(b Box) RectInt {
	return RectInt{
		X:      int(b.X1),
		Y:      int(b.Y1),
		Width:  int(b.X2 - b.X1),
		Height: int(b.Y2 - b.Y1),
	}
}

// Size represents integer image dimensions.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Equals reports whether two sizes match.
func (s Size) Equals(other Size) bool {
	return s.Width == other.Width && s.Height == other.Height
}
