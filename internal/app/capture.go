package app

import (
	"context"
	"errors"
	"sync"

	"hmi-config/pkg/geometry"
)

// ErrCaptureCanceled is returned when a draw-and-name session is abandoned
// before both the rectangle and the name were provided.
var ErrCaptureCanceled = errors.New("app: capture canceled")

// Capture is the result of a completed draw-and-name session.
type Capture struct {
	Name string
	Box  geometry.Box
}

// CaptureSession coordinates one "draw a rectangle, then name it" flow
// between the canvas and the dialogs. The canvas delivers the rectangle,
// a dialog delivers the name, and whoever started the session waits on
// Result. Either side may cancel.
type CaptureSession struct {
	mu     sync.Mutex
	box    *geometry.Box
	done   chan Capture
	cancel chan struct{}
	closed bool
}

// NewCaptureSession starts a fresh session.
func NewCaptureSession() *CaptureSession {
	return &CaptureSession{
		done:   make(chan Capture, 1),
		cancel: make(chan struct{}),
	}
}

// SetBox records the drawn rectangle. The session stays open until the name
// arrives.
func (c *CaptureSession) SetBox(box geometry.Box) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.box = &box
}

// HasBox reports whether a rectangle has been drawn yet.
func (c *CaptureSession) HasBox() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.box != nil
}

// SetName completes the session. Calling it before a rectangle was drawn, or
// after the session ended, is ignored.
func (c *CaptureSession) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.box == nil || name == "" {
		return
	}
	c.closed = true
	c.done <- Capture{Name: name, Box: *c.box}
}

// Cancel abandons the session. Safe to call more than once.
func (c *CaptureSession) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.cancel)
}

// Result blocks until the session completes, is canceled, or the context
// expires. A canceled session returns ErrCaptureCanceled, which is an
// outcome distinct from any capture failure.
func (c *CaptureSession) Result(ctx context.Context) (Capture, error) {
	select {
	case cap := <-c.done:
		return cap, nil
	case <-c.cancel:
		return Capture{}, ErrCaptureCanceled
	case <-ctx.Done():
		c.Cancel()
		return Capture{}, ctx.Err()
	}
}
