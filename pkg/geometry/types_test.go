package geometry

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoxNormalizesCorners(t *testing.T) {
	b := NewBox(50, 40, 10, 20)
	assert.Equal(t, Box{X1: 10, Y1: 20, X2: 50, Y2: 40}, b)
	assert.Equal(t, 40.0, b.Width())
	assert.Equal(t, 20.0, b.Height())
}

func TestBoxRectTruncates(t *testing.T) {
	b := NewBox(10.9, 20.7, 30.2, 40.8)
	assert.Equal(t, image.Rect(10, 20, 30, 40), b.Rect())
}

func TestBoxClamp(t *testing.T) {
	b := NewBox(-5, -5, 120, 90).Clamp(100, 80)
	assert.Equal(t, Box{X1: 0, Y1: 0, X2: 100, Y2: 80}, b)
}

func TestBoxJSONShape(t *testing.T) {
	data, err := json.Marshal(NewBox(1, 2, 3, 4))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x1":1,"y1":2,"x2":3,"y2":4}`, string(data))
}

func TestBoxContains(t *testing.T) {
	b := NewBox(10, 10, 20, 20)
	assert.True(t, b.Contains(Point2D{X: 15, Y: 15}))
	assert.True(t, b.Contains(Point2D{X: 10, Y: 20}))
	assert.False(t, b.Contains(Point2D{X: 25, Y: 15}))
}
