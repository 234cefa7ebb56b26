package vec2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeZeroSafe(t *testing.T) {
	assert.Equal(t, Zero, Zero.Normalize())
}

func TestNormalizeUnit(t *testing.T) {
	n := New(3, 4).Normalize()
	assert.InDelta(t, 1.0, n.Magnitude(), 1e-9)
	assert.InDelta(t, 0.6, n.X(), 1e-9)
	assert.InDelta(t, 0.8, n.Y(), 1e-9)
}

func TestClamp(t *testing.T) {
	c := New(5, -5).Clamp(-1, 1)
	assert.Equal(t, New(1, -1), c)
}

func TestClampMagnitude(t *testing.T) {
	c := New(3, 4).ClampMagnitude(2)
	assert.InDelta(t, 2.0, c.Magnitude(), 1e-9)

	unchanged := New(1, 0).ClampMagnitude(2)
	assert.Equal(t, New(1, 0), unchanged)
}

func TestDotAndDiv(t *testing.T) {
	assert.Equal(t, 11.0, New(1, 2).Dot(New(3, 4)))
	assert.Equal(t, Zero, New(1, 2).Div(0))
	assert.Equal(t, New(0.5, 1), New(1, 2).Div(2))
}
