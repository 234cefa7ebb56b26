// Package vec2 provides the 2-D double-precision vector used throughout
// the simulator: cell velocities, centers of mass, and pressure gradients.
package vec2

import "github.com/go-gl/mathgl/mgl64"

// Vector2 is a unit-agnostic 2-D vector backed by mathgl's double-precision
// Vec2. Most arithmetic delegates straight to mgl64; the zero-safe Normalize
// and component-wise Clamp below are specific to this domain.
type Vector2 struct {
	v mgl64.Vec2
}

// New builds a Vector2 from components.
func New(x, y float64) Vector2 {
	return Vector2{v: mgl64.Vec2{x, y}}
}

// Zero is the additive identity.
var Zero = Vector2{}

// X returns the x component.
func (a Vector2) X() float64 { return a.v[0] }

// Y returns the y component.
func (a Vector2) Y() float64 { return a.v[1] }

// Add returns a+b.
func (a Vector2) Add(b Vector2) Vector2 { return Vector2{v: a.v.Add(b.v)} }

// Sub returns a-b.
func (a Vector2) Sub(b Vector2) Vector2 { return Vector2{v: a.v.Sub(b.v)} }

// Scale returns a*s.
func (a Vector2) Scale(s float64) Vector2 { return Vector2{v: a.v.Mul(s)} }

// Div returns a/s. Division by zero returns Zero rather than Inf/NaN.
func (a Vector2) Div(s float64) Vector2 {
	if s == 0 {
		return Zero
	}
	return Vector2{v: a.v.Mul(1 / s)}
}

// Dot returns the dot product a·b.
func (a Vector2) Dot(b Vector2) float64 { return a.v.Dot(b.v) }

// Magnitude returns the Euclidean length of a.
func (a Vector2) Magnitude() float64 { return a.v.Len() }

// Normalize returns a unit vector in the direction of a, or Zero when a is
// the zero vector (mgl64.Vec2.Normalize() would otherwise divide by zero).
func (a Vector2) Normalize() Vector2 {
	m := a.Magnitude()
	if m == 0 {
		return Zero
	}
	return a.Scale(1 / m)
}

// Clamp restricts each component of a to [min, max] independently.
func (a Vector2) Clamp(min, max float64) Vector2 {
	return New(clampF(a.X(), min, max), clampF(a.Y(), min, max))
}

// ClampMagnitude scales a down so its magnitude does not exceed max; a is
// returned unchanged when already within bounds.
func (a Vector2) ClampMagnitude(max float64) Vector2 {
	m := a.Magnitude()
	if m <= max || m == 0 {
		return a
	}
	return a.Scale(max / m)
}

func clampF(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
