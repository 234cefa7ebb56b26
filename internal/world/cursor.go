package world

import "github.com/lixenwraith/terrarium/internal/vec2"

// cursorForceState is the transient radial attractor/repulsor described
// in spec.md §4.1: every cell within CursorForceRadius of the cursor
// receives an additive velocity impulse falling off linearly with
// distance.
type cursorForceState struct {
	enabled  bool
	active   bool
	x, y     float64
	repulsor bool
}

// SetCursorForceEnabled toggles whether cursor force is applied at all.
func (w *World) SetCursorForceEnabled(v bool) { w.cursor.enabled = v }
func (w *World) CursorForceEnabled() bool     { return w.cursor.enabled }

// SetCursorPosition updates the cursor's live cell-space position and
// marks the force active; a disabled cursor force is a no-op until
// re-enabled.
func (w *World) SetCursorPosition(x, y float64, repulsor bool) {
	w.cursor.x, w.cursor.y = x, y
	w.cursor.repulsor = repulsor
	w.cursor.active = true
}

// ClearCursorForce deactivates the cursor force (e.g. pointer released).
func (w *World) ClearCursorForce() { w.cursor.active = false }

// applyCursorForce is run once per step, after pressure forces and
// before transfer proposal, so the impulse is visible to the same
// step's transfer decision.
func (w *World) applyCursorForce(dt float64) {
	if !w.cursor.enabled || !w.cursor.active {
		return
	}
	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			c := w.At(x, y)
			if c.IsWall() || c.IsEmpty() {
				continue
			}
			dx := float64(x) - w.cursor.x
			dy := float64(y) - w.cursor.y
			dist := vec2.New(dx, dy).Magnitude()
			if dist > CursorForceRadius {
				continue
			}
			falloff := 1.0
			if CursorForceRadius > 0 {
				falloff = 1.0 - dist/CursorForceRadius
			}
			// dir points from cursor to cell; an attractor pulls the cell
			// the opposite way, a repulsor pushes it along dir.
			dir := vec2.New(dx, dy).Normalize()
			if !w.cursor.repulsor {
				dir = dir.Scale(-1)
			}
			impulse := dir.Scale(CursorForceStrength * falloff * dt)
			c.V = c.V.Add(impulse)
		}
	}
}
