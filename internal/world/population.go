package world

import (
	"github.com/lixenwraith/terrarium/internal/apierror"
	"github.com/lixenwraith/terrarium/internal/cell"
	"github.com/lixenwraith/terrarium/internal/material"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

// AddMaterial deposits amount (in [0,1]) of t into the cell at (x,y),
// additively rather than replacing the existing composition, the
// contract behind the supplemented seed_add command (SPEC_FULL.md §5).
func (w *World) AddMaterial(x, y int, t material.Type, amount float64) error {
	if !w.InBounds(x, y) {
		return apierror.InvalidCoordinates(x, y)
	}
	if amount < 0 || amount > 1 {
		return apierror.FieldConstraint("amount", "in [0,1]")
	}
	c := w.At(x, y)
	if c.IsWall() {
		return apierror.New("cannot add material to a wall cell")
	}
	src := cell.Cell{Composition: map[material.Type]float64{t: 1}, V: vec2.Zero}
	c.AddMass(&src, amount)
	if c.PercentFull() > 1 {
		c.RemoveFraction(1 - 1/c.PercentFull())
	}
	w.hist.MarkUserInput()
	return nil
}

// SpawnBlob deposits fill of t into every cell within radius (inclusive,
// Euclidean) of (cx,cy) that is in bounds and not a wall, the contract
// behind the supplemented spawn_dirt_ball command (SPEC_FULL.md §5).
func (w *World) SpawnBlob(cx, cy, radius int, t material.Type, fill float64) error {
	if radius < 0 {
		return apierror.FieldConstraint("radius", ">= 0")
	}
	if fill < 0 || fill > 1 {
		return apierror.FieldConstraint("fill", "in [0,1]")
	}
	r2 := float64(radius * radius)
	touched := 0
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			if !w.InBounds(x, y) {
				continue
			}
			dx, dy := float64(x-cx), float64(y-cy)
			if dx*dx+dy*dy > r2 {
				continue
			}
			c := w.At(x, y)
			if c.IsWall() {
				continue
			}
			c.SetSingle(t, fill)
			touched++
		}
	}
	if touched == 0 {
		return apierror.New("spawn_dirt_ball touched no cells")
	}
	w.hist.MarkUserInput()
	return nil
}

// CellSnapshot is one non-empty cell's wire representation for state_get's
// sparse encoding (spec.md §6).
type CellSnapshot struct {
	X, Y     int
	Material material.Type
	Fill     float64
	COM      vec2.Vector2
	V        vec2.Vector2
}

// StateSnapshot returns every non-empty cell's sparse representation, the
// payload behind state_get. Each cell reports its primary material, not
// its full composition: spec.md §6 treats state_get as a render/debug
// feed, not a full-fidelity dump (cell_get is exact).
func (w *World) StateSnapshot() []CellSnapshot {
	out := make([]CellSnapshot, 0)
	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			c := w.At(x, y)
			if c.IsEmpty() {
				continue
			}
			t, frac := c.PrimaryMaterial()
			out = append(out, CellSnapshot{
				X: x, Y: y,
				Material: t,
				Fill:     frac,
				COM:      c.COM,
				V:        c.V,
			})
		}
	}
	return out
}
