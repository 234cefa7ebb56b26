// Package cell defines the grid's leaf datum and its invariants.
package cell

import (
	"sort"

	"github.com/lixenwraith/terrarium/internal/material"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

// Physics constants shared by every Rules implementation and the transfer
// engine. Values and names follow spec.md §3.
const (
	// MinDirtThreshold is the fill fraction below which a cell is
	// considered empty.
	MinDirtThreshold = 0.01

	// ComCellWidth is the scale between cell geometry and the COM's
	// normalized frame: the cell's interior spans [-1,1] and COM motion of
	// one full ComCellWidth (2.0) crosses the whole cell.
	ComCellWidth = 2.0

	// ComDeflectionThreshold is the dead-zone boundary beyond which COM
	// motion triggers a transfer.
	ComDeflectionThreshold = 1.0

	// ReflectionThreshold bounds |com| after the transfer phase per
	// invariant I2: |com| <= ReflectionThreshold*ComDeflectionThreshold.
	ReflectionThreshold = 1.2

	// OverfillEpsilon is the tolerance invariant I3 allows above 1.0.
	OverfillEpsilon = 1e-6

	// NearFullThreshold is the occupancy above which a destination cell is
	// treated as full for transfer/collision purposes (spec.md §4.1(f)).
	NearFullThreshold = 0.95

	// TransferFactor scales how much of a deflected cell's mass moves per
	// step before fragmentation is applied (spec.md §4.5).
	TransferFactor = 0.5
)

// Pressure is the structured per-cell pressure quantity Rules write and the
// transfer engine's applyPressureForces phase consumes.
type Pressure struct {
	Hydrostatic float64
	Dynamic     float64
	Gradient    vec2.Vector2
	Total       float64
}

// Clear resets all pressure fields to zero.
func (p *Pressure) Clear() { *p = Pressure{} }

// Magnitude returns |Gradient|, the quantity applyPressureForces thresholds
// and converts into additive velocity.
func (p *Pressure) Magnitude() float64 { return p.Gradient.Magnitude() }

// Cell is the unit of the grid: composition, center of mass, velocity,
// pressure, and render bookkeeping.
type Cell struct {
	// Composition maps material -> fill fraction in [0,1]; the sum is
	// interpreted as PercentFull.
	Composition map[material.Type]float64

	// COM is the center of mass in [-1,1]^2, cell-local frame.
	COM vec2.Vector2

	// V is velocity in cells-per-second.
	V vec2.Vector2

	// Pressure is written by Rules and consumed by the transfer engine.
	Pressure Pressure

	// Dirty marks the cell changed since the last render sync. The core
	// treats this as write-through: it sets the flag on mutation but never
	// reads it for physics decisions.
	Dirty bool

	// RenderBuffer is an opaque, renderer-only payload. The core never
	// interprets its contents; it exists so a renderer can cache
	// per-cell draw state without a second parallel grid.
	RenderBuffer []byte
}

// New returns an empty (air) cell.
func New() Cell {
	return Cell{Composition: make(map[material.Type]float64, 1)}
}

// NewWall returns a full, immovable Wall cell.
func NewWall() Cell {
	c := New()
	c.Composition[material.Wall] = 1.0
	return c
}

// PercentFull returns the cell's aggregate fill in [0,1] (modulo transient
// overfill bounded by OverfillEpsilon).
func (c *Cell) PercentFull() float64 {
	var sum float64
	for _, f := range c.Composition {
		sum += f
	}
	return sum
}

// IsEmpty reports whether the cell's fill is below MinDirtThreshold.
func (c *Cell) IsEmpty() bool {
	return c.PercentFull() < MinDirtThreshold
}

// Fraction returns the fill fraction of a single material (0 if absent).
func (c *Cell) Fraction(t material.Type) float64 {
	return c.Composition[t]
}

// IsWall reports whether the cell is (at least predominantly) a Wall cell.
// Wall cells are never partial in practice but this treats any Wall
// presence as authoritative, matching invariant I4.
func (c *Cell) IsWall() bool {
	return c.Composition[material.Wall] > 0
}

// EffectiveDensity returns the fill-weighted mean density of the cell's
// composition, or zero when empty.
func (c *Cell) EffectiveDensity() float64 {
	full := c.PercentFull()
	if full < MinDirtThreshold {
		return 0
	}
	var weighted float64
	for t, f := range c.Composition {
		weighted += f * t.Density()
	}
	return weighted / full
}

// PrimaryMaterial returns the material holding the largest fraction of the
// cell's fill, and that fraction, for sparse single-material wire encoding
// (state_get, cell_get). Ties resolve to the lower material ordinal so
// encoding is deterministic. Empty cells return (Air, 0).
func (c *Cell) PrimaryMaterial() (material.Type, float64) {
	if len(c.Composition) == 0 {
		return material.Air, 0
	}
	types := make([]material.Type, 0, len(c.Composition))
	for t := range c.Composition {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	best := types[0]
	bestFrac := c.Composition[best]
	for _, t := range types[1:] {
		if f := c.Composition[t]; f > bestFrac {
			best, bestFrac = t, f
		}
	}
	return best, bestFrac
}

// SetSingle replaces the cell's entire composition with a single material
// at the given fill fraction, per cell_set's "replaces, does not merge"
// contract.
func (c *Cell) SetSingle(t material.Type, fill float64) {
	c.Composition = map[material.Type]float64{t: fill}
	c.Dirty = true
}

// Zero clears composition, COM, velocity and pressure, returning the cell
// to its freshly-constructed state. Used when residual mass falls below
// MinDirtThreshold and is folded into removedMass.
func (c *Cell) Zero() {
	c.Composition = make(map[material.Type]float64, 1)
	c.COM = vec2.Zero
	c.V = vec2.Zero
	c.Pressure.Clear()
	c.Dirty = true
}

// NormalizedDeflection returns COM scaled by 1/ComDeflectionThreshold and
// clamped to [-1,1]^2, the COM-deflection term all three pressure
// generators read.
func (c *Cell) NormalizedDeflection() vec2.Vector2 {
	return c.COM.Div(ComDeflectionThreshold).Clamp(-1, 1)
}

// AddMass accumulates src's composition into c, scaled by fraction, and
// folds v in as a mass-weighted mean per spec.md §4.5's commit rule.
func (c *Cell) AddMass(src *Cell, fraction float64) {
	if fraction <= 0 {
		return
	}
	destMassBefore := c.PercentFull()
	moved := make(map[material.Type]float64, len(src.Composition))
	var movedTotal float64
	for t, f := range src.Composition {
		m := f * fraction
		moved[t] = m
		movedTotal += m
	}
	if c.Composition == nil {
		c.Composition = make(map[material.Type]float64, len(moved))
	}
	for t, m := range moved {
		c.Composition[t] += m
	}

	total := destMassBefore + movedTotal
	if total > 0 {
		c.V = c.V.Scale(destMassBefore).Add(src.V.Scale(movedTotal)).Div(total)
	}
	c.Dirty = true
}

// RemoveFraction proportionally decrements every material in the cell's
// composition by fraction (e.g. fraction=0.3 removes 30% of each material's
// fill), and scales COM and velocity down to match the residual mass
// distribution they describe.
func (c *Cell) RemoveFraction(fraction float64) {
	if fraction <= 0 {
		return
	}
	if fraction > 1 {
		fraction = 1
	}
	remain := 1 - fraction
	for t := range c.Composition {
		c.Composition[t] *= remain
	}
	c.COM = c.COM.Scale(remain)
	c.V = c.V.Scale(remain)
	c.Dirty = true
}

// Clone returns a deep copy, used by history snapshots so a later mutation
// of the live cell cannot alias a saved WorldState.
func (c *Cell) Clone() Cell {
	comp := make(map[material.Type]float64, len(c.Composition))
	for t, f := range c.Composition {
		comp[t] = f
	}
	var rb []byte
	if c.RenderBuffer != nil {
		rb = make([]byte, len(c.RenderBuffer))
		copy(rb, c.RenderBuffer)
	}
	return Cell{
		Composition:  comp,
		COM:          c.COM,
		V:            c.V,
		Pressure:     c.Pressure,
		Dirty:        c.Dirty,
		RenderBuffer: rb,
	}
}

// ClampCOMToDeadZone applies the component-wise clamp to
// +/-ComDeflectionThreshold shared by all Rules implementations.
func ClampCOMToDeadZone(com vec2.Vector2) vec2.Vector2 {
	return com.Clamp(-ComDeflectionThreshold, ComDeflectionThreshold)
}

// CalculateNaturalCOM returns the COM a cell would have if its mass moved
// into a neighbor at offset (dx,dy), expressed in the destination's local
// frame: moving by one full cell shifts the COM back by ComCellWidth on
// the axis of motion.
func CalculateNaturalCOM(sourceCOM vec2.Vector2, dx, dy int) vec2.Vector2 {
	x, y := sourceCOM.X(), sourceCOM.Y()
	switch {
	case dx > 0:
		x -= ComCellWidth
	case dx < 0:
		x += ComCellWidth
	}
	switch {
	case dy > 0:
		y -= ComCellWidth
	case dy < 0:
		y += ComCellWidth
	}
	return vec2.New(x, y)
}
