// Package rules implements the pluggable physics trait described in
// spec.md §4.2: two Rules variants (A, B) and three interchangeable
// pressure generators. Rules never holds a reference to the World across
// a suspension point; every method takes the Grid it operates on as an
// argument for the duration of the call, per spec.md §9's design note on
// "unique_ptr + raw pointer" back-references.
package rules

import (
	"github.com/lixenwraith/terrarium/internal/cell"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

// Grid is the read/write surface Rules need from World during a step.
// World implements this; Rules never imports the world package (that
// would cycle back here), keeping the borrow scoped to the call per
// spec.md §9.
type Grid interface {
	Width() int
	Height() int
	InBounds(x, y int) bool
	At(x, y int) *cell.Cell
}

// Axis identifies which component of a transfer or reflection is active.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	// AxisBoth marks a diagonal move: x- and y-axis transfer merged onto
	// the same destination cell, per spec.md §4.5 ("a diagonal is
	// modeled as both x- and y-axis transfers to the same destination").
	AxisBoth
)

// Move is one axis of a proposed transfer, produced by
// CalculateTransferDirection and turned into a queued DirtMove by the
// World's transfer-proposal phase (spec.md §4.5).
type Move struct {
	Axis      Axis
	TargetX   int
	TargetY   int
	ComOffset vec2.Vector2 // full destination COM this axis contributes
}

// PressureSystem selects among the three pressure generators (spec.md
// §4.2.1).
type PressureSystem int

const (
	Original PressureSystem = iota
	TopDown
	IterativeSettling
)

func (p PressureSystem) String() string {
	switch p {
	case TopDown:
		return "top_down"
	case IterativeSettling:
		return "iterative_settling"
	default:
		return "original"
	}
}

// ParsePressureSystem resolves a wire name to a PressureSystem.
func ParsePressureSystem(name string) (PressureSystem, bool) {
	switch name {
	case "original", "":
		return Original, true
	case "top_down":
		return TopDown, true
	case "iterative_settling":
		return IterativeSettling, true
	default:
		return Original, false
	}
}

// PressureGenerator is a pure (Grid, dt) -> cell.Pressure function, one
// member of the closed set selected by PressureSystem. Generators share no
// state between calls (spec.md §9's design note).
type PressureGenerator interface {
	UpdatePressures(g Grid, dt float64, gravity float64)
}

// Variant names the two closed Rules implementations.
type Variant string

const (
	VariantA Variant = "RulesA"
	VariantB Variant = "RulesB"
)

// Rules is the physics capability set a World delegates every step phase
// to. Hot-swapping the active Rules is a pointer assignment on World
// between steps (spec.md §9) — Rules values here hold only their own
// scalar parameters, never a World reference.
type Rules interface {
	Name() string
	Description() string

	Gravity() float64
	SetGravity(float64)
	ElasticityFactor() float64
	SetElasticityFactor(float64)
	PressureScale() float64
	SetPressureScale(float64)
	WaterPressureThreshold() float64
	SetWaterPressureThreshold(float64)

	// ApplyPhysics mutates cell c's V and COM in place. It must not
	// mutate any other cell (spec.md §4.1(c)).
	ApplyPhysics(c *cell.Cell, x, y int, dt float64, g Grid)

	// UpdatePressures clears every cell's pressure and recomputes it via
	// the selected PressureGenerator.
	UpdatePressures(g Grid, dt float64)

	// ApplyPressureForces converts pressure into additive, capped
	// velocity.
	ApplyPressureForces(g Grid, dt float64)

	// ShouldTransfer reports whether c's COM has crossed the dead zone.
	ShouldTransfer(c *cell.Cell) bool

	// CalculateTransferDirection returns the axis moves c's current COM
	// implies, given its position in g. Zero, one, or two moves (a
	// diagonal) may be returned.
	CalculateTransferDirection(c *cell.Cell, x, y int, g Grid) []Move

	// HandleCollision applies an in-place correction when a proposed
	// transfer on the given axis cannot proceed: velocity on that axis is
	// reflected by ElasticityFactor and COM is pinned to the dead-zone
	// edge. outOfBounds distinguishes a grid-edge reflection from a
	// blocked (full or Wall) destination; both use the same correction in
	// this implementation, matching spec.md §4.2.1's handleCollision.
	HandleCollision(c *cell.Cell, axis Axis, outOfBounds bool)

	// CheckExcessiveDeflectionReflection enforces invariant I2 after
	// commit: if |com| on some axis exceeds
	// ReflectionThreshold*ComDeflectionThreshold, invert that velocity
	// component and snap COM back to the dead-zone edge.
	CheckExcessiveDeflectionReflection(c *cell.Cell)
}

// IsWithinBounds is the shared static helper named in spec.md §4.2.
func IsWithinBounds(x, y int, g Grid) bool {
	return g.InBounds(x, y)
}
