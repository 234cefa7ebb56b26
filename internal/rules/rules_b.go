package rules

import (
	"github.com/lixenwraith/terrarium/internal/cell"
	"github.com/lixenwraith/terrarium/internal/material"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

// RulesB is the "clamped-velocity" variant: density-weighted gravity only,
// a tight velocity cap, and no pressure or transfer machinery. Used for
// parameter studies and as a cheap baseline (spec.md §4.2.2).
type RulesB struct {
	baseParams
}

func NewRulesB() *RulesB {
	return &RulesB{baseParams: newBaseParams()}
}

func (r *RulesB) Name() string        { return string(VariantB) }
func (r *RulesB) Description() string { return "clamped-velocity baseline: no pressure, no transfer" }

func (r *RulesB) ApplyPhysics(c *cell.Cell, x, y int, dt float64, g Grid) {
	if c.PercentFull() < cell.MinDirtThreshold {
		return
	}
	density := c.Fraction(material.Dirt) + c.Fraction(material.Water)
	c.V = vec2.New(c.V.X(), c.V.Y()+r.Gravity()*density*dt)

	c.V = c.V.ClampMagnitude(0.9)
	if c.V.Magnitude() > 0.5 {
		c.V = c.V.Scale(0.9)
	}

	c.COM = c.COM.Add(c.V.Scale(dt)).Clamp(-1, 1)
}

func (r *RulesB) UpdatePressures(g Grid, dt float64)     {}
func (r *RulesB) ApplyPressureForces(g Grid, dt float64) {}
func (r *RulesB) ShouldTransfer(c *cell.Cell) bool       { return false }

func (r *RulesB) CalculateTransferDirection(c *cell.Cell, x, y int, g Grid) []Move {
	return nil
}

func (r *RulesB) HandleCollision(c *cell.Cell, axis Axis, outOfBounds bool) {}

func (r *RulesB) CheckExcessiveDeflectionReflection(c *cell.Cell) {}
