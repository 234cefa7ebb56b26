package rules

import (
	"github.com/lixenwraith/terrarium/internal/cell"
	"github.com/lixenwraith/terrarium/internal/material"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

// waterCohesionCoefficient and viscosityDamping tune the water-specific
// forces RulesA applies in its 8-neighbor pass. spec.md §4.2.1 names
// "waterCohesion", "viscosity" and "buoyancy" but leaves their exact
// formulas as an implementation detail (the original source declares
// Cell::calculateWaterCohesion/applyViscosity/calculateBuoyancy but their
// bodies were not part of the retrieved source). The formulas below are a
// deliberate, physically-motivated choice, recorded in DESIGN.md.
const (
	waterCohesionCoefficient = 0.4
	viscosityDamping         = 0.02
	buoyancyCoefficient      = 2.0
)

// waterCohesion pulls a water cell toward a neighboring water cell,
// proportional to how much water the neighbor holds, so isolated water
// droplets tend to merge rather than evaporate into a thin film. The pull
// has the same magnitude for orthogonal and diagonal neighbors; it does
// not fall off with distance.
func waterCohesion(c, neighbor *cell.Cell, dx, dy int) vec2.Vector2 {
	neighborWater := neighbor.Fraction(material.Water)
	if neighborWater < cell.MinDirtThreshold {
		return vec2.Zero
	}
	dir := vec2.New(float64(dx), float64(dy)).Normalize()
	return dir.Scale(waterCohesionCoefficient * neighborWater)
}

// applyViscosity damps the cell's velocity toward a neighboring water
// cell's velocity, proportional to how much water is present in both.
func applyViscosity(c, neighbor *cell.Cell) vec2.Vector2 {
	w := c.Fraction(material.Water)
	nw := neighbor.Fraction(material.Water)
	if w < cell.MinDirtThreshold || nw < cell.MinDirtThreshold {
		return vec2.Zero
	}
	delta := neighbor.V.Sub(c.V)
	return delta.Scale(viscosityDamping * nw)
}

// buoyancy pushes a lower-density cell up relative to a denser neighbor it
// is displacing, and the reverse for a denser cell sinking past a lighter
// one. The (dx,dy) offset of the neighbor determines which axis the force
// acts on; only the vertical offset contributes, matching the physical
// intuition that buoyancy is a gravity-aligned effect.
func buoyancy(c, neighbor *cell.Cell, dx, dy int) vec2.Vector2 {
	if dy == 0 {
		return vec2.Zero
	}
	cDensity := c.EffectiveDensity()
	nDensity := neighbor.EffectiveDensity()
	if cDensity <= 0 || nDensity <= 0 {
		return vec2.Zero
	}
	// Positive when c is lighter than neighbor: force acts opposite the
	// neighbor offset (push away from the denser side), i.e. upward when
	// the denser neighbor is below (dy>0).
	diff := (nDensity - cDensity) / nDensity
	return vec2.New(0, -float64(dy)*diff*buoyancyCoefficient)
}
