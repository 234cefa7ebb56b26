package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lixenwraith/terrarium/internal/material"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

func TestEmptyCell(t *testing.T) {
	c := New()
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.PercentFull())
	assert.Zero(t, c.EffectiveDensity())
}

func TestSetSingleReplacesNotMerges(t *testing.T) {
	c := New()
	c.SetSingle(material.Dirt, 0.5)
	c.SetSingle(material.Water, 0.3)

	assert.Equal(t, 0.3, c.PercentFull())
	assert.Equal(t, 0.0, c.Fraction(material.Dirt))
	assert.Equal(t, 0.3, c.Fraction(material.Water))
}

func TestWallIsImmovableMaterial(t *testing.T) {
	w := NewWall()
	assert.True(t, w.IsWall())
	assert.Equal(t, 1.0, w.PercentFull())
}

func TestPrimaryMaterialPicksLargestFraction(t *testing.T) {
	c := New()
	c.Composition[material.Dirt] = 0.2
	c.Composition[material.Water] = 0.6
	m, f := c.PrimaryMaterial()
	assert.Equal(t, material.Water, m)
	assert.Equal(t, 0.6, f)
}

func TestAddMassWeightsVelocityByMass(t *testing.T) {
	dest := New()
	dest.SetSingle(material.Dirt, 0.5)
	dest.V = vec2.New(2, 0)

	src := New()
	src.SetSingle(material.Dirt, 1.0)
	src.V = vec2.New(0, 4)

	dest.AddMass(&src, 0.5) // moves 0.5 mass of dirt

	assert.InDelta(t, 1.0, dest.PercentFull(), 1e-9)
	// mass-weighted mean: (0.5*{2,0} + 0.5*{0,4}) / 1.0 = {1,2}
	assert.InDelta(t, 1.0, dest.V.X(), 1e-9)
	assert.InDelta(t, 2.0, dest.V.Y(), 1e-9)
}

func TestRemoveFractionScalesComposition(t *testing.T) {
	c := New()
	c.SetSingle(material.Dirt, 1.0)
	c.RemoveFraction(0.25)
	assert.InDelta(t, 0.75, c.PercentFull(), 1e-9)
}

func TestRemoveFractionScalesComAndVelocity(t *testing.T) {
	c := New()
	c.SetSingle(material.Dirt, 1.0)
	c.COM = vec2.New(0.8, -0.4)
	c.V = vec2.New(2.0, -1.0)

	c.RemoveFraction(0.25)

	assert.InDelta(t, 0.6, c.COM.X(), 1e-9)
	assert.InDelta(t, -0.3, c.COM.Y(), 1e-9)
	assert.InDelta(t, 1.5, c.V.X(), 1e-9)
	assert.InDelta(t, -0.75, c.V.Y(), 1e-9)
}

func TestNormalizedDeflectionClamped(t *testing.T) {
	c := New()
	c.COM = vec2.New(3, -3)
	d := c.NormalizedDeflection()
	assert.Equal(t, vec2.New(1, -1), d)
}

func TestCalculateNaturalCOM(t *testing.T) {
	got := CalculateNaturalCOM(vec2.New(0.9, 0), 1, 0)
	assert.InDelta(t, 0.9-ComCellWidth, got.X(), 1e-9)
	assert.InDelta(t, 0, got.Y(), 1e-9)
}

func TestClampCOMToDeadZone(t *testing.T) {
	got := ClampCOMToDeadZone(vec2.New(5, -5))
	assert.Equal(t, vec2.New(ComDeflectionThreshold, -ComDeflectionThreshold), got)
}
