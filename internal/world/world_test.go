package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lixenwraith/terrarium/internal/material"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

func (w *World) totalMassPublic() float64 { return w.totalMass() }

// TestS1SingleFallingGrain mirrors spec.md §8 scenario S1: a 1x2 world
// with a single full dirt cell at the top should conserve mass and
// never overfill across 400 steps of gravity-only settling.
func TestS1SingleFallingGrain(t *testing.T) {
	w := New(1, 2)
	w.SetGravity(9.81)
	w.At(0, 0).SetSingle(material.Dirt, 1.0)

	for i := 0; i < 400; i++ {
		assert.NoError(t, w.AdvanceTime(0.016))
		total := w.totalMassPublic() + w.RemovedMass()
		assert.InDelta(t, 1.0, total, 1e-2)
		for y := 0; y < 2; y++ {
			assert.LessOrEqual(t, w.At(0, y).PercentFull(), 1.0+1e-6)
		}
	}

	// Mass ends substantially (not necessarily entirely) in cell (0,1).
	assert.Greater(t, w.At(0, 1).PercentFull(), 0.5)
}

// TestS2HorizontalConservation mirrors spec.md §8 scenario S2: a 2x1
// world with no gravity and an initial rightward velocity should
// conserve mass and keep COM.y near zero throughout.
func TestS2HorizontalConservation(t *testing.T) {
	w := New(2, 1)
	w.SetGravity(0)
	c := w.At(0, 0)
	c.SetSingle(material.Dirt, 1.0)
	c.V = vec2.New(1, 0)

	for i := 0; i < 100; i++ {
		assert.NoError(t, w.AdvanceTime(0.016))
		total := w.totalMassPublic() + w.RemovedMass()
		assert.InDelta(t, 1.0, total, 1e-2)
		for x := 0; x < 2; x++ {
			assert.Less(t, absf(w.At(x, 0).COM.Y()), 0.1)
		}
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestResetClearsGridButKeepsHistory(t *testing.T) {
	w := New(3, 3)
	w.At(1, 1).SetSingle(material.Dirt, 1.0)
	assert.NoError(t, w.AdvanceTime(0.016))
	histLenBefore := w.History().Len()

	w.Reset()
	assert.True(t, w.At(1, 1).IsEmpty())
	assert.Equal(t, histLenBefore, w.History().Len())
}

func TestResizeGridPreservesOverlapAndDiscardsRest(t *testing.T) {
	w := New(3, 3)
	w.At(0, 0).SetSingle(material.Dirt, 0.5)
	w.At(2, 2).SetSingle(material.Dirt, 1.0)
	w.ResizeGrid(2, 2, true)

	assert.Equal(t, 2, w.Width())
	assert.Equal(t, 2, w.Height())
	assert.InDelta(t, 0.5, w.At(0, 0).Fraction(material.Dirt), 1e-9)
	assert.InDelta(t, 1.0, w.RemovedMass(), 1e-9)
}

func TestResizeGridClearsHistoryByDefault(t *testing.T) {
	w := New(2, 2)
	assert.NoError(t, w.AdvanceTime(0.016))
	w.hist.MarkUserInput()
	w.hist.Save(w.snapshot(), w.simulationTime)
	assert.True(t, w.History().CanGoBackward())

	w.ResizeGrid(4, 4, false)
	assert.False(t, w.History().CanGoBackward())
}

func TestSetCellRejectsOutOfRange(t *testing.T) {
	w := New(2, 2)
	err := w.SetCell(5, 5, "dirt", 1.0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid coordinates")
}

func TestSetCellRejectsUnknownMaterial(t *testing.T) {
	w := New(2, 2)
	err := w.SetCell(0, 0, "lava", 1.0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid material")
}

func TestSetCellReplacesNotMerges(t *testing.T) {
	w := New(1, 1)
	assert.NoError(t, w.SetCell(0, 0, "dirt", 0.5))
	assert.NoError(t, w.SetCell(0, 0, "water", 0.3))
	assert.Equal(t, 0.0, w.At(0, 0).Fraction(material.Dirt))
	assert.Equal(t, 0.3, w.At(0, 0).Fraction(material.Water))
}

func TestWallCellNeverMutatedByStep(t *testing.T) {
	w := New(2, 2)
	w.At(0, 0).SetSingle(material.Wall, 1.0)
	before := w.At(0, 0).Clone()

	for i := 0; i < 10; i++ {
		assert.NoError(t, w.AdvanceTime(0.016))
	}

	after := w.At(0, 0)
	assert.Equal(t, before.Composition, after.Composition)
	assert.Equal(t, before.COM, after.COM)
	assert.Equal(t, before.V, after.V)
}

func TestSetRulesHotSwap(t *testing.T) {
	w := New(2, 2)
	assert.Equal(t, "RulesA", w.RulesName())
	assert.NoError(t, w.SetRules("RulesB"))
	assert.Equal(t, "RulesB", w.RulesName())
}

func TestHistoryRoundTrip(t *testing.T) {
	w := New(2, 2)
	w.At(0, 0).SetSingle(material.Dirt, 1.0)
	w.SetTimeReversalEnabled(true)

	assert.NoError(t, w.AdvanceTime(0.016))
	w.hist.MarkUserInput()
	w.hist.Save(w.snapshot(), w.simulationTime)
	w1 := w.At(0, 0).Clone()

	assert.NoError(t, w.AdvanceTime(0.016))

	assert.True(t, w.GoBackward())
	assert.Equal(t, w1.COM, w.At(0, 0).COM)
	assert.Equal(t, w1.V, w.At(0, 0).V)

	assert.True(t, w.GoForward())
}
