package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func snap(timestep uint64) WorldState {
	return WorldState{Timestep: timestep, Width: 1, Height: 1}
}

func TestSaveAndGoBackwardForward(t *testing.T) {
	h := New()
	h.Save(snap(1), 0.5)
	h.Save(snap(2), 1.0)

	assert.True(t, h.CanGoBackward())
	assert.False(t, h.CanGoForward())

	live := snap(3)
	restored, ok := h.GoBackward(func() WorldState { return live })
	assert.True(t, ok)
	assert.Equal(t, uint64(2), restored.Timestep)
	assert.True(t, h.CanGoForward())

	restored, ok = h.GoBackward(func() WorldState { return live })
	assert.True(t, ok)
	assert.Equal(t, uint64(1), restored.Timestep)
	assert.False(t, h.CanGoBackward())

	restored, ok = h.GoForward()
	assert.True(t, ok)
	assert.Equal(t, uint64(2), restored.Timestep)

	restored, ok = h.GoForward()
	assert.True(t, ok)
	assert.Equal(t, uint64(3), restored.Timestep) // back to live
	assert.False(t, h.CanGoForward())
}

func TestClearResetsEverything(t *testing.T) {
	h := New()
	h.Save(snap(1), 0.5)
	h.GoBackward(func() WorldState { return snap(2) })
	h.Clear()
	assert.False(t, h.CanGoBackward())
	assert.False(t, h.CanGoForward())
	assert.Equal(t, 0, h.Len())
}

func TestShouldSavePolicy(t *testing.T) {
	h := New()
	assert.False(t, h.ShouldSave(0.1))
	assert.True(t, h.ShouldSave(0.5))
	h.Save(snap(1), 1.0)
	assert.False(t, h.ShouldSave(1.2))
	assert.True(t, h.ShouldSave(1.5))

	h.MarkUserInput()
	assert.True(t, h.ShouldSave(1.2))
}

func TestEvictsOldestWhenFull(t *testing.T) {
	h := New()
	for i := 0; i < MaxSize+5; i++ {
		h.Save(snap(uint64(i)), float64(i))
	}
	assert.Equal(t, MaxSize, h.Len())
	assert.Equal(t, uint64(5), h.entries[0].Timestep)
}
