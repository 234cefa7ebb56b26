package world

import (
	"testing"

	"github.com/lixenwraith/terrarium/internal/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMaterialIsAdditive(t *testing.T) {
	w := New(3, 3)
	require.NoError(t, w.SetCell(1, 1, "dirt", 0.2))
	require.NoError(t, w.AddMaterial(1, 1, material.Dirt, 0.3))

	c, err := w.GetCell(1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, c.Fraction(material.Dirt), 1e-9)
}

func TestAddMaterialClampsOverfill(t *testing.T) {
	w := New(3, 3)
	require.NoError(t, w.SetCell(1, 1, "dirt", 0.9))
	require.NoError(t, w.AddMaterial(1, 1, material.Water, 0.9))

	c, err := w.GetCell(1, 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, c.PercentFull(), 1.0+1e-6)
}

func TestAddMaterialRejectsWallCell(t *testing.T) {
	w := New(3, 3)
	require.NoError(t, w.SetCell(1, 1, "wall", 1))
	err := w.AddMaterial(1, 1, material.Dirt, 0.1)
	assert.Error(t, err)
}

func TestSpawnBlobFillsRadiusAndSkipsWalls(t *testing.T) {
	w := New(5, 5)
	require.NoError(t, w.SetCell(2, 2, "wall", 1))
	require.NoError(t, w.SpawnBlob(2, 2, 1, material.Sand, 0.8))

	center, err := w.GetCell(2, 2)
	require.NoError(t, err)
	assert.True(t, center.IsWall())

	neighbor, err := w.GetCell(2, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, neighbor.Fraction(material.Sand), 1e-9)

	corner, err := w.GetCell(0, 0)
	require.NoError(t, err)
	assert.True(t, corner.IsEmpty())
}

func TestSpawnBlobRejectsNegativeRadius(t *testing.T) {
	w := New(3, 3)
	err := w.SpawnBlob(1, 1, -1, material.Sand, 0.5)
	assert.Error(t, err)
}

func TestStateSnapshotOmitsEmptyCells(t *testing.T) {
	w := New(3, 3)
	require.NoError(t, w.SetCell(0, 0, "dirt", 0.5))

	snap := w.StateSnapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 0, snap[0].X)
	assert.Equal(t, 0, snap[0].Y)
	assert.Equal(t, material.Dirt, snap[0].Material)
}
