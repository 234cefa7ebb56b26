package world

import (
	"github.com/lixenwraith/terrarium/internal/apierror"
	"github.com/lixenwraith/terrarium/internal/cell"
	"github.com/lixenwraith/terrarium/internal/material"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

// dragState tracks a single in-progress drag, per spec.md §4.1's Drag
// API: startDragging snapshots a cell and zeroes it; updateDrag records
// a bounded window of path positions; endDragging enqueues a pending
// release that advanceTime commits deterministically in phase (b).
type dragState struct {
	active          bool
	cellX, cellY    int
	heldComposition map[material.Type]float64
	heldV           vec2.Vector2
	heldCOM         vec2.Vector2
	recentPositions [][2]int

	pendingEnd         bool
	releaseX, releaseY int

	lastReleaseX, lastReleaseY int
	lastReleaseHadDrag         bool
}

// pixelToCell converts a pixel coordinate to a cell coordinate using the
// World's cell-pixel dimensions, per spec.md §4.1's addDirtAtPixel note
// ("external collaborator" renderer constants, here just the stored
// cellPixelW/H).
func (w *World) pixelToCell(px, py int) (int, int) {
	cw, ch := w.cellPixelW, w.cellPixelH
	if cw <= 0 {
		cw = 1
	}
	if ch <= 0 {
		ch = 1
	}
	return px / cw, py / ch
}

// StartDragging snapshots the target cell's fill, velocity and COM into
// the drag state and zeroes the cell.
func (w *World) StartDragging(px, py int) error {
	x, y := w.pixelToCell(px, py)
	if !w.InBounds(x, y) {
		return apierror.InvalidCoordinates(x, y)
	}
	c := w.At(x, y)
	held := make(map[material.Type]float64, len(c.Composition))
	for t, f := range c.Composition {
		held[t] = f
	}
	w.drag = dragState{
		active:          true,
		cellX:           x,
		cellY:           y,
		heldComposition: held,
		heldV:           c.V,
		heldCOM:         c.COM,
		recentPositions: [][2]int{{x, y}},
	}
	c.Zero()
	w.hist.MarkUserInput()
	return nil
}

// UpdateDrag records the current pointer position in a bounded window
// of MaxRecentPositions entries.
func (w *World) UpdateDrag(px, py int) {
	if !w.drag.active {
		return
	}
	x, y := w.pixelToCell(px, py)
	w.drag.recentPositions = append(w.drag.recentPositions, [2]int{x, y})
	if len(w.drag.recentPositions) > MaxRecentPositions {
		w.drag.recentPositions = w.drag.recentPositions[len(w.drag.recentPositions)-MaxRecentPositions:]
	}
}

// EndDragging enqueues a pending drag-end release so advanceTime commits
// it deterministically in phase (b), rather than mutating the grid
// synchronously from the API thread mid-step.
func (w *World) EndDragging(px, py int) error {
	if !w.drag.active {
		return apierror.New("Not connected")
	}
	x, y := w.pixelToCell(px, py)
	if !w.InBounds(x, y) {
		return apierror.InvalidCoordinates(x, y)
	}
	w.drag.pendingEnd = true
	w.drag.releaseX, w.drag.releaseY = x, y
	w.hist.MarkUserInput()
	return nil
}

// commitDragEnd is advanceTime phase (b): moves held mass into the
// release cell, preserving the source cell's fills as recorded at drag
// start (they are merged additively into the destination rather than
// replacing it, since the destination may independently hold matter).
func (w *World) commitDragEnd() {
	if !w.drag.pendingEnd {
		return
	}
	w.drag.pendingEnd = false
	w.drag.active = false

	if !w.InBounds(w.drag.releaseX, w.drag.releaseY) {
		return
	}
	dest := w.At(w.drag.releaseX, w.drag.releaseY)
	if dest.Composition == nil {
		dest.Composition = make(map[material.Type]float64, len(w.drag.heldComposition))
	}
	for t, f := range w.drag.heldComposition {
		dest.Composition[t] += f
	}
	dest.COM = w.drag.heldCOM
	dest.V = w.drag.heldV
	dest.Dirty = true

	w.drag.lastReleaseX, w.drag.lastReleaseY = w.drag.releaseX, w.drag.releaseY
	w.drag.lastReleaseHadDrag = true
}

// RestoreLastDragCell reverses the most recent drag-end commit,
// clearing the cell it was released into.
func (w *World) RestoreLastDragCell() error {
	if !w.drag.lastReleaseHadDrag {
		return apierror.New("Not connected")
	}
	c := w.At(w.drag.lastReleaseX, w.drag.lastReleaseY)
	c.Zero()
	w.drag.lastReleaseHadDrag = false
	w.hist.MarkUserInput()
	return nil
}

// AddMaterialAtPixel deposits MinDirtThreshold*k units of a material at
// the cell under (px,py), the shared implementation behind
// addDirtAtPixel/addWaterAtPixel (spec.md §4.1).
func (w *World) AddMaterialAtPixel(px, py int, t material.Type, k float64) error {
	x, y := w.pixelToCell(px, py)
	if !w.InBounds(x, y) {
		return apierror.InvalidCoordinates(x, y)
	}
	c := w.At(x, y)
	amount := cell.MinDirtThreshold * k
	current := c.Fraction(t)
	next := current + amount
	if next > 1 {
		next = 1
	}
	if c.Composition == nil {
		c.Composition = make(map[material.Type]float64, 1)
	}
	c.Composition[t] = next
	c.Dirty = true
	w.hist.MarkUserInput()
	return nil
}
