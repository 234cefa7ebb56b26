package world

import (
	"github.com/lixenwraith/terrarium/internal/cell"
	"github.com/lixenwraith/terrarium/internal/rules"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

// dirtMove is one queued transfer, an arena cleared (not freed) at the
// end of every step per spec.md §9.
type dirtMove struct {
	axis         rules.Axis
	fromX, fromY int
	toX, toY     int
	fraction     float64
	comOffset    vec2.Vector2
}

// proposeTransfers is advanceTime phase (f): for every cell whose COM
// has crossed the dead zone, compute axis target(s); targets that are
// out-of-bounds or effectively full are deflected in place via
// HandleCollision instead of being queued.
func (w *World) proposeTransfers() {
	w.pendingMoves = w.pendingMoves[:0]

	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			c := w.At(x, y)
			if c.IsWall() || c.IsEmpty() {
				continue
			}
			if !w.activeRules.ShouldTransfer(c) {
				continue
			}

			moves := w.activeRules.CalculateTransferDirection(c, x, y, w)
			if len(moves) == 0 {
				continue
			}

			// CalculateTransferDirection merges a diagonal deflection into
			// a single Move at the combined destination (spec.md §4.5), so
			// there is always exactly one move and it carries the cell's
			// full transferable mass. fraction is the share of the source's
			// composition that moves, so the mass moved is
			// PercentFull*TransferFactor*(1-dirtFragmentationFactor).
			m := moves[0]
			fraction := cell.TransferFactor * (1 - w.dirtFragmentationFactor)

			blocked := !w.InBounds(m.TargetX, m.TargetY)
			outOfBounds := blocked
			if !blocked && w.At(m.TargetX, m.TargetY).PercentFull() >= cell.NearFullThreshold {
				blocked = true
			}
			if blocked {
				w.activeRules.HandleCollision(c, m.Axis, outOfBounds)
				continue
			}

			w.pendingMoves = append(w.pendingMoves, dirtMove{
				axis:      m.Axis,
				fromX:     x,
				fromY:     y,
				toX:       m.TargetX,
				toY:       m.TargetY,
				fraction:  fraction,
				comOffset: m.ComOffset,
			})
		}
	}
}

// commitTransfers is advanceTime phase (g): replays the queued moves
// atomically. A move into a Wall is converted to a collision and
// discarded (spec.md §4.5); otherwise mass, COM and velocity move per
// the commit rule, and a source cell whose residual mass falls below
// MinDirtThreshold is zeroed with the residue folded into removedMass.
func (w *World) commitTransfers() {
	sourceFraction := make(map[int]float64, len(w.pendingMoves))

	for _, m := range w.pendingMoves {
		dest := w.At(m.toX, m.toY)
		if dest.IsWall() {
			src := w.At(m.fromX, m.fromY)
			w.activeRules.HandleCollision(src, m.axis, false)
			continue
		}

		src := w.At(m.fromX, m.fromY)
		dest.AddMass(src, m.fraction)
		dest.COM = cell.ClampCOMToDeadZone(m.comOffset)

		sourceFraction[w.coordToIndex(m.fromX, m.fromY)] += m.fraction
	}

	for idx, frac := range sourceFraction {
		c := &w.cells[idx]
		c.RemoveFraction(frac)
		if c.PercentFull() < cell.MinDirtThreshold {
			w.removedMass += c.PercentFull()
			c.Zero()
		}
	}

	w.pendingMoves = w.pendingMoves[:0]
}

// checkExcessiveDeflection is the invariant-I2 enforcement point run
// after commit (spec.md §4.5).
func (w *World) checkExcessiveDeflection() {
	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			c := w.At(x, y)
			if c.IsWall() {
				continue
			}
			w.activeRules.CheckExcessiveDeflectionReflection(c)
		}
	}
}
