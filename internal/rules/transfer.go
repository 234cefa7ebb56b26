package rules

import (
	"github.com/lixenwraith/terrarium/internal/cell"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

// calculateTransferDirection implements spec.md §4.2.1's
// calculateTransferDirection, shared by any Rules variant whose transfer
// system is active (currently RulesA only; RulesB's ShouldTransfer always
// returns false so this is never reached for RulesB). A diagonal
// deflection (both axes over the dead zone) is merged into a single Move
// targeting the combined (x+sign(com.x), y+sign(com.y)) cell, per
// spec.md §4.5 ("a diagonal is modeled as both x- and y-axis transfers
// to the same destination") — not two independent Moves to two
// different neighbor cells.
func calculateTransferDirection(com vec2.Vector2, x, y int, g Grid) []Move {
	dx, dy := 0, 0
	fireX := com.X() > cell.ComDeflectionThreshold || com.X() < -cell.ComDeflectionThreshold
	fireY := com.Y() > cell.ComDeflectionThreshold || com.Y() < -cell.ComDeflectionThreshold

	if fireX {
		if com.X() > cell.ComDeflectionThreshold {
			dx = 1
		} else {
			dx = -1
		}
	}
	if fireY {
		if com.Y() > cell.ComDeflectionThreshold {
			dy = 1
		} else {
			dy = -1
		}
	}

	switch {
	case fireX && fireY:
		xOffset := axisCOMOffset(com, dx, 0)
		yOffset := axisCOMOffset(com, 0, dy)
		return []Move{{
			Axis:      AxisBoth,
			TargetX:   x + dx,
			TargetY:   y + dy,
			ComOffset: vec2.New(xOffset.X(), yOffset.Y()),
		}}
	case fireX:
		return []Move{{Axis: AxisX, TargetX: x + dx, TargetY: y, ComOffset: axisCOMOffset(com, dx, 0)}}
	case fireY:
		return []Move{{Axis: AxisY, TargetX: x, TargetY: y + dy, ComOffset: axisCOMOffset(com, 0, dy)}}
	default:
		return nil
	}
}

// axisCOMOffset computes one axis's contribution to the destination COM:
// the natural COM for that axis alone, clamped to the dead zone, per
// spec.md §4.2.1 ("the component of comOffset.x is
// clampCOMToDeadZone(calculateNaturalCOM((com.x,0),+1,0)).x"). Exactly
// one of dx,dy is non-zero.
func axisCOMOffset(com vec2.Vector2, dx, dy int) vec2.Vector2 {
	var axisCOM vec2.Vector2
	if dx != 0 {
		axisCOM = vec2.New(com.X(), 0)
	} else {
		axisCOM = vec2.New(0, com.Y())
	}
	natural := cell.CalculateNaturalCOM(axisCOM, dx, dy)
	return cell.ClampCOMToDeadZone(natural)
}
