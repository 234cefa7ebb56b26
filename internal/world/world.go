// Package world implements the dense cell grid, its clock, and the
// orchestration described in spec.md §4.1: World owns the cells, the
// active Rules variant, history, drag/cursor state, and the removedMass
// accumulator.
package world

import (
	"fmt"
	"time"

	"github.com/lixenwraith/terrarium/internal/apierror"
	"github.com/lixenwraith/terrarium/internal/cell"
	"github.com/lixenwraith/terrarium/internal/history"
	"github.com/lixenwraith/terrarium/internal/material"
	"github.com/lixenwraith/terrarium/internal/rules"
	"github.com/lixenwraith/terrarium/internal/scenario"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

// Tunables named directly in spec.md §4.1.
const (
	MaxRecentPositions  = 5
	CursorForceRadius   = 3.0
	CursorForceStrength = 2.0
)

// World is the authoritative simulation state. It is owned by a single
// serial task (spec.md §5); no method is safe to call concurrently with
// another.
type World struct {
	width, height int
	cells         []cell.Cell

	activeRules rules.Rules
	rulesA      *rules.RulesA
	rulesB      *rules.RulesB

	// dirtFragmentationFactor is a World-level scalar rather than a
	// per-Rules one: spec.md §4.2.3 calls it "a shared scalar so that
	// the engine behaves identically regardless of Rules variant."
	dirtFragmentationFactor float64

	timescale           float64
	timeReversalEnabled bool
	addParticlesEnabled bool

	timestep       uint64
	simulationTime float64
	removedMass    float64

	pendingMoves []dirtMove
	drag         dragState
	cursor       cursorForceState

	hist    *history.History
	emitter scenario.Emitter

	scenarioConfig scenario.Config

	activeFormat           string
	cellPixelW, cellPixelH int
}

// New builds a World with the given grid dimensions, RulesA/Original
// active, time reversal on, and a no-op scenario emitter.
func New(width, height int) *World {
	w := &World{
		width:               width,
		height:              height,
		cells:               make([]cell.Cell, width*height),
		rulesA:              rules.NewRulesA(rules.Original),
		rulesB:              rules.NewRulesB(),
		timescale:           1.0,
		timeReversalEnabled: true,
		addParticlesEnabled: true,
		hist:                history.New(),
		emitter:             scenario.NoOp{},
		scenarioConfig:      scenario.DefaultConfig(),
		activeFormat:        "sparse",
		cellPixelW:          16,
		cellPixelH:          16,
	}
	for i := range w.cells {
		w.cells[i] = cell.New()
	}
	w.activeRules = w.rulesA
	return w
}

// SetEmitter injects the scenario emitter used in advanceTime phase (a).
func (w *World) SetEmitter(e scenario.Emitter) {
	if e == nil {
		e = scenario.NoOp{}
	}
	w.emitter = e
}

// ScenarioConfig returns the last scenario configuration applied via
// SetScenarioConfig (scenario_config_set's current-value echo).
func (w *World) ScenarioConfig() scenario.Config { return w.scenarioConfig }

// SetScenarioConfig stores cfg and rebuilds the active emitter to match
// its rain_rate knob; quadrant/water_column/right_throw/walls_enabled
// are one-shot layout toggles a caller applies via seed_add/spawn_dirt_ball
// rather than standing emitter behavior, so only rain is a live emitter
// here (spec.md §6 scenario_config_set; SPEC_FULL.md §5).
func (w *World) SetScenarioConfig(cfg scenario.Config) {
	w.scenarioConfig = cfg
	if cfg.RainRate > 0 {
		w.emitter = scenario.NewRain(cfg.RainRate)
	} else {
		w.emitter = scenario.NoOp{}
	}
	w.emitter.Setup(w)
	w.hist.MarkUserInput()
}

// --- rules.Grid ---

func (w *World) Width() int  { return w.width }
func (w *World) Height() int { return w.height }

func (w *World) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < w.width && y < w.height
}

func (w *World) At(x, y int) *cell.Cell {
	return &w.cells[w.coordToIndex(x, y)]
}

func (w *World) coordToIndex(x, y int) int { return y*w.width + x }

// --- scenario.Grid ---

// SetCell implements scenario.Grid and is the programmatic entry point
// behind the cell_set command (spec.md §6): it replaces (does not merge)
// the cell's composition.
func (w *World) SetCell(x, y int, materialName string, fill float64) error {
	if !w.InBounds(x, y) {
		return apierror.InvalidCoordinates(x, y)
	}
	t, ok := material.Parse(materialName)
	if !ok {
		return apierror.InvalidMaterial(materialName)
	}
	if fill < 0 || fill > 1 {
		return apierror.FieldConstraint("fill", "in [0,1]")
	}
	c := w.At(x, y)
	c.SetSingle(t, fill)
	w.hist.MarkUserInput()
	return nil
}

// GetCell returns a copy of the cell at (x,y), per cell_get's contract.
func (w *World) GetCell(x, y int) (cell.Cell, error) {
	if !w.InBounds(x, y) {
		return cell.Cell{}, apierror.InvalidCoordinates(x, y)
	}
	return w.At(x, y).Clone(), nil
}

// --- scalar accessors (spec.md §6 recognized configuration) ---

func (w *World) Gravity() float64          { return w.activeRules.Gravity() }
func (w *World) SetGravity(v float64)      { w.activeRules.SetGravity(v); w.hist.MarkUserInput() }
func (w *World) Elasticity() float64       { return w.activeRules.ElasticityFactor() }
func (w *World) SetElasticity(v float64)   { w.activeRules.SetElasticityFactor(v); w.hist.MarkUserInput() }
func (w *World) PressureScale() float64    { return w.activeRules.PressureScale() }
func (w *World) SetPressureScale(v float64) {
	w.activeRules.SetPressureScale(v)
	w.hist.MarkUserInput()
}
func (w *World) WaterPressureThreshold() float64 { return w.activeRules.WaterPressureThreshold() }
func (w *World) SetWaterPressureThreshold(v float64) {
	w.activeRules.SetWaterPressureThreshold(v)
	w.hist.MarkUserInput()
}

func (w *World) DirtFragmentationFactor() float64 { return w.dirtFragmentationFactor }
func (w *World) SetDirtFragmentationFactor(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	w.dirtFragmentationFactor = v
	w.hist.MarkUserInput()
}

func (w *World) RemovedMass() float64  { return w.removedMass }
func (w *World) Timestep() uint64      { return w.timestep }
func (w *World) SimulationTime() float64 { return w.simulationTime }
func (w *World) Timescale() float64    { return w.timescale }
func (w *World) SetTimescale(v float64) { w.timescale = v }

func (w *World) TimeReversalEnabled() bool     { return w.timeReversalEnabled }
func (w *World) SetTimeReversalEnabled(v bool) { w.timeReversalEnabled = v }

func (w *World) AddParticlesEnabled() bool     { return w.addParticlesEnabled }
func (w *World) SetAddParticlesEnabled(v bool) { w.addParticlesEnabled = v }

func (w *World) ActiveFormat() string      { return w.activeFormat }
func (w *World) SetActiveFormat(f string)  { w.activeFormat = f }
func (w *World) CellPixelDims() (int, int) { return w.cellPixelW, w.cellPixelH }

// RulesName returns the active Rules variant's name ("RulesA"/"RulesB").
func (w *World) RulesName() string { return w.activeRules.Name() }

// SetRules hot-swaps the active Rules variant between steps, per spec.md
// §8's P6: this is a pointer assignment, never a cell reallocation.
func (w *World) SetRules(variant rules.Variant) error {
	switch variant {
	case rules.VariantA:
		w.activeRules = w.rulesA
	case rules.VariantB:
		w.activeRules = w.rulesB
	default:
		return apierror.New(fmt.Sprintf("Unknown rules variant: %s", variant))
	}
	w.hist.MarkUserInput()
	return nil
}

// PressureSystem returns RulesA's active pressure generator; RulesB has
// none (always Original as a harmless default since its updatePressures
// is a no-op).
func (w *World) PressureSystem() rules.PressureSystem { return w.rulesA.PressureSystem() }

// SetPressureSystem sets RulesA's active pressure generator (spec.md §6
// pressure_system).
func (w *World) SetPressureSystem(s rules.PressureSystem) {
	w.rulesA.SetPressureSystem(s)
	w.hist.MarkUserInput()
}

// Reset reapplies the scenario's Setup to a cleared grid, clears
// removedMass and pending moves, and preserves history (spec.md §4.1
// reset()).
func (w *World) Reset() {
	for i := range w.cells {
		w.cells[i] = cell.New()
	}
	w.removedMass = 0
	w.pendingMoves = w.pendingMoves[:0]
	w.drag = dragState{}
	w.emitter.Setup(w)
	w.hist.MarkUserInput()
}

// ResizeGrid reallocates the cell array to new dimensions. Previously
// non-empty cells are preserved at their (x,y) when still in bounds;
// cells that fall outside the new bounds have their mass folded into
// removedMass (spec.md §8 B3). History is cleared unless suppressed.
func (w *World) ResizeGrid(newWidth, newHeight int, preserveHistory bool) {
	oldCells := w.cells
	oldWidth, oldHeight := w.width, w.height

	newCells := make([]cell.Cell, newWidth*newHeight)
	for i := range newCells {
		newCells[i] = cell.New()
	}

	minW, minH := oldWidth, oldHeight
	if newWidth < minW {
		minW = newWidth
	}
	if newHeight < minH {
		minH = newHeight
	}
	for y := 0; y < oldHeight; y++ {
		for x := 0; x < oldWidth; x++ {
			c := &oldCells[y*oldWidth+x]
			if x < minW && y < minH {
				newCells[y*newWidth+x] = *c
				continue
			}
			w.removedMass += c.PercentFull()
		}
	}

	w.width, w.height = newWidth, newHeight
	w.cells = newCells
	if !preserveHistory {
		w.hist.Clear()
	}
	w.hist.MarkUserInput()
}

// History exposes the World's history ring buffer to command handlers
// (goBackward/goForward/clearHistory/state_get bookkeeping).
func (w *World) History() *history.History { return w.hist }

// snapshot captures the current live state as a history.WorldState.
func (w *World) snapshot() history.WorldState {
	cells := make([]cell.Cell, len(w.cells))
	for i := range w.cells {
		cells[i] = w.cells[i].Clone()
	}
	return history.WorldState{
		Cells:          cells,
		Width:          w.width,
		Height:         w.height,
		CellPixelW:     w.cellPixelW,
		CellPixelH:     w.cellPixelH,
		Timestep:       w.timestep,
		TotalMass:      w.totalMass(),
		RemovedMass:    w.removedMass,
		WallClockStamp: time.Now(),
	}
}

func (w *World) totalMass() float64 {
	var sum float64
	for i := range w.cells {
		sum += w.cells[i].PercentFull()
	}
	return sum
}

// RestoreWorldState resizes the live grid to match the saved dimensions
// if needed and replaces cell contents, per spec.md §4.3.
func (w *World) RestoreWorldState(s history.WorldState) {
	if s.Width != w.width || s.Height != w.height {
		w.width, w.height = s.Width, s.Height
		w.cells = make([]cell.Cell, w.width*w.height)
	}
	for i := range s.Cells {
		w.cells[i] = s.Cells[i].Clone()
	}
	w.timestep = s.Timestep
	w.removedMass = s.RemovedMass
	w.cellPixelW, w.cellPixelH = s.CellPixelW, s.CellPixelH
}

// GoBackward restores the previous history entry onto the live world.
func (w *World) GoBackward() bool {
	state, ok := w.hist.GoBackward(w.snapshot)
	if !ok {
		return false
	}
	w.RestoreWorldState(state)
	return true
}

// GoForward restores the next history entry (or the live state that was
// captured before the first backward step) onto the live world.
func (w *World) GoForward() bool {
	state, ok := w.hist.GoForward()
	if !ok {
		return false
	}
	w.RestoreWorldState(state)
	return true
}

// ClearHistory resets the history ring buffer, enforcing invariant I6.
func (w *World) ClearHistory() { w.hist.Clear() }
