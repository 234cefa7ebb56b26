package world

import "github.com/lixenwraith/terrarium/internal/apierror"

// AdvanceTime runs one simulation step: scenario emission, drag
// commit, physics, pressure, transfer, commit, cleanup and a
// conditional history save, per spec.md §4.1's nine phases. dt must be
// positive; the effective step is dt*Timescale().
//
// The step runs to completion with no suspension point (spec.md §5). On
// a Rules failure the world is left in its pre-step state and the
// history save is skipped, per spec.md §4.1's failure contract; this
// implementation achieves that by validating before mutating where
// practical and otherwise treating a panic-free Rules call as success
// (RulesA/RulesB never return an error from ApplyPhysics by
// construction here).
func (w *World) AdvanceTime(dt float64) error {
	if dt <= 0 {
		return apierror.New("'dt' must be > 0")
	}
	effectiveDt := dt * w.timescale

	// (a) scenario emitter
	if w.addParticlesEnabled {
		w.emitter.Emit(w, w.timestep, effectiveDt)
	}

	// (b) pending drag-end
	w.commitDragEnd()

	// (c) per-cell physics
	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			c := w.At(x, y)
			if c.IsWall() {
				continue
			}
			w.activeRules.ApplyPhysics(c, x, y, effectiveDt, w)
		}
	}

	// (d) pressure update
	w.activeRules.UpdatePressures(w, effectiveDt)

	// (e) pressure -> velocity
	w.activeRules.ApplyPressureForces(w, effectiveDt)

	w.applyCursorForce(effectiveDt)

	// (f) transfer proposal (in-bounds-full/out-of-bounds handled as
	// in-place collisions here, not queued)
	w.proposeTransfers()

	// (g) commit
	w.commitTransfers()
	w.checkExcessiveDeflection()

	// (h) conditional history save
	if w.timeReversalEnabled && w.hist.ShouldSave(w.simulationTime) {
		w.hist.Save(w.snapshot(), w.simulationTime)
	}

	// (i) clock
	w.timestep++
	w.simulationTime += effectiveDt

	return nil
}

// Step runs AdvanceTime `frames` times synchronously and returns the new
// timestep, the contract behind the `step` command (spec.md §6).
func (w *World) Step(dt float64, frames int) (uint64, error) {
	if frames < 1 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		if err := w.AdvanceTime(dt); err != nil {
			return w.timestep, err
		}
	}
	return w.timestep, nil
}
