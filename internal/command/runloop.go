package command

import (
	"time"

	"github.com/lixenwraith/terrarium/internal/apierror"
)

// runState is the cooperative stepping loop's parameters, set by
// sim_run and cleared by sim_pause or exhaustion. It lives on the
// Dispatcher rather than the World because it is run-control state,
// not simulation state (spec.md §5's distinction between the World's
// physics state and the API task's scheduling state).
type runState struct {
	running     bool
	dt          float64
	stepsTaken  int64
	maxSteps    int64 // -1 means unlimited
	useRealtime bool
	lastTick    time.Time
}

// MaxStepsPerWake bounds how many physics steps Idle runs before
// yielding back to the caller's envelope-processing loop, so a running
// simulation can never starve sim_pause or any other inbound command
// (SPEC_FULL.md's "cooperative" requirement; mirrors spec.md §5's
// single-serial task never holding the queue hostage).
const MaxStepsPerWake = 4

func handleSimRun(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	req := SimRunRequest{Dt: 0.016, MaxSteps: -1, ScenarioID: "sandbox", UseRealtime: true}
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	if req.Dt <= 0 {
		req.Dt = 0.016
	}
	d.run = runState{
		running:     true,
		dt:          req.Dt,
		maxSteps:    req.MaxSteps,
		useRealtime: req.UseRealtime,
		lastTick:    time.Now(),
	}
	return SimRunOkay{Running: true, CurrentStep: d.World.Timestep()}, nil
}

func handleSimPause(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	d.run.running = false
	return SimPauseOkay{Paused: true}, nil
}

// Idle runs up to MaxStepsPerWake physics steps if sim_run is active,
// called by the outer envelope-processing loop whenever its inbound
// queue is momentarily empty. It paces itself against wall-clock time
// when useRealtime is set, never steps more than the outstanding
// max_steps budget, and stops (clearing running) once that budget is
// exhausted. Returns the number of steps actually taken.
func (d *Dispatcher) Idle() int {
	if !d.run.running {
		return 0
	}
	budget := MaxStepsPerWake
	if d.run.maxSteps >= 0 {
		remaining := d.run.maxSteps - d.run.stepsTaken
		if remaining <= 0 {
			d.run.running = false
			return 0
		}
		if int64(budget) > remaining {
			budget = int(remaining)
		}
	}
	if d.run.useRealtime {
		elapsed := time.Since(d.run.lastTick).Seconds()
		affordable := int(elapsed / d.run.dt)
		if affordable < 1 {
			return 0
		}
		if affordable < budget {
			budget = affordable
		}
	}

	start := time.Now()
	ran := 0
	for i := 0; i < budget; i++ {
		if err := d.World.AdvanceTime(d.run.dt); err != nil {
			d.run.running = false
			break
		}
		ran++
		d.run.stepsTaken++
	}
	d.Perf.RecordPhysics(float64(time.Since(start).Microseconds())/1000.0/float64(max(ran, 1)), time.Now())
	d.run.lastTick = time.Now()

	if d.run.maxSteps >= 0 && d.run.stepsTaken >= d.run.maxSteps {
		d.run.running = false
	}
	return ran
}

// Running reports whether a sim_run loop is currently active, the
// contract status_get/sim_run callers use to poll progress.
func (d *Dispatcher) Running() bool { return d.run.running }
