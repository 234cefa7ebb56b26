package command

import (
	"encoding/json"
	"time"

	"github.com/lixenwraith/terrarium/internal/apierror"
	"github.com/lixenwraith/terrarium/internal/material"
	"github.com/lixenwraith/terrarium/internal/rules"
	"github.com/lixenwraith/terrarium/internal/telemetry"
	"github.com/lixenwraith/terrarium/internal/transport"
	"github.com/lixenwraith/terrarium/internal/world"
)

// Dispatcher binds the command-name -> handler registry to one World
// plus the run-control and telemetry state a handler needs that World
// itself doesn't own (spec.md §4.4, §5). A Dispatcher belongs to the
// single serial physics/API task; none of its methods are safe to call
// concurrently with another.
type Dispatcher struct {
	World    *world.World
	Perf     *telemetry.PerfStats
	Timers   *telemetry.Timers
	Listener *transport.Listener // nil-able; only peers_get reads it

	run runState
}

// NewDispatcher builds a Dispatcher over w with fresh telemetry
// registries and no attached transport Listener.
func NewDispatcher(w *world.World) *Dispatcher {
	return &Dispatcher{World: w, Perf: telemetry.NewPerfStats(), Timers: telemetry.NewTimers()}
}

type handlerFunc func(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError)

// handlers maps every recognized wire name (spec.md §6, SPEC_FULL.md §5)
// to its handler. Registered once at package init; never mutated after.
var handlers = map[string]handlerFunc{
	"cell_get":                  handleCellGet,
	"cell_set":                  handleCellSet,
	"gravity_set":               handleGravitySet,
	"set_elasticity":            handleSetElasticity,
	"pressure_scale":            handlePressureScale,
	"water_pressure_threshold":  handleWaterPressureThreshold,
	"dirt_fragmentation":        handleDirtFragmentation,
	"world_resize":              handleWorldResize,
	"scenario_config_set":       handleScenarioConfigSet,
	"render_format_set":         handleRenderFormatSet,
	"pressure_system":           handlePressureSystemSet,
	"set_rules":                 handleSetRules,
	"step":                      handleStep,
	"sim_run":                   handleSimRun,
	"sim_pause":                 handleSimPause,
	"reset":                     handleReset,
	"exit":                      handleExit,
	"perf_stats_get":            handlePerfStatsGet,
	"timer_stats_get":           handleTimerStatsGet,
	"status_get":                handleStatusGet,
	"state_get":                 handleStateGet,
	"go_backward":               handleGoBackward,
	"go_forward":                handleGoForward,
	"clear_history":             handleClearHistory,
	"peers_get":                 handlePeersGet,
	"physics_settings_get":      handlePhysicsSettingsGet,
	"physics_settings_set":      handlePhysicsSettingsSet,
	"seed_add":                  handleSeedAdd,
	"spawn_dirt_ball":           handleSpawnDirtBall,
	"drag_start":                handleDragStart,
	"drag_update":               handleDragUpdate,
	"drag_end":                  handleDragEnd,
	"drag_restore":              handleDragRestore,
	"add_material_at_pixel":     handleAddMaterialAtPixel,
	"cursor_force_set":          handleCursorForceSet,
	"cursor_position_set":       handleCursorPositionSet,
	"cursor_force_clear":        handleCursorForceClear,
}

// Handle decodes payload into the named command's request type,
// invokes its handler against the bound World, and returns either an
// okay payload or an ApiError — the uniform Response spec.md §7
// describes. An unrecognized name is itself an ApiError, never a Go
// error, so the dispatcher's envelope wrapping never has to special-case it.
func (d *Dispatcher) Handle(name string, payload []byte) (interface{}, *apierror.ApiError) {
	fn, ok := handlers[name]
	if !ok {
		return nil, apierror.UnknownCommand(name)
	}
	return fn(d, payload)
}

// Names reports every recognized command name, for introspection/logging.
func Names() []string {
	out := make([]string, 0, len(handlers))
	for n := range handlers {
		out = append(out, n)
	}
	return out
}

func decode(payload []byte, v interface{}) *apierror.ApiError {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return apierror.Wrap(err, "JSON parse error")
	}
	return nil
}

// asApiErr adapts a World method's error return (always, in practice,
// an *apierror.ApiError constructed via the apierror package) to the
// typed Response shape; any other error is wrapped rather than leaked.
func asApiErr(err error) *apierror.ApiError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*apierror.ApiError); ok {
		return ae
	}
	return apierror.Wrap(err, "internal error")
}

// --- cell access ---

func handleCellGet(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req CellGetRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	c, err := d.World.GetCell(req.X, req.Y)
	if err != nil {
		return nil, asApiErr(err)
	}
	return CellGetOkay{Cell: cellWire(req.X, req.Y, &c)}, nil
}

func handleCellSet(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req CellSetRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	if err := d.World.SetCell(req.X, req.Y, req.Material, req.Fill); err != nil {
		return nil, asApiErr(err)
	}
	return EmptyOkay{}, nil
}

// --- scalar configuration ---

func handleGravitySet(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req GravitySetRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	d.World.SetGravity(req.Gravity)
	return EmptyOkay{}, nil
}

func handleSetElasticity(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req ElasticitySetRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	if req.Elasticity < 0 || req.Elasticity > 2 {
		return nil, apierror.FieldConstraint("elasticity", "in [0,2]")
	}
	d.World.SetElasticity(req.Elasticity)
	return EmptyOkay{}, nil
}

func handlePressureScale(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req PressureScaleRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	if req.Scale < 0 {
		return nil, apierror.FieldConstraint("scale", ">= 0")
	}
	d.World.SetPressureScale(req.Scale)
	return EmptyOkay{}, nil
}

func handleWaterPressureThreshold(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req WaterPressureThresholdRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	d.World.SetWaterPressureThreshold(req.Threshold)
	return EmptyOkay{}, nil
}

func handleDirtFragmentation(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req DirtFragmentationRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	if req.Factor < 0 || req.Factor > 1 {
		return nil, apierror.FieldConstraint("factor", "in [0,1]")
	}
	d.World.SetDirtFragmentationFactor(req.Factor)
	return EmptyOkay{}, nil
}

func handleWorldResize(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req WorldResizeRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	if req.Width < 1 || req.Height < 1 {
		return nil, apierror.FieldConstraint("width/height", ">= 1")
	}
	before := d.World.RemovedMass()
	d.World.ResizeGrid(req.Width, req.Height, false)
	return WorldResizeOkay{
		Width:            req.Width,
		Height:           req.Height,
		RemovedMassDelta: d.World.RemovedMass() - before,
	}, nil
}

func handleScenarioConfigSet(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req ScenarioConfigSetRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	d.World.SetScenarioConfig(req.Config)
	return ScenarioConfigOkay{Config: d.World.ScenarioConfig()}, nil
}

func handleRenderFormatSet(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req RenderFormatSetRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	d.World.SetActiveFormat(req.Format)
	return EmptyOkay{}, nil
}

func handlePressureSystemSet(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req PressureSystemSetRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	sys, ok := rules.ParsePressureSystem(req.System)
	if !ok {
		return nil, apierror.Newf("'system' must be one of original, top_down, iterative_settling")
	}
	d.World.SetPressureSystem(sys)
	return EmptyOkay{}, nil
}

func handleSetRules(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req SetRulesRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	if err := d.World.SetRules(rules.Variant(req.Rules)); err != nil {
		return nil, asApiErr(err)
	}
	return EmptyOkay{}, nil
}

// --- stepping ---

func handleStep(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	req := StepRequest{Dt: 0.016, Frames: 1}
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	if req.Dt <= 0 {
		req.Dt = 0.016
	}
	if req.Frames < 1 {
		req.Frames = 1
	}
	start := time.Now()
	ts, err := d.World.Step(req.Dt, req.Frames)
	d.Perf.RecordPhysics(float64(time.Since(start).Microseconds())/1000.0, time.Now())
	if err != nil {
		return nil, asApiErr(err)
	}
	return StepOkay{Timestep: ts}, nil
}

func handleReset(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	d.World.Reset()
	return EmptyOkay{}, nil
}

// handleExit acknowledges the request; the listening process (main.go)
// closes the client's socket right after queuing this response, so its
// delivery is best-effort, per spec.md §6.
func handleExit(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	return EmptyOkay{}, nil
}

// --- status / state ---

func handleStatusGet(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	return StatusOkay{
		Timestep:       d.World.Timestep(),
		SimulationTime: d.World.SimulationTime(),
		RemovedMass:    d.World.RemovedMass(),
		RulesName:      d.World.RulesName(),
		Width:          d.World.Width(),
		Height:         d.World.Height(),
	}, nil
}

func handleStateGet(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	start := time.Now()
	snaps := d.World.StateSnapshot()
	cells := make([]CellWire, len(snaps))
	for i, s := range snaps {
		cells[i] = CellWire{
			X: s.X, Y: s.Y,
			Material: s.Material.String(),
			Fill:     s.Fill,
			ComX:     s.COM.X(), ComY: s.COM.Y(),
			VX: s.V.X(), VY: s.V.Y(),
		}
	}
	d.Perf.RecordSerialization(float64(time.Since(start).Microseconds())/1000.0, time.Now())
	return StateGetOkay{WorldData: WorldData{
		Width: d.World.Width(), Height: d.World.Height(), Timestep: d.World.Timestep(),
		Gravity: d.World.Gravity(), Elasticity: d.World.Elasticity(),
		PressureScale:          d.World.PressureScale(),
		WaterPressureThreshold: d.World.WaterPressureThreshold(),
		DirtFragmentation:      d.World.DirtFragmentationFactor(),
		RulesName:              d.World.RulesName(),
		ActiveFormat:           d.World.ActiveFormat(),
		RemovedMass:            d.World.RemovedMass(),
		Cells:                  cells,
	}}, nil
}

// --- history navigation ---

func handleGoBackward(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	return MovedOkay{Moved: d.World.GoBackward()}, nil
}

func handleGoForward(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	return MovedOkay{Moved: d.World.GoForward()}, nil
}

func handleClearHistory(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	d.World.ClearHistory()
	return EmptyOkay{}, nil
}

// --- supplemented: physics settings bundle ---

func handlePhysicsSettingsGet(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	return PhysicsSettingsOkay{
		Gravity:                d.World.Gravity(),
		Elasticity:             d.World.Elasticity(),
		PressureScale:          d.World.PressureScale(),
		WaterPressureThreshold: d.World.WaterPressureThreshold(),
		DirtFragmentation:      d.World.DirtFragmentationFactor(),
		PressureSystem:         d.World.PressureSystem().String(),
	}, nil
}

func handlePhysicsSettingsSet(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req PhysicsSettingsSetRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	if req.Gravity != nil {
		d.World.SetGravity(*req.Gravity)
	}
	if req.Elasticity != nil {
		if *req.Elasticity < 0 || *req.Elasticity > 2 {
			return nil, apierror.FieldConstraint("elasticity", "in [0,2]")
		}
		d.World.SetElasticity(*req.Elasticity)
	}
	if req.PressureScale != nil {
		d.World.SetPressureScale(*req.PressureScale)
	}
	if req.WaterPressureThreshold != nil {
		d.World.SetWaterPressureThreshold(*req.WaterPressureThreshold)
	}
	if req.DirtFragmentation != nil {
		d.World.SetDirtFragmentationFactor(*req.DirtFragmentation)
	}
	if req.PressureSystem != nil {
		sys, ok := rules.ParsePressureSystem(*req.PressureSystem)
		if !ok {
			return nil, apierror.Newf("'pressure_system' must be one of original, top_down, iterative_settling")
		}
		d.World.SetPressureSystem(sys)
	}
	return handlePhysicsSettingsGet(d, nil)
}

// --- supplemented: seed / spawn ---

func handleSeedAdd(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req SeedAddRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	t, ok := material.Parse(req.Material)
	if !ok {
		return nil, apierror.InvalidMaterial(req.Material)
	}
	if err := d.World.AddMaterial(req.X, req.Y, t, req.Amount); err != nil {
		return nil, asApiErr(err)
	}
	return EmptyOkay{}, nil
}

func handleSpawnDirtBall(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req SpawnDirtBallRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	t, ok := material.Parse(req.Material)
	if !ok {
		return nil, apierror.InvalidMaterial(req.Material)
	}
	if err := d.World.SpawnBlob(req.X, req.Y, req.Radius, t, req.Fill); err != nil {
		return nil, asApiErr(err)
	}
	return EmptyOkay{}, nil
}

// --- supplemented: peers ---

func handlePeersGet(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	if d.Listener == nil {
		return PeersGetOkay{Peers: []PeerInfo{}}, nil
	}
	ids := d.Listener.Peers()
	out := make([]PeerInfo, len(ids))
	for i, id := range ids {
		out[i] = PeerInfo{ID: id.String()}
	}
	return PeersGetOkay{Peers: out}, nil
}

// --- drag / cursor-force ---

func handleDragStart(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req DragStartRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	if err := d.World.StartDragging(req.PX, req.PY); err != nil {
		return nil, asApiErr(err)
	}
	return EmptyOkay{}, nil
}

func handleDragUpdate(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req DragUpdateRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	d.World.UpdateDrag(req.PX, req.PY)
	return EmptyOkay{}, nil
}

func handleDragEnd(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req DragEndRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	if err := d.World.EndDragging(req.PX, req.PY); err != nil {
		return nil, asApiErr(err)
	}
	return EmptyOkay{}, nil
}

func handleDragRestore(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	if err := d.World.RestoreLastDragCell(); err != nil {
		return nil, asApiErr(err)
	}
	return EmptyOkay{}, nil
}

func handleAddMaterialAtPixel(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req AddMaterialAtPixelRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	t, ok := material.Parse(req.Material)
	if !ok {
		return nil, apierror.InvalidMaterial(req.Material)
	}
	if err := d.World.AddMaterialAtPixel(req.PX, req.PY, t, req.K); err != nil {
		return nil, asApiErr(err)
	}
	return EmptyOkay{}, nil
}

func handleCursorForceSet(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req CursorForceSetRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	d.World.SetCursorForceEnabled(req.Enabled)
	return EmptyOkay{}, nil
}

func handleCursorPositionSet(d *Dispatcher, payload []byte) (interface{}, *apierror.ApiError) {
	var req CursorPositionSetRequest
	if ae := decode(payload, &req); ae != nil {
		return nil, ae
	}
	d.World.SetCursorPosition(req.X, req.Y, req.Repulsor)
	return EmptyOkay{}, nil
}

func handleCursorForceClear(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	d.World.ClearCursorForce()
	return EmptyOkay{}, nil
}

// --- telemetry ---

func handlePerfStatsGet(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	snap := d.Perf.Snapshot(time.Now())
	return PerfStatsOkay{
		FPS:                  snap.FPS,
		PhysicsAvgMs:         snap.PhysicsAvgMs,
		PhysicsTotalMs:       snap.PhysicsTotalMs,
		PhysicsCalls:         snap.PhysicsCalls,
		SerializationAvgMs:   snap.SerializationAvgMs,
		SerializationTotalMs: snap.SerializationTotalMs,
		SerializationCalls:   snap.SerializationCalls,
		CacheUpdateAvgMs:     snap.CacheUpdateAvgMs,
		NetworkSendAvgMs:     snap.NetworkSendAvgMs,
	}, nil
}

func handleTimerStatsGet(d *Dispatcher, _ []byte) (interface{}, *apierror.ApiError) {
	raw := d.Timers.Snapshot()
	out := make(map[string]TimerEntry, len(raw))
	for k, v := range raw {
		out[k] = TimerEntry{TotalMs: v.TotalMs, AvgMs: v.AvgMs, Calls: v.Calls}
	}
	return TimerStatsOkay{Timers: out}, nil
}
