// Package command implements the typed command registry described in
// spec.md §4.4 and §6: every command has a stable wire name, a request
// struct with JSON struct tags (used as the payload body for both the
// binary and JSON envelope framings — spec.md §6 treats an envelope's
// payload as opaque bytes at the framing layer, so this implementation
// carries JSON-encoded fields inside either framing rather than a
// second bespoke binary field layout), and a handler that operates on
// a world.World and returns either an okay payload or an *apierror.ApiError.
package command

import (
	"github.com/lixenwraith/terrarium/internal/cell"
	"github.com/lixenwraith/terrarium/internal/scenario"
)

// --- cell access (spec.md §6) ---

type CellGetRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type CellWire struct {
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Material string  `json:"material"`
	Fill     float64 `json:"fill"`
	ComX     float64 `json:"com_x"`
	ComY     float64 `json:"com_y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
}

type CellGetOkay struct {
	Cell CellWire `json:"cell"`
}

func cellWire(x, y int, c *cell.Cell) CellWire {
	t, frac := c.PrimaryMaterial()
	return CellWire{
		X: x, Y: y,
		Material: t.String(),
		Fill:     frac,
		ComX:     c.COM.X(), ComY: c.COM.Y(),
		VX: c.V.X(), VY: c.V.Y(),
	}
}

type CellSetRequest struct {
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Material string  `json:"material"`
	Fill     float64 `json:"fill"`
}

// --- recognized scalar configuration (spec.md §6) ---

type GravitySetRequest struct {
	Gravity float64 `json:"gravity"`
}

type ElasticitySetRequest struct {
	Elasticity float64 `json:"elasticity"`
}

type PressureScaleRequest struct {
	Scale float64 `json:"scale"`
}

type WaterPressureThresholdRequest struct {
	Threshold float64 `json:"threshold"`
}

type DirtFragmentationRequest struct {
	Factor float64 `json:"factor"`
}

type WorldResizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type WorldResizeOkay struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	RemovedMassDelta float64 `json:"removed_mass_delta"`
}

type ScenarioConfigSetRequest struct {
	Config scenario.Config `json:"config"`
}

type ScenarioConfigOkay struct {
	Config scenario.Config `json:"config"`
}

type RenderFormatSetRequest struct {
	Format string `json:"format"`
}

type PressureSystemSetRequest struct {
	System string `json:"system"`
}

type SetRulesRequest struct {
	Rules string `json:"rules"`
}

// --- stepping / run control (spec.md §6) ---

type StepRequest struct {
	Dt     float64 `json:"dt"`
	Frames int     `json:"frames"`
}

type StepOkay struct {
	Timestep uint64 `json:"timestep"`
}

type SimRunRequest struct {
	Dt          float64 `json:"timestep"`
	MaxSteps    int64   `json:"max_steps"`
	ScenarioID  string  `json:"scenario_id"`
	UseRealtime bool    `json:"use_realtime"`
}

type SimRunOkay struct {
	Running     bool   `json:"running"`
	CurrentStep uint64 `json:"current_step"`
}

type SimPauseOkay struct {
	Paused bool `json:"paused"`
}

// --- history navigation ---

type MovedOkay struct {
	Moved bool `json:"moved"`
}

// --- state / status (spec.md §6) ---

type WorldData struct {
	Width                  int        `json:"width"`
	Height                 int        `json:"height"`
	Timestep               uint64     `json:"timestep"`
	Gravity                float64    `json:"gravity"`
	Elasticity             float64    `json:"elasticity"`
	PressureScale          float64    `json:"pressure_scale"`
	WaterPressureThreshold float64    `json:"water_pressure_threshold"`
	DirtFragmentation      float64    `json:"dirt_fragmentation"`
	RulesName              string     `json:"rules_name"`
	ActiveFormat           string     `json:"active_format"`
	RemovedMass            float64    `json:"removed_mass"`
	Cells                  []CellWire `json:"cells"`
}

type StateGetOkay struct {
	WorldData WorldData `json:"world_data"`
}

type StatusOkay struct {
	Timestep       uint64  `json:"timestep"`
	SimulationTime float64 `json:"simulation_time"`
	RemovedMass    float64 `json:"removed_mass"`
	RulesName      string  `json:"rules_name"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

// --- physics settings bundle (SPEC_FULL.md §5) ---

type PhysicsSettingsOkay struct {
	Gravity                float64 `json:"gravity"`
	Elasticity             float64 `json:"elasticity"`
	PressureScale          float64 `json:"pressure_scale"`
	WaterPressureThreshold float64 `json:"water_pressure_threshold"`
	DirtFragmentation      float64 `json:"dirt_fragmentation"`
	PressureSystem         string  `json:"pressure_system"`
}

type PhysicsSettingsSetRequest struct {
	Gravity                *float64 `json:"gravity,omitempty"`
	Elasticity             *float64 `json:"elasticity,omitempty"`
	PressureScale          *float64 `json:"pressure_scale,omitempty"`
	WaterPressureThreshold *float64 `json:"water_pressure_threshold,omitempty"`
	DirtFragmentation      *float64 `json:"dirt_fragmentation,omitempty"`
	PressureSystem         *string  `json:"pressure_system,omitempty"`
}

// --- seed / spawn (SPEC_FULL.md §5) ---

type SeedAddRequest struct {
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Material string  `json:"material"`
	Amount   float64 `json:"amount"`
}

type SpawnDirtBallRequest struct {
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Radius   int     `json:"radius"`
	Material string  `json:"material"`
	Fill     float64 `json:"fill"`
}

// --- peers (SPEC_FULL.md §5) ---

type PeerInfo struct {
	ID string `json:"id"`
}

type PeersGetOkay struct {
	Peers []PeerInfo `json:"peers"`
}

// --- telemetry (spec.md §6) ---

type PerfStatsOkay struct {
	FPS                  float64 `json:"fps"`
	PhysicsAvgMs         float64 `json:"physics_avg_ms"`
	PhysicsTotalMs       float64 `json:"physics_total_ms"`
	PhysicsCalls         int64   `json:"physics_calls"`
	SerializationAvgMs   float64 `json:"serialization_avg_ms"`
	SerializationTotalMs float64 `json:"serialization_total_ms"`
	SerializationCalls   int64   `json:"serialization_calls"`
	CacheUpdateAvgMs     float64 `json:"cache_update_avg_ms"`
	NetworkSendAvgMs     float64 `json:"network_send_avg_ms"`
}

type TimerEntry struct {
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	Calls   int64   `json:"calls"`
}

type TimerStatsOkay struct {
	Timers map[string]TimerEntry `json:"timers"`
}

// --- drag / cursor-force (spec.md §4.1) ---

type DragStartRequest struct {
	PX int `json:"px"`
	PY int `json:"py"`
}

type DragUpdateRequest struct {
	PX int `json:"px"`
	PY int `json:"py"`
}

type DragEndRequest struct {
	PX int `json:"px"`
	PY int `json:"py"`
}

type AddMaterialAtPixelRequest struct {
	PX       int     `json:"px"`
	PY       int     `json:"py"`
	Material string  `json:"material"`
	K        float64 `json:"k"`
}

type CursorForceSetRequest struct {
	Enabled bool `json:"enabled"`
}

type CursorPositionSetRequest struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Repulsor bool    `json:"repulsor"`
}

// --- no-payload requests ---

type EmptyRequest struct{}
type EmptyOkay struct{}
