package command

import (
	"encoding/json"
	"testing"

	"github.com/lixenwraith/terrarium/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(world.New(4, 4))
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestCellSetAndGetRoundTrip(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("cell_set", mustJSON(t, CellSetRequest{X: 1, Y: 1, Material: "dirt", Fill: 0.7}))
	require.Nil(t, ae)

	okay, ae := d.Handle("cell_get", mustJSON(t, CellGetRequest{X: 1, Y: 1}))
	require.Nil(t, ae)
	got := okay.(CellGetOkay)
	assert.Equal(t, "dirt", got.Cell.Material)
	assert.InDelta(t, 0.7, got.Cell.Fill, 1e-9)
}

func TestCellGetInvalidCoordinates(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("cell_get", mustJSON(t, CellGetRequest{X: 99, Y: 99}))
	require.NotNil(t, ae)
	assert.Contains(t, ae.Message, "Invalid coordinates")
}

func TestUnknownCommand(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("not_a_real_command", nil)
	require.NotNil(t, ae)
	assert.Contains(t, ae.Message, "Unknown command")
}

func TestMalformedJSONPayload(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("cell_set", []byte("{not json"))
	require.NotNil(t, ae)
	assert.Contains(t, ae.Message, "JSON parse error")
}

func TestGravitySetUpdatesWorld(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("gravity_set", mustJSON(t, GravitySetRequest{Gravity: 3.5}))
	require.Nil(t, ae)
	assert.InDelta(t, 3.5, d.World.Gravity(), 1e-9)
}

func TestSetRulesHotSwapsViaDispatcher(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("set_rules", mustJSON(t, SetRulesRequest{Rules: "RulesB"}))
	require.Nil(t, ae)
	assert.Equal(t, "RulesB", d.World.RulesName())
}

func TestSetRulesRejectsUnknownVariant(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("set_rules", mustJSON(t, SetRulesRequest{Rules: "RulesZ"}))
	assert.NotNil(t, ae)
}

func TestStepAdvancesTimestep(t *testing.T) {
	d := newTestDispatcher()
	okay, ae := d.Handle("step", mustJSON(t, StepRequest{Dt: 0.016, Frames: 3}))
	require.Nil(t, ae)
	assert.Equal(t, uint64(3), okay.(StepOkay).Timestep)
}

func TestSeedAddIsAdditive(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("cell_set", mustJSON(t, CellSetRequest{X: 0, Y: 0, Material: "water", Fill: 0.2}))
	require.Nil(t, ae)
	_, ae = d.Handle("seed_add", mustJSON(t, SeedAddRequest{X: 0, Y: 0, Material: "water", Amount: 0.4}))
	require.Nil(t, ae)
	okay, ae := d.Handle("cell_get", mustJSON(t, CellGetRequest{X: 0, Y: 0}))
	require.Nil(t, ae)
	assert.InDelta(t, 0.6, okay.(CellGetOkay).Cell.Fill, 1e-9)
}

func TestSpawnDirtBallRejectsInvalidMaterial(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("spawn_dirt_ball", mustJSON(t, SpawnDirtBallRequest{X: 1, Y: 1, Radius: 1, Material: "lava", Fill: 0.5}))
	require.NotNil(t, ae)
	assert.Contains(t, ae.Message, "Invalid material")
}

func TestStateGetReportsNonEmptyCells(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("cell_set", mustJSON(t, CellSetRequest{X: 2, Y: 2, Material: "sand", Fill: 1}))
	require.Nil(t, ae)
	okay, ae := d.Handle("state_get", nil)
	require.Nil(t, ae)
	data := okay.(StateGetOkay).WorldData
	require.Len(t, data.Cells, 1)
	assert.Equal(t, "sand", data.Cells[0].Material)
}

func TestSimRunThenPauseStopsIdleStepping(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("sim_run", mustJSON(t, SimRunRequest{Dt: 0.016, MaxSteps: -1, UseRealtime: false}))
	require.Nil(t, ae)
	assert.True(t, d.Running())

	ran := d.Idle()
	assert.Greater(t, ran, 0)

	_, ae = d.Handle("sim_pause", nil)
	require.Nil(t, ae)
	assert.False(t, d.Running())
	assert.Equal(t, 0, d.Idle())
}

func TestSimRunRespectsMaxSteps(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("sim_run", mustJSON(t, SimRunRequest{Dt: 0.016, MaxSteps: 2, UseRealtime: false}))
	require.Nil(t, ae)

	total := 0
	for i := 0; i < 5 && d.Running(); i++ {
		total += d.Idle()
	}
	assert.Equal(t, 2, total)
	assert.False(t, d.Running())
}

func TestPhysicsSettingsSetPartialUpdate(t *testing.T) {
	d := newTestDispatcher()
	gravity := 2.0
	okay, ae := d.Handle("physics_settings_set", mustJSON(t, PhysicsSettingsSetRequest{Gravity: &gravity}))
	require.Nil(t, ae)
	assert.InDelta(t, 2.0, okay.(PhysicsSettingsOkay).Gravity, 1e-9)
	assert.InDelta(t, 2.0, d.World.Gravity(), 1e-9)
}

func TestHistoryNavigationCommands(t *testing.T) {
	d := newTestDispatcher()
	require.NoError(t, d.World.AdvanceTime(0.016))
	require.True(t, d.World.History().Len() > 0 || !d.World.History().CanGoBackward())

	okay, ae := d.Handle("go_backward", nil)
	require.Nil(t, ae)
	_ = okay.(MovedOkay)

	_, ae = d.Handle("clear_history", nil)
	require.Nil(t, ae)
	assert.False(t, d.World.History().CanGoBackward())
}

func TestDragStartZeroesSourceAndEndRestoresOnCommit(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("cell_set", mustJSON(t, CellSetRequest{X: 1, Y: 1, Material: "dirt", Fill: 0.6}))
	require.Nil(t, ae)

	_, ae = d.Handle("drag_start", mustJSON(t, DragStartRequest{PX: 16, PY: 16}))
	require.Nil(t, ae)

	okay, ae := d.Handle("cell_get", mustJSON(t, CellGetRequest{X: 1, Y: 1}))
	require.Nil(t, ae)
	assert.InDelta(t, 0, okay.(CellGetOkay).Cell.Fill, 1e-9)

	_, ae = d.Handle("drag_end", mustJSON(t, DragEndRequest{PX: 32, PY: 32}))
	require.Nil(t, ae)

	require.NoError(t, d.World.AdvanceTime(0.016))

	okay, ae = d.Handle("cell_get", mustJSON(t, CellGetRequest{X: 2, Y: 2}))
	require.Nil(t, ae)
	assert.InDelta(t, 0.6, okay.(CellGetOkay).Cell.Fill, 1e-9)
}

func TestCursorForceCommandsRoundTrip(t *testing.T) {
	d := newTestDispatcher()
	_, ae := d.Handle("cursor_force_set", mustJSON(t, CursorForceSetRequest{Enabled: true}))
	require.Nil(t, ae)
	assert.True(t, d.World.CursorForceEnabled())

	_, ae = d.Handle("cursor_position_set", mustJSON(t, CursorPositionSetRequest{X: 2, Y: 2, Repulsor: true}))
	require.Nil(t, ae)

	_, ae = d.Handle("cursor_force_clear", nil)
	require.Nil(t, ae)
}
