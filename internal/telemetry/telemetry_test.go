package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPerfStatsAveragesWithinWindow(t *testing.T) {
	p := NewPerfStats()
	now := time.Now()
	p.RecordPhysics(2.0, now)
	p.RecordPhysics(4.0, now.Add(10*time.Millisecond))

	snap := p.Snapshot(now.Add(20 * time.Millisecond))
	assert.InDelta(t, 3.0, snap.PhysicsAvgMs, 1e-9)
	assert.Equal(t, int64(2), snap.PhysicsCalls)
	assert.InDelta(t, 6.0, snap.PhysicsTotalMs, 1e-9)
}

func TestPerfStatsEvictsStaleSamples(t *testing.T) {
	p := NewPerfStats()
	now := time.Now()
	p.RecordFPS(60, now)

	snap := p.Snapshot(now.Add(2 * time.Second))
	assert.Equal(t, 0.0, snap.FPS)
}

func TestTimersAccumulateAverage(t *testing.T) {
	tm := NewTimers()
	tm.Record("physics_step", 1.0)
	tm.Record("physics_step", 3.0)

	snap := tm.Snapshot()
	stat := snap["physics_step"]
	assert.Equal(t, int64(2), stat.Calls)
	assert.InDelta(t, 4.0, stat.TotalMs, 1e-9)
	assert.InDelta(t, 2.0, stat.AvgMs, 1e-9)
}

func TestTimersTimeRecordsDuration(t *testing.T) {
	tm := NewTimers()
	tm.Time("noop", func() {})
	snap := tm.Snapshot()
	assert.Contains(t, snap, "noop")
	assert.Equal(t, int64(1), snap["noop"].Calls)
}
