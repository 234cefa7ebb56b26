// Package history implements the bounded time-reversal ring buffer
// described in spec.md §4.3: a fixed-capacity sequence of WorldState
// snapshots with periodic-or-forced save policy and backward/forward
// navigation.
package history

import (
	"time"

	"github.com/lixenwraith/terrarium/internal/cell"
)

// MaxSize is MAX_HISTORY_SIZE from spec.md §4.3.
const MaxSize = 1000

// PeriodicSaveInterval is the minimum simulation-time gap between saves
// when no user input occurred since the last one (spec.md §4.3).
const PeriodicSaveInterval = 0.5

// WorldState is one saved snapshot: a deep copy of the cell array plus
// the scalar bookkeeping spec.md §4.3 lists.
type WorldState struct {
	Cells          []cell.Cell
	Width          int
	Height         int
	CellPixelW     int
	CellPixelH     int
	Timestep       uint64
	TotalMass      float64
	RemovedMass    float64
	WallClockStamp time.Time
}

// History is a ring buffer of WorldState entries plus the cursor state
// goBackward/goForward navigate. It is not safe for concurrent use;
// World owns it from the single serial physics task (spec.md §5).
type History struct {
	entries                   []WorldState
	currentIndex              int // -1 means "live", else index into entries
	currentLiveState          *WorldState
	hasUserInputSinceLastSave bool
	lastSaveTime              float64
}

// New returns an empty history positioned at "live".
func New() *History {
	return &History{currentIndex: -1}
}

// MarkUserInput records that a command mutated the world since the last
// save, forcing the next ShouldSave check to succeed (spec.md §4.3).
func (h *History) MarkUserInput() {
	h.hasUserInputSinceLastSave = true
}

// ShouldSave reports whether the current simulationTime warrants a save,
// per spec.md §4.3's policy.
func (h *History) ShouldSave(simulationTime float64) bool {
	if h.hasUserInputSinceLastSave {
		return true
	}
	return simulationTime-h.lastSaveTime >= PeriodicSaveInterval
}

// Save appends a snapshot, evicting the oldest entry if the buffer is
// full, and resets the save-policy bookkeeping.
func (h *History) Save(state WorldState, simulationTime float64) {
	if len(h.entries) >= MaxSize {
		h.entries = h.entries[1:]
		if h.currentIndex >= 0 {
			h.currentIndex--
		}
	}
	h.entries = append(h.entries, state)
	h.hasUserInputSinceLastSave = false
	h.lastSaveTime = simulationTime
}

// Len returns the number of saved entries.
func (h *History) Len() int { return len(h.entries) }

// CanGoBackward reports whether goBackward would succeed.
func (h *History) CanGoBackward() bool {
	if len(h.entries) == 0 {
		return false
	}
	if h.currentIndex == -1 {
		return true
	}
	return h.currentIndex > 0
}

// CanGoForward reports whether goForward would succeed.
func (h *History) CanGoForward() bool {
	if h.currentIndex == -1 {
		return false
	}
	return h.currentIndex < len(h.entries)-1 || h.currentIndex == len(h.entries)-1 && h.currentLiveState != nil
}

// GoBackward moves the cursor one entry toward older history, capturing
// the live state first if this is the first backward step (spec.md
// §4.3's "before the first backward step from live"), and returns the
// state to restore.
func (h *History) GoBackward(liveSnapshot func() WorldState) (WorldState, bool) {
	if !h.CanGoBackward() {
		return WorldState{}, false
	}
	if h.currentIndex == -1 {
		live := liveSnapshot()
		h.currentLiveState = &live
		h.currentIndex = len(h.entries) - 1
		return h.entries[h.currentIndex], true
	}
	h.currentIndex--
	return h.entries[h.currentIndex], true
}

// GoForward moves the cursor one entry toward newer history, or restores
// currentLiveState when stepping forward past the last saved entry
// (spec.md §4.3's hasStoredCurrentState).
func (h *History) GoForward() (WorldState, bool) {
	if !h.CanGoForward() {
		return WorldState{}, false
	}
	if h.currentIndex == len(h.entries)-1 {
		state := *h.currentLiveState
		h.currentIndex = -1
		return state, true
	}
	h.currentIndex++
	return h.entries[h.currentIndex], true
}

// Clear resets the whole structure, including currentLiveState, so that
// CanGoBackward and CanGoForward are both false afterward (invariant I6).
func (h *History) Clear() {
	h.entries = nil
	h.currentIndex = -1
	h.currentLiveState = nil
	h.hasUserInputSinceLastSave = false
	h.lastSaveTime = 0
}
