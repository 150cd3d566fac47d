package driver

import (
	"time"

	"github.com/nerrad567/switchsched/internal/schedule"
)

// State is the driver's lifecycle state.
type State int

// Driver states.
const (
	StateStarting State = iota
	StateWaiting
	StateApplying
	StateReloading
	StateDone
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateWaiting:
		return "waiting"
	case StateApplying:
		return "applying"
	case StateReloading:
		return "reloading"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Tick is the outcome of applying one entry.
type Tick struct {
	Entry schedule.Entry
	At    time.Time
	Err   error
}

// Status is an immutable snapshot of the driver.
type Status struct {
	State     State
	StartedAt time.Time
	UpdatedAt time.Time

	// Schedule is the schedule in force when the snapshot was taken.
	// Schedules are immutable, so sharing the pointer is safe.
	Schedule *schedule.Schedule

	// Next is the entry being waited for; nil when none.
	Next *schedule.Entry

	// LastTick is the most recent applied entry; nil before the first.
	LastTick *Tick

	// LastReloadErr is the error of the most recent reload, nil if it succeeded.
	LastReloadErr error

	Applied        int
	Failed         int
	Reloads        int
	ReloadFailures int
	Rechecks       int
}

// clone returns a copy that can be modified and republished.
func (s *Status) clone() *Status {
	c := *s
	return &c
}
