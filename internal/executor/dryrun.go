package executor

import (
	"context"
	"time"

	"github.com/nerrad567/switchsched/internal/schedule"
)

// DryRun logs what a Switch would do without touching any device.
type DryRun struct {
	binding
	applied []schedule.Entry
}

var _ Executor = (*DryRun)(nil)

// NewDryRun binds sched for logging only.
func NewDryRun(sched *schedule.Schedule, opts Options) *DryRun {
	return &DryRun{binding: newBinding(sched, opts)}
}

// Apply logs the entry.
func (d *DryRun) Apply(_ context.Context, entry schedule.Entry, at time.Time) error {
	if d.skips(entry) {
		return nil
	}
	if _, ok := desiredState(entry.Action); !ok {
		d.logger.Warn("unrecognized action ignored", "device_id", entry.DeviceID, "action", entry.Action.String())
		return nil
	}
	d.applied = append(d.applied, entry)
	d.logger.Info("dry run: would switch device",
		"device_id", entry.DeviceID,
		"state", entry.Action.String(),
		"scheduled", entry.Time,
		"at", at)
	return nil
}

// ReconcileLastAction logs the state each target device should be in.
func (d *DryRun) ReconcileLastAction(_ context.Context) error {
	now := d.now()
	for _, id := range d.targets() {
		entry, ok := d.sched.LastActionFor(id, now)
		if !ok {
			continue
		}
		d.logger.Info("dry run: device should be", "device_id", id, "state", entry.Action.String(), "since", entry.Time)
	}
	return nil
}

// Applied returns the entries Apply accepted, in order.
func (d *DryRun) Applied() []schedule.Entry {
	out := make([]schedule.Entry, len(d.applied))
	copy(out, d.applied)
	return out
}
