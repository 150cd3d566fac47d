package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/switchsched/internal/device"
	"github.com/nerrad567/switchsched/internal/schedule"
)

// Switch applies schedule entries to real devices through a Controller.
type Switch struct {
	binding
	ctrl device.Controller
}

var _ Executor = (*Switch)(nil)

// NewSwitch binds sched to ctrl. The schedule's source is used for reloads.
func NewSwitch(sched *schedule.Schedule, ctrl device.Controller, opts Options) *Switch {
	return &Switch{
		binding: newBinding(sched, opts),
		ctrl:    ctrl,
	}
}

// Apply switches the entry's device. Unrecognized actions and devices
// outside the filter are skipped without error.
func (s *Switch) Apply(ctx context.Context, entry schedule.Entry, at time.Time) error {
	if s.skips(entry) {
		s.logger.Debug("entry for other device skipped", "device_id", entry.DeviceID, "filter", s.filter)
		return nil
	}
	desired, ok := desiredState(entry.Action)
	if !ok {
		s.logger.Warn("unrecognized action ignored",
			"device_id", entry.DeviceID,
			"action", entry.Action.String(),
			"line", entry.Line)
		return nil
	}

	if err := s.ctrl.SetState(ctx, entry.DeviceID, desired); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrAction, entry.DeviceID, entry.Action, err)
	}

	s.logger.Info("applied schedule entry",
		"device_id", entry.DeviceID,
		"state", desired.String(),
		"scheduled", entry.Time,
		"delay", at.Sub(entry.Time).Round(time.Millisecond).String())
	return nil
}

// ReconcileLastAction brings every target device to the state of its last
// entry at or before now. A device is only switched when its observed state
// differs. Failures for individual devices are joined; an authentication
// failure aborts immediately.
func (s *Switch) ReconcileLastAction(ctx context.Context) error {
	now := s.now()
	var errs []error

	for _, id := range s.targets() {
		entry, ok := s.sched.LastActionFor(id, now)
		if !ok {
			s.logger.Debug("no past entry to reconcile", "device_id", id)
			continue
		}
		desired, ok := desiredState(entry.Action)
		if !ok {
			s.logger.Warn("last entry has unrecognized action, not reconciling",
				"device_id", id, "action", entry.Action.String(), "line", entry.Line)
			continue
		}

		if err := s.reconcile(ctx, id, desired); err != nil {
			if errors.Is(err, device.ErrAuth) {
				return err
			}
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Switch) reconcile(ctx context.Context, id string, desired device.State) error {
	observed, err := s.ctrl.State(ctx, id)
	switch {
	case err == nil && observed == desired:
		s.logger.Debug("device already in scheduled state", "device_id", id, "state", desired.String())
		return nil
	case errors.Is(err, device.ErrStateUnknown):
		// Switch blind; the device may be able to take a command anyway.
		s.logger.Warn("device state unknown, switching anyway", "device_id", id, "error", err)
	case err != nil:
		return fmt.Errorf("%w: reading %s: %w", ErrAction, id, err)
	}

	if err := s.ctrl.SetState(ctx, id, desired); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrAction, id, desired, err)
	}
	s.logger.Info("reconciled device", "device_id", id, "from", observed.String(), "to", desired.String())
	return nil
}
