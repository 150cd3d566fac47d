package driver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/switchsched/internal/executor"
	"github.com/nerrad567/switchsched/internal/schedule"
)

// Logger defines the logging interface used by the driver.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder receives one call per driver event. Implementations must not
// block; the InfluxDB recorder buffers writes.
type Recorder interface {
	RecordTick(entry schedule.Entry, at time.Time, err error)
	RecordReload(at time.Time, entries int, err error)
	RecordReconcile(at time.Time, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordTick(schedule.Entry, time.Time, error) {}
func (noopRecorder) RecordReload(time.Time, int, error)          {}
func (noopRecorder) RecordReconcile(time.Time, error)            {}

// Options configures a driver run. The zero value is usable.
type Options struct {
	Logger Logger

	// Clock defaults to the system clock.
	Clock Clock

	// Changes wakes the driver early to reload the schedule, typically
	// schedule.Watcher.Changes(). Nil disables.
	Changes <-chan struct{}

	// Recheck triggers a periodic ReconcileLastAction. Nil disables.
	Recheck cron.Schedule

	// Recorder receives metrics. Nil disables.
	Recorder Recorder
}

// wake is why the driver left the Waiting state.
type wake int

const (
	wakeDue wake = iota
	wakeChanged
	wakeRecheck
	wakeCancelled
)

// Handle observes a running driver.
type Handle struct {
	done   chan struct{}
	status atomic.Pointer[Status]
}

// Wait blocks until the driver reaches Done. It always returns nil: action
// and reload failures are logged and counted in Status, never fatal.
func (h *Handle) Wait() error {
	<-h.done
	return nil
}

// Done is closed when the driver reaches Done.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Status returns the latest snapshot. Safe for concurrent use.
func (h *Handle) Status() Status {
	return *h.status.Load()
}

type driver struct {
	exec     executor.Executor
	opts     Options
	logger   Logger
	clock    Clock
	recorder Recorder
	handle   *Handle

	status      *Status // owned by the run goroutine; published by copy
	nextRecheck time.Time
}

// Start reconciles once, synchronously, then runs the schedule on a new
// goroutine.
//
// Parameters:
//   - ctx: cancelling it moves the driver to Done without applying anything further
//   - exec: the executor; owned by the driver until Done
//   - opts: optional collaborators
//
// Returns:
//   - *Handle: for Wait, Done and Status
//   - error: wrapping ErrStartup if the initial reconciliation fails; no
//     goroutine is started in that case
func Start(ctx context.Context, exec executor.Executor, opts Options) (*Handle, error) {
	if exec == nil {
		return nil, fmt.Errorf("%w: nil executor", ErrStartup)
	}

	d := &driver{
		exec:     exec,
		opts:     opts,
		logger:   opts.Logger,
		clock:    opts.Clock,
		recorder: opts.Recorder,
		handle:   &Handle{done: make(chan struct{})},
	}
	if d.logger == nil {
		d.logger = noopLogger{}
	}
	if d.clock == nil {
		d.clock = systemClock{}
	}
	if d.recorder == nil {
		d.recorder = noopRecorder{}
	}

	now := d.clock.Now()
	d.status = &Status{
		State:     StateStarting,
		StartedAt: now,
		Schedule:  exec.CurrentSchedule(),
	}
	d.publish()

	err := exec.ReconcileLastAction(ctx)
	d.recorder.RecordReconcile(now, err)
	if err != nil {
		d.status.State = StateDone
		d.publish()
		close(d.handle.done)
		return nil, fmt.Errorf("%w: %w", ErrStartup, err)
	}

	if opts.Recheck != nil {
		d.nextRecheck = opts.Recheck.Next(now)
	}

	d.logger.Info("schedule driver started",
		"source", exec.CurrentSchedule().Source(),
		"entries", exec.CurrentSchedule().Len())

	go d.run(ctx)
	return d.handle, nil
}

func (d *driver) run(ctx context.Context) {
	defer close(d.handle.done)
	defer func() {
		d.status.State = StateDone
		d.status.Next = nil
		d.publish()
		d.logger.Info("schedule driver done",
			"applied", d.status.Applied,
			"failed", d.status.Failed)
	}()

	first := true
	for {
		if ctx.Err() != nil {
			return
		}
		if !first {
			d.reload()
		}
		first = false

		now := d.clock.Now()
		sched := d.exec.CurrentSchedule()
		next, ok := sched.NextAction(now)
		if !ok {
			d.logger.Info("no further schedule entries", "source", sched.Source())
			return
		}

		d.status.State = StateWaiting
		d.status.Schedule = sched
		d.status.Next = &next
		d.publish()
		d.logger.Debug("waiting for next entry",
			"device_id", next.DeviceID,
			"action", next.Action.String(),
			"at", next.Time,
			"in", next.Time.Sub(now).Round(time.Second).String())

		w := d.wait(ctx, next.Time.Sub(now))
		if w == wakeCancelled {
			return
		}
		// A change or recheck can win the select while the entry is also due.
		if w == wakeDue || !d.clock.Now().Before(next.Time) {
			d.apply(ctx, sched, next.Time)
		}
		switch w {
		case wakeChanged:
			d.logger.Info("schedule source changed, reloading")
		case wakeRecheck:
			d.recheck(ctx)
		}
	}
}

// wait suspends until the entry is due or something else wakes the driver.
func (d *driver) wait(ctx context.Context, delay time.Duration) wake {
	if delay < 0 {
		delay = 0
	}
	due := d.clock.NewTimer(delay)
	defer due.Stop()

	var recheckC <-chan time.Time
	if d.opts.Recheck != nil {
		r := d.clock.NewTimer(d.nextRecheck.Sub(d.clock.Now()))
		defer r.Stop()
		recheckC = r.C()
	}

	select {
	case <-ctx.Done():
		return wakeCancelled
	case <-due.C():
		return wakeDue
	case <-d.opts.Changes:
		return wakeChanged
	case <-recheckC:
		return wakeRecheck
	}
}

// apply hands every entry at the due timestamp to the executor, in order.
func (d *driver) apply(ctx context.Context, sched *schedule.Schedule, at time.Time) {
	d.status.State = StateApplying
	d.publish()

	for _, entry := range sched.EntriesAt(at) {
		if ctx.Err() != nil {
			return
		}
		now := d.clock.Now()
		err := d.exec.Apply(ctx, entry, now)
		d.recorder.RecordTick(entry, now, err)

		tick := &Tick{Entry: entry, At: now, Err: err}
		d.status.LastTick = tick
		if err != nil {
			d.status.Failed++
			d.logger.Error("applying schedule entry failed",
				"device_id", entry.DeviceID,
				"action", entry.Action.String(),
				"error", err)
		} else {
			d.status.Applied++
		}
		d.publish()
	}
}

func (d *driver) reload() {
	d.status.State = StateReloading
	d.publish()

	now := d.clock.Now()
	err := d.exec.Reload()
	sched := d.exec.CurrentSchedule()
	d.recorder.RecordReload(now, sched.Len(), err)

	d.status.Reloads++
	d.status.LastReloadErr = err
	d.status.Schedule = sched
	if err != nil {
		d.status.ReloadFailures++
		d.logger.Warn("schedule reload failed, keeping previous schedule", "error", err)
	}
}

func (d *driver) recheck(ctx context.Context) {
	now := d.clock.Now()
	d.nextRecheck = d.opts.Recheck.Next(now)
	d.status.Rechecks++

	err := d.exec.ReconcileLastAction(ctx)
	d.recorder.RecordReconcile(now, err)
	if err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Warn("periodic reconcile failed", "error", err)
	}
}

func (d *driver) publish() {
	d.status.UpdatedAt = d.clock.Now()
	d.handle.status.Store(d.status.clone())
}
