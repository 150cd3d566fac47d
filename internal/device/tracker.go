package device

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Tracker.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Tracker is a Controller that remembers the outcome of every call it forwards.
//
// The wrapped controller is only ever used by the scheduling goroutine, but
// Records may be read from any goroutine (the status API does so).
//
// All public methods are thread-safe.
type Tracker struct {
	ctrl    Controller
	records map[string]Record
	mu      sync.RWMutex // Protects records
	logger  Logger
	now     func() time.Time
}

// NewTracker wraps ctrl.
func NewTracker(ctrl Controller) *Tracker {
	return &Tracker{
		ctrl:    ctrl,
		records: make(map[string]Record),
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger for the tracker.
func (t *Tracker) SetLogger(logger Logger) {
	t.logger = logger
}

// Authenticate forwards to the wrapped controller.
func (t *Tracker) Authenticate(ctx context.Context) error {
	return t.ctrl.Authenticate(ctx)
}

// State queries the wrapped controller and records the observation.
func (t *Tracker) State(ctx context.Context, id string) (State, error) {
	state, err := t.ctrl.State(ctx, id)
	t.record(id, state, false, err)
	return state, err
}

// SetState forwards to the wrapped controller and records the commanded state.
func (t *Tracker) SetState(ctx context.Context, id string, desired State) error {
	err := t.ctrl.SetState(ctx, id, desired)
	if err != nil {
		t.record(id, StateUnknown, true, err)
		return err
	}
	t.record(id, desired, true, nil)
	t.logger.Debug("device state commanded", "device_id", id, "state", desired.String())
	return nil
}

// Toggle uses the wrapped controller's native toggle when it has one,
// otherwise it reads the state and sets the opposite.
func (t *Tracker) Toggle(ctx context.Context, id string) error {
	if toggler, ok := t.ctrl.(Toggler); ok {
		err := toggler.Toggle(ctx, id)
		t.record(id, StateUnknown, true, err)
		return err
	}

	current, err := t.State(ctx, id)
	if err != nil {
		return fmt.Errorf("reading state before toggle: %w", err)
	}
	if !current.Known() {
		return fmt.Errorf("toggling %q: %w", id, ErrStateUnknown)
	}
	if current == StateOn {
		return t.SetState(ctx, id, StateOff)
	}
	return t.SetState(ctx, id, StateOn)
}

// List forwards to the wrapped controller if it can enumerate devices.
func (t *Tracker) List(ctx context.Context) ([]Info, error) {
	lister, ok := t.ctrl.(Lister)
	if !ok {
		return nil, fmt.Errorf("listing devices: %w", ErrNotSupported)
	}
	infos, err := lister.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		t.record(info.ID, info.State, false, nil)
	}
	return infos, nil
}

// Record returns what is known about one device.
func (t *Tracker) Record(id string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.records[id]
	return r, ok
}

// Records returns every known device record, sorted by ID.
func (t *Tracker) Records() []Record {
	t.mu.RLock()
	out := make([]Record, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, r)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *Tracker) record(id string, state State, commanded bool, err error) {
	r := Record{
		ID:        id,
		State:     state,
		Commanded: commanded,
		UpdatedAt: t.now(),
	}
	if err != nil {
		r.Error = err.Error()
	}

	t.mu.Lock()
	t.records[id] = r
	t.mu.Unlock()
}
