package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/switchsched/internal/device"
	"github.com/nerrad567/switchsched/internal/schedule"
)

var t0 = time.Date(2024, 12, 1, 18, 0, 0, 0, time.UTC)

// fakeController serves states from a map and records SetState calls.
type fakeController struct {
	states   map[string]device.State
	stateErr map[string]error
	setErr   map[string]error
	sets     []string
}

func newFakeController(states map[string]device.State) *fakeController {
	return &fakeController{
		states:   states,
		stateErr: map[string]error{},
		setErr:   map[string]error{},
	}
}

func (f *fakeController) Authenticate(context.Context) error { return nil }

func (f *fakeController) State(_ context.Context, id string) (device.State, error) {
	if err := f.stateErr[id]; err != nil {
		return device.StateUnknown, err
	}
	return f.states[id], nil
}

func (f *fakeController) SetState(_ context.Context, id string, desired device.State) error {
	if err := f.setErr[id]; err != nil {
		return err
	}
	f.sets = append(f.sets, id+"="+desired.String())
	f.states[id] = desired
	return nil
}

func writeSchedule(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lights.schedule")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadSchedule(t *testing.T, path string) *schedule.Schedule {
	t.Helper()
	s, err := schedule.Load(path, time.UTC)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

const twoEntries = `2024-12-01 18:00:00 tree on
2024-12-01 19:00:00 tree off
`

// Started half way between an "on" and an "off" entry with the device off:
// reconciling turns it on.
func TestSwitch_ReconcileTurnsDeviceOn(t *testing.T) {
	ctrl := newFakeController(map[string]device.State{"tree": device.StateOff})
	sw := NewSwitch(loadSchedule(t, writeSchedule(t, twoEntries)), ctrl, Options{
		Location: time.UTC,
		Clock:    fixedClock(t0.Add(30 * time.Minute)),
	})

	if err := sw.ReconcileLastAction(context.Background()); err != nil {
		t.Fatalf("ReconcileLastAction() error = %v", err)
	}
	if len(ctrl.sets) != 1 || ctrl.sets[0] != "tree=on" {
		t.Errorf("sets = %v, want [tree=on]", ctrl.sets)
	}
}

func TestSwitch_ReconcileSkipsWhenAlreadyInState(t *testing.T) {
	ctrl := newFakeController(map[string]device.State{"tree": device.StateOn})
	sw := NewSwitch(loadSchedule(t, writeSchedule(t, twoEntries)), ctrl, Options{
		Clock: fixedClock(t0.Add(30 * time.Minute)),
	})

	if err := sw.ReconcileLastAction(context.Background()); err != nil {
		t.Fatalf("ReconcileLastAction() error = %v", err)
	}
	if len(ctrl.sets) != 0 {
		t.Errorf("sets = %v, want none", ctrl.sets)
	}
}

func TestSwitch_ReconcileBeforeFirstEntryDoesNothing(t *testing.T) {
	ctrl := newFakeController(map[string]device.State{"tree": device.StateOn})
	sw := NewSwitch(loadSchedule(t, writeSchedule(t, twoEntries)), ctrl, Options{
		Clock: fixedClock(t0.Add(-time.Hour)),
	})

	if err := sw.ReconcileLastAction(context.Background()); err != nil {
		t.Fatalf("ReconcileLastAction() error = %v", err)
	}
	if len(ctrl.sets) != 0 {
		t.Errorf("sets = %v, want none", ctrl.sets)
	}
}

func TestSwitch_ReconcileFansOutPerDevice(t *testing.T) {
	content := `2024-12-01 17:00:00 porch on
2024-12-01 18:00:00 tree on
2024-12-01 18:10:00 porch off
2024-12-01 20:00:00 garage on
`
	ctrl := newFakeController(map[string]device.State{
		"porch":  device.StateOn,
		"tree":   device.StateOn,
		"garage": device.StateOff,
	})
	sw := NewSwitch(loadSchedule(t, writeSchedule(t, content)), ctrl, Options{
		Clock: fixedClock(t0.Add(30 * time.Minute)),
	})

	if err := sw.ReconcileLastAction(context.Background()); err != nil {
		t.Fatalf("ReconcileLastAction() error = %v", err)
	}
	if strings.Join(ctrl.sets, ",") != "porch=off" {
		t.Errorf("sets = %v, want [porch=off]", ctrl.sets)
	}
}

func TestSwitch_ReconcileWithDeviceFilter(t *testing.T) {
	content := `2024-12-01 17:00:00 porch on
2024-12-01 17:30:00 tree on
`
	ctrl := newFakeController(map[string]device.State{"porch": device.StateOff, "tree": device.StateOff})
	sw := NewSwitch(loadSchedule(t, writeSchedule(t, content)), ctrl, Options{
		Device: "tree",
		Clock:  fixedClock(t0),
	})

	if err := sw.ReconcileLastAction(context.Background()); err != nil {
		t.Fatal(err)
	}
	if strings.Join(ctrl.sets, ",") != "tree=on" {
		t.Errorf("sets = %v, want [tree=on]", ctrl.sets)
	}

	entry := schedule.Entry{Time: t0, DeviceID: "porch", Action: schedule.ActionOff}
	if err := sw.Apply(context.Background(), entry, t0); err != nil {
		t.Fatal(err)
	}
	if len(ctrl.sets) != 1 {
		t.Errorf("Apply for filtered-out device switched it: %v", ctrl.sets)
	}
}

func TestSwitch_ReconcileStateUnknownSwitchesBlind(t *testing.T) {
	ctrl := newFakeController(map[string]device.State{})
	ctrl.stateErr["tree"] = device.ErrStateUnknown
	sw := NewSwitch(loadSchedule(t, writeSchedule(t, twoEntries)), ctrl, Options{
		Clock: fixedClock(t0.Add(90 * time.Minute)),
	})

	if err := sw.ReconcileLastAction(context.Background()); err != nil {
		t.Fatal(err)
	}
	if strings.Join(ctrl.sets, ",") != "tree=off" {
		t.Errorf("sets = %v, want [tree=off]", ctrl.sets)
	}
}

func TestSwitch_ReconcileErrors(t *testing.T) {
	content := `2024-12-01 17:00:00 porch on
2024-12-01 17:30:00 tree on
`
	t.Run("joined action errors", func(t *testing.T) {
		ctrl := newFakeController(map[string]device.State{"porch": device.StateOff, "tree": device.StateOff})
		ctrl.setErr["porch"] = errors.New("unreachable")
		sw := NewSwitch(loadSchedule(t, writeSchedule(t, content)), ctrl, Options{Clock: fixedClock(t0)})

		err := sw.ReconcileLastAction(context.Background())
		if !errors.Is(err, ErrAction) {
			t.Fatalf("error = %v, want ErrAction", err)
		}
		if strings.Join(ctrl.sets, ",") != "tree=on" {
			t.Errorf("other devices should still be reconciled, sets = %v", ctrl.sets)
		}
	})

	t.Run("auth aborts", func(t *testing.T) {
		ctrl := newFakeController(map[string]device.State{})
		ctrl.stateErr["porch"] = device.ErrAuth
		sw := NewSwitch(loadSchedule(t, writeSchedule(t, content)), ctrl, Options{Clock: fixedClock(t0)})

		err := sw.ReconcileLastAction(context.Background())
		if !errors.Is(err, device.ErrAuth) {
			t.Fatalf("error = %v, want device.ErrAuth", err)
		}
		if len(ctrl.sets) != 0 {
			t.Errorf("sets = %v, want none after auth failure", ctrl.sets)
		}
	})
}

func TestSwitch_Apply(t *testing.T) {
	ctrl := newFakeController(map[string]device.State{"tree": device.StateOff})
	sw := NewSwitch(loadSchedule(t, writeSchedule(t, twoEntries)), ctrl, Options{})
	ctx := context.Background()

	on := schedule.Entry{Time: t0, DeviceID: "tree", Action: schedule.ActionOn}
	if err := sw.Apply(ctx, on, t0.Add(time.Second)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	toggle := schedule.Entry{Time: t0, DeviceID: "tree", Action: schedule.ParseAction("toggle")}
	if err := sw.Apply(ctx, toggle, t0); err != nil {
		t.Fatalf("Apply(unrecognized) error = %v", err)
	}
	if strings.Join(ctrl.sets, ",") != "tree=on" {
		t.Errorf("sets = %v, want only tree=on", ctrl.sets)
	}

	ctrl.setErr["tree"] = errors.New("timeout")
	off := schedule.Entry{Time: t0, DeviceID: "tree", Action: schedule.ActionOff}
	if err := sw.Apply(ctx, off, t0); !errors.Is(err, ErrAction) {
		t.Errorf("Apply() error = %v, want ErrAction", err)
	}
}

func TestReload(t *testing.T) {
	path := writeSchedule(t, twoEntries)
	sw := NewSwitch(loadSchedule(t, path), newFakeController(nil), Options{Location: time.UTC})
	original := sw.CurrentSchedule()

	if err := sw.Reload(); err != nil {
		t.Fatalf("Reload() unchanged error = %v", err)
	}
	if !sw.CurrentSchedule().Equal(original) {
		t.Error("reload of unchanged source changed the schedule")
	}

	if err := os.WriteFile(path, []byte(twoEntries+"2024-12-01 21:00:00 tree on\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := sw.Reload(); err != nil {
		t.Fatalf("Reload() changed error = %v", err)
	}
	if sw.CurrentSchedule().Len() != 3 {
		t.Errorf("Len() after reload = %d, want 3", sw.CurrentSchedule().Len())
	}
}

// Deleting or corrupting the source keeps the previous schedule in force.
func TestReload_FailureKeepsPreviousSchedule(t *testing.T) {
	path := writeSchedule(t, twoEntries)
	sw := NewSwitch(loadSchedule(t, path), newFakeController(nil), Options{Location: time.UTC})
	before := sw.CurrentSchedule()

	if err := os.WriteFile(path, []byte("garbage\n"), 0600); err != nil {
		t.Fatal(err)
	}
	err := sw.Reload()
	if !errors.Is(err, ErrReload) || !errors.Is(err, schedule.ErrParse) {
		t.Errorf("Reload(garbage) error = %v, want ErrReload wrapping ErrParse", err)
	}
	if sw.CurrentSchedule() != before {
		t.Error("failed reload replaced the schedule")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	err = sw.Reload()
	if !errors.Is(err, ErrReload) || !errors.Is(err, schedule.ErrSourceUnavailable) {
		t.Errorf("Reload(deleted) error = %v, want ErrReload wrapping ErrSourceUnavailable", err)
	}
	if sw.CurrentSchedule() != before {
		t.Error("failed reload replaced the schedule")
	}
}

func TestDryRun(t *testing.T) {
	d := NewDryRun(loadSchedule(t, writeSchedule(t, twoEntries)), Options{Clock: fixedClock(t0)})
	ctx := context.Background()

	if err := d.ReconcileLastAction(ctx); err != nil {
		t.Fatalf("ReconcileLastAction() error = %v", err)
	}
	for _, e := range d.CurrentSchedule().Entries() {
		if err := d.Apply(ctx, e, e.Time); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}
	_ = d.Apply(ctx, schedule.Entry{Time: t0, DeviceID: "tree", Action: schedule.ParseAction("dim")}, t0)

	if got := d.Applied(); len(got) != 2 {
		t.Errorf("Applied() = %v, want both recognized entries", got)
	}
}
