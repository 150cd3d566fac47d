package influxdb

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/switchsched/internal/infrastructure/config"
	"github.com/nerrad567/switchsched/internal/schedule"
)

type capture struct {
	mu     sync.Mutex
	points []*write.Point
}

func (c *capture) WritePoint(p *write.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = append(c.points, p)
}

func (c *capture) only(t *testing.T) *write.Point {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.points) != 1 {
		t.Fatalf("got %d points, want 1", len(c.points))
	}
	return c.points[0]
}

func tagValue(p *write.Point, key string) string {
	for _, tag := range p.TagList() {
		if tag.Key == key {
			return tag.Value
		}
	}
	return ""
}

func fieldValue(p *write.Point, key string) interface{} {
	for _, f := range p.FieldList() {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

func TestRecordTick(t *testing.T) {
	due := time.Date(2024, 12, 1, 18, 0, 0, 0, time.UTC)
	entry := schedule.Entry{Time: due, DeviceID: "087610 123456", Action: schedule.ActionOn}

	tests := []struct {
		name    string
		err     error
		wantOK  bool
		wantErr string
	}{
		{name: "success", wantOK: true},
		{name: "failure", err: errors.New("boom"), wantOK: false, wantErr: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &capture{}
			NewRecorder(c, "home").RecordTick(entry, due.Add(250*time.Millisecond), tt.err)

			p := c.only(t)
			if p.Name() != MeasurementTick {
				t.Errorf("Name() = %q, want %q", p.Name(), MeasurementTick)
			}
			if got := tagValue(p, "device_id"); got != "087610 123456" {
				t.Errorf("device_id = %q", got)
			}
			if got := tagValue(p, "action"); got != "on" {
				t.Errorf("action = %q, want on", got)
			}
			if got := tagValue(p, "site"); got != "home" {
				t.Errorf("site = %q, want home", got)
			}
			if got := fieldValue(p, "ok"); got != tt.wantOK {
				t.Errorf("ok = %v, want %v", got, tt.wantOK)
			}
			if got := fieldValue(p, "lag_ms"); got != int64(250) {
				t.Errorf("lag_ms = %v, want 250", got)
			}
			if tt.wantErr != "" && fieldValue(p, "error") != tt.wantErr {
				t.Errorf("error field = %v, want %q", fieldValue(p, "error"), tt.wantErr)
			}
			if tt.wantErr == "" && fieldValue(p, "error") != nil {
				t.Errorf("unexpected error field %v", fieldValue(p, "error"))
			}
		})
	}
}

func TestRecordReload(t *testing.T) {
	c := &capture{}
	at := time.Date(2024, 12, 1, 18, 0, 0, 0, time.UTC)
	NewRecorder(c, "home").RecordReload(at, 42, nil)

	p := c.only(t)
	if p.Name() != MeasurementReload {
		t.Errorf("Name() = %q", p.Name())
	}
	if got := fieldValue(p, "entries"); got != int64(42) {
		t.Errorf("entries = %v, want 42", got)
	}
	if !p.Time().Equal(at) {
		t.Errorf("Time() = %v, want %v", p.Time(), at)
	}
}

func TestRecordReconcile_LineProtocol(t *testing.T) {
	c := &capture{}
	at := time.Date(2024, 12, 1, 18, 0, 0, 0, time.UTC)
	NewRecorder(c, "home").RecordReconcile(at, errors.New("auth"))

	line := write.PointToLineProtocol(c.only(t), time.Second)
	for _, want := range []string{"schedule_reconcile,site=home", "ok=false", `error="auth"`} {
		if !strings.Contains(line, want) {
			t.Errorf("line protocol %q missing %q", line, want)
		}
	}
}

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: true, URL: "http://127.0.0.1:1"})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClient_NilIsNotConnected(t *testing.T) {
	var c *Client
	if c.IsConnected() {
		t.Error("nil client reports connected")
	}
}
