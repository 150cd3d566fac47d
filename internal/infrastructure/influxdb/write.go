package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/switchsched/internal/schedule"
)

// Measurement names written by Recorder.
const (
	MeasurementTick      = "schedule_tick"
	MeasurementReload    = "schedule_reload"
	MeasurementReconcile = "schedule_reconcile"
)

// PointWriter accepts points for asynchronous delivery. *Client implements it.
type PointWriter interface {
	WritePoint(p *write.Point)
}

// Recorder turns driver events into InfluxDB points. It never blocks: the
// write API buffers points and flushes them in batches.
type Recorder struct {
	w    PointWriter
	site string
}

// NewRecorder returns a Recorder writing to w. Every point is tagged with site.
func NewRecorder(w PointWriter, site string) *Recorder {
	return &Recorder{w: w, site: site}
}

// RecordTick writes one point per applied schedule entry.
//
// Example point:
//
//	schedule_tick,site=home,device_id=087610\ 123456,action=on ok=true,lag_ms=12i
func (r *Recorder) RecordTick(entry schedule.Entry, at time.Time, err error) {
	fields := map[string]interface{}{
		"ok":     err == nil,
		"lag_ms": at.Sub(entry.Time).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	r.w.WritePoint(write.NewPoint(MeasurementTick, map[string]string{
		"site":      r.site,
		"device_id": entry.DeviceID,
		"action":    entry.Action.String(),
	}, fields, at))
}

// RecordReload writes the outcome of a schedule reload.
func (r *Recorder) RecordReload(at time.Time, entries int, err error) {
	fields := map[string]interface{}{
		"ok":      err == nil,
		"entries": entries,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	r.w.WritePoint(write.NewPoint(MeasurementReload, map[string]string{"site": r.site}, fields, at))
}

// RecordReconcile writes the outcome of a reconciliation pass.
func (r *Recorder) RecordReconcile(at time.Time, err error) {
	fields := map[string]interface{}{"ok": err == nil}
	if err != nil {
		fields["error"] = err.Error()
	}
	r.w.WritePoint(write.NewPoint(MeasurementReconcile, map[string]string{"site": r.site}, fields, at))
}
