package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/switchsched/internal/device"
	"github.com/nerrad567/switchsched/internal/driver"
	"github.com/nerrad567/switchsched/internal/schedule"
)

// EntryResponse is one schedule entry on the wire.
type EntryResponse struct {
	Time     time.Time `json:"time"`
	DeviceID string    `json:"device_id"`
	Action   string    `json:"action"`
	Line     int       `json:"line,omitempty"`
}

// TickResponse is the outcome of the most recently applied entry.
type TickResponse struct {
	Entry EntryResponse `json:"entry"`
	At    time.Time     `json:"at"`
	Error string        `json:"error,omitempty"`
}

// StatusResponse is the JSON form of driver.Status.
type StatusResponse struct {
	State          string         `json:"state"`
	StartedAt      time.Time      `json:"started_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Source         string         `json:"source,omitempty"`
	Entries        int            `json:"entries"`
	Next           *EntryResponse `json:"next,omitempty"`
	LastTick       *TickResponse  `json:"last_tick,omitempty"`
	LastReloadErr  string         `json:"last_reload_error,omitempty"`
	Applied        int            `json:"applied"`
	Failed         int            `json:"failed"`
	Reloads        int            `json:"reloads"`
	ReloadFailures int            `json:"reload_failures"`
	Rechecks       int            `json:"rechecks"`
}

// ScheduleResponse lists schedule entries.
type ScheduleResponse struct {
	Source  string          `json:"source"`
	Count   int             `json:"count"`
	Entries []EntryResponse `json:"entries"`
}

func entryResponse(e schedule.Entry) EntryResponse {
	return EntryResponse{
		Time:     e.Time,
		DeviceID: e.DeviceID,
		Action:   e.Action.String(),
		Line:     e.Line,
	}
}

func statusResponse(st driver.Status) StatusResponse {
	resp := StatusResponse{
		State:          st.State.String(),
		StartedAt:      st.StartedAt,
		UpdatedAt:      st.UpdatedAt,
		Source:         st.Schedule.Source(),
		Entries:        st.Schedule.Len(),
		Applied:        st.Applied,
		Failed:         st.Failed,
		Reloads:        st.Reloads,
		ReloadFailures: st.ReloadFailures,
		Rechecks:       st.Rechecks,
	}
	if st.Next != nil {
		next := entryResponse(*st.Next)
		resp.Next = &next
	}
	if st.LastTick != nil {
		resp.LastTick = &TickResponse{
			Entry: entryResponse(st.LastTick.Entry),
			At:    st.LastTick.At,
		}
		if st.LastTick.Err != nil {
			resp.LastTick.Error = st.LastTick.Err.Error()
		}
	}
	if st.LastReloadErr != nil {
		resp.LastReloadErr = st.LastReloadErr.Error()
	}
	return resp
}

// handleHealth reports liveness. A driver that has reached Done is still
// healthy: it simply has nothing left to do.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"state":   s.status.Status().State.String(),
		"version": s.version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse(s.status.Status()))
}

// handleSchedule lists the entries of the schedule in force.
//
// Query parameters:
//   - device: only entries for this device identifier
//   - upcoming: "true" to list only entries after now
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	upcoming := false
	if v := q.Get("upcoming"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "upcoming must be a boolean")
			return
		}
		upcoming = b
	}
	deviceID := q.Get("device")
	now := s.now()

	sched := s.status.Status().Schedule
	entries := make([]EntryResponse, 0, sched.Len())
	for _, e := range sched.Entries() {
		if deviceID != "" && e.DeviceID != deviceID {
			continue
		}
		if upcoming && !e.Time.After(now) {
			continue
		}
		entries = append(entries, entryResponse(e))
	}

	writeJSON(w, http.StatusOK, ScheduleResponse{
		Source:  sched.Source(),
		Count:   len(entries),
		Entries: entries,
	})
}

func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	records := []device.Record{}
	if s.devices != nil {
		records = append(records, s.devices.Records()...)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": records,
		"count":   len(records),
	})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := device.ValidateID(id); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if s.devices == nil {
		writeNotFound(w, "device not found")
		return
	}
	rec, ok := s.devices.Record(id)
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
