package lti

import (
	"time"

	"github.com/tidwall/gjson"
)

// Status: отображаемый статус события.
type Status string

// Статусы событий.
const (
	StatusUpcoming       Status = "Upcoming"
	StatusExpired        Status = "Expired"
	StatusCapturing      Status = "Capturing"
	StatusFailed         Status = "Failed"
	StatusProcessing     Status = "Processing"
	StatusPublished      Status = "Published"
	StatusUnwanted       Status = "Unwanted"
	StatusAwaitingReview Status = "Awaiting Review"
)

// Статусы backend'а.
const (
	backendStatusPrefix = "EVENTS.EVENTS.STATUS."

	backendScheduled         = backendStatusPrefix + "SCHEDULED"
	backendRecording         = backendStatusPrefix + "RECORDING"
	backendProcessingFailure = backendStatusPrefix + "PROCESSING_FAILURE"
	backendRecordingFailure  = backendStatusPrefix + "RECORDING_FAILURE"
	backendIngesting         = backendStatusPrefix + "INGESTING"
	backendProcessing        = backendStatusPrefix + "PROCESSING"
	backendPending           = backendStatusPrefix + "PENDING"
	backendProcessed         = backendStatusPrefix + "PROCESSED"
)

// WorkflowRunning: состояние workflow, пока событие обрабатывается.
const WorkflowRunning = "RUNNING"

// Event: событие серии в представлении LTI-инструмента.
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	SeriesID        string    `json:"series_id,omitempty"`
	AgentID         string    `json:"agent_id,omitempty"`
	Presenters      []string  `json:"presenters"`
	Start           time.Time `json:"start_date"`
	End             time.Time `json:"end_date"`
	EventStatus     string    `json:"event_status"`
	WorkflowState   string    `json:"workflow_state,omitempty"`
	Publications    int       `json:"publications"`
	HasOpenComments bool      `json:"has_open_comments"`
	Status          Status    `json:"status"`
}

// Duration: длительность записи.
func (e Event) Duration() time.Duration {
	if e.End.Before(e.Start) {
		return 0
	}
	return e.End.Sub(e.Start)
}

// DeriveStatus вычисляет отображаемый статус события на момент now.
// Неизвестный статус backend'а даёт StatusProcessing.
func DeriveStatus(e Event, now time.Time) Status {
	future := now.Before(e.Start)
	switch e.EventStatus {
	case backendScheduled:
		if future {
			return StatusUpcoming
		}
		return StatusExpired
	case backendRecording:
		return StatusCapturing
	case backendProcessingFailure, backendRecordingFailure:
		return StatusFailed
	case backendIngesting, backendProcessing, backendPending:
		return StatusProcessing
	case backendProcessed:
		switch {
		case future:
			return StatusUpcoming
		case e.Publications > 0:
			return StatusPublished
		case !e.HasOpenComments:
			return StatusUnwanted
		default:
			return StatusAwaitingReview
		}
	}
	return StatusProcessing
}

// parseEvent разбирает событие из ответа backend'а.
// Агент берётся из location, при его отсутствии из agent_id.
func parseEvent(r gjson.Result) Event {
	e := Event{
		ID:              r.Get("id").String(),
		Title:           r.Get("title").String(),
		SeriesID:        r.Get("series.id").String(),
		AgentID:         r.Get("location").String(),
		EventStatus:     r.Get("event_status").String(),
		WorkflowState:   r.Get("workflow_state").String(),
		Publications:    len(r.Get("publications").Array()),
		HasOpenComments: r.Get("has_open_comments").Bool(),
		Presenters:      []string{},
	}
	if e.AgentID == "" {
		e.AgentID = r.Get("agent_id").String()
	}
	for _, p := range r.Get("presenters").Array() {
		e.Presenters = append(e.Presenters, p.String())
	}
	e.Start = parseTime(r.Get("start_date").String())
	e.End = parseTime(r.Get("end_date").String())
	return e
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05Z0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// uniqueStatuses возвращает статусы в порядке первого появления.
func uniqueStatuses(events []Event) []Status {
	seen := make(map[Status]struct{})
	out := []Status{}
	for _, e := range events {
		if _, ok := seen[e.Status]; ok {
			continue
		}
		seen[e.Status] = struct{}{}
		out = append(out, e.Status)
	}
	return out
}
