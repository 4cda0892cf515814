package event

import (
	"maps"
	"time"

	"github.com/xraph/foreman/id"
)

// Type names a lifecycle transition published on the bus.
type Type string

// Event types published by the job manager.
const (
	TypeJobCreated   Type = "job_created"
	TypeJobQueued    Type = "job_queued"
	TypeJobStarted   Type = "job_started"
	TypeJobCompleted Type = "job_completed"
	TypeJobFailed    Type = "job_failed"
	TypeJobCancelled Type = "job_cancelled"
)

// Event is a lifecycle notification delivered to subscribers. Handlers
// must treat it as a read-only snapshot; each subscriber receives its
// own copy of Fields.
type Event struct {
	ID        id.EventID     `json:"id"`
	Type      Type           `json:"type"`
	JobID     id.JobID       `json:"job_id"`
	Timestamp time.Time      `json:"timestamp"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// clone returns a copy of the event with its own Fields map.
func (e Event) clone() Event {
	cp := e
	cp.Fields = maps.Clone(e.Fields)
	return cp
}
