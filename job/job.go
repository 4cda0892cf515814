package job

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/xraph/foreman"
	"github.com/xraph/foreman/id"
)

// Status represents the lifecycle status of a job.
type Status string

const (
	// StatusPending means the job exists but has not been submitted
	// for processing.
	StatusPending Status = "pending"
	// StatusQueued means the job is waiting in the FIFO queue.
	StatusQueued Status = "queued"
	// StatusRunning means a worker is currently executing the job.
	StatusRunning Status = "running"
	// StatusCompleted means the job finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the job failed.
	StatusFailed Status = "failed"
	// StatusCancelled means the job was explicitly cancelled before it ran.
	StatusCancelled Status = "cancelled"
)

// transitions is the full state graph. Statuses absent from the map
// are terminal.
var transitions = map[Status][]Status{
	StatusPending: {StatusQueued, StatusCancelled},
	StatusQueued:  {StatusRunning, StatusFailed, StatusCancelled},
	StatusRunning: {StatusCompleted, StatusFailed},
}

// CanTransitionTo reports whether the state graph permits moving from
// s to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outbound transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusQueued, StatusRunning,
		StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Type signals how an executor should invoke the job's work. It is
// informational to the lifecycle engine, which never executes payloads
// itself.
type Type string

const (
	// TypeAsync means the handler runs on its own goroutine.
	TypeAsync Type = "async"
	// TypeSync means the handler runs inline on the polling worker.
	TypeSync Type = "sync"
)

// Valid reports whether t is a known job type.
func (t Type) Valid() bool {
	return t == TypeAsync || t == TypeSync
}

// Job represents one unit of deferred, trackable work.
type Job struct {
	ID          id.JobID       `json:"id"`
	Name        string         `json:"name"`
	Type        Type           `json:"type"`
	Payload     map[string]any `json:"payload,omitempty"`
	Status      Status         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Error       map[string]any `json:"error,omitempty"`
}

// New constructs a pending job with a fresh ID and creation timestamp.
// The name is trimmed; a name that is empty after trimming fails
// validation.
func New(name string, typ Type, payload map[string]any) (*Job, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &foreman.ValidationError{
			Field:  "name",
			Reason: "job name cannot be empty or whitespace only",
		}
	}
	if !typ.Valid() {
		return nil, &foreman.ValidationError{
			Field:  "type",
			Reason: fmt.Sprintf("unknown job type %q", typ),
		}
	}

	return &Job{
		ID:        id.NewJobID(),
		Name:      name,
		Type:      typ,
		Payload:   maps.Clone(payload),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Clone returns a deep copy of the job. The payload, result, and error
// maps are copied one level so callers cannot mutate store state
// through a returned snapshot.
func (j *Job) Clone() *Job {
	cp := *j
	cp.Payload = maps.Clone(j.Payload)
	cp.Result = maps.Clone(j.Result)
	cp.Error = maps.Clone(j.Error)
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// String returns a compact human-readable description.
func (j *Job) String() string {
	return fmt.Sprintf("Job(id=%s, name=%s, type=%s, status=%s)", j.ID, j.Name, j.Type, j.Status)
}
