package manager

import (
	"context"

	"github.com/xraph/foreman/event"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/job"
)

// Manager is the job lifecycle contract: it owns the job store, the
// FIFO queue, and the event bus, and exposes the state-machine
// operations. One in-memory implementation exists today; durable
// variants implement the same contract.
//
// Every operation validates its preconditions before mutating anything,
// so a returned error always means the store is unchanged.
type Manager interface {
	// Start marks the manager running. Calling Start on a running
	// manager logs a warning and is otherwise a no-op.
	Start(ctx context.Context) error

	// Stop marks the manager stopped and discards all jobs and queue
	// entries. Calling Stop on a stopped manager logs a warning and is
	// otherwise a no-op.
	Stop(ctx context.Context) error

	// Running reports whether the manager accepts new jobs.
	Running() bool

	// CreateJob inserts a new pending job and publishes job_created.
	// The manager must be running and the name non-empty after
	// trimming.
	CreateJob(ctx context.Context, name string, typ job.Type, payload map[string]any) (*job.Job, error)

	// GetJob returns a snapshot of the job with the given ID.
	GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error)

	// ListJobs returns a filtered, paginated snapshot sorted by
	// creation time descending.
	ListJobs(ctx context.Context, opts job.ListOpts) ([]*job.Job, error)

	// SubmitJob moves a pending job to queued, appends it to the queue
	// tail, and publishes job_queued.
	SubmitJob(ctx context.Context, jobID id.JobID) error

	// StartJob moves a queued job to running, stamps StartedAt, and
	// publishes job_started.
	StartJob(ctx context.Context, jobID id.JobID) error

	// CompleteJob moves a running job to completed, records the
	// result, stamps CompletedAt, and publishes job_completed.
	CompleteJob(ctx context.Context, jobID id.JobID, result map[string]any) error

	// FailJob moves a running or queued job to failed, records the
	// error payload, stamps CompletedAt, and publishes job_failed.
	FailJob(ctx context.Context, jobID id.JobID, jobErr map[string]any) error

	// CancelJob moves a pending or queued job to cancelled, stamps
	// CompletedAt, and publishes job_cancelled.
	CancelJob(ctx context.Context, jobID id.JobID) error

	// NextJob returns the queue-head job still in queued status,
	// lazily discarding stale entries. It returns (nil, nil) when the
	// queue is empty; an empty queue is not an error.
	NextJob(ctx context.Context) (*job.Job, error)

	// Subscribe registers an event handler on the manager's bus.
	Subscribe(h event.Handler) *event.Subscription

	// Unsubscribe removes a previously registered handler.
	Unsubscribe(sub *event.Subscription)
}
