package job

import (
	"context"

	"github.com/xraph/foreman/id"
)

// ListOpts controls filtering and pagination for job list queries.
// Offset is applied before Limit.
type ListOpts struct {
	// Status filters by job status. Empty means all statuses.
	Status Status
	// Limit is the maximum number of jobs to return. Zero means no limit.
	Limit int
	// Offset is the number of jobs to skip.
	Offset int
}

// Store defines the record-keeping contract for jobs: the authoritative
// ID-to-job mapping plus the FIFO queue of IDs awaiting the running
// transition. Implementations must be safe for concurrent use and must
// hand out copies, never references into internal state.
type Store interface {
	// InsertJob adds a new job record. Returns ErrJobAlreadyExists if
	// the ID is already present.
	InsertJob(ctx context.Context, j *Job) error

	// GetJob retrieves a job by ID. Returns a NotFoundError if absent.
	GetJob(ctx context.Context, jobID id.JobID) (*Job, error)

	// UpdateJob persists changes to an existing job.
	UpdateJob(ctx context.Context, j *Job) error

	// ListJobs returns jobs matching opts, sorted by CreatedAt
	// descending.
	ListJobs(ctx context.Context, opts ListOpts) ([]*Job, error)

	// CountJobs returns the number of jobs with the given status.
	// An empty status counts all jobs.
	CountJobs(ctx context.Context, status Status) (int64, error)

	// Enqueue appends a job ID to the tail of the FIFO queue.
	Enqueue(ctx context.Context, jobID id.JobID) error

	// PeekQueued returns the ID at the head of the queue without
	// removing it. ok is false when the queue is empty.
	PeekQueued(ctx context.Context) (jobID id.JobID, ok bool, err error)

	// PopQueued removes and returns the ID at the head of the queue.
	// ok is false when the queue is empty.
	PopQueued(ctx context.Context) (jobID id.JobID, ok bool, err error)

	// RemoveQueued removes the first occurrence of jobID from the
	// queue. Removing an ID that is not queued is not an error.
	RemoveQueued(ctx context.Context, jobID id.JobID) error

	// QueueLen returns the current queue length.
	QueueLen(ctx context.Context) (int, error)

	// Clear removes all jobs and queue entries, returning the counts
	// cleared.
	Clear(ctx context.Context) (jobs, queued int, err error)
}
