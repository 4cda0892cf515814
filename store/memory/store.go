// Package memory provides the in-memory job store: the authoritative
// ID-to-job mapping plus the FIFO queue of IDs awaiting processing.
// Safe for concurrent access. All state is discarded when the owning
// manager stops.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/xraph/foreman"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/job"
)

// Ensure Store implements job.Store at compile time.
var _ job.Store = (*Store)(nil)

// Store is a fully in-memory implementation of job.Store. Jobs are
// cloned on the way in and on the way out, so callers never hold a
// reference into store state.
type Store struct {
	mu    sync.RWMutex
	jobs  map[string]*job.Job
	queue []id.JobID
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		jobs: make(map[string]*job.Job),
	}
}

// ──────────────────────────────────────────────────
// Job records
// ──────────────────────────────────────────────────

// InsertJob adds a new job record.
func (m *Store) InsertJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, exists := m.jobs[key]; exists {
		return foreman.ErrJobAlreadyExists
	}
	m.jobs[key] = j.Clone()
	return nil
}

// GetJob retrieves a job by ID.
func (m *Store) GetJob(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return nil, &foreman.NotFoundError{JobID: jobID.String()}
	}
	return j.Clone(), nil
}

// UpdateJob persists changes to an existing job.
func (m *Store) UpdateJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, ok := m.jobs[key]; !ok {
		return &foreman.NotFoundError{JobID: key}
	}
	m.jobs[key] = j.Clone()
	return nil
}

// ListJobs returns jobs matching opts, sorted by CreatedAt descending.
// Offset is applied before Limit; a zero Limit returns all remaining.
func (m *Store) ListJobs(_ context.Context, opts job.ListOpts) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*job.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if opts.Status != "" && j.Status != opts.Status {
			continue
		}
		result = append(result, j.Clone())
	}

	// Newest first.
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.After(result[k].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// CountJobs returns the number of jobs with the given status.
// An empty status counts all jobs.
func (m *Store) CountJobs(_ context.Context, status job.Status) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, j := range m.jobs {
		if status != "" && j.Status != status {
			continue
		}
		count++
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// FIFO queue
// ──────────────────────────────────────────────────

// Enqueue appends a job ID to the tail of the queue.
func (m *Store) Enqueue(_ context.Context, jobID id.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queue = append(m.queue, jobID)
	return nil
}

// PeekQueued returns the queue head without removing it.
func (m *Store) PeekQueued(_ context.Context) (id.JobID, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.queue) == 0 {
		return id.Nil, false, nil
	}
	return m.queue[0], true, nil
}

// PopQueued removes and returns the queue head.
func (m *Store) PopQueued(_ context.Context) (id.JobID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return id.Nil, false, nil
	}
	head := m.queue[0]
	m.queue = m.queue[1:]
	return head, true, nil
}

// RemoveQueued removes the first occurrence of jobID from the queue.
// Absence is not an error.
func (m *Store) RemoveQueued(_ context.Context, jobID id.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.Index(m.queue, jobID)
	if idx >= 0 {
		m.queue = slices.Delete(m.queue, idx, idx+1)
	}
	return nil
}

// QueueLen returns the current queue length.
func (m *Store) QueueLen(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.queue), nil
}

// Clear removes all jobs and queue entries.
func (m *Store) Clear(_ context.Context) (jobs, queued int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs = len(m.jobs)
	queued = len(m.queue)
	m.jobs = make(map[string]*job.Job)
	m.queue = nil
	return jobs, queued, nil
}
