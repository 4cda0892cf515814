package manager

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/xraph/foreman"
	"github.com/xraph/foreman/event"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/job"
	"github.com/xraph/foreman/store/memory"
)

// Ensure Memory implements Manager at compile time.
var _ Manager = (*Memory)(nil)

// Memory is the in-memory Manager. It keeps all job state in a
// job.Store and publishes lifecycle events on an event.Bus.
//
// The store is safe for concurrent use on its own; the manager's mutex
// additionally serializes each read-validate-mutate sequence so that of
// two racing transitions on the same job exactly one wins and the other
// observes the post-transition status. Events are published after the
// mutation, outside the lock, so slow subscribers never block other
// callers.
type Memory struct {
	cfg    foreman.Config
	store  job.Store
	bus    *event.Bus
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewMemory creates an in-memory manager. Tunables in cfg beyond the
// backend selector (queue size cap, retention) are reserved surface for
// durable backends and not enforced here.
func NewMemory(cfg foreman.Config, opts ...Option) *Memory {
	m := &Memory{cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.store == nil {
		m.store = memory.New()
	}
	if m.bus == nil {
		m.bus = event.NewBus(m.logger)
	}
	return m
}

// Store returns the underlying job store.
func (m *Memory) Store() job.Store { return m.store }

// Bus returns the manager's event bus.
func (m *Memory) Bus() *event.Bus { return m.bus }

// Running reports whether the manager accepts new jobs.
func (m *Memory) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Start marks the manager running. Idempotent with a warning.
func (m *Memory) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		m.logger.Warn("job manager is already running")
		return nil
	}
	m.running = true
	m.logger.Info("memory job manager started")
	return nil
}

// Stop marks the manager stopped and discards all jobs and queue
// entries. Idempotent with a warning. Stop does not wait for, or abort,
// externally running work; the manager tracks status metadata only.
func (m *Memory) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		m.logger.Warn("job manager is not running")
		return nil
	}
	m.running = false

	jobs, queued, err := m.store.Clear(ctx)
	if err != nil {
		return err
	}
	m.logger.Info("memory job manager stopped",
		slog.Int("jobs_cleared", jobs),
		slog.Int("queued_cleared", queued),
	)
	return nil
}

// CreateJob inserts a new pending job and publishes job_created.
func (m *Memory) CreateJob(ctx context.Context, name string, typ job.Type, payload map[string]any) (*job.Job, error) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil, &foreman.StateError{Reason: "job manager is not running"}
	}

	j, err := job.New(name, typ, payload)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	if err := m.store.InsertJob(ctx, j); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	total, _ := m.store.CountJobs(ctx, "")
	m.mu.Unlock()

	m.bus.Publish(ctx, event.TypeJobCreated, j.ID, map[string]any{
		"name": j.Name,
		"type": string(j.Type),
	})

	m.logger.Info("job created",
		slog.String("job_id", j.ID.String()),
		slog.String("name", j.Name),
		slog.String("type", string(j.Type)),
		slog.Int64("total_jobs", total),
	)
	return j, nil
}

// GetJob returns a snapshot of the job with the given ID.
func (m *Memory) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	return m.store.GetJob(ctx, jobID)
}

// ListJobs returns a filtered, paginated snapshot.
func (m *Memory) ListJobs(ctx context.Context, opts job.ListOpts) ([]*job.Job, error) {
	return m.store.ListJobs(ctx, opts)
}

// SubmitJob moves a pending job to queued and appends it to the queue.
func (m *Memory) SubmitJob(ctx context.Context, jobID id.JobID) error {
	m.mu.Lock()

	j, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if j.Status != job.StatusPending {
		m.mu.Unlock()
		return &foreman.StateError{
			From:   string(j.Status),
			To:     string(job.StatusQueued),
			Reason: "only pending jobs can be queued",
		}
	}

	j.Status = job.StatusQueued
	if err := m.store.UpdateJob(ctx, j); err != nil {
		m.mu.Unlock()
		return err
	}
	if err := m.store.Enqueue(ctx, jobID); err != nil {
		m.mu.Unlock()
		return err
	}
	queueSize, _ := m.store.QueueLen(ctx)
	m.mu.Unlock()

	m.bus.Publish(ctx, event.TypeJobQueued, jobID, map[string]any{
		"queue_size": queueSize,
	})

	m.logger.Info("job queued",
		slog.String("job_id", jobID.String()),
		slog.Int("queue_size", queueSize),
	)
	return nil
}

// StartJob moves a queued job to running and stamps StartedAt.
func (m *Memory) StartJob(ctx context.Context, jobID id.JobID) error {
	m.mu.Lock()

	j, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if j.Status != job.StatusQueued {
		m.mu.Unlock()
		return &foreman.StateError{
			From:   string(j.Status),
			To:     string(job.StatusRunning),
			Reason: "only queued jobs can be started",
		}
	}

	now := time.Now().UTC()
	j.Status = job.StatusRunning
	j.StartedAt = &now
	if err := m.store.UpdateJob(ctx, j); err != nil {
		m.mu.Unlock()
		return err
	}
	// The entry is usually at the queue head; tolerate absence in case
	// the caller already popped it.
	if err := m.store.RemoveQueued(ctx, jobID); err != nil {
		m.mu.Unlock()
		return err
	}
	queueSize, _ := m.store.QueueLen(ctx)
	m.mu.Unlock()

	m.bus.Publish(ctx, event.TypeJobStarted, jobID, map[string]any{
		"started_at": now,
	})

	m.logger.Info("job started",
		slog.String("job_id", jobID.String()),
		slog.Int("queue_size", queueSize),
	)
	return nil
}

// CompleteJob moves a running job to completed and records its result.
func (m *Memory) CompleteJob(ctx context.Context, jobID id.JobID, result map[string]any) error {
	m.mu.Lock()

	j, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if j.Status != job.StatusRunning {
		m.mu.Unlock()
		return &foreman.StateError{
			From:   string(j.Status),
			To:     string(job.StatusCompleted),
			Reason: "only running jobs can be completed",
		}
	}

	now := time.Now().UTC()
	j.Status = job.StatusCompleted
	j.Result = maps.Clone(result)
	j.CompletedAt = &now
	if err := m.store.UpdateJob(ctx, j); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	m.bus.Publish(ctx, event.TypeJobCompleted, jobID, map[string]any{
		"result":       result,
		"completed_at": now,
	})

	m.logger.Info("job completed", slog.String("job_id", jobID.String()))
	return nil
}

// FailJob moves a running or queued job to failed and records the
// error payload. A queued job may be failed directly (abort before
// running).
func (m *Memory) FailJob(ctx context.Context, jobID id.JobID, jobErr map[string]any) error {
	m.mu.Lock()

	j, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if j.Status != job.StatusRunning && j.Status != job.StatusQueued {
		m.mu.Unlock()
		return &foreman.StateError{
			From:   string(j.Status),
			To:     string(job.StatusFailed),
			Reason: "only running or queued jobs can be failed",
		}
	}

	now := time.Now().UTC()
	j.Status = job.StatusFailed
	j.Error = maps.Clone(jobErr)
	j.CompletedAt = &now
	if err := m.store.UpdateJob(ctx, j); err != nil {
		m.mu.Unlock()
		return err
	}
	if err := m.store.RemoveQueued(ctx, jobID); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	m.bus.Publish(ctx, event.TypeJobFailed, jobID, map[string]any{
		"error":        jobErr,
		"completed_at": now,
	})

	m.logger.Error("job failed",
		slog.String("job_id", jobID.String()),
		slog.Any("error", jobErr),
	)
	return nil
}

// CancelJob moves a pending or queued job to cancelled.
func (m *Memory) CancelJob(ctx context.Context, jobID id.JobID) error {
	m.mu.Lock()

	j, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if j.Status != job.StatusPending && j.Status != job.StatusQueued {
		m.mu.Unlock()
		return &foreman.StateError{
			From:   string(j.Status),
			To:     string(job.StatusCancelled),
			Reason: "only pending or queued jobs can be cancelled",
		}
	}

	now := time.Now().UTC()
	j.Status = job.StatusCancelled
	j.CompletedAt = &now
	if err := m.store.UpdateJob(ctx, j); err != nil {
		m.mu.Unlock()
		return err
	}
	if err := m.store.RemoveQueued(ctx, jobID); err != nil {
		m.mu.Unlock()
		return err
	}
	queueSize, _ := m.store.QueueLen(ctx)
	m.mu.Unlock()

	m.bus.Publish(ctx, event.TypeJobCancelled, jobID, map[string]any{
		"completed_at": now,
	})

	m.logger.Info("job cancelled",
		slog.String("job_id", jobID.String()),
		slog.Int("queue_size", queueSize),
	)
	return nil
}

// NextJob returns the queue-head job still in queued status. Entries
// whose job is missing or no longer queued are discarded and the scan
// continues. Each stale entry is popped before retrying, so the loop is
// bounded by the queue length.
func (m *Memory) NextJob(ctx context.Context) (*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		head, ok, err := m.store.PeekQueued(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}

		j, err := m.store.GetJob(ctx, head)
		if err != nil {
			if errors.Is(err, foreman.ErrJobNotFound) {
				_, _, _ = m.store.PopQueued(ctx)
				m.logger.Warn("removed non-existent job from queue",
					slog.String("job_id", head.String()),
				)
				continue
			}
			return nil, err
		}

		if j.Status == job.StatusQueued {
			return j, nil
		}

		_, _, _ = m.store.PopQueued(ctx)
		m.logger.Warn("removed stale job from queue",
			slog.String("job_id", head.String()),
			slog.String("status", string(j.Status)),
		)
	}
}

// Subscribe registers an event handler on the manager's bus.
func (m *Memory) Subscribe(h event.Handler) *event.Subscription {
	return m.bus.Subscribe(h)
}

// Unsubscribe removes a previously registered handler.
func (m *Memory) Unsubscribe(sub *event.Subscription) {
	m.bus.Unsubscribe(sub)
}
