// Package worker provides the job execution engine: an Executor that
// invokes registered handlers and records the outcome through the
// manager, and a Pool of polling goroutines that claim queued jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/foreman"
	"github.com/xraph/foreman/job"
	"github.com/xraph/foreman/manager"
)

// Executor runs a single claimed job: it looks up the registered
// handler, invokes it under a deadline, and records completion or
// failure through the manager.
type Executor struct {
	registry *job.Registry
	mgr      manager.Manager
	timeout  time.Duration
	logger   *slog.Logger
}

// NewExecutor creates an Executor. timeout is the pool-wide default
// handler deadline; a definition's own timeout takes precedence. A zero
// timeout disables the deadline.
func NewExecutor(registry *job.Registry, mgr manager.Manager, timeout time.Duration, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		registry: registry,
		mgr:      mgr,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run executes a job that has already been moved to running. A missing
// handler, a handler error, a panic, or a deadline overrun all fail the
// job with a structured error payload; otherwise the handler's result
// is recorded on completion.
func (e *Executor) Run(ctx context.Context, j *job.Job) error {
	handler, ok := e.registry.Get(j.Name)
	if !ok {
		return e.fail(ctx, j, fmt.Errorf("no handler registered for job %q", j.Name))
	}

	timeout := e.timeout
	if opts, ok := e.registry.Options(j.Name); ok && opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	hctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := e.invoke(hctx, handler, j.Payload)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &foreman.TimeoutError{JobID: j.ID.String(), Timeout: timeout}
		}
		return e.fail(ctx, j, err)
	}

	if completeErr := e.mgr.CompleteJob(ctx, j.ID, result); completeErr != nil {
		e.logger.Error("failed to record job completion",
			slog.String("job_id", j.ID.String()),
			slog.String("job_name", j.Name),
			slog.String("error", completeErr.Error()),
		)
		return completeErr
	}

	e.logger.Debug("job handler finished",
		slog.String("job_id", j.ID.String()),
		slog.String("job_name", j.Name),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

// invoke calls the handler with panic recovery so a misbehaving handler
// fails its own job instead of crashing the worker goroutine.
func (e *Executor) invoke(ctx context.Context, handler job.HandlerFunc, payload map[string]any) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()
	return handler(ctx, payload)
}

func (e *Executor) fail(ctx context.Context, j *job.Job, handlerErr error) error {
	if failErr := e.mgr.FailJob(ctx, j.ID, map[string]any{"message": handlerErr.Error()}); failErr != nil {
		e.logger.Error("failed to record job failure",
			slog.String("job_id", j.ID.String()),
			slog.String("job_name", j.Name),
			slog.String("error", failErr.Error()),
		)
		return failErr
	}
	return handlerErr
}
