package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/foreman"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/job"
	"github.com/xraph/foreman/manager"
)

// Pool polls the manager for queued jobs and executes them. A single
// dispatch goroutine claims jobs in FIFO order; sync jobs run inline on
// the dispatcher, async jobs run on their own goroutine bounded by the
// concurrency limit. Polling is paced by a rate limiter so an idle or
// hot pool never spins against the queue.
type Pool struct {
	mgr          manager.Manager
	executor     *Executor
	concurrency  int
	pollInterval time.Duration
	limiter      *rate.Limiter
	workerID     id.WorkerID
	logger       *slog.Logger

	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithConcurrency caps the number of async jobs in flight at once.
func WithConcurrency(n int) PoolOption {
	return func(p *Pool) { p.concurrency = n }
}

// WithPollInterval sets how long the dispatcher sleeps when the queue
// is empty.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) { p.pollInterval = d }
}

// WithPollLimit sets the maximum queue polling rate.
func WithPollLimit(limit rate.Limit, burst int) PoolOption {
	return func(p *Pool) { p.limiter = rate.NewLimiter(limit, burst) }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) { p.logger = logger }
}

// NewPool creates a worker pool driving the given manager and executor.
// Concurrency defaults to cfg.MaxConcurrentJobs.
func NewPool(cfg foreman.Config, mgr manager.Manager, executor *Executor, opts ...PoolOption) *Pool {
	p := &Pool{
		mgr:          mgr,
		executor:     executor,
		concurrency:  cfg.MaxConcurrentJobs,
		pollInterval: time.Second,
		workerID:     id.NewWorkerID(),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.concurrency <= 0 {
		p.concurrency = 1
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.limiter == nil {
		// Cap polling at 100/s so a drained queue is not hammered
		// between sleeps.
		p.limiter = rate.NewLimiter(rate.Every(10*time.Millisecond), 1)
	}
	return p
}

// WorkerID returns the pool's unique worker identifier.
func (p *Pool) WorkerID() id.WorkerID { return p.workerID }

// Start launches the dispatch goroutine. It returns immediately and is
// a no-op if the pool is already running.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	baseCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.logger.Info("worker pool starting",
		slog.String("worker_id", p.workerID.String()),
		slog.Int("concurrency", p.concurrency),
	)

	p.wg.Add(1)
	go p.dispatchLoop(baseCtx)

	return nil
}

// Stop signals the dispatcher to stop and waits for in-flight jobs.
// If ctx expires first, active handler contexts are cancelled and Stop
// waits for them to unwind.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info("worker pool stopping", slog.String("worker_id", p.workerID.String()))

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out, cancelling active jobs")
		p.cancel()
		p.wg.Wait()
	}

	p.cancel()
	return nil
}

// dispatchLoop claims queued jobs in FIFO order and hands them to the
// executor. Claiming (the queued to running transition) happens on the
// dispatcher so each job is started exactly once.
func (p *Pool) dispatchLoop(ctx context.Context) {
	defer p.wg.Done()

	slots := make(chan struct{}, p.concurrency)

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return
		}

		j, err := p.mgr.NextJob(ctx)
		if err != nil {
			p.logger.Error("poll error", slog.String("error", err.Error()))
			p.sleep()
			continue
		}
		if j == nil {
			p.sleep()
			continue
		}

		if err := p.mgr.StartJob(ctx, j.ID); err != nil {
			// Another claimer won the race or the job moved on.
			if errors.Is(err, foreman.ErrInvalidState) || errors.Is(err, foreman.ErrJobNotFound) {
				continue
			}
			p.logger.Error("claim error",
				slog.String("job_id", j.ID.String()),
				slog.String("error", err.Error()),
			)
			p.sleep()
			continue
		}

		switch j.Type {
		case job.TypeSync:
			p.runJob(ctx, j)
		default:
			select {
			case slots <- struct{}{}:
			case <-p.stopCh:
				// Shutting down; still finish the job we claimed.
				p.runJob(ctx, j)
				return
			}
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				defer func() { <-slots }()
				p.runJob(ctx, j)
			}()
		}
	}
}

func (p *Pool) runJob(ctx context.Context, j *job.Job) {
	if err := p.executor.Run(ctx, j); err != nil {
		p.logger.Debug("job execution failed",
			slog.String("job_id", j.ID.String()),
			slog.String("job_name", j.Name),
			slog.String("error", err.Error()),
		)
	}
}

func (p *Pool) sleep() {
	select {
	case <-time.After(p.pollInterval):
	case <-p.stopCh:
	}
}
