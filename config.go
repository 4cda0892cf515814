package foreman

import "time"

// Backend selects a manager implementation.
type Backend string

// BackendMemory is the in-memory manager backend. It is the only
// backend today; the selector exists so durable backends can slot in
// behind the same Manager contract.
const BackendMemory Backend = "memory"

// Config holds configuration for a job manager and its worker pool.
type Config struct {
	// Backend selects the manager implementation.
	Backend Backend

	// MaxConcurrentJobs is the number of jobs a worker pool may run
	// simultaneously.
	MaxConcurrentJobs int

	// JobTimeout is the per-job execution deadline applied by the
	// worker pool. Zero means no deadline.
	JobTimeout time.Duration

	// MaxQueueSize caps the pending-processing queue. Not enforced by
	// the in-memory backend; reserved for durable backends.
	MaxQueueSize int

	// CompletedJobRetention is how long terminal jobs are kept before
	// cleanup. Not enforced by the in-memory backend; reserved for
	// durable backends.
	CompletedJobRetention time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:               BackendMemory,
		MaxConcurrentJobs:     10,
		JobTimeout:            1 * time.Hour,
		MaxQueueSize:          1000,
		CompletedJobRetention: 24 * time.Hour,
	}
}
