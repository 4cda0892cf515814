package job

import "time"

// Options configures per-definition behavior.
type Options struct {
	// Type selects how the worker invokes the handler: inline for
	// sync, on its own goroutine for async.
	Type Type

	// Timeout is the maximum duration the handler may run before its
	// context is cancelled. Zero defers to the pool-wide default.
	Timeout time.Duration
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Type: TypeAsync,
	}
}

// Option is a functional option for configuring a job definition.
type Option func(*Options)

// WithType sets the invocation type for the job.
func WithType(t Type) Option {
	return func(o *Options) {
		o.Type = t
	}
}

// WithSync marks the job as synchronous: the handler runs inline on
// the polling worker goroutine.
func WithSync() Option {
	return func(o *Options) {
		o.Type = TypeSync
	}
}

// WithTimeout sets the maximum execution duration for the job.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}
