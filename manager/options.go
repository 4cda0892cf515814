package manager

import (
	"log/slog"

	"github.com/xraph/foreman/event"
	"github.com/xraph/foreman/job"
)

// Option configures a manager implementation.
type Option func(*Memory)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Memory) {
		m.logger = logger
	}
}

// WithStore sets the backing job store. Defaults to a fresh in-memory
// store.
func WithStore(s job.Store) Option {
	return func(m *Memory) {
		m.store = s
	}
}

// WithBus sets the event bus. Defaults to a fresh bus using the
// manager's logger. Sharing a bus lets several managers feed one set of
// subscribers.
func WithBus(b *event.Bus) Option {
	return func(m *Memory) {
		m.bus = b
	}
}
