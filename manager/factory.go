package manager

import (
	"fmt"

	"github.com/xraph/foreman"
)

// New creates a Manager for the backend selected by cfg.Backend.
// Only the in-memory backend exists today; the factory keeps the door
// open for durable variants behind the same contract.
func New(cfg foreman.Config, opts ...Option) (Manager, error) {
	switch cfg.Backend {
	case foreman.BackendMemory:
		return NewMemory(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", foreman.ErrUnknownBackend, cfg.Backend)
	}
}
