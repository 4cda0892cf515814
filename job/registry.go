package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// HandlerFunc is a type-erased job handler. It receives the job's
// structured payload and returns the structured result recorded on
// completion. The typed Definition[T] is converted to a HandlerFunc at
// registration time by closing over a JSON round-trip plus the typed
// handler.
type HandlerFunc func(ctx context.Context, payload map[string]any) (map[string]any, error)

// Registry maps job names to type-erased handler functions and their
// per-definition options. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

type registration struct {
	handler HandlerFunc
	opts    Options
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]registration),
	}
}

// RegisterDefinition registers a typed job definition. The generic
// handler is wrapped in a closure that round-trips the map payload
// through JSON into T before calling the typed handler.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func RegisterDefinition[T any](r *Registry, def *Definition[T]) {
	handler := func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		var t T
		if len(payload) > 0 {
			raw, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("marshal payload for job %q: %w", def.Name, err)
			}
			if err := json.Unmarshal(raw, &t); err != nil {
				return nil, fmt.Errorf("unmarshal payload for job %q: %w", def.Name, err)
			}
		}
		return def.Handler(ctx, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[def.Name] = registration{handler: handler, opts: def.Opts}
}

// Get returns the handler for the given job name.
// Returns false if no handler is registered.
func (r *Registry) Get(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.handler, ok
}

// Options returns the per-definition options for the given job name.
// Returns false if no handler is registered.
func (r *Registry) Options(name string) (Options, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.opts, ok
}

// Names returns all registered job names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}
