package capability

import (
	"context"
	"fmt"
	"sync"

	"github.com/soyeahso/chainsense/internal/domain"
	"github.com/soyeahso/chainsense/internal/logging"
)

// Registry maps analytical intent labels to capabilities.
type Registry struct {
	mu   sync.RWMutex
	caps map[string]Capability
	log  *logging.Logger
}

// NewRegistry creates an empty capability registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		caps: make(map[string]Capability),
		log:  log.Sub("capability.registry"),
	}
}

// Register adds a capability under its own name, replacing any previous
// registration for that intent.
func (r *Registry) Register(c Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[c.Name()] = c
	r.log.Info().Str("capability", c.Name()).Msg("registered analytical capability")
}

// Get returns the capability for an intent.
func (r *Registry) Get(intent string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caps[intent]
	return c, ok
}

// List returns all registered intent labels.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.caps))
	for name := range r.caps {
		names = append(names, name)
	}
	return names
}

// Analyze resolves and invokes the capability for the request's intent.
func (r *Registry) Analyze(ctx context.Context, req Request) (*domain.AnalysisResult, error) {
	c, ok := r.Get(req.Intent)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, req.Intent)
	}
	return c.Analyze(ctx, req)
}
