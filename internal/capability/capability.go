// Package capability defines the contract with the external analytical
// services (impact, optimization, sustainability, analytics,
// explainability). The engine neither knows nor cares how a capability
// computes its answer; it sends intent entities plus session-derived
// parameters and gets back summary text, a structured payload, a
// confidence score, and cross-reference labels.
package capability

import (
	"context"
	"errors"

	"github.com/soyeahso/chainsense/internal/domain"
)

// ErrNotRegistered is returned when no capability serves an intent.
var ErrNotRegistered = errors.New("capability not registered")

// Request carries everything a capability needs for one analysis.
type Request struct {
	Intent        string          `json:"intent"`
	SessionID     string          `json:"sessionId"`
	CorrelationID string          `json:"correlationId"`
	Entities      domain.Entities `json:"entities,omitempty"`
	// Parameters are session-derived: preferred time period, comparison
	// context, and similar.
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Capability is one external analytical service.
type Capability interface {
	// Name returns the analytical intent label this capability serves.
	Name() string

	// Analyze runs the capability synchronously. The context carries the
	// dispatch timeout; expiry is a dispatch failure.
	Analyze(ctx context.Context, req Request) (*domain.AnalysisResult, error)
}
