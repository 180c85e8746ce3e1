// Package audit records conversation lifecycle events and fans them out
// to registered sinks. Sink failures are logged, never propagated; a
// broken webhook must not slow a voice turn down.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/soyeahso/chainsense/internal/logging"
)

// Event names emitted by the engine and session store.
const (
	EventTurnReceived       = "turn_received"
	EventTurnResolved       = "turn_resolved"
	EventClarification      = "clarification_requested"
	EventMultiTurnOpened    = "multi_turn_opened"
	EventMultiTurnCompleted = "multi_turn_completed"
	EventDispatchFailed     = "dispatch_failed"
	EventSessionCreated     = "session_created"
	EventSessionExpired     = "session_expired"
	EventContextCleared     = "context_cleared"
	EventGatewayStart       = "gateway_start"
	EventGatewayStop        = "gateway_stop"
)

// AllEvents lists all known audit event names.
var AllEvents = []string{
	EventTurnReceived,
	EventTurnResolved,
	EventClarification,
	EventMultiTurnOpened,
	EventMultiTurnCompleted,
	EventDispatchFailed,
	EventSessionCreated,
	EventSessionExpired,
	EventContextCleared,
	EventGatewayStart,
	EventGatewayStop,
}

// Event is one recorded lifecycle event.
type Event struct {
	Name          string         `json:"event"`
	Timestamp     time.Time      `json:"timestamp"`
	SessionID     string         `json:"sessionId,omitempty"`
	CorrelationID string         `json:"correlationId,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

// Sink receives audit events. Returning an error logs the failure but
// does not stop delivery to other sinks.
type Sink func(ctx context.Context, ev Event) error

// Recorder manages sink registrations and dispatches events.
type Recorder struct {
	mu    sync.RWMutex
	sinks map[string][]namedSink
	log   *logging.Logger
}

type namedSink struct {
	name string
	sink Sink
}

// NewRecorder creates an audit recorder with no sinks attached.
func NewRecorder(log *logging.Logger) *Recorder {
	return &Recorder{
		sinks: make(map[string][]namedSink),
		log:   log.Sub("audit"),
	}
}

// On registers a sink for the given event. The name identifies the sink
// for logging and removal.
func (r *Recorder) On(event, name string, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[event] = append(r.sinks[event], namedSink{name: name, sink: sink})
	r.log.Debug().Str("event", event).Str("sink", name).Msg("audit sink registered")
}

// OnAll registers a sink for every known event.
func (r *Recorder) OnAll(name string, sink Sink) {
	for _, event := range AllEvents {
		r.On(event, name, sink)
	}
}

// Off removes all sinks with the given name from the event.
func (r *Recorder) Off(event, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sinks := r.sinks[event]
	filtered := make([]namedSink, 0, len(sinks))
	for _, s := range sinks {
		if s.name != name {
			filtered = append(filtered, s)
		}
	}
	r.sinks[event] = filtered
}

// Record dispatches an event to all registered sinks synchronously.
// Sinks are called in registration order.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	sinks := r.snapshot(ev.Name)
	if len(sinks) == 0 {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	for _, s := range sinks {
		if err := s.sink(ctx, ev); err != nil {
			r.log.Warn().
				Err(err).
				Str("event", ev.Name).
				Str("sink", s.name).
				Msg("audit sink error")
		}
	}
}

// RecordAsync dispatches an event to all registered sinks concurrently.
// Returns immediately; sink errors are logged.
func (r *Recorder) RecordAsync(ctx context.Context, ev Event) {
	sinks := r.snapshot(ev.Name)
	if len(sinks) == 0 {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	for _, s := range sinks {
		go func(s namedSink) {
			if err := s.sink(ctx, ev); err != nil {
				r.log.Warn().
					Err(err).
					Str("event", ev.Name).
					Str("sink", s.name).
					Msg("async audit sink error")
			}
		}(s)
	}
}

// Count returns the number of sinks registered for an event.
func (r *Recorder) Count(event string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks[event])
}

// Events returns the events that have at least one sink registered.
func (r *Recorder) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]string, 0, len(r.sinks))
	for event, sinks := range r.sinks {
		if len(sinks) > 0 {
			events = append(events, event)
		}
	}
	return events
}

func (r *Recorder) snapshot(event string) []namedSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sinks := make([]namedSink, len(r.sinks[event]))
	copy(sinks, r.sinks[event])
	return sinks
}
