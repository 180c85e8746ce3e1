// Package session owns per-session conversational state: history,
// analytical context, visualization state, preferences, and usage
// counters. Sessions are created lazily, serialized per key, and evicted
// by an idle sweep.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/soyeahso/chainsense/internal/domain"
	"github.com/soyeahso/chainsense/internal/logging"
)

// Store is a keyed table of sessions. Turns for different sessions run in
// parallel; turns for the same session are serialized through the
// per-entry mutex. The store-level mutex only guards the map and the
// idle timestamps the cleanup sweep reads.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	idle    time.Duration
	log     *logging.Logger

	onCreate func(sessionID string)
	onEvict  func(sessionID string)
}

type entry struct {
	mu           sync.Mutex
	sess         *domain.Session
	lastActivity time.Time // guarded by Store.mu, not entry.mu
}

// NewStore creates a session store with the given idle eviction threshold.
func NewStore(idle time.Duration, log *logging.Logger) *Store {
	return &Store{
		entries: make(map[string]*entry),
		idle:    idle,
		log:     log.Sub("session"),
	}
}

// OnLifecycle registers creation and eviction callbacks. Callbacks run
// outside the store lock. Set before the store sees traffic.
func (s *Store) OnLifecycle(onCreate, onEvict func(sessionID string)) {
	s.onCreate = onCreate
	s.onEvict = onEvict
}

// getOrCreateEntry finds or lazily creates the entry for a session id.
func (s *Store) getOrCreateEntry(sessionID string) *entry {
	s.mu.Lock()
	if e, ok := s.entries[sessionID]; ok {
		s.mu.Unlock()
		return e
	}

	now := time.Now()
	e := &entry{
		sess: &domain.Session{
			ID: sessionID,
			Metadata: domain.Metadata{
				CreatedAt:    now,
				LastActivity: now,
			},
		},
		lastActivity: now,
	}
	s.entries[sessionID] = e
	s.mu.Unlock()

	s.log.Debug().Str("sessionId", sessionID).Msg("session created")
	if s.onCreate != nil {
		s.onCreate(sessionID)
	}
	return e
}

// With runs fn while holding the session's lock, creating the session on
// first reference. The idle timestamp is refreshed on release. If the
// entry was evicted between lookup and lock acquisition the lookup is
// retried, so fn always runs against the live instance.
func (s *Store) With(sessionID string, fn func(*domain.Session)) {
	for {
		e := s.getOrCreateEntry(sessionID)
		e.mu.Lock()

		s.mu.Lock()
		current := s.entries[sessionID] == e
		s.mu.Unlock()
		if !current {
			e.mu.Unlock()
			continue
		}

		fn(e.sess)

		now := time.Now()
		e.sess.Metadata.LastActivity = now
		e.mu.Unlock()

		s.mu.Lock()
		if s.entries[sessionID] == e {
			e.lastActivity = now
		}
		s.mu.Unlock()
		return
	}
}

// Snapshot returns a deep copy of the session, or false if it does not
// exist. Reading never creates a session.
func (s *Store) Snapshot(sessionID string) (domain.Session, bool) {
	s.mu.Lock()
	e, ok := s.entries[sessionID]
	s.mu.Unlock()
	if !ok {
		return domain.Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return copySession(e.sess), true
}

// Clear destroys a session explicitly. Returns false if it did not exist.
func (s *Store) Clear(sessionID string) bool {
	s.mu.Lock()
	e, ok := s.entries[sessionID]
	if ok {
		delete(s.entries, sessionID)
	}
	s.mu.Unlock()

	if ok {
		// Wait out any in-flight turn so its writes land on the orphan,
		// not on a recreated session.
		e.mu.Lock()
		e.mu.Unlock() //nolint:staticcheck // lock/unlock pair is the barrier
		s.log.Info().Str("sessionId", sessionID).Msg("session cleared")
	}
	return ok
}

// IDs returns all live session ids.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup sweeps all sessions and evicts those idle past the threshold.
// The idle check happens before the session lock is taken, and sessions
// with an in-flight turn (lock held) are skipped. Returns the eviction
// count. A partial multi-turn query on an evicted session is discarded
// with the rest of its state.
func (s *Store) Cleanup() int {
	cutoff := time.Now().Add(-s.idle)

	s.mu.Lock()
	stale := make([]string, 0)
	for id, e := range s.entries {
		if e.lastActivity.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	evicted := make([]string, 0, len(stale))
	for _, id := range stale {
		s.mu.Lock()
		e, ok := s.entries[id]
		if !ok || !e.lastActivity.Before(cutoff) {
			s.mu.Unlock()
			continue
		}
		if !e.mu.TryLock() {
			// in-flight turn, skip this sweep
			s.mu.Unlock()
			continue
		}
		delete(s.entries, id)
		e.mu.Unlock()
		s.mu.Unlock()
		evicted = append(evicted, id)
	}

	if s.onEvict != nil {
		for _, id := range evicted {
			s.onEvict(id)
		}
	}
	if len(evicted) > 0 {
		s.log.Info().Int("evicted", len(evicted)).Msg("idle sessions evicted")
	}
	return len(evicted)
}

// RunCleanup sweeps periodically until the context is cancelled.
func (s *Store) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

// copySession deep-copies a session so snapshots never alias live state.
func copySession(src *domain.Session) domain.Session {
	out := *src

	out.History = append([]domain.ConversationTurn(nil), src.History...)
	out.Analytical.AnalysisHistory = append([]domain.Analysis(nil), src.Analytical.AnalysisHistory...)
	out.Analytical.Connections = append([]domain.CrossAnalysisConnection(nil), src.Analytical.Connections...)
	out.Analytical.ComparisonItems = append([]string(nil), src.Analytical.ComparisonItems...)
	out.Analytical.ComparisonCriteria = append([]string(nil), src.Analytical.ComparisonCriteria...)
	out.Visualization.ActiveCharts = append([]string(nil), src.Visualization.ActiveCharts...)
	out.Visualization.PendingCommands = append([]domain.VisualizationCommand(nil), src.Visualization.PendingCommands...)

	if src.Analytical.ActiveAnalyses != nil {
		out.Analytical.ActiveAnalyses = make([]*domain.Analysis, len(src.Analytical.ActiveAnalyses))
		for i, a := range src.Analytical.ActiveAnalyses {
			cp := *a
			out.Analytical.ActiveAnalyses[i] = &cp
		}
	}
	if src.MultiTurn != nil {
		q := *src.MultiTurn
		q.Parts = append([]domain.QueryPart(nil), src.MultiTurn.Parts...)
		out.MultiTurn = &q
	}
	return out
}
