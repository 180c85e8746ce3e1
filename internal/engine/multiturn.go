package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/chainsense/internal/audit"
	"github.com/soyeahso/chainsense/internal/domain"
	"github.com/soyeahso/chainsense/internal/session"
)

// openMultiTurn starts a multi-turn query on the session. The triggering
// utterance already counts as part one.
func (e *Engine) openMultiTurn(ctx context.Context, sess *domain.Session, env *domain.ResponseEnvelope, utterance string) {
	q := e.aggregator.Open(utterance)
	sess.MultiTurn = q

	env.Intent = domain.IntentMultiTurnStart
	env.Speech = fmt.Sprintf("Got it, that's part one of %d. What's next?", q.ExpectedParts)
	env.Success = true
	env.MultiTurn = multiTurnStatus(q)

	e.audit.RecordAsync(ctx, audit.Event{
		Name:          audit.EventMultiTurnOpened,
		SessionID:     env.SessionID,
		CorrelationID: env.CorrelationID,
		Data:          map[string]any{"queryId": q.ID, "expectedParts": q.ExpectedParts},
	})
}

// continueMultiTurn appends the utterance to the open query. Continuation
// parts skip the clarification policy so the query always makes progress;
// a part that later fails to dispatch still counts toward completion.
func (e *Engine) continueMultiTurn(ctx context.Context, sess *domain.Session, env *domain.ResponseEnvelope, utterance, label string, confidence float64, entities domain.Entities) {
	q := sess.MultiTurn
	e.aggregator.Append(q, domain.QueryPart{
		Text:       utterance,
		Intent:     label,
		Entities:   entities,
		Confidence: confidence,
	})

	if !q.Complete {
		env.Speech = fmt.Sprintf("Got it, that's part %d of %d. What's next?", len(q.Parts), q.ExpectedParts)
		env.Success = true
		env.MultiTurn = multiTurnStatus(q)
		return
	}

	e.audit.RecordAsync(ctx, audit.Event{
		Name:          audit.EventMultiTurnCompleted,
		SessionID:     env.SessionID,
		CorrelationID: env.CorrelationID,
		Data:          map[string]any{"queryId": q.ID, "aggregatedIntent": q.AggregatedIntent},
	})

	e.resolveAggregate(ctx, sess, env, q)
	env.MultiTurn = multiTurnStatus(q)
	sess.MultiTurn = nil
}

// resolveAggregate dispatches a completed multi-turn query under its
// aggregated intent.
func (e *Engine) resolveAggregate(ctx context.Context, sess *domain.Session, env *domain.ResponseEnvelope, q *domain.MultiTurnQuery) {
	merged := mergePartEntities(q.Parts)
	env.Intent = q.AggregatedIntent
	env.Entities = merged
	env.Confidence = averageConfidence(q.Parts)

	switch {
	case q.AggregatedIntent == domain.IntentMultiAnalysis:
		e.dispatchMultiAnalysis(ctx, sess, env, q)
	case q.AggregatedIntent == domain.IntentComparison:
		e.handleComparison(sess, env, domain.IntentComparison, merged)
	case domain.IsAnalytical(q.AggregatedIntent):
		e.dispatchAnalysis(ctx, sess, env, q.AggregatedIntent, merged)
	default:
		e.dispatch(ctx, sess, env, q.Origin, q.AggregatedIntent, merged)
	}
}

// dispatchMultiAnalysis runs each distinct analytical intent of the parts
// in order, then links the completed analyses in sequence.
func (e *Engine) dispatchMultiAnalysis(ctx context.Context, sess *domain.Session, env *domain.ResponseEnvelope, q *domain.MultiTurnQuery) {
	var summaries []string
	var completedIDs []string
	failures := 0

	for _, label := range distinctAnalytical(q.Parts) {
		partEnv := domain.ResponseEnvelope{
			SessionID:     env.SessionID,
			CorrelationID: env.CorrelationID,
		}
		e.dispatchAnalysis(ctx, sess, &partEnv, label, entitiesForIntent(q.Parts, label))
		if partEnv.Success {
			summaries = append(summaries, partEnv.Speech)
			if n := len(sess.Analytical.AnalysisHistory); n > 0 {
				completedIDs = append(completedIDs, sess.Analytical.AnalysisHistory[n-1].ID)
			}
		} else {
			failures++
		}
	}

	for i := 1; i < len(completedIDs); i++ {
		session.AddConnection(sess, completedIDs[i-1], completedIDs[i],
			"multi_turn_sequence", "dispatched from one multi-turn query")
	}

	env.Speech = strings.Join(summaries, " Then, ")
	env.Success = failures == 0 && len(summaries) > 0
	if failures > 0 {
		if env.Speech != "" {
			env.Speech += " "
		}
		env.Speech += "Sorry, part of the request didn't complete. Please try that part again."
	}
}

// multiTurnStatus snapshots aggregator progress for a response envelope.
func multiTurnStatus(q *domain.MultiTurnQuery) *domain.MultiTurnStatus {
	return &domain.MultiTurnStatus{
		QueryID:          q.ID,
		PartsReceived:    len(q.Parts),
		ExpectedParts:    q.ExpectedParts,
		Complete:         q.Complete,
		AggregatedIntent: q.AggregatedIntent,
	}
}

// mergePartEntities folds part entities together, later parts winning.
func mergePartEntities(parts []domain.QueryPart) domain.Entities {
	merged := domain.Entities{}
	for _, p := range parts {
		for k, v := range p.Entities {
			merged[k] = v
		}
	}
	return merged
}

// entitiesForIntent returns the entities of the first part classified as
// the given intent.
func entitiesForIntent(parts []domain.QueryPart, label string) domain.Entities {
	for _, p := range parts {
		if p.Intent == label {
			return p.Entities
		}
	}
	return domain.Entities{}
}

// distinctAnalytical lists the distinct analytical intents of the parts
// in first-seen order.
func distinctAnalytical(parts []domain.QueryPart) []string {
	seen := map[string]bool{}
	var labels []string
	for _, p := range parts {
		if domain.IsAnalytical(p.Intent) && !seen[p.Intent] {
			seen[p.Intent] = true
			labels = append(labels, p.Intent)
		}
	}
	return labels
}

func averageConfidence(parts []domain.QueryPart) float64 {
	if len(parts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range parts {
		sum += p.Confidence
	}
	return sum / float64(len(parts))
}

