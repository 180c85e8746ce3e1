// Package multiturn stitches consecutive utterances into one composite
// analytical request. A session holds at most one open query; the
// aggregator moves it through NONE → OPEN → COMPLETE.
package multiturn

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/chainsense/internal/domain"
	"github.com/soyeahso/chainsense/internal/intent"
)

// startConnectives are the multi-part heuristics: conjunctive phrasing
// that signals a request will span several utterances, independent of the
// classifier's own multi-turn start intent.
var startConnectives = []*regexp.Regexp{
	regexp.MustCompile(`\band then\b`),
	regexp.MustCompile(`\bafter that\b`),
	regexp.MustCompile(`\balso show\b`),
	regexp.MustCompile(`\bfirst\b.*\bthen\b`),
	regexp.MustCompile(`\bfollowed by\b`),
	regexp.MustCompile(`^next\b`),
}

// Aggregator opens, extends, and completes multi-turn queries.
type Aggregator struct {
	classifier    *intent.Classifier
	expectedParts int
}

// NewAggregator creates an aggregator. expectedParts below 2 falls back
// to the policy default of 2.
func NewAggregator(classifier *intent.Classifier, expectedParts int) *Aggregator {
	if expectedParts < 2 {
		expectedParts = 2
	}
	return &Aggregator{classifier: classifier, expectedParts: expectedParts}
}

// ShouldOpen reports whether an utterance starts a multi-turn query:
// either the classifier resolved the dedicated start intent, or the raw
// utterance matches a multi-part connective.
func (a *Aggregator) ShouldOpen(utterance, resolvedIntent string) bool {
	if resolvedIntent == domain.IntentMultiTurnStart {
		return true
	}
	norm := intent.Normalize(utterance)
	for _, re := range startConnectives {
		if re.MatchString(norm) {
			return true
		}
	}
	return false
}

// Open creates a new query from the triggering utterance. The utterance
// is re-classified with the start intent excluded so part 1 records the
// underlying analytical request, not the framing.
func (a *Aggregator) Open(utterance string) *domain.MultiTurnQuery {
	label, conf := a.classifier.ClassifyExcluding(utterance, domain.IntentMultiTurnStart)
	part := domain.QueryPart{
		Text:       utterance,
		Intent:     label,
		Entities:   intent.Extract(utterance, label),
		Confidence: conf,
	}

	q := &domain.MultiTurnQuery{
		ID:            uuid.New().String(),
		Origin:        utterance,
		ExpectedParts: a.expectedParts,
		Parts:         []domain.QueryPart{part},
		StartedAt:     time.Now(),
	}
	return q
}

// Append adds a continuation part to an open query. Clarification policy
// is deliberately not applied to continuation turns — they are accepted
// unconditionally so the query can make progress. Once the part count
// reaches ExpectedParts the aggregate intent is computed exactly once and
// the query is marked complete. Appending to a completed query is a no-op.
func (a *Aggregator) Append(q *domain.MultiTurnQuery, part domain.QueryPart) {
	if q == nil || q.Complete {
		return
	}
	q.Parts = append(q.Parts, part)
	if len(q.Parts) >= q.ExpectedParts {
		q.AggregatedIntent = aggregate(q.Parts)
		q.Complete = true
	}
}

// aggregate derives the composite intent from the accumulated parts:
// comparison beats multi-analysis beats the final part's intent.
func aggregate(parts []domain.QueryPart) string {
	comparisonFlags := 0
	analytical := map[string]bool{}

	for _, p := range parts {
		if domain.IsComparison(p.Intent) {
			return domain.IntentComparison
		}
		if p.Entities.Bool(domain.EntityComparison) {
			comparisonFlags++
		}
		if domain.IsAnalytical(p.Intent) {
			analytical[p.Intent] = true
		}
	}

	if comparisonFlags >= 2 {
		return domain.IntentComparison
	}
	if len(analytical) >= 2 {
		return domain.IntentMultiAnalysis
	}
	return parts[len(parts)-1].Intent
}
