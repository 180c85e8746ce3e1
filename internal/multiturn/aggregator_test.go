package multiturn

import (
	"testing"

	"github.com/soyeahso/chainsense/internal/domain"
	"github.com/soyeahso/chainsense/internal/intent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	return NewAggregator(intent.NewClassifier(), 2)
}

func TestShouldOpenOnStartIntent(t *testing.T) {
	a := newTestAggregator(t)
	assert.True(t, a.ShouldOpen("I have a few questions about suppliers", domain.IntentMultiTurnStart))
}

func TestShouldOpenOnConnectives(t *testing.T) {
	a := newTestAggregator(t)
	utterances := []string{
		"show the impact and then the optimization options",
		"run the analysis, after that show me the costs",
		"also show the sustainability score",
		"first analyze the impact, then show optimization",
		"impact analysis followed by a cost breakdown",
	}
	for _, u := range utterances {
		assert.True(t, a.ShouldOpen(u, domain.IntentImpact), u)
	}
}

func TestShouldNotOpenOnPlainUtterance(t *testing.T) {
	a := newTestAggregator(t)
	assert.False(t, a.ShouldOpen("what's the financial impact if our main supplier fails?", domain.IntentImpact))
	// "next quarter" is a time reference, not a connective
	assert.False(t, a.ShouldOpen("show me the analytics for next quarter", domain.IntentAnalytics))
}

func TestOpenRecordsUnderlyingIntentAsPartOne(t *testing.T) {
	a := newTestAggregator(t)

	q := a.Open("First analyze the impact of supplier failure, then show me optimization strategies")
	require.NotNil(t, q)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, 2, q.ExpectedParts)
	assert.False(t, q.Complete)
	require.Len(t, q.Parts, 1)
	assert.Equal(t, domain.IntentImpact, q.Parts[0].Intent)
}

func TestCompleteAfterExpectedParts(t *testing.T) {
	a := newTestAggregator(t)

	q := a.Open("First analyze the impact of supplier failure, then show me optimization strategies")
	a.Append(q, domain.QueryPart{
		Text:       "focus on cost reduction and risk mitigation",
		Intent:     domain.IntentOptimization,
		Confidence: 0.7,
	})

	assert.True(t, q.Complete)
	assert.Len(t, q.Parts, 2)
	// impact + optimization → two distinct analytical intents
	assert.Equal(t, domain.IntentMultiAnalysis, q.AggregatedIntent)
}

func TestAppendToCompleteQueryIsNoOp(t *testing.T) {
	a := newTestAggregator(t)

	q := a.Open("first show impact then optimization")
	a.Append(q, domain.QueryPart{Intent: domain.IntentOptimization})
	require.True(t, q.Complete)
	got := q.AggregatedIntent

	a.Append(q, domain.QueryPart{Intent: domain.IntentSustainability})
	assert.Len(t, q.Parts, 2)
	assert.Equal(t, got, q.AggregatedIntent)
}

func TestAggregateComparisonFromSubTableIntent(t *testing.T) {
	a := newTestAggregator(t)

	q := a.Open("first show the impact and then compare them")
	a.Append(q, domain.QueryPart{
		Text:   "compare supplier a and supplier b",
		Intent: "comparison_compare",
	})

	assert.True(t, q.Complete)
	assert.Equal(t, domain.IntentComparison, q.AggregatedIntent)
}

func TestAggregateComparisonFromEntityFlags(t *testing.T) {
	parts := []domain.QueryPart{
		{Intent: domain.IntentAnalytics, Entities: domain.Entities{domain.EntityComparison: true}},
		{Intent: domain.IntentAnalytics, Entities: domain.Entities{domain.EntityComparison: true}},
	}
	assert.Equal(t, domain.IntentComparison, aggregate(parts))
}

func TestAggregateFallsBackToFinalPartIntent(t *testing.T) {
	parts := []domain.QueryPart{
		{Intent: domain.IntentUnknown},
		{Intent: domain.IntentSustainability},
	}
	assert.Equal(t, domain.IntentSustainability, aggregate(parts))
}

func TestExpectedPartsFloor(t *testing.T) {
	a := NewAggregator(intent.NewClassifier(), 0)
	q := a.Open("first this then that")
	assert.Equal(t, 2, q.ExpectedParts)
}
