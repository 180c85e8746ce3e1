package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/chainsense/internal/archive"
	"github.com/soyeahso/chainsense/internal/audit"
	"github.com/soyeahso/chainsense/internal/capability"
	"github.com/soyeahso/chainsense/internal/domain"
	"github.com/soyeahso/chainsense/internal/logging"
	"github.com/soyeahso/chainsense/internal/session"
)

func summaryCapability(name, summary string) capability.Capability {
	return &capability.MockCapability{
		CapabilityName: name,
		AnalyzeFunc: func(_ context.Context, _ capability.Request) (*domain.AnalysisResult, error) {
			return &domain.AnalysisResult{Summary: summary, Confidence: 0.9}, nil
		},
	}
}

func failingCapability(name string) capability.Capability {
	return &capability.MockCapability{
		CapabilityName: name,
		AnalyzeFunc: func(_ context.Context, _ capability.Request) (*domain.AnalysisResult, error) {
			return nil, errors.New("backend unavailable")
		},
	}
}

func testEngine(t *testing.T, opts Options, caps ...capability.Capability) *Engine {
	t.Helper()
	log := logging.New(nil, "silent")

	reg := capability.NewRegistry(log)
	for _, c := range caps {
		reg.Register(c)
	}

	opts.Sessions = session.NewStore(30*time.Minute, log)
	opts.Capabilities = reg
	if opts.Audit == nil {
		opts.Audit = audit.NewRecorder(log)
	}
	if opts.CapabilityTimeout == 0 {
		opts.CapabilityTimeout = time.Second
	}
	if opts.DefaultVoice == "" {
		opts.DefaultVoice = "en-US-neutral"
	}
	return New(log, opts)
}

func TestProcessTurn_ImpactAnalysisFreshSession(t *testing.T) {
	e := testEngine(t, Options{}, summaryCapability(domain.IntentImpact, "Revenue at risk is about 12 percent."))

	env := e.ProcessTurn(context.Background(), "sess-1", "What's the financial impact if our main supplier fails?")

	assert.Equal(t, domain.IntentImpact, env.Intent)
	assert.GreaterOrEqual(t, env.Confidence, 0.7)
	assert.False(t, env.Clarification)
	assert.True(t, env.Success)
	assert.Equal(t, "Revenue at risk is about 12 percent.", env.Speech)
	assert.NotEmpty(t, env.CorrelationID)
	assert.NotEmpty(t, env.Suggestions)
	assert.Equal(t, "en-US-neutral", env.Voice)

	sess, ok := e.Sessions().Snapshot("sess-1")
	require.True(t, ok)
	require.Len(t, sess.History, 1)
	assert.True(t, sess.History[0].Success)
	assert.Equal(t, 1, sess.Metadata.SuccessfulCommands)
	assert.Empty(t, sess.Analytical.ActiveAnalyses)
	require.Len(t, sess.Analytical.AnalysisHistory, 1)
	assert.Equal(t, domain.AnalysisCompleted, sess.Analytical.AnalysisHistory[0].Status)
}

func TestProcessTurn_UnknownUtterance(t *testing.T) {
	e := testEngine(t, Options{})

	env := e.ProcessTurn(context.Background(), "sess-1", "xyz abc unclear")

	assert.Equal(t, domain.IntentUnknown, env.Intent)
	assert.Equal(t, 0.0, env.Confidence)
	assert.True(t, env.Clarification)
	assert.False(t, env.Success)
	assert.Contains(t, env.Speech, "rephrase")

	sess, _ := e.Sessions().Snapshot("sess-1")
	assert.Equal(t, 1, sess.Metadata.FailedCommands)
	assert.Empty(t, sess.Analytical.AnalysisHistory)
}

func TestProcessTurn_MissingEntityClarification(t *testing.T) {
	e := testEngine(t, Options{}, summaryCapability(domain.IntentImpact, "should not run"))

	env := e.ProcessTurn(context.Background(), "sess-1", "what's the impact of the new plan")

	assert.Equal(t, domain.IntentImpact, env.Intent)
	assert.True(t, env.Clarification)
	assert.True(t, env.Success)
	// The prompt references the top contextual suggestion.
	assert.Contains(t, env.Speech, "For example: see the cascade effects?")

	sess, _ := e.Sessions().Snapshot("sess-1")
	assert.Empty(t, sess.Analytical.AnalysisHistory, "clarification must not dispatch")
	require.Len(t, sess.History, 1)
}

func TestProcessTurn_DispatchFailure(t *testing.T) {
	e := testEngine(t, Options{}, failingCapability(domain.IntentImpact))

	env := e.ProcessTurn(context.Background(), "sess-1", "What's the financial impact if our main supplier fails?")

	assert.False(t, env.Success)
	assert.Contains(t, env.Speech, "Sorry")

	sess, _ := e.Sessions().Snapshot("sess-1")
	assert.Equal(t, 1, sess.Metadata.FailedCommands)
	require.Len(t, sess.Analytical.AnalysisHistory, 1)
	assert.Equal(t, domain.AnalysisFailed, sess.Analytical.AnalysisHistory[0].Status)
}

func TestProcessTurn_CapabilityTimeout(t *testing.T) {
	slow := &capability.MockCapability{
		CapabilityName: domain.IntentImpact,
		AnalyzeFunc: func(ctx context.Context, _ capability.Request) (*domain.AnalysisResult, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(500 * time.Millisecond):
				return &domain.AnalysisResult{Summary: "too late"}, nil
			}
		},
	}
	e := testEngine(t, Options{CapabilityTimeout: 20 * time.Millisecond}, slow)

	env := e.ProcessTurn(context.Background(), "sess-1", "What's the financial impact if our main supplier fails?")

	assert.False(t, env.Success)
	assert.Contains(t, env.Speech, "Sorry")
}

func TestProcessTurn_MultiTurnTwoParts(t *testing.T) {
	e := testEngine(t, Options{ExpectedParts: 2},
		summaryCapability(domain.IntentImpact, "Impact looks manageable."),
		summaryCapability(domain.IntentOptimization, "Dual sourcing saves the most."),
	)

	first := e.ProcessTurn(context.Background(), "sess-1",
		"First, what's the financial impact if our main supplier fails, then we'll keep going")
	require.NotNil(t, first.MultiTurn)
	assert.Equal(t, 1, first.MultiTurn.PartsReceived)
	assert.Equal(t, 2, first.MultiTurn.ExpectedParts)
	assert.False(t, first.MultiTurn.Complete)
	assert.True(t, first.Success)

	second := e.ProcessTurn(context.Background(), "sess-1", "optimize our shipping costs")
	require.NotNil(t, second.MultiTurn)
	assert.True(t, second.MultiTurn.Complete)
	assert.Equal(t, domain.IntentMultiAnalysis, second.Intent)
	assert.True(t, second.Success)
	assert.Contains(t, second.Speech, "Impact looks manageable.")
	assert.Contains(t, second.Speech, "Dual sourcing saves the most.")

	sess, _ := e.Sessions().Snapshot("sess-1")
	assert.Nil(t, sess.MultiTurn)
	require.Len(t, sess.Analytical.AnalysisHistory, 2)
	require.Len(t, sess.Analytical.Connections, 1)
	assert.Equal(t, "multi_turn_sequence", sess.Analytical.Connections[0].Relation)
}

func TestProcessTurn_MultiTurnContinuationAcceptedUnconditionally(t *testing.T) {
	// A continuation part that would have failed clarification on its own
	// still counts toward expectedParts.
	e := testEngine(t, Options{ExpectedParts: 3},
		summaryCapability(domain.IntentImpact, "Impact summary."))

	e.ProcessTurn(context.Background(), "sess-1",
		"First, what's the financial impact if our main supplier fails, then more")
	env := e.ProcessTurn(context.Background(), "sess-1", "xyz abc unclear")

	assert.True(t, env.Success)
	assert.False(t, env.Clarification)
	require.NotNil(t, env.MultiTurn)
	assert.Equal(t, 2, env.MultiTurn.PartsReceived)
	assert.False(t, env.MultiTurn.Complete)

	sess, _ := e.Sessions().Snapshot("sess-1")
	require.NotNil(t, sess.MultiTurn)
	require.Len(t, sess.MultiTurn.Parts, 2)
	assert.Equal(t, domain.IntentUnknown, sess.MultiTurn.Parts[1].Intent)
}

func TestProcessTurn_MultiTurnComparisonAggregate(t *testing.T) {
	e := testEngine(t, Options{ExpectedParts: 2})

	e.ProcessTurn(context.Background(), "sess-1",
		"I have two questions about our sourcing options")
	env := e.ProcessTurn(context.Background(), "sess-1",
		"compare nearshoring and dual sourcing based on cost, risk")

	require.NotNil(t, env.MultiTurn)
	assert.True(t, env.MultiTurn.Complete)
	assert.Equal(t, domain.IntentComparison, env.Intent)

	sess, _ := e.Sessions().Snapshot("sess-1")
	assert.True(t, sess.Analytical.ComparisonMode)
	assert.Equal(t, []string{"nearshoring", "dual sourcing"}, sess.Analytical.ComparisonItems)
}

func TestProcessTurn_ClearContextDuringMultiTurn(t *testing.T) {
	e := testEngine(t, Options{ExpectedParts: 3})

	e.ProcessTurn(context.Background(), "sess-1",
		"First, what's the financial impact if our main supplier fails, then more")
	env := e.ProcessTurn(context.Background(), "sess-1", "clear the context")

	assert.Equal(t, domain.IntentClearContext, env.Intent)
	assert.True(t, env.Success)

	sess, _ := e.Sessions().Snapshot("sess-1")
	assert.Nil(t, sess.MultiTurn)
	require.Len(t, sess.History, 2, "history survives a context clear")
}

func TestProcessTurn_Navigation(t *testing.T) {
	e := testEngine(t, Options{})

	env := e.ProcessTurn(context.Background(), "sess-1", "Take me to the sustainability dashboard")

	assert.Equal(t, domain.IntentNavigation, env.Intent)
	assert.True(t, env.Success)
	assert.Equal(t, "sustainability dashboard", env.NavigationTarget)

	sess, _ := e.Sessions().Snapshot("sess-1")
	assert.Equal(t, "sustainability dashboard", sess.Visualization.CurrentView)
	assert.Equal(t, 1, sess.Metadata.VoiceNavigations)
	assert.Equal(t, 1, sess.Visualization.VoiceNavigations)
}

func TestProcessTurn_VisualizationZoom(t *testing.T) {
	e := testEngine(t, Options{})

	env := e.ProcessTurn(context.Background(), "sess-1", "zoom in by 2x")

	assert.True(t, env.Success)
	require.Len(t, env.VisualCmds, 1)
	assert.Equal(t, "zoom", env.VisualCmds[0].Action)

	sess, _ := e.Sessions().Snapshot("sess-1")
	require.Len(t, sess.Visualization.PendingCommands, 1)
}

func TestProcessTurn_VisualizationChartTracksActiveCharts(t *testing.T) {
	e := testEngine(t, Options{})

	env := e.ProcessTurn(context.Background(), "sess-1", "switch to a bar chart")

	assert.True(t, env.Success)
	require.Len(t, env.VisualCmds, 1)
	assert.Equal(t, "switch_chart", env.VisualCmds[0].Action)
	assert.Equal(t, "bar", env.VisualCmds[0].Target)

	sess, _ := e.Sessions().Snapshot("sess-1")
	assert.Contains(t, sess.Visualization.ActiveCharts, "bar")
}

func TestProcessTurn_ComparisonPair(t *testing.T) {
	e := testEngine(t, Options{})

	env := e.ProcessTurn(context.Background(), "sess-1",
		"compare nearshoring and dual sourcing based on cost, risk")

	assert.True(t, env.Success)
	assert.Contains(t, env.Speech, "Comparing nearshoring and dual sourcing")

	sess, _ := e.Sessions().Snapshot("sess-1")
	assert.True(t, sess.Analytical.ComparisonMode)
	assert.Equal(t, []string{"nearshoring", "dual sourcing"}, sess.Analytical.ComparisonItems)
	assert.Equal(t, []string{"cost", "risk"}, sess.Analytical.ComparisonCriteria)
}

func TestProcessTurn_ClearContextKeepsHistory(t *testing.T) {
	e := testEngine(t, Options{}, summaryCapability(domain.IntentImpact, "Impact summary."))

	e.ProcessTurn(context.Background(), "sess-1", "What's the financial impact if our main supplier fails?")
	env := e.ProcessTurn(context.Background(), "sess-1", "clear the context")

	assert.True(t, env.Success)
	assert.Contains(t, env.Speech, "cleared")

	sess, _ := e.Sessions().Snapshot("sess-1")
	require.Len(t, sess.History, 2)
	assert.Empty(t, sess.Analytical.AnalysisHistory)
	assert.Equal(t, 2, sess.Metadata.SuccessfulCommands)
}

func TestProcessTurn_Help(t *testing.T) {
	e := testEngine(t, Options{}, summaryCapability(domain.IntentImpact, "x"))

	env := e.ProcessTurn(context.Background(), "sess-1", "help")

	assert.True(t, env.Success)
	assert.Contains(t, env.Speech, "financial impact")
	assert.Contains(t, env.Speech, domain.IntentImpact)
}

func TestProcessTurn_VoicePreferenceWins(t *testing.T) {
	e := testEngine(t, Options{})

	voice := "en-GB-warm"
	e.Sessions().With("sess-1", func(sess *domain.Session) {
		session.UpdateContext(sess, session.ContextPatch{Voice: &voice})
	})

	env := e.ProcessTurn(context.Background(), "sess-1", "help")
	assert.Equal(t, "en-GB-warm", env.Voice)
}

func TestProcessTurn_ArchivesEveryTurn(t *testing.T) {
	log := logging.New(nil, "silent")
	db, err := archive.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := testEngine(t, Options{Archive: archive.NewTurnArchive(db)},
		summaryCapability(domain.IntentImpact, "Impact summary."))

	e.ProcessTurn(context.Background(), "sess-1", "What's the financial impact if our main supplier fails?")
	e.ProcessTurn(context.Background(), "sess-1", "xyz abc unclear")

	arch := archive.NewTurnArchive(db)
	count, err := arch.CountBySession("sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	failed := false
	rows, err := arch.Query(archive.Filter{SessionID: "sess-1", Success: &failed})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.IntentUnknown, rows[0].Intent)
}

func TestProcessTurn_AuditEmitsOneResolvedEventPerTurn(t *testing.T) {
	log := logging.New(nil, "silent")
	rec := audit.NewRecorder(log)

	var resolved atomic.Int32
	rec.On(audit.EventTurnResolved, "counter", func(_ context.Context, _ audit.Event) error {
		resolved.Add(1)
		return nil
	})

	e := testEngine(t, Options{Audit: rec}, summaryCapability(domain.IntentImpact, "Impact summary."))

	e.ProcessTurn(context.Background(), "sess-1", "What's the financial impact if our main supplier fails?")
	e.ProcessTurn(context.Background(), "sess-1", "help")

	assert.Eventually(t, func() bool {
		return resolved.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProcessTurn_SuggestionsDeterministic(t *testing.T) {
	e := testEngine(t, Options{}, summaryCapability(domain.IntentImpact, "Impact summary."))

	a := e.ProcessTurn(context.Background(), "sess-a", "What's the financial impact if our main supplier fails?")
	b := e.ProcessTurn(context.Background(), "sess-b", "What's the financial impact if our main supplier fails?")

	assert.Equal(t, a.Suggestions, b.Suggestions)
	assert.Equal(t, a.Intent, b.Intent)
	assert.Equal(t, a.Confidence, b.Confidence)
}
