package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/chainsense/internal/domain"
)

// The mutators below operate on a session the caller already holds via
// Store.With, so they take the session directly and never lock.

// AppendTurn records one processed turn and bumps the usage counters.
// History grows by exactly one entry per call, success or failure.
func AppendTurn(sess *domain.Session, turn domain.ConversationTurn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	sess.History = append(sess.History, turn)
	if turn.Success {
		sess.Metadata.SuccessfulCommands++
	} else {
		sess.Metadata.FailedCommands++
	}
}

// ContextPatch carries partial updates with merge semantics: only
// non-nil fields overwrite.
type ContextPatch struct {
	Voice          *string
	Verbosity      *string
	TimePeriod     *string
	CurrentView    *string
	ComparisonMode *bool
}

// UpdateContext merges a partial update into the session.
func UpdateContext(sess *domain.Session, patch ContextPatch) {
	if patch.Voice != nil {
		sess.Preferences.Voice = *patch.Voice
	}
	if patch.Verbosity != nil {
		sess.Preferences.Verbosity = *patch.Verbosity
	}
	if patch.TimePeriod != nil {
		sess.Preferences.DefaultTimePeriod = *patch.TimePeriod
	}
	if patch.CurrentView != nil {
		sess.Visualization.CurrentView = *patch.CurrentView
	}
	if patch.ComparisonMode != nil {
		sess.Analytical.ComparisonMode = *patch.ComparisonMode
		if !*patch.ComparisonMode {
			sess.Analytical.ComparisonItems = nil
			sess.Analytical.ComparisonCriteria = nil
		}
	}
}

// AddActiveAnalysis opens a pending analysis and returns its id.
func AddActiveAnalysis(sess *domain.Session, analysisType string, params domain.Entities, priority string) string {
	if priority == "" {
		priority = "normal"
	}
	a := &domain.Analysis{
		ID:         uuid.New().String(),
		Type:       analysisType,
		Parameters: params.Clone(),
		Priority:   priority,
		Status:     domain.AnalysisPending,
		CreatedAt:  time.Now(),
	}
	sess.Analytical.ActiveAnalyses = append(sess.Analytical.ActiveAnalyses, a)
	return a.ID
}

// CompleteAnalysis moves an active analysis into history with the given
// result. Unknown ids are a non-fatal inconsistency: the call is a no-op
// returning false and the caller decides whether to log it.
func CompleteAnalysis(sess *domain.Session, id string, result *domain.AnalysisResult) bool {
	return settleAnalysis(sess, id, domain.AnalysisCompleted, result)
}

// FailAnalysis moves an active analysis into history marked failed.
func FailAnalysis(sess *domain.Session, id string) bool {
	return settleAnalysis(sess, id, domain.AnalysisFailed, nil)
}

func settleAnalysis(sess *domain.Session, id, status string, result *domain.AnalysisResult) bool {
	for i, a := range sess.Analytical.ActiveAnalyses {
		if a.ID != id {
			continue
		}
		done := *a
		done.Status = status
		done.Result = result
		done.CompletedAt = time.Now()

		sess.Analytical.ActiveAnalyses = append(
			sess.Analytical.ActiveAnalyses[:i],
			sess.Analytical.ActiveAnalyses[i+1:]...,
		)
		sess.Analytical.AnalysisHistory = append(sess.Analytical.AnalysisHistory, done)
		return true
	}
	return false
}

// EnableComparison turns on comparison mode with the given items and
// criteria.
func EnableComparison(sess *domain.Session, items, criteria []string) {
	sess.Analytical.ComparisonMode = true
	sess.Analytical.ComparisonItems = append([]string(nil), items...)
	sess.Analytical.ComparisonCriteria = append([]string(nil), criteria...)
}

// AddConnection records a directed edge between two completed analyses.
// Both ids must exist in analysis history; otherwise no mutation happens
// and false is returned.
func AddConnection(sess *domain.Session, fromID, toID, relation, note string) bool {
	if !sess.Analytical.HistoryHas(fromID) || !sess.Analytical.HistoryHas(toID) {
		return false
	}
	sess.Analytical.Connections = append(sess.Analytical.Connections, domain.CrossAnalysisConnection{
		ID:       uuid.New().String(),
		FromID:   fromID,
		ToID:     toID,
		Relation: relation,
		Note:     note,
	})
	return true
}

// ClearWorkingContext drops analytical and visualization working state
// while preserving conversation history and counters. This backs the
// spoken "clear context" intent; destroying the whole session is
// Store.Clear.
func ClearWorkingContext(sess *domain.Session) {
	sess.Analytical = domain.AnalyticalContext{}
	sess.Visualization = domain.VisualizationState{}
	sess.MultiTurn = nil
}
