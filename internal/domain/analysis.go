package domain

import "time"

// Analysis statuses.
const (
	AnalysisPending   = "pending"
	AnalysisCompleted = "completed"
	AnalysisFailed    = "failed"
)

// Analysis is one dispatched analytical task. Active analyses carry status
// "pending"; once completed they move to the session's history and are
// immutable from then on.
type Analysis struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"` // analytical intent label
	Parameters  Entities        `json:"parameters,omitempty"`
	Priority    string          `json:"priority"` // "low" | "normal" | "high"
	Status      string          `json:"status"`
	Result      *AnalysisResult `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt time.Time       `json:"completedAt,omitempty"`
}

// AnalysisResult is the payload returned by an external analytical
// capability. The engine treats it as opaque beyond the summary text.
type AnalysisResult struct {
	Summary    string         `json:"summary"`
	Payload    map[string]any `json:"payload,omitempty"`
	Confidence float64        `json:"confidence"`
	CrossRefs  []string       `json:"crossRefs,omitempty"`
}

// CrossAnalysisConnection is a directed edge between two completed
// analyses with a relation label and free-text rationale.
type CrossAnalysisConnection struct {
	ID       string `json:"id"`
	FromID   string `json:"fromId"`
	ToID     string `json:"toId"`
	Relation string `json:"relation"`
	Note     string `json:"note,omitempty"`
}

// AnalyticalContext holds the session's analytical working state.
type AnalyticalContext struct {
	ActiveAnalyses     []*Analysis               `json:"activeAnalyses,omitempty"`
	AnalysisHistory    []Analysis                `json:"analysisHistory,omitempty"`
	Connections        []CrossAnalysisConnection `json:"crossAnalysisConnections,omitempty"`
	ComparisonMode     bool                      `json:"comparisonMode"`
	ComparisonItems    []string                  `json:"comparisonItems,omitempty"`
	ComparisonCriteria []string                  `json:"comparisonCriteria,omitempty"`
}

// HistoryHas reports whether a completed analysis with the given id exists.
func (c *AnalyticalContext) HistoryHas(id string) bool {
	for _, a := range c.AnalysisHistory {
		if a.ID == id {
			return true
		}
	}
	return false
}
