package session

import (
	"time"

	"github.com/soyeahso/chainsense/internal/domain"
)

// Analytics is a derived usage summary computed at export time.
type Analytics struct {
	Turns             int            `json:"turns"`
	SuccessfulTurns   int            `json:"successfulTurns"`
	FailedTurns       int            `json:"failedTurns"`
	AverageConfidence float64        `json:"averageConfidence"`
	IntentFrequency   map[string]int `json:"intentFrequency,omitempty"`
	ActiveAnalyses    int            `json:"activeAnalyses"`
	CompletedAnalyses int            `json:"completedAnalyses"`
	Connections       int            `json:"connections"`
	SessionAge        time.Duration  `json:"sessionAgeNs"`
}

// Export is a session snapshot plus its derived analytics.
type Export struct {
	Session   domain.Session `json:"session"`
	Analytics Analytics      `json:"analytics"`
}

// Export returns the session and a derived analytics snapshot, or false
// if the session does not exist.
func (s *Store) Export(sessionID string) (Export, bool) {
	snap, ok := s.Snapshot(sessionID)
	if !ok {
		return Export{}, false
	}
	return Export{Session: snap, Analytics: deriveAnalytics(&snap)}, true
}

func deriveAnalytics(sess *domain.Session) Analytics {
	a := Analytics{
		Turns:             len(sess.History),
		IntentFrequency:   map[string]int{},
		ActiveAnalyses:    len(sess.Analytical.ActiveAnalyses),
		CompletedAnalyses: len(sess.Analytical.AnalysisHistory),
		Connections:       len(sess.Analytical.Connections),
		SessionAge:        time.Since(sess.Metadata.CreatedAt),
	}

	var confidenceSum float64
	for _, turn := range sess.History {
		if turn.Success {
			a.SuccessfulTurns++
		} else {
			a.FailedTurns++
		}
		confidenceSum += turn.Confidence
		a.IntentFrequency[turn.Intent]++
	}
	if a.Turns > 0 {
		a.AverageConfidence = confidenceSum / float64(a.Turns)
	}
	return a
}
