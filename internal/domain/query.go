package domain

import "time"

// QueryPart is one classified utterance contributing to a multi-turn query.
type QueryPart struct {
	Text       string   `json:"text"`
	Intent     string   `json:"intent"`
	Entities   Entities `json:"entities,omitempty"`
	Confidence float64  `json:"confidence"`
}

// MultiTurnQuery accumulates a request spread across consecutive
// utterances. A session holds at most one open query; once the part count
// reaches ExpectedParts the aggregate intent is computed exactly once and
// Complete flips to true.
type MultiTurnQuery struct {
	ID               string      `json:"id"`
	Origin           string      `json:"origin"` // utterance that opened the query
	ExpectedParts    int         `json:"expectedParts"`
	Parts            []QueryPart `json:"parts,omitempty"`
	Complete         bool        `json:"complete"`
	AggregatedIntent string      `json:"aggregatedIntent,omitempty"`
	StartedAt        time.Time   `json:"startedAt"`
}
