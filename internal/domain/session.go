// Package domain defines the conversational data model: sessions, turns,
// analyses, multi-turn queries, and the response envelope.
package domain

import "time"

// Session is the unit of conversational continuity, keyed by an opaque
// externally supplied identifier. Sessions are created lazily on first
// reference and evicted only by the idle cleanup sweep or an explicit clear.
type Session struct {
	ID            string             `json:"id"`
	History       []ConversationTurn `json:"history"`
	Analytical    AnalyticalContext  `json:"analytical"`
	Visualization VisualizationState `json:"visualization"`
	MultiTurn     *MultiTurnQuery    `json:"multiTurn,omitempty"`
	Preferences   Preferences        `json:"preferences"`
	Metadata      Metadata           `json:"metadata"`
}

// ConversationTurn is one processed utterance and its response. Turns are
// appended to session history and never edited afterwards.
type ConversationTurn struct {
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlationId"`
	RawInput      string                 `json:"rawInput"`
	Intent        string                 `json:"intent"`
	Entities      Entities               `json:"entities,omitempty"`
	Response      string                 `json:"response"`
	Confidence    float64                `json:"confidence"`
	Success       bool                   `json:"success"`
	AnalysisID    string                 `json:"analysisId,omitempty"`
	VisualCmds    []VisualizationCommand `json:"visualCommands,omitempty"`
}

// Preferences holds per-user speech and presentation settings.
type Preferences struct {
	Voice             string `json:"voice,omitempty"`
	Verbosity         string `json:"verbosity,omitempty"` // "brief" | "normal" | "detailed"
	DefaultTimePeriod string `json:"defaultTimePeriod,omitempty"`
}

// Metadata tracks per-session usage counters.
type Metadata struct {
	CreatedAt          time.Time `json:"createdAt"`
	LastActivity       time.Time `json:"lastActivity"`
	SuccessfulCommands int       `json:"successfulCommands"`
	FailedCommands     int       `json:"failedCommands"`
	VoiceNavigations   int       `json:"voiceNavigations"`
}
