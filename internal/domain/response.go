package domain

// VisualizationCommand describes one rendering action for the UI consumer.
// The engine only records what should happen; it never drives timing.
type VisualizationCommand struct {
	Action string `json:"action"` // "zoom" | "switch_chart" | "filter" | "highlight" | "reset"
	Target string `json:"target,omitempty"`
	Value  any    `json:"value,omitempty"`
}

// VisualizationState tracks the session's current view and pending
// rendering work.
type VisualizationState struct {
	CurrentView      string                 `json:"currentView,omitempty"`
	ActiveCharts     []string               `json:"activeCharts,omitempty"`
	PendingCommands  []VisualizationCommand `json:"pendingCommands,omitempty"`
	VoiceNavigations int                    `json:"voiceNavigations"`
}

// MultiTurnStatus reports aggregator progress in a response envelope.
type MultiTurnStatus struct {
	QueryID          string `json:"queryId"`
	PartsReceived    int    `json:"partsReceived"`
	ExpectedParts    int    `json:"expectedParts"`
	Complete         bool   `json:"complete"`
	AggregatedIntent string `json:"aggregatedIntent,omitempty"`
}

// ResponseEnvelope is what every processed turn returns to the caller.
// Failures degrade the content (apology or clarification text); they never
// surface as protocol errors.
type ResponseEnvelope struct {
	SessionID        string                 `json:"sessionId"`
	CorrelationID    string                 `json:"correlationId"`
	Speech           string                 `json:"speech"`
	Voice            string                 `json:"voice,omitempty"`
	Intent           string                 `json:"intent"`
	Confidence       float64                `json:"confidence"`
	Entities         Entities               `json:"entities,omitempty"`
	Success          bool                   `json:"success"`
	Clarification    bool                   `json:"clarification,omitempty"`
	Suggestions      []string               `json:"suggestions,omitempty"`
	NavigationTarget string                 `json:"navigationTarget,omitempty"`
	VisualPayload    map[string]any         `json:"visualPayload,omitempty"`
	VisualCmds       []VisualizationCommand `json:"visualCommands,omitempty"`
	MultiTurn        *MultiTurnStatus       `json:"multiTurn,omitempty"`
}
