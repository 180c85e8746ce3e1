package domain

import "strings"

// Core analytical intent labels. Each maps to one external analytical
// capability of the same name.
const (
	IntentImpact         = "impact_analysis"
	IntentOptimization   = "optimization"
	IntentSustainability = "sustainability"
	IntentAnalytics      = "analytics"
	IntentExplainability = "explainability"
)

// Control intent labels.
const (
	IntentMultiTurnStart = "multi_turn_start"
	IntentNavigation     = "navigation"
	IntentHelp           = "help"
	IntentClearContext   = "clear_context"
	IntentUnknown        = "unknown"
)

// Aggregated intents produced by the multi-turn aggregator. They never
// come out of the classifier directly.
const (
	IntentComparison    = "comparison"
	IntentMultiAnalysis = "multi_analysis"
)

// Sub-table namespace prefixes.
const (
	VisualizationPrefix = "visualization_"
	ComparisonPrefix    = "comparison_"
)

// AnalyticalIntents lists the five intents that dispatch to an external
// analytical capability, in canonical order.
var AnalyticalIntents = []string{
	IntentImpact,
	IntentOptimization,
	IntentSustainability,
	IntentAnalytics,
	IntentExplainability,
}

// IsAnalytical reports whether the intent routes to an analytical capability.
func IsAnalytical(intent string) bool {
	for _, a := range AnalyticalIntents {
		if intent == a {
			return true
		}
	}
	return false
}

// IsVisualization reports whether the intent is in the visualization namespace.
func IsVisualization(intent string) bool {
	return strings.HasPrefix(intent, VisualizationPrefix)
}

// IsComparison reports whether the intent is in the comparison namespace.
func IsComparison(intent string) bool {
	return strings.HasPrefix(intent, ComparisonPrefix)
}

// Entities is a flat key→value map of extracted entities. Absent entities
// are omitted rather than stored as nulls, so required-entity checks are
// plain presence tests.
type Entities map[string]any

// Well-known entity keys.
const (
	EntityNumber       = "number"
	EntityPercentage   = "percentage"
	EntityTimePeriod   = "time_period"
	EntityStrategy     = "strategy"
	EntityComparison   = "comparison"
	EntityUrgency      = "urgency"
	EntityZoomLevel    = "zoom_level"
	EntityChartType    = "chart_type"
	EntityFilterTarget = "filter_target"
	EntityItemA        = "item_a"
	EntityItemB        = "item_b"
	EntityCriteria     = "criteria"
	EntityDisruption   = "disruption"
)

// Has reports whether the entity key is present.
func (e Entities) Has(key string) bool {
	_, ok := e[key]
	return ok
}

// String returns the entity as a string, or "" if absent or not a string.
func (e Entities) String(key string) string {
	s, _ := e[key].(string)
	return s
}

// Float returns the entity as a float64, or 0 if absent or not numeric.
func (e Entities) Float(key string) float64 {
	f, _ := e[key].(float64)
	return f
}

// Bool returns the entity as a bool.
func (e Entities) Bool(key string) bool {
	b, _ := e[key].(bool)
	return b
}

// Clone returns a shallow copy of the entity map.
func (e Entities) Clone() Entities {
	if e == nil {
		return nil
	}
	out := make(Entities, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
