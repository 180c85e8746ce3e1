package intent

import "github.com/soyeahso/chainsense/internal/domain"

// suggestionTemplates maps each analytical intent to its ordered
// follow-up prompts. Intents without an entry produce no suggestions.
var suggestionTemplates = map[string][]string{
	domain.IntentImpact: {
		"see the cascade effects?",
		"break down the cost drivers?",
		"compare mitigation scenarios?",
	},
	domain.IntentOptimization: {
		"simulate the top strategy?",
		"see the cost-benefit breakdown?",
		"compare against the current setup?",
	},
	domain.IntentSustainability: {
		"see the carbon footprint by supplier?",
		"compare green sourcing options?",
		"check the compliance outlook?",
	},
	domain.IntentAnalytics: {
		"drill into a specific metric?",
		"see the quarterly trend?",
		"export this as a report?",
	},
	domain.IntentExplainability: {
		"see which factors weighed most?",
		"walk through the calculation?",
		"check the data sources used?",
	},
}

// Suggest derives follow-up prompts from the current intent, session
// history, and active analyses. Deterministic for identical inputs;
// non-empty exactly for the five analytical intents.
func Suggest(currentIntent string, history []domain.ConversationTurn, active []*domain.Analysis) []string {
	base, ok := suggestionTemplates[currentIntent]
	if !ok {
		return nil
	}

	out := make([]string, 0, len(base)+2)
	out = append(out, base...)

	// Running analyses invite a status check.
	if len(active) > 0 {
		out = append(out, "check on your running analysis?")
	}

	// A session that already mixed several analytical intents invites a
	// cross-analysis comparison.
	if distinctAnalyticalIntents(history) >= 2 {
		out = append(out, "connect this with your earlier analyses?")
	}

	return out
}

// distinctAnalyticalIntents counts distinct analytical intents in history.
func distinctAnalyticalIntents(history []domain.ConversationTurn) int {
	seen := map[string]bool{}
	for _, turn := range history {
		if domain.IsAnalytical(turn.Intent) {
			seen[turn.Intent] = true
		}
	}
	return len(seen)
}
