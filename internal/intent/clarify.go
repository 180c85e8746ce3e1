package intent

import (
	"fmt"

	"github.com/soyeahso/chainsense/internal/domain"
)

// requiredEntities maps an intent to a predicate over its extracted
// entities. Intents without an entry never require clarification on
// entity grounds. Consulted uniformly by Decide — no per-intent
// conditionals elsewhere.
var requiredEntities = map[string]func(domain.Entities) bool{
	// Impact analysis needs something concrete to quantify: a named
	// strategy, a number, a percentage, or a disruption event.
	domain.IntentImpact: func(e domain.Entities) bool {
		return e.Has(domain.EntityStrategy) || e.Has(domain.EntityNumber) ||
			e.Has(domain.EntityPercentage) || e.Has(domain.EntityDisruption)
	},
}

// Decision is the clarification policy outcome for one turn.
type Decision struct {
	NeedsClarification bool
	// Recognized is false only for a total classification miss; it
	// controls whether the turn still counts as successful.
	Recognized bool
	// Prompt is the clarification question, set when needed.
	Prompt string
}

// Decide applies the clarification policy: clarify when confidence is
// below the threshold or a required entity for the intent is missing.
// The prompt references the top contextual suggestion when one exists.
func Decide(resolvedIntent string, confidence float64, entities domain.Entities, threshold float64, suggestions []string) Decision {
	if resolvedIntent == domain.IntentUnknown {
		return Decision{
			NeedsClarification: true,
			Recognized:         false,
			Prompt:             "I didn't catch that. Could you rephrase? For example, ask about financial impact, optimization, or sustainability.",
		}
	}

	missing := false
	if pred, ok := requiredEntities[resolvedIntent]; ok && !pred(entities) {
		missing = true
	}

	if confidence >= threshold && !missing {
		return Decision{Recognized: true}
	}

	prompt := fmt.Sprintf("I think you're asking about %s, but I need a bit more detail.", speakableIntent(resolvedIntent))
	if missing {
		prompt = fmt.Sprintf("To run %s I need a strategy name or a number to work with.", speakableIntent(resolvedIntent))
	}
	if len(suggestions) > 0 {
		prompt += " For example: " + suggestions[0]
	}

	return Decision{
		NeedsClarification: true,
		Recognized:         true,
		Prompt:             prompt,
	}
}

// speakableIntent renders an intent label as plain words for prompts.
func speakableIntent(intent string) string {
	switch intent {
	case domain.IntentImpact:
		return "impact analysis"
	case domain.IntentOptimization:
		return "optimization"
	case domain.IntentSustainability:
		return "sustainability"
	case domain.IntentAnalytics:
		return "analytics"
	case domain.IntentExplainability:
		return "explainability"
	default:
		return "that"
	}
}
