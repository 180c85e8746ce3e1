package engine

import (
	"regexp"
	"sort"
	"strings"

	"github.com/soyeahso/chainsense/internal/domain"
	"github.com/soyeahso/chainsense/internal/intent"
)

// Intent labels for the visualization and comparison sub-tables, kept as
// locals so the dispatcher switch reads cleanly.
const (
	intentVisualizationZoom   = domain.VisualizationPrefix + "zoom"
	intentVisualizationChart  = domain.VisualizationPrefix + "chart"
	intentVisualizationFilter = domain.VisualizationPrefix + "filter"
	intentVisualizationReset  = domain.VisualizationPrefix + "reset"
	intentComparisonCompare   = domain.ComparisonPrefix + "compare"
	intentComparisonCriteria  = domain.ComparisonPrefix + "criteria"
)

var navTargetRe = regexp.MustCompile(`(?:go|navigate|take me|jump)(?: back)? to (?:the )?([a-z0-9 _-]+?)(?:\s*(?:please|now))?$`)
var navOpenRe = regexp.MustCompile(`open the ([a-z0-9 _-]+?)(?:\s*(?:please|now))?$`)

// navigationTarget pulls the destination out of a navigation utterance.
func navigationTarget(utterance string) string {
	norm := intent.Normalize(utterance)
	norm = strings.TrimRight(norm, ".!?")
	if m := navTargetRe.FindStringSubmatch(norm); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := navOpenRe.FindStringSubmatch(norm); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// voiceFor picks the session's preferred voice, falling back to the
// configured default.
func (e *Engine) voiceFor(sess *domain.Session) string {
	if sess.Preferences.Voice != "" {
		return sess.Preferences.Voice
	}
	return e.defaultVoice
}

// sessionParameters derives capability parameters from session context.
func sessionParameters(sess *domain.Session) map[string]any {
	params := map[string]any{}
	if sess.Preferences.DefaultTimePeriod != "" {
		params["timePeriod"] = sess.Preferences.DefaultTimePeriod
	}
	if sess.Preferences.Verbosity != "" {
		params["verbosity"] = sess.Preferences.Verbosity
	}
	if sess.Analytical.ComparisonMode {
		params["comparisonItems"] = append([]string(nil), sess.Analytical.ComparisonItems...)
		params["comparisonCriteria"] = append([]string(nil), sess.Analytical.ComparisonCriteria...)
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

// priorityFor maps extracted urgency to an analysis priority.
func priorityFor(entities domain.Entities) string {
	switch entities.String(domain.EntityUrgency) {
	case "high":
		return "high"
	case "low":
		return "low"
	default:
		return "normal"
	}
}

// comparisonItems collects the comparison pair from the entities.
func comparisonItems(entities domain.Entities) []string {
	var items []string
	if a := entities.String(domain.EntityItemA); a != "" {
		items = append(items, a)
	}
	if b := entities.String(domain.EntityItemB); b != "" {
		items = append(items, b)
	}
	return items
}

// comparisonCriteria reads the extracted criteria list.
func comparisonCriteria(entities domain.Entities) []string {
	switch v := entities[domain.EntityCriteria].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// helpText summarizes what the assistant can run, listing the registered
// capabilities in stable order.
func helpText(capabilities []string) string {
	sort.Strings(capabilities)
	var b strings.Builder
	b.WriteString("You can ask about financial impact, optimization, sustainability, key metrics, or why a result looks the way it does.")
	b.WriteString(" You can also control charts by voice, compare options, or chain requests with phrases like first this, then that.")
	if len(capabilities) > 0 {
		b.WriteString(" Available analyses: ")
		b.WriteString(strings.Join(capabilities, ", "))
		b.WriteString(".")
	}
	return b.String()
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
