package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/soyeahso/chainsense/internal/domain"
)

// Extraction patterns. All operate on normalized text.
var (
	percentageRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|percent)`)
	numberRe     = regexp.MustCompile(`\d+(?:\.\d+)?`)
	timePeriodRe = regexp.MustCompile(`\b(day|week|month|quarter|year)s?\b`)
	urgentRe     = regexp.MustCompile(`\b(urgent|urgently|asap|immediately|right now|critical)\b`)
	deferRe      = regexp.MustCompile(`\b(later|eventually|whenever|no rush|someday)\b`)
	comparisonRe = regexp.MustCompile(`\b(compare|vs\.?|versus)\b`)
	disruptionRe = regexp.MustCompile(`\b(failure|fails|failed|fail|disruption|disrupted|delayed|delays|delay|shortage|strike|closure)\b`)

	zoomNumRe   = regexp.MustCompile(`zoom (?:in|out)?\s*(?:by )?(\d+(?:\.\d+)?)x?`)
	zoomOutRe   = regexp.MustCompile(`\b(zoom out|wider (look|view))\b`)
	chartTypeRe = regexp.MustCompile(`\b(bar|line|pie|scatter|heat ?map)\b`)
	filterRe    = regexp.MustCompile(`(?:filter (?:by|to|on)|only show)\s+([a-z0-9 _-]+?)(?:\s+(?:chart|view|data)|$|[.,])`)

	comparePairRe = regexp.MustCompile(`(?:compare|difference between)\s+(?:the\s+)?(.+?)\s+(?:and|with|to|vs\.?|versus)\s+(?:the\s+)?([a-z0-9 _-]+?)(?:\s+based on\b|$|[.,?])`)
	versusPairRe  = regexp.MustCompile(`([a-z0-9 _-]+?)\s+(?:vs\.?|versus)\s+([a-z0-9 _-]+?)(?:\s+based on\b|$|[.,?])`)
	criteriaRe    = regexp.MustCompile(`based on\s+(.+?)(?:$|[.?])`)
)

// knownStrategies are the named supply-chain strategies the extractor
// recognizes. Longer names are listed first so they win over substrings.
var knownStrategies = []string{
	"vertical integration",
	"supplier diversification",
	"dual sourcing",
	"safety stock",
	"buffer stock",
	"just in time",
	"nearshoring",
	"reshoring",
	"diversification",
}

// Extract pulls structured entities out of a normalized utterance. The
// resolved intent widens extraction for the visualization and comparison
// namespaces. Absent entities are omitted from the map.
func Extract(utterance, resolvedIntent string) domain.Entities {
	norm := Normalize(utterance)
	entities := domain.Entities{}

	if pct, ok := firstPercentage(norm); ok {
		entities[domain.EntityPercentage] = pct
	}
	if num, ok := firstStandaloneNumber(norm); ok {
		entities[domain.EntityNumber] = num
	}
	if m := timePeriodRe.FindStringSubmatch(norm); m != nil {
		entities[domain.EntityTimePeriod] = m[1]
	}
	for _, strat := range knownStrategies {
		if strings.Contains(norm, strat) {
			entities[domain.EntityStrategy] = strat
			break
		}
	}
	if comparisonRe.MatchString(norm) {
		entities[domain.EntityComparison] = true
	}
	if m := disruptionRe.FindStringSubmatch(norm); m != nil {
		entities[domain.EntityDisruption] = m[1]
	}
	if urgentRe.MatchString(norm) {
		entities[domain.EntityUrgency] = "high"
	} else if deferRe.MatchString(norm) {
		entities[domain.EntityUrgency] = "low"
	}

	if domain.IsVisualization(resolvedIntent) {
		extractVisualization(norm, entities)
	}
	if domain.IsComparison(resolvedIntent) {
		extractComparison(norm, entities)
	}

	return entities
}

// firstPercentage returns the first percentage value in the utterance.
func firstPercentage(norm string) (float64, bool) {
	m := percentageRe.FindStringSubmatch(norm)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// firstStandaloneNumber returns the first number that is not part of a
// percentage expression.
func firstStandaloneNumber(norm string) (float64, bool) {
	pctLoc := percentageRe.FindStringIndex(norm)
	for _, loc := range numberRe.FindAllStringIndex(norm, -1) {
		if pctLoc != nil && loc[0] >= pctLoc[0] && loc[1] <= pctLoc[1] {
			continue
		}
		v, err := strconv.ParseFloat(norm[loc[0]:loc[1]], 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// extractVisualization adds zoom magnitude, chart type, and filter target.
func extractVisualization(norm string, entities domain.Entities) {
	if strings.Contains(norm, "zoom") || strings.Contains(norm, "look") || strings.Contains(norm, "view") {
		magnitude := 1.0
		if m := zoomNumRe.FindStringSubmatch(norm); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				magnitude = v
			}
		}
		if zoomOutRe.MatchString(norm) {
			magnitude = -magnitude
		}
		entities[domain.EntityZoomLevel] = magnitude
	}
	if m := chartTypeRe.FindStringSubmatch(norm); m != nil {
		entities[domain.EntityChartType] = strings.ReplaceAll(m[1], " ", "")
	}
	if m := filterRe.FindStringSubmatch(norm); m != nil {
		entities[domain.EntityFilterTarget] = strings.TrimSpace(m[1])
	}
}

// extractComparison adds the compared item pair and criteria list.
func extractComparison(norm string, entities domain.Entities) {
	if m := comparePairRe.FindStringSubmatch(norm); m != nil {
		entities[domain.EntityItemA] = strings.TrimSpace(m[1])
		entities[domain.EntityItemB] = strings.TrimSpace(m[2])
	} else if m := versusPairRe.FindStringSubmatch(norm); m != nil {
		entities[domain.EntityItemA] = strings.TrimSpace(m[1])
		entities[domain.EntityItemB] = strings.TrimSpace(m[2])
	}
	if m := criteriaRe.FindStringSubmatch(norm); m != nil {
		entities[domain.EntityCriteria] = splitCriteria(m[1])
	}
}

// splitCriteria splits a criteria phrase on commas and "and".
func splitCriteria(phrase string) []string {
	phrase = strings.ReplaceAll(phrase, " and ", ",")
	parts := strings.Split(phrase, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
