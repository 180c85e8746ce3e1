// Package intent resolves normalized utterances into classified,
// parameterized requests: intent classification with confidence scoring,
// entity extraction, the clarification policy, and contextual follow-up
// suggestions.
//
// Classification is deterministic keyword/pattern matching — no LLM sits
// in the control path. Rules are data, not code: each sub-table is an
// ordered list of IntentRule values iterated once per call.
package intent

import (
	"regexp"
	"strings"

	"github.com/soyeahso/chainsense/internal/domain"
)

// IntentRule pairs a pattern with the intent label it votes for.
type IntentRule struct {
	Intent  string
	Pattern *regexp.Regexp
}

// Confidence scoring weights. A matching rule starts at the base score,
// gains up to spanWeight proportional to how much of the utterance the
// match covers, and prefixBonus when the match anchors at position 0.
const (
	baseScore   = 0.6
	spanWeight  = 0.3
	prefixBonus = 0.1
)

// coreRules covers the analytical and control intents.
var coreRules = []IntentRule{
	{domain.IntentImpact, regexp.MustCompile(`(what is|what's|show) the .*impact`)},
	{domain.IntentImpact, regexp.MustCompile(`\b(financial )?impact\b.* (if|of|when)\b`)},
	{domain.IntentImpact, regexp.MustCompile(`what happens (if|when)\b.*`)},
	{domain.IntentImpact, regexp.MustCompile(`\b(supplier|supply chain|shipment|port)\b.*\b(fail|failure|fails|disruption|disrupted|delay)`)},
	{domain.IntentImpact, regexp.MustCompile(`\bcost of (failure|disruption|delay)`)},
	{domain.IntentOptimization, regexp.MustCompile(`\boptimi[sz]\w*`)},
	{domain.IntentOptimization, regexp.MustCompile(`\b(reduce|cut|lower) (cost|costs|spend|lead time)`)},
	{domain.IntentOptimization, regexp.MustCompile(`\b(cost reduction|risk mitigation|mitigation strateg)`)},
	{domain.IntentOptimization, regexp.MustCompile(`\bimprove (efficiency|resilience|throughput)`)},
	{domain.IntentSustainability, regexp.MustCompile(`\bsustainab\w*`)},
	{domain.IntentSustainability, regexp.MustCompile(`\b(carbon|emission|emissions|co2) (footprint|impact|levels?)?`)},
	{domain.IntentSustainability, regexp.MustCompile(`\b(green|environmental) (score|impact|rating)`)},
	{domain.IntentAnalytics, regexp.MustCompile(`\b(show|display|give) me .*(metrics|analytics|numbers|kpis?)`)},
	{domain.IntentAnalytics, regexp.MustCompile(`\banalytics\b`)},
	{domain.IntentAnalytics, regexp.MustCompile(`\b(performance|trend) (report|analysis|overview)`)},
	{domain.IntentAnalytics, regexp.MustCompile(`\bdashboard\b.*\b(summary|overview|numbers)`)},
	{domain.IntentExplainability, regexp.MustCompile(`\bexplain\b`)},
	{domain.IntentExplainability, regexp.MustCompile(`\b(why|how) did (you|the|this|that)\b`)},
	{domain.IntentExplainability, regexp.MustCompile(`\b(reasoning|rationale) behind\b`)},
	{domain.IntentMultiTurnStart, regexp.MustCompile(`^(first|start with)\b.*\bthen\b`)},
	{domain.IntentMultiTurnStart, regexp.MustCompile(`\bi have (a few|several|multiple|two|three) (questions|requests|things)`)},
	{domain.IntentMultiTurnStart, regexp.MustCompile(`\bmulti[- ]?part (request|query|question)`)},
	{domain.IntentNavigation, regexp.MustCompile(`\b(go|navigate|take me|jump) (to|back to)\b`)},
	{domain.IntentNavigation, regexp.MustCompile(`\bopen the \w+`)},
	{domain.IntentHelp, regexp.MustCompile(`^help\b`)},
	{domain.IntentHelp, regexp.MustCompile(`\bwhat can (you|i) (do|ask)`)},
	{domain.IntentClearContext, regexp.MustCompile(`\b(clear|reset) (the )?(context|session|everything|conversation)`)},
	{domain.IntentClearContext, regexp.MustCompile(`\b(start over|forget (all|everything) that)\b`)},
}

// visualizationRules covers voice-driven chart control.
var visualizationRules = []IntentRule{
	{"visualization_zoom", regexp.MustCompile(`\bzoom (in|out)\b`)},
	{"visualization_zoom", regexp.MustCompile(`\b(closer|wider) (look|view)\b`)},
	{"visualization_chart", regexp.MustCompile(`\b(switch|change) (to )?(a )?\w* ?chart`)},
	{"visualization_chart", regexp.MustCompile(`\b(bar|line|pie|scatter) (chart|graph)`)},
	{"visualization_chart", regexp.MustCompile(`\bheat ?map\b`)},
	{"visualization_filter", regexp.MustCompile(`\bfilter (by|to|on|out)\b`)},
	{"visualization_filter", regexp.MustCompile(`\bonly show\b`)},
	{"visualization_reset", regexp.MustCompile(`\breset (the )?(view|chart|zoom)`)},
	{"visualization_reset", regexp.MustCompile(`\bdefault view\b`)},
}

// comparisonRules covers comparison requests.
var comparisonRules = []IntentRule{
	{"comparison_compare", regexp.MustCompile(`\bcompare\b`)},
	{"comparison_compare", regexp.MustCompile(`\b(vs\.?|versus)\b`)},
	{"comparison_compare", regexp.MustCompile(`\bdifference between\b`)},
	{"comparison_criteria", regexp.MustCompile(`\b(rank|sort|order) .* by\b`)},
	{"comparison_criteria", regexp.MustCompile(`\b(comparison )?criteria\b`)},
}

// Classifier scores a normalized utterance against all three rule
// sub-tables and keeps the single best (intent, confidence) pair.
type Classifier struct {
	tables [][]IntentRule
}

// NewClassifier builds a classifier over the default rule tables.
func NewClassifier() *Classifier {
	return &Classifier{
		tables: [][]IntentRule{coreRules, visualizationRules, comparisonRules},
	}
}

// Normalize lower-cases and trims an utterance. Classification and
// extraction both operate on normalized text.
func Normalize(utterance string) string {
	return strings.ToLower(strings.TrimSpace(utterance))
}

// Classify resolves the best intent for an utterance. A miss yields
// ("unknown", 0). Ties go to the first-registered rule, so results are
// stable across calls.
func (c *Classifier) Classify(utterance string) (string, float64) {
	norm := Normalize(utterance)
	if norm == "" {
		return domain.IntentUnknown, 0
	}

	best := domain.IntentUnknown
	bestScore := 0.0

	for _, table := range c.tables {
		for _, rule := range table {
			loc := rule.Pattern.FindStringIndex(norm)
			if loc == nil {
				continue
			}
			score := scoreMatch(loc, len(norm))
			if score > bestScore {
				best = rule.Intent
				bestScore = score
			}
		}
	}

	return best, bestScore
}

// ClassifyExcluding resolves the best intent while ignoring rules for one
// label. The aggregator uses this to recover the analytical intent of an
// utterance that also matched a multi-turn start pattern.
func (c *Classifier) ClassifyExcluding(utterance, exclude string) (string, float64) {
	norm := Normalize(utterance)
	if norm == "" {
		return domain.IntentUnknown, 0
	}

	best := domain.IntentUnknown
	bestScore := 0.0

	for _, table := range c.tables {
		for _, rule := range table {
			if rule.Intent == exclude {
				continue
			}
			loc := rule.Pattern.FindStringIndex(norm)
			if loc == nil {
				continue
			}
			score := scoreMatch(loc, len(norm))
			if score > bestScore {
				best = rule.Intent
				bestScore = score
			}
		}
	}

	return best, bestScore
}

// scoreMatch computes the confidence for one rule match.
func scoreMatch(loc []int, utteranceLen int) float64 {
	span := float64(loc[1]-loc[0]) / float64(utteranceLen)
	if span > 1 {
		span = 1
	}
	score := baseScore + spanWeight*span
	if loc[0] == 0 {
		score += prefixBonus
	}
	if score > 1 {
		score = 1
	}
	return score
}
