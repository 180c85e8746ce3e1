// Package engine orchestrates one conversational turn end to end:
// classification, entity extraction, clarification policy, multi-turn
// aggregation, capability dispatch, session persistence, and audit.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/chainsense/internal/archive"
	"github.com/soyeahso/chainsense/internal/audit"
	"github.com/soyeahso/chainsense/internal/capability"
	"github.com/soyeahso/chainsense/internal/domain"
	"github.com/soyeahso/chainsense/internal/intent"
	"github.com/soyeahso/chainsense/internal/logging"
	"github.com/soyeahso/chainsense/internal/multiturn"
	"github.com/soyeahso/chainsense/internal/session"
)

// Options configures an Engine.
type Options struct {
	Sessions     *session.Store
	Capabilities *capability.Registry
	Audit        *audit.Recorder
	// Archive is optional; nil disables durable turn history.
	Archive *archive.TurnArchive

	ConfidenceThreshold float64
	ExpectedParts       int
	CapabilityTimeout   time.Duration
	DefaultVoice        string
}

// Engine resolves utterances into responses against per-session context.
type Engine struct {
	log        *logging.Logger
	classifier *intent.Classifier
	aggregator *multiturn.Aggregator

	sessions *session.Store
	caps     *capability.Registry
	audit    *audit.Recorder
	archive  *archive.TurnArchive

	threshold    float64
	capTimeout   time.Duration
	defaultVoice string
}

// New creates an engine. Zero option values fall back to policy defaults.
func New(log *logging.Logger, opts Options) *Engine {
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = 0.7
	}
	if opts.CapabilityTimeout <= 0 {
		opts.CapabilityTimeout = 30 * time.Second
	}
	classifier := intent.NewClassifier()
	return &Engine{
		log:          log.Sub("engine"),
		classifier:   classifier,
		aggregator:   multiturn.NewAggregator(classifier, opts.ExpectedParts),
		sessions:     opts.Sessions,
		caps:         opts.Capabilities,
		audit:        opts.Audit,
		archive:      opts.Archive,
		threshold:    opts.ConfidenceThreshold,
		capTimeout:   opts.CapabilityTimeout,
		defaultVoice: opts.DefaultVoice,
	}
}

// Sessions returns the engine's session store.
func (e *Engine) Sessions() *session.Store {
	return e.sessions
}

// ProcessTurn runs one utterance through the full pipeline. It never
// returns an error: failures degrade into apology or clarification
// envelopes so the voice surface always has something to say.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, utterance string) domain.ResponseEnvelope {
	correlationID := uuid.New().String()

	e.audit.RecordAsync(ctx, audit.Event{
		Name:          audit.EventTurnReceived,
		SessionID:     sessionID,
		CorrelationID: correlationID,
		Data:          map[string]any{"utterance": utterance},
	})

	var env domain.ResponseEnvelope
	e.sessions.With(sessionID, func(sess *domain.Session) {
		env = e.processLocked(ctx, sess, sessionID, correlationID, utterance)
	})

	e.audit.RecordAsync(ctx, audit.Event{
		Name:          audit.EventTurnResolved,
		SessionID:     sessionID,
		CorrelationID: correlationID,
		Data: map[string]any{
			"intent":     env.Intent,
			"confidence": env.Confidence,
			"success":    env.Success,
		},
	})

	return env
}

// processLocked handles a turn while holding the session. The returned
// envelope mirrors the conversation turn appended to history.
func (e *Engine) processLocked(ctx context.Context, sess *domain.Session, sessionID, correlationID, utterance string) domain.ResponseEnvelope {
	label, confidence := e.classifier.Classify(utterance)
	entities := intent.Extract(utterance, label)

	env := domain.ResponseEnvelope{
		SessionID:     sessionID,
		CorrelationID: correlationID,
		Intent:        label,
		Confidence:    confidence,
		Entities:      entities,
		Voice:         e.voiceFor(sess),
	}

	switch {
	case sess.MultiTurn != nil && !sess.MultiTurn.Complete && label != domain.IntentClearContext:
		e.continueMultiTurn(ctx, sess, &env, utterance, label, confidence, entities)
	case e.aggregator.ShouldOpen(utterance, label):
		e.openMultiTurn(ctx, sess, &env, utterance)
	default:
		e.resolveSingle(ctx, sess, &env, utterance, label, confidence, entities)
	}

	turn := domain.ConversationTurn{
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
		RawInput:      utterance,
		Intent:        env.Intent,
		Entities:      env.Entities,
		Response:      env.Speech,
		Confidence:    env.Confidence,
		Success:       env.Success,
		VisualCmds:    env.VisualCmds,
	}
	session.AppendTurn(sess, turn)

	if e.archive != nil {
		e.archive.Append(sessionID, turn)
	}

	return env
}

// resolveSingle handles a plain single-utterance turn: clarification
// policy first, then dispatch by intent category.
func (e *Engine) resolveSingle(ctx context.Context, sess *domain.Session, env *domain.ResponseEnvelope, utterance, label string, confidence float64, entities domain.Entities) {
	suggestions := intent.Suggest(label, sess.History, sess.Analytical.ActiveAnalyses)
	decision := intent.Decide(label, confidence, entities, e.threshold, suggestions)
	if decision.NeedsClarification {
		env.Speech = decision.Prompt
		env.Clarification = true
		env.Success = decision.Recognized
		env.Suggestions = suggestions
		e.audit.RecordAsync(ctx, audit.Event{
			Name:          audit.EventClarification,
			SessionID:     env.SessionID,
			CorrelationID: env.CorrelationID,
			Data:          map[string]any{"intent": label, "confidence": confidence},
		})
		return
	}

	e.dispatch(ctx, sess, env, utterance, label, entities)
	if env.Success && len(env.Suggestions) == 0 {
		env.Suggestions = suggestions
	}
}

// dispatch routes a recognized intent to its handler.
func (e *Engine) dispatch(ctx context.Context, sess *domain.Session, env *domain.ResponseEnvelope, utterance, label string, entities domain.Entities) {
	switch {
	case domain.IsAnalytical(label):
		e.dispatchAnalysis(ctx, sess, env, label, entities)
	case domain.IsVisualization(label):
		e.handleVisualization(sess, env, label, entities)
	case domain.IsComparison(label) || label == domain.IntentComparison:
		e.handleComparison(sess, env, label, entities)
	case label == domain.IntentNavigation:
		e.handleNavigation(sess, env, utterance)
	case label == domain.IntentHelp:
		env.Speech = helpText(e.caps.List())
		env.Success = true
	case label == domain.IntentClearContext:
		session.ClearWorkingContext(sess)
		env.Speech = "Okay, I've cleared the working context. Your conversation history is still here."
		env.Success = true
		e.audit.RecordAsync(ctx, audit.Event{
			Name:          audit.EventContextCleared,
			SessionID:     env.SessionID,
			CorrelationID: env.CorrelationID,
		})
	default:
		// Recognized but not dispatchable; should not happen with the
		// current rule tables.
		env.Speech = "I understood that, but I don't have an action for it yet."
		env.Success = false
	}
}

// dispatchAnalysis runs one analytical capability under the dispatch
// timeout, settling the active analysis either way.
func (e *Engine) dispatchAnalysis(ctx context.Context, sess *domain.Session, env *domain.ResponseEnvelope, label string, entities domain.Entities) {
	analysisID := session.AddActiveAnalysis(sess, label, entities, priorityFor(entities))

	callCtx, cancel := context.WithTimeout(ctx, e.capTimeout)
	defer cancel()

	result, err := e.caps.Analyze(callCtx, capability.Request{
		Intent:        label,
		SessionID:     env.SessionID,
		CorrelationID: env.CorrelationID,
		Entities:      entities,
		Parameters:    sessionParameters(sess),
	})
	if err != nil {
		session.FailAnalysis(sess, analysisID)
		env.Speech = "Sorry, I couldn't complete that analysis right now. Please try again in a moment."
		env.Success = false
		e.log.Warn().Err(err).Str("intent", label).Str("session", env.SessionID).Msg("capability dispatch failed")
		e.audit.RecordAsync(ctx, audit.Event{
			Name:          audit.EventDispatchFailed,
			SessionID:     env.SessionID,
			CorrelationID: env.CorrelationID,
			Data:          map[string]any{"intent": label, "error": err.Error()},
		})
		return
	}

	session.CompleteAnalysis(sess, analysisID, result)
	env.Speech = result.Summary
	env.Success = true
	env.VisualPayload = result.Payload
}

// handleNavigation updates the current view and the voice-navigation
// counters.
func (e *Engine) handleNavigation(sess *domain.Session, env *domain.ResponseEnvelope, utterance string) {
	target := navigationTarget(utterance)
	if target == "" {
		env.Speech = "Where would you like to go?"
		env.Clarification = true
		env.Success = true
		return
	}
	view := target
	session.UpdateContext(sess, session.ContextPatch{CurrentView: &view})
	sess.Metadata.VoiceNavigations++
	sess.Visualization.VoiceNavigations++

	env.NavigationTarget = target
	env.Speech = "Taking you to " + target + "."
	env.Success = true
}

// handleVisualization turns a visualization intent into a rendering
// command recorded on both the envelope and the session state.
func (e *Engine) handleVisualization(sess *domain.Session, env *domain.ResponseEnvelope, label string, entities domain.Entities) {
	var cmd domain.VisualizationCommand
	switch label {
	case intentVisualizationZoom:
		cmd = domain.VisualizationCommand{Action: "zoom", Value: entities.Float(domain.EntityZoomLevel)}
		env.Speech = "Zooming the view."
	case intentVisualizationChart:
		chart := entities.String(domain.EntityChartType)
		cmd = domain.VisualizationCommand{Action: "switch_chart", Target: chart}
		if chart != "" && !containsString(sess.Visualization.ActiveCharts, chart) {
			sess.Visualization.ActiveCharts = append(sess.Visualization.ActiveCharts, chart)
		}
		env.Speech = "Switching the chart."
	case intentVisualizationFilter:
		cmd = domain.VisualizationCommand{Action: "filter", Target: entities.String(domain.EntityFilterTarget)}
		env.Speech = "Applying the filter."
	case intentVisualizationReset:
		cmd = domain.VisualizationCommand{Action: "reset"}
		sess.Visualization.PendingCommands = nil
		env.Speech = "Resetting the view."
	}

	sess.Visualization.PendingCommands = append(sess.Visualization.PendingCommands, cmd)
	env.VisualCmds = []domain.VisualizationCommand{cmd}
	env.Success = true
}

// handleComparison enables comparison mode from the extracted items and
// criteria. The aggregated comparison intent routes here too.
func (e *Engine) handleComparison(sess *domain.Session, env *domain.ResponseEnvelope, label string, entities domain.Entities) {
	items := comparisonItems(entities)
	criteria := comparisonCriteria(entities)

	if label == intentComparisonCriteria && sess.Analytical.ComparisonMode {
		if len(criteria) > 0 {
			sess.Analytical.ComparisonCriteria = criteria
		}
		env.Speech = "Updated the comparison criteria."
		env.Success = true
		return
	}

	session.EnableComparison(sess, items, criteria)
	switch {
	case len(items) == 2:
		env.Speech = "Comparing " + items[0] + " and " + items[1] + "."
	case len(items) > 0:
		env.Speech = "Comparison mode is on for " + items[0] + ". What should I compare it against?"
		env.Clarification = true
	default:
		env.Speech = "Comparison mode is on. Which options should I compare?"
		env.Clarification = true
	}
	env.Success = true
}
