// Package advisor is the per-turn interview engine. It serializes
// turns per session, orchestrates intent classification, probe
// resolution, fact extraction, probe arming and scope recomputation,
// and picks the next thing to say.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quillfin/bursar/internal/conversation"
	"github.com/quillfin/bursar/internal/extract"
	"github.com/quillfin/bursar/internal/goals"
	"github.com/quillfin/bursar/internal/intent"
	"github.com/quillfin/bursar/internal/profile"
	"github.com/quillfin/bursar/internal/risk"
	"github.com/quillfin/bursar/internal/scope"
)

// EventSink receives interview lifecycle events. Implementations must
// not block the turn; failures are the sink's problem.
type EventSink interface {
	Publish(kind, sessionID string, data map[string]any)
}

// Notifier delivers the end-of-interview summary out of band.
type Notifier interface {
	SendSummary(ctx context.Context, p *profile.Profile, assessment *risk.Assessment) error
}

// Engine wires the pipeline together. All stages share the profile
// store; ProcessTurn holds the session lock for the whole turn so the
// stages themselves never lock.
type Engine struct {
	store     *profile.Store
	history   *conversation.Store
	intents   *intent.Classifier
	extractor *extract.Extractor
	goals     *goals.Classifier
	scope     *scope.Tracker
	risk      *risk.Profiler
	events    EventSink
	notifier  Notifier
	logger    *slog.Logger

	oracleEnabled bool
}

// Options carries the optional collaborators.
type Options struct {
	Events        EventSink
	Notifier      Notifier
	Logger        *slog.Logger
	OracleEnabled bool
}

func NewEngine(store *profile.Store, history *conversation.Store,
	intents *intent.Classifier, extractor *extract.Extractor,
	goalClassifier *goals.Classifier, tracker *scope.Tracker,
	profiler *risk.Profiler, opts Options) *Engine {

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:         store,
		history:       history,
		intents:       intents,
		extractor:     extractor,
		goals:         goalClassifier,
		scope:         tracker,
		risk:          profiler,
		events:        opts.Events,
		notifier:      opts.Notifier,
		logger:        logger.With("component", "advisor"),
		oracleEnabled: opts.OracleEnabled,
	}
}

// TurnResult is what one interview turn produced. It is
// success-shaped even when the oracle was unavailable; Degraded marks
// such turns.
type TurnResult struct {
	SessionID   string             `json:"session_id"`
	MessageType intent.MessageType `json:"message_type"`
	Confidence  float64            `json:"confidence"`
	Reply       string             `json:"reply"`

	ExtractedFields []string `json:"extracted_fields,omitempty"`
	StatedGoals     []string `json:"stated_goals,omitempty"`

	ConfirmedGoal *profile.DiscoveredGoal `json:"confirmed_goal,omitempty"`
	DeniedGoal    string                  `json:"denied_goal,omitempty"`
	ProbeQuestion string                  `json:"probe_question,omitempty"`
	Clarification string                  `json:"clarification,omitempty"`

	MissingFields     []string `json:"missing_fields,omitempty"`
	NeedsConfirmation bool     `json:"needs_confirmation,omitempty"`
	Degraded          bool     `json:"degraded,omitempty"`
}

// ProcessTurn runs one user message through the pipeline. Turns for
// the same session are strictly serialized; sessions run in parallel.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.New("empty message")
	}

	unlock := e.store.LockSession(sessionID)
	defer unlock()

	p, err := e.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	lastQuestion, err := e.history.LastQuestion(sessionID)
	if err != nil {
		return nil, err
	}
	recent, err := e.history.Recent(sessionID, conversation.MaxStoredTurns)
	if err != nil {
		return nil, err
	}
	if err := e.history.Append(sessionID, "user", message); err != nil {
		return nil, err
	}

	if conversation.DetectSavingsEmergencyLink(message) {
		p, err = e.store.Mutate(sessionID, func(p *profile.Profile) error {
			p.SavingsEmergencyLinked = true
			if p.EmergencyFund == nil && p.Savings != nil {
				p.EmergencyFund = p.Savings
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	res := e.intents.Classify(ctx, message, lastQuestion, recent, e.oracleEnabled)
	tr := &TurnResult{
		SessionID:   sessionID,
		MessageType: res.MessageType,
		Confidence:  res.Confidence,
	}
	e.logger.Debug("turn classified", "session_id", sessionID,
		"message_type", res.MessageType, "confidence", res.Confidence)

	switch res.MessageType {
	case intent.Greeting:
		tr.Reply = e.greetingReply(p)

	case intent.Acknowledgment:
		tr.Reply = e.nextPrompt(sessionID)

	case intent.Hypothetical:
		tr.Reply = "Happy to play out what-ifs once I've got your full picture. " + e.nextPrompt(sessionID)

	case intent.Question:
		tr.Reply = "Good question - the honest answer depends on your full picture, which is exactly what we're building here. " + e.nextPrompt(sessionID)

	case intent.OffTopic:
		tr.Reply = "Let's stay on your finances for now. " + e.nextPrompt(sessionID)

	case intent.Skip:
		if err := e.handleSkip(sessionID, lastQuestion, tr); err != nil {
			return nil, err
		}

	case intent.Correction:
		if err := e.recordCorrection(sessionID, lastQuestion, res); err != nil {
			return nil, err
		}
		tr.NeedsConfirmation = true
		e.runExtraction(ctx, sessionID, message, lastQuestion, tr)

	case intent.Confirmation, intent.Denial:
		if p.PendingProbe != nil {
			e.runExtraction(ctx, sessionID, message, lastQuestion, tr)
			break
		}
		if res.MessageType == intent.Denial {
			tr.Reply = "No problem - what did I get wrong?"
			break
		}
		tr.Reply = e.confirmationReply(sessionID)

	default:
		// new_information, compound, clarification.
		if p.PendingProbe == nil {
			if amb := intent.DetectAmbiguity(message, lastQuestion); amb != nil {
				tr.Clarification = amb.Clarification
				tr.Reply = amb.Clarification
				break
			}
		}
		e.runExtraction(ctx, sessionID, message, lastQuestion, tr)
	}

	if tr.Reply == "" {
		tr.Reply = e.nextPrompt(sessionID)
	}
	if err := e.history.Append(sessionID, "assistant", tr.Reply); err != nil {
		return nil, err
	}
	return tr, nil
}

func (e *Engine) greetingReply(p *profile.Profile) string {
	if p.UserGoal == nil {
		return "G'day! I'm here to help you sort out your finances. What's the main financial goal you'd like to work towards?"
	}
	return "Welcome back! Let's pick up where we left off. " + e.nextPromptFor(p)
}

func (e *Engine) handleSkip(sessionID, lastQuestion string, tr *TurnResult) error {
	field := fieldFromQuestion(lastQuestion)
	if field != "" {
		if _, err := e.store.SetFieldState(sessionID, field, profile.StateSkipped); err != nil {
			return err
		}
		e.logger.Debug("field skipped", "session_id", sessionID, "field", field)
	}
	tr.Reply = "No worries, we can come back to that. " + e.nextPrompt(sessionID)
	return nil
}

func (e *Engine) recordCorrection(sessionID, lastQuestion string, res intent.Result) error {
	field := res.CorrectionTarget
	if field == "" {
		field = fieldFromQuestion(lastQuestion)
	}
	_, err := e.store.Mutate(sessionID, func(p *profile.Profile) error {
		p.LastCorrection = &profile.Correction{
			Field:    field,
			OldValue: res.OriginalValue,
			NewValue: res.NewValue,
		}
		if field != "" {
			if p.FieldStates == nil {
				p.FieldStates = map[string]profile.FieldStateRecord{}
			}
			p.FieldStates[field] = profile.FieldStateRecord{State: profile.StateCorrected}
		}
		return nil
	})
	return err
}

// runExtraction is the shared back half of a fact-bearing turn:
// extract (or resolve the probe), recompute scope, pick the reply.
// Oracle failures degrade the turn instead of failing it.
func (e *Engine) runExtraction(ctx context.Context, sessionID, message, lastQuestion string, tr *TurnResult) {
	out, err := e.extractor.Extract(ctx, sessionID, message, lastQuestion)
	if err != nil {
		e.logger.Warn("extraction degraded", "session_id", sessionID, "error", err)
		tr.Degraded = true
		tr.Reply = "I had trouble processing that just now - mind putting it another way?"
		return
	}

	if out.Facts != nil {
		tr.ExtractedFields = out.Facts.Fields()
	}
	tr.StatedGoals = out.StatedGoals
	tr.ConfirmedGoal = out.ConfirmedGoal
	tr.DeniedGoal = out.DeniedGoal

	sc, err := e.scope.Recompute(sessionID)
	if err != nil {
		e.logger.Error("scope recompute failed", "session_id", sessionID, "error", err)
	} else {
		tr.MissingFields = sc.MissingFields
	}

	e.publishTurnEvents(sessionID, out)

	switch {
	case out.ArmedProbe != nil:
		tr.ProbeQuestion = out.ArmedProbe.ProbeQuestion
		tr.Reply = out.ArmedProbe.ProbeQuestion

	case out.ConfirmedGoal != nil:
		tr.Reply = fmt.Sprintf("Good to know - I've noted %s as one of your goals. %s",
			humanizeGoal(out.ConfirmedGoal.Goal), e.nextPrompt(sessionID))

	case out.DeniedGoal != "":
		tr.Reply = "Fair enough. " + e.nextPrompt(sessionID)

	case tr.NeedsConfirmation || extract.ShouldConfirmExtraction(out.Facts):
		tr.NeedsConfirmation = true
		tr.Reply = e.readBack(sessionID, out.Facts)

	default:
		tr.Reply = e.nextPrompt(sessionID)
	}
}

func (e *Engine) publishTurnEvents(sessionID string, out *extract.Outcome) {
	if e.events == nil {
		return
	}
	if out.Facts != nil && !out.Facts.IsEmpty() {
		e.events.Publish("facts-extracted", sessionID, map[string]any{
			"fields": out.Facts.Fields(),
		})
	}
	if out.ArmedProbe != nil {
		e.events.Publish("probe-armed", sessionID, map[string]any{
			"goal": out.ArmedProbe.PotentialGoal,
		})
	}
	if out.ConfirmedGoal != nil {
		e.events.Publish("probe-resolved", sessionID, map[string]any{
			"goal": out.ConfirmedGoal.Goal, "confirmed": true,
		})
	}
	if out.DeniedGoal != "" {
		e.events.Publish("probe-resolved", sessionID, map[string]any{
			"goal": out.DeniedGoal, "confirmed": false,
		})
	}
	if out.TrackedConcern != nil {
		e.events.Publish("concern-raised", sessionID, map[string]any{
			"concern": out.TrackedConcern.Concern, "priority": string(out.TrackedConcern.Priority),
		})
	}
}

// readBack echoes large or corrected values for the user to confirm.
func (e *Engine) readBack(sessionID string, u *profile.Update) string {
	p, err := e.store.Get(sessionID)
	if err != nil || u == nil {
		return "Let me just double-check I've got that right."
	}
	var parts []string
	for _, field := range u.Fields() {
		if v, ok := u.Value(field); ok && v != nil {
			parts = append(parts, fmt.Sprintf("%s: %v", strings.ReplaceAll(field, "_", " "), v))
		}
	}
	if len(parts) == 0 {
		return "Let me just double-check I've got that right. " + e.nextPromptFor(p)
	}
	return fmt.Sprintf("Just to make sure I've got this right - %s. Is that correct?",
		strings.Join(parts, ", "))
}

// confirmationReply handles a bare "yes" with no probe pending: the
// user is agreeing with a summary or a suggestion.
func (e *Engine) confirmationReply(sessionID string) string {
	p, err := e.store.Get(sessionID)
	if err != nil {
		return "Great."
	}
	if p.GoalClassification != nil && len(p.MissingFields) == 0 {
		return "Great, that's everything I need. Say the word and I'll put together your risk profile."
	}
	return "Great. " + e.nextPromptFor(p)
}

// nextPrompt decides what to ask next from the current profile state.
func (e *Engine) nextPrompt(sessionID string) string {
	p, err := e.store.Get(sessionID)
	if err != nil {
		return "What's the main financial goal you'd like to work towards?"
	}
	return e.nextPromptFor(p)
}

func (e *Engine) nextPromptFor(p *profile.Profile) string {
	if p.PendingProbe != nil {
		return p.PendingProbe.ProbeQuestion
	}
	if p.UserGoal == nil {
		return "What's the main financial goal you'd like to work towards?"
	}
	for _, field := range p.MissingFields {
		if rec, ok := p.FieldStates[field]; ok && rec.State == profile.StateSkipped {
			continue
		}
		return questionFor(field)
	}
	if conversation.ShouldConfirm(p) {
		return conversation.Summary(p) + "\n\nDoes that all look right?"
	}
	if p.GoalClassification != nil && p.RiskProfile == nil {
		return "That's everything I need. Say the word and I'll put together your risk profile."
	}
	return "Anything else you'd like to add to your picture?"
}

func humanizeGoal(goal string) string {
	return strings.ReplaceAll(goal, "_", " ")
}

// ClassifyGoal classifies free-text goal statements. An accepted goal
// immediately recomputes scope so required fields reflect the new
// classification.
func (e *Engine) ClassifyGoal(ctx context.Context, sessionID, goalText string) (*goals.Outcome, error) {
	goalText = strings.TrimSpace(goalText)
	if goalText == "" {
		return nil, errors.New("empty goal")
	}

	unlock := e.store.LockSession(sessionID)
	defer unlock()

	if _, err := e.store.Get(sessionID); err != nil {
		return nil, err
	}

	out, err := e.goals.Classify(ctx, sessionID, goalText)
	if err != nil {
		return nil, err
	}
	if !out.Accepted {
		return out, nil
	}

	if _, err := e.store.AddStatedGoal(sessionID, goalText); err != nil {
		return nil, err
	}
	if _, err := e.scope.Recompute(sessionID); err != nil {
		return nil, err
	}
	if e.events != nil {
		e.events.Publish("goal-classified", sessionID, map[string]any{
			"classification": out.Classification,
		})
	}
	return out, nil
}

// ComputeRisk runs the risk gate. On success the summary notifier, if
// configured, is invoked best-effort.
func (e *Engine) ComputeRisk(ctx context.Context, sessionID string) (*risk.Assessment, error) {
	unlock := e.store.LockSession(sessionID)
	defer unlock()

	assessment, err := e.risk.Assess(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if e.events != nil {
		e.events.Publish("risk-computed", sessionID, map[string]any{
			"risk_appetite": assessment.RiskAppetite,
		})
	}
	if e.notifier != nil {
		p, err := e.store.Get(sessionID)
		if err == nil {
			if err := e.notifier.SendSummary(ctx, p, assessment); err != nil {
				e.logger.Warn("summary notification failed", "session_id", sessionID, "error", err)
			}
		}
	}
	return assessment, nil
}

// Gaps runs the insurance gap analysis over the current profile.
func (e *Engine) Gaps(sessionID string) ([]goals.InsuranceGap, error) {
	p, err := e.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return goals.CheckInsuranceGaps(p), nil
}

// SummaryText renders the markdown profile summary.
func (e *Engine) SummaryText(sessionID string) (string, error) {
	p, err := e.store.Get(sessionID)
	if err != nil {
		return "", err
	}
	return conversation.Summary(p), nil
}
