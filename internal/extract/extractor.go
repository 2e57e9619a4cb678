// Package extract pulls structured financial facts out of free-form
// user messages via the oracle, resolves pending goal probes, and
// arms new ones.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/quillfin/bursar/internal/goals"
	"github.com/quillfin/bursar/internal/oracle"
	"github.com/quillfin/bursar/internal/profile"
)

// Outcome is the result of running one user message through the
// extractor.
type Outcome struct {
	// Facts carries the extracted fields, nil when the turn resolved a
	// probe instead.
	Facts      *profile.Update
	FieldOrder []string

	StatedGoals []string

	// Probe resolution. ConfirmedGoal or DeniedGoal is set when the
	// message answered the pending probe.
	ConfirmedGoal  *profile.DiscoveredGoal
	DeniedGoal     string
	TrackedConcern *profile.CriticalConcern

	// ArmedProbe is set when a freshly extracted fact armed a new probe
	// this turn.
	ArmedProbe *profile.PendingProbe

	Message string
}

// Extractor runs oracle-driven fact extraction for a session.
type Extractor struct {
	oracle oracle.Client
	store  *profile.Store
	logger *slog.Logger
}

func NewExtractor(oc oracle.Client, store *profile.Store, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		oracle: oc,
		store:  store,
		logger: logger.With("component", "extract"),
	}
}

const extractSystemPrompt = "You are a financial data extractor. Always respond with valid JSON containing only extracted fields."

// Extract processes one user message. When a probe is pending and the
// message answers it, the probe is resolved (confirmed goals recorded,
// tracked denials become concerns) and no extraction runs. Otherwise
// the message goes through the oracle, extracted fields are merged
// into the profile, stated goals appended, and the first probe-worthy
// fact (in the order the oracle emitted fields) arms a new probe.
//
// The caller is expected to hold the session lock.
func (e *Extractor) Extract(ctx context.Context, sessionID, userMessage, lastQuestion string) (*Outcome, error) {
	p, err := e.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if p.PendingProbe != nil {
		resp := e.analyzeProbeResponse(ctx, userMessage, p.PendingProbe)
		if resp.IsResponse {
			return e.resolveProbe(sessionID, userMessage, resp.Confirmed)
		}
		// Not an answer to the probe; fall through to extraction with
		// the probe left pending.
	}

	update, keys, statedGoals, err := e.extractFacts(ctx, p, userMessage, lastQuestion)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Facts:       update,
		FieldOrder:  keys,
		StatedGoals: statedGoals,
	}

	for _, goal := range statedGoals {
		if _, err := e.store.AddStatedGoal(sessionID, goal); err != nil {
			return nil, err
		}
	}

	if update.IsEmpty() {
		if len(statedGoals) > 0 {
			outcome.Message = "Added stated goals"
		} else {
			outcome.Message = "No new financial information extracted"
		}
		return outcome, nil
	}

	merged, err := e.store.Apply(sessionID, update)
	if err != nil {
		return nil, err
	}
	e.logger.Info("facts extracted", "session_id", sessionID, "fields", update.Fields())

	// Probe at most one thing per turn, walking the oracle's own field
	// order. An unresolved probe from an earlier turn always wins:
	// ArmProbe refuses to overwrite it.
	for _, field := range keys {
		value, ok := update.Value(field)
		if !ok {
			continue
		}
		probe := goals.ShouldProbeForGoal(field, value, merged)
		if probe == nil {
			continue
		}
		_, err := e.store.Mutate(sessionID, func(p *profile.Profile) error {
			if p.ArmProbe(probe) {
				outcome.ArmedProbe = probe
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		break
	}

	outcome.Message = fmt.Sprintf("Extracted and updated: %d field(s)", len(update.Fields()))
	return outcome, nil
}

func (e *Extractor) resolveProbe(sessionID, userMessage string, confirmed bool) (*Outcome, error) {
	outcome := &Outcome{}
	_, err := e.store.Mutate(sessionID, func(p *profile.Profile) error {
		probe := p.PendingProbe
		if probe == nil {
			return nil
		}
		if confirmed {
			outcome.ConfirmedGoal = p.ConfirmProbe()
			outcome.Message = fmt.Sprintf("Goal confirmed: %s", probe.PotentialGoal)
		} else {
			outcome.DeniedGoal = probe.PotentialGoal
			outcome.TrackedConcern = p.DenyProbe(userMessage)
			outcome.Message = fmt.Sprintf("Goal denied: %s", probe.PotentialGoal)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.ConfirmedGoal != nil {
		e.logger.Info("probe confirmed", "session_id", sessionID, "goal", outcome.ConfirmedGoal.Goal)
	} else if outcome.DeniedGoal != "" {
		e.logger.Info("probe denied", "session_id", sessionID, "goal", outcome.DeniedGoal,
			"tracked", outcome.TrackedConcern != nil)
	}
	return outcome, nil
}

func (e *Extractor) extractFacts(ctx context.Context, p *profile.Profile, userMessage, lastQuestion string) (*profile.Update, []string, []string, error) {
	snapshot, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal profile: %w", err)
	}

	contextLine := ""
	if lastQuestion != "" {
		contextLine = fmt.Sprintf("\nAgent's last question: %q\n", lastQuestion)
	}

	prompt := fmt.Sprintf(`You are a financial information extractor. Extract any financial facts from the user's message.

Current user profile:
%s
%s
User's response: %q

Extract any of these fields if mentioned:
- age (integer)
- monthly_income (integer in Australian dollars)
- monthly_expenses (integer in Australian dollars)
- savings (integer in Australian dollars)
- emergency_fund (integer in Australian dollars)
- debts (list of objects with type, amount, interest_rate)
- investments (list of objects with type, amount)
- marital_status (string: single/married/divorced)
- dependents (integer: number of dependents)
- job_stability (string: stable/casual/contract)
- life_insurance (boolean or object with coverage amount)
- private_health_insurance (boolean or string with coverage level: basic/bronze/silver/gold)
- superannuation (object with balance, employer_contribution, voluntary_contribution)
  * IMPORTANT: Only include the fields that are mentioned. Don't send all fields every time.
  * If user says "45k in super", return {"balance": 45000}
  * The system will MERGE these with existing superannuation data
- hecs_debt (integer: HECS/HELP student loan debt)
- timeline (string: when they want to achieve goal)
- target_amount (integer: target amount for goal if mentioned)
- user_goals (list of strings: ANY goals the user mentions - buying house, car, vacation, retirement, etc.)
  * Extract EVERY goal mentioned, no matter how small or unrealistic
  * This captures what the user WANTS, not what they should do

CRITICAL CONTEXT RULES:
1. Use the agent's last question to understand what the user is answering
2. If agent asked about expenses and user says "20k", return monthly_expenses: 20000
3. If agent asked about the emergency fund and user says "3 months", calculate from monthly_expenses
4. The agent's question tells you EXACTLY what field the user is answering

IMPORTANT:
- Only extract facts explicitly mentioned or clearly implied
- "80k" or "$80k" means 80000; annual salary divided by 12 for monthly_income
- If user explicitly says "no debts", return debts: [{"type": "none", "amount": 0, "interest_rate": 0}]
- If user explicitly says "no investments", return investments: [{"type": "none", "amount": 0}]
- If user mentions having no emergency fund without an amount, return emergency_fund: null
- HECS/HELP debt is low priority (CPI-indexed, not urgent)
- If nothing new is mentioned, return an empty object

Respond with JSON containing only the extracted fields. If nothing to extract, respond with: {}`,
		snapshot, contextLine, userMessage)

	raw, err := e.oracle.Complete(ctx, extractSystemPrompt, prompt, 0.1)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("extract facts: %w", err)
	}

	var w wireUpdate
	keys, err := oracle.DecodeObjectOrdered(raw, &w)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("extract facts: %w", err)
	}

	return w.toUpdate(keys), keys, w.UserGoals, nil
}

// ShouldConfirmExtraction flags updates worth reading back before the
// interview moves on: income, savings or emergency fund above $50k,
// or total debts above $100k. Corrections are always confirmed by the
// caller regardless.
func ShouldConfirmExtraction(u *profile.Update) bool {
	if u == nil {
		return false
	}
	for _, v := range []*float64{u.MonthlyIncome, u.Savings, u.EmergencyFund} {
		if v != nil && *v > 50000 {
			return true
		}
	}
	total := 0.0
	for _, d := range u.Debts {
		total += d.Amount
	}
	return total > 100000
}
