// Package risk gates and computes the session risk profile.
package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quillfin/bursar/internal/oracle"
	"github.com/quillfin/bursar/internal/profile"
)

// ErrMissingFields is returned when the interview is not complete
// enough to assess risk.
var ErrMissingFields = errors.New("required fields still missing")

// Assessment is a full risk read-out. Only RiskAppetite and
// AgentReason are persisted; concerns and strengths are advisory.
type Assessment struct {
	RiskAppetite string   `json:"risk_appetite"`
	AgentReason  string   `json:"agent_reason"`
	KeyConcerns  []string `json:"key_concerns,omitempty"`
	Strengths    []string `json:"strengths,omitempty"`
}

// Profiler scores risk capacity from a completed profile.
type Profiler struct {
	oracle oracle.Client
	store  *profile.Store
	logger *slog.Logger
}

func NewProfiler(oc oracle.Client, store *profile.Store, logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profiler{
		oracle: oc,
		store:  store,
		logger: logger.With("component", "risk"),
	}
}

const assessSystemPrompt = "You are a financial risk assessor. Always respond with valid JSON. " +
	"Be realistic and consider Australian financial context including Medicare, superannuation " +
	"(11.5% employer contribution), and HECS/HELP debt (low priority)."

// Assess computes the risk profile for a session. It refuses with
// ErrMissingFields while any required field is unanswered. On success
// it persists risk_appetite, agent_reason and phase "analysis" in one
// mutation; any failure leaves the store untouched.
//
// The caller is expected to hold the session lock.
func (r *Profiler) Assess(ctx context.Context, sessionID string) (*Assessment, error) {
	p, err := r.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if len(p.MissingFields) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(p.MissingFields, ", "))
	}

	snapshot, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	prompt := fmt.Sprintf(`You are a financial risk assessor. Analyze the user's financial situation and determine their risk capacity.

User's Financial Profile:
%s

Consider these factors:
1. Age (younger = higher risk capacity)
2. Income stability (stable job = higher capacity)
3. Emergency fund adequacy (6+ months = higher capacity)
4. Debt levels (high debt = lower capacity)
5. Dependents (more dependents = lower capacity)
6. Insurance coverage (proper coverage = higher capacity)
7. Current savings and investments

Risk Appetite Categories:
- low: Conservative approach, prioritize safety and stability
- medium: Balanced approach, some risk acceptable
- high: Aggressive approach, comfortable with higher risk

Respond with JSON in this exact format:
{
    "risk_appetite": "low/medium/high",
    "agent_reason": "Detailed explanation of why this risk level is appropriate based on their situation. Include specific numbers and concerns.",
    "key_concerns": ["List of main financial concerns or gaps"],
    "strengths": ["List of positive aspects of their financial situation"]
}`, snapshot)

	raw, err := r.oracle.Complete(ctx, assessSystemPrompt, prompt, 0.3)
	if err != nil {
		return nil, fmt.Errorf("assess risk: %w", err)
	}

	var assessment Assessment
	if err := oracle.DecodeObject(raw, &assessment); err != nil {
		return nil, fmt.Errorf("assess risk: %w", err)
	}

	switch assessment.RiskAppetite {
	case "low", "medium", "high":
	default:
		return nil, fmt.Errorf("assess risk: %w: unknown appetite %q", oracle.ErrMalformed, assessment.RiskAppetite)
	}

	_, err = r.store.Mutate(sessionID, func(p *profile.Profile) error {
		p.RiskProfile = &profile.RiskProfile{
			RiskAppetite: assessment.RiskAppetite,
			AgentReason:  assessment.AgentReason,
		}
		p.ConversationPhase = "analysis"
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist risk profile: %w", err)
	}

	r.logger.Info("risk profile calculated", "session_id", sessionID,
		"risk_appetite", assessment.RiskAppetite)
	return &assessment, nil
}
