// Package scope tracks interview completeness: which profile fields a
// goal classification requires and which are still missing.
package scope

import (
	"fmt"
	"log/slog"

	"github.com/quillfin/bursar/internal/profile"
)

// BaselineFields are required for every goal type.
var BaselineFields = []string{
	profile.FieldAge,
	profile.FieldMonthlyIncome,
	profile.FieldMonthlyExpenses,
	profile.FieldEmergencyFund,
	profile.FieldDebts,
	profile.FieldSuperannuation,
}

// GoalSpecificFields extends the baseline per goal classification.
var GoalSpecificFields = map[string][]string{
	"small_purchase":  {profile.FieldSavings, profile.FieldTimeline},
	"medium_purchase": {profile.FieldSavings, profile.FieldTimeline, profile.FieldJobStability},
	"large_purchase": {profile.FieldSavings, profile.FieldTimeline, profile.FieldJobStability,
		profile.FieldMaritalStatus, profile.FieldDependents, profile.FieldLifeInsurance,
		profile.FieldPrivateHealthInsurance},
	"luxury": {profile.FieldSavings, profile.FieldTimeline, profile.FieldJobStability,
		profile.FieldMaritalStatus, profile.FieldDependents, profile.FieldLifeInsurance,
		profile.FieldPrivateHealthInsurance, profile.FieldInvestments},
	"life_event": {profile.FieldSavings, profile.FieldTimeline, profile.FieldJobStability,
		profile.FieldMaritalStatus, profile.FieldDependents, profile.FieldLifeInsurance,
		profile.FieldPrivateHealthInsurance, profile.FieldSuperannuation},
	"investment": {profile.FieldSavings, profile.FieldInvestments, profile.FieldSuperannuation,
		profile.FieldTimeline},
	"emergency": {profile.FieldJobStability, profile.FieldMaritalStatus, profile.FieldDependents,
		profile.FieldSuperannuation},
}

// Required returns baseline plus goal-specific fields, deduplicated
// with first-occurrence order preserved.
func Required(classification string) []string {
	seen := make(map[string]bool, len(BaselineFields))
	required := make([]string, 0, len(BaselineFields))
	for _, f := range BaselineFields {
		seen[f] = true
		required = append(required, f)
	}
	for _, f := range GoalSpecificFields[classification] {
		if !seen[f] {
			seen[f] = true
			required = append(required, f)
		}
	}
	return required
}

// Missing filters required down to fields the profile has not
// populated, preserving order.
func Missing(p *profile.Profile, required []string) []string {
	missing := make([]string, 0, len(required))
	for _, f := range required {
		if !p.Populated(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Result is one completeness snapshot.
type Result struct {
	GoalType       string   `json:"goal_type,omitempty"`
	RequiredFields []string `json:"required_fields"`
	MissingFields  []string `json:"missing_fields"`
}

// Complete reports whether nothing is missing for a classified goal.
func (r *Result) Complete() bool {
	return r.GoalType != "" && len(r.MissingFields) == 0
}

// Tracker recomputes and persists completeness for a session.
type Tracker struct {
	store  *profile.Store
	logger *slog.Logger
}

func NewTracker(store *profile.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  store,
		logger: logger.With("component", "scope"),
	}
}

// Recompute rebuilds the required and missing sets from scratch and
// persists them on the profile. Without a goal classification there
// are no requirements yet; any stale sets are cleared.
//
// The caller is expected to hold the session lock.
func (t *Tracker) Recompute(sessionID string) (*Result, error) {
	result := &Result{RequiredFields: []string{}, MissingFields: []string{}}

	_, err := t.store.Mutate(sessionID, func(p *profile.Profile) error {
		if p.GoalClassification == nil {
			p.RequiredFields = nil
			p.MissingFields = nil
			return nil
		}
		result.GoalType = *p.GoalClassification
		result.RequiredFields = Required(result.GoalType)
		result.MissingFields = Missing(p, result.RequiredFields)
		p.RequiredFields = result.RequiredFields
		p.MissingFields = result.MissingFields
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recompute scope: %w", err)
	}

	t.logger.Debug("scope recomputed", "session_id", sessionID,
		"goal_type", result.GoalType,
		"required", len(result.RequiredFields), "missing", len(result.MissingFields))
	return result, nil
}
