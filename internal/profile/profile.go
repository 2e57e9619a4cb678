// Package profile defines the per-session financial profile and its
// persistence. A profile is owned by exactly one interview session;
// every field is independently nullable so the interview can fill it
// in any order.
package profile

// Canonical field names, as used in extraction results, scope tracking
// and probe rules.
const (
	FieldAge                    = "age"
	FieldMonthlyIncome          = "monthly_income"
	FieldMonthlyExpenses        = "monthly_expenses"
	FieldSavings                = "savings"
	FieldEmergencyFund          = "emergency_fund"
	FieldDebts                  = "debts"
	FieldInvestments            = "investments"
	FieldMaritalStatus          = "marital_status"
	FieldDependents             = "dependents"
	FieldJobStability           = "job_stability"
	FieldLifeInsurance          = "life_insurance"
	FieldPrivateHealthInsurance = "private_health_insurance"
	FieldSuperannuation         = "superannuation"
	FieldHECSDebt               = "hecs_debt"
	FieldTimeline               = "timeline"
	FieldTargetAmount           = "target_amount"
)

// Priority ranks probes, discovered goals and concerns.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// FieldState tracks how a profile field was resolved.
type FieldState string

const (
	StateAnswered    FieldState = "answered"
	StateSkipped     FieldState = "skipped"
	StateNotProvided FieldState = "not_provided"
	StateCorrected   FieldState = "corrected"
)

// SentinelType marks an explicitly-empty list entry. A list containing
// only a sentinel means "confirmed nothing here", which is distinct
// from an absent list meaning "not yet asked".
const SentinelType = "none"

// Debt is a single liability.
type Debt struct {
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	InterestRate float64 `json:"interest_rate"`
}

// Investment is a single investment holding.
type Investment struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

// Superannuation holds retirement savings details. Fields are pointers
// so partial updates can be merged key-wise: a nil field in an update
// leaves the stored value alone.
type Superannuation struct {
	Balance               *float64 `json:"balance,omitempty"`
	EmployerContribution  *float64 `json:"employer_contribution,omitempty"`
	VoluntaryContribution *float64 `json:"voluntary_contribution,omitempty"`
}

// PendingProbe is a goal-discovery question awaiting the user's answer.
// At most one exists per session at any time. It is cleared exactly
// once: on confirm/deny resolution, or by an explicit Clear.
type PendingProbe struct {
	PotentialGoal  string         `json:"potential_goal"`
	ProbeQuestion  string         `json:"probe_question"`
	Priority       Priority       `json:"priority"`
	TrackIfDenied  bool           `json:"track_if_denied"`
	DenialNote     string         `json:"denial_note,omitempty"`
	ConcernDetails map[string]any `json:"concern_details,omitempty"`
}

// DiscoveredGoal records a probe the user confirmed.
type DiscoveredGoal struct {
	ID       string         `json:"id"`
	Goal     string         `json:"goal"`
	Status   string         `json:"status"`
	Priority Priority       `json:"priority"`
	Details  map[string]any `json:"details,omitempty"`
}

// CriticalConcern records a track-if-denied probe the user denied.
// The user said no, but the underlying risk is real and the advisor
// should keep it in view.
type CriticalConcern struct {
	ID           string         `json:"id"`
	Concern      string         `json:"concern"`
	Details      map[string]any `json:"details,omitempty"`
	UserResponse string         `json:"user_response"`
	Priority     Priority       `json:"priority"`
	AgentNote    string         `json:"agent_note,omitempty"`
}

// RiskProfile is the outcome of the risk gate.
type RiskProfile struct {
	RiskAppetite string `json:"risk_appetite"`
	AgentReason  string `json:"agent_reason"`
}

// Correction records the most recent value correction by the user.
type Correction struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// FieldStateRecord pairs a field's resolution state with the value it
// was resolved to, if any.
type FieldStateRecord struct {
	State FieldState `json:"state"`
	Value any        `json:"value,omitempty"`
}

// Profile is the complete financial picture for one session. Scalar
// fields are pointers: nil means "not yet asked".
type Profile struct {
	Age                    *int     `json:"age,omitempty"`
	MonthlyIncome          *float64 `json:"monthly_income,omitempty"`
	MonthlyExpenses        *float64 `json:"monthly_expenses,omitempty"`
	Savings                *float64 `json:"savings,omitempty"`
	EmergencyFund          *float64 `json:"emergency_fund,omitempty"`
	MaritalStatus          *string  `json:"marital_status,omitempty"`
	Dependents             *int     `json:"dependents,omitempty"`
	JobStability           *string  `json:"job_stability,omitempty"`
	LifeInsurance          *bool    `json:"life_insurance,omitempty"`
	PrivateHealthInsurance *string  `json:"private_health_insurance,omitempty"`
	HECSDebt               *float64 `json:"hecs_debt,omitempty"`
	Timeline               *string  `json:"timeline,omitempty"`
	TargetAmount           *float64 `json:"target_amount,omitempty"`

	Debts          []Debt          `json:"debts,omitempty"`
	Investments    []Investment    `json:"investments,omitempty"`
	Superannuation *Superannuation `json:"superannuation,omitempty"`

	UserGoal           *string `json:"user_goal,omitempty"`
	GoalClassification *string `json:"goal_classification,omitempty"`
	ConversationPhase  string  `json:"conversation_phase,omitempty"`

	RequiredFields []string `json:"required_fields,omitempty"`
	MissingFields  []string `json:"missing_fields,omitempty"`

	StatedGoals      []string          `json:"stated_goals,omitempty"`
	DiscoveredGoals  []DiscoveredGoal  `json:"discovered_goals,omitempty"`
	CriticalConcerns []CriticalConcern `json:"critical_concerns,omitempty"`
	PendingProbe     *PendingProbe     `json:"pending_probe,omitempty"`
	RiskProfile      *RiskProfile      `json:"risk_profile,omitempty"`

	FieldStates            map[string]FieldStateRecord `json:"field_states,omitempty"`
	SavingsEmergencyLinked bool                        `json:"savings_emergency_linked,omitempty"`
	LastCorrection         *Correction                 `json:"last_correction,omitempty"`
}

// NoDebts returns the sentinel list meaning "user confirmed no debts".
func NoDebts() []Debt {
	return []Debt{{Type: SentinelType}}
}

// NoInvestments returns the sentinel list meaning "user confirmed no
// investments".
func NoInvestments() []Investment {
	return []Investment{{Type: SentinelType}}
}

// IsSentinelDebts reports whether the list is the confirmed-empty
// sentinel rather than real debt entries.
func IsSentinelDebts(debts []Debt) bool {
	for _, d := range debts {
		if d.Type != SentinelType {
			return false
		}
	}
	return len(debts) > 0
}

// IsSentinelInvestments reports whether the list is the confirmed-empty
// sentinel rather than real holdings.
func IsSentinelInvestments(invs []Investment) bool {
	for _, inv := range invs {
		if inv.Type != SentinelType {
			return false
		}
	}
	return len(invs) > 0
}

// Populated reports whether a named field counts as answered for scope
// tracking: scalars must be non-nil, Superannuation must carry at least
// one non-nil value, and lists must be non-empty (a sentinel-only list
// counts — the user explicitly confirmed it is empty).
func (p *Profile) Populated(field string) bool {
	switch field {
	case FieldAge:
		return p.Age != nil
	case FieldMonthlyIncome:
		return p.MonthlyIncome != nil
	case FieldMonthlyExpenses:
		return p.MonthlyExpenses != nil
	case FieldSavings:
		return p.Savings != nil
	case FieldEmergencyFund:
		return p.EmergencyFund != nil
	case FieldMaritalStatus:
		return p.MaritalStatus != nil
	case FieldDependents:
		return p.Dependents != nil
	case FieldJobStability:
		return p.JobStability != nil
	case FieldLifeInsurance:
		return p.LifeInsurance != nil
	case FieldPrivateHealthInsurance:
		return p.PrivateHealthInsurance != nil
	case FieldHECSDebt:
		return p.HECSDebt != nil
	case FieldTimeline:
		return p.Timeline != nil
	case FieldTargetAmount:
		return p.TargetAmount != nil
	case FieldDebts:
		return len(p.Debts) > 0
	case FieldInvestments:
		return len(p.Investments) > 0
	case FieldSuperannuation:
		if p.Superannuation == nil {
			return false
		}
		s := p.Superannuation
		return s.Balance != nil || s.EmployerContribution != nil || s.VoluntaryContribution != nil
	default:
		return false
	}
}

// InRelationship reports whether marital status indicates a partner.
func (p *Profile) InRelationship() bool {
	if p.MaritalStatus == nil {
		return false
	}
	switch *p.MaritalStatus {
	case "married", "partnered", "de facto", "de_facto":
		return true
	}
	return false
}

// DependentCount returns the number of dependents, treating unset as 0.
func (p *Profile) DependentCount() int {
	if p.Dependents == nil {
		return 0
	}
	return *p.Dependents
}
