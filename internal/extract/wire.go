package extract

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/quillfin/bursar/internal/profile"
)

// The oracle is told to return plain numbers, but models still emit
// "$80k" or "80,000" often enough that the wire types decode those
// shapes too.

// flexAmount accepts a JSON number, a numeric string with $ / comma /
// "k" shorthand, or a bare boolean (ignored). Null leaves the pointer
// nil.
type flexAmount float64

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == "true" || string(data) == "false" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, ok := parseAmount(s)
		if ok {
			*a = flexAmount(v)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = flexAmount(f)
	return nil
}

// parseAmount turns "80k", "$5,000" or "45000" into a float.
func parseAmount(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	mult := 1.0
	if strings.HasSuffix(s, "k") {
		mult = 1000
		s = strings.TrimSuffix(s, "k")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}

// flexBool accepts a boolean, or an object (a coverage description
// counts as "has it").
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case string(data) == "null":
		return nil
	case string(data) == "true":
		*b = true
	case string(data) == "false":
		*b = false
	case data[0] == '{':
		*b = true
	}
	return nil
}

// flexString accepts a string or a boolean (true → "yes", false →
// "none").
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		return nil
	case "true":
		*s = "yes"
		return nil
	case "false":
		*s = "none"
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(strings.ToLower(v))
	}
	return nil
}

type wireDebt struct {
	Type         string     `json:"type"`
	Amount       flexAmount `json:"amount"`
	InterestRate flexAmount `json:"interest_rate"`
}

type wireInvestment struct {
	Type   string     `json:"type"`
	Amount flexAmount `json:"amount"`
}

type wireSuper struct {
	Balance               *flexAmount `json:"balance"`
	EmployerContribution  *flexAmount `json:"employer_contribution"`
	VoluntaryContribution *flexAmount `json:"voluntary_contribution"`
}

// wireUpdate is the oracle's extraction response shape.
type wireUpdate struct {
	Age                    *int        `json:"age"`
	MonthlyIncome          *flexAmount `json:"monthly_income"`
	MonthlyExpenses        *flexAmount `json:"monthly_expenses"`
	Savings                *flexAmount `json:"savings"`
	EmergencyFund          *flexAmount `json:"emergency_fund"`
	MaritalStatus          *string     `json:"marital_status"`
	Dependents             *int        `json:"dependents"`
	JobStability           *string     `json:"job_stability"`
	LifeInsurance          *flexBool   `json:"life_insurance"`
	PrivateHealthInsurance *flexString `json:"private_health_insurance"`
	HECSDebt               *flexAmount `json:"hecs_debt"`
	Timeline               *string     `json:"timeline"`
	TargetAmount           *flexAmount `json:"target_amount"`

	Debts          []wireDebt       `json:"debts"`
	Investments    []wireInvestment `json:"investments"`
	Superannuation *wireSuper       `json:"superannuation"`

	UserGoals []string `json:"user_goals"`
}

func amountPtr(a *flexAmount) *float64 {
	if a == nil {
		return nil
	}
	v := float64(*a)
	return &v
}

// toUpdate converts the wire shape into a profile update. keys is the
// response's top-level key order; it detects explicitly-null mentions
// like "emergency_fund": null.
func (w *wireUpdate) toUpdate(keys []string) *profile.Update {
	u := &profile.Update{
		Age:             w.Age,
		MonthlyIncome:   amountPtr(w.MonthlyIncome),
		MonthlyExpenses: amountPtr(w.MonthlyExpenses),
		Savings:         amountPtr(w.Savings),
		EmergencyFund:   amountPtr(w.EmergencyFund),
		MaritalStatus:   normStrPtr(w.MaritalStatus),
		Dependents:      w.Dependents,
		JobStability:    normStrPtr(w.JobStability),
		HECSDebt:        amountPtr(w.HECSDebt),
		Timeline:        w.Timeline,
		TargetAmount:    amountPtr(w.TargetAmount),
	}
	if w.LifeInsurance != nil {
		v := bool(*w.LifeInsurance)
		u.LifeInsurance = &v
	}
	if w.PrivateHealthInsurance != nil {
		v := string(*w.PrivateHealthInsurance)
		u.PrivateHealthInsurance = &v
	}
	if w.Debts != nil {
		u.Debts = make([]profile.Debt, 0, len(w.Debts))
		for _, d := range w.Debts {
			u.Debts = append(u.Debts, profile.Debt{
				Type:         strings.ToLower(strings.TrimSpace(d.Type)),
				Amount:       float64(d.Amount),
				InterestRate: float64(d.InterestRate),
			})
		}
	}
	if w.Investments != nil {
		u.Investments = make([]profile.Investment, 0, len(w.Investments))
		for _, inv := range w.Investments {
			u.Investments = append(u.Investments, profile.Investment{
				Type:   strings.ToLower(strings.TrimSpace(inv.Type)),
				Amount: float64(inv.Amount),
			})
		}
	}
	if w.Superannuation != nil {
		u.Superannuation = &profile.Superannuation{
			Balance:               amountPtr(w.Superannuation.Balance),
			EmployerContribution:  amountPtr(w.Superannuation.EmployerContribution),
			VoluntaryContribution: amountPtr(w.Superannuation.VoluntaryContribution),
		}
	}

	if u.EmergencyFund == nil {
		for _, k := range keys {
			if k == profile.FieldEmergencyFund {
				u.EmergencyFundExplicitNil = true
				break
			}
		}
	}
	return u
}

func normStrPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	if v == "" {
		return nil
	}
	return &v
}
