// Package goals holds the goal-discovery rule table, the goal
// taxonomy classifier, priority mapping and insurance gap analysis.
package goals

import (
	"fmt"

	"github.com/quillfin/bursar/internal/profile"
)

// ShouldProbeForGoal decides whether a freshly extracted fact warrants
// a goal-discovery probe. field is the fact's name, value its
// extracted value (nil for explicitly-unknown mentions), and p the
// profile after the extraction batch was merged.
//
// Rules are evaluated in order; the first positive decision wins.
// Returns nil when nothing about the fact suggests an unstated goal.
func ShouldProbeForGoal(field string, value any, p *profile.Profile) *profile.PendingProbe {
	for _, rule := range probeRules {
		if probe := rule(field, value, p); probe != nil {
			return probe
		}
	}
	return nil
}

type probeRule func(field string, value any, p *profile.Profile) *profile.PendingProbe

var probeRules = []probeRule{
	highInterestDebt,
	emergencyFund,
	lifeInsuranceWithDependents,
	marriagePlanning,
	familyAndEducationPlanning,
	lowSuperannuation,
	lowSavingsRate,
}

// highInterestDebt fires on any real debt above 15% interest or above
// $20,000 outstanding.
func highInterestDebt(field string, value any, p *profile.Profile) *profile.PendingProbe {
	if field != profile.FieldDebts {
		return nil
	}
	debts, ok := value.([]profile.Debt)
	if !ok {
		return nil
	}

	for _, d := range debts {
		if d.Type == profile.SentinelType {
			continue
		}
		if d.InterestRate <= 15 && d.Amount <= 20000 {
			continue
		}

		annualInterest := d.Amount * d.InterestRate / 100
		monthlyInterest := annualInterest / 12

		question := fmt.Sprintf(
			"That's pretty high interest - about $%.0f/month just in interest. Is clearing that debt something you're working towards?",
			monthlyInterest)
		if d.InterestRate == 0 {
			question = "That's a sizeable debt. Is clearing it something you're working towards?"
		}

		return &profile.PendingProbe{
			PotentialGoal: "clear_high_interest_debt",
			ProbeQuestion: question,
			Priority:      profile.PriorityCritical,
			TrackIfDenied: true,
			DenialNote: fmt.Sprintf(
				"User not prioritizing $%.0f %s at %g%% - losing $%.0f/year to interest",
				d.Amount, d.Type, d.InterestRate, annualInterest),
			ConcernDetails: map[string]any{
				"concern":       "high_interest_debt",
				"debt_type":     d.Type,
				"amount":        d.Amount,
				"interest_rate": d.InterestRate,
				"annual_cost":   annualInterest,
			},
		}
	}
	return nil
}

// emergencyFund fires critically when the fund is absent or zero, and
// at high priority when it covers less than three months of expenses.
func emergencyFund(field string, value any, p *profile.Profile) *profile.PendingProbe {
	if field != profile.FieldEmergencyFund {
		return nil
	}

	fund, haveAmount := value.(float64)
	if !haveAmount || fund == 0 {
		recommended := 18000.0
		if p.MonthlyExpenses != nil {
			recommended = *p.MonthlyExpenses * 6
		}
		return &profile.PendingProbe{
			PotentialGoal: "build_emergency_fund",
			ProbeQuestion: "Are you planning to build an emergency fund, or not a priority right now?",
			Priority:      profile.PriorityCritical,
			TrackIfDenied: true,
			DenialNote:    "User has no emergency fund - financially vulnerable to unexpected expenses",
			ConcernDetails: map[string]any{
				"concern":            "no_emergency_fund",
				"current_amount":     0.0,
				"recommended_amount": recommended,
			},
		}
	}

	if p.MonthlyExpenses != nil && *p.MonthlyExpenses > 0 && fund < *p.MonthlyExpenses*3 {
		monthsCovered := fund / *p.MonthlyExpenses
		return &profile.PendingProbe{
			PotentialGoal: "boost_emergency_fund",
			ProbeQuestion: fmt.Sprintf(
				"You've got about %.1f months covered. Planning to boost that emergency fund?",
				monthsCovered),
			Priority: profile.PriorityHigh,
			// Not critical when they have some cushion.
			TrackIfDenied: false,
		}
	}
	return nil
}

// lifeInsuranceWithDependents fires critically when dependents exist
// and life insurance is absent.
func lifeInsuranceWithDependents(field string, value any, p *profile.Profile) *profile.PendingProbe {
	if field != profile.FieldLifeInsurance {
		return nil
	}
	deps := p.DependentCount()
	if deps <= 0 {
		return nil
	}
	if covered, ok := value.(bool); ok && covered {
		return nil
	}

	recommended := 1000000.0
	if p.MonthlyIncome != nil {
		recommended = *p.MonthlyIncome * 12 * 10
	}
	kids := "kids"
	if deps == 1 {
		kids = "kid"
	}
	return &profile.PendingProbe{
		PotentialGoal: "get_life_insurance",
		ProbeQuestion: fmt.Sprintf(
			"With %d %s, have you thought about life insurance? It's pretty important for income protection.",
			deps, kids),
		Priority:      profile.PriorityCritical,
		TrackIfDenied: true,
		DenialNote: fmt.Sprintf(
			"User has %d dependent(s) but no life insurance - family financially vulnerable", deps),
		ConcernDetails: map[string]any{
			"concern":              "no_life_insurance_with_dependents",
			"dependents":           deps,
			"recommended_coverage": recommended,
		},
	}
}

// marriagePlanning gently asks singles aged 25-40.
func marriagePlanning(field string, value any, p *profile.Profile) *profile.PendingProbe {
	if field != profile.FieldMaritalStatus {
		return nil
	}
	status, ok := value.(string)
	if !ok || status != "single" {
		return nil
	}
	if p.Age == nil || *p.Age < 25 || *p.Age > 40 {
		return nil
	}
	return &profile.PendingProbe{
		PotentialGoal: "marriage_planning",
		ProbeQuestion: "Is marriage something you're thinking about in the next few years?",
		Priority:      profile.PriorityMedium,
		// Respect personal choice.
		TrackIfDenied: false,
	}
}

// familyAndEducationPlanning covers partnered users: family planning
// when there are no kids yet (and age allows), education planning when
// there are kids but no education investment.
func familyAndEducationPlanning(field string, value any, p *profile.Profile) *profile.PendingProbe {
	if field != profile.FieldDependents {
		return nil
	}
	if !p.InRelationship() {
		return nil
	}
	deps, _ := value.(int)

	if deps == 0 {
		if p.Age == nil || *p.Age > 40 {
			return nil
		}
		return &profile.PendingProbe{
			PotentialGoal: "family_planning",
			ProbeQuestion: "Are kids something you're planning for in the next few years?",
			Priority:      profile.PriorityMedium,
			TrackIfDenied: false,
		}
	}

	for _, inv := range p.Investments {
		switch inv.Type {
		case "education", "529", "resp", "education fund":
			return nil
		}
	}

	kids := "kids"
	if deps == 1 {
		kids = "kid"
	}
	return &profile.PendingProbe{
		PotentialGoal: "education_planning",
		ProbeQuestion: fmt.Sprintf(
			"With %d %s, are you planning for their education costs?", deps, kids),
		Priority:      profile.PriorityHigh,
		TrackIfDenied: false,
	}
}

// superBenchmark returns the rough balance expected at a given age:
// $20k by 25, $50k by 30, $100k by 40, $200k by 50.
func superBenchmark(age int) float64 {
	switch {
	case age >= 50:
		return 200000
	case age >= 40:
		return 100000
	case age >= 30:
		return 50000
	case age >= 25:
		return 20000
	default:
		return 0
	}
}

// lowSuperannuation fires when the balance is under half the age
// benchmark.
func lowSuperannuation(field string, value any, p *profile.Profile) *profile.PendingProbe {
	if field != profile.FieldSuperannuation {
		return nil
	}
	super, ok := value.(*profile.Superannuation)
	if !ok || super == nil || super.Balance == nil || *super.Balance == 0 {
		return nil
	}
	if p.Age == nil {
		return nil
	}

	balance := *super.Balance
	expected := superBenchmark(*p.Age)
	if expected == 0 || balance >= expected*0.5 {
		return nil
	}

	return &profile.PendingProbe{
		PotentialGoal: "boost_superannuation",
		ProbeQuestion: fmt.Sprintf(
			"Your super is a bit low for %d. Are you planning to boost your contributions?", *p.Age),
		Priority:      profile.PriorityHigh,
		TrackIfDenied: true,
		DenialNote: fmt.Sprintf(
			"User has $%.0f in super at age %d (expected ~$%.0f) - retirement gap risk",
			balance, *p.Age, expected),
		ConcernDetails: map[string]any{
			"concern":          "low_superannuation",
			"current_balance":  balance,
			"expected_balance": expected,
			"age":              *p.Age,
		},
	}
}

// lowSavingsRate fires when expenses leave less than 10% of income.
func lowSavingsRate(field string, value any, p *profile.Profile) *profile.PendingProbe {
	if field != profile.FieldMonthlyExpenses {
		return nil
	}
	expenses, ok := value.(float64)
	if !ok || expenses == 0 {
		return nil
	}
	if p.MonthlyIncome == nil || *p.MonthlyIncome <= 0 {
		return nil
	}

	savingsRate := (*p.MonthlyIncome - expenses) / *p.MonthlyIncome
	if savingsRate >= 0.1 {
		return nil
	}
	return &profile.PendingProbe{
		PotentialGoal: "reduce_expenses",
		ProbeQuestion: "You're spending most of your income. Have you thought about cutting back on expenses?",
		Priority:      profile.PriorityMedium,
		// Respect lifestyle choice.
		TrackIfDenied: false,
	}
}
