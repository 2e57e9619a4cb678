package goals

import "github.com/quillfin/bursar/internal/profile"

// CategorizeGoalPriority maps a discovered goal to its planning
// priority. Life insurance escalates to critical when dependents
// exist; mortgage protection is high only when a mortgage debt is on
// the books.
func CategorizeGoalPriority(goal string, p *profile.Profile) profile.Priority {
	switch goal {
	case "clear_high_interest_debt", "build_emergency_fund":
		return profile.PriorityCritical

	case "get_life_insurance":
		if p.DependentCount() > 0 {
			return profile.PriorityCritical
		}
		return profile.PriorityHigh

	case "boost_emergency_fund", "boost_superannuation", "get_income_protection":
		return profile.PriorityHigh

	case "get_mortgage_protection":
		for _, d := range p.Debts {
			switch d.Type {
			case "home_loan", "mortgage", "housing_loan":
				return profile.PriorityHigh
			}
		}
		return profile.PriorityLow

	case "marriage_planning", "reduce_expenses", "get_private_health_insurance":
		return profile.PriorityMedium
	}
	return profile.PriorityLow
}
