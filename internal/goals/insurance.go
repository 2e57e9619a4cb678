package goals

import (
	"fmt"

	"github.com/quillfin/bursar/internal/profile"
)

// InsuranceGap describes one uncovered insurance exposure.
type InsuranceGap struct {
	Type                string           `json:"type"`
	Priority            profile.Priority `json:"priority"`
	RecommendedCoverage float64          `json:"recommended_coverage,omitempty"`
	Reason              string           `json:"reason"`
}

// CheckInsuranceGaps analyzes the profile for missing life, income
// protection and private health cover. Thresholds follow the
// Australian Medicare Levy Surcharge and lifetime loading rules.
func CheckInsuranceGaps(p *profile.Profile) []InsuranceGap {
	var gaps []InsuranceGap

	annualIncome := 0.0
	if p.MonthlyIncome != nil {
		annualIncome = *p.MonthlyIncome * 12
	}

	hasLife := p.LifeInsurance != nil && *p.LifeInsurance
	if !hasLife {
		if gap := lifeInsuranceGap(p, annualIncome); gap != nil {
			gaps = append(gaps, *gap)
		}
	}

	// Income protection is not tracked as a profile field, so the gap
	// is reported whenever income alone would justify the cover.
	if annualIncome > 80000 {
		coverage := 5000.0
		if p.MonthlyIncome != nil {
			coverage = *p.MonthlyIncome * 0.75
		}
		gaps = append(gaps, InsuranceGap{
			Type:                "income_protection",
			Priority:            profile.PriorityHigh,
			RecommendedCoverage: coverage,
			Reason:              "Consider income protection insurance (often available through super)",
		})
	}

	hasHealth := p.PrivateHealthInsurance != nil &&
		*p.PrivateHealthInsurance != "" && *p.PrivateHealthInsurance != "none"
	if !hasHealth {
		if gap := healthInsuranceGap(p, annualIncome); gap != nil {
			gaps = append(gaps, *gap)
		}
	}

	return gaps
}

func lifeInsuranceGap(p *profile.Profile, annualIncome float64) *InsuranceGap {
	if p.DependentCount() > 0 {
		coverage := 1000000.0
		if annualIncome > 0 {
			coverage = annualIncome * 10
		}
		return &InsuranceGap{
			Type:                "life_insurance",
			Priority:            profile.PriorityCritical,
			RecommendedCoverage: coverage,
			Reason:              "Consider term life insurance to protect your family",
		}
	}

	for _, d := range p.Debts {
		switch d.Type {
		case "home_loan", "mortgage", "housing_loan":
			if d.Amount > 0 {
				return &InsuranceGap{
					Type:                "life_insurance",
					Priority:            profile.PriorityHigh,
					RecommendedCoverage: d.Amount,
					Reason:              "Consider life insurance to cover your mortgage",
				}
			}
		}
	}

	if p.InRelationship() && annualIncome > 60000 {
		return &InsuranceGap{
			Type:                "life_insurance",
			Priority:            profile.PriorityHigh,
			RecommendedCoverage: annualIncome * 5,
			Reason:              "Consider life insurance to protect each other financially",
		}
	}
	return nil
}

func healthInsuranceGap(p *profile.Profile, annualIncome float64) *InsuranceGap {
	if annualIncome > 93000 {
		// Medicare Levy Surcharge tiers.
		rate := 0.015
		switch {
		case annualIncome < 108000:
			rate = 0.01
		case annualIncome < 144000:
			rate = 0.0125
		}
		return &InsuranceGap{
			Type:     "private_health_insurance",
			Priority: profile.PriorityMedium,
			Reason: fmt.Sprintf(
				"Compare PHI costs vs Medicare Levy Surcharge (~$%.0f/year at your income)",
				annualIncome*rate),
		}
	}

	if p.Age != nil && *p.Age >= 31 {
		loading := (*p.Age - 30) * 2
		if loading > 70 {
			loading = 70
		}
		return &InsuranceGap{
			Type:     "private_health_insurance",
			Priority: profile.PriorityMedium,
			Reason: fmt.Sprintf(
				"Consider getting PHI before lifetime loading increases further (currently +%d%%)",
				loading),
		}
	}
	return nil
}
