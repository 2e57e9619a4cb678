package conversation

import (
	"fmt"
	"strings"

	"github.com/quillfin/bursar/internal/profile"
)

// Summary renders the collected profile as markdown, used both for
// in-conversation confirmation and the interview summary email.
func Summary(p *profile.Profile) string {
	var parts []string

	if p.Age != nil {
		parts = append(parts, fmt.Sprintf("- Age: %d", *p.Age))
	}
	if p.MonthlyIncome != nil {
		parts = append(parts, fmt.Sprintf("- Monthly income: $%s", amount(*p.MonthlyIncome)))
	}
	if p.MonthlyExpenses != nil {
		parts = append(parts, fmt.Sprintf("- Monthly expenses: $%s", amount(*p.MonthlyExpenses)))
	}
	if p.Savings != nil {
		if p.SavingsEmergencyLinked {
			parts = append(parts, fmt.Sprintf("- Savings (also emergency fund): $%s", amount(*p.Savings)))
		} else {
			parts = append(parts, fmt.Sprintf("- Savings: $%s", amount(*p.Savings)))
		}
	}
	if p.EmergencyFund != nil && !p.SavingsEmergencyLinked {
		parts = append(parts, fmt.Sprintf("- Emergency fund: $%s", amount(*p.EmergencyFund)))
	}
	if p.MaritalStatus != nil {
		parts = append(parts, fmt.Sprintf("- Relationship: %s", *p.MaritalStatus))
	}
	if p.Dependents != nil {
		parts = append(parts, fmt.Sprintf("- Dependents: %d", *p.Dependents))
	}
	if p.JobStability != nil {
		parts = append(parts, fmt.Sprintf("- Job stability: %s", *p.JobStability))
	}

	if len(p.Debts) > 0 && !profile.IsSentinelDebts(p.Debts) {
		var debts []string
		for _, d := range p.Debts {
			s := d.Type
			if d.Amount > 0 {
				s = fmt.Sprintf("%s: $%s", d.Type, amount(d.Amount))
			}
			if d.InterestRate > 0 {
				s += fmt.Sprintf(" at %g%%", d.InterestRate)
			}
			debts = append(debts, s)
		}
		parts = append(parts, "- Debts: "+strings.Join(debts, ", "))
	} else if profile.IsSentinelDebts(p.Debts) {
		parts = append(parts, "- Debts: none")
	}

	if p.Superannuation != nil && p.Superannuation.Balance != nil {
		parts = append(parts, fmt.Sprintf("- Superannuation: $%s", amount(*p.Superannuation.Balance)))
	}

	if len(parts) == 0 {
		return "No profile data collected yet."
	}

	var b strings.Builder
	b.WriteString("## Your financial picture\n\n")
	b.WriteString(strings.Join(parts, "\n"))

	if p.UserGoal != nil {
		fmt.Fprintf(&b, "\n\n## Goal\n\n%s", *p.UserGoal)
		if p.GoalClassification != nil {
			fmt.Fprintf(&b, " (%s)", *p.GoalClassification)
		}
	}

	if len(p.DiscoveredGoals) > 0 {
		b.WriteString("\n\n## Goals we discovered together\n")
		for _, g := range p.DiscoveredGoals {
			fmt.Fprintf(&b, "\n- %s (%s priority)", strings.ReplaceAll(g.Goal, "_", " "), g.Priority)
		}
	}

	if len(p.CriticalConcerns) > 0 {
		b.WriteString("\n\n## Things to keep an eye on\n")
		for _, c := range p.CriticalConcerns {
			fmt.Fprintf(&b, "\n- %s", strings.ReplaceAll(c.Concern, "_", " "))
			if c.AgentNote != "" {
				fmt.Fprintf(&b, " — %s", c.AgentNote)
			}
		}
	}

	if len(p.MissingFields) > 0 {
		b.WriteString("\n\n## Still to cover\n")
		for _, f := range p.MissingFields {
			fmt.Fprintf(&b, "\n- %s", strings.ReplaceAll(f, "_", " "))
		}
	}

	return b.String()
}

// ShouldConfirm reports whether the agent should play the collected
// profile back to the user: everything required has been addressed,
// and either a correction happened (worth double-checking) or the
// interview is moving into assessment.
func ShouldConfirm(p *profile.Profile) bool {
	if len(p.MissingFields) > 0 {
		return false
	}
	if p.LastCorrection != nil {
		return true
	}
	return p.ConversationPhase == "assessment"
}

// amount formats a dollar value with thousands separators, dropping
// the cents.
func amount(v float64) string {
	n := int64(v + 0.5)
	if n < 0 {
		return "-" + amount(-v)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
