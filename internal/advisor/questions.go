package advisor

import (
	"strings"

	"github.com/quillfin/bursar/internal/profile"
)

// questionFor is what the interviewer asks to fill a field. Income
// and expense questions say "monthly" so answers don't trip the
// gross/net ambiguity check.
var fieldQuestions = map[string]string{
	profile.FieldAge:                    "How old are you?",
	profile.FieldMonthlyIncome:          "What's your monthly income after tax?",
	profile.FieldMonthlyExpenses:        "Roughly what are your monthly expenses?",
	profile.FieldSavings:                "How much do you have in savings?",
	profile.FieldEmergencyFund:          "Do you have an emergency fund set aside? Roughly how much?",
	profile.FieldDebts:                  "Any debts - credit cards, car loans, a mortgage?",
	profile.FieldInvestments:            "Do you have any investments - shares, ETFs, property?",
	profile.FieldMaritalStatus:          "Are you single, married, or in a de facto relationship?",
	profile.FieldDependents:             "Any kids or other dependents?",
	profile.FieldJobStability:           "How stable is your work - permanent, contract, or casual?",
	profile.FieldLifeInsurance:          "Do you have life insurance?",
	profile.FieldPrivateHealthInsurance: "Do you have private health insurance?",
	profile.FieldSuperannuation:         "How's your super looking - do you know your balance?",
	profile.FieldHECSDebt:               "Any HECS/HELP debt left?",
	profile.FieldTimeline:               "When are you hoping to get there?",
	profile.FieldTargetAmount:           "Do you have a target amount in mind?",
}

func questionFor(field string) string {
	if q, ok := fieldQuestions[field]; ok {
		return q
	}
	return "Tell me a bit more about your " + strings.ReplaceAll(field, "_", " ") + "."
}

// questionCues maps a phrase in an agent question back to the field
// it was asking about, for skip and correction handling. Order
// matters: more specific phrases first.
var questionCues = []struct {
	cue   string
	field string
}{
	{"life insurance", profile.FieldLifeInsurance},
	{"health insurance", profile.FieldPrivateHealthInsurance},
	{"emergency fund", profile.FieldEmergencyFund},
	{"hecs", profile.FieldHECSDebt},
	{"expenses", profile.FieldMonthlyExpenses},
	{"income", profile.FieldMonthlyIncome},
	{"earn", profile.FieldMonthlyIncome},
	{"savings", profile.FieldSavings},
	{"saved", profile.FieldSavings},
	{"debt", profile.FieldDebts},
	{"invest", profile.FieldInvestments},
	{"super", profile.FieldSuperannuation},
	{"old are you", profile.FieldAge},
	{"your age", profile.FieldAge},
	{"married", profile.FieldMaritalStatus},
	{"relationship", profile.FieldMaritalStatus},
	{"kids", profile.FieldDependents},
	{"dependents", profile.FieldDependents},
	{"work", profile.FieldJobStability},
	{"job", profile.FieldJobStability},
	{"target amount", profile.FieldTargetAmount},
	{"when are you", profile.FieldTimeline},
	{"timeline", profile.FieldTimeline},
}

// fieldFromQuestion recovers which field the last agent question was
// about, or "" when it can't tell.
func fieldFromQuestion(question string) string {
	q := strings.ToLower(question)
	for _, c := range questionCues {
		if strings.Contains(q, c.cue) {
			return c.field
		}
	}
	return ""
}
