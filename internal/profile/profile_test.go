package profile

import "testing"

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func sptr(v string) *string   { return &v }

func TestMergeScalarOverwrite(t *testing.T) {
	p := &Profile{MonthlyIncome: fptr(5000), Age: iptr(30)}
	Merge(p, &Update{MonthlyIncome: fptr(6500)})

	if *p.MonthlyIncome != 6500 {
		t.Errorf("monthly_income: got %v, want 6500", *p.MonthlyIncome)
	}
	if p.Age == nil || *p.Age != 30 {
		t.Errorf("age should be untouched, got %v", p.Age)
	}
}

func TestMergeSuperannuationKeyWise(t *testing.T) {
	p := &Profile{Superannuation: &Superannuation{
		Balance:              fptr(45000),
		EmployerContribution: fptr(500),
	}}
	Merge(p, &Update{Superannuation: &Superannuation{Balance: fptr(47000)}})

	if *p.Superannuation.Balance != 47000 {
		t.Errorf("balance: got %v, want 47000", *p.Superannuation.Balance)
	}
	if p.Superannuation.EmployerContribution == nil || *p.Superannuation.EmployerContribution != 500 {
		t.Errorf("employer_contribution should survive the merge, got %v",
			p.Superannuation.EmployerContribution)
	}
}

func TestMergeListsReplaceWholesale(t *testing.T) {
	p := &Profile{Debts: []Debt{
		{Type: "credit_card", Amount: 3000, InterestRate: 19},
		{Type: "car_loan", Amount: 12000, InterestRate: 8},
	}}
	Merge(p, &Update{Debts: []Debt{{Type: "credit_card", Amount: 1500, InterestRate: 19}}})

	if len(p.Debts) != 1 {
		t.Fatalf("debts: got %d entries, want 1", len(p.Debts))
	}
	if p.Debts[0].Amount != 1500 {
		t.Errorf("debt amount: got %v, want 1500", p.Debts[0].Amount)
	}
}

func TestSentinelLists(t *testing.T) {
	if !IsSentinelDebts(NoDebts()) {
		t.Error("NoDebts() should be recognized as the sentinel")
	}
	if IsSentinelDebts(nil) {
		t.Error("nil list is not the sentinel")
	}
	if IsSentinelDebts([]Debt{{Type: "mortgage", Amount: 400000}}) {
		t.Error("real debts are not the sentinel")
	}
	if !IsSentinelInvestments(NoInvestments()) {
		t.Error("NoInvestments() should be recognized as the sentinel")
	}
}

func TestPopulated(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		field   string
		want    bool
	}{
		{"unset scalar", Profile{}, FieldAge, false},
		{"set scalar", Profile{Age: iptr(30)}, FieldAge, true},
		{"zero scalar counts", Profile{EmergencyFund: fptr(0)}, FieldEmergencyFund, true},
		{"absent list", Profile{}, FieldDebts, false},
		{"sentinel list counts", Profile{Debts: NoDebts()}, FieldDebts, true},
		{"empty super", Profile{Superannuation: &Superannuation{}}, FieldSuperannuation, false},
		{"super with one value", Profile{Superannuation: &Superannuation{Balance: fptr(50000)}}, FieldSuperannuation, true},
		{"unknown field", Profile{}, "favorite_color", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.profile.Populated(tc.field); got != tc.want {
				t.Errorf("Populated(%q): got %v, want %v", tc.field, got, tc.want)
			}
		})
	}
}

func TestUpdateValueExplicitNil(t *testing.T) {
	u := &Update{EmergencyFundExplicitNil: true}

	v, ok := u.Value(FieldEmergencyFund)
	if !ok {
		t.Fatal("explicitly-nil emergency fund should still be carried")
	}
	if v != nil {
		t.Errorf("got %v, want nil", v)
	}

	if _, ok := u.Value(FieldSavings); ok {
		t.Error("savings was never mentioned, should not be carried")
	}
}

func TestConfirmProbe(t *testing.T) {
	p := &Profile{}
	armed := p.ArmProbe(&PendingProbe{
		PotentialGoal: "build_emergency_fund",
		ProbeQuestion: "Would building an emergency fund be a priority for you?",
		Priority:      PriorityCritical,
		TrackIfDenied: true,
	})
	if !armed {
		t.Fatal("probe should arm on an empty slot")
	}

	goal := p.ConfirmProbe()
	if goal == nil {
		t.Fatal("confirm should produce a discovered goal")
	}
	if goal.Goal != "build_emergency_fund" {
		t.Errorf("goal: got %q, want build_emergency_fund", goal.Goal)
	}
	if goal.Status != "confirmed" {
		t.Errorf("status: got %q, want confirmed", goal.Status)
	}
	if p.PendingProbe != nil {
		t.Error("probe slot should be freed after confirm")
	}
	if len(p.CriticalConcerns) != 0 {
		t.Error("confirm must not raise a concern")
	}
}

func TestDenyProbeTracked(t *testing.T) {
	p := &Profile{}
	p.ArmProbe(&PendingProbe{
		PotentialGoal: "clear_high_interest_debt",
		Priority:      PriorityCritical,
		TrackIfDenied: true,
		DenialNote:    "user deprioritized despite high interest cost",
		ConcernDetails: map[string]any{
			"total_amount": 25000.0,
		},
	})

	concern := p.DenyProbe("no, I can manage it")
	if concern == nil {
		t.Fatal("track-if-denied probe should raise a concern on denial")
	}
	if concern.UserResponse != "no, I can manage it" {
		t.Errorf("user response: got %q", concern.UserResponse)
	}
	if p.PendingProbe != nil {
		t.Error("probe slot should be freed after deny")
	}
	if len(p.DiscoveredGoals) != 0 {
		t.Error("deny must not create a discovered goal")
	}
}

func TestDenyProbeUntracked(t *testing.T) {
	p := &Profile{}
	p.ArmProbe(&PendingProbe{
		PotentialGoal: "marriage_planning",
		Priority:      PriorityMedium,
	})

	if concern := p.DenyProbe("not really"); concern != nil {
		t.Errorf("untracked denial should record nothing, got %+v", concern)
	}
	if p.PendingProbe != nil {
		t.Error("probe slot should be freed even for untracked denials")
	}
}

func TestArmProbeExistingWins(t *testing.T) {
	p := &Profile{}
	p.ArmProbe(&PendingProbe{PotentialGoal: "build_emergency_fund"})

	if p.ArmProbe(&PendingProbe{PotentialGoal: "boost_superannuation"}) {
		t.Error("second arm should be rejected while a probe is pending")
	}
	if p.PendingProbe.PotentialGoal != "build_emergency_fund" {
		t.Errorf("pending probe was overwritten: %q", p.PendingProbe.PotentialGoal)
	}
}

func TestInRelationship(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"married", true},
		{"partnered", true},
		{"de facto", true},
		{"single", false},
		{"divorced", false},
	}
	for _, tc := range tests {
		p := &Profile{MaritalStatus: sptr(tc.status)}
		if got := p.InRelationship(); got != tc.want {
			t.Errorf("InRelationship(%q): got %v, want %v", tc.status, got, tc.want)
		}
	}
	if (&Profile{}).InRelationship() {
		t.Error("unset marital status should not count as a relationship")
	}
}
