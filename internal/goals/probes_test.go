package goals

import (
	"strings"
	"testing"

	"github.com/quillfin/bursar/internal/profile"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func sptr(v string) *string   { return &v }
func bptr(v bool) *bool       { return &v }

func TestHighInterestDebtProbe(t *testing.T) {
	p := &profile.Profile{}

	tests := []struct {
		name  string
		debts []profile.Debt
		want  bool
	}{
		{"high rate small amount", []profile.Debt{{Type: "credit_card", Amount: 8000, InterestRate: 22}}, true},
		{"low rate large amount", []profile.Debt{{Type: "car_loan", Amount: 35000, InterestRate: 6}}, true},
		{"low rate small amount", []profile.Debt{{Type: "personal_loan", Amount: 5000, InterestRate: 8}}, false},
		{"sentinel no debts", profile.NoDebts(), false},
		{"sentinel mixed with real", []profile.Debt{{Type: profile.SentinelType}, {Type: "credit_card", Amount: 12000, InterestRate: 19}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			probe := ShouldProbeForGoal(profile.FieldDebts, tc.debts, p)
			if got := probe != nil; got != tc.want {
				t.Fatalf("probe fired = %v, want %v", got, tc.want)
			}
			if probe != nil && probe.PotentialGoal != "clear_high_interest_debt" {
				t.Errorf("goal = %s, want clear_high_interest_debt", probe.PotentialGoal)
			}
		})
	}
}

func TestHighInterestDebtProbeDetails(t *testing.T) {
	debts := []profile.Debt{{Type: "credit_card", Amount: 12000, InterestRate: 20}}
	probe := ShouldProbeForGoal(profile.FieldDebts, debts, &profile.Profile{})
	if probe == nil {
		t.Fatal("expected probe")
	}
	// $12k at 20% is $2400/year, $200/month.
	if !strings.Contains(probe.ProbeQuestion, "$200/month") {
		t.Errorf("question should cite monthly interest: %q", probe.ProbeQuestion)
	}
	if probe.Priority != profile.PriorityCritical {
		t.Errorf("priority = %s, want critical", probe.Priority)
	}
	if !probe.TrackIfDenied {
		t.Error("high-interest debt denial must be tracked")
	}
	if probe.ConcernDetails["annual_cost"] != 2400.0 {
		t.Errorf("annual_cost = %v, want 2400", probe.ConcernDetails["annual_cost"])
	}
}

func TestEmergencyFundProbes(t *testing.T) {
	expenses := &profile.Profile{MonthlyExpenses: fptr(4000)}

	t.Run("absent fund", func(t *testing.T) {
		probe := ShouldProbeForGoal(profile.FieldEmergencyFund, nil, expenses)
		if probe == nil || probe.PotentialGoal != "build_emergency_fund" {
			t.Fatalf("got %+v, want build_emergency_fund", probe)
		}
		if probe.Priority != profile.PriorityCritical || !probe.TrackIfDenied {
			t.Errorf("want critical + tracked, got %s tracked=%v", probe.Priority, probe.TrackIfDenied)
		}
		if probe.ConcernDetails["recommended_amount"] != 24000.0 {
			t.Errorf("recommended = %v, want 24000 (6 months)", probe.ConcernDetails["recommended_amount"])
		}
	})

	t.Run("zero fund", func(t *testing.T) {
		probe := ShouldProbeForGoal(profile.FieldEmergencyFund, 0.0, expenses)
		if probe == nil || probe.PotentialGoal != "build_emergency_fund" {
			t.Fatalf("got %+v, want build_emergency_fund", probe)
		}
	})

	t.Run("thin fund", func(t *testing.T) {
		probe := ShouldProbeForGoal(profile.FieldEmergencyFund, 6000.0, expenses)
		if probe == nil || probe.PotentialGoal != "boost_emergency_fund" {
			t.Fatalf("got %+v, want boost_emergency_fund", probe)
		}
		if probe.Priority != profile.PriorityHigh || probe.TrackIfDenied {
			t.Errorf("want high + untracked, got %s tracked=%v", probe.Priority, probe.TrackIfDenied)
		}
		if !strings.Contains(probe.ProbeQuestion, "1.5 months") {
			t.Errorf("question should cite months covered: %q", probe.ProbeQuestion)
		}
	})

	t.Run("healthy fund", func(t *testing.T) {
		if probe := ShouldProbeForGoal(profile.FieldEmergencyFund, 15000.0, expenses); probe != nil {
			t.Errorf("unexpected probe: %+v", probe)
		}
	})

	t.Run("default recommendation without expenses", func(t *testing.T) {
		probe := ShouldProbeForGoal(profile.FieldEmergencyFund, nil, &profile.Profile{})
		if probe == nil {
			t.Fatal("expected probe")
		}
		if probe.ConcernDetails["recommended_amount"] != 18000.0 {
			t.Errorf("recommended = %v, want 18000 default", probe.ConcernDetails["recommended_amount"])
		}
	})
}

func TestLifeInsuranceProbe(t *testing.T) {
	parent := &profile.Profile{Dependents: iptr(2), MonthlyIncome: fptr(8000)}

	probe := ShouldProbeForGoal(profile.FieldLifeInsurance, false, parent)
	if probe == nil || probe.PotentialGoal != "get_life_insurance" {
		t.Fatalf("got %+v, want get_life_insurance", probe)
	}
	if probe.Priority != profile.PriorityCritical {
		t.Errorf("priority = %s, want critical", probe.Priority)
	}
	if probe.ConcernDetails["recommended_coverage"] != 960000.0 {
		t.Errorf("coverage = %v, want 960000 (10x annual)", probe.ConcernDetails["recommended_coverage"])
	}

	// No dependents: nothing to protect, no probe.
	if p := ShouldProbeForGoal(profile.FieldLifeInsurance, false, &profile.Profile{}); p != nil {
		t.Errorf("unexpected probe without dependents: %+v", p)
	}

	// Already covered.
	if p := ShouldProbeForGoal(profile.FieldLifeInsurance, true, parent); p != nil {
		t.Errorf("unexpected probe when covered: %+v", p)
	}
}

func TestMarriagePlanningProbe(t *testing.T) {
	tests := []struct {
		name   string
		status string
		age    *int
		want   bool
	}{
		{"single at 30", "single", iptr(30), true},
		{"single at 25 boundary", "single", iptr(25), true},
		{"single at 40 boundary", "single", iptr(40), true},
		{"single at 24", "single", iptr(24), false},
		{"single at 41", "single", iptr(41), false},
		{"single unknown age", "single", nil, false},
		{"married at 30", "married", iptr(30), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &profile.Profile{Age: tc.age}
			probe := ShouldProbeForGoal(profile.FieldMaritalStatus, tc.status, p)
			if got := probe != nil; got != tc.want {
				t.Fatalf("probe fired = %v, want %v", got, tc.want)
			}
			if probe != nil && probe.TrackIfDenied {
				t.Error("marriage denial must not become a concern")
			}
		})
	}
}

func TestFamilyPlanningProbe(t *testing.T) {
	partnered := &profile.Profile{MaritalStatus: sptr("married"), Age: iptr(32)}

	probe := ShouldProbeForGoal(profile.FieldDependents, 0, partnered)
	if probe == nil || probe.PotentialGoal != "family_planning" {
		t.Fatalf("got %+v, want family_planning", probe)
	}

	single := &profile.Profile{MaritalStatus: sptr("single"), Age: iptr(32)}
	if p := ShouldProbeForGoal(profile.FieldDependents, 0, single); p != nil {
		t.Errorf("unexpected probe for single user: %+v", p)
	}

	older := &profile.Profile{MaritalStatus: sptr("de facto"), Age: iptr(45)}
	if p := ShouldProbeForGoal(profile.FieldDependents, 0, older); p != nil {
		t.Errorf("unexpected probe past 40: %+v", p)
	}
}

func TestEducationPlanningProbe(t *testing.T) {
	parent := &profile.Profile{MaritalStatus: sptr("married"), Dependents: iptr(1)}

	probe := ShouldProbeForGoal(profile.FieldDependents, 1, parent)
	if probe == nil || probe.PotentialGoal != "education_planning" {
		t.Fatalf("got %+v, want education_planning", probe)
	}
	if probe.Priority != profile.PriorityHigh {
		t.Errorf("priority = %s, want high", probe.Priority)
	}
	if !strings.Contains(probe.ProbeQuestion, "1 kid,") {
		t.Errorf("question should use singular: %q", probe.ProbeQuestion)
	}

	investor := &profile.Profile{
		MaritalStatus: sptr("married"),
		Dependents:    iptr(1),
		Investments:   []profile.Investment{{Type: "education fund", Amount: 5000}},
	}
	if p := ShouldProbeForGoal(profile.FieldDependents, 1, investor); p != nil {
		t.Errorf("unexpected probe with education investment: %+v", p)
	}
}

func TestLowSuperannuationProbe(t *testing.T) {
	tests := []struct {
		name    string
		age     int
		balance float64
		want    bool
	}{
		{"35yo well under half of 50k", 35, 20000, true},
		{"35yo at half of 50k", 35, 25000, false},
		{"52yo under half of 200k", 52, 80000, true},
		{"27yo healthy", 27, 15000, false},
		{"22yo no benchmark", 22, 1000, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &profile.Profile{Age: iptr(tc.age)}
			super := &profile.Superannuation{Balance: fptr(tc.balance)}
			probe := ShouldProbeForGoal(profile.FieldSuperannuation, super, p)
			if got := probe != nil; got != tc.want {
				t.Fatalf("probe fired = %v, want %v", got, tc.want)
			}
			if probe != nil && probe.PotentialGoal != "boost_superannuation" {
				t.Errorf("goal = %s, want boost_superannuation", probe.PotentialGoal)
			}
		})
	}

	t.Run("unknown age", func(t *testing.T) {
		super := &profile.Superannuation{Balance: fptr(5000)}
		if p := ShouldProbeForGoal(profile.FieldSuperannuation, super, &profile.Profile{}); p != nil {
			t.Errorf("unexpected probe without age: %+v", p)
		}
	})
}

func TestLowSavingsRateProbe(t *testing.T) {
	earner := &profile.Profile{MonthlyIncome: fptr(7000)}

	probe := ShouldProbeForGoal(profile.FieldMonthlyExpenses, 6500.0, earner)
	if probe == nil || probe.PotentialGoal != "reduce_expenses" {
		t.Fatalf("got %+v, want reduce_expenses", probe)
	}

	// Exactly 10% saved: no probe.
	if p := ShouldProbeForGoal(profile.FieldMonthlyExpenses, 6300.0, earner); p != nil {
		t.Errorf("unexpected probe at 10%% savings rate: %+v", p)
	}

	// No income known yet.
	if p := ShouldProbeForGoal(profile.FieldMonthlyExpenses, 6500.0, &profile.Profile{}); p != nil {
		t.Errorf("unexpected probe without income: %+v", p)
	}
}

func TestUnrelatedFieldNoProbe(t *testing.T) {
	p := &profile.Profile{MonthlyExpenses: fptr(4000)}
	if probe := ShouldProbeForGoal(profile.FieldSavings, 500.0, p); probe != nil {
		t.Errorf("unexpected probe for savings field: %+v", probe)
	}
}
