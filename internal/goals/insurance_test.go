package goals

import (
	"strings"
	"testing"

	"github.com/quillfin/bursar/internal/profile"
)

func gapOfType(gaps []InsuranceGap, typ string) *InsuranceGap {
	for i := range gaps {
		if gaps[i].Type == typ {
			return &gaps[i]
		}
	}
	return nil
}

func TestLifeInsuranceGapWithDependents(t *testing.T) {
	p := &profile.Profile{
		MonthlyIncome: fptr(10000),
		Dependents:    iptr(2),
	}

	gap := gapOfType(CheckInsuranceGaps(p), "life_insurance")
	if gap == nil {
		t.Fatal("expected life insurance gap")
	}
	if gap.Priority != profile.PriorityCritical {
		t.Errorf("priority = %s, want critical", gap.Priority)
	}
	if gap.RecommendedCoverage != 1200000 {
		t.Errorf("coverage = %v, want 1200000 (10x annual)", gap.RecommendedCoverage)
	}
}

func TestLifeInsuranceGapMortgageOnly(t *testing.T) {
	p := &profile.Profile{
		MonthlyIncome: fptr(4000),
		Debts:         []profile.Debt{{Type: "home_loan", Amount: 350000, InterestRate: 6}},
	}

	gap := gapOfType(CheckInsuranceGaps(p), "life_insurance")
	if gap == nil {
		t.Fatal("expected life insurance gap")
	}
	if gap.Priority != profile.PriorityHigh {
		t.Errorf("priority = %s, want high", gap.Priority)
	}
	if gap.RecommendedCoverage != 350000 {
		t.Errorf("coverage = %v, want mortgage balance", gap.RecommendedCoverage)
	}
}

func TestLifeInsuranceGapPartnerIncome(t *testing.T) {
	p := &profile.Profile{
		MonthlyIncome: fptr(6000), // $72k/year
		MaritalStatus: sptr("de facto"),
	}

	gap := gapOfType(CheckInsuranceGaps(p), "life_insurance")
	if gap == nil {
		t.Fatal("expected life insurance gap")
	}
	if gap.RecommendedCoverage != 360000 {
		t.Errorf("coverage = %v, want 360000 (5x annual)", gap.RecommendedCoverage)
	}
}

func TestLifeInsuranceNoGapWhenCovered(t *testing.T) {
	p := &profile.Profile{
		MonthlyIncome: fptr(10000),
		Dependents:    iptr(2),
		LifeInsurance: bptr(true),
	}
	if gap := gapOfType(CheckInsuranceGaps(p), "life_insurance"); gap != nil {
		t.Errorf("unexpected gap: %+v", gap)
	}
}

func TestIncomeProtectionGap(t *testing.T) {
	p := &profile.Profile{MonthlyIncome: fptr(8000)} // $96k/year

	gap := gapOfType(CheckInsuranceGaps(p), "income_protection")
	if gap == nil {
		t.Fatal("expected income protection gap above $80k")
	}
	if gap.RecommendedCoverage != 6000 {
		t.Errorf("coverage = %v, want 6000 (75%% of monthly)", gap.RecommendedCoverage)
	}

	modest := &profile.Profile{MonthlyIncome: fptr(6000)}
	if gap := gapOfType(CheckInsuranceGaps(modest), "income_protection"); gap != nil {
		t.Errorf("unexpected gap at $72k: %+v", gap)
	}
}

func TestHealthInsuranceGapSurcharge(t *testing.T) {
	tests := []struct {
		name    string
		monthly float64
		cost    string
	}{
		{"first tier", 8000, "$960"},    // 96k * 1%
		{"second tier", 10000, "$1500"}, // 120k * 1.25%
		{"top tier", 13000, "$2340"},    // 156k * 1.5%
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &profile.Profile{MonthlyIncome: fptr(tc.monthly)}
			gap := gapOfType(CheckInsuranceGaps(p), "private_health_insurance")
			if gap == nil {
				t.Fatal("expected PHI gap")
			}
			if !strings.Contains(gap.Reason, tc.cost) {
				t.Errorf("reason should cite surcharge %s: %q", tc.cost, gap.Reason)
			}
		})
	}
}

func TestHealthInsuranceGapLoading(t *testing.T) {
	p := &profile.Profile{Age: iptr(35)}

	gap := gapOfType(CheckInsuranceGaps(p), "private_health_insurance")
	if gap == nil {
		t.Fatal("expected PHI gap for 35yo")
	}
	if !strings.Contains(gap.Reason, "+10%") {
		t.Errorf("reason should cite loading: %q", gap.Reason)
	}

	young := &profile.Profile{Age: iptr(28)}
	if gap := gapOfType(CheckInsuranceGaps(young), "private_health_insurance"); gap != nil {
		t.Errorf("unexpected gap for 28yo on modest income: %+v", gap)
	}

	old := &profile.Profile{Age: iptr(70)}
	gap = gapOfType(CheckInsuranceGaps(old), "private_health_insurance")
	if gap == nil || !strings.Contains(gap.Reason, "+70%") {
		t.Errorf("loading should cap at 70%%: %+v", gap)
	}
}

func TestHealthInsuranceNoGapWhenCovered(t *testing.T) {
	p := &profile.Profile{
		MonthlyIncome:          fptr(10000),
		PrivateHealthInsurance: sptr("medibank"),
	}
	if gap := gapOfType(CheckInsuranceGaps(p), "private_health_insurance"); gap != nil {
		t.Errorf("unexpected gap: %+v", gap)
	}
}
