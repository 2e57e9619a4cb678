package profile

// Update is a partial profile produced by one extraction turn. Merge
// semantics when applied to a stored profile:
//
//   - scalar pointers: non-nil overwrites the stored value
//   - Superannuation: merged key-wise (nil keys leave stored keys alone)
//   - lists (Debts, Investments): non-nil replaces the stored list
//     wholesale
//
// Append-only collections (stated goals, discovered goals, concerns)
// are deliberately absent here; they go through the store's dedicated
// append methods so an extraction batch can never clobber them.
type Update struct {
	Age                    *int
	MonthlyIncome          *float64
	MonthlyExpenses        *float64
	Savings                *float64
	EmergencyFund          *float64
	MaritalStatus          *string
	Dependents             *int
	JobStability           *string
	LifeInsurance          *bool
	PrivateHealthInsurance *string
	HECSDebt               *float64
	Timeline               *string
	TargetAmount           *float64

	Debts          []Debt
	Investments    []Investment
	Superannuation *Superannuation

	// EmergencyFundExplicitNil is set when the extraction mentioned the
	// emergency fund but could not put a number on it ("I don't have
	// one" without an amount). The stored value stays nil but the field
	// still participates in probe checks for this batch.
	EmergencyFundExplicitNil bool
}

// Fields returns the names of the fields this update carries, in
// canonical order. Probe evaluation walks the extraction's own key
// order instead; this is for logging and field-state bookkeeping.
func (u *Update) Fields() []string {
	var out []string
	add := func(name string, set bool) {
		if set {
			out = append(out, name)
		}
	}
	add(FieldAge, u.Age != nil)
	add(FieldMonthlyIncome, u.MonthlyIncome != nil)
	add(FieldMonthlyExpenses, u.MonthlyExpenses != nil)
	add(FieldSavings, u.Savings != nil)
	add(FieldEmergencyFund, u.EmergencyFund != nil || u.EmergencyFundExplicitNil)
	add(FieldMaritalStatus, u.MaritalStatus != nil)
	add(FieldDependents, u.Dependents != nil)
	add(FieldJobStability, u.JobStability != nil)
	add(FieldLifeInsurance, u.LifeInsurance != nil)
	add(FieldPrivateHealthInsurance, u.PrivateHealthInsurance != nil)
	add(FieldHECSDebt, u.HECSDebt != nil)
	add(FieldTimeline, u.Timeline != nil)
	add(FieldTargetAmount, u.TargetAmount != nil)
	add(FieldDebts, u.Debts != nil)
	add(FieldInvestments, u.Investments != nil)
	add(FieldSuperannuation, u.Superannuation != nil)
	return out
}

// IsEmpty reports whether the update carries no fields at all.
func (u *Update) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// Value returns the update's value for a named field, for probe
// evaluation. ok is false when the update does not carry the field.
// The returned value can be nil for explicitly-nil mentions.
func (u *Update) Value(field string) (any, bool) {
	switch field {
	case FieldAge:
		if u.Age != nil {
			return *u.Age, true
		}
	case FieldMonthlyIncome:
		if u.MonthlyIncome != nil {
			return *u.MonthlyIncome, true
		}
	case FieldMonthlyExpenses:
		if u.MonthlyExpenses != nil {
			return *u.MonthlyExpenses, true
		}
	case FieldSavings:
		if u.Savings != nil {
			return *u.Savings, true
		}
	case FieldEmergencyFund:
		if u.EmergencyFund != nil {
			return *u.EmergencyFund, true
		}
		if u.EmergencyFundExplicitNil {
			return nil, true
		}
	case FieldMaritalStatus:
		if u.MaritalStatus != nil {
			return *u.MaritalStatus, true
		}
	case FieldDependents:
		if u.Dependents != nil {
			return *u.Dependents, true
		}
	case FieldJobStability:
		if u.JobStability != nil {
			return *u.JobStability, true
		}
	case FieldLifeInsurance:
		if u.LifeInsurance != nil {
			return *u.LifeInsurance, true
		}
	case FieldPrivateHealthInsurance:
		if u.PrivateHealthInsurance != nil {
			return *u.PrivateHealthInsurance, true
		}
	case FieldHECSDebt:
		if u.HECSDebt != nil {
			return *u.HECSDebt, true
		}
	case FieldTimeline:
		if u.Timeline != nil {
			return *u.Timeline, true
		}
	case FieldTargetAmount:
		if u.TargetAmount != nil {
			return *u.TargetAmount, true
		}
	case FieldDebts:
		if u.Debts != nil {
			return u.Debts, true
		}
	case FieldInvestments:
		if u.Investments != nil {
			return u.Investments, true
		}
	case FieldSuperannuation:
		if u.Superannuation != nil {
			return u.Superannuation, true
		}
	}
	return nil, false
}

// Merge applies the update to p in place.
func Merge(p *Profile, u *Update) {
	if u.Age != nil {
		p.Age = u.Age
	}
	if u.MonthlyIncome != nil {
		p.MonthlyIncome = u.MonthlyIncome
	}
	if u.MonthlyExpenses != nil {
		p.MonthlyExpenses = u.MonthlyExpenses
	}
	if u.Savings != nil {
		p.Savings = u.Savings
	}
	if u.EmergencyFund != nil {
		p.EmergencyFund = u.EmergencyFund
	}
	if u.MaritalStatus != nil {
		p.MaritalStatus = u.MaritalStatus
	}
	if u.Dependents != nil {
		p.Dependents = u.Dependents
	}
	if u.JobStability != nil {
		p.JobStability = u.JobStability
	}
	if u.LifeInsurance != nil {
		p.LifeInsurance = u.LifeInsurance
	}
	if u.PrivateHealthInsurance != nil {
		p.PrivateHealthInsurance = u.PrivateHealthInsurance
	}
	if u.HECSDebt != nil {
		p.HECSDebt = u.HECSDebt
	}
	if u.Timeline != nil {
		p.Timeline = u.Timeline
	}
	if u.TargetAmount != nil {
		p.TargetAmount = u.TargetAmount
	}
	if u.Debts != nil {
		p.Debts = u.Debts
	}
	if u.Investments != nil {
		p.Investments = u.Investments
	}
	if u.Superannuation != nil {
		if p.Superannuation == nil {
			p.Superannuation = &Superannuation{}
		}
		if u.Superannuation.Balance != nil {
			p.Superannuation.Balance = u.Superannuation.Balance
		}
		if u.Superannuation.EmployerContribution != nil {
			p.Superannuation.EmployerContribution = u.Superannuation.EmployerContribution
		}
		if u.Superannuation.VoluntaryContribution != nil {
			p.Superannuation.VoluntaryContribution = u.Superannuation.VoluntaryContribution
		}
	}
}
