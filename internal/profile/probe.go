package profile

import "github.com/google/uuid"

// ArmProbe installs a pending probe. It reports false without writing
// when a probe is already pending: an unresolved probe from an earlier
// turn always wins over a new trigger.
func (p *Profile) ArmProbe(probe *PendingProbe) bool {
	if p.PendingProbe != nil {
		return false
	}
	p.PendingProbe = probe
	return true
}

// ClearProbe drops the pending probe without recording an outcome.
func (p *Profile) ClearProbe() {
	p.PendingProbe = nil
}

// ConfirmProbe resolves the pending probe as confirmed: the potential
// goal becomes a discovered goal and the probe slot is freed. Returns
// the new goal, or nil when no probe was pending.
func (p *Profile) ConfirmProbe() *DiscoveredGoal {
	if p.PendingProbe == nil {
		return nil
	}
	probe := p.PendingProbe
	p.PendingProbe = nil

	id, _ := uuid.NewV7()
	goal := DiscoveredGoal{
		ID:       id.String(),
		Goal:     probe.PotentialGoal,
		Status:   "confirmed",
		Priority: probe.Priority,
		Details:  probe.ConcernDetails,
	}
	p.DiscoveredGoals = append(p.DiscoveredGoals, goal)
	return &p.DiscoveredGoals[len(p.DiscoveredGoals)-1]
}

// DenyProbe resolves the pending probe as denied. When the probe was
// marked track-if-denied the underlying risk is recorded as a critical
// concern with the user's verbatim response; otherwise the denial is
// simply dropped. Returns the concern, or nil when none was recorded.
func (p *Profile) DenyProbe(userResponse string) *CriticalConcern {
	if p.PendingProbe == nil {
		return nil
	}
	probe := p.PendingProbe
	p.PendingProbe = nil

	if !probe.TrackIfDenied {
		return nil
	}

	id, _ := uuid.NewV7()
	concern := CriticalConcern{
		ID:           id.String(),
		Concern:      probe.PotentialGoal,
		Details:      probe.ConcernDetails,
		UserResponse: userResponse,
		Priority:     probe.Priority,
		AgentNote:    probe.DenialNote,
	}
	p.CriticalConcerns = append(p.CriticalConcerns, concern)
	return &p.CriticalConcerns[len(p.CriticalConcerns)-1]
}
