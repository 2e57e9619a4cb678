package risk

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/quillfin/bursar/internal/oracle"
	"github.com/quillfin/bursar/internal/profile"

	_ "modernc.org/sqlite"
)

type stubOracle struct {
	response string
	err      error
	calls    int
}

func (s *stubOracle) Complete(ctx context.Context, system, user string, temp float64) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubOracle) Ping(ctx context.Context) error { return nil }

func sptr(v string) *string { return &v }

func setupSession(t *testing.T, missing []string) (*profile.Store, string) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store, err := profile.NewStoreWithDB(db)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	id, err := store.CreateSession()
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	_, err = store.Mutate(id, func(p *profile.Profile) error {
		p.GoalClassification = sptr("medium_purchase")
		p.ConversationPhase = "assessment"
		p.MissingFields = missing
		return nil
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return store, id
}

func TestAssessGateRefusesWithMissingFields(t *testing.T) {
	store, id := setupSession(t, []string{"age", "debts"})
	oc := &stubOracle{response: `{"risk_appetite": "medium", "agent_reason": "balanced"}`}
	r := NewProfiler(oc, store, nil)

	_, err := r.Assess(context.Background(), id)
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("err = %v, want ErrMissingFields", err)
	}
	if oc.calls != 0 {
		t.Errorf("oracle called %d times behind the gate, want 0", oc.calls)
	}

	p, _ := store.Get(id)
	if p.RiskProfile != nil {
		t.Errorf("refused assessment wrote a risk profile: %+v", p.RiskProfile)
	}
}

func TestAssessPersistsProfileAndPhase(t *testing.T) {
	store, id := setupSession(t, nil)
	oc := &stubOracle{response: `{
		"risk_appetite": "medium",
		"agent_reason": "Stable income with a thin emergency fund.",
		"key_concerns": ["emergency fund below 3 months"],
		"strengths": ["no high-interest debt"]
	}`}
	r := NewProfiler(oc, store, nil)

	got, err := r.Assess(context.Background(), id)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if got.RiskAppetite != "medium" {
		t.Errorf("appetite = %s, want medium", got.RiskAppetite)
	}
	if len(got.KeyConcerns) != 1 || len(got.Strengths) != 1 {
		t.Errorf("advisory lists not decoded: %+v", got)
	}

	p, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.RiskProfile == nil || p.RiskProfile.RiskAppetite != "medium" {
		t.Fatalf("risk profile not persisted: %+v", p.RiskProfile)
	}
	if p.RiskProfile.AgentReason == "" {
		t.Error("agent reason not persisted")
	}
	if p.ConversationPhase != "analysis" {
		t.Errorf("phase = %s, want analysis", p.ConversationPhase)
	}
}

func TestAssessOracleFailureNoMutation(t *testing.T) {
	store, id := setupSession(t, nil)
	oc := &stubOracle{err: errors.New("connection refused")}
	r := NewProfiler(oc, store, nil)

	if _, err := r.Assess(context.Background(), id); err == nil {
		t.Fatal("expected error from oracle failure")
	}

	p, _ := store.Get(id)
	if p.RiskProfile != nil {
		t.Errorf("failed assessment wrote a risk profile: %+v", p.RiskProfile)
	}
	if p.ConversationPhase != "assessment" {
		t.Errorf("phase = %s, want assessment untouched", p.ConversationPhase)
	}
}

func TestAssessUnknownAppetiteRejected(t *testing.T) {
	store, id := setupSession(t, nil)
	oc := &stubOracle{response: `{"risk_appetite": "yolo", "agent_reason": "send it"}`}
	r := NewProfiler(oc, store, nil)

	_, err := r.Assess(context.Background(), id)
	if !errors.Is(err, oracle.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}

	p, _ := store.Get(id)
	if p.RiskProfile != nil {
		t.Errorf("invalid appetite persisted: %+v", p.RiskProfile)
	}
}
