package advisor

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/quillfin/bursar/internal/conversation"
	"github.com/quillfin/bursar/internal/extract"
	"github.com/quillfin/bursar/internal/goals"
	"github.com/quillfin/bursar/internal/intent"
	"github.com/quillfin/bursar/internal/profile"
	"github.com/quillfin/bursar/internal/risk"
	"github.com/quillfin/bursar/internal/scope"

	_ "modernc.org/sqlite"
)

type queueOracle struct {
	responses []string
	err       error
	calls     int
}

func (q *queueOracle) Complete(ctx context.Context, system, user string, temp float64) (string, error) {
	q.calls++
	if q.err != nil {
		return "", q.err
	}
	if len(q.responses) == 0 {
		return "{}", nil
	}
	resp := q.responses[0]
	q.responses = q.responses[1:]
	return resp, nil
}

func (q *queueOracle) Ping(ctx context.Context) error { return nil }

type recordingSink struct {
	events []string
}

func (r *recordingSink) Publish(kind, sessionID string, data map[string]any) {
	r.events = append(r.events, kind)
}

func (r *recordingSink) has(kind string) bool {
	for _, e := range r.events {
		if e == kind {
			return true
		}
	}
	return false
}

type harness struct {
	engine  *Engine
	store   *profile.Store
	history *conversation.Store
	oracle  *queueOracle
	sink    *recordingSink
	session string
}

func setupEngine(t *testing.T, responses ...string) *harness {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store, err := profile.NewStoreWithDB(db)
	if err != nil {
		t.Fatalf("profile store: %v", err)
	}
	history, err := conversation.NewStoreWithDB(db)
	if err != nil {
		t.Fatalf("conversation store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	id, err := store.CreateSession()
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	oc := &queueOracle{responses: responses}
	sink := &recordingSink{}
	engine := NewEngine(store, history,
		intent.NewClassifier(oc, nil),
		extract.NewExtractor(oc, store, nil),
		goals.NewClassifier(oc, store, nil),
		scope.NewTracker(store, nil),
		risk.NewProfiler(oc, store, nil),
		Options{Events: sink, OracleEnabled: false})

	return &harness{engine: engine, store: store, history: history, oracle: oc, sink: sink, session: id}
}

func TestProcessTurnEmptyMessage(t *testing.T) {
	h := setupEngine(t)
	if _, err := h.engine.ProcessTurn(context.Background(), h.session, "   "); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestProcessTurnUnknownSession(t *testing.T) {
	h := setupEngine(t)
	_, err := h.engine.ProcessTurn(context.Background(), "nope", "hello")
	if !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestProcessTurnGreeting(t *testing.T) {
	h := setupEngine(t)

	tr, err := h.engine.ProcessTurn(context.Background(), h.session, "hi there")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if tr.MessageType != intent.Greeting {
		t.Errorf("type = %s, want greeting", tr.MessageType)
	}
	if !strings.Contains(tr.Reply, "goal") {
		t.Errorf("greeting should ask for a goal: %q", tr.Reply)
	}
	if h.oracle.calls != 0 {
		t.Errorf("greeting turn called the oracle %d times", h.oracle.calls)
	}

	turns, _ := h.history.Recent(h.session, 10)
	if len(turns) != 2 {
		t.Errorf("history has %d turns, want user+assistant", len(turns))
	}
}

func TestProcessTurnExtraction(t *testing.T) {
	h := setupEngine(t, `{"age": 35, "monthly_income": 7000}`)

	tr, err := h.engine.ProcessTurn(context.Background(), h.session, "I earn 7000 a month")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if len(tr.ExtractedFields) != 2 {
		t.Errorf("extracted = %v, want age + monthly_income", tr.ExtractedFields)
	}

	p, _ := h.store.Get(h.session)
	if p.MonthlyIncome == nil || *p.MonthlyIncome != 7000 {
		t.Errorf("income not merged: %v", p.MonthlyIncome)
	}
	if !h.sink.has("facts-extracted") {
		t.Errorf("events = %v, want facts-extracted", h.sink.events)
	}
	// No goal yet, so the reply steers to one.
	if !strings.Contains(tr.Reply, "goal") {
		t.Errorf("reply should ask for a goal: %q", tr.Reply)
	}
}

func TestProcessTurnArmsProbe(t *testing.T) {
	h := setupEngine(t, `{"debts": [{"type": "credit_card", "amount": 12000, "interest_rate": 20}]}`)

	tr, err := h.engine.ProcessTurn(context.Background(), h.session, "I owe 12000 on my credit card at 20 percent")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if tr.ProbeQuestion == "" {
		t.Fatal("probe question not surfaced")
	}
	if tr.Reply != tr.ProbeQuestion {
		t.Errorf("reply = %q, want the probe question", tr.Reply)
	}
	if !h.sink.has("probe-armed") {
		t.Errorf("events = %v, want probe-armed", h.sink.events)
	}
}

func TestProcessTurnResolvesProbe(t *testing.T) {
	h := setupEngine(t,
		`{"is_response_to_probe": true, "confirmed": true, "reasoning": "clear yes"}`)
	h.store.Mutate(h.session, func(p *profile.Profile) error {
		p.PendingProbe = &profile.PendingProbe{
			PotentialGoal: "clear_high_interest_debt",
			ProbeQuestion: "Is clearing that debt something you're working towards?",
			Priority:      profile.PriorityCritical,
		}
		return nil
	})

	tr, err := h.engine.ProcessTurn(context.Background(), h.session, "yeah, definitely want to clear it as soon as possible")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if tr.ConfirmedGoal == nil {
		t.Fatal("probe confirmation not surfaced")
	}
	if !h.sink.has("probe-resolved") {
		t.Errorf("events = %v, want probe-resolved", h.sink.events)
	}

	p, _ := h.store.Get(h.session)
	if p.PendingProbe != nil {
		t.Error("probe still pending after resolution")
	}
}

func TestProcessTurnSkipMarksField(t *testing.T) {
	h := setupEngine(t)
	h.history.Append(h.session, "assistant", "What's your monthly income after tax?")

	tr, err := h.engine.ProcessTurn(context.Background(), h.session, "I don't know")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if tr.MessageType != intent.Skip {
		t.Errorf("type = %s, want skip", tr.MessageType)
	}

	p, _ := h.store.Get(h.session)
	if rec, ok := p.FieldStates["monthly_income"]; !ok || rec.State != profile.StateSkipped {
		t.Errorf("field state = %+v, want monthly_income skipped", p.FieldStates)
	}
}

func TestProcessTurnAmbiguityAsksClarification(t *testing.T) {
	h := setupEngine(t)

	tr, err := h.engine.ProcessTurn(context.Background(), h.session, "somewhere between 5000 and 8000 I suppose")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if tr.Clarification == "" {
		t.Fatal("range answer should trigger a clarification")
	}
	if h.oracle.calls != 0 {
		t.Errorf("ambiguous turn should not reach the oracle, got %d calls", h.oracle.calls)
	}
}

func TestProcessTurnDegradedOnOracleFailure(t *testing.T) {
	h := setupEngine(t)
	h.oracle.err = errors.New("connection refused")

	tr, err := h.engine.ProcessTurn(context.Background(), h.session, "I earn 7000 a month")
	if err != nil {
		t.Fatalf("degraded turn must not error: %v", err)
	}
	if !tr.Degraded {
		t.Error("turn not marked degraded")
	}
	if tr.Reply == "" {
		t.Error("degraded turn still needs a reply")
	}
}

func TestProcessTurnSavingsEmergencyLink(t *testing.T) {
	h := setupEngine(t, `{}`)
	h.store.Mutate(h.session, func(p *profile.Profile) error {
		v := 15000.0
		p.Savings = &v
		return nil
	})

	_, err := h.engine.ProcessTurn(context.Background(), h.session, "my savings is my emergency fund, same thing really")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	p, _ := h.store.Get(h.session)
	if !p.SavingsEmergencyLinked {
		t.Error("linkage not flagged")
	}
	if p.EmergencyFund == nil || *p.EmergencyFund != 15000 {
		t.Errorf("emergency fund = %v, want mirrored 15000", p.EmergencyFund)
	}
}

func TestProcessTurnCorrectionRecorded(t *testing.T) {
	h := setupEngine(t, `{"savings": 5000}`)
	h.history.Append(h.session, "assistant", "How much do you have in savings?")
	h.history.Append(h.session, "user", "about 2000")
	h.history.Append(h.session, "assistant", "Got it. Any debts?")

	tr, err := h.engine.ProcessTurn(context.Background(), h.session, "sorry, I meant 5000")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if tr.MessageType != intent.Correction {
		t.Fatalf("type = %s, want correction", tr.MessageType)
	}
	if !tr.NeedsConfirmation {
		t.Error("corrections must be read back")
	}

	p, _ := h.store.Get(h.session)
	if p.LastCorrection == nil || p.LastCorrection.NewValue != "5000" {
		t.Errorf("correction not recorded: %+v", p.LastCorrection)
	}
	if p.Savings == nil || *p.Savings != 5000 {
		t.Errorf("corrected value not merged: %v", p.Savings)
	}
}

func TestClassifyGoalRecomputesScope(t *testing.T) {
	h := setupEngine(t, `{"classification": "medium_purchase", "reasoning": "a car"}`)

	out, err := h.engine.ClassifyGoal(context.Background(), h.session, "I want to buy a car")
	if err != nil {
		t.Fatalf("ClassifyGoal: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("goal rejected: %+v", out)
	}

	p, _ := h.store.Get(h.session)
	if len(p.RequiredFields) == 0 {
		t.Error("scope not recomputed after classification")
	}
	if len(p.StatedGoals) != 1 {
		t.Errorf("stated goals = %v, want the goal text", p.StatedGoals)
	}
	if !h.sink.has("goal-classified") {
		t.Errorf("events = %v, want goal-classified", h.sink.events)
	}
}

func TestClassifyGoalRejectedNoScope(t *testing.T) {
	h := setupEngine(t, `{"classification": "not_a_goal", "reasoning": "vague"}`)

	out, err := h.engine.ClassifyGoal(context.Background(), h.session, "I want to be happy")
	if err != nil {
		t.Fatalf("ClassifyGoal: %v", err)
	}
	if out.Accepted {
		t.Fatal("vague goal accepted")
	}

	p, _ := h.store.Get(h.session)
	if len(p.RequiredFields) != 0 || len(p.StatedGoals) != 0 {
		t.Errorf("rejected goal mutated state: required=%v stated=%v", p.RequiredFields, p.StatedGoals)
	}
}

func TestComputeRiskGate(t *testing.T) {
	h := setupEngine(t)
	h.store.Mutate(h.session, func(p *profile.Profile) error {
		c := "medium_purchase"
		p.GoalClassification = &c
		p.MissingFields = []string{"age"}
		return nil
	})

	_, err := h.engine.ComputeRisk(context.Background(), h.session)
	if !errors.Is(err, risk.ErrMissingFields) {
		t.Fatalf("err = %v, want ErrMissingFields", err)
	}
}

func TestComputeRiskPublishesEvent(t *testing.T) {
	h := setupEngine(t, `{"risk_appetite": "medium", "agent_reason": "balanced picture"}`)
	h.store.Mutate(h.session, func(p *profile.Profile) error {
		c := "medium_purchase"
		p.GoalClassification = &c
		return nil
	})

	got, err := h.engine.ComputeRisk(context.Background(), h.session)
	if err != nil {
		t.Fatalf("ComputeRisk: %v", err)
	}
	if got.RiskAppetite != "medium" {
		t.Errorf("appetite = %s", got.RiskAppetite)
	}
	if !h.sink.has("risk-computed") {
		t.Errorf("events = %v, want risk-computed", h.sink.events)
	}
}

func TestGaps(t *testing.T) {
	h := setupEngine(t)
	h.store.Mutate(h.session, func(p *profile.Profile) error {
		income := 10000.0
		deps := 2
		p.MonthlyIncome = &income
		p.Dependents = &deps
		return nil
	})

	gaps, err := h.engine.Gaps(h.session)
	if err != nil {
		t.Fatalf("Gaps: %v", err)
	}
	if len(gaps) == 0 {
		t.Fatal("expected at least a life insurance gap")
	}
}

func TestFieldFromQuestion(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"What's your monthly income after tax?", "monthly_income"},
		{"Roughly what are your monthly expenses?", "monthly_expenses"},
		{"Do you have an emergency fund set aside? Roughly how much?", "emergency_fund"},
		{"Do you have life insurance?", "life_insurance"},
		{"Do you have private health insurance?", "private_health_insurance"},
		{"How's your super looking - do you know your balance?", "superannuation"},
		{"Nice weather today", ""},
	}
	for _, tc := range tests {
		if got := fieldFromQuestion(tc.question); got != tc.want {
			t.Errorf("fieldFromQuestion(%q) = %q, want %q", tc.question, got, tc.want)
		}
	}
}
