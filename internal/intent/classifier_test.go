package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/quillfin/bursar/internal/conversation"
)

// stubOracle returns a canned completion, or an error.
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

func TestClassifyPatternConfidence(t *testing.T) {
	c := NewClassifier(nil, nil)

	got := c.Classify(context.Background(), "yes", "", nil, false)
	if got.MessageType != Confirmation {
		t.Errorf("type = %s, want confirmation", got.MessageType)
	}
	if got.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", got.Confidence)
	}
}

func TestClassifyCorrectionExtractsValues(t *testing.T) {
	c := NewClassifier(nil, nil)

	got := c.Classify(context.Background(), "I meant 5000, not 2000", "", nil, false)
	if got.MessageType != Correction {
		t.Fatalf("type = %s, want correction", got.MessageType)
	}
	// "not X ... I meant Y" carries both values in the message itself.
	if got.OriginalValue != "2000" {
		t.Errorf("original = %q, want 2000", got.OriginalValue)
	}
	if got.NewValue != "5000" {
		t.Errorf("new = %q, want 5000", got.NewValue)
	}
}

func TestClassifyCorrectionHistoryLookback(t *testing.T) {
	c := NewClassifier(nil, nil)
	history := []conversation.Turn{
		{Role: "assistant", Content: "How much do you have saved?"},
		{Role: "user", Content: "about 2000"},
		{Role: "assistant", Content: "Got it. Any debts?"},
	}

	got := c.Classify(context.Background(), "sorry, I meant 5000", "", history, false)
	if got.MessageType != Correction {
		t.Fatalf("type = %s, want correction", got.MessageType)
	}
	if got.NewValue != "5000" {
		t.Errorf("new = %q, want 5000", got.NewValue)
	}
	if got.OriginalValue != "2000" {
		t.Errorf("original = %q, want 2000 (from history)", got.OriginalValue)
	}
}

func TestClassifyCompoundSkipsOracle(t *testing.T) {
	oc := &stubOracle{response: `{"message_type": "question", "confidence": 0.9}`}
	c := NewClassifier(oc, nil)

	got := c.Classify(context.Background(), "I earn 7000 and spend about 4000", "", nil, true)
	if got.MessageType != Compound {
		t.Errorf("type = %s, want compound", got.MessageType)
	}
	if got.Confidence != 0.7 {
		t.Errorf("confidence = %v, want 0.7", got.Confidence)
	}
	if oc.calls != 0 {
		t.Errorf("oracle called %d times for a compound message, want 0", oc.calls)
	}
}

func TestClassifyOraclePath(t *testing.T) {
	oc := &stubOracle{response: `{"message_type": "clarification", "confidence": 0.8, "reasoning": "adds detail"}`}
	c := NewClassifier(oc, nil)

	got := c.Classify(context.Background(), "that includes my annual bonus as well", "What's your income?", nil, true)
	if got.MessageType != Clarification {
		t.Errorf("type = %s, want clarification", got.MessageType)
	}
	if oc.calls != 1 {
		t.Errorf("oracle calls = %d, want 1", oc.calls)
	}
}

func TestClassifyOracleUnknownCategory(t *testing.T) {
	oc := &stubOracle{response: `{"message_type": "gibberish_type", "confidence": 0.9}`}
	c := NewClassifier(oc, nil)

	got := c.Classify(context.Background(), "that includes my annual bonus as well", "", nil, true)
	if got.MessageType != NewInformation {
		t.Errorf("unknown oracle category should degrade to new_information, got %s", got.MessageType)
	}
}

func TestClassifyOracleFailureFallsBack(t *testing.T) {
	oc := &stubOracle{err: errors.New("connection refused")}
	c := NewClassifier(oc, nil)

	got := c.Classify(context.Background(), "that would be my partner's account mostly", "", nil, true)
	if got.MessageType != NewInformation {
		t.Errorf("type = %s, want new_information fallback", got.MessageType)
	}
	if got.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5 (no digits)", got.Confidence)
	}
}

func TestClassifyShortMessageSkipsOracle(t *testing.T) {
	oc := &stubOracle{response: `{"message_type": "question"}`}
	c := NewClassifier(oc, nil)

	got := c.Classify(context.Background(), "around 7000", "", nil, true)
	if oc.calls != 0 {
		t.Errorf("oracle called for a 2-token message")
	}
	if got.MessageType != NewInformation || got.Confidence != 0.7 {
		t.Errorf("got %s/%v, want new_information/0.7 (digit present)", got.MessageType, got.Confidence)
	}
}

func TestClassifyOracleDisabled(t *testing.T) {
	oc := &stubOracle{response: `{"message_type": "question"}`}
	c := NewClassifier(oc, nil)

	c.Classify(context.Background(), "my finances are honestly a bit of a mess", "", nil, false)
	if oc.calls != 0 {
		t.Errorf("oracle called with useOracle=false")
	}
}
