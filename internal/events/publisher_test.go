package events

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/quillfin/bursar/internal/config"
)

func TestTopics(t *testing.T) {
	p := New(config.MQTTConfig{Instance: "bursar"}, slog.Default())

	if got := p.availabilityTopic(); got != "bursar/bursar/availability" {
		t.Errorf("availability topic = %q", got)
	}
	if got := p.eventTopic("abc123", "probe-armed"); got != "bursar/bursar/abc123/probe-armed" {
		t.Errorf("event topic = %q", got)
	}
}

func TestPublishBeforeStartIsNoop(t *testing.T) {
	p := New(config.MQTTConfig{Instance: "bursar"}, slog.Default())
	// Must not panic or block.
	p.Publish("facts-extracted", "abc123", map[string]any{"fields": []string{"age"}})
}

func TestEventPayloadShape(t *testing.T) {
	event := Event{
		Kind:      "risk-computed",
		SessionID: "abc123",
		At:        "2026-01-02T03:04:05Z",
		Data:      map[string]any{"risk_appetite": "medium"},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"kind", "session_id", "at", "data"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("payload missing %q: %s", key, payload)
		}
	}
}
