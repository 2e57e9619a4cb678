package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillfin/bursar/internal/oracle"
	"github.com/quillfin/bursar/internal/profile"
)

// probeResponse is the read on whether a message answered the pending
// probe.
type probeResponse struct {
	IsResponse bool   `json:"is_response_to_probe"`
	Confirmed  bool   `json:"confirmed"`
	Reasoning  string `json:"reasoning"`
}

const analyzeSystemPrompt = "You are an intent analyzer. Always respond with valid JSON."

// analyzeProbeResponse decides whether userMessage answers the probe
// question and in which direction. Oracle failures fall back to
// keyword matching.
func (e *Extractor) analyzeProbeResponse(ctx context.Context, userMessage string, probe *profile.PendingProbe) probeResponse {
	prompt := fmt.Sprintf(`You are analyzing a conversation between a financial advisor and a user.

The advisor asked: %q

The user responded: %q

Determine:
1. Is the user's response answering the advisor's question? (or is it unrelated/changing topic)
2. If answering, did they CONFIRM (yes, they want to pursue this goal) or DENY (no, not a priority)?

Examples:

Advisor: "Is clearing that debt something you're working towards?"
User: "Yeah, definitely need to tackle that" -> ANSWERING: YES, CONFIRMED

Advisor: "Is clearing that debt something you're working towards?"
User: "Not really, I can manage the payments" -> ANSWERING: YES, DENIED

Advisor: "Is clearing that debt something you're working towards?"
User: "I also have a car loan" -> ANSWERING: NO (changing topic)

Advisor: "Are you planning to build an emergency fund?"
User: "Maybe later, not right now" -> ANSWERING: YES, DENIED

Respond with JSON:
{
    "is_response_to_probe": true/false,
    "confirmed": true/false,
    "reasoning": "brief explanation"
}`, probe.ProbeQuestion, userMessage)

	raw, err := e.oracle.Complete(ctx, analyzeSystemPrompt, prompt, 0.1)
	if err == nil {
		var resp probeResponse
		if err := oracle.DecodeObject(raw, &resp); err == nil {
			return resp
		}
	}

	e.logger.Warn("probe analysis fell back to keywords", "error", err)
	return keywordProbeResponse(userMessage)
}

var (
	confirmKeywords = []string{
		"yes", "yeah", "yep", "definitely", "for sure", "absolutely",
		"planning to", "working on", "want to", "need to", "should", "trying to",
	}
	denyKeywords = []string{
		"no", "nah", "not really", "don't think so", "not a priority",
		"not planning", "can manage", "not worried", "not concerned", "maybe later",
	}
)

func keywordProbeResponse(userMessage string) probeResponse {
	m := strings.ToLower(strings.TrimSpace(userMessage))

	for _, kw := range confirmKeywords {
		if strings.Contains(m, kw) {
			return probeResponse{IsResponse: true, Confirmed: true, Reasoning: "Fallback: keyword match"}
		}
	}
	for _, kw := range denyKeywords {
		if strings.Contains(m, kw) {
			return probeResponse{IsResponse: true, Confirmed: false, Reasoning: "Fallback: keyword match"}
		}
	}
	return probeResponse{Reasoning: "Fallback: unclear"}
}
