package intent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/quillfin/bursar/internal/conversation"
	"github.com/quillfin/bursar/internal/oracle"
)

// Result is a full classification of one user message.
type Result struct {
	MessageType MessageType `json:"message_type"`
	Confidence  float64     `json:"confidence"`
	Reasoning   string      `json:"reasoning,omitempty"`

	// Correction detail, set when MessageType is Correction.
	CorrectionTarget string `json:"correction_target,omitempty"`
	OriginalValue    string `json:"original_value,omitempty"`
	NewValue         string `json:"new_value,omitempty"`
}

// Classifier layers the oracle on top of the pattern cascade.
type Classifier struct {
	oracle oracle.Client
	logger *slog.Logger
}

// NewClassifier creates an intent classifier. The oracle may be nil
// when running pattern-only.
func NewClassifier(oc oracle.Client, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		oracle: oc,
		logger: logger.With("component", "intent"),
	}
}

// Classify determines the intent of a user message.
//
// Order of resolution:
//  1. pattern cascade → confidence 0.85 (corrections also get target
//     and value extraction with history lookback)
//  2. compound heuristics → confidence 0.7, no oracle call
//  3. oracle, when enabled and the message has more than 3 tokens
//  4. default: new_information at 0.7 with a digit present, 0.5 without
//
// Oracle failures never propagate; they degrade to the default.
func (c *Classifier) Classify(ctx context.Context, message, lastQuestion string, history []conversation.Turn, useOracle bool) Result {
	if mt, ok := Quick(message); ok {
		result := Result{
			MessageType: mt,
			Confidence:  0.85,
			Reasoning:   fmt.Sprintf("Pattern match: %s", mt),
		}
		if mt == Correction {
			target, orig, newVal := extractCorrectionDetails(message, history)
			result.CorrectionTarget = target
			result.OriginalValue = orig
			result.NewValue = newVal
		}
		return result
	}

	if looksCompound(message) {
		return Result{
			MessageType: Compound,
			Confidence:  0.7,
			Reasoning:   "Message contains multiple data points",
		}
	}

	if useOracle && c.oracle != nil && len(strings.Fields(message)) > 3 {
		if result, err := c.oracleClassify(ctx, message, lastQuestion, history); err == nil {
			return result
		} else {
			c.logger.Warn("oracle classification failed, using default", "error", err)
		}
	}

	if strings.ContainsAny(message, "0123456789") {
		return Result{
			MessageType: NewInformation,
			Confidence:  0.7,
			Reasoning:   "Contains numeric data, likely an answer",
		}
	}
	return Result{
		MessageType: NewInformation,
		Confidence:  0.5,
		Reasoning:   "Default classification",
	}
}

// Correction value extraction, three sub-patterns tried in order.
var (
	// "not 2000, I said 5000" / "not 2000, it's 5000"
	notSaidPattern = regexp.MustCompile(`not\s+(\$?\d+k?)\s*,?\s*(?:i\s+said|it'?s?|i\s+meant?)\s+(\$?\d+k?)`)

	// "I meant 5000, not 2000"
	meantNotPattern = regexp.MustCompile(`i\s+meant?\s+(\$?\d+k?)\s*,?\s*not\s+(\$?\d+k?)`)

	// "I meant 5000"
	meantPattern = regexp.MustCompile(`i\s+meant?\s+(\$?\d+k?)`)

	// "actually it's 5000"
	actuallyPattern = regexp.MustCompile(`actually\s+(?:it'?s?\s+)?(\$?\d+k?)`)

	valuePattern = regexp.MustCompile(`\$?\d+k?`)
)

// extractCorrectionDetails pulls the original and corrected values out
// of a correction message. When only the new value is present, the
// original is recovered from the user's last numeric utterance within
// the previous five turns.
func extractCorrectionDetails(message string, history []conversation.Turn) (target, original, newValue string) {
	m := strings.ToLower(message)

	if match := notSaidPattern.FindStringSubmatch(m); match != nil {
		return "", match[1], match[2]
	}

	if match := meantNotPattern.FindStringSubmatch(m); match != nil {
		return "", match[2], match[1]
	}

	if match := meantPattern.FindStringSubmatch(m); match != nil {
		newValue = match[1]
		// Look back for what is being corrected.
		start := len(history) - 5
		if start < 0 {
			start = 0
		}
		recent := history[start:]
		for i := len(recent) - 1; i >= 0; i-- {
			if recent[i].Role != "user" {
				continue
			}
			if nums := valuePattern.FindAllString(strings.ToLower(recent[i].Content), -1); len(nums) > 0 {
				original = nums[len(nums)-1]
				break
			}
		}
		return "", original, newValue
	}

	if match := actuallyPattern.FindStringSubmatch(m); match != nil {
		return "", "", match[1]
	}

	return "", "", ""
}

const classifySystemPrompt = "You classify user messages in financial conversations. Return only valid JSON."

func (c *Classifier) oracleClassify(ctx context.Context, message, lastQuestion string, history []conversation.Turn) (Result, error) {
	start := len(history) - conversation.PromptWindow
	if start < 0 {
		start = 0
	}

	prompt := fmt.Sprintf(`Classify this user message in a financial advisory conversation.

CONVERSATION CONTEXT:
%s

LAST AGENT QUESTION: %q

CURRENT USER MESSAGE: %q

Classify the message as ONE of:
- new_information: User is providing fresh answer to current/recent question
- correction: User is CORRECTING a previous answer they gave (look for "I meant", "actually", "not X, I said Y")
- clarification: User is adding MORE DETAIL to a previous answer (not changing it)
- question: User is asking the agent something
- confirmation: User is agreeing/confirming (yes, yeah, correct, that's right)
- denial: User is disagreeing/denying (no, nope, not really)
- skip: User doesn't know or wants to skip (I don't know, not sure, skip)
- hypothetical: User is exploring a what-if scenario (what if, suppose, imagine)
- off_topic: Message is unrelated to financial discussion

IMPORTANT:
- If user says "I meant X" or "no I said X" - this is a CORRECTION
- If user provides a number in context of last question - this is new_information
- If user says "actually" followed by different info - likely a CORRECTION

Return JSON:
{"message_type": "type_here", "confidence": 0.0-1.0, "reasoning": "brief explanation", "correction_target": "field if correction", "new_value": "value if correction"}`,
		conversation.FormatForPrompt(history[start:]), lastQuestion, message)

	raw, err := c.oracle.Complete(ctx, classifySystemPrompt, prompt, 0.1)
	if err != nil {
		return Result{}, fmt.Errorf("oracle: %w", err)
	}

	var decoded struct {
		MessageType      string  `json:"message_type"`
		Confidence       float64 `json:"confidence"`
		Reasoning        string  `json:"reasoning"`
		CorrectionTarget string  `json:"correction_target"`
		NewValue         string  `json:"new_value"`
	}
	if err := oracle.DecodeObject(raw, &decoded); err != nil {
		return Result{}, err
	}

	// Unknown categories degrade to new_information rather than
	// poisoning downstream switches.
	mt := MessageType(decoded.MessageType)
	if !Valid(decoded.MessageType) {
		mt = NewInformation
	}

	return Result{
		MessageType:      mt,
		Confidence:       decoded.Confidence,
		Reasoning:        decoded.Reasoning,
		CorrectionTarget: decoded.CorrectionTarget,
		NewValue:         decoded.NewValue,
	}, nil
}
