package intent

import (
	"fmt"
	"regexp"
	"strings"
)

// Ambiguity describes a statement that needs clarifying before its
// numbers can be trusted.
type Ambiguity struct {
	Type          string `json:"type"` // range, conditional, joint, gross_net
	Clarification string `json:"clarification"`
}

var (
	rangePattern       = regexp.MustCompile(`between\s+(\$?\d+k?)\s+and\s+(\$?\d+k?)`)
	conditionalPattern = regexp.MustCompile(`\bif\s+(you\s+count|including|i\s+include)\b`)
	jointPattern       = regexp.MustCompile(`\b(we\s+have|together|combined|joint|shared)\b`)
	digitPattern       = regexp.MustCompile(`\d`)
	beforeAfterTax     = regexp.MustCompile(`\b(before|after)\s+tax\b`)
	incomeWithNumber   = regexp.MustCompile(`\bincome\b.*\d|\d.*\bincome\b`)
)

// DetectAmbiguity checks a message for statements that need a
// clarifying question. Categories are checked in order and the first
// match wins. Returns nil when the message is unambiguous.
//
// "around 5k" style hedging is deliberately accepted as-is: an
// estimate is an answer, not an ambiguity.
func DetectAmbiguity(message, lastQuestion string) *Ambiguity {
	m := strings.ToLower(message)

	if match := rangePattern.FindStringSubmatch(m); match != nil {
		return &Ambiguity{
			Type: "range",
			Clarification: fmt.Sprintf(
				"You mentioned between %s and %s. What's your best estimate of the actual amount?",
				match[1], match[2]),
		}
	}

	if conditionalPattern.MatchString(m) {
		return &Ambiguity{
			Type:          "conditional",
			Clarification: "Should I count that in or not? Let's use the number that best represents your regular situation.",
		}
	}

	if jointPattern.MatchString(m) && digitPattern.MatchString(m) {
		return &Ambiguity{
			Type:          "joint",
			Clarification: "Is that the combined amount for both of you, or just your share?",
		}
	}

	// Income without a gross/net marker. When the agent already asked
	// in monthly terms, take the answer at face value.
	if !beforeAfterTax.MatchString(m) &&
		incomeWithNumber.MatchString(m) &&
		!strings.Contains(strings.ToLower(lastQuestion), "monthly") {
		return &Ambiguity{
			Type:          "gross_net",
			Clarification: "Is that before or after tax?",
		}
	}

	return nil
}
