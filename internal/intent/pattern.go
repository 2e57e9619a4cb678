// Package intent classifies user utterances in the interview: a fast
// ordered pattern cascade first, then compound heuristics, then the
// oracle for anything genuinely ambiguous.
package intent

import (
	"regexp"
	"strings"
)

// MessageType is the classification of a user message.
type MessageType string

const (
	NewInformation MessageType = "new_information" // fresh answer to current question
	Correction     MessageType = "correction"      // fixing a previous answer
	Clarification  MessageType = "clarification"   // adding detail to a previous answer
	Question       MessageType = "question"        // user asking the agent something
	Confirmation   MessageType = "confirmation"    // "yes", "that's right"
	Denial         MessageType = "denial"          // "no", "not really"
	Skip           MessageType = "skip"            // "I don't know", "skip this"
	Hypothetical   MessageType = "hypothetical"    // "what if...", exploring scenarios
	OffTopic       MessageType = "off_topic"       // unrelated to the interview
	Compound       MessageType = "compound"        // multiple pieces of information
	Greeting       MessageType = "greeting"        // hello, hi
	Acknowledgment MessageType = "acknowledgment"  // "ok", "got it" without new info
)

// Valid reports whether s is a known message type. Used to sanitize
// oracle output.
func Valid(s string) bool {
	switch MessageType(s) {
	case NewInformation, Correction, Clarification, Question, Confirmation,
		Denial, Skip, Hypothetical, OffTopic, Compound, Greeting, Acknowledgment:
		return true
	}
	return false
}

// Pattern tables for the quick cascade. Order matters: corrections
// outrank everything ("no wait, I meant 5k" must not read as denial),
// and denial is checked after confirmation so "no" with a trailing
// number falls through to extraction.
var (
	correctionPatterns = compile(
		`\bi\s+meant\b`,
		`\bi\s+mean\b`,
		`\bactually\b.*\bnot\b`,
		`\bno\s*,?\s*i\s+said\b`,
		`\bsorry\s*,?\s*i\s+meant\b`,
		`\blet\s+me\s+correct\b`,
		`\bthat'?s?\s+wrong\b`,
		`\bi\s+made\s+a\s+mistake\b`,
		`\bnot\s+\d+\s*,?\s*i\s+said\b`,
		`\bi\s+should\s+have\s+said\b`,
		`\bwait\s*,?\s*no\b`,
		`\bhold\s+on\b.*\bnot\b`,
		`\bthat\s+was\s+wrong\b`,
		`\bi\s+misspoke\b`,
	)

	hypotheticalPatterns = compile(
		`\bwhat\s+if\b`,
		`\bif\s+i\s+had\b`,
		`\bif\s+i\s+were\b`,
		`\bhypothetically\b`,
		`\blet'?s?\s+say\b`,
		`\bimagine\s+if\b`,
		`\bassume\s+i\b`,
		`\bsuppose\s+i\b`,
	)

	skipPatterns = compile(
		`\bi\s+don'?t\s+know\b`,
		`\bnot\s+sure\b`,
		`\bno\s+idea\b`,
		`\bskip\s+this\b`,
		`\bskip\s+that\b`,
		`\bpass\b`,
		`\bi'?ll\s+tell\s+you\s+later\b`,
		`\bcan'?t\s+remember\b`,
		`\bdon'?t\s+remember\b`,
		`\bnever\s+checked\b`,
		`\bhaven'?t\s+looked\b`,
	)

	greetingPatterns = compile(
		`^(hi|hello|hey|g'?day|good\s+(morning|afternoon|evening))\b`,
	)

	acknowledgmentPatterns = compile(
		`^(ok|okay|sure|got\s+it|understood|alright|fine|cool|great|thanks|thank\s+you)\b`,
	)

	confirmationPatterns = compile(
		`^yes\b`,
		`^yeah\b`,
		`^yep\b`,
		`^yup\b`,
		`^correct\b`,
		`^right\b`,
		`^that'?s?\s+right\b`,
		`^that'?s?\s+correct\b`,
		`^exactly\b`,
		`^absolutely\b`,
		`^definitely\b`,
	)

	// Confirmation signals strong enough to fire on long messages
	// ("yes, and I want to start planning for that").
	strongConfirmationPatterns = compile(
		`^yes\s*,`,
		`^yeah\s*,`,
		`^yep\s*,`,
		`^definitely\b`,
		`^absolutely\b`,
		`\bi\s+should\s+(plan|do|start|think\s+about)\b`,
		`\bi\s+want\s+to\b.*\b(plan|save|invest|work\s+on)\b`,
		`\bthat'?s?\s+(something|a\s+goal)\s+i\b`,
		`\bi'?m\s+interested\s+in\b`,
		`\bplanning\s+for\s+(this|that|it)\b`,
	)

	denialPatterns = compile(
		`^no\b(\s*[^\s\d]|$)`, // bare "no", but not "no 5000"
		`^nope\b`,
		`^nah\b`,
		`^not\s+really\b`,
		`^not\s+at\s+all\b`,
		`^i\s+don'?t\s+think\s+so\b`,
	)

	questionPatterns = compile(
		`\?$`,
		`^(what|how|why|when|where|who|which|can\s+you|could\s+you|do\s+you)\b`,
	)
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// Quick runs the pattern cascade. ok is false when no pattern fired
// and the message needs the oracle (or a default).
func Quick(message string) (MessageType, bool) {
	m := strings.ToLower(strings.TrimSpace(message))
	words := len(strings.Fields(m))

	if matchAny(correctionPatterns, m) {
		return Correction, true
	}
	if matchAny(hypotheticalPatterns, m) {
		return Hypothetical, true
	}
	if matchAny(skipPatterns, m) {
		return Skip, true
	}
	if words <= 5 && matchAny(greetingPatterns, m) {
		return Greeting, true
	}
	if words <= 3 && matchAny(acknowledgmentPatterns, m) {
		return Acknowledgment, true
	}
	if words <= 5 && matchAny(confirmationPatterns, m) {
		return Confirmation, true
	}
	if matchAny(strongConfirmationPatterns, m) {
		return Confirmation, true
	}
	if words <= 5 && matchAny(denialPatterns, m) {
		return Denial, true
	}
	if matchAny(questionPatterns, m) {
		return Question, true
	}

	return "", false
}

var (
	numberPattern    = regexp.MustCompile(`\$?\d+k?`)
	financialTerms   = regexp.MustCompile(`\b(income|salary|savings|debt|loan|mortgage|super|expenses?|rent|credit\s*card)\b`)
	sentenceSplitter = regexp.MustCompile(`[.!?]+`)
)

// looksCompound reports whether the message carries multiple distinct
// data points: two or more numbers, two or more distinct financial
// terms, or three or more sentences.
func looksCompound(message string) bool {
	m := strings.ToLower(message)

	if len(numberPattern.FindAllString(m, -1)) >= 2 {
		return true
	}

	terms := financialTerms.FindAllString(m, -1)
	distinct := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		distinct[t] = struct{}{}
	}
	if len(distinct) >= 2 {
		return true
	}

	var sentences int
	for _, s := range sentenceSplitter.Split(message, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	return sentences >= 3
}
