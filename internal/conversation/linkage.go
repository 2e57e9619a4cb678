package conversation

import "regexp"

// Patterns indicating the user's savings pool doubles as their
// emergency fund ("my savings is my emergency fund", "same account",
// "200k is for emergencies too").
var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)savings\s+(is|are)\s+(my\s+)?emergency`),
	regexp.MustCompile(`(?i)emergency\s+fund\s+(is|are)\s+(my\s+)?savings`),
	regexp.MustCompile(`(?i)that'?s?\s+(my\s+)?emergency\s+fund`),
	regexp.MustCompile(`(?i)same\s+(thing|pool|money|account)`),
	regexp.MustCompile(`(?i)(it'?s?|that'?s?)\s+all\s+in\s+one`),
	regexp.MustCompile(`(?i)(i\s+)?don'?t\s+have\s+separate`),
	regexp.MustCompile(`(?i)(it'?s?|that'?s?)\s+both`),
	regexp.MustCompile(`(?i)covers?\s+(my\s+)?emergenc`),
	regexp.MustCompile(`(?i)for\s+emergencies?\s+too`),
	regexp.MustCompile(`(?i)double[sd]?\s+as\s+(my\s+)?emergency`),
}

// DetectSavingsEmergencyLink reports whether the message indicates
// savings and emergency fund are the same pool. When linked, the
// savings amount stands in for the emergency fund and the interview
// stops asking about them separately.
func DetectSavingsEmergencyLink(message string) bool {
	for _, p := range linkPatterns {
		if p.MatchString(message) {
			return true
		}
	}
	return false
}
