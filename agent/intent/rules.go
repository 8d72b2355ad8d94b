package intent

import (
	"strings"

	contractx "github.com/novabite/assistant/agent/contract"
)

// The router prompt carries these rules for the model; mirroring them here
// makes the deterministic part of routing verifiable without a model call.

var specialsPhrases = []string{
	"today's special",
	"todays special",
	"special dish",
	"what's special today",
	"whats special today",
	"daily special",
}

var affirmations = map[string]struct{}{
	"yes":        {},
	"yes please": {},
	"yep":        {},
	"sure":       {},
	"go ahead":   {},
	"book it":    {},
	"ok":         {},
	"okay":       {},
}

var bookingCues = []string{
	"book",
	"booking",
	"table",
	"reservation",
	"availability",
	"available",
	"seat",
}

// PreRoute applies the deterministic routing rules before any model call.
// The second return reports whether a rule matched.
func PreRoute(message, transcript string) (contractx.Intent, bool) {
	msg := normalize(message)
	if msg == "" {
		return contractx.IntentKnowledge, false
	}

	for _, phrase := range specialsPhrases {
		if strings.Contains(msg, phrase) {
			return contractx.IntentOperations, true
		}
	}

	if _, ok := affirmations[msg]; ok && mentionsBooking(transcript) {
		return contractx.IntentOperations, true
	}

	return contractx.IntentKnowledge, false
}

func mentionsBooking(transcript string) bool {
	t := strings.ToLower(transcript)
	if t == "" {
		return false
	}
	for _, cue := range bookingCues {
		if strings.Contains(t, cue) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimRight(s, ".!?, ")
}
