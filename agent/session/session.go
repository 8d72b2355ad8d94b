package session

import (
	"strings"

	contractx "github.com/novabite/assistant/agent/contract"
)

// RenderTranscript formats a transcript as alternating "Customer:" and
// "Assistant:" lines, the shape the router and rewrite prompts expect.
// Returns "" for an empty session.
func RenderTranscript(turns []contractx.Turn) string {
	if len(turns) == 0 {
		return ""
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case contractx.RoleAssistant:
			lines = append(lines, "Assistant: "+t.Content)
		default:
			lines = append(lines, "Customer: "+t.Content)
		}
	}
	return strings.Join(lines, "\n")
}
