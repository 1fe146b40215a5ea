package conversation

import (
	"strings"
)

// TurnCue is appended after the rendered history so the completion continues
// as the NPC.
const TurnCue = "bot:"

// RenderHistory renders messages as "<role>: <text>" lines in order, joined
// with newlines.
func RenderHistory(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, string(m.Role)+": "+m.Text)
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt concatenates the persona description, the rendered history and
// the turn cue.
func BuildPrompt(description string, messages []Message) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(description))
	sb.WriteString("\n\n")
	if history := RenderHistory(messages); history != "" {
		sb.WriteString(history)
		sb.WriteString("\n")
	}
	sb.WriteString(TurnCue)
	return sb.String()
}
