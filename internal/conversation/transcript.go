package conversation

import "strings"

// windowSize caps how many prior messages ride along as context. The
// agent keeps its own memory per conversation id; the window only
// bridges turns the server has not persisted yet.
const windowSize = 6

// Window serializes recent history as a role-prefixed transcript and
// prepends it to the outgoing message. Error fallbacks and card-only
// messages carry no useful context and are left out. With no usable
// history the message passes through untouched.
func Window(history []Message, current string) string {
	recent := make([]Message, 0, windowSize)
	for _, msg := range history {
		if msg.IsError || strings.TrimSpace(msg.Text) == "" {
			continue
		}
		recent = append(recent, msg)
	}
	if len(recent) > windowSize {
		recent = recent[len(recent)-windowSize:]
	}
	if len(recent) == 0 {
		return current
	}

	var b strings.Builder
	b.WriteString("<chat_history>\n")
	for _, msg := range recent {
		if msg.Role == RoleAssistant {
			b.WriteString("Assistant: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(strings.TrimSpace(msg.Text))
		b.WriteString("\n")
	}
	b.WriteString("</chat_history>\n\n")
	b.WriteString(current)
	return b.String()
}
