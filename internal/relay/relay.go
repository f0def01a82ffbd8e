// Package relay carries conversation turns between the application and the
// agent runtime. Outgoing prompts may carry retrieval context appended after a
// delimiter; the delimiter and everything after it are stripped before a turn
// is shown to the user, so injected context never leaks into the transcript.
package relay

import "strings"

// Delimiter separates the user-visible prompt from injected context in an
// outgoing message. The agent runtime sees the full string; the transcript
// shows only what precedes it.
const Delimiter = "*&()"

const contextPreamble = " Use this extra information to provide better context and details: "

// Compose appends retrieval context to a prompt behind the delimiter. With
// empty extra the prompt is returned unchanged.
func Compose(prompt, extra string) string {
	if extra == "" {
		return prompt
	}
	return prompt + Delimiter + contextPreamble + extra
}

// Strip returns the user-visible part of a message: everything before the
// first delimiter occurrence. Messages without a delimiter pass through
// unchanged.
func Strip(message string) string {
	if i := strings.Index(message, Delimiter); i >= 0 {
		return message[:i]
	}
	return message
}
