package telegram

import "strings"

// analysis command aliases accepted in chat
var commandPrefixes = []string{"/analyze", "/strategy", "/csuite"}

// splitCommand returns the idea text when message starts with an analysis
// command, and whether it matched. The prefix must end the word, so
// "/analyzer foo" does not trigger.
func splitCommand(message string) (string, bool) {
	trimmed := strings.TrimSpace(message)
	lower := strings.ToLower(trimmed)
	for _, prefix := range commandPrefixes {
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		rest := trimmed[len(prefix):]
		if rest != "" && rest[0] != ' ' && rest[0] != '\n' && rest[0] != '\t' {
			continue
		}
		return strings.TrimSpace(rest), true
	}
	return "", false
}
