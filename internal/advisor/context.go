package advisor

import (
	"fmt"
	"strings"
)

// BuildMessage constructs the user message for the next advisor: the idea
// itself, plus a labeled rendering of every prior advisor's output in
// execution order. Later advisors rely on this to reference earlier stated
// positions, so the output is deterministic for a given input.
func BuildMessage(idea string, prior []Result) string {
	var sb strings.Builder
	sb.WriteString("Startup idea: ")
	sb.WriteString(idea)

	if len(prior) == 0 {
		return sb.String()
	}

	sb.WriteString("\n\n---\n\nContext from other executives:\n")
	for i, r := range prior {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&sb, "## %s %s (%s)\n%s", r.Emoji, r.Name, r.Title, r.Output)
	}
	return sb.String()
}
