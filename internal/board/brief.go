package board

import (
	"fmt"
	"strings"

	"github.com/towerhq/boardroom/internal/advisor"
)

func verdictEmoji(v advisor.Verdict) string {
	switch v {
	case advisor.VerdictGreen:
		return "✅"
	case advisor.VerdictYellow:
		return "⚠️"
	case advisor.VerdictRed:
		return "🚫"
	default:
		return "❓"
	}
}

func overallEmoji(verdict string) string {
	switch verdict {
	case advisor.OverallNoGo:
		return "🔴"
	case advisor.OverallCaution:
		return "🟡"
	default:
		return "🟢"
	}
}

// FormatBrief renders a completed run as a markdown strategy brief: a
// quick-verdict header, one section per advisor with its full output, and
// a wall-clock footer.
func FormatBrief(run *Run) string {
	var b strings.Builder

	badges := make([]string, len(run.Results))
	for i, r := range run.Results {
		badges[i] = fmt.Sprintf("%s **%s**: %s", r.Emoji, r.Name, verdictEmoji(r.Verdict))
	}

	fmt.Fprintf(&b, "# 🏢 Strategy Brief\n\n")
	fmt.Fprintf(&b, "> **%s**\n\n", run.Idea)
	fmt.Fprintf(&b, "## Quick Verdict: %s **%s**\n\n", overallEmoji(run.OverallVerdict), run.OverallVerdict)
	b.WriteString(strings.Join(badges, "  •  "))
	b.WriteString("\n\n---\n\n")

	sections := make([]string, len(run.Results))
	for i, r := range run.Results {
		sections[i] = fmt.Sprintf("### %s %s (%s) %s\n\n%s\n", r.Emoji, r.Name, r.Title, verdictEmoji(r.Verdict), r.Output)
	}
	b.WriteString(strings.Join(sections, "\n---\n\n"))

	fmt.Fprintf(&b, "\n---\n⏱️ *Completed in %.1fs*", float64(run.TotalMs)/1000)
	return b.String()
}

// FormatSummary renders a completed run as a compact verdict table, one
// line per advisor. Suited to chat surfaces where the full brief is too
// long for a single message.
func FormatSummary(run *Run) string {
	var b strings.Builder

	b.WriteString("🏢 **Board Analysis Complete**\n\n")
	for _, r := range run.Results {
		badge := "❓"
		switch r.Verdict {
		case advisor.VerdictGreen:
			badge = "✅"
		case advisor.VerdictYellow:
			badge = "🟡"
		case advisor.VerdictRed:
			badge = "🔴"
		}
		fmt.Fprintf(&b, "%s **%s** (%s): %s %s\n", r.Emoji, r.Name, r.Title, badge, r.Verdict)
	}
	fmt.Fprintf(&b, "\n%s **%s** — %s", overallEmoji(run.OverallVerdict), run.OverallVerdict, run.OverallLabel)
	fmt.Fprintf(&b, "\n⏱️ %.1fs total", float64(run.TotalMs)/1000)
	return b.String()
}
