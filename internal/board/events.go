package board

import "github.com/towerhq/boardroom/internal/advisor"

// EventType tags a progress frame. The four types form the run's wire
// protocol: one thinking frame before each advisor call, one result or
// error frame after it, and exactly one summary frame at the end.
type EventType string

const (
	EventThinking EventType = "thinking"
	EventResult   EventType = "result"
	EventError    EventType = "error"
	EventSummary  EventType = "summary"
)

// Event is a tagged progress frame. Fields are populated per type:
// thinking carries the role identity, result adds verdict/output/duration,
// error adds a message, summary carries totals and the ordered verdicts.
type Event struct {
	Type       EventType         `json:"type"`
	Role       string            `json:"role,omitempty"`
	Name       string            `json:"name,omitempty"`
	Emoji      string            `json:"emoji,omitempty"`
	Title      string            `json:"title,omitempty"`
	Verdict    advisor.Verdict   `json:"verdict,omitempty"`
	Output     string            `json:"output,omitempty"`
	Message    string            `json:"message,omitempty"`
	DurationMs int64             `json:"duration_ms,omitempty"`
	TotalMs    int64             `json:"total_ms,omitempty"`
	Verdicts   []advisor.Verdict `json:"verdicts,omitempty"`
	Overall    *advisor.Overall  `json:"overall,omitempty"`
}
