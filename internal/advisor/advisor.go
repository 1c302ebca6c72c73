package advisor

import (
	"fmt"

	"github.com/towerhq/boardroom/internal/config"
)

// Role is one advisor persona on the panel. Roles are immutable after
// construction; the panel slice order is the execution order.
type Role struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Emoji  string `json:"emoji"`
	Title  string `json:"title"`
	Prompt string `json:"-"`
}

// Result is one advisor's recorded judgment within a run.
type Result struct {
	RoleID     string  `json:"id"`
	Name       string  `json:"name"`
	Emoji      string  `json:"emoji"`
	Title      string  `json:"title"`
	Verdict    Verdict `json:"verdict"`
	Output     string  `json:"output"`
	DurationMs int64   `json:"duration_ms"`
}

// defaultOrder is the built-in execution order. Later advisors see the
// accumulated output of all earlier ones, so this order is load-bearing.
var defaultOrder = []string{"ada", "grace", "tony", "val"}

func builtins() map[string]Role {
	return map[string]Role{
		"ada": {
			ID:    "ada",
			Name:  "Ada",
			Emoji: "✦",
			Title: "CTO",
			Prompt: `You are Ada, CTO. Be extremely concise.

Assess this startup idea technically:
- **Stack**: What to build with (1 line)
- **Timeline**: MVP estimate (1 line)
- **Risk**: Biggest technical challenge (1 line)
- **Verdict**: GREEN (straightforward) / YELLOW (challenging) / RED (very hard)

Format:
**Stack:** [answer]
**Timeline:** [answer]
**Risk:** [answer]

**Technical Assessment: [GREEN/YELLOW/RED]**

Max 80 words total.`,
		},
		"grace": {
			ID:    "grace",
			Name:  "Grace",
			Emoji: "🚀",
			Title: "CPO",
			Prompt: `You are Grace, CPO. Be extremely concise.

Assess product-market fit:
- **Problem**: Core pain point (1 line)
- **ICP**: Who exactly buys this (1 line)
- **MVP**: 3 must-have features only
- **Verdict**: GREEN (clear need) / YELLOW (needs validation) / RED (unclear problem)

Format:
**Problem:** [answer]
**ICP:** [answer]
**MVP:** [3 bullets]

**Product Readiness: [GREEN/YELLOW/RED]**

Max 80 words total.`,
		},
		"tony": {
			ID:    "tony",
			Name:  "Tony",
			Emoji: "🔥",
			Title: "CMO",
			Prompt: `You are Tony, CMO. Be extremely concise.

Assess go-to-market:
- **Hook**: One-liner pitch (1 sentence)
- **Channel**: #1 launch channel and why (1 line)
- **First Move**: Day 1 action (1 line)
- **Verdict**: GREEN (clear path) / YELLOW (needs testing) / RED (crowded/unclear)

Format:
**Hook:** [answer]
**Channel:** [answer]
**First Move:** [answer]

**GTM Readiness: [GREEN/YELLOW/RED]**

Max 80 words total.`,
		},
		"val": {
			ID:    "val",
			Name:  "Val",
			Emoji: "📊",
			Title: "CFO",
			Prompt: `You are Val, CFO. Be extremely concise.

Assess financials:
- **Model**: How it makes money (1 line)
- **Unit Economics**: CAC vs LTV gut check (1 line)
- **Runway Risk**: Burn concern level (1 line)
- **Verdict**: GREEN (solid) / YELLOW (watch closely) / RED (dangerous)

Format:
**Model:** [answer]
**Unit Economics:** [answer]
**Runway Risk:** [answer]

**Financial Viability: [GREEN/YELLOW/RED]**

Max 80 words total.`,
		},
	}
}

// DefaultPanel returns the built-in four-advisor panel in execution order.
func DefaultPanel() []Role {
	defs := builtins()
	panel := make([]Role, 0, len(defaultOrder))
	for _, id := range defaultOrder {
		panel = append(panel, defs[id])
	}
	return panel
}

// PanelFromConfig builds the panel from the built-in definitions plus any
// config overrides. An explicit order in the config replaces the default
// execution order and may reference config-defined advisors.
func PanelFromConfig(cfg config.AdvisorsConfig) ([]Role, error) {
	defs := builtins()

	for id, d := range cfg.Definitions {
		role, ok := defs[id]
		if !ok {
			role = Role{ID: id}
		}
		if d.Name != "" {
			role.Name = d.Name
		}
		if d.Emoji != "" {
			role.Emoji = d.Emoji
		}
		if d.Title != "" {
			role.Title = d.Title
		}
		if d.Prompt != "" {
			role.Prompt = d.Prompt
		}
		if role.Name == "" {
			role.Name = id
		}
		defs[id] = role
	}

	order := cfg.Order
	if len(order) == 0 {
		order = defaultOrder
	}

	panel := make([]Role, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		role, ok := defs[id]
		if !ok {
			return nil, fmt.Errorf("unknown advisor in execution order: %s", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate advisor in execution order: %s", id)
		}
		seen[id] = true
		panel = append(panel, role)
	}
	return panel, nil
}
