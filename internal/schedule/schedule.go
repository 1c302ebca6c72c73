// Package schedule parses the cadence attached to a scheduled review.
// Three kinds are supported: a cron expression, a fixed interval, and a
// one-shot timestamp. Cadences are stored as JSON; a bare cron string is
// accepted on input and wrapped.
package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

type Schedule struct {
	Kind       string `json:"kind"` // "cron", "interval", "once"
	CronExpr   string `json:"cron_expr,omitempty"`
	IntervalMs int64  `json:"interval_ms,omitempty"`
	AtMs       int64  `json:"at_ms,omitempty"`
}

// Parse accepts either a JSON schedule or a bare cron expression and
// returns a validated Schedule.
func Parse(raw string) (*Schedule, error) {
	raw = strings.TrimSpace(raw)

	var s Schedule
	if err := json.Unmarshal([]byte(raw), &s); err == nil && s.Kind != "" {
		if err := s.validate(); err != nil {
			return nil, err
		}
		return &s, nil
	}

	if !gronx.New().IsValid(raw) {
		return nil, fmt.Errorf("invalid schedule: not valid JSON or cron expression: %s", raw)
	}
	return &Schedule{Kind: "cron", CronExpr: raw}, nil
}

func (s *Schedule) validate() error {
	switch s.Kind {
	case "cron":
		if !gronx.New().IsValid(s.CronExpr) {
			return fmt.Errorf("invalid cron expression: %s", s.CronExpr)
		}
	case "interval":
		if s.IntervalMs <= 0 {
			return fmt.Errorf("interval_ms must be positive")
		}
	case "once":
		if s.AtMs <= 0 {
			return fmt.Errorf("at_ms must be positive")
		}
	default:
		return fmt.Errorf("unknown schedule kind: %s", s.Kind)
	}
	return nil
}

// JSON renders the canonical stored form.
func (s *Schedule) JSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Next returns the next fire time after now, or nil when the schedule has
// no future runs (a one-shot whose timestamp has passed).
func (s *Schedule) Next(now time.Time) *time.Time {
	var next time.Time

	switch s.Kind {
	case "cron":
		t, err := gronx.NextTickAfter(s.CronExpr, now, false)
		if err != nil {
			return nil
		}
		next = t
	case "interval":
		next = now.Add(time.Duration(s.IntervalMs) * time.Millisecond)
	case "once":
		t := time.UnixMilli(s.AtMs)
		if !t.After(now) {
			return nil
		}
		next = t
	default:
		return nil
	}

	return &next
}

// Describe returns a short human-readable form for listings.
func (s *Schedule) Describe() string {
	switch s.Kind {
	case "cron":
		if strings.HasPrefix(s.CronExpr, "@") {
			return s.CronExpr
		}
		return "cron: " + s.CronExpr
	case "interval":
		d := time.Duration(s.IntervalMs) * time.Millisecond
		switch {
		case d%time.Hour == 0 && d >= time.Hour:
			h := int(d.Hours())
			if h == 1 {
				return "every hour"
			}
			return fmt.Sprintf("every %d hours", h)
		case d%time.Minute == 0 && d >= time.Minute:
			m := int(d.Minutes())
			if m == 1 {
				return "every minute"
			}
			return fmt.Sprintf("every %d minutes", m)
		default:
			return fmt.Sprintf("every %d seconds", int(d.Seconds()))
		}
	case "once":
		return "once at " + time.UnixMilli(s.AtMs).Format("Jan 2 15:04")
	default:
		return s.Kind
	}
}
