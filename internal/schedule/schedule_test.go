package schedule

import (
	"fmt"
	"testing"
	"time"
)

func TestParseCronJSON(t *testing.T) {
	s, err := Parse(`{"kind":"cron","cron_expr":"0 9 * * 1"}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if s.Kind != "cron" || s.CronExpr != "0 9 * * 1" {
		t.Errorf("unexpected schedule: %+v", s)
	}
}

func TestParseBareCron(t *testing.T) {
	s, err := Parse("  */10 * * * *  ")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if s.Kind != "cron" || s.CronExpr != "*/10 * * * *" {
		t.Errorf("unexpected schedule: %+v", s)
	}
}

func TestParseInterval(t *testing.T) {
	s, err := Parse(`{"kind":"interval","interval_ms":300000}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if s.IntervalMs != 300000 {
		t.Errorf("interval_ms = %d", s.IntervalMs)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []string{
		"not a cron",
		`{"kind":"cron","cron_expr":"bad"}`,
		`{"kind":"interval","interval_ms":0}`,
		`{"kind":"once","at_ms":-5}`,
		`{"kind":"bogus"}`,
	}
	for _, raw := range cases {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%q) accepted invalid schedule", raw)
		}
	}
}

func TestNextCron(t *testing.T) {
	s := &Schedule{Kind: "cron", CronExpr: "* * * * *"}
	now := time.Now()
	next := s.Next(now)
	if next == nil {
		t.Fatal("expected next run time, got nil")
	}
	if !next.After(now) {
		t.Error("expected next run in the future")
	}
}

func TestNextInterval(t *testing.T) {
	s := &Schedule{Kind: "interval", IntervalMs: 60000}
	now := time.Now()
	next := s.Next(now)
	if next == nil {
		t.Fatal("expected next run time, got nil")
	}
	if got := next.Sub(now); got != time.Minute {
		t.Errorf("next run offset = %v, want 1m", got)
	}
}

func TestNextOnce(t *testing.T) {
	future := time.Now().Add(time.Hour)
	s := &Schedule{Kind: "once", AtMs: future.UnixMilli()}
	next := s.Next(time.Now())
	if next == nil {
		t.Fatal("expected next run time, got nil")
	}

	past := &Schedule{Kind: "once", AtMs: time.Now().Add(-time.Hour).UnixMilli()}
	if next := past.Next(time.Now()); next != nil {
		t.Error("expected nil for elapsed one-shot")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := &Schedule{Kind: "interval", IntervalMs: 1800000}
	raw, err := s.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse round trip: %v", err)
	}
	if parsed.IntervalMs != s.IntervalMs {
		t.Errorf("round trip interval = %d", parsed.IntervalMs)
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		s    *Schedule
		want string
	}{
		{&Schedule{Kind: "cron", CronExpr: "@daily"}, "@daily"},
		{&Schedule{Kind: "cron", CronExpr: "0 9 * * 1"}, "cron: 0 9 * * 1"},
		{&Schedule{Kind: "interval", IntervalMs: 3600000}, "every hour"},
		{&Schedule{Kind: "interval", IntervalMs: 7200000}, "every 2 hours"},
		{&Schedule{Kind: "interval", IntervalMs: 300000}, "every 5 minutes"},
		{&Schedule{Kind: "interval", IntervalMs: 45000}, "every 45 seconds"},
	}
	for _, tc := range cases {
		if got := tc.s.Describe(); got != tc.want {
			t.Errorf("Describe(%+v) = %q, want %q", tc.s, got, tc.want)
		}
	}

	once := &Schedule{Kind: "once", AtMs: time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local).UnixMilli()}
	if got := once.Describe(); got != fmt.Sprintf("once at %s", "Mar 14 09:30") {
		t.Errorf("Describe once = %q", got)
	}
}
