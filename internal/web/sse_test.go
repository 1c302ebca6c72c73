package web

import (
	"bufio"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/towerhq/boardroom/internal/board"
	"github.com/towerhq/boardroom/internal/config"
)

func TestStreamRun(t *testing.T) {
	_, ts, _ := newTestServer(t, stubClient{output: "**Assessment: GREEN**"}, config.WebConfig{})

	resp := postJSON(t, ts.URL+"/api/runs/stream", map[string]string{"idea": "board game rental"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	var events []board.Event
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev board.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	// One thinking and one result per advisor, then a single summary.
	if len(events) != 9 {
		t.Fatalf("events = %d, want 9", len(events))
	}
	for i := 0; i < 8; i += 2 {
		if events[i].Type != board.EventThinking {
			t.Errorf("event %d: type = %q, want thinking", i, events[i].Type)
		}
		if events[i+1].Type != board.EventResult {
			t.Errorf("event %d: type = %q, want result", i+1, events[i+1].Type)
		}
	}
	last := events[8]
	if last.Type != board.EventSummary {
		t.Fatalf("last event type = %q, want summary", last.Type)
	}
	if last.Overall == nil || len(last.Verdicts) != 4 {
		t.Errorf("summary = %+v", last)
	}
}

func TestStreamRunEmptyIdea(t *testing.T) {
	_, ts, _ := newTestServer(t, stubClient{output: "GREEN"}, config.WebConfig{})

	resp := postJSON(t, ts.URL+"/api/runs/stream", map[string]string{"idea": ""})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
