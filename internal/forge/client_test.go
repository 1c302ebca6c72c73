package forge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/towerhq/boardroom/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.ForgeConfig{
		BaseURL:      srv.URL,
		Token:        "forge-token",
		PollInterval: 10 * time.Millisecond,
		MaxWait:      time.Second,
	})
}

func TestStartJob(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/jobs" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer forge-token" {
			t.Errorf("auth header = %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["kind"] != "scaffold" {
			t.Errorf("kind = %q, want default scaffold", body["kind"])
		}
		json.NewEncoder(w).Encode(Job{ID: "j1", Status: StatusQueued})
	}))

	job, err := client.StartJob(context.Background(), "# Strategy Brief\n...", "")
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	if job.ID != "j1" || job.Status != StatusQueued {
		t.Errorf("job = %+v", job)
	}
}

func TestStartJobEmptyBrief(t *testing.T) {
	client := NewClient(config.ForgeConfig{BaseURL: "http://127.0.0.1:1"})
	if _, err := client.StartJob(context.Background(), "  ", "scaffold"); err == nil {
		t.Error("expected error for empty brief")
	}
}

func TestJobStatusUnavailable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	_, err := client.JobStatus(context.Background(), "j1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestAwaitUntilComplete(t *testing.T) {
	var polls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := polls.Add(1)
		job := Job{ID: "j2", Status: StatusRunning, Progress: int(n) * 25}
		if n >= 3 {
			job.Status = StatusComplete
			job.Progress = 100
		}
		json.NewEncoder(w).Encode(job)
	}))

	job, err := client.Await(context.Background(), "j2")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if job.Status != StatusComplete {
		t.Errorf("status = %q, want complete", job.Status)
	}
	if polls.Load() < 3 {
		t.Errorf("polls = %d, want at least 3", polls.Load())
	}
}

func TestAwaitDeadlineYieldsTimeout(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Job{ID: "j3", Status: StatusRunning, Progress: 40})
	}))
	client.maxWait = 50 * time.Millisecond

	job, err := client.Await(context.Background(), "j3")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if job.Status != StatusTimeout {
		t.Errorf("status = %q, want timeout", job.Status)
	}
	if job.Progress != 40 {
		t.Errorf("last observed progress lost: %+v", job)
	}
}

func TestAwaitRespectsContext(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Job{ID: "j4", Status: StatusQueued})
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := client.Await(ctx, "j4"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		StatusQueued:   false,
		StatusRunning:  false,
		StatusComplete: true,
		StatusFailed:   true,
		StatusTimeout:  true,
	} {
		j := &Job{Status: status}
		if j.Terminal() != want {
			t.Errorf("Terminal(%q) = %v, want %v", status, !want, want)
		}
	}
}
