package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/towerhq/boardroom/internal/config"
)

func testConfig(url string) config.CompletionConfig {
	return config.CompletionConfig{
		BaseURL: url,
		APIKey:  "sk-test",
		Model:   "gpt-4o",
		Timeout: 2 * time.Second,
	}
}

func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Fatalf("unexpected auth header: %s", got)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		msgs, ok := body["messages"].([]any)
		if !ok || len(msgs) != 2 {
			t.Fatalf("expected system+user messages, got %v", body["messages"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "**Verdict: GREEN**"}},
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(testConfig(srv.URL))
	out, err := c.Complete(context.Background(), "You are Ada.", "Startup idea: dog walking app")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "**Verdict: GREEN**" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestCompleteUnavailableOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(testConfig(srv.URL))
	_, err := c.Complete(context.Background(), "sys", "user")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCompleteUnavailableOnConnRefused(t *testing.T) {
	c := NewHTTPClient(testConfig("http://127.0.0.1:1"))
	_, err := c.Complete(context.Background(), "sys", "user")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCompleteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	c := NewHTTPClient(testConfig(srv.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, "sys", "user")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestCompleteRejectsEmptyInputs(t *testing.T) {
	c := NewHTTPClient(testConfig("http://127.0.0.1:1"))
	if _, err := c.Complete(context.Background(), "", "user"); err == nil {
		t.Error("expected error for empty system prompt")
	}
	if _, err := c.Complete(context.Background(), "sys", ""); err == nil {
		t.Error("expected error for empty user message")
	}
}

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) Complete(ctx context.Context, system, user string) (string, error) {
	err := s.errs[s.calls]
	s.calls++
	if err != nil {
		return "", err
	}
	return "ok", nil
}

func TestRetryClientRetriesUnavailable(t *testing.T) {
	inner := &scriptedClient{errs: []error{ErrUnavailable, nil}}
	c := NewRetryClient(inner, 3)
	c.backoff = time.Millisecond

	out, err := c.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "ok" || inner.calls != 2 {
		t.Errorf("expected success on second attempt, got %q after %d calls", out, inner.calls)
	}
}

func TestRetryClientDoesNotRetryTimeout(t *testing.T) {
	inner := &scriptedClient{errs: []error{ErrTimeout, nil}}
	c := NewRetryClient(inner, 3)
	c.backoff = time.Millisecond

	_, err := c.Complete(context.Background(), "sys", "user")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected a single attempt, got %d", inner.calls)
	}
}

func TestRetryClientExhaustsAttempts(t *testing.T) {
	inner := &scriptedClient{errs: []error{ErrUnavailable, ErrUnavailable, ErrUnavailable}}
	c := NewRetryClient(inner, 3)
	c.backoff = time.Millisecond

	_, err := c.Complete(context.Background(), "sys", "user")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", inner.calls)
	}
}
