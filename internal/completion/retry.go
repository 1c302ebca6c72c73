package completion

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RetryClient wraps a Client with a fixed number of retries on unavailable
// upstreams. Retry lives here, as a decorator, so the orchestration engine
// stays fire-and-forget; timeouts are never retried because the per-role
// deadline has already been spent.
type RetryClient struct {
	inner    Client
	attempts int
	backoff  time.Duration
}

func NewRetryClient(inner Client, attempts int) *RetryClient {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryClient{inner: inner, attempts: attempts, backoff: time.Second}
}

func (r *RetryClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	var lastErr error
	for i := 0; i < r.attempts; i++ {
		if i > 0 {
			slog.Debug("retrying completion call", "attempt", i+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", lastErr
			case <-time.After(r.backoff << (i - 1)):
			}
		}

		out, err := r.inner.Complete(ctx, systemPrompt, userMessage)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !errors.Is(err, ErrUnavailable) {
			break
		}
	}
	return "", lastErr
}
