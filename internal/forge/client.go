// Package forge talks to the external build service that turns an
// approved strategy brief into a scaffolded project. The gateway only
// brokers jobs; building happens on the forge side.
package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/towerhq/boardroom/internal/config"
)

// ErrUnavailable wraps transport and non-2xx failures against the forge
// service.
var ErrUnavailable = errors.New("forge service unavailable")

const (
	StatusQueued   = "queued"
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"

	// StatusTimeout is synthesized locally when Await's deadline passes
	// before the forge reports a terminal status. The job may still be
	// running remotely.
	StatusTimeout = "timeout"
)

type Step struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type Job struct {
	ID       string `json:"id"`
	Kind     string `json:"kind,omitempty"`
	Status   string `json:"status"`
	Progress int    `json:"progress,omitempty"`
	Steps    []Step `json:"steps,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Terminal reports whether the job has finished, successfully or not.
func (j *Job) Terminal() bool {
	switch j.Status {
	case StatusComplete, StatusFailed, StatusTimeout:
		return true
	}
	return false
}

type Client struct {
	baseURL      string
	token        string
	pollInterval time.Duration
	maxWait      time.Duration
	http         *http.Client
}

func NewClient(cfg config.ForgeConfig) *Client {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}
	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = 10 * time.Minute
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		token:        cfg.Token,
		pollInterval: poll,
		maxWait:      maxWait,
		http:         &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether a forge backend is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// StartJob submits a brief for building and returns the queued job.
func (c *Client) StartJob(ctx context.Context, brief, kind string) (*Job, error) {
	if strings.TrimSpace(brief) == "" {
		return nil, fmt.Errorf("brief must not be empty")
	}
	if kind == "" {
		kind = "scaffold"
	}

	body, err := json.Marshal(map[string]string{"brief": brief, "kind": kind})
	if err != nil {
		return nil, err
	}

	var job Job
	if err := c.do(ctx, http.MethodPost, "/jobs", body, &job); err != nil {
		return nil, err
	}
	if job.Status == "" {
		job.Status = StatusQueued
	}
	return &job, nil
}

// JobStatus fetches the current state of a job.
func (c *Client) JobStatus(ctx context.Context, id string) (*Job, error) {
	if id == "" {
		return nil, fmt.Errorf("job id must not be empty")
	}

	var job Job
	if err := c.do(ctx, http.MethodGet, "/jobs/"+id, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Await polls until the job reaches a terminal status or the overall
// deadline passes. Deadline expiry returns the last observed job with
// status timeout rather than an error: the caller can distinguish a slow
// build from a failed one.
func (c *Client) Await(ctx context.Context, id string) (*Job, error) {
	deadline := time.NewTimer(c.maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	last := &Job{ID: id, Status: StatusQueued}
	for {
		job, err := c.JobStatus(ctx, id)
		if err == nil {
			last = job
			if job.Terminal() {
				return job, nil
			}
		} else if !errors.Is(err, ErrUnavailable) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			out := *last
			out.Status = StatusTimeout
			return &out, nil
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return json.Unmarshal(data, out)
}
