package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/towerhq/boardroom/internal/advisor"
	"github.com/towerhq/boardroom/internal/completion"
	"github.com/towerhq/boardroom/internal/natsbus"
	"github.com/towerhq/boardroom/internal/store"
)

// ErrEmptyIdea rejects a submission before any advisor runs.
var ErrEmptyIdea = errors.New("idea must not be empty")

// PromptSource resolves an advisor's instruction template right before its
// completion call. The engine treats the template as an opaque string.
type PromptSource interface {
	InstructionTemplate(roleID string) (string, error)
}

// Run is one complete evaluation of one idea. Results are appended in
// execution order and the run is immutable once the overall verdict is set.
type Run struct {
	ID             string           `json:"id"`
	Idea           string           `json:"idea"`
	Results        []advisor.Result `json:"results"`
	OverallVerdict string           `json:"overall_verdict"`
	OverallLabel   string           `json:"overall_label"`
	TotalMs        int64            `json:"total_duration_ms"`
	StartedAt      time.Time        `json:"started_at"`
}

// Engine drives the advisor pipeline: for each role in panel order it
// builds the accumulated context, calls the completion service, extracts a
// verdict and keeps going regardless of per-role failure. Advisors share
// text context, never a failure domain.
type Engine struct {
	panel       []advisor.Role
	prompts     PromptSource
	client      completion.Client
	store       *store.Store    // optional: completed runs persisted when set
	events      *natsbus.Client // optional: bus mirror of progress events
	callTimeout time.Duration
}

func NewEngine(panel []advisor.Role, prompts PromptSource, client completion.Client, s *store.Store, events *natsbus.Client, callTimeout time.Duration) *Engine {
	return &Engine{
		panel:       panel,
		prompts:     prompts,
		client:      client,
		store:       s,
		events:      events,
		callTimeout: callTimeout,
	}
}

// Panel returns the advisors in execution order.
func (e *Engine) Panel() []advisor.Role {
	return e.panel
}

// Evaluate runs the full pipeline for one idea. When rep is non-nil every
// phase transition is emitted to it and the channel is closed on return.
// A started run always completes with one result per advisor; the only
// early exits are input validation and consumer disconnection, both of
// which discard partial results.
func (e *Engine) Evaluate(ctx context.Context, idea string, rep *Reporter) (*Run, error) {
	if rep != nil {
		defer rep.close()
	}

	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, ErrEmptyIdea
	}

	run := &Run{
		ID:        uuid.New().String(),
		Idea:      idea,
		StartedAt: time.Now(),
	}

	slog.Info("run started", "run", run.ID, "advisors", len(e.panel))
	start := time.Now()

	for _, role := range e.panel {
		// Consumer gone or caller cancelled: stop issuing completion calls.
		if err := ctx.Err(); err != nil {
			return nil, e.abort(err)
		}

		message := advisor.BuildMessage(idea, run.Results)

		if err := e.emit(rep, run.ID, Event{
			Type:  EventThinking,
			Role:  role.ID,
			Name:  role.Name,
			Emoji: role.Emoji,
			Title: role.Title,
		}); err != nil {
			return nil, err
		}

		result, failed := e.consult(ctx, role, message)
		if err := ctx.Err(); err != nil {
			return nil, e.abort(err)
		}
		run.Results = append(run.Results, result)

		ev := Event{
			Type:       EventResult,
			Role:       role.ID,
			Name:       role.Name,
			Emoji:      role.Emoji,
			Title:      role.Title,
			Verdict:    result.Verdict,
			Output:     result.Output,
			DurationMs: result.DurationMs,
		}
		if failed {
			ev = Event{
				Type:       EventError,
				Role:       role.ID,
				Name:       role.Name,
				Message:    result.Output,
				DurationMs: result.DurationMs,
			}
		}
		if err := e.emit(rep, run.ID, ev); err != nil {
			return nil, err
		}
	}

	verdicts := make([]advisor.Verdict, len(run.Results))
	for i, r := range run.Results {
		verdicts[i] = r.Verdict
	}
	overall := advisor.Aggregate(verdicts)

	run.OverallVerdict = overall.Verdict
	run.OverallLabel = overall.Label
	run.TotalMs = time.Since(start).Milliseconds()

	if err := e.emit(rep, run.ID, Event{
		Type:     EventSummary,
		TotalMs:  run.TotalMs,
		Verdicts: verdicts,
		Overall:  &overall,
	}); err != nil {
		return nil, err
	}

	e.persist(run)

	slog.Info("run complete", "run", run.ID, "verdict", run.OverallVerdict, "total_ms", run.TotalMs)
	return run, nil
}

// consult performs a single advisor's completion call and records the
// outcome. A failed call yields an Unknown verdict carrying the failure
// message as output; it never aborts the run.
func (e *Engine) consult(ctx context.Context, role advisor.Role, message string) (advisor.Result, bool) {
	system := role.Prompt
	if e.prompts != nil {
		tmpl, err := e.prompts.InstructionTemplate(role.ID)
		if err != nil {
			slog.Warn("instruction template lookup failed, using built-in", "role", role.ID, "error", err)
		} else if tmpl != "" {
			system = tmpl
		}
	}

	callCtx := ctx
	cancel := func() {}
	if e.callTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, e.callTimeout)
	}
	defer cancel()

	started := time.Now()
	output, err := e.client.Complete(callCtx, system, message)
	elapsed := time.Since(started)

	result := advisor.Result{
		RoleID:     role.ID,
		Name:       role.Name,
		Emoji:      role.Emoji,
		Title:      role.Title,
		DurationMs: elapsed.Milliseconds(),
	}

	if err != nil {
		slog.Warn("advisor call failed", "role", role.ID, "error", err)
		result.Verdict = advisor.VerdictUnknown
		result.Output = fmt.Sprintf("advisor unavailable: %v", err)
		return result, true
	}

	result.Verdict = advisor.ExtractVerdict(output)
	result.Output = output
	return result, false
}

func (e *Engine) emit(rep *Reporter, runID string, ev Event) error {
	e.publishEvent(runID, ev)
	if rep == nil {
		return nil
	}
	return rep.emit(ev)
}

func (e *Engine) abort(cause error) error {
	if errors.Is(cause, context.Canceled) {
		return ErrStreamClosed
	}
	return cause
}

func (e *Engine) publishEvent(runID string, ev Event) {
	if e.events == nil {
		return
	}

	frame := map[string]any{
		"run_id":    runID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"event":     ev,
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	_ = e.events.Publish(natsbus.TopicRunEvents(runID), payload)
}

func (e *Engine) persist(run *Run) {
	if e.store == nil {
		return
	}

	results, err := json.Marshal(run.Results)
	if err != nil {
		slog.Error("marshal run results", "run", run.ID, "error", err)
		return
	}
	rec := &store.Run{
		ID:             run.ID,
		Idea:           run.Idea,
		OverallVerdict: run.OverallVerdict,
		OverallLabel:   run.OverallLabel,
		Results:        results,
		TotalMs:        run.TotalMs,
	}
	if err := e.store.SaveRun(rec); err != nil {
		slog.Error("persist run", "run", run.ID, "error", err)
	}
}
