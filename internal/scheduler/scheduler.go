// Package scheduler re-runs saved ideas on their review cadence. It polls
// the store for due reviews and feeds each one through the advisor
// pipeline, recording the verdict so drift is visible across runs.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/towerhq/boardroom/internal/board"
	"github.com/towerhq/boardroom/internal/config"
	"github.com/towerhq/boardroom/internal/natsbus"
	"github.com/towerhq/boardroom/internal/schedule"
	"github.com/towerhq/boardroom/internal/store"
)

type Scheduler struct {
	store        *store.Store
	engine       *board.Engine
	events       *natsbus.Client
	pollInterval time.Duration
	reloadCh     chan struct{}
}

func New(s *store.Store, engine *board.Engine, events *natsbus.Client, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		store:        s,
		engine:       engine,
		events:       events,
		pollInterval: cfg.PollInterval,
		reloadCh:     make(chan struct{}, 1),
	}
}

// UpdatePollInterval changes the cadence and signals the run loop to
// reset its ticker.
func (s *Scheduler) UpdatePollInterval(interval time.Duration) {
	s.pollInterval = interval
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if s.pollInterval == 0 {
		s.pollInterval = 30 * time.Second
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	slog.Info("review scheduler started", "poll_interval", s.pollInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("review scheduler stopped")
			return
		case <-s.reloadCh:
			ticker.Reset(s.pollInterval)
			slog.Info("review scheduler reloaded", "poll_interval", s.pollInterval)
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Scheduler) poll(ctx context.Context) {
	reviews, err := s.store.GetDueReviews(time.Now())
	if err != nil {
		slog.Error("failed to get due reviews", "error", err)
		return
	}

	for _, review := range reviews {
		s.execute(ctx, review)
	}
}

func (s *Scheduler) execute(ctx context.Context, review store.ScheduledReview) {
	slog.Info("running scheduled review", "id", review.ID, "name", review.Name)

	run, err := s.engine.Evaluate(ctx, review.Idea, nil)

	var runID, verdict, lastError string
	if err != nil {
		lastError = err.Error()
		slog.Error("scheduled review failed", "id", review.ID, "error", err)
	} else {
		runID = run.ID
		verdict = run.OverallVerdict
	}

	var nextRun *time.Time
	if sched, perr := schedule.Parse(review.Schedule); perr != nil {
		slog.Error("scheduled review has unparseable cadence", "id", review.ID, "error", perr)
	} else {
		nextRun = sched.Next(time.Now())
	}

	if err := s.store.UpdateReviewRun(review.ID, runID, verdict, lastError, nextRun); err != nil {
		slog.Error("failed to record review run", "id", review.ID, "error", err)
	}

	s.publishReviewEvent(review, runID, verdict, lastError)

	// One-shot cadences with no future fire time are done.
	if nextRun == nil {
		slog.Info("no next run, marking review completed", "id", review.ID, "name", review.Name)
		if err := s.store.UpdateReviewStatus(review.ID, "completed"); err != nil {
			slog.Error("failed to complete review", "id", review.ID, "error", err)
		}
	}
}

func (s *Scheduler) publishReviewEvent(review store.ScheduledReview, runID, verdict, lastError string) {
	if s.events == nil {
		return
	}

	event := map[string]any{
		"type":      "review_executed",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"data": map[string]any{
			"id":      review.ID,
			"name":    review.Name,
			"run_id":  runID,
			"verdict": verdict,
			"error":   lastError,
		},
	}

	_ = s.events.PublishJSON(natsbus.TopicReviewEvents(review.ID), event)
}
