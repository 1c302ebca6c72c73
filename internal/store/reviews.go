package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ScheduledReview is a saved idea re-evaluated on a schedule to track how
// the panel's verdict drifts over time.
type ScheduledReview struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Idea        string     `json:"idea"`
	Schedule    string     `json:"schedule"`
	Status      string     `json:"status"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	LastRunID   string     `json:"last_run_id,omitempty"`
	LastVerdict string     `json:"last_verdict,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

const reviewColumns = `id, name, idea, schedule, status, next_run_at, last_run_at, last_run_id, last_verdict, last_error, created_at`

func (s *Store) SaveReview(r *ScheduledReview) error {
	_, err := s.db.Exec(`
		INSERT INTO scheduled_reviews (id, name, idea, schedule, status, next_run_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, idea = excluded.idea,
			schedule = excluded.schedule, status = excluded.status,
			next_run_at = excluded.next_run_at`,
		r.ID, r.Name, r.Idea, r.Schedule, r.Status, r.NextRunAt)
	if err != nil {
		return fmt.Errorf("save review: %w", err)
	}
	return nil
}

func (s *Store) GetReview(id string) (*ScheduledReview, error) {
	row := s.db.QueryRow(`SELECT `+reviewColumns+` FROM scheduled_reviews WHERE id = ?`, id)
	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return r, nil
}

func (s *Store) ListReviews() ([]ScheduledReview, error) {
	rows, err := s.db.Query(`SELECT ` + reviewColumns + ` FROM scheduled_reviews ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []ScheduledReview
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// GetDueReviews returns active reviews whose next run time has passed.
func (s *Store) GetDueReviews(now time.Time) ([]ScheduledReview, error) {
	rows, err := s.db.Query(`
		SELECT `+reviewColumns+`
		FROM scheduled_reviews
		WHERE status = 'active' AND next_run_at IS NOT NULL AND next_run_at <= ?`, now)
	if err != nil {
		return nil, fmt.Errorf("get due reviews: %w", err)
	}
	defer rows.Close()

	var reviews []ScheduledReview
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// UpdateReviewRun records the outcome of one scheduled execution.
func (s *Store) UpdateReviewRun(id, runID, verdict, lastError string, nextRun *time.Time) error {
	_, err := s.db.Exec(`
		UPDATE scheduled_reviews
		SET last_run_at = CURRENT_TIMESTAMP, last_run_id = ?, last_verdict = ?, last_error = ?, next_run_at = ?
		WHERE id = ?`,
		runID, verdict, lastError, nextRun, id)
	if err != nil {
		return fmt.Errorf("update review run: %w", err)
	}
	return nil
}

func (s *Store) UpdateReviewStatus(id, status string) error {
	_, err := s.db.Exec(`UPDATE scheduled_reviews SET status = ? WHERE id = ?`, status, id)
	return err
}

func (s *Store) DeleteReview(id string) error {
	_, err := s.db.Exec(`DELETE FROM scheduled_reviews WHERE id = ?`, id)
	return err
}

func scanReview(scanner interface{ Scan(dest ...any) error }) (*ScheduledReview, error) {
	r := &ScheduledReview{}
	var lastRunID, lastVerdict, lastError sql.NullString
	err := scanner.Scan(&r.ID, &r.Name, &r.Idea, &r.Schedule, &r.Status,
		&r.NextRunAt, &r.LastRunAt, &lastRunID, &lastVerdict, &lastError, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.LastRunID = lastRunID.String
	r.LastVerdict = lastVerdict.String
	r.LastError = lastError.String
	return r, nil
}
