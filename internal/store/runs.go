package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Run is a completed orchestration run. Only terminal runs are written;
// cancelled or in-flight runs never reach the store.
type Run struct {
	ID             string          `json:"id"`
	Idea           string          `json:"idea"`
	OverallVerdict string          `json:"overall_verdict"`
	OverallLabel   string          `json:"overall_label"`
	Results        json.RawMessage `json:"results"`
	TotalMs        int64           `json:"total_duration_ms"`
	CreatedAt      time.Time       `json:"created_at"`
}

const runColumns = `id, idea, overall_verdict, overall_label, results, total_ms, created_at`

func (s *Store) SaveRun(r *Run) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, idea, overall_verdict, overall_label, results, total_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Idea, r.OverallVerdict, r.OverallLabel, string(r.Results), r.TotalMs)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

func (s *Store) DeleteRun(id string) error {
	_, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	return err
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	r := &Run{}
	var results string
	if err := scanner.Scan(&r.ID, &r.Idea, &r.OverallVerdict, &r.OverallLabel, &results, &r.TotalMs, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Results = json.RawMessage(results)
	return r, nil
}
