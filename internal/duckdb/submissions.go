package duckdb

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/tinytelemetry/prognosticator/internal/model"
)

// RecordSubmission stores one submission and its rows in a single
// transaction. A missing ID or timestamp is filled in; the ID is returned.
func (s *Store) RecordSubmission(sub model.Submission) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewV4().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	if sub.RowCount == 0 {
		sub.RowCount = len(sub.Rows)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("duckdb: begin: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO submissions (id, created_at, file_name, time_interval, outcome, status, message, row_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.CreatedAt, sub.FileName, sub.TimeInterval, sub.Outcome, sub.Status, sub.Message, sub.RowCount,
	)
	if err != nil {
		tx.Rollback()
		return "", fmt.Errorf("duckdb: insert submission: %w", err)
	}

	for i, row := range sub.Rows {
		raw, err := json.Marshal(row)
		if err != nil {
			tx.Rollback()
			return "", fmt.Errorf("duckdb: marshal row %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO submission_rows (submission_id, position, row_json) VALUES (?, ?, ?)",
			sub.ID, i, string(raw),
		); err != nil {
			tx.Rollback()
			return "", fmt.Errorf("duckdb: insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("duckdb: commit: %w", err)
	}
	return sub.ID, nil
}

// RecentSubmissions returns the newest submissions first, without rows.
func (s *Store) RecentSubmissions(limit int) ([]model.Submission, error) {
	if limit <= 0 {
		limit = model.DefaultHistoryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, file_name, time_interval, outcome, status, message, row_count
		FROM submissions
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.CreatedAt, &sub.FileName, &sub.TimeInterval,
			&sub.Outcome, &sub.Status, &sub.Message, &sub.RowCount); err != nil {
			log.Printf("duckdb scan error (RecentSubmissions): %v", err)
			continue
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// SubmissionRows returns the stored result rows of one submission in their
// original order.
func (s *Store) SubmissionRows(id string) (model.ResultSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions WHERE id = ?", id).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT row_json FROM submission_rows WHERE submission_id = ? ORDER BY position", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rs model.ResultSet
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var row model.Row
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, fmt.Errorf("duckdb: decode row of %s: %w", id, err)
		}
		rs = append(rs, row)
	}
	return rs, rows.Err()
}

// DeleteSubmissionsBefore removes submissions (and their rows) created
// before cutoff and returns how many submissions were deleted.
func (s *Store) DeleteSubmissionsBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM submission_rows
		WHERE submission_id IN (SELECT id FROM submissions WHERE created_at < ?)`, cutoff); err != nil {
		tx.Rollback()
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM submissions WHERE created_at < ?", cutoff)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}
