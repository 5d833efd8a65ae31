// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meshintel/oncopulse/pkg/types"
)

// RunRecord is one completed pipeline run as stored in the history.
type RunRecord struct {
	ID      int64
	Summary types.RunSummary
}

// RecordRun appends a completed run to the history. The scoped columns
// are denormalized from the summary for querying.
func (s *Store) RecordRun(ctx context.Context, summary types.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding run summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO run_history (specialty, subcategory, started_at, finished_at, summary)
		 VALUES (?, ?, ?, ?, ?)`,
		summary.Specialty, summary.Subcategory,
		summary.StartedAt.UTC().Format(timeLayout),
		summary.FinishedAt.UTC().Format(timeLayout),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting run record: %w", err)
	}
	return nil
}

// RunHistory returns the most recent runs, newest first. A limit of
// zero or less returns everything.
func (s *Store) RunHistory(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT id, summary FROM run_history ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying run history: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec         RunRecord
			summaryJSON string
		)
		if err := rows.Scan(&rec.ID, &summaryJSON); err != nil {
			return nil, fmt.Errorf("scanning run record: %w", err)
		}
		if err := json.Unmarshal([]byte(summaryJSON), &rec.Summary); err != nil {
			return nil, fmt.Errorf("decoding run summary: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run history: %w", err)
	}
	return out, nil
}
