package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-screener/internal/types"
)

// -----------------------------------------------------------------------------
// Match Session Methods
// -----------------------------------------------------------------------------

// SaveSession inserts or updates a session from its latest snapshot
func (db *DB) SaveSession(ctx context.Context, snap types.SessionSnapshot, cfg types.ScoringConfig) error {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal session config: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO match_sessions (id, job_id, job_title, status, config, total_candidates,
		        processed_candidates, failed_candidates, error_message, created_at, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		        status = EXCLUDED.status,
		        processed_candidates = EXCLUDED.processed_candidates,
		        failed_candidates = EXCLUDED.failed_candidates,
		        error_message = EXCLUDED.error_message,
		        started_at = EXCLUDED.started_at,
		        completed_at = EXCLUDED.completed_at`,
		snap.ID, snap.JobID, snap.JobTitle, string(snap.Status), configJSON, snap.TotalCandidates,
		snap.ProcessedCandidates, snap.FailedCandidates, snap.Error, snap.CreatedAt, snap.StartedAt, snap.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", snap.ID, err)
	}
	return nil
}

const sessionColumns = `id::text, job_id, job_title, status, config, total_candidates, processed_candidates,
		        failed_candidates, COALESCE(error_message, ''), created_at, started_at, completed_at`

func scanSession(row pgx.Row) (*SessionRecord, error) {
	var rec SessionRecord
	var status string
	var configJSON []byte
	err := row.Scan(&rec.ID, &rec.JobID, &rec.JobTitle, &status, &configJSON, &rec.TotalCandidates,
		&rec.ProcessedCandidates, &rec.FailedCandidates, &rec.Error, &rec.CreatedAt, &rec.StartedAt, &rec.CompletedAt)
	if err != nil {
		return nil, err
	}
	rec.Status = types.SessionStatus(status)
	if rec.TotalCandidates > 0 {
		rec.ProgressPercent = float64(rec.ProcessedCandidates+rec.FailedCandidates) / float64(rec.TotalCandidates) * 100
	} else if rec.Status == types.SessionCompleted {
		rec.ProgressPercent = 100
	}
	if err := json.Unmarshal(configJSON, &rec.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session config: %w", err)
	}
	return &rec, nil
}

// GetSession retrieves a session by ID. It returns nil, nil when not found.
func (db *DB) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	rec, err := scanSession(db.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM match_sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return rec, nil
}

// ListSessions retrieves sessions newest first with optional filters, and the total matching count
func (db *DB) ListSessions(ctx context.Context, filters SessionFilters) ([]SessionRecord, int, error) {
	var where []string
	var args []any
	argNum := 1

	if filters.JobID != "" {
		where = append(where, fmt.Sprintf("job_id = $%d", argNum))
		args = append(args, filters.JobID)
		argNum++
	}
	if filters.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argNum))
		args = append(args, string(filters.Status))
		argNum++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM match_sessions`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + sessionColumns + ` FROM match_sessions` + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, limit, filters.Offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, total, nil
}

// DeleteSession deletes a session and its results (via cascade)
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM match_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}
