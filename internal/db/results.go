package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-screener/internal/types"
)

// -----------------------------------------------------------------------------
// Match Result Methods
// -----------------------------------------------------------------------------

// SaveResults replaces the stored results of a session. Ranked and failed results are
// written in one transaction.
func (db *DB) SaveResults(ctx context.Context, sessionID string, results []*types.MatchResult) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM match_results WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear results for session %s: %w", sessionID, err)
	}

	batch := &pgx.Batch{}
	for _, r := range results {
		if r == nil {
			continue
		}
		dims, err := json.Marshal(r.DimensionScores)
		if err != nil {
			return fmt.Errorf("failed to marshal dimension scores: %w", err)
		}
		breakdown, err := json.Marshal(r.Breakdown)
		if err != nil {
			return fmt.Errorf("failed to marshal breakdown: %w", err)
		}
		skills, err := json.Marshal(r.Skills)
		if err != nil {
			return fmt.Errorf("failed to marshal skill details: %w", err)
		}

		var rank *int
		if r.Rank > 0 {
			rank = &r.Rank
		}

		batch.Queue(
			`INSERT INTO match_results (id, session_id, candidate_id, candidate_name, job_id,
			        overall_score, skill_score, experience_score, education_score, semantic_score,
			        dimension_scores, breakdown, skill_details, experience_classification,
			        candidate_degree_level, bias_adjusted, rank, status, error_message, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NULLIF($19, ''), $20)`,
			r.ID, sessionID, r.CandidateID, r.CandidateName, r.JobID,
			r.OverallScore, r.SkillScore, r.ExperienceScore, r.EducationScore, r.SemanticScore,
			dims, breakdown, skills, string(r.Experience),
			int16(r.CandidateDegree), r.BiasAdjusted, rank, r.Status, r.Error, r.Notes,
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert results for session %s: %w", sessionID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}
	return nil
}

// GetResults retrieves the ranked results of a session, best first. topN <= 0 returns all of them.
// Failed results are returned after the ranked ones.
func (db *DB) GetResults(ctx context.Context, sessionID string, topN int) ([]*types.MatchResult, error) {
	query := `SELECT id::text, session_id::text, candidate_id, candidate_name, job_id,
	                 overall_score, skill_score, experience_score, education_score, semantic_score,
	                 dimension_scores, breakdown, skill_details, experience_classification,
	                 candidate_degree_level, bias_adjusted, COALESCE(rank, 0), status,
	                 COALESCE(error_message, ''), notes
	          FROM match_results
	          WHERE session_id = $1
	          ORDER BY rank ASC NULLS LAST, created_at ASC`
	args := []any{sessionID}
	if topN > 0 {
		query += ` LIMIT $2`
		args = append(args, topN)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()

	var results []*types.MatchResult
	for rows.Next() {
		var r types.MatchResult
		var dims, breakdown, skills []byte
		var classification string
		var degree int16
		if err := rows.Scan(&r.ID, &r.SessionID, &r.CandidateID, &r.CandidateName, &r.JobID,
			&r.OverallScore, &r.SkillScore, &r.ExperienceScore, &r.EducationScore, &r.SemanticScore,
			&dims, &breakdown, &skills, &classification,
			&degree, &r.BiasAdjusted, &r.Rank, &r.Status, &r.Error, &r.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Experience = types.ExperienceClassification(classification)
		r.CandidateDegree = types.DegreeLevel(degree)
		if err := unmarshalOptional(dims, &r.DimensionScores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dimension scores: %w", err)
		}
		if err := unmarshalOptional(breakdown, &r.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
		}
		if err := unmarshalOptional(skills, &r.Skills); err != nil {
			return nil, fmt.Errorf("failed to unmarshal skill details: %w", err)
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

func unmarshalOptional(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
