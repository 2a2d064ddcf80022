package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/jonathan/resume-screener/internal/types"
)

// toVector converts an embedding to a pgvector parameter. Absent embeddings are stored as NULL.
func toVector(embedding []float64) any {
	if len(embedding) == 0 {
		return nil
	}
	f := make([]float32, len(embedding))
	for i, x := range embedding {
		f[i] = float32(x)
	}
	return pgvector.NewVector(f)
}

// fromVector parses the text form of a vector column
func fromVector(text *string) ([]float64, error) {
	if text == nil {
		return nil, nil
	}
	var v pgvector.Vector
	if err := v.Scan(*text); err != nil {
		return nil, fmt.Errorf("failed to parse embedding: %w", err)
	}
	f := v.Slice()
	out := make([]float64, len(f))
	for i, x := range f {
		out[i] = float64(x)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Candidate Methods
// -----------------------------------------------------------------------------

// SaveCandidate upserts a candidate profile. The embedding is stored in its own vector column.
func (db *DB) SaveCandidate(ctx context.Context, c *types.CandidateProfile) error {
	stripped := *c
	stripped.Embedding = nil
	profileJSON, err := json.Marshal(stripped)
	if err != nil {
		return fmt.Errorf("failed to marshal candidate: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO candidates (id, name, email, profile, embedding)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		        name = EXCLUDED.name,
		        email = EXCLUDED.email,
		        profile = EXCLUDED.profile,
		        embedding = EXCLUDED.embedding,
		        updated_at = NOW()`,
		c.ID, c.Name, c.Email, profileJSON, toVector(c.Embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to save candidate %s: %w", c.ID, err)
	}
	return nil
}

func scanCandidate(row pgx.Row) (*types.CandidateProfile, error) {
	var profileJSON []byte
	var embedding *string
	if err := row.Scan(&profileJSON, &embedding); err != nil {
		return nil, err
	}
	var c types.CandidateProfile
	if err := json.Unmarshal(profileJSON, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal candidate: %w", err)
	}
	emb, err := fromVector(embedding)
	if err != nil {
		return nil, err
	}
	c.Embedding = emb
	return &c, nil
}

// GetCandidate retrieves a candidate by ID. It returns nil, nil when not found.
func (db *DB) GetCandidate(ctx context.Context, id string) (*types.CandidateProfile, error) {
	c, err := scanCandidate(db.pool.QueryRow(ctx,
		`SELECT profile, embedding::text FROM candidates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate %s: %w", id, err)
	}
	return c, nil
}

// ListCandidates retrieves candidates in the order of ids. Unknown ids are skipped.
func (db *DB) ListCandidates(ctx context.Context, ids []string) ([]*types.CandidateProfile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT c.profile, c.embedding::text
		 FROM unnest($1::text[]) WITH ORDINALITY AS want(id, ord)
		 JOIN candidates c ON c.id = want.id
		 ORDER BY want.ord`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*types.CandidateProfile
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return candidates, nil
}

// NearestCandidates returns up to limit candidate IDs ordered by cosine distance to the embedding
func (db *DB) NearestCandidates(ctx context.Context, embedding []float64, limit int) ([]string, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding is required")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id FROM candidates
		 WHERE embedding IS NOT NULL AND vector_dims(embedding) = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`, toVector(embedding), len(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest candidates: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidate ids: %w", err)
	}
	return ids, nil
}

// -----------------------------------------------------------------------------
// Job Methods
// -----------------------------------------------------------------------------

// SaveJob upserts a job profile
func (db *DB) SaveJob(ctx context.Context, j *types.JobProfile) error {
	stripped := *j
	stripped.Embedding = nil
	profileJSON, err := json.Marshal(stripped)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO jobs (id, title, profile, embedding)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		        title = EXCLUDED.title,
		        profile = EXCLUDED.profile,
		        embedding = EXCLUDED.embedding,
		        updated_at = NOW()`,
		j.ID, j.Title, profileJSON, toVector(j.Embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", j.ID, err)
	}
	return nil
}

// GetJob retrieves a job by ID. It returns nil, nil when not found.
func (db *DB) GetJob(ctx context.Context, id string) (*types.JobProfile, error) {
	var profileJSON []byte
	var embedding *string
	err := db.pool.QueryRow(ctx,
		`SELECT profile, embedding::text FROM jobs WHERE id = $1`, id,
	).Scan(&profileJSON, &embedding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}

	var j types.JobProfile
	if err := json.Unmarshal(profileJSON, &j); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if j.Embedding, err = fromVector(embedding); err != nil {
		return nil, err
	}
	return &j, nil
}
