package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/schemas"
	"github.com/jonathan/resume-screener/internal/types"
)

// loadJob validates and parses a job profile file
func loadJob(path string) (*types.JobProfile, error) {
	if err := schemas.ValidateFile(schemas.Job, path); err != nil {
		return nil, fmt.Errorf("job profile %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job profile %s: %w", path, err)
	}
	job, err := parsing.ParseJobProfile(data)
	if err != nil {
		return nil, fmt.Errorf("job profile %s: %w", path, err)
	}
	return job, nil
}

// loadCandidate validates and parses a single candidate profile file
func loadCandidate(path string) (*types.CandidateProfile, error) {
	if err := schemas.ValidateFile(schemas.Candidate, path); err != nil {
		return nil, fmt.Errorf("candidate profile %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate profile %s: %w", path, err)
	}
	c, err := parsing.ParseCandidateProfile(data)
	if err != nil {
		return nil, fmt.Errorf("candidate profile %s: %w", path, err)
	}
	return c, nil
}

// loadCandidates reads a candidate pool: a JSON array, or an object with a "candidates" array.
// Entries that fail validation or coercion stay in the pool as nil profiles with their error
// at the same index, so the session records them as failed candidates.
func loadCandidates(path string) ([]*types.CandidateProfile, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read candidates %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, nil, fmt.Errorf("candidates %s: %w", path, &parsing.ParseError{Message: "invalid JSON"})
	}

	pool := gjson.ParseBytes(data)
	if pool.IsObject() {
		pool = pool.Get("candidates")
	}
	if !pool.IsArray() {
		return nil, nil, fmt.Errorf("candidates %s: %w", path, &parsing.ParseError{Message: "expected an array of candidate profiles"})
	}

	candidates, errs, err := parsing.ParseCandidatesLenient([]byte(pool.Raw))
	if err != nil {
		return nil, nil, fmt.Errorf("candidates %s: %w", path, err)
	}

	for i, item := range pool.Array() {
		if err := schemas.Validate(schemas.Candidate, []byte(item.Raw)); err != nil {
			var verr *schemas.ValidationError
			if errors.As(err, &verr) {
				err = errors.New(verr.Summary())
			}
			candidates[i] = nil
			errs[i] = err
		}
	}
	return candidates, errs, nil
}
