// Package matching runs match sessions: it scores a population of candidates
// against one job, isolates per-candidate failures, and ranks the results.
package matching

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/jonathan/resume-screener/internal/bias"
	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/skills"
	"github.com/jonathan/resume-screener/internal/types"
)

// Engine scores single candidate/job pairs with a dimension registry
type Engine struct {
	registry *ranking.Registry
}

// NewEngine creates an engine. A nil registry uses every built-in dimension.
func NewEngine(registry *ranking.Registry) *Engine {
	if registry == nil {
		registry = ranking.DefaultRegistry()
	}
	return &Engine{registry: registry}
}

// Registry returns the engine's dimension registry
func (e *Engine) Registry() *ranking.Registry {
	return e.registry
}

// ValidateConfig checks weights against the registry.
// All-zero weights are allowed; the aggregate then falls back to the mean.
func (e *Engine) ValidateConfig(cfg types.ScoringConfig) error {
	if len(cfg.Weights) == 0 {
		return &SessionConfigError{Field: "weights", Message: "at least one dimension weight is required"}
	}
	for name, w := range cfg.Weights {
		if _, ok := e.registry.Get(name); !ok {
			return &SessionConfigError{Field: "weights." + name, Message: "unknown dimension"}
		}
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return &SessionConfigError{Field: "weights." + name, Message: fmt.Sprintf("weight must be a finite non-negative number, got %v", w)}
		}
	}
	if cfg.Concurrency < 0 {
		return &SessionConfigError{Field: "concurrency", Message: "must not be negative"}
	}
	return nil
}

// ValidateJob checks that the job can anchor a session under cfg.
func (e *Engine) ValidateJob(job *types.JobProfile, cfg types.ScoringConfig) error {
	if job == nil {
		return &SessionConfigError{Field: "job", Message: "job profile is required"}
	}
	if !ranking.ValidEmbedding(job.Embedding) {
		return &SessionConfigError{Field: "job.embedding", Message: "embedding contains non-finite values"}
	}
	for name := range cfg.Weights {
		if d, ok := e.registry.Get(name); ok && d.JobSupports(job) {
			return nil
		}
	}
	return &SessionConfigError{Field: "job", Message: "job has no data for any configured dimension"}
}

// ScoreCandidate scores one candidate against job. Errors are *ProfileError for
// unscoreable profiles and *CandidateScoringError for anything unexpected,
// including panics inside a dimension.
func (e *Engine) ScoreCandidate(sessionID string, index int, c *types.CandidateProfile, job *types.JobProfile, cfg types.ScoringConfig) (result *types.MatchResult, err error) {
	candidateID := ""
	if c != nil {
		candidateID = c.ID
	}
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = &CandidateScoringError{CandidateID: candidateID, Index: index, Cause: fmt.Errorf("panic: %v", p)}
		}
	}()

	if c == nil {
		return nil, &ProfileError{CandidateID: fmt.Sprintf("#%d", index), Message: "candidate profile is missing"}
	}

	scores := make(map[string]ranking.Score, len(cfg.Weights))
	for _, name := range ranking.OrderDimensions(keys(cfg.Weights)) {
		d, ok := e.registry.Get(name)
		if !ok {
			return nil, &CandidateScoringError{CandidateID: c.ID, Index: index, Cause: fmt.Errorf("dimension %q is not registered", name)}
		}
		s, err := d.Score(c, job)
		if err != nil {
			var dimErr *ranking.DimensionError
			if errors.As(err, &dimErr) {
				return nil, &ProfileError{CandidateID: c.ID, Message: "malformed profile", Cause: err}
			}
			return nil, &CandidateScoringError{CandidateID: c.ID, Index: index, Cause: err}
		}
		scores[name] = s
	}

	overall, breakdown, err := ranking.Aggregate(scores, cfg.Weights)
	if err != nil {
		if errors.Is(err, ranking.ErrNoAvailableDimensions) {
			return nil, &ProfileError{CandidateID: c.ID, Message: "no scoreable data", Cause: err}
		}
		return nil, &CandidateScoringError{CandidateID: c.ID, Index: index, Cause: err}
	}

	result = &types.MatchResult{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		CandidateID:     c.ID,
		CandidateName:   c.Name,
		JobID:           job.ID,
		OverallScore:    overall,
		DimensionScores: make(map[string]float64, len(scores)),
		Breakdown:       breakdown,
		CandidateDegree: c.HighestDegree(),
		Status:          types.ResultStatusScored,
	}
	for name, s := range scores {
		if s.Available {
			result.DimensionScores[name] = s.Value
		}
	}
	applyCoreScores(result, scores)

	_, result.BiasAdjusted = bias.Adjust(result.DimensionScores, c.BiasFlags, cfg.BiasCheck)
	result.Notes = ranking.GenerateNotes(result, job, c.BiasFlags)

	return result, nil
}

// FailedResult records a skipped candidate
func FailedResult(sessionID string, c *types.CandidateProfile, job *types.JobProfile, err error) *types.MatchResult {
	r := &types.MatchResult{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Status:    types.ResultStatusFailed,
		Error:     err.Error(),
	}
	if c != nil {
		r.CandidateID = c.ID
		r.CandidateName = c.Name
	}
	if job != nil {
		r.JobID = job.ID
	}
	return r
}

func applyCoreScores(r *types.MatchResult, scores map[string]ranking.Score) {
	if s, ok := scores[types.DimensionSkills]; ok && s.Available {
		r.SkillScore = s.Value
		if m, ok := s.Detail.(skills.SkillMatch); ok {
			r.Skills = &types.SkillBreakdown{
				MatchedRequired:  m.MatchedRequired,
				MatchedPreferred: m.MatchedPreferred,
				Missing:          m.Missing,
				Extra:            m.Extra,
			}
		}
	}
	if s, ok := scores[types.DimensionExperience]; ok && s.Available {
		r.ExperienceScore = s.Value
		if class, ok := s.Detail.(types.ExperienceClassification); ok {
			r.Experience = class
		}
	}
	if s, ok := scores[types.DimensionEducation]; ok && s.Available {
		r.EducationScore = s.Value
	}
	if s, ok := scores[types.DimensionSemantic]; ok && s.Available {
		v := s.Value
		r.SemanticScore = &v
	}
}

func keys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
