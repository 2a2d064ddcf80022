package matching

import (
	"math"
	"testing"

	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ScoreCandidate_Scenario(t *testing.T) {
	engine := NewEngine(nil)

	result, err := engine.ScoreCandidate("s-1", 0, scenarioCandidate("c-1"), scenarioJob(), types.DefaultScoringConfig())
	require.NoError(t, err)

	assert.Equal(t, types.ResultStatusScored, result.Status)
	assert.Equal(t, "s-1", result.SessionID)
	assert.Equal(t, "job-1", result.JobID)
	assert.InDelta(t, 0.717, result.SkillScore, 0.001)
	assert.Equal(t, 1.0, result.ExperienceScore)
	assert.Equal(t, 1.0, result.EducationScore)
	assert.Nil(t, result.SemanticScore)
	assert.InDelta(t, 0.874, result.OverallScore, 0.001)
	assert.Equal(t, types.ExperienceMet, result.Experience)

	require.NotNil(t, result.Skills)
	assert.Equal(t, []string{"python", "sql"}, result.Skills.MatchedRequired)
	assert.Equal(t, []string{"docker"}, result.Skills.Missing)
	assert.Equal(t, []string{"react"}, result.Skills.MatchedPreferred)

	_, hasSemantic := result.DimensionScores[types.DimensionSemantic]
	assert.False(t, hasSemantic)
	assert.Len(t, result.Breakdown, 4)
	assert.Contains(t, result.Notes, "Weight redistributed from semantic")
	assert.False(t, result.BiasAdjusted)
}

func TestEngine_ScoreCandidate_WithEmbeddings(t *testing.T) {
	engine := NewEngine(nil)
	job := scenarioJob()
	job.Embedding = []float64{1, 0, 0}
	c := scenarioCandidate("c-1")
	c.Embedding = []float64{1, 0, 0}

	result, err := engine.ScoreCandidate("s", 0, c, job, types.DefaultScoringConfig())
	require.NoError(t, err)
	require.NotNil(t, result.SemanticScore)
	assert.Equal(t, 1.0, *result.SemanticScore)

	expected := 0.4*result.SkillScore + 0.3 + 0.2 + 0.1
	assert.InDelta(t, expected, result.OverallScore, 1e-9)
}

func TestEngine_ScoreCandidate_BiasIsObservational(t *testing.T) {
	engine := NewEngine(nil)
	delta := -0.3

	plain, err := engine.ScoreCandidate("s", 0, scenarioCandidate("a"), scenarioJob(), types.DefaultScoringConfig())
	require.NoError(t, err)

	flagged := scenarioCandidate("b")
	flagged.BiasFlags = &types.BiasFlags{RiskLevel: types.RiskHigh, RecommendAdjustment: true, ScoreDelta: &delta}
	result, err := engine.ScoreCandidate("s", 1, flagged, scenarioJob(), types.DefaultScoringConfig())
	require.NoError(t, err)

	assert.True(t, result.BiasAdjusted)
	assert.Equal(t, plain.OverallScore, result.OverallScore)
	assert.Contains(t, result.Notes, "not applied")

	cfg := types.DefaultScoringConfig()
	cfg.BiasCheck = false
	result, err = engine.ScoreCandidate("s", 1, flagged, scenarioJob(), cfg)
	require.NoError(t, err)
	assert.False(t, result.BiasAdjusted)
}

func TestEngine_ScoreCandidate_Errors(t *testing.T) {
	engine := NewEngine(nil)
	job := scenarioJob()
	job.Embedding = []float64{1, 0, 0}

	mismatched := scenarioCandidate("bad")
	mismatched.Embedding = []float64{1, 0}
	_, err := engine.ScoreCandidate("s", 3, mismatched, job, types.DefaultScoringConfig())
	var profileErr *ProfileError
	require.ErrorAs(t, err, &profileErr)
	assert.Equal(t, "bad", profileErr.CandidateID)

	_, err = engine.ScoreCandidate("s", 4, nil, job, types.DefaultScoringConfig())
	require.ErrorAs(t, err, &profileErr)

	onlySemantic := types.ScoringConfig{Weights: map[string]float64{"semantic": 1}}
	_, err = engine.ScoreCandidate("s", 5, scenarioCandidate("no-embedding"), job, onlySemantic)
	require.ErrorAs(t, err, &profileErr)
	assert.ErrorIs(t, err, ranking.ErrNoAvailableDimensions)
}

func TestEngine_ScoreCandidate_RecoversPanic(t *testing.T) {
	registry, err := ranking.NewRegistry(ranking.SkillsDimension{}, panicDimension{target: "c-2"})
	require.NoError(t, err)
	engine := NewEngine(registry)
	cfg := types.ScoringConfig{Weights: map[string]float64{"skills": 1, "flaky": 1}}

	_, err = engine.ScoreCandidate("s", 2, scenarioCandidate("c-2"), scenarioJob(), cfg)
	var scoringErr *CandidateScoringError
	require.ErrorAs(t, err, &scoringErr)
	assert.Equal(t, 2, scoringErr.Index)
	assert.Contains(t, err.Error(), "boom on c-2")
}

func TestEngine_ValidateConfig(t *testing.T) {
	engine := NewEngine(nil)

	tests := []struct {
		name    string
		cfg     types.ScoringConfig
		wantErr bool
	}{
		{"defaults", types.DefaultScoringConfig(), false},
		{"rescaled", types.ScoringConfig{Weights: map[string]float64{"skills": 4, "experience": 3}}, false},
		{"all zero falls back to mean", types.ScoringConfig{Weights: map[string]float64{"skills": 0}}, false},
		{"extended dimension", types.ScoringConfig{Weights: map[string]float64{"title": 1, "growth": 0.5}}, false},
		{"empty", types.ScoringConfig{}, true},
		{"unknown dimension", types.ScoringConfig{Weights: map[string]float64{"luck": 1}}, true},
		{"negative", types.ScoringConfig{Weights: map[string]float64{"skills": -1}}, true},
		{"negative concurrency", types.ScoringConfig{Weights: map[string]float64{"skills": 1}, Concurrency: -2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.ValidateConfig(tt.cfg)
			if tt.wantErr {
				var cfgErr *SessionConfigError
				assert.ErrorAs(t, err, &cfgErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEngine_ValidateJob(t *testing.T) {
	engine := NewEngine(nil)
	cfg := types.DefaultScoringConfig()

	assert.NoError(t, engine.ValidateJob(scenarioJob(), cfg))

	var cfgErr *SessionConfigError
	assert.ErrorAs(t, engine.ValidateJob(nil, cfg), &cfgErr)

	bad := scenarioJob()
	bad.Embedding = []float64{1, math.NaN()}
	assert.ErrorAs(t, engine.ValidateJob(bad, cfg), &cfgErr)

	onlySemantic := types.ScoringConfig{Weights: map[string]float64{"semantic": 1}}
	assert.ErrorAs(t, engine.ValidateJob(scenarioJob(), onlySemantic), &cfgErr)
}
