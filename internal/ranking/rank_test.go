package ranking

import (
	"testing"

	"github.com/jonathan/resume-screener/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	results := []*types.MatchResult{
		{CandidateID: "a", OverallScore: 0.5, Status: types.ResultStatusScored},
		{CandidateID: "b", OverallScore: 0.9, Status: types.ResultStatusScored},
		{CandidateID: "c", Status: types.ResultStatusFailed, Error: "boom"},
		{CandidateID: "d", OverallScore: 0.5, Status: types.ResultStatusScored},
		{CandidateID: "e", OverallScore: 0.7, Status: types.ResultStatusScored},
		nil,
	}

	ranked := Rank(results)
	require.Len(t, ranked, 4)

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.CandidateID
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"b", "e", "a", "d"}, ids, "ties keep input order")
	assert.Zero(t, results[2].Rank)
}

func TestRank_Empty(t *testing.T) {
	ranked := Rank(nil)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestGenerateNotes(t *testing.T) {
	delta := -0.1
	job := &types.JobProfile{MinEducationLevel: types.DegreeMaster}
	r := &types.MatchResult{
		SkillScore: 0.717,
		Skills: &types.SkillBreakdown{
			MatchedRequired: []string{"python", "sql"},
			Missing:         []string{"docker"},
		},
		Experience:      types.ExperienceOverqualified,
		CandidateDegree: types.DegreeBachelor,
		Breakdown: []types.DimensionContribution{
			{Dimension: "semantic", ConfiguredWeight: 0.1, Available: false},
		},
		BiasAdjusted: true,
	}

	notes := GenerateNotes(r, job, &types.BiasFlags{RiskLevel: types.RiskHigh, ScoreDelta: &delta})
	assert.Contains(t, notes, "Strong skill match (python, sql)")
	assert.Contains(t, notes, "Missing docker")
	assert.Contains(t, notes, "Overqualified")
	assert.Contains(t, notes, "Education below master")
	assert.Contains(t, notes, "Weight redistributed from semantic")
	assert.Contains(t, notes, "suggested delta -0.10, not applied")
}
