package ranking

import (
	"testing"
	"time"

	"github.com/jonathan/resume-screener/internal/skills"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{
		types.DimensionSkills,
		types.DimensionExperience,
		types.DimensionEducation,
		types.DimensionSemantic,
		types.DimensionTitle,
		types.DimensionStability,
		types.DimensionGrowth,
	}, r.Names())

	_, ok := r.Get("semantic")
	assert.True(t, ok)
	_, ok = r.Get("nope")
	assert.False(t, ok)
}

type constDimension struct{ name string }

func (d constDimension) Name() string { return d.name }

func (constDimension) JobSupports(*types.JobProfile) bool { return true }

func (constDimension) Score(*types.CandidateProfile, *types.JobProfile) (Score, error) {
	return Score{Value: 0.42, Available: true}, nil
}

func TestRegistry_Register(t *testing.T) {
	r, err := NewRegistry(SkillsDimension{})
	require.NoError(t, err)

	require.NoError(t, r.Register(constDimension{name: "culture"}))
	assert.Error(t, r.Register(constDimension{name: "culture"}), "duplicate name")
	assert.Error(t, r.Register(constDimension{name: ""}), "empty name")

	assert.Equal(t, []string{"skills", "culture"}, r.Names())
}

func TestOrderDimensions(t *testing.T) {
	got := OrderDimensions([]string{"zeta", "semantic", "alpha", "skills"})
	assert.Equal(t, []string{"skills", "semantic", "alpha", "zeta"}, got)
}

func TestBuiltinDimensions(t *testing.T) {
	candidate := &types.CandidateProfile{
		Skills:               []string{"python", "react", "sql"},
		TotalExperienceYears: 4.5,
		Education:            []types.Education{{DegreeLevel: types.DegreeBachelor}},
		CurrentTitle:         "Backend Engineer",
		Experience: []types.ExperienceEntry{
			{Title: "Engineer", StartYear: 2019, EndYear: 2022},
			{Title: "Senior Engineer", StartYear: 2022},
		},
	}
	job := &types.JobProfile{
		Title:             "Senior Backend Engineer",
		RequiredSkills:    []string{"python", "sql", "docker"},
		PreferredSkills:   []string{"react"},
		ExperienceRange:   types.Range(3, 6),
		MinEducationLevel: types.DegreeBachelor,
	}

	s, err := SkillsDimension{}.Score(candidate, job)
	require.NoError(t, err)
	assert.InDelta(t, 0.717, s.Value, 0.001)
	assert.IsType(t, skills.SkillMatch{}, s.Detail)

	s, err = ExperienceDimension{}.Score(candidate, job)
	require.NoError(t, err)
	assert.Equal(t, types.ExperienceMet, s.Detail)

	s, err = SemanticDimension{}.Score(candidate, job)
	require.NoError(t, err)
	assert.False(t, s.Available)
	assert.False(t, SemanticDimension{}.JobSupports(job))

	s, err = TitleDimension{}.Score(candidate, job)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, s.Value, 1e-9)

	fixed := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	s, err = StabilityDimension{Now: fixed}.Score(candidate, job)
	require.NoError(t, err)
	assert.True(t, s.Available)
	assert.InDelta(t, 1.0, s.Value, 1e-9)

	s, err = GrowthDimension{}.Score(candidate, job)
	require.NoError(t, err)
	assert.InDelta(t, 0.625, s.Value, 1e-9)
}
