// Package ranking provides the per-dimension fit scorers, their weighted aggregation,
// and the final ordering of match results.
package ranking

import (
	"fmt"
	"sort"
	"time"

	"github.com/jonathan/resume-screener/internal/skills"
	"github.com/jonathan/resume-screener/internal/types"
)

// Score is one dimension's outcome for a candidate.
// An unavailable score carries no value and its weight is redistributed.
type Score struct {
	Value     float64
	Available bool

	// Detail is dimension-specific context for explanations (e.g. skills.SkillMatch)
	Detail any
}

// Dimension scores one axis of candidate/job fit. Implementations must be pure.
type Dimension interface {
	Name() string
	Score(candidate *types.CandidateProfile, job *types.JobProfile) (Score, error)
	// JobSupports reports whether the job carries the data this dimension needs
	JobSupports(job *types.JobProfile) bool
}

// Registry is a named collection of dimensions
type Registry struct {
	dims map[string]Dimension
}

// NewRegistry creates a registry holding dims.
func NewRegistry(dims ...Dimension) (*Registry, error) {
	r := &Registry{dims: make(map[string]Dimension, len(dims))}
	for _, d := range dims {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry holds every built-in dimension
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		SkillsDimension{},
		ExperienceDimension{},
		EducationDimension{},
		SemanticDimension{},
		TitleDimension{},
		StabilityDimension{Now: time.Now},
		GrowthDimension{},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a dimension. Names must be unique.
func (r *Registry) Register(d Dimension) error {
	name := d.Name()
	if name == "" {
		return fmt.Errorf("dimension name is required")
	}
	if _, exists := r.dims[name]; exists {
		return fmt.Errorf("dimension %q already registered", name)
	}
	r.dims[name] = d
	return nil
}

// Get looks up a dimension by name.
func (r *Registry) Get(name string) (Dimension, bool) {
	d, ok := r.dims[name]
	return d, ok
}

// Names returns registered dimension names in canonical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.dims))
	for name := range r.dims {
		names = append(names, name)
	}
	return OrderDimensions(names)
}

var canonicalOrder = map[string]int{
	types.DimensionSkills:     0,
	types.DimensionExperience: 1,
	types.DimensionEducation:  2,
	types.DimensionSemantic:   3,
	types.DimensionTitle:      4,
	types.DimensionStability:  5,
	types.DimensionGrowth:     6,
}

// OrderDimensions sorts names with the built-in dimensions first, then alphabetically.
func OrderDimensions(names []string) []string {
	out := append([]string(nil), names...)
	sort.SliceStable(out, func(i, j int) bool {
		oi, iKnown := canonicalOrder[out[i]]
		oj, jKnown := canonicalOrder[out[j]]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// SkillsDimension scores required/preferred skill coverage
type SkillsDimension struct{}

func (SkillsDimension) Name() string { return types.DimensionSkills }

func (SkillsDimension) JobSupports(*types.JobProfile) bool { return true }

func (SkillsDimension) Score(c *types.CandidateProfile, j *types.JobProfile) (Score, error) {
	m := skills.Match(c.Skills, j.RequiredSkills, j.PreferredSkills)
	return Score{Value: m.Score, Available: true, Detail: m}, nil
}

// ExperienceDimension scores total years against the job range
type ExperienceDimension struct{}

func (ExperienceDimension) Name() string { return types.DimensionExperience }

func (ExperienceDimension) JobSupports(*types.JobProfile) bool { return true }

func (ExperienceDimension) Score(c *types.CandidateProfile, j *types.JobProfile) (Score, error) {
	if !c.HasExperienceData() {
		return Score{Value: unknownExperience, Available: true, Detail: types.ExperienceUnknown}, nil
	}
	v, class := ScoreExperience(c.TotalExperienceYears, j.ExperienceRange)
	return Score{Value: v, Available: true, Detail: class}, nil
}

// EducationDimension scores the highest degree against the job minimum
type EducationDimension struct{}

func (EducationDimension) Name() string { return types.DimensionEducation }

func (EducationDimension) JobSupports(*types.JobProfile) bool { return true }

func (EducationDimension) Score(c *types.CandidateProfile, j *types.JobProfile) (Score, error) {
	return Score{Value: ScoreEducation(c.HighestDegree(), j.MinEducationLevel), Available: true}, nil
}

// SemanticDimension scores embedding cosine similarity
type SemanticDimension struct{}

func (SemanticDimension) Name() string { return types.DimensionSemantic }

func (SemanticDimension) JobSupports(j *types.JobProfile) bool { return len(j.Embedding) > 0 }

func (SemanticDimension) Score(c *types.CandidateProfile, j *types.JobProfile) (Score, error) {
	v, ok, err := CosineSimilarity(c.Embedding, j.Embedding)
	if err != nil {
		return Score{}, err
	}
	return Score{Value: v, Available: ok}, nil
}

// TitleDimension scores title token overlap
type TitleDimension struct{}

func (TitleDimension) Name() string { return types.DimensionTitle }

func (TitleDimension) JobSupports(j *types.JobProfile) bool { return len(titleTokens(j.Title)) > 0 }

func (TitleDimension) Score(c *types.CandidateProfile, j *types.JobProfile) (Score, error) {
	v, ok := ScoreTitle(c.LatestTitle(), j.Title)
	return Score{Value: v, Available: ok}, nil
}

// StabilityDimension scores average tenure
type StabilityDimension struct {
	Now func() time.Time
}

func (StabilityDimension) Name() string { return types.DimensionStability }

func (StabilityDimension) JobSupports(*types.JobProfile) bool { return true }

func (d StabilityDimension) Score(c *types.CandidateProfile, _ *types.JobProfile) (Score, error) {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	v, ok := ScoreStability(c.Experience, now().Year())
	return Score{Value: v, Available: ok}, nil
}

// GrowthDimension scores seniority progression
type GrowthDimension struct{}

func (GrowthDimension) Name() string { return types.DimensionGrowth }

func (GrowthDimension) JobSupports(*types.JobProfile) bool { return true }

func (GrowthDimension) Score(c *types.CandidateProfile, _ *types.JobProfile) (Score, error) {
	v, ok := ScoreGrowth(c.Experience)
	return Score{Value: v, Available: ok}, nil
}
