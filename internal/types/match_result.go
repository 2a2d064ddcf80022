// Package types provides type definitions for structured data used throughout the resume-screener system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Dimension names known to the engine
const (
	DimensionSkills     = "skills"
	DimensionExperience = "experience"
	DimensionEducation  = "education"
	DimensionSemantic   = "semantic"
	DimensionTitle      = "title"
	DimensionStability  = "stability"
	DimensionGrowth     = "growth"
)

// Result status values
const (
	ResultStatusScored = "scored"
	ResultStatusFailed = "failed"
)

// ExperienceClassification describes how a candidate's years compare to the job range
type ExperienceClassification string

// Experience classifications
const (
	ExperienceUnknown        ExperienceClassification = "unknown"
	ExperienceMet            ExperienceClassification = "met"
	ExperienceOverqualified  ExperienceClassification = "overqualified"
	ExperienceUnderqualified ExperienceClassification = "underqualified"
)

// MatchResult is the scored outcome of one candidate against one job in a session
type MatchResult struct {
	ID              string  `json:"id"`
	SessionID       string  `json:"session_id"`
	CandidateID     string  `json:"candidate_id"`
	CandidateName   string  `json:"candidate_name,omitempty"`
	JobID           string  `json:"job_id"`
	OverallScore    float64 `json:"overall_score"`
	SkillScore      float64 `json:"skill_score"`
	ExperienceScore float64 `json:"experience_score"`
	EducationScore  float64 `json:"education_score"`
	// SemanticScore is nil when either embedding was absent and its weight was redistributed
	SemanticScore *float64 `json:"semantic_score"`

	// DimensionScores holds every available dimension's raw score, including extended ones
	DimensionScores map[string]float64       `json:"dimension_scores,omitempty"`
	Breakdown       []DimensionContribution  `json:"breakdown,omitempty"`
	Skills          *SkillBreakdown          `json:"skills,omitempty"`
	Experience      ExperienceClassification `json:"experience_classification,omitempty"`
	CandidateDegree DegreeLevel              `json:"candidate_degree_level"`
	BiasAdjusted    bool                     `json:"bias_adjusted"`
	Notes           string                   `json:"notes,omitempty"`

	// Rank is 0 until the session's final ranking pass
	Rank   int    `json:"rank,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Failed reports whether the candidate was skipped because scoring failed.
func (r *MatchResult) Failed() bool {
	return r.Status == ResultStatusFailed
}

// DimensionContribution explains one dimension's share of the overall score
type DimensionContribution struct {
	Dimension        string  `json:"dimension"`
	Score            float64 `json:"score"`
	ConfiguredWeight float64 `json:"configured_weight"`
	Weight           float64 `json:"weight"` // normalised over available dimensions
	Contribution     float64 `json:"contribution"`
	Available        bool    `json:"available"`
}

// SkillBreakdown lists which skills matched and which did not
type SkillBreakdown struct {
	MatchedRequired  []string `json:"matched_required"`
	MatchedPreferred []string `json:"matched_preferred"`
	Missing          []string `json:"missing"`
	Extra            []string `json:"extra"`
}
