// Package types provides type definitions for structured data used throughout the resume-screener system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// JobProfile represents a structured job description extracted from raw text
type JobProfile struct {
	ID                string           `json:"id"`
	Title             string           `json:"title,omitempty"`
	RequiredSkills    []string         `json:"required_skills"`
	PreferredSkills   []string         `json:"preferred_skills,omitempty"`
	ExperienceRange   *ExperienceRange `json:"experience_range,omitempty"`
	MinEducationLevel DegreeLevel      `json:"min_education_level"`
	Embedding         []float64        `json:"embedding,omitempty"`
}

// ExperienceRange is the job's required years of experience.
// A nil MaxYears means there is no upper bound.
type ExperienceRange struct {
	MinYears float64  `json:"min_years"`
	MaxYears *float64 `json:"max_years"`
}

// Bounded reports whether the range has an upper cap.
func (r *ExperienceRange) Bounded() bool {
	return r != nil && r.MaxYears != nil
}

// Range is a convenience constructor for a bounded experience range.
func Range(minYears, maxYears float64) *ExperienceRange {
	return &ExperienceRange{MinYears: minYears, MaxYears: &maxYears}
}

// OpenRange returns an experience range with no upper cap.
func OpenRange(minYears float64) *ExperienceRange {
	return &ExperienceRange{MinYears: minYears}
}
