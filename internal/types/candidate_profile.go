// Package types provides type definitions for structured data used throughout the resume-screener system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// CandidateProfile is the structured, extracted representation of a resume.
// Profiles are read-only to the matching engine.
type CandidateProfile struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name,omitempty"`
	Email                string            `json:"email,omitempty"`
	CurrentTitle         string            `json:"current_title,omitempty"`
	Skills               []string          `json:"skills"`
	TotalExperienceYears float64           `json:"total_experience_years"` // 0 means unknown
	Education            []Education       `json:"education,omitempty"`
	Experience           []ExperienceEntry `json:"experience,omitempty"`
	Embedding            []float64         `json:"embedding,omitempty"` // nil when absent
	BiasFlags            *BiasFlags        `json:"bias_flags,omitempty"`
}

// Education is a single education entry of a candidate
type Education struct {
	DegreeLevel DegreeLevel `json:"degree_level"`
	Degree      string      `json:"degree,omitempty"` // raw degree text, e.g. "B.Sc Computer Science"
	Field       string      `json:"field,omitempty"`
	Year        int         `json:"year,omitempty"`
}

// ExperienceEntry is a single position held by a candidate.
// EndYear is 0 for the current position.
type ExperienceEntry struct {
	Title     string `json:"title"`
	Company   string `json:"company,omitempty"`
	StartYear int    `json:"start_year,omitempty"`
	EndYear   int    `json:"end_year,omitempty"`
}

// HasExperienceData reports whether the candidate declared a positive number of years.
func (c *CandidateProfile) HasExperienceData() bool {
	return c.TotalExperienceYears > 0
}

// HighestDegree returns the maximum degree level across all education entries.
func (c *CandidateProfile) HighestDegree() DegreeLevel {
	highest := DegreeNone
	for _, edu := range c.Education {
		if edu.DegreeLevel > highest {
			highest = edu.DegreeLevel
		}
	}
	return highest
}

// LatestTitle returns the candidate's current title, falling back to the
// most recent experience entry.
func (c *CandidateProfile) LatestTitle() string {
	if c.CurrentTitle != "" {
		return c.CurrentTitle
	}
	latest := -1
	title := ""
	for _, exp := range c.Experience {
		end := exp.EndYear
		if end == 0 {
			end = 1 << 30
		}
		if end > latest {
			latest = end
			title = exp.Title
		}
	}
	return title
}
