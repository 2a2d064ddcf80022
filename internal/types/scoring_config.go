// Package types provides type definitions for structured data used throughout the resume-screener system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// ScoringConfig controls how candidates are scored in a session
type ScoringConfig struct {
	// Weights maps dimension name to a non-negative weight of any scale.
	// Only dimensions named here are scored.
	Weights     map[string]float64 `json:"weights" mapstructure:"weights"`
	BiasCheck   bool               `json:"bias_check" mapstructure:"bias_check"`
	Concurrency int                `json:"concurrency,omitempty" mapstructure:"concurrency"`
}

// DefaultWeights returns the reference dimension weights
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		DimensionSkills:     0.4,
		DimensionExperience: 0.3,
		DimensionEducation:  0.2,
		DimensionSemantic:   0.1,
	}
}

// DefaultScoringConfig returns the reference weights with bias checking enabled
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:   DefaultWeights(),
		BiasCheck: true,
	}
}
