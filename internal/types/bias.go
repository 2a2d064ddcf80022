// Package types provides type definitions for structured data used throughout the resume-screener system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// RiskLevel is the upstream bias detector's verdict for a document
type RiskLevel string

// Risk levels reported by the bias detector
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// BiasFlags carries the upstream bias detector output for a candidate
type BiasFlags struct {
	RiskLevel           RiskLevel `json:"risk_level"`
	RecommendAdjustment bool      `json:"recommend_adjustment,omitempty"`
	ScoreDelta          *float64  `json:"score_delta,omitempty"` // informational only, never applied
}
