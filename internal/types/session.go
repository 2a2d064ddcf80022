// Package types provides type definitions for structured data used throughout the resume-screener system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// SessionStatus is a match session lifecycle state
type SessionStatus string

// Session states. A session moves pending -> processing -> completed|failed and is never reopened.
const (
	SessionPending    SessionStatus = "pending"
	SessionProcessing SessionStatus = "processing"
	SessionCompleted  SessionStatus = "completed"
	SessionFailed     SessionStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// SessionSnapshot is a point-in-time, copy-safe view of a session's progress
type SessionSnapshot struct {
	ID                  string        `json:"id"`
	JobID               string        `json:"job_id"`
	JobTitle            string        `json:"job_title,omitempty"`
	Status              SessionStatus `json:"status"`
	TotalCandidates     int           `json:"total_candidates"`
	ProcessedCandidates int           `json:"processed_candidates"`
	FailedCandidates    int           `json:"failed_candidates"`
	ProgressPercent     float64       `json:"progress_percent"`
	Error               string        `json:"error,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	StartedAt           *time.Time    `json:"started_at,omitempty"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"`
}
