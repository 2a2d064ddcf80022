package db

import "github.com/jonathan/resume-screener/internal/types"

// SessionRecord is a persisted match session
type SessionRecord struct {
	types.SessionSnapshot
	Config types.ScoringConfig `json:"config"`
}

// SessionFilters holds optional filters for listing sessions
type SessionFilters struct {
	JobID  string
	Status types.SessionStatus
	Limit  int
	Offset int
}
