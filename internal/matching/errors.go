package matching

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionFrozen is returned when a completed or failed session is asked to change
	ErrSessionFrozen = errors.New("session is frozen")
	// ErrInvalidTransition is returned for a state change the lifecycle does not allow
	ErrInvalidTransition = errors.New("invalid session state transition")
	// ErrSessionNotFound is returned when a session ID is unknown to the manager
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionRunning is returned when a session that has not finished is asked to be removed
	ErrSessionRunning = errors.New("session is still running")
)

// ProfileError represents a candidate profile that cannot be scored.
// The candidate is skipped; the session continues.
type ProfileError struct {
	CandidateID string
	Message     string
	Cause       error
}

func (e *ProfileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("candidate %s: %s: %v", e.CandidateID, e.Message, e.Cause)
	}
	return fmt.Sprintf("candidate %s: %s", e.CandidateID, e.Message)
}

func (e *ProfileError) Unwrap() error {
	return e.Cause
}

// CandidateScoringError represents an unexpected failure, including a panic,
// while scoring one candidate. The candidate is skipped; the session continues.
type CandidateScoringError struct {
	CandidateID string
	Index       int
	Cause       error
}

func (e *CandidateScoringError) Error() string {
	return fmt.Sprintf("scoring candidate %d (%s) failed: %v", e.Index, e.CandidateID, e.Cause)
}

func (e *CandidateScoringError) Unwrap() error {
	return e.Cause
}

// SessionConfigError represents a problem that makes the whole session meaningless:
// a missing job, invalid weights, or a job with nothing to score against.
type SessionConfigError struct {
	Field   string
	Message string
}

func (e *SessionConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("session configuration error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("session configuration error: %s", e.Message)
}
