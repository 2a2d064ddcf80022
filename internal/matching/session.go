package matching

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
)

// Session is one matching run of a job against a candidate population.
//
// All mutable state is guarded by a single RWMutex. Per-candidate results are
// written into pre-allocated slots so the pre-ranking order is always the
// candidate input order. Once completed or failed the session never changes.
type Session struct {
	id     string
	job    *types.JobProfile
	config types.ScoringConfig

	mu          sync.RWMutex
	status      types.SessionStatus
	total       int
	processed   int
	failed      int
	slots       []*types.MatchResult
	ranked      []*types.MatchResult
	errMsg      string
	createdAt   time.Time
	startedAt   *time.Time
	completedAt *time.Time
	subscribers map[int]chan types.SessionSnapshot
	nextSub     int
}

// NewSession creates a pending session for total candidates
func NewSession(job *types.JobProfile, cfg types.ScoringConfig, total int) *Session {
	return &Session{
		id:          uuid.NewString(),
		job:         job,
		config:      cfg,
		status:      types.SessionPending,
		total:       total,
		slots:       make([]*types.MatchResult, total),
		createdAt:   time.Now().UTC(),
		subscribers: make(map[int]chan types.SessionSnapshot),
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// Job returns the job the session scores against
func (s *Session) Job() *types.JobProfile { return s.job }

// Config returns the session's scoring configuration
func (s *Session) Config() types.ScoringConfig { return s.config }

// Status returns the current lifecycle state
func (s *Session) Status() types.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Start moves the session from pending to processing.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transitionLocked(types.SessionProcessing); err != nil {
		return err
	}
	now := time.Now().UTC()
	s.startedAt = &now
	s.notifyLocked()
	return nil
}

// Record stores the outcome for the candidate at index. Successful results
// advance processed_candidates; failed ones advance failed_candidates.
func (s *Session) Record(index int, result *types.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() {
		return ErrSessionFrozen
	}
	if s.status != types.SessionProcessing {
		return fmt.Errorf("%w: cannot record results while %s", ErrInvalidTransition, s.status)
	}
	if index < 0 || index >= len(s.slots) {
		return fmt.Errorf("candidate index %d out of range [0,%d)", index, len(s.slots))
	}
	if s.slots[index] != nil {
		return fmt.Errorf("candidate index %d already recorded", index)
	}

	s.slots[index] = result
	if result.Failed() {
		s.failed++
	} else {
		s.processed++
	}
	s.notifyLocked()
	return nil
}

// Complete ranks the successful results and freezes the session.
// It must be called only after every scoring task has finished.
func (s *Session) Complete() ([]*types.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transitionLocked(types.SessionCompleted); err != nil {
		return nil, err
	}

	s.ranked = ranking.Rank(s.slots)
	now := time.Now().UTC()
	s.completedAt = &now
	s.notifyLocked()
	s.closeSubscribersLocked()
	return copyResults(s.ranked), nil
}

// Fail moves the session to failed and discards any partial results.
func (s *Session) Fail(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transitionLocked(types.SessionFailed); err != nil {
		return err
	}

	s.errMsg = reason
	s.slots = nil
	s.ranked = nil
	now := time.Now().UTC()
	s.completedAt = &now
	s.notifyLocked()
	s.closeSubscribersLocked()
	return nil
}

// Results returns a copy of the ranked results. It is empty until the session completes.
func (s *Session) Results() []*types.MatchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyResults(s.ranked)
}

// Failures returns a copy of the skipped candidates' results in input order.
func (s *Session) Failures() []*types.MatchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.MatchResult
	for _, r := range s.slots {
		if r != nil && r.Failed() {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

// Snapshot returns a consistent view of the session's progress.
func (s *Session) Snapshot() types.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel of progress snapshots. The channel holds only the
// latest snapshot and is closed when the session reaches a terminal state.
// The returned func unsubscribes.
func (s *Session) Subscribe() (<-chan types.SessionSnapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan types.SessionSnapshot, 1)
	ch <- s.snapshotLocked()
	if s.status.Terminal() {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(c)
		}
	}
}

var allowedTransitions = map[types.SessionStatus]map[types.SessionStatus]bool{
	types.SessionPending:    {types.SessionProcessing: true},
	types.SessionProcessing: {types.SessionCompleted: true, types.SessionFailed: true},
}

func (s *Session) transitionLocked(to types.SessionStatus) error {
	if s.status.Terminal() {
		return ErrSessionFrozen
	}
	if !allowedTransitions[s.status][to] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.status, to)
	}
	s.status = to
	return nil
}

func (s *Session) snapshotLocked() types.SessionSnapshot {
	snap := types.SessionSnapshot{
		ID:                  s.id,
		Status:              s.status,
		TotalCandidates:     s.total,
		ProcessedCandidates: s.processed,
		FailedCandidates:    s.failed,
		Error:               s.errMsg,
		CreatedAt:           s.createdAt,
		StartedAt:           s.startedAt,
		CompletedAt:         s.completedAt,
	}
	if s.job != nil {
		snap.JobID = s.job.ID
		snap.JobTitle = s.job.Title
	}
	switch {
	case s.total > 0:
		snap.ProgressPercent = float64(s.processed+s.failed) / float64(s.total) * 100
	case s.status == types.SessionCompleted:
		snap.ProgressPercent = 100
	}
	return snap
}

// notifyLocked pushes the latest snapshot, replacing any unread one
func (s *Session) notifyLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *Session) closeSubscribersLocked() {
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
}

func copyResults(in []*types.MatchResult) []*types.MatchResult {
	out := make([]*types.MatchResult, len(in))
	for i, r := range in {
		cp := *r
		out[i] = &cp
	}
	return out
}
