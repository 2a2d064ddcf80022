package matching

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-screener/internal/types"
)

// Manager runs sessions in the background and keeps them addressable by ID
type Manager struct {
	runner *Runner
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	cancels  map[string]context.CancelFunc
	finished map[string]time.Time
	defaults types.ScoringConfig

	retainFor   time.Duration
	maxRetained int
	now         func() time.Time

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithRetention evicts finished sessions from memory once they are older than ttl,
// or once more than max of them are held. Zero disables either limit.
// Use it only when finished sessions can be read back from a store.
func WithRetention(ttl time.Duration, max int) ManagerOption {
	return func(m *Manager) {
		m.retainFor = ttl
		m.maxRetained = max
	}
}

// NewManager creates a Manager whose sessions run until Shutdown
func NewManager(runner *Runner, defaults types.ScoringConfig, logger *zap.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	m := &Manager{
		runner:   runner,
		logger:   logger,
		sessions: make(map[string]*Session),
		cancels:  make(map[string]context.CancelFunc),
		finished: make(map[string]time.Time),
		defaults: defaults,
		now:      time.Now,
		baseCtx:  ctx,
		stop:     stop,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Validate checks cfg against the runner's dimension registry
func (m *Manager) Validate(cfg types.ScoringConfig) error {
	return m.runner.Engine().ValidateConfig(cfg)
}

// SetDefaults replaces the configuration applied to sessions started without one.
// An invalid cfg is rejected and the previous defaults stay in effect.
func (m *Manager) SetDefaults(cfg types.ScoringConfig) error {
	if err := m.Validate(cfg); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults = cfg
	m.logger.Info("default scoring configuration updated", zap.Any("weights", cfg.Weights))
	return nil
}

// Defaults returns a copy of the current default configuration
func (m *Manager) Defaults() types.ScoringConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.defaults
	cfg.Weights = make(map[string]float64, len(m.defaults.Weights))
	for k, v := range m.defaults.Weights {
		cfg.Weights[k] = v
	}
	return cfg
}

// Start registers a new session and scores it in the background.
// A nil cfg uses the manager defaults.
func (m *Manager) Start(job *types.JobProfile, candidates []*types.CandidateProfile, cfg *types.ScoringConfig) *Session {
	effective := m.Defaults()
	if cfg != nil {
		effective = *cfg
	}

	s := NewSession(job, effective, len(candidates))
	ctx, cancel := context.WithCancel(m.baseCtx)

	m.mu.Lock()
	m.evictLocked()
	m.sessions[s.ID()] = s
	m.cancels[s.ID()] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.release(s.ID())
		if err := m.runner.Run(ctx, s, candidates); err != nil {
			m.logger.Debug("background session ended with error", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}()

	return s
}

// Get returns a session by ID
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// List returns session snapshots newest first, with the total count
func (m *Manager) List(offset, limit int) ([]types.SessionSnapshot, int) {
	m.mu.RLock()
	snaps := make([]types.SessionSnapshot, 0, len(m.sessions))
	for _, s := range m.sessions {
		snaps = append(snaps, s.Snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].ID < snaps[j].ID
		}
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})

	total := len(snaps)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []types.SessionSnapshot{}, total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return snaps[offset:end], total
}

// Cancel stops a running session; it ends failed with reason "context canceled"
func (m *Manager) Cancel(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if s.Status().Terminal() {
		return ErrSessionFrozen
	}

	m.mu.RLock()
	cancel, ok := m.cancels[id]
	m.mu.RUnlock()
	if ok {
		cancel()
	}
	return nil
}

// Remove forgets a finished session. A running session must be canceled first.
func (m *Manager) Remove(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if !s.Status().Terminal() {
		return ErrSessionRunning
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.finished, id)
	return nil
}

// Shutdown cancels every running session and waits for them to stop
func (m *Manager) Shutdown(ctx context.Context) error {
	m.stop()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.cancels[id]; ok {
		cancel()
		delete(m.cancels, id)
	}
	if _, ok := m.sessions[id]; ok {
		m.finished[id] = m.now()
	}
	m.evictLocked()
}

// evictLocked drops finished sessions past the retention limits, oldest first
func (m *Manager) evictLocked() {
	if m.retainFor <= 0 && m.maxRetained <= 0 {
		return
	}

	type entry struct {
		id string
		at time.Time
	}
	done := make([]entry, 0, len(m.finished))
	for id, at := range m.finished {
		done = append(done, entry{id: id, at: at})
	}
	sort.Slice(done, func(i, j int) bool { return done[i].at.Before(done[j].at) })

	now := m.now()
	excess := 0
	if m.maxRetained > 0 && len(done) > m.maxRetained {
		excess = len(done) - m.maxRetained
	}
	for i, e := range done {
		expired := m.retainFor > 0 && now.Sub(e.at) > m.retainFor
		if i >= excess && !expired {
			continue
		}
		delete(m.sessions, e.id)
		delete(m.finished, e.id)
		m.logger.Debug("evicted finished session", zap.String("session_id", e.id))
	}
}
