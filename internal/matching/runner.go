package matching

import (
	"context"
	"errors"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/types"
)

// MetricsRecorder receives session and candidate outcomes
type MetricsRecorder interface {
	SessionStarted()
	SessionFinished(status types.SessionStatus, elapsed time.Duration)
	CandidateScored(elapsed time.Duration)
	CandidateFailed()
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted() {}

func (nopRecorder) SessionFinished(types.SessionStatus, time.Duration) {}

func (nopRecorder) CandidateScored(time.Duration) {}

func (nopRecorder) CandidateFailed() {}

// Runner drives sessions through their lifecycle with a bounded worker pool
type Runner struct {
	engine      *Engine
	logger      *zap.Logger
	metrics     MetricsRecorder
	sink        ResultSink
	concurrency int
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithMetrics sets the metrics recorder
func WithMetrics(m MetricsRecorder) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithSink persists session state and results after each run
func WithSink(sink ResultSink) RunnerOption {
	return func(r *Runner) { r.sink = sink }
}

// WithConcurrency sets the default worker limit; sessions may override it
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) { r.concurrency = n }
}

// NewRunner creates a Runner
func NewRunner(engine *Engine, opts ...RunnerOption) *Runner {
	r := &Runner{
		engine:  engine,
		logger:  zap.NewNop(),
		metrics: nopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.engine == nil {
		r.engine = NewEngine(nil)
	}
	return r
}

// Engine returns the runner's scoring engine
func (r *Runner) Engine() *Engine {
	return r.engine
}

// Run scores candidates against the session's job and completes the session.
//
// Per-candidate failures are recorded and skipped. A configuration problem, a
// candidate count that differs from the session's, or cancellation of ctx fails
// the session and is returned. Candidates are checked
// against ctx before scoring starts, so cancellation abandons remaining work
// without interrupting a candidate mid-score.
func (r *Runner) Run(ctx context.Context, s *Session, candidates []*types.CandidateProfile) error {
	if err := s.Start(); err != nil {
		return err
	}

	started := time.Now()
	snap := s.Snapshot()
	log := logger.ForSession(r.logger, snap.ID, snap.JobID)
	r.metrics.SessionStarted()
	r.persistSession(ctx, s, log)

	if len(candidates) != snap.TotalCandidates {
		return r.fail(ctx, s, log, started, &SessionConfigError{Field: "candidates", Message: "candidate count does not match session"})
	}

	cfg := s.Config()
	if err := r.engine.ValidateConfig(cfg); err != nil {
		return r.fail(ctx, s, log, started, err)
	}
	if err := r.engine.ValidateJob(s.Job(), cfg); err != nil {
		return r.fail(ctx, s, log, started, err)
	}

	log.Info("scoring candidates",
		zap.Int("candidates", len(candidates)),
		zap.Int("concurrency", r.limit(cfg)))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit(cfg))

	for i, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			r.scoreOne(s, i, c, log)
			return nil
		})
	}

	// Wait is the barrier: ranking never starts while a candidate is being scored
	waitErr := g.Wait()
	if err := ctx.Err(); err != nil {
		return r.fail(ctx, s, log, started, err)
	}
	if waitErr != nil {
		return r.fail(ctx, s, log, started, waitErr)
	}

	ranked, err := s.Complete()
	if err != nil {
		return err
	}

	elapsed := time.Since(started)
	r.metrics.SessionFinished(types.SessionCompleted, elapsed)
	snap = s.Snapshot()
	log.Info("session completed",
		zap.Int("ranked", len(ranked)),
		zap.Int("failed", snap.FailedCandidates),
		zap.Duration("elapsed", elapsed))

	r.persistSession(ctx, s, log)
	if r.sink != nil {
		results := append(ranked, s.Failures()...)
		if err := r.sink.SaveResults(context.WithoutCancel(ctx), s.ID(), results); err != nil {
			log.Warn("failed to persist results", zap.Error(err))
		}
	}

	return nil
}

func (r *Runner) scoreOne(s *Session, index int, c *types.CandidateProfile, log *zap.Logger) {
	started := time.Now()
	result, err := r.engine.ScoreCandidate(s.ID(), index, c, s.Job(), s.Config())
	if err != nil {
		log.Warn("skipping candidate", zap.Int("index", index), zap.Error(err))
		result = FailedResult(s.ID(), c, s.Job(), err)
		r.metrics.CandidateFailed()
	} else {
		r.metrics.CandidateScored(time.Since(started))
	}

	if err := s.Record(index, result); err != nil {
		log.Error("failed to record result", zap.Int("index", index), zap.Error(err))
	}
}

func (r *Runner) fail(ctx context.Context, s *Session, log *zap.Logger, started time.Time, cause error) error {
	if err := s.Fail(cause.Error()); err != nil && !errors.Is(err, ErrSessionFrozen) {
		log.Error("failed to mark session failed", zap.Error(err))
	}
	r.metrics.SessionFinished(types.SessionFailed, time.Since(started))
	log.Warn("session failed", zap.Error(cause))
	r.persistSession(ctx, s, log)
	return cause
}

func (r *Runner) persistSession(ctx context.Context, s *Session, log *zap.Logger) {
	if r.sink == nil {
		return
	}
	if err := r.sink.SaveSession(context.WithoutCancel(ctx), s.Snapshot(), s.Config()); err != nil {
		log.Warn("failed to persist session", zap.Error(err))
	}
}

func (r *Runner) limit(cfg types.ScoringConfig) int {
	switch {
	case cfg.Concurrency > 0:
		return cfg.Concurrency
	case r.concurrency > 0:
		return r.concurrency
	default:
		return runtime.NumCPU()
	}
}
