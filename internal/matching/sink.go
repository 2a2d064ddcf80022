package matching

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/jonathan/resume-screener/internal/types"
)

// ResultSink persists sessions and their results
type ResultSink interface {
	SaveSession(ctx context.Context, snapshot types.SessionSnapshot, cfg types.ScoringConfig) error
	SaveResults(ctx context.Context, sessionID string, results []*types.MatchResult) error
}

// BreakerSettings tune the persistence circuit breaker
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	MinRequests      uint32
	FailureThreshold float64
}

// DefaultBreakerSettings trips after half of at least five writes fail
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		MinRequests:      5,
		FailureThreshold: 0.5,
	}
}

// BreakerSink wraps a ResultSink with a circuit breaker so a failing database
// is skipped quickly instead of stalling every session
type BreakerSink struct {
	next ResultSink
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSink wraps next with a circuit breaker
func NewBreakerSink(next ResultSink, settings BreakerSettings, logger *zap.Logger) *BreakerSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "result-sink",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= settings.MinRequests && failureRatio >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &BreakerSink{next: next, cb: cb}
}

// SaveSession persists a session snapshot through the breaker
func (b *BreakerSink) SaveSession(ctx context.Context, snapshot types.SessionSnapshot, cfg types.ScoringConfig) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.SaveSession(ctx, snapshot, cfg)
	})
	return err
}

// SaveResults persists results through the breaker
func (b *BreakerSink) SaveResults(ctx context.Context, sessionID string, results []*types.MatchResult) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.SaveResults(ctx, sessionID, results)
	})
	return err
}

// State returns the breaker state, e.g. "closed" or "open"
func (b *BreakerSink) State() string {
	return b.cb.State().String()
}
