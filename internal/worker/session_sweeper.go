package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/salesflow/internal/session"
)

// SweepRecorder is told how many sessions each sweep removed.
type SweepRecorder interface {
	RecordSweep(removed int)
}

// SessionSweeper periodically purges expired sessions.
type SessionSweeper struct {
	store    session.Store
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
	recorder SweepRecorder
}

// NewSessionSweeper builds a sweeper. recorder may be nil.
func NewSessionSweeper(store session.Store, interval time.Duration, logger *zap.Logger, now func() time.Time, recorder SweepRecorder) *SessionSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SessionSweeper{store: store, interval: interval, logger: logger, now: now, recorder: recorder}
}

// RunOnce performs a single sweep.
func (s *SessionSweeper) RunOnce(ctx context.Context) (int, error) {
	removed, err := s.store.Sweep(ctx, s.now())
	if err != nil {
		s.logger.Warn("session sweep failed", zap.Error(err))
		return 0, err
	}
	if s.recorder != nil {
		s.recorder.RecordSweep(removed)
	}
	if removed > 0 {
		s.logger.Info("expired sessions swept", zap.Int("removed", removed))
	}
	return removed, nil
}

// Run sweeps on every tick until ctx is cancelled.
func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("session sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}

// StartSessionSweeper runs the sweeper in its own goroutine. The returned
// channel is closed once the sweeper has exited.
func StartSessionSweeper(ctx context.Context, sweeper *SessionSweeper) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sweeper.Run(ctx)
	}()
	return done
}
