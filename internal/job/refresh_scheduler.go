// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Refresher reloads the catalog into every live view.
type Refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

// RefreshConfig holds refresh scheduler configuration.
type RefreshConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// RefreshScheduler periodically pushes a fresh catalog into the live browse
// sessions of this instance.
type RefreshScheduler struct {
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefreshScheduler creates a RefreshScheduler. A zero timeout uses the
// interval.
func NewRefreshScheduler(r Refresher, cfg RefreshConfig, logger *zap.Logger) *RefreshScheduler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = cfg.Interval
	}

	return &RefreshScheduler{
		refresher: r,
		interval:  cfg.Interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start begins the background refresh loop.
func (s *RefreshScheduler) Start(runOnStartup bool) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting refresh scheduler",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(runOnStartup)
}

// Stop cancels any refresh in flight and waits for the loop to exit.
func (s *RefreshScheduler) Stop() {
	if s == nil || s.cancel == nil {
		return
	}

	s.logger.Info("stopping refresh scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("refresh scheduler stopped")
}

func (s *RefreshScheduler) run(runOnStartup bool) {
	defer s.wg.Done()

	if runOnStartup {
		s.execute()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.execute()
		}
	}
}

func (s *RefreshScheduler) execute() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.refresher.RefreshAll(ctx)
	if err != nil {
		s.logger.Warn("session refresh failed",
			zap.Int("sessions", n),
			zap.Error(err),
		)
		return
	}

	if n > 0 {
		s.logger.Info("sessions refreshed",
			zap.Int("sessions", n),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
