package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ReportPurger deletes reports past their retention
type ReportPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Scheduler periodically purges expired reports
type Scheduler struct {
	purger     ReportPurger
	interval   time.Duration
	startDelay time.Duration // first run happens after this delay
	logger     *slog.Logger
	stopCh     chan struct{} // replaced on every Start
	cancel     context.CancelFunc // Cancel function to stop in-flight operations
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

// Config holds configuration for the retention scheduler
type Config struct {
	Interval   time.Duration
	StartDelay time.Duration
}

// New creates a new retention scheduler
func New(purger ReportPurger, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	if cfg.StartDelay == 0 {
		cfg.StartDelay = 15 * time.Second
	}

	return &Scheduler{
		purger:     purger,
		interval:   cfg.Interval,
		startDelay: cfg.StartDelay,
		logger:     logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.logger.Info("retention scheduler started", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx, stopCh)
}

// Stop stops the scheduler and waits for an in-flight purge to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	stopCh := s.stopCh
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	close(stopCh)
	s.wg.Wait()
	s.logger.Info("retention scheduler stopped")
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	select {
	case <-time.After(s.startDelay):
		s.process(ctx)
	case <-stopCh:
		return
	case <-ctx.Done():
		return
	}

	for {
		select {
		case <-ticker.C:
			s.process(ctx)
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// process runs one purge
func (s *Scheduler) process(ctx context.Context) {
	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("failed to purge expired reports", "error", err)
		return
	}

	if n == 0 {
		s.logger.Debug("no expired reports")
		return
	}
	s.logger.Info("purged expired reports", "count", n)
}
