package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/geneontology/go-api/internal/domain/ontology"
	"github.com/geneontology/go-api/internal/infrastructure/telemetry"
	"github.com/geneontology/go-api/internal/infrastructure/upstream"
)

const defaultWarmupTimeout = 2 * time.Minute

// SubsetLoader loads a subset through the result cache.
type SubsetLoader interface {
	Subset(ctx context.Context, subsetID string) ([]ontology.SubsetCategory, error)
}

// WarmupConfig holds configuration for the subset warmup
type WarmupConfig struct {
	// Schedule is a standard five-field cron expression
	Schedule string
	// Subsets are re-fetched in order on every run
	Subsets []string
	// RunOnStart triggers one run right after Start
	RunOnStart bool
	// Timeout bounds the loading of a single subset
	Timeout time.Duration
}

// WarmupScheduler periodically re-fetches subsets so ribbons find their
// categories in the cache. Failures are logged and never stop the schedule.
type WarmupScheduler struct {
	config  WarmupConfig
	loader  SubsetLoader
	metrics *telemetry.Metrics
	logger  *zap.Logger

	cron      *cron.Cron
	schedule  cron.Schedule
	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWarmupScheduler creates a WarmupScheduler. The schedule is parsed here so
// that a bad expression fails at startup.
func NewWarmupScheduler(config WarmupConfig, loader SubsetLoader, metrics *telemetry.Metrics, logger *zap.Logger) (*WarmupScheduler, error) {
	schedule, err := cron.ParseStandard(config.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: warmup schedule %q: %v", ErrInvalidConfig, config.Schedule, err)
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultWarmupTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cronLogger := newCronLogger(logger)
	return &WarmupScheduler{
		config:   config,
		loader:   loader,
		metrics:  metrics,
		logger:   logger,
		schedule: schedule,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}, nil
}

// Start registers the warmup job and starts the cron loop.
func (s *WarmupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		s.RunOnce(ctx)
	}))
	s.cron.Start()
	s.isRunning = true

	if s.config.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.RunOnce(ctx)
		}()
	}

	s.logger.Info("Warmup scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.Strings("subsets", s.config.Subsets),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)
	return nil
}

// Stop cancels in-flight loads and waits for running jobs until ctx expires.
func (s *WarmupScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Warmup scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *WarmupScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunOnce refreshes every configured subset, bypassing cached results, and
// returns the number of subsets that failed.
func (s *WarmupScheduler) RunOnce(ctx context.Context) int {
	failed := 0
	for _, subset := range s.config.Subsets {
		if ctx.Err() != nil {
			return failed
		}
		if err := s.warm(ctx, subset); err != nil {
			failed++
			s.logger.Warn("Subset warmup failed", zap.String("subset", subset), zap.Error(err))
		}
	}
	return failed
}

func (s *WarmupScheduler) warm(ctx context.Context, subset string) error {
	ctx, cancel := context.WithTimeout(upstream.WithRefresh(ctx), s.config.Timeout)
	defer cancel()

	start := time.Now()
	categories, err := s.loader.Subset(ctx, subset)
	s.metrics.ObserveWarmup(subset, err == nil)
	if err != nil {
		return err
	}

	s.logger.Debug("Subset warmed",
		zap.String("subset", subset),
		zap.Int("categories", len(categories)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func newCronLogger(logger *zap.Logger) cron.Logger {
	return cronLogger{sugar: logger.Named("cron").Sugar()}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
