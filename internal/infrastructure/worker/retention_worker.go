package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Purger deletes records older than a given age and reports how many went
type Purger interface {
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// RetentionConfig holds configuration for the notification retention worker
type RetentionConfig struct {
	Interval time.Duration
	MaxAge   time.Duration
	Timeout  time.Duration
}

// DefaultRetentionConfig keeps 30 days of notifications and sweeps hourly
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Interval: time.Hour,
		MaxAge:   30 * 24 * time.Hour,
		Timeout:  time.Minute,
	}
}

// RetentionWorker periodically purges old in-app notifications
type RetentionWorker struct {
	config RetentionConfig
	purger Purger
	logger *zap.Logger

	mu        sync.RWMutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
	lastRun   time.Time
	purged    int64
	lastError error
}

// NewRetentionWorker creates a new retention worker
func NewRetentionWorker(config RetentionConfig, purger Purger, logger *zap.Logger) *RetentionWorker {
	defaults := DefaultRetentionConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.MaxAge <= 0 {
		config.MaxAge = defaults.MaxAge
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	return &RetentionWorker{config: config, purger: purger, logger: logger}
}

// Name returns the worker name for identification
func (w *RetentionWorker) Name() string {
	return "NotificationRetentionWorker"
}

// Start runs one sweep immediately and then one per interval
func (w *RetentionWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return fmt.Errorf("retention worker already running")
	}

	var loopCtx context.Context
	loopCtx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("RetentionWorker started",
		zap.Duration("interval", w.config.Interval),
		zap.Duration("max_age", w.config.MaxAge))

	go w.loop(loopCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep to finish
func (w *RetentionWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info("RetentionWorker stopped", zap.Int64("purged_total", w.Purged()))
	return nil
}

func (w *RetentionWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// RunOnce performs a single sweep
func (w *RetentionWorker) RunOnce(ctx context.Context) (int64, error) {
	sweepCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()
	return w.purger.PurgeOlderThan(sweepCtx, w.config.MaxAge)
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	n, err := w.RunOnce(ctx)

	w.mu.Lock()
	w.lastRun = time.Now()
	w.lastError = err
	if err == nil {
		w.purged += n
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Failed to purge notifications", zap.Error(err))
		return
	}
	if n > 0 {
		w.logger.Info("Purged old notifications", zap.Int64("count", n))
	}
}

// Purged returns the total number of purged notifications since start
func (w *RetentionWorker) Purged() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.purged
}

// LastError returns the error of the most recent sweep, if any
func (w *RetentionWorker) LastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}
