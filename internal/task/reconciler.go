// Package task runs the engine's background work: the periodic
// reconciliation pass that merges session state diverged across devices.
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultReconcileInterval is how often diverged session copies are
// merged when no interval is configured.
const DefaultReconcileInterval = 30 * time.Second

// Reconciler performs one merge pass over all tracked session pairs.
type Reconciler interface {
	Reconcile(ctx context.Context)
}

// Runner drives a Reconciler on a fixed interval until stopped.
type Runner struct {
	reconciler Reconciler
	interval   time.Duration
	logger     *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewRunner creates a runner ticking at the given interval. A
// non-positive interval falls back to the default.
func NewRunner(reconciler Reconciler, interval time.Duration, logger *slog.Logger) *Runner {
	if reconciler == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency.
		panic("reconciler cannot be nil")
	}
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		reconciler: reconciler,
		interval:   interval,
		logger:     logger.With(slog.String("component", "reconcile_runner")),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the background loop. Safe to call once.
func (r *Runner) Start() {
	r.wg.Add(1)
	go r.loop()
	r.logger.Info("reconciliation runner started",
		slog.Duration("interval", r.interval))
}

// Stop cancels the loop and waits for any in-flight pass to finish.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("reconciliation runner stopped")
}

func (r *Runner) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.reconciler.Reconcile(r.ctx)
		}
	}
}
