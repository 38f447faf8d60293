package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/deskwm/internal/display"
	"github.com/1broseidon/deskwm/internal/geometry"
)

// ViewportDetector resolves the current viewport.
type ViewportDetector func() display.Result

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically re-detects the viewport and applies it when the
// display geometry drifted, e.g. after a monitor change.
type Reconciler struct {
	interval time.Duration
	detect   ViewportDetector
	apply    func(display.Result)
	logger   *slog.Logger
	last     geometry.Viewport
}

// NewReconciler creates a reconciler starting from the viewport in use.
func NewReconciler(cfg ReconcilerConfig, current geometry.Viewport, detect ViewportDetector, apply func(display.Result)) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &Reconciler{
		interval: interval,
		detect:   detect,
		apply:    apply,
		logger:   cfg.Logger,
		last:     current,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	res := r.detect()
	if res.Viewport == r.last {
		return
	}
	r.logger.Info("reconciler: viewport changed",
		"from", r.last,
		"to", res.Viewport,
		"source", res.Source)
	r.last = res.Viewport
	r.apply(res)
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}
