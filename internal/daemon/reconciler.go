package daemon

import (
	"context"
	"log/slog"
	"time"
)

// Poster queues work on the event loop.
type Poster interface {
	Post(fn func())
}

// PrunerConfig holds configuration for the pruner.
type PrunerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Pruner periodically drops tracker entries for windows that disappeared
// without a close notification.
type Pruner struct {
	interval time.Duration
	engine   *Engine
	loop     Poster
	logger   *slog.Logger
}

// NewPruner creates a pruner. Passes run on loop, never on the ticker goroutine.
func NewPruner(cfg PrunerConfig, engine *Engine, loop Poster) *Pruner {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Pruner{
		interval: interval,
		engine:   engine,
		loop:     loop,
		logger:   logger,
	}
}

// Run starts the prune ticker. Blocks until context is cancelled.
func (p *Pruner) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("pruner started", "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pruner stopped")
			return
		case <-ticker.C:
			p.loop.Post(p.PruneNow)
		}
	}
}

// PruneNow performs a single pass. It must run on the loop goroutine.
func (p *Pruner) PruneNow() {
	if !p.engine.Enabled() {
		return
	}
	if n := p.engine.Prune(); n > 0 {
		p.logger.Info("pruned stale windows", "count", n)
	}
}
