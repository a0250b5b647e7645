package main

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// workers runs the background loops. They share one context, which Stop
// cancels before waiting for every loop to return.
type workers struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	logger *slog.Logger
}

func newWorkers(parent context.Context, logger *slog.Logger) *workers {
	ctx, cancel := context.WithCancel(parent)
	return &workers{ctx: ctx, cancel: cancel, logger: logger}
}

// Go starts fn. A failing worker is logged and does not stop the others.
func (w *workers) Go(name string, fn func(ctx context.Context) error) {
	w.group.Go(func() error {
		if err := fn(w.ctx); err != nil {
			w.logger.Error("background worker stopped", "worker", name, "error", err)
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	})
}

// Stop cancels the workers and blocks until each has returned, so a
// telemetry tick under way finishes against a live store.
func (w *workers) Stop() error {
	w.cancel()
	return w.group.Wait()
}
