package worker

import (
	"context"
	"errors"
	"time"

	"github.com/taskdesk/taskdesk/pkg/utils/logging"
)

// Rebuilder regenerates the whole embedding set and returns the number of stored records
type Rebuilder interface {
	RebuildAll(ctx context.Context) (int, error)
}

// EmbeddingRebuildWorker periodically rebuilds embeddings so that vector search follows
// changes of the source records
//
// Architecture assumptions:
// - Single server instance; a rebuild already running (from HTTP or CLI) makes a tick a no-op
type EmbeddingRebuildWorker struct {
	rebuilder Rebuilder
	interval  time.Duration
	skip      error
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewEmbeddingRebuildWorker creates a worker. Errors matching skip (typically the
// rebuild-in-progress sentinel) are logged at info instead of error.
func NewEmbeddingRebuildWorker(rebuilder Rebuilder, interval time.Duration, skip error) *EmbeddingRebuildWorker {
	return &EmbeddingRebuildWorker{
		rebuilder: rebuilder,
		interval:  interval,
		skip:      skip,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background loop. The initial rebuild also runs in the background and does
// not block server startup.
func (w *EmbeddingRebuildWorker) Start(ctx context.Context) error {
	logging.Default().Info("Embedding rebuild worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *EmbeddingRebuildWorker) Stop() {
	logging.Default().Info("Embedding rebuild worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Embedding rebuild worker stopped")
}

func (w *EmbeddingRebuildWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.rebuild(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.rebuild(ctx)

		case <-w.stopCh:
			logging.Default().Info("Embedding rebuild worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Embedding rebuild worker context cancelled")
			return
		}
	}
}

func (w *EmbeddingRebuildWorker) rebuild(ctx context.Context) {
	startTime := time.Now()

	count, err := w.rebuilder.RebuildAll(ctx)
	if err != nil {
		if w.skip != nil && errors.Is(err, w.skip) {
			logging.Default().Info("Embedding rebuild skipped, another rebuild is running")
			return
		}
		logging.Default().Error("Embedding rebuild failed (will retry next interval)",
			"error", err.Error())
		return
	}

	logging.Default().Info("Embedding rebuild completed",
		"count", count,
		"duration", time.Since(startTime).String())
}
