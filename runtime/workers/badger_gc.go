package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// discardRatio is the minimum share of reclaimable space a value-log file
// must have before badger rewrites it.
const discardRatio = 0.5

// BadgerGCWorker periodically runs badger's value-log garbage collection.
// Badger never reclaims value-log space on its own; the owner has to call
// RunValueLogGC from a loop like this one.
type BadgerGCWorker struct {
	db       *badger.DB
	log      *slog.Logger
	interval time.Duration
}

func NewBadgerGCWorker(db *badger.DB, log *slog.Logger, interval time.Duration) *BadgerGCWorker {
	return &BadgerGCWorker{db: db, log: log, interval: interval}
}

func (w *BadgerGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping badger GC")
			return nil
		case <-ticker.C:
			// One successful GC pass may unlock another; loop until
			// badger reports there is nothing left to rewrite.
			for {
				err := w.db.RunValueLogGC(discardRatio)
				if err == badger.ErrNoRewrite {
					break
				}
				if err != nil {
					w.log.Debug("Value log GC pass skipped", "error", err)
					break
				}
				w.log.Debug("Value log file rewritten")
			}
		}
	}
}
