// Package services orchestrates the ledger store, the sync sinks, and the
// AMQP notification channel.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budgeter/internal/core"
	"budgeter/internal/sink"
	"budgeter/internal/storage"
)

// PushFailure records why one transaction could not be pushed. Failures are
// reported in id order so runs are deterministic.
type PushFailure struct {
	ID  int64
	Err error
}

// Report is the terminal result of one sync run.
type Report struct {
	Confirmed []int64
	Failures  []PushFailure
}

// ConfirmedCount reports how many pushes the sink accepted this run.
func (r Report) ConfirmedCount() int { return len(r.Confirmed) }

// FailedCount reports how many pushes failed this run.
func (r Report) FailedCount() int { return len(r.Failures) }

// Attempted reports how many unsynced transactions the run found. Zero means
// there was nothing to sync.
func (r Report) Attempted() int { return len(r.Confirmed) + len(r.Failures) }

// SyncEngine pushes unsynced transactions to one configured sink,
// at-least-once. Each run attempts every unsynced transaction exactly once,
// in ascending id order; a failed item never aborts the run. Confirmed ids
// are marked synced in a single store write at the end, so a crash between
// a confirmed push and the mark costs one harmless re-push next run.
type SyncEngine struct {
	store       *storage.SQLiteRepository
	sink        sink.Sink
	pushTimeout time.Duration
}

// NewSyncEngine wires the engine. A nil sink means sync is not configured;
// Run reports that without touching the store. pushTimeout bounds each push
// (zero selects 10s).
func NewSyncEngine(store *storage.SQLiteRepository, s sink.Sink, pushTimeout time.Duration) *SyncEngine {
	if pushTimeout <= 0 {
		pushTimeout = 10 * time.Second
	}
	return &SyncEngine{
		store:       store,
		sink:        s,
		pushTimeout: pushTimeout,
	}
}

// Run executes one sync pass and returns its report.
func (e *SyncEngine) Run(ctx context.Context) (Report, error) {
	if e.sink == nil {
		return Report{}, core.ErrNotConfigured
	}

	unsynced, err := e.store.Unsynced(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("fetch unsynced transactions: %w", err)
	}
	if len(unsynced) == 0 {
		slog.DebugContext(ctx, "Nothing to sync")
		return Report{}, nil
	}

	slog.InfoContext(ctx, "Sync run started", "pending", len(unsynced))

	var report Report
	for _, tx := range unsynced {
		if err := e.pushOne(ctx, tx); err != nil {
			slog.WarnContext(ctx, "Push failed",
				"id", tx.ID,
				"error", err)
			report.Failures = append(report.Failures, PushFailure{ID: tx.ID, Err: err})
			continue
		}
		report.Confirmed = append(report.Confirmed, tx.ID)
	}

	if err := e.store.MarkSynced(ctx, report.Confirmed); err != nil {
		// Confirmed pushes stay unsynced locally and will be re-pushed;
		// the id key makes that overwrite, not duplicate.
		return report, fmt.Errorf("mark synced: %w", err)
	}

	slog.InfoContext(ctx, "Sync run finished",
		"confirmed", report.ConfirmedCount(),
		"failed", report.FailedCount())

	return report, nil
}

// PushByID pushes a single transaction immediately and marks it synced on
// success. Used by the worker's AMQP path; already-synced transactions are
// skipped.
func (e *SyncEngine) PushByID(ctx context.Context, id int64) error {
	if e.sink == nil {
		return core.ErrNotConfigured
	}

	tx, err := e.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", id, err)
	}
	if tx.Synced {
		slog.DebugContext(ctx, "Transaction already synced", "id", id)
		return nil
	}

	if err := e.pushOne(ctx, tx); err != nil {
		return fmt.Errorf("push transaction %d: %w", id, err)
	}
	if err := e.store.MarkSynced(ctx, []int64{id}); err != nil {
		return fmt.Errorf("mark transaction %d synced: %w", id, err)
	}
	return nil
}

func (e *SyncEngine) pushOne(ctx context.Context, tx core.Transaction) error {
	cctx, cancel := context.WithTimeout(ctx, e.pushTimeout)
	defer cancel()
	return e.sink.Push(cctx, tx)
}
