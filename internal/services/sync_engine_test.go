package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"budgeter/internal/core"
	"budgeter/internal/sink/memory"
	"budgeter/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func addExpense(t *testing.T, store *storage.SQLiteRepository, date string, cents int64) int64 {
	t.Helper()
	id, err := store.Add(context.Background(), core.Draft{
		Date:        date,
		AmountCents: cents,
		Type:        core.Expense,
		Category:    "Groceries",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return id
}

func TestRunNotConfigured(t *testing.T) {
	engine := NewSyncEngine(newTestStore(t), nil, 0)
	_, err := engine.Run(context.Background())
	if !errors.Is(err, core.ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestRunNothingToSync(t *testing.T) {
	engine := NewSyncEngine(newTestStore(t), memory.New(), 0)
	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Attempted() != 0 {
		t.Errorf("Attempted = %d, want 0", report.Attempted())
	}
}

func TestRunPushesAndMarks(t *testing.T) {
	store := newTestStore(t)
	s := memory.New()
	engine := NewSyncEngine(store, s, 0)

	id1 := addExpense(t, store, "2025-01-01", 100)
	id2 := addExpense(t, store, "2025-01-02", 200)

	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ConfirmedCount() != 2 || report.FailedCount() != 0 {
		t.Fatalf("report = %+v", report)
	}

	for _, id := range []int64{id1, id2} {
		if _, ok := s.Get(id); !ok {
			t.Errorf("transaction %d missing from sink", id)
		}
		tx, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if !tx.Synced {
			t.Errorf("transaction %d not marked synced", id)
		}
	}
}

func TestRunPartialFailure(t *testing.T) {
	store := newTestStore(t)
	s := memory.New()
	engine := NewSyncEngine(store, s, 0)
	ctx := context.Background()

	id1 := addExpense(t, store, "2025-01-01", 100)
	id2 := addExpense(t, store, "2025-01-02", 200)
	id3 := addExpense(t, store, "2025-01-03", 300)
	s.FailIDs[id2] = true

	report, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ConfirmedCount() != 2 {
		t.Errorf("confirmed = %v, want ids %d and %d", report.Confirmed, id1, id3)
	}
	if report.FailedCount() != 1 || report.Failures[0].ID != id2 {
		t.Fatalf("failures = %+v, want only id %d", report.Failures, id2)
	}
	if report.Failures[0].Err == nil {
		t.Error("failure should carry its reason")
	}

	for id, wantSynced := range map[int64]bool{id1: true, id2: false, id3: true} {
		tx, err := store.Get(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if tx.Synced != wantSynced {
			t.Errorf("transaction %d synced = %v, want %v", id, tx.Synced, wantSynced)
		}
	}

	// Second run retries only the failed item.
	s.FailIDs[id2] = false
	pushesBefore := s.Pushes()
	report, err = engine.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.ConfirmedCount() != 1 || report.Confirmed[0] != id2 {
		t.Errorf("second run confirmed = %v, want only id %d", report.Confirmed, id2)
	}
	if got := s.Pushes() - pushesBefore; got != 1 {
		t.Errorf("second run made %d pushes, want 1", got)
	}
}

func TestRunFailuresReportedInIDOrder(t *testing.T) {
	store := newTestStore(t)
	s := memory.New()
	engine := NewSyncEngine(store, s, 0)

	var ids []int64
	for i := 0; i < 4; i++ {
		id := addExpense(t, store, "2025-01-01", int64(100+i))
		s.FailIDs[id] = true
		ids = append(ids, id)
	}

	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.FailedCount() != len(ids) {
		t.Fatalf("failed = %d, want %d", report.FailedCount(), len(ids))
	}
	for i, f := range report.Failures {
		if f.ID != ids[i] {
			t.Errorf("failure %d has id %d, want %d", i, f.ID, ids[i])
		}
	}
}

func TestPushByID(t *testing.T) {
	store := newTestStore(t)
	s := memory.New()
	engine := NewSyncEngine(store, s, 0)
	ctx := context.Background()

	id := addExpense(t, store, "2025-01-01", 100)
	if err := engine.PushByID(ctx, id); err != nil {
		t.Fatalf("PushByID: %v", err)
	}
	tx, _ := store.Get(ctx, id)
	if !tx.Synced {
		t.Error("transaction not marked synced")
	}

	// Re-push of a synced transaction is skipped.
	pushes := s.Pushes()
	if err := engine.PushByID(ctx, id); err != nil {
		t.Fatalf("repeat PushByID: %v", err)
	}
	if s.Pushes() != pushes {
		t.Error("already-synced transaction should not be pushed again")
	}

	if err := engine.PushByID(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing id err = %v, want ErrNotFound", err)
	}
}

func TestPushTimeoutApplies(t *testing.T) {
	engine := NewSyncEngine(newTestStore(t), memory.New(), -1)
	if engine.pushTimeout != 10*time.Second {
		t.Errorf("default push timeout = %v, want 10s", engine.pushTimeout)
	}
}
