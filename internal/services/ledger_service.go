package services

import (
	"context"
	"fmt"
	"log/slog"

	"budgeter/internal/amqp"
	"budgeter/internal/core"
	"budgeter/internal/storage"
)

// LedgerService fronts the ledger store and nudges the sync worker over
// AMQP after writes. Publishing is best effort: the record is durable once
// the store call returns, and the worker's poll loop covers lost messages.
type LedgerService struct {
	store      *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(store *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		store:      store,
		amqpClient: amqpClient,
	}
}

// Add persists a new transaction and returns its assigned id.
func (s *LedgerService) Add(ctx context.Context, d core.Draft) (int64, error) {
	id, err := s.store.Add(ctx, d)
	if err != nil {
		return 0, fmt.Errorf("add transaction: %w", err)
	}
	s.notifySync(ctx, id)
	return id, nil
}

// Update replaces the mutable fields of an existing transaction.
func (s *LedgerService) Update(ctx context.Context, id int64, d core.Draft) error {
	if err := s.store.Update(ctx, id, d); err != nil {
		return err
	}
	s.notifySync(ctx, id)
	return nil
}

func (s *LedgerService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.Get(ctx, id)
}

func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func (s *LedgerService) ClearAll(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}

func (s *LedgerService) List(ctx context.Context, f storage.Filter) ([]core.Transaction, error) {
	return s.store.List(ctx, f)
}

func (s *LedgerService) MonthlySummary(ctx context.Context, month string) (core.MonthlySummary, error) {
	return s.store.MonthlySummary(ctx, month)
}

func (s *LedgerService) Unsynced(ctx context.Context) ([]core.Transaction, error) {
	return s.store.Unsynced(ctx)
}

func (s *LedgerService) notifySync(ctx context.Context, id int64) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishTransactionSync(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
		// Don't fail the request; the poll loop will sync it.
	}
}

// Close releases the store and the AMQP connection.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
