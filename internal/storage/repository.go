// Package storage implements the durable transaction ledger on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budgeter/internal/core"

	_ "modernc.org/sqlite"
)

// Filter narrows a List call. Zero-valued fields are ignored. Month takes
// precedence over Start/End; Start and End are both inclusive.
type Filter struct {
	Month    string // YYYY-MM prefix
	Start    string // YYYY-MM-DD, inclusive
	End      string // YYYY-MM-DD, inclusive
	Category string
	Limit    int
}

// SQLiteRepository is the single-writer ledger store. Every method is one
// implicit commit: a call either fully applies or not at all.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const txColumns = "id, iso_date, amount_cents, type, category, description, created_at, synced"

// Add inserts a new transaction with synced=0 and created_at set to now,
// returning the assigned id. The row is committed before Add returns.
func (r *SQLiteRepository) Add(ctx context.Context, d core.Draft) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (iso_date, amount_cents, type, category, description, created_at, synced)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		d.Date, d.AmountCents, string(d.Type), d.Category, d.Description, now)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"date", d.Date,
		"type", d.Type,
		"category", d.Category,
		"amount_cents", d.AmountCents)

	return id, nil
}

// Get returns the transaction with the given id, core.ErrNotFound when absent.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE id = ?", id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

// Update replaces the mutable fields of an existing transaction. The synced
// flag and created_at are never touched. Returns core.ErrNotFound when the
// id does not exist.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, d core.Draft) error {
	if err := d.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET iso_date = ?, amount_cents = ?, type = ?, category = ?, description = ?
		 WHERE id = ?`,
		d.Date, d.AmountCents, string(d.Type), d.Category, d.Description, id)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id)
	return nil
}

// Delete removes a transaction permanently. core.ErrNotFound when the id
// does not exist; the id is never reassigned afterwards.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// ClearAll removes every transaction. Irreversible; callers own any
// confirmation step.
func (r *SQLiteRepository) ClearAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	slog.WarnContext(ctx, "All transactions cleared")
	return nil
}

// List returns transactions matching the filter, most recent first
// (iso_date DESC, then id DESC for a stable order within a date).
func (r *SQLiteRepository) List(ctx context.Context, f Filter) ([]core.Transaction, error) {
	if f.Month != "" {
		if _, err := core.ParseMonth(f.Month); err != nil {
			return nil, err
		}
	}
	for _, d := range []string{f.Start, f.End} {
		if d == "" {
			continue
		}
		if _, err := core.ParseDate(d); err != nil {
			return nil, err
		}
	}

	query := "SELECT " + txColumns + " FROM transactions WHERE 1=1"
	var args []any

	if f.Month != "" {
		query += " AND iso_date LIKE ?"
		args = append(args, f.Month+"%")
	} else {
		if f.Start != "" {
			query += " AND iso_date >= ?"
			args = append(args, f.Start)
		}
		if f.End != "" {
			query += " AND iso_date <= ?"
			args = append(args, f.End)
		}
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	query += " ORDER BY iso_date DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// MonthlySummary sums expense amounts per category for the given YYYY-MM
// month. Categories without expenses in the month are absent from the map.
func (r *SQLiteRepository) MonthlySummary(ctx context.Context, month string) (core.MonthlySummary, error) {
	canonical, err := core.ParseMonth(month)
	if err != nil {
		return core.MonthlySummary{}, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) FROM transactions
		 WHERE iso_date LIKE ? AND type = 'expense'
		 GROUP BY category`,
		canonical+"%")
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}
	defer rows.Close()

	summary := core.MonthlySummary{Month: canonical, ByCategory: make(map[string]int64)}
	for rows.Next() {
		var cat string
		var total int64
		if err := rows.Scan(&cat, &total); err != nil {
			return core.MonthlySummary{}, fmt.Errorf("scan summary row: %w", err)
		}
		summary.ByCategory[cat] = total
	}
	if err := rows.Err(); err != nil {
		return core.MonthlySummary{}, fmt.Errorf("iterate summary rows: %w", err)
	}
	return summary, nil
}

// Unsynced returns transactions not yet confirmed at the sink, in ascending
// id order (the processing order for sync runs).
func (r *SQLiteRepository) Unsynced(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE synced = 0 ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list unsynced transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unsynced transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unsynced transactions: %w", err)
	}
	return out, nil
}

// MarkSynced flags the given ids as synced. Idempotent: already-synced and
// unknown ids are ignored. An empty set is a no-op.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET synced = 1 WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	slog.InfoContext(ctx, "Transactions marked as synced", "count", len(ids))
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var tx core.Transaction
	var typ, createdAt string
	var synced int64
	if err := s.Scan(&tx.ID, &tx.Date, &tx.AmountCents, &typ, &tx.Category, &tx.Description, &createdAt, &synced); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.Type(typ)
	tx.Synced = synced != 0
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	tx.CreatedAt = t
	return tx, nil
}
