package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense Type = "expense"
	Income  Type = "income"
)

type (
	// Type tags a transaction as money in or money out. Amounts are stored
	// as unsigned magnitudes; the tag carries the direction.
	Type string

	// Transaction is the atomic ledger entry. ID and CreatedAt are assigned
	// by the store on creation and never change; Synced only ever moves
	// from false to true.
	Transaction struct {
		ID          int64
		Date        string // calendar date, YYYY-MM-DD
		AmountCents int64  // unsigned magnitude, exact cents
		Type        Type
		Category    string
		Description string
		CreatedAt   time.Time
		Synced      bool
	}

	// Draft carries the mutable fields for add and update operations.
	Draft struct {
		Date        string
		AmountCents int64
		Type        Type
		Category    string
		Description string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyCategory = errors.New("empty category")
	ErrNotFound      = errors.New("transaction not found")
	ErrNotConfigured = errors.New("sync sink not configured")
)

// ParseDate validates s as a YYYY-MM-DD calendar date and returns it in
// canonical form.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(time.DateOnly), nil
}

// ParseMonth validates s as a YYYY-MM month prefix and returns it in
// canonical form.
func ParseMonth(s string) (string, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", ErrInvalidMonth
	}
	return t.Format("2006-01"), nil
}

func (t Type) Validate() error {
	switch t {
	case Expense, Income:
		return nil
	}
	return ErrInvalidType
}

func (d Draft) Validate() error {
	if _, err := ParseDate(d.Date); err != nil {
		return err
	}
	if d.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if err := d.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if len(d.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

// SignedCents is the signed view: expenses negative, incomes positive.
// Presentation only; stored amounts stay unsigned.
func (t Transaction) SignedCents() int64 {
	if t.Type == Expense {
		return -t.AmountCents
	}
	return t.AmountCents
}
