package core

import (
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"2025-01-02", "2025-01-02", true},
		{" 2025-12-31 ", "2025-12-31", true},
		{"2025-02-30", "", false},
		{"2025-13-01", "", false},
		{"01-02-2025", "", false},
		{"2025-01", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Errorf("ParseDate(%q) = %q, %v; want %q", tc.in, got, err, tc.out)
			}
		} else if !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) err = %v, want ErrInvalidDate", tc.in, err)
		}
	}
}

func TestParseMonth(t *testing.T) {
	if got, err := ParseMonth("2025-01"); err != nil || got != "2025-01" {
		t.Errorf("ParseMonth(2025-01) = %q, %v", got, err)
	}
	for _, in := range []string{"2025-13", "2025-01-02", "2025", ""} {
		if _, err := ParseMonth(in); !errors.Is(err, ErrInvalidMonth) {
			t.Errorf("ParseMonth(%q) err = %v, want ErrInvalidMonth", in, err)
		}
	}
}

func TestDraftValidate(t *testing.T) {
	valid := Draft{
		Date:        "2025-01-15",
		AmountCents: 1250,
		Type:        Expense,
		Category:    "Groceries",
		Description: "weekly shop",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Draft)
		want   error
	}{
		{"bad date", func(d *Draft) { d.Date = "not-a-date" }, ErrInvalidDate},
		{"zero amount", func(d *Draft) { d.AmountCents = 0 }, ErrInvalidAmount},
		{"negative amount", func(d *Draft) { d.AmountCents = -100 }, ErrInvalidAmount},
		{"bad type", func(d *Draft) { d.Type = "transfer" }, ErrInvalidType},
		{"empty category", func(d *Draft) { d.Category = "  " }, ErrEmptyCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := valid
			tc.mutate(&d)
			if err := d.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSignedCents(t *testing.T) {
	exp := Transaction{Type: Expense, AmountCents: 1500}
	if got := exp.SignedCents(); got != -1500 {
		t.Errorf("expense SignedCents = %d, want -1500", got)
	}
	inc := Transaction{Type: Income, AmountCents: 1500}
	if got := inc.SignedCents(); got != 1500 {
		t.Errorf("income SignedCents = %d, want 1500", got)
	}
}

func TestBudgetLines(t *testing.T) {
	s := MonthlySummary{
		Month:      "2025-01",
		ByCategory: map[string]int64{"Groceries": 400},
	}
	lines := s.BudgetLines(
		[]string{"Groceries", "Transport"},
		map[string]int64{"Groceries": 1000},
	)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].RemainingCents != 600 {
		t.Errorf("Groceries remaining = %d, want 600", lines[0].RemainingCents)
	}
	if lines[1].BudgetCents != 0 || lines[1].ActualCents != 0 || lines[1].RemainingCents != 0 {
		t.Errorf("Transport line should default to zeros, got %+v", lines[1])
	}
	if s.Total("Transport") != 0 {
		t.Errorf("Total for untouched category = %d, want 0", s.Total("Transport"))
	}
}
