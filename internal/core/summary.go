package core

// MonthlySummary aggregates expense totals per category for one YYYY-MM
// month. Categories with no expenses in the month are absent from the map;
// use Total for zero-default lookup.
type MonthlySummary struct {
	Month      string
	ByCategory map[string]int64
}

// Total returns the expense total for a category, zero when the category had
// no expenses in the month.
func (s MonthlySummary) Total(category string) int64 {
	return s.ByCategory[category]
}

// BudgetLine compares a configured category budget against the month's
// actual expense total.
type BudgetLine struct {
	Category       string
	BudgetCents    int64
	ActualCents    int64
	RemainingCents int64
}

// BudgetLines builds one line per configured category, in the configured
// order, defaulting both budget and actual to zero.
func (s MonthlySummary) BudgetLines(categories []string, budgets map[string]int64) []BudgetLine {
	lines := make([]BudgetLine, 0, len(categories))
	for _, cat := range categories {
		b := budgets[cat]
		a := s.Total(cat)
		lines = append(lines, BudgetLine{
			Category:       cat,
			BudgetCents:    b,
			ActualCents:    a,
			RemainingCents: b - a,
		})
	}
	return lines
}
