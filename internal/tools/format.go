package tools

import (
	"fmt"
	"math"
	"time"
)

// defaultRows bounds how many raw rows a tool summary carries back to the
// model when the call does not ask for a specific limit. Aggregates are
// always computed over the full result set.
const defaultRows = 20

const dateLayout = "2006-01-02"

// money renders an amount with two decimals for model-facing summaries.
func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// pctChange renders the relative change from prev to cur. A zero or
// negative baseline has no meaningful percentage and yields "N/A".
func pctChange(cur, prev float64) string {
	if prev <= 0 {
		return "N/A"
	}
	change := (cur - prev) / prev * 100
	sign := "+"
	if change < 0 {
		sign = ""
	}
	return fmt.Sprintf("%s%.1f%%", sign, change)
}

// marginPct is the gross margin of a sale price over its unit cost.
func marginPct(salePrice, unitCost float64) string {
	if salePrice <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", (salePrice-unitCost)/salePrice*100)
}

// mirrorPeriod returns the period of identical length immediately before
// [from, to], for period-over-period comparisons.
func mirrorPeriod(from, to string) (string, string, error) {
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return "", "", fmt.Errorf("invalid from_date %q: %w", from, err)
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return "", "", fmt.Errorf("invalid to_date %q: %w", to, err)
	}
	if t.Before(f) {
		return "", "", fmt.Errorf("to_date %q precedes from_date %q", to, from)
	}

	span := t.Sub(f)
	prevTo := f.AddDate(0, 0, -1)
	prevFrom := prevTo.Add(-span)
	return prevFrom.Format(dateLayout), prevTo.Format(dateLayout), nil
}

// daysBetween counts the inclusive number of days in [from, to]. Invalid
// input yields zero.
func daysBetween(from, to string) int {
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return 0
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return 0
	}
	days := int(math.Round(t.Sub(f).Hours()/24)) + 1
	if days < 0 {
		return 0
	}
	return days
}

// capRows returns at most limit entries (defaultRows when limit is zero)
// and whether anything was cut.
func capRows[T any](rows []T, limit int) ([]T, bool) {
	n := defaultRows
	if limit > 0 {
		n = limit
	}
	if len(rows) > n {
		return rows[:n], true
	}
	return rows, false
}
