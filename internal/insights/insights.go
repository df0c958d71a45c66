// Package insights derives dashboard views from a snapshot of transactions and
// a budget. Every function is pure and safe on empty input.
package insights

import (
	"sort"

	"smartspend/internal/core"
)

// RecentWindow is how many of the most recently dated transactions feed
// RecentActivity.
const RecentWindow = 15

// Level buckets budget usage for display.
type Level string

const (
	LevelOK      Level = "ok"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
	LevelOver    Level = "over"
)

// TotalSpent sums every amount exactly, in cents.
func TotalSpent(txs []core.Transaction) core.Money {
	var total core.Money
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}

// CategoryTotals groups amounts by exact category and sorts them by total,
// largest first. Equal totals are ordered by category name.
func CategoryTotals(txs []core.Transaction) []core.CategoryTotal {
	sums := make(map[core.Category]core.Money)
	for _, tx := range txs {
		sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
	}

	out := make([]core.CategoryTotal, 0, len(sums))
	for c, total := range sums {
		out = append(out, core.CategoryTotal{Category: c, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// RecentActivity takes the RecentWindow most recently dated transactions and
// totals them per calendar day, oldest day first. Days without spending are
// not emitted.
func RecentActivity(txs []core.Transaction) []core.DayTotal {
	recent := append([]core.Transaction(nil), txs...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Date.After(recent[j].Date.Time)
	})
	if len(recent) > RecentWindow {
		recent = recent[:RecentWindow]
	}

	byDay := make(map[string]*core.DayTotal)
	for _, tx := range recent {
		key := tx.Date.String()
		day, ok := byDay[key]
		if !ok {
			day = &core.DayTotal{Date: tx.Date, Label: DayLabel(tx.Date)}
			byDay[key] = day
		}
		day.Total = day.Total.Add(tx.Amount)
	}

	out := make([]core.DayTotal, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

// DayLabel renders a chart label such as "Mon 8".
func DayLabel(d core.Date) string {
	return d.Format("Mon 2")
}

// BudgetProgress compares spending with the budget. A zero budget is unset and
// yields a zero Progress.
func BudgetProgress(spent, budget core.Money) core.Progress {
	if budget.Cents <= 0 {
		return core.Progress{}
	}
	percent := float64(spent.Cents) / float64(budget.Cents) * 100
	if percent > 100 {
		percent = 100
	}
	remaining := budget.Cents - spent.Cents
	if remaining < 0 {
		remaining = 0
	}
	return core.Progress{
		Percent:   percent,
		IsOver:    spent.Cents > budget.Cents,
		Remaining: core.Money{Cents: remaining},
	}
}

// ProgressLevel classifies usage: over once the budget is exceeded, danger
// above 90%, warning above 75%.
func ProgressLevel(p core.Progress) Level {
	switch {
	case p.IsOver:
		return LevelOver
	case p.Percent > 90:
		return LevelDanger
	case p.Percent > 75:
		return LevelWarning
	default:
		return LevelOK
	}
}

// Summarize bundles every dashboard view for one snapshot.
func Summarize(txs []core.Transaction, budget core.Money) core.Summary {
	total := TotalSpent(txs)
	byCategory := CategoryTotals(txs)

	s := core.Summary{
		TotalSpent:       total,
		Budget:           budget,
		Progress:         BudgetProgress(total, budget),
		TransactionCount: len(txs),
		ByCategory:       byCategory,
		Recent:           RecentActivity(txs),
	}
	if len(byCategory) > 0 {
		s.TopCategory = byCategory[0].Category
	}
	return s
}
