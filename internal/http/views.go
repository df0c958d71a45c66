package http

import (
	"fmt"

	"smartspend/internal/advisor"
	"smartspend/internal/core"
	"smartspend/internal/insights"
)

// Template data for the htmx partials. Amounts are preformatted so the
// templates stay free of arithmetic.

type barView struct {
	Label  string
	Amount string
	Width  int
}

type dashboardView struct {
	TotalSpent  string
	Budget      string
	BudgetValue string
	BudgetSet   bool
	Percent     string
	BarWidth    int
	Level       insights.Level
	Remaining   string
	IsOver      bool
	Count       int
	TopCategory string
	TopAmount   string
	ByCategory  []barView
	Recent      []barView
	HasSpending bool
}

type transactionRow struct {
	ID          string
	Description string
	Category    string
	Custom      bool
	Date        string
	Amount      string
}

type transactionsView struct {
	Rows []transactionRow
}

type categoryFieldView struct {
	Categories []string
	Selected   string
	FormID     string
}

// IsCustom reports whether the selection is a free-text label.
func (v categoryFieldView) IsCustom() bool {
	if v.Selected == customCategoryValue {
		return true
	}
	c := core.Category(v.Selected)
	return c.IsCustom()
}

// CustomValue is the free-text label to prefill, if any.
func (v categoryFieldView) CustomValue() string {
	if v.Selected == customCategoryValue {
		return ""
	}
	if core.Category(v.Selected).IsCustom() {
		return v.Selected
	}
	return ""
}

type adviceView struct {
	Advice   advisor.Advice
	Tone     advisor.Tone
	Fallback bool
	HasData  bool
}

type indexView struct {
	Today string
	Field categoryFieldView
}

func newDashboardView(s core.Summary) dashboardView {
	v := dashboardView{
		TotalSpent:  formatMoney(s.TotalSpent),
		Budget:      formatMoney(s.Budget),
		BudgetValue: s.Budget.String(),
		BudgetSet:   !s.Budget.IsZero(),
		Percent:     fmt.Sprintf("%.1f%%", s.Progress.Percent),
		BarWidth:    clampPercent(s.Progress.Percent),
		Level:       insights.ProgressLevel(s.Progress),
		Remaining:   formatMoney(s.Progress.Remaining),
		IsOver:      s.Progress.IsOver,
		Count:       s.TransactionCount,
		HasSpending: s.TransactionCount > 0,
	}

	if len(s.ByCategory) > 0 {
		v.TopCategory = s.TopCategory.String()
		v.TopAmount = formatMoney(s.ByCategory[0].Total)
	}

	maxCategory := int64(0)
	for _, ct := range s.ByCategory {
		maxCategory = max(maxCategory, ct.Total.Cents)
	}
	for _, ct := range s.ByCategory {
		v.ByCategory = append(v.ByCategory, barView{
			Label:  ct.Category.String(),
			Amount: formatMoney(ct.Total),
			Width:  barWidth(ct.Total.Cents, maxCategory),
		})
	}

	maxDay := int64(0)
	for _, d := range s.Recent {
		maxDay = max(maxDay, d.Total.Cents)
	}
	for _, d := range s.Recent {
		v.Recent = append(v.Recent, barView{
			Label:  d.Label,
			Amount: formatMoney(d.Total),
			Width:  barWidth(d.Total.Cents, maxDay),
		})
	}
	return v
}

func newTransactionsView(txs []core.Transaction) transactionsView {
	rows := make([]transactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, transactionRow{
			ID:          tx.ID,
			Description: tx.Description,
			Category:    tx.Category.String(),
			Custom:      tx.Category.IsCustom(),
			Date:        tx.Date.Format("Jan 2, 2006"),
			Amount:      formatMoney(tx.Amount),
		})
	}
	return transactionsView{Rows: rows}
}

// barWidth scales v against the largest value to a 0..100 width. Non-zero
// values get at least 2 so they stay visible.
func barWidth(v, largest int64) int {
	if largest <= 0 || v <= 0 {
		return 0
	}
	w := int(v * 100 / largest)
	return max(2, w)
}

func clampPercent(p float64) int {
	switch {
	case p <= 0:
		return 0
	case p >= 100:
		return 100
	default:
		return int(p)
	}
}
