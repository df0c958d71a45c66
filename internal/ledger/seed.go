package ledger

import "smartspend/internal/core"

type demoEntry struct {
	daysAgo     int
	description string
	cents       int64
	category    core.Category
}

var demoEntries = []demoEntry{
	{0, "Morning Coffee & Bagel", 1450, core.CategoryFood},
	{1, "Uber to Downtown", 3200, core.CategoryTransport},
	{3, "Weekly Groceries", 12540, core.CategoryFood},
	{5, "Netflix Subscription", 1599, core.CategoryEntertainment},
	{10, "Electric Bill", 18000, core.CategoryUtilities},
	{12, "New Running Shoes", 8995, core.CategoryShopping},
	{15, "Pharmacy", 4500, core.CategoryHealth},
	{20, "Weekend Getaway Hotel", 45000, core.CategoryTravel},
}

// DemoTransactions builds the first-run dataset dated relative to today,
// newest first.
func DemoTransactions(today core.Date, newID func() string) []core.Transaction {
	txs := make([]core.Transaction, 0, len(demoEntries))
	for _, e := range demoEntries {
		txs = append(txs, core.Transaction{
			ID:          newID(),
			Amount:      core.Money{Cents: e.cents},
			Description: e.description,
			Category:    e.category,
			Date:        today.AddDays(-e.daysAgo),
		})
	}
	return txs
}
