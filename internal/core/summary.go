package core

// CategoryTotal represents an amount aggregated by category.
type CategoryTotal struct {
	Category Category `json:"category"`
	Total    Money    `json:"total"`
}

// DayTotal is the amount spent on one calendar day.
type DayTotal struct {
	Date  Date   `json:"date"`
	Label string `json:"label"`
	Total Money  `json:"total"`
}

// Progress describes spending against the budget.
type Progress struct {
	Percent   float64 `json:"percent"`
	IsOver    bool    `json:"is_over"`
	Remaining Money   `json:"remaining"`
}

// Summary is the dashboard view of a ledger snapshot.
type Summary struct {
	TotalSpent       Money           `json:"total_spent"`
	Budget           Money           `json:"budget"`
	Progress         Progress        `json:"progress"`
	TransactionCount int             `json:"transaction_count"`
	TopCategory      Category        `json:"top_category,omitempty"`
	ByCategory       []CategoryTotal `json:"by_category"`
	Recent           []DayTotal      `json:"recent"`
}
