package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"smartspend/internal/core"
	"smartspend/internal/insights"
	"smartspend/internal/ports"
)

// maxPromptTransactions bounds the transaction list embedded in the advice prompt.
const maxPromptTransactions = 10

var adviceShape = &ports.ResponseShape{
	Name:   "financial_advice",
	Fields: []string{"title", "advice"},
}

func categorizePrompt(description string, amount core.Money) string {
	var b strings.Builder
	b.WriteString("You are an expense categorization assistant.\n")
	fmt.Fprintf(&b, "The user spent %s on %q.\n", amount.Decimal().String(), description)
	fmt.Fprintf(&b, "Pick the best category from this list: %s.\n", strings.Join(core.CategoryNames(), ", "))
	b.WriteString(`Return ONLY the category name as a raw string. If unsure, return "Other".`)
	return b.String()
}

// advicePrompt summarizes txs (natural order, newest added first) for the model.
func advicePrompt(txs []core.Transaction, budget core.Money, tone Tone) string {
	total := insights.TotalSpent(txs)

	var b strings.Builder
	b.WriteString("Analyze these spending habits:\n")
	fmt.Fprintf(&b, "Total Spent: $%s\n", total.Decimal().String())
	if budget.IsZero() {
		b.WriteString("Monthly Budget: $Not set\n")
	} else {
		fmt.Fprintf(&b, "Monthly Budget: $%s\n", budget.Decimal().String())
	}
	fmt.Fprintf(&b, "Breakdown: %s\n", breakdownJSON(insights.CategoryTotals(txs)))
	fmt.Fprintf(&b, "Recent Transactions: %s\n", recentList(txs))

	switch {
	case budget.IsZero():
	case total.Cents > budget.Cents:
		b.WriteString("\nCRITICAL: User is over budget.\n")
	case total.Cents < budget.Cents:
		b.WriteString("\nUser is under budget.\n")
	}

	fmt.Fprintf(&b, "\nProvide financial advice in a %s tone.\n\n", strings.ToUpper(tone.String()))
	b.WriteString("Response Format (JSON):\n")
	b.WriteString("{\n")
	b.WriteString(`  "title": "A short, catchy title (max 5 words)",` + "\n")
	b.WriteString(`  "advice": "The advice paragraph (max 60 words). If funny, be witty/sarcastic. If serious, be professional/actionable."` + "\n")
	b.WriteString("}")
	return b.String()
}

// breakdownJSON renders category totals as a JSON object, keeping the
// largest-first order.
func breakdownJSON(totals []core.CategoryTotal) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, ct := range totals {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(string(ct.Category))
		b.Write(key)
		b.WriteByte(':')
		b.WriteString(ct.Total.Decimal().String())
	}
	b.WriteByte('}')
	return b.String()
}

func recentList(txs []core.Transaction) string {
	if len(txs) > maxPromptTransactions {
		txs = txs[:maxPromptTransactions]
	}
	parts := make([]string, len(txs))
	for i, tx := range txs {
		parts[i] = fmt.Sprintf("%s: $%s", tx.Description, tx.Amount.Decimal().String())
	}
	return strings.Join(parts, ", ")
}
