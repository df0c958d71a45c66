// Package sheets maps ledger transactions onto spreadsheet rows. Adapters in
// subpackages implement ports.TransactionExporter on top of it.
package sheets

import (
	"fmt"
	"strings"

	"smartspend/internal/core"
)

// Header is the first row of the mirror sheet.
var Header = []any{"ID", "Date", "Description", "Amount", "Category"}

// Columns is the A1 column span covered by Header.
const Columns = "A:E"

// Row renders tx in Header order. The amount is a plain decimal so the sheet
// treats it as a number under USER_ENTERED.
func Row(tx core.Transaction) []any {
	return []any{tx.ID, tx.Date.String(), tx.Description, tx.Amount.String(), string(tx.Category)}
}

// FindRow returns the zero-based index of the row whose first cell equals id,
// or -1. Header rows never match because ids are never "ID".
func FindRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i
		}
	}
	return -1
}

// HasHeader reports whether values starts with the header row.
func HasHeader(values [][]any) bool {
	if len(values) == 0 || len(values[0]) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(fmt.Sprint(values[0][0])), fmt.Sprint(Header[0]))
}

// IDs returns the first cell of every data row, skipping the header and
// blank rows.
func IDs(values [][]any) []string {
	var ids []string
	for i, row := range values {
		if len(row) == 0 || (i == 0 && HasHeader(values)) {
			continue
		}
		if id := strings.TrimSpace(fmt.Sprint(row[0])); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
