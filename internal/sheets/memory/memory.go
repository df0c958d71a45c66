// Package memory is an in-process ports.TransactionExporter for development
// and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"smartspend/internal/core"
	"smartspend/internal/ports"
	"smartspend/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows [][]any
}

var _ ports.TransactionExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{rows: [][]any{sheets.Header}}
}

// ExportTransaction appends tx, or rewrites its row when already present.
func (e *Exporter) ExportTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := sheets.FindRow(e.rows, tx.ID); i >= 0 {
		e.rows[i] = sheets.Row(tx)
		return ref(i), nil
	}
	e.rows = append(e.rows, sheets.Row(tx))
	return ref(len(e.rows) - 1), nil
}

// RemoveTransaction deletes the row for id. Unknown ids are ignored.
func (e *Exporter) RemoveTransaction(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := sheets.FindRow(e.rows, id); i > 0 {
		e.rows = append(e.rows[:i], e.rows[i+1:]...)
	}
	return nil
}

func (e *Exporter) ExportedIDs(context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return sheets.IDs(e.rows), nil
}

// Rows returns a copy of the sheet, header included.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]any, len(e.rows))
	for i, r := range e.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

func ref(i int) string {
	return fmt.Sprintf("mem:%d", i+1)
}
