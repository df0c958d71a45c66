// Package worker applies transaction events to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"smartspend/internal/core"
	"smartspend/internal/metrics"
	"smartspend/internal/ports"
)

var ErrUnknownEvent = errors.New("unknown event type")

// ExportWorker keeps an external sheet in step with the ledger.
type ExportWorker struct {
	exporter ports.TransactionExporter
	metrics  *metrics.Metrics
}

type Option func(*ExportWorker)

// WithMetrics counts every sheet operation by outcome.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *ExportWorker) { w.metrics = m }
}

func NewExportWorker(exporter ports.TransactionExporter, opts ...Option) *ExportWorker {
	w := &ExportWorker{exporter: exporter}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleEvent applies one event. Errors wrapping ports.ErrPermanent are
// dropped by the consumer; any other error causes redelivery, so both
// branches are idempotent.
func (w *ExportWorker) HandleEvent(ctx context.Context, evt ports.TransactionEvent) error {
	switch evt.Type {
	case ports.EventCreated:
		if evt.Transaction == nil {
			return fmt.Errorf("%w: created event %s has no transaction", ports.ErrPermanent, evt.ID)
		}
		if err := evt.Transaction.Validate(); err != nil {
			return fmt.Errorf("%w: created event %s: %w", ports.ErrPermanent, evt.ID, err)
		}
		ref, err := w.exporter.ExportTransaction(ctx, *evt.Transaction)
		w.metrics.SheetOperation("export", err)
		if err != nil {
			return fmt.Errorf("export transaction %s: %w", evt.ID, err)
		}
		slog.InfoContext(ctx, "Exported transaction",
			"id", evt.ID,
			"sheets_ref", ref,
			"amount_cents", evt.Transaction.Amount.Cents)
		return nil

	case ports.EventDeleted:
		err := w.exporter.RemoveTransaction(ctx, evt.ID)
		w.metrics.SheetOperation("remove", err)
		if err != nil {
			return fmt.Errorf("remove transaction %s: %w", evt.ID, err)
		}
		slog.InfoContext(ctx, "Removed transaction from sheet", "id", evt.ID)
		return nil

	default:
		return fmt.Errorf("%w: %w: %q", ports.ErrPermanent, ErrUnknownEvent, evt.Type)
	}
}

// ReconcileResult counts the outcome of a startup reconcile.
type ReconcileResult struct {
	Synced  int
	Removed int
	Failed  int
}

// Reconcile makes the sheet match txs: every transaction is exported and
// rows whose id is no longer in the ledger are removed. It recovers from
// events lost while the worker was down; failures are logged and counted,
// not fatal.
func (w *ExportWorker) Reconcile(ctx context.Context, txs []core.Transaction) ReconcileResult {
	var res ReconcileResult
	live := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		live[tx.ID] = struct{}{}
		if err := ctx.Err(); err != nil {
			break
		}
		_, err := w.exporter.ExportTransaction(ctx, tx)
		w.metrics.SheetOperation("reconcile", err)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during reconcile",
				"id", tx.ID, "error", err)
			res.Failed++
			continue
		}
		res.Synced++
	}

	if ctx.Err() == nil {
		w.prune(ctx, live, &res)
	}

	slog.InfoContext(ctx, "Startup reconcile completed",
		"total", len(txs),
		"synced", res.Synced,
		"removed", res.Removed,
		"errors", res.Failed)
	return res
}

// prune removes sheet rows for ids missing from live.
func (w *ExportWorker) prune(ctx context.Context, live map[string]struct{}, res *ReconcileResult) {
	ids, err := w.exporter.ExportedIDs(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list sheet rows during reconcile", "error", err)
		res.Failed++
		return
	}
	for _, id := range ids {
		if _, ok := live[id]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}
		err := w.exporter.RemoveTransaction(ctx, id)
		w.metrics.SheetOperation("reconcile_remove", err)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to remove stale row during reconcile",
				"id", id, "error", err)
			res.Failed++
			continue
		}
		res.Removed++
	}
}
