package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"smartspend/internal/amqp"
	"smartspend/internal/backend"
	"smartspend/internal/cli"
	"smartspend/internal/config"
	"smartspend/internal/ledger"
	"smartspend/internal/log"
	"smartspend/internal/metrics"
	"smartspend/internal/ports"
	gsheet "smartspend/internal/sheets/google"
	memsheet "smartspend/internal/sheets/memory"
	"smartspend/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting smartspend-worker")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	mirror := worker.NewExportWorker(exporter, worker.WithMetrics(m))

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer client.Close()

	// Events published while the worker was down are lost; a shared SQLite
	// ledger lets us catch up from the source of truth.
	if cfg.DataBackend == string(backend.SQLiteBackend) {
		if err := reconcile(ctx, cfg, logger, mirror); err != nil {
			logger.Error("Startup reconcile failed", log.FieldOperation, log.OpReconcile, log.FieldError, err)
		}
	} else {
		logger.Info("Skipping startup reconcile, ledger is not shared", "backend", cfg.DataBackend)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler(reg))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := client.Ping(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming transaction events", "queue", cfg.AMQPQueue)
		return client.ConsumeTransactionEvents(gctx, mirror.HandleEvent)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics listener: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (ports.TransactionExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled, mirroring into memory")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("google sheets client: %w", err)
	}
	logger.WithComponent(log.ComponentSheets).Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}

func reconcile(ctx context.Context, cfg *config.Config, logger *log.Logger, mirror *worker.ExportWorker) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.Open(ctx, logger.WithComponent(log.ComponentStorage).Logger, bcfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// an unwritten ledger would prune every row of the sheet
	if _, ok, err := store.Store.Get(ctx, ledger.KeyTransactions); err != nil {
		return err
	} else if !ok {
		logger.Info("Skipping startup reconcile, ledger has never been written", "path", cfg.SQLiteDBPath)
		return nil
	}

	txs := ledger.NewStore(store.Store)
	if err := txs.Load(ctx); err != nil {
		return err
	}
	res := mirror.Reconcile(ctx, txs.List())
	if res.Failed > 0 {
		return fmt.Errorf("reconcile: %d sheet operations failed", res.Failed)
	}
	return nil
}
