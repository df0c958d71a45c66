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

	"smartspend/internal/advisor"
	"smartspend/internal/amqp"
	"smartspend/internal/backend"
	"smartspend/internal/cache"
	"smartspend/internal/cli"
	"smartspend/internal/config"
	apphttp "smartspend/internal/http"
	"smartspend/internal/ledger"
	"smartspend/internal/llm"
	"smartspend/internal/llm/ollama"
	"smartspend/internal/llm/openai"
	"smartspend/internal/log"
	"smartspend/internal/metrics"
	"smartspend/internal/ports"
)

const cacheCleanupInterval = 10 * time.Minute

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.Open(ctx, logger.WithComponent(log.ComponentStorage).Logger, backendCfg)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", backendCfg.Type, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close store", log.FieldError, err)
		}
	}()

	opts := []ledger.Option{
		ledger.WithMetrics(m),
		ledger.WithDemoData(cfg.SeedDemoData),
	}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Mirroring is best effort; the ledger works without it.
			logger.WithComponent(log.ComponentAMQP).Warn("AMQP unavailable, transaction events disabled",
				log.FieldError, err)
		} else {
			defer client.Close()
			opts = append(opts, ledger.WithPublisher(client))
			logger.Info("Publishing transaction events", "exchange", cfg.AMQPExchange)
		}
	}

	txs := ledger.NewStore(store.Store, opts...)
	if err := txs.Load(ctx); err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	budget := ledger.NewBudget(store.Store, cfg.Budget(), m)
	if err := budget.Load(ctx); err != nil {
		return fmt.Errorf("load budget: %w", err)
	}
	logger.Info("Ledger loaded",
		"transactions", txs.Len(),
		"budget", budget.Value().String())

	completer, err := newCompleter(cfg)
	if err != nil {
		return err
	}
	logger.Info("LLM provider configured", "provider", cfg.LLMProvider, "model", cfg.LLMModel)

	gateway := advisor.New(completer, advisor.Config{
		Model:    cfg.LLMModel,
		CacheTTL: cfg.LLMCacheTTL,
	}, m)

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache), m)
	caches.Register("categorize", gateway.Cache())
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		Ledger:   txs,
		Budget:   budget,
		Advisor:  gateway,
		Logger:   logger,
		Metrics:  m,
		Gatherer: reg,
		Ready:    store.Store.Ping,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting smartspend server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newCompleter picks the LLM adapter named by LLM_PROVIDER.
func newCompleter(cfg *config.Config) (ports.Completer, error) {
	switch cfg.LLMProvider {
	case llm.ProviderOpenAI:
		c, err := openai.New(openai.Config{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		return c, nil
	case llm.ProviderOllama:
		c, err := ollama.New(ollama.Config{
			ServerURL: cfg.LLMBaseURL,
			Model:     cfg.LLMModel,
			Timeout:   cfg.LLMTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("ollama client: %w", err)
		}
		return c, nil
	default:
		return llm.Disabled{}, nil
	}
}
