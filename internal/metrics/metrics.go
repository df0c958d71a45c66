// Package metrics exposes Prometheus instrumentation for the ledger, the AI
// advisor and the HTTP layer. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smartspend"

// Outcome labels for AI requests.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeCached   = "cached"
	OutcomeBusy     = "busy"
)

type Metrics struct {
	transactionsCreated prometheus.Counter
	transactionsDeleted prometheus.Counter
	transactionCount    prometheus.Gauge
	budget              prometheus.Gauge
	persistErrors       prometheus.Counter
	events              *prometheus.CounterVec
	aiRequests          *prometheus.CounterVec
	aiDuration          *prometheus.HistogramVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	rateLimited         prometheus.Counter
	suspicious          prometheus.Counter
	cacheEvictions      *prometheus.CounterVec
	exports             *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transactionsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transactions_created_total",
			Help:      "Total number of transactions added",
		}),
		transactionsDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transactions_deleted_total",
			Help:      "Total number of transactions deleted",
		}),
		transactionCount: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transactions",
			Help:      "Current number of transactions in the ledger",
		}),
		budget: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "budget_amount",
			Help:      "Current monthly budget (0 when unset)",
		}),
		persistErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "persist_errors_total",
			Help:      "Total number of failed writes to the key-value store",
		}),
		// Labels: type (created, deleted), result (success, error)
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of transaction events published",
		}, []string{"type", "result"}),
		// Labels: operation (categorize, advice), outcome (success, fallback, cached, busy)
		aiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "advisor",
			Name:      "requests_total",
			Help:      "Total number of AI gateway requests by outcome",
		}, []string{"operation", "outcome"}),
		aiDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "advisor",
			Name:      "request_duration_seconds",
			Help:      "Duration of LLM calls in seconds",
			Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32},
		}, []string{"operation"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),
		suspicious: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "suspicious_requests_total",
			Help:      "Total number of requests flagged by the security detector",
		}),
		cacheEvictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "expired_total",
			Help:      "Total number of expired cache entries removed by cleanup",
		}, []string{"cache"}),
		// Labels: operation (export, remove), result (success, error)
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "sheet_operations_total",
			Help:      "Total number of spreadsheet mirror operations",
		}, []string{"operation", "result"}),
	}
}

func (m *Metrics) TransactionCreated(count int) {
	if m == nil {
		return
	}
	m.transactionsCreated.Inc()
	m.transactionCount.Set(float64(count))
}

func (m *Metrics) TransactionDeleted(count int) {
	if m == nil {
		return
	}
	m.transactionsDeleted.Inc()
	m.transactionCount.Set(float64(count))
}

func (m *Metrics) TransactionsLoaded(count int) {
	if m == nil {
		return
	}
	m.transactionCount.Set(float64(count))
}

func (m *Metrics) BudgetSet(amount float64) {
	if m == nil {
		return
	}
	m.budget.Set(amount)
}

func (m *Metrics) PersistError() {
	if m == nil {
		return
	}
	m.persistErrors.Inc()
}

func (m *Metrics) EventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.events.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) AIRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) AICall(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.aiDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) HTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) SuspiciousRequest() {
	if m == nil {
		return
	}
	m.suspicious.Inc()
}

func (m *Metrics) CacheExpired(cache string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheEvictions.WithLabelValues(cache).Add(float64(n))
}

func (m *Metrics) SheetOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.exports.WithLabelValues(operation, result).Inc()
}

// Handler serves the collectors of g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
