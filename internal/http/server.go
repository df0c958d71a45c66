package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"smartspend/internal/advisor"
	"smartspend/internal/core"
	"smartspend/internal/log"
	"smartspend/internal/metrics"
	"smartspend/internal/middleware/ratelimit"
	"smartspend/internal/middleware/security"
	"smartspend/internal/middleware/trace"
	appweb "smartspend/web"
)

// Ledger is the transaction collection the handlers mutate and read.
type Ledger interface {
	Add(ctx context.Context, in core.NewTransaction) (core.Transaction, error)
	Delete(ctx context.Context, id string) (bool, error)
	List() []core.Transaction
	ByDate() []core.Transaction
	Len() int
}

// Budget is the monthly budget value.
type Budget interface {
	Set(ctx context.Context, raw string) (core.Money, error)
	Value() core.Money
}

// Advisor produces category suggestions and advice. Both always yield a
// usable value; only CategorizeForm can fail, with advisor.ErrBusy.
type Advisor interface {
	Categorize(ctx context.Context, description string, amount core.Money) core.Category
	CategorizeForm(ctx context.Context, formID, description string, amount core.Money) (core.Category, error)
	GenerateAdvice(ctx context.Context, txs []core.Transaction, budget core.Money, tone advisor.Tone) advisor.Advice
}

type Config struct {
	Addr               string
	RateLimitPerMinute int
	// TrustedProxies are CIDRs whose forwarding headers are believed.
	TrustedProxies []string
}

type Deps struct {
	Ledger   Ledger
	Budget   Budget
	Advisor  Advisor
	Logger   *log.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// Ready reports whether backing services are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
	Now   func() time.Time
}

type Server struct {
	http.Server
	templates *template.Template

	ledger  Ledger
	budget  Budget
	advisor Advisor
	logger  *log.Logger
	metrics *metrics.Metrics
	ready   func(ctx context.Context) error
	now     func() time.Time

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates, configures routes and returns a
// ready-to-run server.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	if deps.Ledger == nil || deps.Budget == nil || deps.Advisor == nil {
		return nil, errors.New("ledger, budget and advisor are required")
	}
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	tmpl, err := appweb.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		templates: tmpl,
		ledger:    deps.Ledger,
		budget:    deps.Budget,
		advisor:   deps.Advisor,
		logger:    deps.Logger.WithComponent(log.ComponentHTTP),
		metrics:   deps.Metrics,
		ready:     deps.Ready,
		now:       deps.Now,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}),
	}

	mux := http.NewServeMux()

	static, err := appweb.Static()
	if err != nil {
		s.limiter.Stop()
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	// Pages and htmx partials
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /ui/transactions", s.handleTransactions)
	mux.HandleFunc("GET /ui/advisor", s.handleAdvisor)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /budget", s.handleSetBudget)
	mux.HandleFunc("POST /ui/categorize", s.handleCategorize)
	mux.HandleFunc("POST /ui/advice", s.handleAdvice)

	// JSON API
	mux.HandleFunc("GET /api/transactions", s.apiListTransactions)
	mux.HandleFunc("POST /api/transactions", s.apiCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.apiDeleteTransaction)
	mux.HandleFunc("GET /api/summary", s.apiSummary)
	mux.HandleFunc("GET /api/budget", s.apiGetBudget)
	mux.HandleFunc("PUT /api/budget", s.apiSetBudget)
	mux.HandleFunc("GET /api/categories", s.apiCategories)
	mux.HandleFunc("POST /api/categorize", s.apiCategorize)
	mux.HandleFunc("POST /api/advice", s.apiAdvice)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler(deps.Gatherer))

	// Only trace replaces the request; the layers below it must pass r
	// through unchanged so the mux can record the matched pattern on it.
	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, isMutation, s.rejectRateLimited)(h)
	h = detector.Middleware(s.logger.WithComponent(log.ComponentSecurity), s.metrics)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(s.logger, s.metrics, detector.ExtractClientIP).Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func isMutation(r *http.Request) bool {
	return r.Method != http.MethodGet && r.Method != http.MethodHead
}

func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited()
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)

	const msg = "Too many requests. Please slow down."
	if wantsJSON(r) {
		writeJSONError(w, http.StatusTooManyRequests, msg)
		return
	}
	ErrorResponse(http.StatusTooManyRequests, msg).Write(w)
}

// renderHTML executes a named template into memory so a failure never leaves
// a half-written response.
func (s *Server) renderHTML(ctx context.Context, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentTemplate).ErrorContext(ctx, "Template execution failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		return "", err
	}
	return buf.String(), nil
}

// render writes a template as a plain 200 htmx response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	s.respond(w, r, NewHTMXResponse(), name, data)
}

// respond adds the rendered template to b and writes it.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	html, err := s.renderHTML(r.Context(), name, data)
	if err != nil {
		ErrorResponse(http.StatusInternalServerError, "Could not render page.").Write(w)
		return
	}
	b.BodyHTML(html).Write(w)
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}
