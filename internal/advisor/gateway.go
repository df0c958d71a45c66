// Package advisor turns ledger data into LLM prompts and parses the replies.
// Both operations always produce a usable value: any failure degrades to a
// fixed fallback.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smartspend/internal/cache"
	"smartspend/internal/core"
	"smartspend/internal/metrics"
	"smartspend/internal/ports"
)

const (
	opCategorize = "categorize"
	opAdvice     = "advice"
)

// FallbackCategory is suggested whenever categorization fails.
const FallbackCategory = core.CategoryOther

// FallbackAdvice is returned whenever advice generation fails.
var FallbackAdvice = Advice{
	Title: "Service Unavailable",
	Body:  "I couldn't analyze your finances right now. Maybe I'm saving energy to lower your electric bill?",
}

// Advice is a short piece of generated financial advice.
type Advice struct {
	Title string `json:"title"`
	Body  string `json:"advice"`
}

// IsFallback reports whether a was produced by a failed request.
func (a Advice) IsFallback() bool {
	return a == FallbackAdvice
}

type Config struct {
	Model     string
	CacheSize int
	CacheTTL  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Model:     "gemini-2.5-flash",
		CacheSize: 256,
		CacheTTL:  time.Hour,
	}
}

// Gateway issues categorize and advice requests to a Completer.
type Gateway struct {
	llm     ports.Completer
	model   string
	cache   cache.Cache[core.Category]
	guard   *InFlight
	metrics *metrics.Metrics
}

// New builds a gateway. The returned cache is exposed through Cache so the
// caller can register it for periodic cleanup.
func New(llm ports.Completer, cfg Config, m *metrics.Metrics) *Gateway {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	return &Gateway{
		llm:     llm,
		model:   cfg.Model,
		cache:   cache.NewLRUCache[core.Category](cfg.CacheSize, cfg.CacheTTL),
		guard:   NewInFlight(),
		metrics: m,
	}
}

// Cache returns the suggestion cache.
func (g *Gateway) Cache() cache.Cache[core.Category] {
	return g.cache
}

// Categorize suggests one of the known categories for an expense. It returns
// FallbackCategory on any failure and for blank descriptions.
func (g *Gateway) Categorize(ctx context.Context, description string, amount core.Money) core.Category {
	description = strings.Join(strings.Fields(description), " ")
	if description == "" {
		return FallbackCategory
	}

	key := cacheKey(description, amount)
	if c, ok := g.cache.Get(key); ok {
		g.metrics.AIRequest(opCategorize, metrics.OutcomeCached)
		return c
	}

	text, err := g.complete(ctx, opCategorize, ports.CompletionRequest{
		Model:  g.model,
		Prompt: categorizePrompt(description, amount),
	})
	if err != nil {
		slog.WarnContext(ctx, "Categorization failed, using fallback", "error", err)
		g.metrics.AIRequest(opCategorize, metrics.OutcomeFallback)
		return FallbackCategory
	}

	c, ok := parseCategory(text)
	if !ok {
		slog.WarnContext(ctx, "Model returned unknown category", "response", truncate(text, 80))
		g.metrics.AIRequest(opCategorize, metrics.OutcomeFallback)
		return FallbackCategory
	}

	g.cache.Set(key, c)
	g.metrics.AIRequest(opCategorize, metrics.OutcomeSuccess)
	return c
}

// CategorizeForm is Categorize guarded so that each form has at most one
// request in flight. A concurrent call for the same form gets ErrBusy.
func (g *Gateway) CategorizeForm(ctx context.Context, formID, description string, amount core.Money) (core.Category, error) {
	release, err := g.guard.Acquire(formID)
	if err != nil {
		g.metrics.AIRequest(opCategorize, metrics.OutcomeBusy)
		return "", err
	}
	defer release()
	return g.Categorize(ctx, description, amount), nil
}

// GenerateAdvice asks for advice on txs, given in natural order. It makes a
// single attempt and returns FallbackAdvice on any failure.
func (g *Gateway) GenerateAdvice(ctx context.Context, txs []core.Transaction, budget core.Money, tone Tone) Advice {
	if tone == "" {
		tone = ToneFunny
	}

	text, err := g.complete(ctx, opAdvice, ports.CompletionRequest{
		Model:  g.model,
		Prompt: advicePrompt(txs, budget, tone),
		Shape:  adviceShape,
	})
	if err != nil {
		slog.WarnContext(ctx, "Advice request failed, using fallback", "error", err)
		g.metrics.AIRequest(opAdvice, metrics.OutcomeFallback)
		return FallbackAdvice
	}

	advice, err := parseAdvice(text)
	if err != nil {
		slog.WarnContext(ctx, "Advice response rejected, using fallback", "error", err)
		g.metrics.AIRequest(opAdvice, metrics.OutcomeFallback)
		return FallbackAdvice
	}

	g.metrics.AIRequest(opAdvice, metrics.OutcomeSuccess)
	return advice
}

func (g *Gateway) complete(ctx context.Context, op string, req ports.CompletionRequest) (string, error) {
	if g.llm == nil {
		return "", fmt.Errorf("%w: no completer", ports.ErrCompletionFailed)
	}
	start := time.Now()
	text, err := g.llm.Complete(ctx, req)
	g.metrics.AICall(op, time.Since(start))
	return text, err
}

// parseCategory accepts a known category name, tolerating surrounding
// whitespace, quotes and a trailing period.
func parseCategory(text string) (core.Category, bool) {
	s := strings.Trim(text, " \t\r\n\"'`.")
	c, err := core.ParseCategory(s)
	if err != nil || !c.IsKnown() {
		return "", false
	}
	return c, true
}

func parseAdvice(text string) (Advice, error) {
	var raw struct {
		Title  *string `json:"title"`
		Advice *string `json:"advice"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &raw); err != nil {
		return Advice{}, fmt.Errorf("decode advice: %w", err)
	}
	if raw.Title == nil || strings.TrimSpace(*raw.Title) == "" {
		return Advice{}, fmt.Errorf("advice response missing title")
	}
	if raw.Advice == nil || strings.TrimSpace(*raw.Advice) == "" {
		return Advice{}, fmt.Errorf("advice response missing advice")
	}
	return Advice{
		Title: strings.TrimSpace(*raw.Title),
		Body:  strings.TrimSpace(*raw.Advice),
	}, nil
}

// stripCodeFence removes a ```json fence some models wrap around JSON output.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func cacheKey(description string, amount core.Money) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(description), amount.Cents)
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
