package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"smartspend/internal/core"
	"smartspend/internal/metrics"
	"smartspend/internal/ports"
)

// DefaultBudget applies until the user sets one.
var DefaultBudget = core.Money{Cents: 250000}

// ErrInvalidBudget is returned for non-numeric or negative input.
var ErrInvalidBudget = errors.New("budget must be a non-negative number")

// Budget is the monthly spending ceiling. Zero means unset.
type Budget struct {
	mu      sync.RWMutex
	kv      ports.KeyValueStore
	value   core.Money
	def     core.Money
	metrics *metrics.Metrics
}

// NewBudget creates a budget that falls back to def when nothing is stored.
func NewBudget(kv ports.KeyValueStore, def core.Money, m *metrics.Metrics) *Budget {
	return &Budget{kv: kv, value: def, def: def, metrics: m}
}

// Load reads the persisted value. A missing or unreadable value yields the default.
func (b *Budget) Load(ctx context.Context) error {
	raw, ok, err := b.kv.Get(ctx, KeyBudget)
	if err != nil {
		return fmt.Errorf("load budget: %w", err)
	}

	value := b.def
	if ok {
		parsed, err := core.ParseAmount(raw)
		if err != nil {
			slog.WarnContext(ctx, "Ignoring malformed stored budget", "value", raw, "error", err)
		} else {
			value = parsed
		}
	}

	b.mu.Lock()
	b.value = value
	b.mu.Unlock()
	b.metrics.BudgetSet(value.Float64())
	return nil
}

// Set parses raw and persists it. Invalid input leaves the budget unchanged.
func (b *Budget) Set(ctx context.Context, raw string) (core.Money, error) {
	value, err := core.ParseAmount(raw)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: %q", ErrInvalidBudget, raw)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.kv.Set(ctx, KeyBudget, value.Decimal().String()); err != nil {
		b.metrics.PersistError()
		return core.Money{}, fmt.Errorf("%w: budget: %w", ErrPersist, err)
	}
	b.value = value
	b.metrics.BudgetSet(value.Float64())
	slog.InfoContext(ctx, "Budget updated", "amount_cents", value.Cents)
	return value, nil
}

func (b *Budget) Value() core.Money {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}
