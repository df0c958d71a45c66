// Package ledger holds the authoritative in-memory transaction collection and
// budget, synchronizing both to a key-value store after every mutation.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartspend/internal/core"
	"smartspend/internal/metrics"
	"smartspend/internal/ports"
)

// Storage keys.
const (
	KeyTransactions = "expenses"
	KeyBudget       = "budget"
)

var (
	// ErrPersist wraps every failed write to the key-value store. The
	// mutation that triggered it is not applied.
	ErrPersist = errors.New("persist ledger")
	// ErrCorrupt is returned by Load when the stored collection is not valid JSON.
	ErrCorrupt = errors.New("stored transactions are malformed")
)

// Store is the ordered transaction collection. Natural order is
// most-recently-added first.
type Store struct {
	mu  sync.RWMutex
	kv  ports.KeyValueStore
	txs []core.Transaction

	publisher ports.EventPublisher
	metrics   *metrics.Metrics
	seed      bool
	newID     func() string
	now       func() time.Time
}

type Option func(*Store)

// WithPublisher forwards committed mutations to p.
func WithPublisher(p ports.EventPublisher) Option {
	return func(s *Store) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithDemoData seeds the demonstration dataset when nothing is stored yet.
func WithDemoData(enabled bool) Option {
	return func(s *Store) { s.seed = enabled }
}

// WithClock overrides the time source used for seeding and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides transaction id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore creates an empty store bound to kv. Call Load before use.
func NewStore(kv ports.KeyValueStore, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted collection. When the key has never been written
// the store starts empty, or with the demo dataset if seeding is enabled.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, KeyTransactions)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	var txs []core.Transaction
	switch {
	case ok:
		if err := json.Unmarshal([]byte(raw), &txs); err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	case s.seed:
		txs = DemoTransactions(core.DateOf(s.now()), s.newID)
		slog.InfoContext(ctx, "Seeded demo transactions", "count", len(txs))
	}

	s.mu.Lock()
	s.txs = txs
	s.mu.Unlock()

	s.metrics.TransactionsLoaded(len(txs))
	return nil
}

// Add validates input, assigns a fresh id and prepends the transaction.
// The whole collection is persisted before the call returns.
func (s *Store) Add(ctx context.Context, in core.NewTransaction) (core.Transaction, error) {
	tx, err := in.Parse()
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = s.newID()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	next := make([]core.Transaction, 0, len(s.txs)+1)
	next = append(next, tx)
	next = append(next, s.txs...)
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.txs = next
	count := len(next)
	s.mu.Unlock()

	s.metrics.TransactionCreated(count)
	slog.InfoContext(ctx, "Transaction added",
		"id", tx.ID,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category)

	s.publish(ctx, ports.TransactionEvent{Type: ports.EventCreated, ID: tx.ID, Transaction: &tx})
	return tx, nil
}

// Delete removes the transaction with the given id. An unknown id leaves the
// collection unchanged but is still persisted. It reports whether a
// transaction was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, core.ErrEmptyID
	}

	s.mu.Lock()
	next := make([]core.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if tx.ID != id {
			next = append(next, tx)
		}
	}
	removed := len(next) != len(s.txs)
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.txs = next
	count := len(next)
	s.mu.Unlock()

	if !removed {
		slog.DebugContext(ctx, "Delete of unknown transaction", "id", id)
		return false, nil
	}

	s.metrics.TransactionDeleted(count)
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	s.publish(ctx, ports.TransactionEvent{Type: ports.EventDeleted, ID: id})
	return true, nil
}

// List returns a copy of the collection in natural order.
func (s *Store) List() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.txs...)
}

// ByDate returns a copy sorted by date, newest first. Transactions on the same
// day keep their natural order.
func (s *Store) ByDate() []core.Transaction {
	txs := s.List()
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date.Time)
	})
	return txs
}

// Get looks up a transaction by id.
func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tx := range s.txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs)
}

// persist must be called with s.mu held.
func (s *Store) persist(ctx context.Context, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	data, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersist, err)
	}
	if err := s.kv.Set(ctx, KeyTransactions, string(data)); err != nil {
		s.metrics.PersistError()
		slog.ErrorContext(ctx, "Failed to persist transactions", "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s *Store) publish(ctx context.Context, evt ports.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	evt.Timestamp = s.now().UTC()
	err := s.publisher.PublishTransactionEvent(ctx, evt)
	s.metrics.EventPublished(string(evt.Type), err)
	if err != nil {
		// The mutation is already committed; the mirror catches up on the next event.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"type", evt.Type, "id", evt.ID, "error", err)
	}
}
