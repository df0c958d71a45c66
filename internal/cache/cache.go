// Package cache provides a generic TTL-bounded LRU cache and a manager that
// periodically purges expired entries from registered caches.
package cache

import (
	"sync"
	"time"

	"smartspend/internal/log"
	"smartspend/internal/metrics"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
	Cleaner
}

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic cleanup for a set of named caches.
type Manager struct {
	mu      sync.Mutex
	caches  map[string]Cleaner
	logger  *log.Logger
	metrics *metrics.Metrics

	stopOnce    sync.Once
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
}

func NewManager(logger *log.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		caches:      make(map[string]Cleaner),
		logger:      logger,
		metrics:     m,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache under name; a later registration replaces it.
func (m *Manager) Register(name string, c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// CleanNow purges every registered cache once and returns the number of
// entries removed per cache.
func (m *Manager) CleanNow() map[string]int {
	m.mu.Lock()
	caches := make(map[string]Cleaner, len(m.caches))
	for name, c := range m.caches {
		caches[name] = c
	}
	m.mu.Unlock()

	removed := make(map[string]int, len(caches))
	for name, c := range caches {
		n := c.CleanExpired()
		removed[name] = n
		m.metrics.CacheExpired(name, n)
		if n > 0 && m.logger != nil {
			m.logger.Debug("Cache cleanup completed", "cache", name, "entries_removed", n)
		}
	}
	return removed
}

// StartCleanup begins periodic cleanup. It must be called at most once.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanNow()
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop halts the cleanup goroutine and waits for it to exit.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.cleanupDone
		}
	})
}
