package advisor

import (
	"errors"
	"sync"
)

// ErrBusy is returned when a form already has a categorize request in flight.
var ErrBusy = errors.New("a categorization request is already in progress for this form")

// InFlight allows at most one holder per key. Later callers are rejected,
// never queued.
type InFlight struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{busy: make(map[string]struct{})}
}

// Acquire claims key. The returned release must be called exactly once.
func (f *InFlight) Acquire(key string) (release func(), err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.busy[key]; ok {
		return nil, ErrBusy
	}
	f.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.busy, key)
			f.mu.Unlock()
		})
	}, nil
}

// Busy reports whether key is currently held.
func (f *InFlight) Busy(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.busy[key]
	return ok
}
