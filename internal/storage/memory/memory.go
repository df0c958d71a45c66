package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"smartspend/internal/ports"
)

// Store is a process-local KeyValueStore. Values live until the process exits.
type Store struct {
	mu     sync.Mutex
	values map[string]string
}

var _ ports.KeyValueStore = (*Store)(nil)

func New(initial map[string]string) *Store {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Store{values: values}
}

// NewFromFiles seeds the store from files named seed_<key>.<ext> in base.
// A missing directory yields an empty store.
func NewFromFiles(base string) *Store {
	return New(readSeeds(base))
}

// Get implements ports.KeyValueStore
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements ports.KeyValueStore
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

func readSeeds(base string) map[string]string {
	paths, err := filepath.Glob(filepath.Join(base, "seed_*"))
	if err != nil {
		return nil
	}
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		key := strings.TrimPrefix(strings.TrimSuffix(name, filepath.Ext(name)), "seed_")
		if key == "" {
			continue
		}
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		out[key] = strings.TrimSpace(string(b))
	}
	return out
}
