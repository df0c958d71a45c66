package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStoreGetSet(t *testing.T) {
	s := New(map[string]string{"budget": "10"})
	ctx := context.Background()

	v, ok, err := s.Get(ctx, "budget")
	if err != nil || !ok || v != "10" {
		t.Fatalf("unexpected get: v=%q ok=%v err=%v", v, ok, err)
	}
	if _, ok, _ := s.Get(ctx, "expenses"); ok {
		t.Fatalf("expected missing key")
	}
	if err := s.Set(ctx, "expenses", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", s.Len())
	}
}

func TestNewCopiesInitialMap(t *testing.T) {
	initial := map[string]string{"k": "v"}
	s := New(initial)
	initial["k"] = "changed"
	if v, _, _ := s.Get(context.Background(), "k"); v != "v" {
		t.Fatalf("store must not alias the initial map, got %q", v)
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	// No files -> empty
	if s := NewFromFiles(dir); s.Len() != 0 {
		t.Fatalf("expected empty store when files missing")
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("seed_budget.txt", "1200\n")
	mustWrite("seed_expenses.json", `[]`)
	mustWrite("ignored.txt", "x")

	s := NewFromFiles(dir)
	ctx := context.Background()
	if v, ok, _ := s.Get(ctx, "budget"); !ok || v != "1200" {
		t.Fatalf("unexpected budget seed: %q %v", v, ok)
	}
	if v, ok, _ := s.Get(ctx, "expenses"); !ok || v != "[]" {
		t.Fatalf("unexpected expenses seed: %q %v", v, ok)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 seeded keys, got %d", s.Len())
	}
}
