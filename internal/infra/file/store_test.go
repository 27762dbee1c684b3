package file

import (
	"context"
	"errors"
	"os"
	"testing"

	"quiz-studio/internal/persist"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Get(ctx, "quiz/ns"); !errors.Is(err, persist.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Set(ctx, "quiz/ns", `{"a":1}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "quiz/ns", `{"a":2}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, "quiz/ns")
	if err != nil || got != `{"a":2}` {
		t.Fatalf("get = %q, %v", got, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected one file without temp leftovers, found %d", len(entries))
	}

	if err := store.Remove(ctx, "quiz/ns"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove(ctx, "quiz/ns"); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Set(ctx, "k", "v"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
