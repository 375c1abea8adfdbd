package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dinewise/dinewise-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seed inserts records and fails the test on error.
func seed(t *testing.T, s *Store, records ...domain.Restaurant) {
	t.Helper()
	if _, err := s.InsertMany(context.Background(), records); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='restaurants'").Scan(&name)
	if err != nil {
		t.Fatalf("restaurants table not found: %v", err)
	}

	indexes := []string{
		"idx_restaurants_location",
		"idx_restaurants_location_key",
		"idx_restaurants_rate",
		"idx_restaurants_cost_for_two",
		"idx_restaurants_cuisines",
	}
	for _, idx := range indexes {
		var got string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&got)
		if err != nil {
			t.Errorf("index %s not found: %v", idx, err)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	seed(t, s, restaurant("Jalsa", "123 Main"))
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open keeps data (schema is idempotent).
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	defer s2.Close()

	n, err := s2.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
