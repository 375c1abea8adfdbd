// Package analytics counts which locations and cuisines users ask for.
//
// Counters live in Badger under loc: and cui: prefixes, keyed by the same
// folded form the store matches on, so "JP Nagar" and "J P Nagar" count as
// one location. The first spelling seen is kept for display.
package analytics

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/dinewise/dinewise-server/internal/domain"
	"github.com/dinewise/dinewise-server/internal/normalize"
)

const (
	locationPrefix = "loc:"
	cuisinePrefix  = "cui:"
)

// DefaultTop is how many entries Popular returns per list when asked for zero.
const DefaultTop = 10

// Count is one counted value.
type Count struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Popular is the response of Tracker.Popular.
type Popular struct {
	Locations []Count `json:"locations"`
	Cuisines  []Count `json:"cuisines"`
}

type counter struct {
	Name      string    `json:"name"`
	Count     int64     `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker records preference usage.
type Tracker struct {
	db     *badger.DB
	logger *slog.Logger

	// mu serializes counter updates. Concurrent read-modify-write
	// transactions on one key would otherwise fail with badger.ErrConflict.
	mu sync.Mutex
}

// Open opens (or creates) the analytics database at path. An empty path opens
// an in-memory database, which is what tests use.
func Open(path string, logger *slog.Logger) (*Tracker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	logger.Info("analytics database opened", "path", path, "in_memory", path == "")
	return &Tracker{db: db, logger: logger}, nil
}

// Close closes the database.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// Record increments the counters for the location and cuisines in prefs in a
// single transaction. Preferences with neither are ignored.
func (t *Tracker) Record(ctx context.Context, prefs domain.Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	type hit struct{ key, name string }
	var hits []hit
	if prefs.Location != nil {
		if k := normalize.MatchKey(*prefs.Location); k != "" {
			hits = append(hits, hit{locationPrefix + k, normalize.CollapseSpace(*prefs.Location)})
		}
	}
	seen := make(map[string]bool)
	for _, c := range prefs.Cuisines {
		k := normalize.MatchKey(c)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		hits = append(hits, hit{cuisinePrefix + k, normalize.CollapseSpace(c)})
	}
	if len(hits) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	err := t.db.Update(func(txn *badger.Txn) error {
		for _, h := range hits {
			c, err := getCounter(txn, []byte(h.key))
			if err != nil {
				return err
			}
			if c.Name == "" {
				c.Name = h.name
			}
			c.Count++
			c.UpdatedAt = now

			data, err := json.Marshal(c)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(h.key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record preferences: %w", err)
	}
	return nil
}

func getCounter(txn *badger.Txn, key []byte) (counter, error) {
	var c counter
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &c)
	})
	return c, err
}

// Popular returns the most requested locations and cuisines, highest count
// first and ties by name. Non-positive limits use DefaultTop.
func (t *Tracker) Popular(ctx context.Context, topLocations, topCuisines int) (*Popular, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topLocations <= 0 {
		topLocations = DefaultTop
	}
	if topCuisines <= 0 {
		topCuisines = DefaultTop
	}

	out := &Popular{}
	err := t.db.View(func(txn *badger.Txn) error {
		var err error
		if out.Locations, err = scan(txn, locationPrefix, topLocations); err != nil {
			return err
		}
		out.Cuisines, err = scan(txn, cuisinePrefix, topCuisines)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read popular preferences: %w", err)
	}
	return out, nil
}

func scan(txn *badger.Txn, prefix string, top int) ([]Count, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	counts := []Count{}
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		var c counter
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &c)
		}); err != nil {
			return nil, err
		}
		counts = append(counts, Count{Name: c.Name, Count: c.Count})
	}

	slices.SortFunc(counts, func(a, b Count) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	if len(counts) > top {
		counts = counts[:top]
	}
	return counts, nil
}

// Reset removes every counter.
func (t *Tracker) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range []string{locationPrefix, cuisinePrefix} {
		if err := t.db.DropPrefix([]byte(p)); err != nil {
			return fmt.Errorf("reset %s counters: %w", strings.TrimSuffix(p, ":"), err)
		}
	}
	t.logger.Info("analytics counters reset")
	return nil
}

// Ping reports whether the database is usable.
func (t *Tracker) Ping() error {
	if t.db.IsClosed() {
		return errors.New("analytics db closed")
	}
	return nil
}
