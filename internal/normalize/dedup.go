package normalize

import (
	"strings"

	"github.com/dinewise/dinewise-server/internal/domain"
)

// DedupKey returns the case- and whitespace-insensitive identity of a
// restaurant. Two records with the same key are the same restaurant.
func DedupKey(name, address string) string {
	return strings.ToLower(CollapseSpace(name)) + "\x1f" + strings.ToLower(CollapseSpace(address))
}

// MatchKey folds text for matching: lowercase with all whitespace removed,
// so "JP Nagar" and "J P Nagar" compare equal.
func MatchKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// Deduper tracks dedup keys across a batch. First seen wins.
// It is not safe for concurrent use.
type Deduper struct {
	seen map[string]struct{}
}

// NewDeduper returns an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Add records r's key and reports whether it was new.
func (d *Deduper) Add(r *domain.Restaurant) bool {
	key := DedupKey(r.Name, r.Address)
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct keys seen.
func (d *Deduper) Len() int {
	return len(d.seen)
}
