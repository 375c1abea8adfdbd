// Package cache keeps recent strict recommendation results in memory.
//
// Only results that needed no relaxation are cached: a relaxed answer depends
// on what the store happened to lack at the time, and serving it again would
// hide restaurants loaded since.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dinewise/dinewise-server/internal/domain"
	"github.com/dinewise/dinewise-server/internal/metrics"
	"github.com/dinewise/dinewise-server/internal/normalize"
)

// Defaults match a small single-node deployment.
const (
	DefaultSize = 100
	DefaultTTL  = 10 * time.Minute
)

// RecommendationCache is an LRU with per-entry TTL. It is safe for
// concurrent use.
type RecommendationCache struct {
	lru *expirable.LRU[string, domain.Recommendation]
}

// New creates a cache holding at most size entries for ttl each.
func New(size int, ttl time.Duration) *RecommendationCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RecommendationCache{
		lru: expirable.NewLRU[string, domain.Recommendation](size, nil, ttl),
	}
}

// Get returns a copy of the cached recommendation for key.
func (c *RecommendationCache) Get(key string) (*domain.Recommendation, bool) {
	rec, ok := c.lru.Get(key)
	if !ok {
		metrics.CacheMisses.Inc()
		return nil, false
	}
	metrics.CacheHits.Inc()
	return clone(rec), true
}

// Set stores rec under key and reports whether it was cached. Relaxed
// results and results whose summary failed are refused.
func (c *RecommendationCache) Set(key string, rec *domain.Recommendation) bool {
	if rec == nil || rec.Relaxed || rec.SummaryFailed {
		return false
	}
	c.lru.Add(key, *clone(*rec))
	metrics.CacheEntries.Set(float64(c.lru.Len()))
	return true
}

// Clear drops every entry. Called after a reload changes the store.
func (c *RecommendationCache) Clear() {
	c.lru.Purge()
	metrics.CacheEntries.Set(0)
}

// Len returns the number of live entries.
func (c *RecommendationCache) Len() int {
	return c.lru.Len()
}

func clone(rec domain.Recommendation) *domain.Recommendation {
	out := rec
	out.Restaurants = slices.Clone(rec.Restaurants)
	if rec.Summary != nil {
		s := *rec.Summary
		out.Summary = &s
	}
	return &out
}

// keyPayload is the canonical form of a request. Fields are folded the same
// way the store compares them, so equivalent requests share a key.
type keyPayload struct {
	Location    string   `json:"location,omitempty"`
	MinRating   *float64 `json:"min_rating,omitempty"`
	MinCost     *int     `json:"min_cost,omitempty"`
	MaxCost     *int     `json:"max_cost,omitempty"`
	Cuisines    []string `json:"cuisines,omitempty"`
	RestType    string   `json:"rest_type,omitempty"`
	OnlineOrder *bool    `json:"online_order,omitempty"`
	BookTable   *bool    `json:"book_table,omitempty"`
	TopN        int      `json:"top_n"`
}

// Key returns a stable hex key for prefs and topN.
func Key(prefs domain.Preferences, topN int) string {
	p := keyPayload{
		MinRating:   prefs.MinRating,
		MinCost:     prefs.MinCost,
		MaxCost:     prefs.MaxCost,
		OnlineOrder: prefs.OnlineOrder,
		BookTable:   prefs.BookTable,
		TopN:        domain.TopNOrDefault(topN),
	}
	if prefs.Location != nil {
		p.Location = normalize.MatchKey(*prefs.Location)
	}
	if prefs.RestType != nil {
		p.RestType = strings.ToLower(normalize.CollapseSpace(*prefs.RestType))
	}
	for _, c := range prefs.Cuisines {
		if k := normalize.MatchKey(c); k != "" {
			p.Cuisines = append(p.Cuisines, k)
		}
	}
	slices.Sort(p.Cuisines)
	p.Cuisines = slices.Compact(p.Cuisines)

	// Marshalling a struct of plain fields cannot fail.
	b, _ := json.Marshal(p)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
