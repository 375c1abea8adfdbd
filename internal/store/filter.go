// Package store defines the restaurant store contract shared by the pipeline,
// the recommendation orchestrator and the API. The SQLite implementation lives
// in store/sqlite.
package store

import (
	"context"

	"github.com/dinewise/dinewise-server/internal/domain"
)

// Filter is a multi-predicate restaurant query. Nil or empty fields are inactive.
//
// Location matches case-insensitively after removing all whitespace.
// MinRate and the cost bounds exclude rows with a null rate or cost while
// active. CuisineContains matches when any entry is a case-insensitive
// substring of the row's cuisine list (whitespace ignored). RestType is a
// case-insensitive exact match.
// Boolean filters are exact and exclude nulls.
type Filter struct {
	Location        *string
	MinRate         *float64
	MinCost         *int
	MaxCost         *int
	CuisineContains []string
	RestType        *string
	OnlineOrder     *bool
	BookTable       *bool
	Limit           int // <= 0 returns every match
}

// Conflicting reports whether the cost bounds can never match.
func (f Filter) Conflicting() bool {
	return f.MinCost != nil && f.MaxCost != nil && *f.MinCost > *f.MaxCost
}

// FromPreferences builds the strict filter for a recommendation request.
func FromPreferences(p domain.Preferences, limit int) Filter {
	return Filter{
		Location:        p.Location,
		MinRate:         p.MinRating,
		MinCost:         p.MinCost,
		MaxCost:         p.MaxCost,
		CuisineContains: p.Cuisines,
		RestType:        p.RestType,
		OnlineOrder:     p.OnlineOrder,
		BookTable:       p.BookTable,
		Limit:           limit,
	}
}

// RestaurantReader is the read side of the store.
type RestaurantReader interface {
	Query(ctx context.Context, f Filter) ([]domain.Restaurant, error)
}

// RestaurantLoader is the write side used by the pipeline.
type RestaurantLoader interface {
	// BeginLoad opens a write transaction. With clear set the table is
	// emptied inside that transaction, so nothing is lost unless Commit
	// succeeds.
	BeginLoad(ctx context.Context, clear bool) (LoadTx, error)
}

// LoadTx is an open load transaction.
type LoadTx interface {
	// InsertMany inserts records, skipping any whose dedup key already
	// exists, and returns the number of rows inserted.
	InsertMany(ctx context.Context, records []domain.Restaurant) (int, error)
	Commit() error
	Rollback() error
}
