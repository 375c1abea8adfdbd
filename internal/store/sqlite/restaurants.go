package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dinewise/dinewise-server/internal/domain"
	"github.com/dinewise/dinewise-server/internal/normalize"
	"github.com/dinewise/dinewise-server/internal/store"
)

// restaurantColumns is the ordered list of columns selected in restaurant queries.
// Must match the scan order in scanRestaurant.
const restaurantColumns = `id, name, address, location, listed_in_city, cuisines,
	cost_for_two, rate, votes, url, rest_type, online_order, book_table, phone, dish_liked`

// orderByRating is the result ordering for every list query: rating
// descending with nulls last, then id ascending.
const orderByRating = ` ORDER BY rate IS NULL, rate DESC, id ASC`

// scanRestaurant scans a sql.Row (or sql.Rows via its Scan method) into a domain.Restaurant.
func scanRestaurant(scanner interface{ Scan(dest ...any) error }) (*domain.Restaurant, error) {
	var (
		r                                          domain.Restaurant
		location, listedIn, cuisines, url, restTyp sql.NullString
		phone, dishLiked                           sql.NullString
		cost, votes, onlineOrder, bookTable        sql.NullInt64
		rate                                       sql.NullFloat64
	)

	err := scanner.Scan(
		&r.ID,
		&r.Name,
		&r.Address,
		&location,
		&listedIn,
		&cuisines,
		&cost,
		&rate,
		&votes,
		&url,
		&restTyp,
		&onlineOrder,
		&bookTable,
		&phone,
		&dishLiked,
	)
	if err != nil {
		return nil, err
	}

	r.Location = stringPtr(location)
	r.ListedInCity = stringPtr(listedIn)
	r.Cuisines = stringPtr(cuisines)
	r.CostForTwo = intPtr(cost)
	r.Rate = floatPtr(rate)
	r.Votes = intPtr(votes)
	r.URL = stringPtr(url)
	r.RestType = stringPtr(restTyp)
	r.OnlineOrder = boolPtr(onlineOrder)
	r.BookTable = boolPtr(bookTable)
	r.Phone = stringPtr(phone)
	r.DishLiked = stringPtr(dishLiked)

	return &r, nil
}

// Query returns restaurants matching f, ordered by rating descending (nulls
// last) then id ascending. Conflicting cost bounds return an empty slice.
func (s *Store) Query(ctx context.Context, f store.Filter) ([]domain.Restaurant, error) {
	if f.Conflicting() {
		return []domain.Restaurant{}, nil
	}

	where, args := buildWhere(f)
	query := `SELECT ` + restaurantColumns + ` FROM restaurants` + where + orderByRating
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query restaurants: %w", err)
	}
	defer rows.Close()

	out := []domain.Restaurant{}
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurants: %w", err)
	}
	return out, nil
}

// buildWhere turns the active predicates of f into a WHERE clause and its
// positional arguments.
func buildWhere(f store.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.Location != nil {
		if key := normalize.MatchKey(*f.Location); key != "" {
			conds = append(conds, "location_key = ?")
			args = append(args, key)
		}
	}
	if f.MinRate != nil {
		conds = append(conds, "rate IS NOT NULL AND rate >= ?")
		args = append(args, *f.MinRate)
	}
	if f.MinCost != nil {
		conds = append(conds, "cost_for_two IS NOT NULL AND cost_for_two >= ?")
		args = append(args, *f.MinCost)
	}
	if f.MaxCost != nil {
		conds = append(conds, "cost_for_two IS NOT NULL AND cost_for_two <= ?")
		args = append(args, *f.MaxCost)
	}

	var anyOf []string
	for _, c := range f.CuisineContains {
		key := normalize.MatchKey(c)
		if key == "" {
			continue
		}
		anyOf = append(anyOf, `cuisines_key LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(key)+"%")
	}
	if len(anyOf) > 0 {
		conds = append(conds, "("+strings.Join(anyOf, " OR ")+")")
	}

	if f.RestType != nil {
		if rt := normalize.CollapseSpace(*f.RestType); rt != "" {
			conds = append(conds, "rest_type = ? COLLATE NOCASE")
			args = append(args, rt)
		}
	}
	if f.OnlineOrder != nil {
		conds = append(conds, "online_order = ?")
		args = append(args, boolToInt(*f.OnlineOrder))
	}
	if f.BookTable != nil {
		conds = append(conds, "book_table = ?")
		args = append(args, boolToInt(*f.BookTable))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// GetByID retrieves a restaurant by id.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE id = ?`, id)

	r, err := scanRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get restaurant %d: %w", id, err)
	}
	return r, nil
}

// Count returns the number of stored restaurants.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM restaurants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count restaurants: %w", err)
	}
	return n, nil
}

// DistinctLocations returns every non-empty location, sorted.
func (s *Store) DistinctLocations(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT location FROM restaurants
		WHERE location IS NOT NULL AND TRIM(location) != ''
		ORDER BY location`)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// DistinctCuisines returns the distinct cuisine tokens across all rows,
// deduplicated case-insensitively and sorted.
func (s *Store) DistinctCuisines(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT cuisines FROM restaurants
		WHERE cuisines IS NOT NULL AND cuisines != ''
		GROUP BY cuisines
		ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("query cuisines: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]string)
	for rows.Next() {
		var list string
		if err := rows.Scan(&list); err != nil {
			return nil, fmt.Errorf("scan cuisines: %w", err)
		}
		for _, c := range normalize.SplitCuisines(list) {
			key := strings.ToLower(c)
			if _, ok := seen[key]; !ok {
				seen[key] = c
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cuisines: %w", err)
	}

	out := make([]string, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out, nil
}
