package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dinewise/dinewise-server/internal/domain"
	"github.com/dinewise/dinewise-server/internal/normalize"
	"github.com/dinewise/dinewise-server/internal/store"
)

const insertRestaurantSQL = `
	INSERT INTO restaurants (
		name, address, dedup_key, location, location_key, listed_in_city,
		cuisines, cuisines_key, cost_for_two, rate, votes, url, rest_type,
		online_order, book_table, phone, dish_liked
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(dedup_key) DO NOTHING`

// loadTx implements store.LoadTx. It holds the store's write lock from
// BeginLoad until Commit or Rollback.
type loadTx struct {
	store  *Store
	tx     *sql.Tx
	insert *sql.Stmt

	release sync.Once
	done    bool
}

var _ store.LoadTx = (*loadTx)(nil)

// BeginLoad opens a write transaction. When clear is set the table is emptied
// and the id sequence reset inside the transaction.
func (s *Store) BeginLoad(ctx context.Context, clear bool) (store.LoadTx, error) {
	s.mu.Lock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("begin load: %w", err)
	}

	if clear {
		if err := clearTx(ctx, tx); err != nil {
			_ = tx.Rollback()
			s.mu.Unlock()
			return nil, err
		}
	}

	stmt, err := tx.PrepareContext(ctx, insertRestaurantSQL)
	if err != nil {
		_ = tx.Rollback()
		s.mu.Unlock()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	return &loadTx{store: s, tx: tx, insert: stmt}, nil
}

// InsertMany inserts records, skipping those whose dedup key already exists.
func (l *loadTx) InsertMany(ctx context.Context, records []domain.Restaurant) (int, error) {
	if l.done {
		return 0, errors.New("load transaction already finished")
	}

	inserted := 0
	for i := range records {
		r := &records[i]
		res, err := l.insert.ExecContext(ctx, insertArgs(r)...)
		if err != nil {
			return inserted, fmt.Errorf("insert %q: %w", r.Name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

// Commit commits the load and releases the write lock.
func (l *loadTx) Commit() error {
	if l.done {
		return errors.New("load transaction already finished")
	}
	l.done = true
	defer l.unlock()
	_ = l.insert.Close()
	if err := l.tx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}
	return nil
}

// Rollback discards the load. Safe to call after Commit.
func (l *loadTx) Rollback() error {
	if l.done {
		return nil
	}
	l.done = true
	defer l.unlock()
	_ = l.insert.Close()
	if err := l.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback load: %w", err)
	}
	return nil
}

func (l *loadTx) unlock() {
	l.release.Do(l.store.mu.Unlock)
}

// InsertMany inserts records in their own transaction and returns the number
// inserted. Existing dedup keys are skipped.
func (s *Store) InsertMany(ctx context.Context, records []domain.Restaurant) (int, error) {
	tx, err := s.BeginLoad(ctx, false)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n, err := tx.InsertMany(ctx, records)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Clear removes every restaurant and resets the id sequence.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if err := clearTx(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func clearTx(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM restaurants`); err != nil {
		return fmt.Errorf("clear restaurants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'restaurants'`); err != nil {
		return fmt.Errorf("reset id sequence: %w", err)
	}
	return nil
}

// insertArgs returns the positional arguments for insertRestaurantSQL.
func insertArgs(r *domain.Restaurant) []any {
	var locationKey, cuisinesKey sql.NullString
	if r.Location != nil {
		locationKey = sql.NullString{String: normalize.MatchKey(*r.Location), Valid: true}
	}
	if r.Cuisines != nil {
		cuisinesKey = sql.NullString{String: normalize.MatchKey(*r.Cuisines), Valid: true}
	}

	return []any{
		r.Name,
		r.Address,
		normalize.DedupKey(r.Name, r.Address),
		nullableString(r.Location),
		locationKey,
		nullableString(r.ListedInCity),
		nullableString(r.Cuisines),
		cuisinesKey,
		nullableInt(r.CostForTwo),
		nullableFloat(r.Rate),
		nullableInt(r.Votes),
		nullableString(r.URL),
		nullableString(r.RestType),
		nullableBool(r.OnlineOrder),
		nullableBool(r.BookTable),
		nullableString(r.Phone),
		nullableString(r.DishLiked),
	}
}
