package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinewise/dinewise-server/internal/dataset"
	"github.com/dinewise/dinewise-server/internal/domain"
	"github.com/dinewise/dinewise-server/internal/store"
	"github.com/dinewise/dinewise-server/internal/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "restaurants.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func zomatoRows() []domain.RawRecord {
	return []domain.RawRecord{
		{Name: "Jalsa", Address: "942, 21st Main Road, Banashankari", Location: "Banashankari", Rate: "4.1/5", ApproxCost: "800", Cuisines: "North Indian, Mughlai, Chinese"},
		{Name: "Spice Elephant", Address: "2nd Floor, 80 Feet Road, Banashankari", Location: "Banashankari", Rate: "4.1/5", ApproxCost: "800"},
		{Name: "", Address: "no name"},
		{Name: "JALSA ", Address: "942, 21st Main Road,  Banashankari", Rate: "2.0/5"},
		{Name: "Addhuri Udupi Bhojana", Address: "1st Floor, Annakuteera, Banashankari", Rate: "NEW", ApproxCost: "300"},
		{Name: "Grand Village", Address: "10, 3rd Floor, Lakshmi Associates", Location: "Basavanagudi", Rate: "3.8 /5", ApproxCost: "600"},
	}
}

// errSource yields its records and then fails.
type errSource struct {
	records []domain.RawRecord
	err     error
}

func (s *errSource) Next(ctx context.Context) (domain.RawRecord, error) {
	if len(s.records) == 0 {
		return domain.RawRecord{}, s.err
	}
	r := s.records[0]
	s.records = s.records[1:]
	return r, nil
}

func (s *errSource) Close() error { return nil }

func TestRun_NormalizesAndDedups(t *testing.T) {
	s := newTestStore(t)
	p := New(s, testLogger())
	ctx := context.Background()

	res, err := p.Run(ctx, dataset.FromRecords(zomatoRows()...), Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 6, res.Read)
	assert.Equal(t, 4, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Duplicates)

	// First-seen Jalsa is the one stored.
	jalsa, err := s.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Jalsa", jalsa.Name)
	require.NotNil(t, jalsa.Rate)
	assert.Equal(t, 4.1, *jalsa.Rate)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestRun_MaxRowsTakesPrefix(t *testing.T) {
	s := newTestStore(t)
	p := New(s, testLogger())

	res, err := p.Run(context.Background(), dataset.FromRecords(zomatoRows()...), Options{MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Read)
	assert.Equal(t, 2, res.Inserted)

	got, err := s.Query(context.Background(), store.Filter{})
	require.NoError(t, err)
	names := []string{got[0].Name, got[1].Name}
	assert.ElementsMatch(t, []string{"Jalsa", "Spice Elephant"}, names)
}

func TestRun_ClearBeforeIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	p := New(s, testLogger())
	ctx := context.Background()

	_, err := p.Run(ctx, dataset.FromRecords(zomatoRows()...), Options{ClearBefore: true})
	require.NoError(t, err)
	first, err := s.Query(ctx, store.Filter{})
	require.NoError(t, err)

	res, err := p.Run(ctx, dataset.FromRecords(zomatoRows()...), Options{ClearBefore: true})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Inserted)

	second, err := s.Query(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_AdditiveSkipsStoredDuplicates(t *testing.T) {
	s := newTestStore(t)
	p := New(s, testLogger())
	ctx := context.Background()

	_, err := p.Run(ctx, dataset.FromRecords(zomatoRows()...), Options{})
	require.NoError(t, err)

	res, err := p.Run(ctx, dataset.FromRecords(zomatoRows()...), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 5, res.Duplicates) // 1 in-run + 4 already stored

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestRun_SourceErrorLeavesStoreIntact(t *testing.T) {
	s := newTestStore(t)
	p := New(s, testLogger())
	ctx := context.Background()

	_, err := p.Run(ctx, dataset.FromRecords(zomatoRows()...), Options{})
	require.NoError(t, err)

	boom := errors.New("connection reset")
	src := &errSource{records: zomatoRows()[:2], err: boom}
	res, err := p.Run(ctx, src, Options{ClearBefore: true})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, res)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestRun_EmptySourceDoesNotClear(t *testing.T) {
	s := newTestStore(t)
	p := New(s, testLogger())
	ctx := context.Background()

	_, err := p.Run(ctx, dataset.FromRecords(zomatoRows()...), Options{})
	require.NoError(t, err)

	res, err := p.Run(ctx, dataset.FromRecords(), Options{ClearBefore: true})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Read)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

// fakeLoader records calls and can fail on a given batch.
type fakeLoader struct {
	batches    [][]domain.Restaurant
	failOn     int // 1-based batch index, 0 = never
	cleared    bool
	committed  bool
	rolledBack bool
}

func (f *fakeLoader) BeginLoad(ctx context.Context, clear bool) (store.LoadTx, error) {
	f.cleared = clear
	return f, nil
}

func (f *fakeLoader) InsertMany(ctx context.Context, records []domain.Restaurant) (int, error) {
	f.batches = append(f.batches, records)
	if f.failOn == len(f.batches) {
		return 0, io.ErrUnexpectedEOF
	}
	return len(records), nil
}

func (f *fakeLoader) Commit() error {
	f.committed = true
	return nil
}

func (f *fakeLoader) Rollback() error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

func TestRun_Batches(t *testing.T) {
	loader := &fakeLoader{}
	p := New(loader, testLogger())

	res, err := p.Run(context.Background(), dataset.FromRecords(zomatoRows()...), Options{BatchSize: 3, ClearBefore: true})
	require.NoError(t, err)

	assert.True(t, loader.cleared)
	assert.True(t, loader.committed)
	require.Len(t, loader.batches, 2)
	assert.Len(t, loader.batches[0], 3)
	assert.Len(t, loader.batches[1], 1)
	assert.Equal(t, 4, res.Inserted)
}

func TestRun_StoreErrorRollsBack(t *testing.T) {
	loader := &fakeLoader{failOn: 2}
	p := New(loader, testLogger())

	_, err := p.Run(context.Background(), dataset.FromRecords(zomatoRows()...), Options{BatchSize: 2})
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.False(t, loader.committed)
	assert.True(t, loader.rolledBack)
}
