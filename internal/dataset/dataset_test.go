package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinewise/dinewise-server/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func drain(t *testing.T, src Source) []domain.RawRecord {
	t.Helper()
	defer src.Close()

	var out []domain.RawRecord
	for {
		rec, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
}

func TestOpen_JSONArray(t *testing.T) {
	p := writeFixture(t, "rows.json", `[
		{"name": "Jalsa", "address": "942 21st Main", "rate": "4.1/5", "votes": 775, "online_order": "Yes"},
		{"name": "Spice Elephant", "address": "2nd Floor", "approx_cost(for two people)": "800", "extra": {"x": 1}}
	]`)

	src, err := Open(context.Background(), p, Options{})
	require.NoError(t, err)
	rows := drain(t, src)

	require.Len(t, rows, 2)
	assert.Equal(t, "Jalsa", rows[0].Name)
	assert.Equal(t, "775", rows[0].Votes)
	assert.Equal(t, "4.1/5", rows[0].Rate)
	assert.Equal(t, "800", rows[1].ApproxCost)
}

func TestOpen_JSONArrayRejectsObject(t *testing.T) {
	p := writeFixture(t, "rows.json", `{"name": "Jalsa"}`)
	_, err := Open(context.Background(), p, Options{})
	require.Error(t, err)
}

func TestOpen_JSONLines(t *testing.T) {
	p := writeFixture(t, "rows.jsonl", `{"name": "A", "address": "1"}

{"name": "B", "address": "2", "book_table": false}
`)

	src, err := Open(context.Background(), p, Options{})
	require.NoError(t, err)
	rows := drain(t, src)

	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[1].Name)
	assert.Equal(t, "No", rows[1].BookTable)
}

func TestOpen_JSONLinesReportsBadLine(t *testing.T) {
	p := writeFixture(t, "rows.ndjson", "{\"name\": \"A\"}\n{not json}\n")

	src, err := Open(context.Background(), p, Options{})
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next(context.Background())
	require.NoError(t, err)
	_, err = src.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestOpen_CSV(t *testing.T) {
	p := writeFixture(t, "rows.csv", "\ufeffname,address,listed_in(city),approx_cost(for two people)\n"+
		"Jalsa,\"942, 21st Main\",Banashankari,\"1,200\"\n"+
		"Short,Row\n")

	src, err := Open(context.Background(), p, Options{})
	require.NoError(t, err)
	rows := drain(t, src)

	require.Len(t, rows, 2)
	assert.Equal(t, "Jalsa", rows[0].Name)
	assert.Equal(t, "942, 21st Main", rows[0].Address)
	assert.Equal(t, "Banashankari", rows[0].ListedInCity)
	assert.Equal(t, "1,200", rows[0].ApproxCost)
	assert.Equal(t, "", rows[1].ListedInCity)
}

func TestOpen_YAML(t *testing.T) {
	p := writeFixture(t, "rows.yaml", `
- name: Jalsa
  address: 942 21st Main
  online_order: true
  votes: 775
  rate: 4.1/5
- name: Meghana Foods
  address: Koramangala
  approx_cost(for two people): 600
`)

	src, err := Open(context.Background(), p, Options{})
	require.NoError(t, err)
	rows := drain(t, src)

	require.Len(t, rows, 2)
	assert.Equal(t, "Yes", rows[0].OnlineOrder)
	assert.Equal(t, "775", rows[0].Votes)
	assert.Equal(t, "600", rows[1].ApproxCost)
}

func TestOpen_UnsupportedFormat(t *testing.T) {
	_, err := Open(context.Background(), "rows.parquet", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpen_HTTPFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/rows.jsonl" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintln(w, `{"name": "A", "address": "1"}`)
	}))
	defer server.Close()

	src, err := Open(context.Background(), server.URL+"/data/rows.jsonl", Options{HTTPClient: server.Client(), Logger: quietLogger()})
	require.NoError(t, err)
	rows := drain(t, src)
	require.Len(t, rows, 1)

	_, err = Open(context.Background(), server.URL+"/missing.csv", Options{HTTPClient: server.Client(), Logger: quietLogger()})
	assert.ErrorIs(t, err, ErrUpstream)
}

func hfServer(t *testing.T, total int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "/rows", r.URL.Path)
		assert.Equal(t, "owner/restaurants", q.Get("dataset"))
		assert.Equal(t, "train", q.Get("split"))

		offset, _ := strconv.Atoi(q.Get("offset"))
		length, _ := strconv.Atoi(q.Get("length"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"rows":[`)
		for i := offset; i < offset+length && i < total; i++ {
			if i > offset {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"row_idx":%d,"row":{"name":"R%d","address":"A%d","votes":%d}}`, i, i, i, i*10)
		}
		fmt.Fprintf(w, `],"num_rows_total":%d}`, total)
	}))
}

func TestHuggingFace_Pages(t *testing.T) {
	var calls atomic.Int32
	server := hfServer(t, 5, &calls)
	defer server.Close()

	src, err := Open(context.Background(), "hf://owner/restaurants", Options{
		HTTPClient: server.Client(),
		Logger:     quietLogger(),
		HFBaseURL:  server.URL,
		PageSize:   2,
	})
	require.NoError(t, err)
	rows := drain(t, src)

	require.Len(t, rows, 5)
	assert.Equal(t, "R0", rows[0].Name)
	assert.Equal(t, "R4", rows[4].Name)
	assert.Equal(t, "40", rows[4].Votes)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHuggingFace_LimitStopsPaging(t *testing.T) {
	var calls atomic.Int32
	server := hfServer(t, 1000, &calls)
	defer server.Close()

	src, err := Open(context.Background(), "hf://owner/restaurants", Options{
		HTTPClient: server.Client(),
		Logger:     quietLogger(),
		HFBaseURL:  server.URL,
		PageSize:   10,
	})
	require.NoError(t, err)
	rows := drain(t, Limit(src, 15))

	assert.Len(t, rows, 15)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHuggingFace_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"rows":[{"row_idx":0,"row":{"name":"A","address":"B"}}],"num_rows_total":1}`)
	}))
	defer server.Close()

	src, err := Open(context.Background(), "hf://owner/restaurants", Options{
		HTTPClient:   server.Client(),
		Logger:       quietLogger(),
		HFBaseURL:    server.URL,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	rows := drain(t, src)

	require.Len(t, rows, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHuggingFace_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"dataset not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	src, err := Open(context.Background(), "hf://owner/missing", Options{
		HTTPClient:   server.Client(),
		Logger:       quietLogger(),
		HFBaseURL:    server.URL,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)

	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHuggingFace_InvalidURI(t *testing.T) {
	_, err := Open(context.Background(), "hf://justone", Options{})
	assert.Error(t, err)
}

func TestLimit(t *testing.T) {
	src := FromRecords(
		domain.RawRecord{Name: "A"},
		domain.RawRecord{Name: "B"},
		domain.RawRecord{Name: "C"},
	)
	rows := drain(t, Limit(src, 2))
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[1].Name)

	all := drain(t, Limit(FromRecords(domain.RawRecord{Name: "A"}), 0))
	assert.Len(t, all, 1)
}

func TestRecordFromMap(t *testing.T) {
	rec := RecordFromMap(map[string]any{
		"name":            "Jalsa",
		"rate":            4.1,
		"votes":           float64(775),
		"online_order":    true,
		"book_table":      false,
		"phone":           []any{"080 4211 2222", "+91 98450 00000"},
		"listed_in(city)": nil,
		"unknown":         "ignored",
	})

	assert.Equal(t, "Jalsa", rec.Name)
	assert.Equal(t, "4.1", rec.Rate)
	assert.Equal(t, "775", rec.Votes)
	assert.Equal(t, "Yes", rec.OnlineOrder)
	assert.Equal(t, "No", rec.BookTable)
	assert.Equal(t, "080 4211 2222, +91 98450 00000", rec.Phone)
	assert.Equal(t, "", rec.ListedInCity)
}
