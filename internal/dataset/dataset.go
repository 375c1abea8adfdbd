// Package dataset reads raw restaurant rows from local files, HTTP URLs and
// the Hugging Face datasets-server.
//
// Every format is exposed as a Source that yields domain.RawRecord values one
// at a time, so the pipeline never holds more than a page of input in memory.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/dinewise/dinewise-server/internal/domain"
	"github.com/dinewise/dinewise-server/internal/ratelimit"
)

// DefaultSource is the published Zomato Bangalore dataset.
const DefaultSource = "hf://ManikaSaini/zomato-restaurant-recommendation"

// Sentinel errors for source resolution.
var (
	ErrUnsupportedFormat = errors.New("dataset: unsupported format")
	ErrUpstream          = errors.New("dataset: upstream error")
)

// Source yields raw records until it returns io.EOF.
type Source interface {
	Next(ctx context.Context) (domain.RawRecord, error)
	Close() error
}

// Options configures how Open reaches remote sources.
type Options struct {
	HTTPClient *http.Client
	Limiter    *ratelimit.KeyedRateLimiter
	Logger     *slog.Logger

	// HFBaseURL overrides the datasets-server endpoint.
	HFBaseURL    string
	PageSize     int
	MaxRetries   int
	RetryBackoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.HFBaseURL == "" {
		o.HFBaseURL = defaultHFBaseURL
	}
	if o.PageSize <= 0 || o.PageSize > maxHFPageSize {
		o.PageSize = maxHFPageSize
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = time.Second
	}
	return o
}

// Open resolves uri to a Source. Supported forms:
//
//	hf://owner/name[?split=train&config=default]
//	http(s)://host/file.{json,jsonl,ndjson,csv,yaml,yml}
//	/path/to/file.{json,jsonl,ndjson,csv,yaml,yml}
func Open(ctx context.Context, uri string, opts Options) (Source, error) {
	opts = opts.withDefaults()

	switch {
	case strings.HasPrefix(uri, "hf://"):
		return openHuggingFace(uri, opts)
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return openURL(ctx, uri, opts)
	default:
		return openFile(uri)
	}
}

func openFile(p string) (Source, error) {
	format, err := formatOf(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	src, err := newReaderSource(format, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

func openURL(ctx context.Context, rawURL string, opts Options) (Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse dataset url: %w", err)
	}
	format, err := formatOf(u.Path)
	if err != nil {
		return nil, err
	}

	if opts.Limiter != nil {
		if err := opts.Limiter.Wait(ctx, u.Host); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrUpstream, u.Redacted(), resp.StatusCode)
	}

	opts.Logger.Info("streaming dataset", "url", u.Redacted(), "format", format)

	src, err := newReaderSource(format, resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	return src, nil
}

type format string

const (
	formatJSON  format = "json"
	formatJSONL format = "jsonl"
	formatCSV   format = "csv"
	formatYAML  format = "yaml"
)

func formatOf(p string) (format, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return formatJSON, nil
	case ".jsonl", ".ndjson":
		return formatJSONL, nil
	case ".csv":
		return formatCSV, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, p)
	}
}

func newReaderSource(f format, rc io.ReadCloser) (Source, error) {
	switch f {
	case formatJSON:
		return newJSONArraySource(rc)
	case formatJSONL:
		return newJSONLinesSource(rc), nil
	case formatCSV:
		return newCSVSource(rc)
	case formatYAML:
		return newYAMLSource(rc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// Limit returns a Source that stops after n records. n <= 0 means no limit.
func Limit(src Source, n int) Source {
	if n <= 0 {
		return src
	}
	return &limitSource{src: src, remaining: n}
}

type limitSource struct {
	src       Source
	remaining int
}

func (l *limitSource) Next(ctx context.Context) (domain.RawRecord, error) {
	if l.remaining <= 0 {
		return domain.RawRecord{}, io.EOF
	}
	rec, err := l.src.Next(ctx)
	if err != nil {
		return rec, err
	}
	l.remaining--
	return rec, nil
}

func (l *limitSource) Close() error { return l.src.Close() }

// FromRecords returns a Source over an in-memory slice.
func FromRecords(records ...domain.RawRecord) Source {
	return &sliceSource{records: records}
}

type sliceSource struct {
	records []domain.RawRecord
	pos     int
}

func (s *sliceSource) Next(ctx context.Context) (domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawRecord{}, err
	}
	if s.pos >= len(s.records) {
		return domain.RawRecord{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

func (s *sliceSource) Close() error { return nil }
