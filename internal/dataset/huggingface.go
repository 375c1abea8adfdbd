package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dinewise/dinewise-server/internal/domain"
)

const (
	defaultHFBaseURL = "https://datasets-server.huggingface.co"
	maxHFPageSize    = 100
	hfLimiterKey     = "huggingface"
	userAgent        = "Dinewise/1.0"
)

// hfSource pages through the datasets-server /rows endpoint.
type hfSource struct {
	opts    Options
	dataset string
	config  string
	split   string

	offset int
	total  int // -1 until the first page is read
	buf    []map[string]any
}

type hfRowsResponse struct {
	Rows []struct {
		RowIdx int            `json:"row_idx"`
		Row    map[string]any `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

func openHuggingFace(uri string, opts Options) (*hfSource, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse dataset uri: %w", err)
	}
	name := strings.Trim(u.Host+u.Path, "/")
	if name == "" || !strings.Contains(name, "/") {
		return nil, fmt.Errorf("dataset uri %q: want hf://owner/name", uri)
	}

	q := u.Query()
	s := &hfSource{
		opts:    opts,
		dataset: name,
		config:  q.Get("config"),
		split:   q.Get("split"),
		total:   -1,
	}
	if s.config == "" {
		s.config = "default"
	}
	if s.split == "" {
		s.split = "train"
	}
	return s, nil
}

func (s *hfSource) Next(ctx context.Context) (domain.RawRecord, error) {
	if len(s.buf) == 0 {
		if s.total >= 0 && s.offset >= s.total {
			return domain.RawRecord{}, io.EOF
		}
		page, err := s.fetchPage(ctx)
		if err != nil {
			return domain.RawRecord{}, err
		}
		if len(page.Rows) == 0 {
			return domain.RawRecord{}, io.EOF
		}
		s.total = page.NumRowsTotal
		s.offset += len(page.Rows)
		for _, r := range page.Rows {
			s.buf = append(s.buf, r.Row)
		}
	}

	row := s.buf[0]
	s.buf = s.buf[1:]
	return RecordFromMap(row), nil
}

func (s *hfSource) Close() error { return nil }

// fetchPage requests one page, retrying on 429 and 5xx with linear backoff.
func (s *hfSource) fetchPage(ctx context.Context) (*hfRowsResponse, error) {
	query := url.Values{}
	query.Set("dataset", s.dataset)
	query.Set("config", s.config)
	query.Set("split", s.split)
	query.Set("offset", strconv.Itoa(s.offset))
	query.Set("length", strconv.Itoa(s.opts.PageSize))
	fullURL := strings.TrimRight(s.opts.HFBaseURL, "/") + "/rows?" + query.Encode()

	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * s.opts.RetryBackoff
			s.opts.Logger.Warn("retrying dataset page",
				"dataset", s.dataset,
				"offset", s.offset,
				"attempt", attempt,
				"wait", wait,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		page, retry, err := s.doFetch(ctx, fullURL)
		if err == nil {
			return page, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetch %s offset %d: %w", s.dataset, s.offset, lastErr)
}

func (s *hfSource) doFetch(ctx context.Context, fullURL string) (*hfRowsResponse, bool, error) {
	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.Wait(ctx, hfLimiterKey); err != nil {
			return nil, false, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	s.opts.Logger.Debug("huggingface rows request",
		"dataset", s.dataset,
		"offset", s.offset,
	)

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, truncateBody(body))
	}

	var page hfRowsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, false, fmt.Errorf("parse rows response: %w", err)
	}
	return &page, false, nil
}

func truncateBody(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
