package dataset

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/dinewise/dinewise-server/internal/domain"
)

// jsonArraySource streams the elements of a top-level JSON array.
type jsonArraySource struct {
	rc  io.ReadCloser
	dec *json.Decoder
}

func newJSONArraySource(rc io.ReadCloser) (*jsonArraySource, error) {
	dec := json.NewDecoder(rc)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read json array: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("read json array: expected '[', got %v", tok)
	}
	return &jsonArraySource{rc: rc, dec: dec}, nil
}

func (s *jsonArraySource) Next(ctx context.Context) (domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawRecord{}, err
	}
	if !s.dec.More() {
		return domain.RawRecord{}, io.EOF
	}
	var row map[string]any
	if err := s.dec.Decode(&row); err != nil {
		return domain.RawRecord{}, fmt.Errorf("decode json row: %w", err)
	}
	return RecordFromMap(row), nil
}

func (s *jsonArraySource) Close() error { return s.rc.Close() }

// jsonLinesSource reads one JSON object per line. Blank lines are ignored.
type jsonLinesSource struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	line    int
}

func newJSONLinesSource(rc io.ReadCloser) *jsonLinesSource {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &jsonLinesSource{rc: rc, scanner: scanner}
}

func (s *jsonLinesSource) Next(ctx context.Context) (domain.RawRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.RawRecord{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return domain.RawRecord{}, fmt.Errorf("read jsonl: %w", err)
			}
			return domain.RawRecord{}, io.EOF
		}
		s.line++

		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			return domain.RawRecord{}, fmt.Errorf("decode jsonl line %d: %w", s.line, err)
		}
		return RecordFromMap(row), nil
	}
}

func (s *jsonLinesSource) Close() error { return s.rc.Close() }
