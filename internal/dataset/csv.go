package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dinewise/dinewise-server/internal/domain"
)

// csvSource reads a CSV file whose first row names the columns.
type csvSource struct {
	rc     io.ReadCloser
	r      *csv.Reader
	header []string
}

func newCSVSource(rc io.ReadCloser) (*csvSource, error) {
	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("read csv header: empty file")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[i] = strings.TrimSpace(h)
	}

	return &csvSource{rc: rc, r: r, header: cols}, nil
}

func (s *csvSource) Next(ctx context.Context) (domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawRecord{}, err
	}
	fields, err := s.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.RawRecord{}, io.EOF
		}
		return domain.RawRecord{}, fmt.Errorf("read csv row: %w", err)
	}

	row := make(map[string]any, len(s.header))
	for i, col := range s.header {
		if i < len(fields) {
			row[col] = fields[i]
		}
	}
	return RecordFromMap(row), nil
}

func (s *csvSource) Close() error { return s.rc.Close() }
