package dataset

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dinewise/dinewise-server/internal/domain"
)

// yamlSource serves a YAML sequence of mappings. Fixture files are small, so
// the whole document is decoded up front.
type yamlSource struct {
	rows []map[string]any
	pos  int
}

func newYAMLSource(rc io.ReadCloser) (*yamlSource, error) {
	defer rc.Close()

	var rows []map[string]any
	if err := yaml.NewDecoder(rc).Decode(&rows); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode yaml dataset: %w", err)
	}
	return &yamlSource{rows: rows}, nil
}

func (s *yamlSource) Next(ctx context.Context) (domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawRecord{}, err
	}
	if s.pos >= len(s.rows) {
		return domain.RawRecord{}, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return RecordFromMap(row), nil
}

func (s *yamlSource) Close() error { return nil }
