package productsink

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yanqian/price-predictor/internal/domain/catalog"
)

// CSVSink writes the table to a local file, replacing any previous content.
type CSVSink struct {
	path string
}

// NewCSVSink targets path. Parent directories are created on write.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Name() string { return catalog.SinkCSV }

func (s *CSVSink) Write(_ context.Context, snap catalog.Snapshot) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := encodeCSV(&buf, snap.Table); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func encodeCSV(w io.Writer, table catalog.Table) error {
	cw := csv.NewWriter(w)
	if len(table.Columns) > 0 {
		if err := cw.Write(table.Columns); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

var _ catalog.Sink = (*CSVSink)(nil)
