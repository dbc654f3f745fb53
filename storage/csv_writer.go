package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"unified-listings/models"
)

// CSVWriter exports unified records to a CSV file, one column per unified
// column in schema order. Unset values are written as empty cells.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	rows   int
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(models.ColumnNames()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRecords appends records to the file.
func (c *CSVWriter) WriteRecords(records []*models.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := make([]string, len(models.Columns))
	for _, rec := range records {
		for i, col := range models.Columns {
			row[i] = rec.String(col.Name)
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
		c.rows++
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Rows returns the number of data rows written so far.
func (c *CSVWriter) Rows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// Export streams every stored record from src into dst in batches.
func Export(ctx context.Context, src *UnifiedWriter, dst RecordExporter) (int, error) {
	const batchSize = 50
	batch := make([]*models.Record, 0, batchSize)
	total := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := dst.WriteRecords(batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	err := src.Each(ctx, func(rec *models.Record) error {
		batch = append(batch, rec)
		if len(batch) == batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("export: %w", err)
	}
	if err := flush(); err != nil {
		return total, fmt.Errorf("export: %w", err)
	}
	return total, nil
}
