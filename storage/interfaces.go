package storage

import (
	"context"

	"unified-listings/models"
)

// RecordWriter is the interface the fetch loop writes unified records to.
type RecordWriter interface {
	Upsert(ctx context.Context, rec *models.Record) (bool, error)
	Commit() error
	Close() error
}

// RecordExporter is the interface for dumping stored unified records.
type RecordExporter interface {
	WriteRecords(records []*models.Record) error
	Close() error
}
