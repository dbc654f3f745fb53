package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"unified-listings/models"
)

// ErrStoreUnavailable wraps failures to open or prepare the store.
var ErrStoreUnavailable = errors.New("store unavailable")

// Options configures a UnifiedWriter.
type Options struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string
	// DSN is a file path (or ":memory:") for SQLite, a connection string for Postgres.
	DSN string
	// Overwrite drops every stored row before the run starts.
	Overwrite bool
	// Priorities ranks sources; nil means DefaultPriorities.
	Priorities Priorities
	// PingAttempts bounds connection attempts; Postgres defaults to 10.
	PingAttempts int
}

// executor accepts either *sql.DB or *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UnifiedWriter persists unified records keyed by VIN and resolves
// conflicts by source priority. It is not safe for concurrent use.
type UnifiedWriter struct {
	db         *sql.DB
	dialect    dialect
	priorities Priorities
	upsertSQL  string
	tx         *sql.Tx
	closed     bool
}

// NewUnifiedWriter opens the store, applies the overwrite policy and
// creates the schema if needed.
func NewUnifiedWriter(ctx context.Context, opts Options) (*UnifiedWriter, error) {
	d, err := lookupDialect(opts.Driver)
	if err != nil {
		return nil, err
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("%w: empty %s DSN", ErrStoreUnavailable, d.name)
	}
	if d.name == "sqlite" && opts.DSN != ":memory:" {
		if err := prepareSQLiteFile(opts.DSN, opts.Overwrite); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	db, err := sql.Open(d.driverName, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, d.name, err)
	}
	if d.name == "sqlite" {
		// One connection keeps :memory: databases shared and serializes writes.
		db.SetMaxOpenConns(1)
	}

	attempts := opts.PingAttempts
	if attempts <= 0 {
		attempts = 1
		if d.name == "postgres" {
			attempts = 10
		}
	}
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		if i < attempts-1 {
			if werr := waitPing(ctx, 2*time.Second); werr != nil {
				err = werr
				break
			}
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s ping failed after %d attempts: %v", ErrStoreUnavailable, d.name, attempts, err)
	}

	priorities := opts.Priorities
	if priorities == nil {
		priorities = DefaultPriorities()
	}
	w := &UnifiedWriter{
		db:         db,
		dialect:    d,
		priorities: priorities,
		upsertSQL:  d.upsertSQL(),
	}
	if err := w.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", ErrStoreUnavailable, err)
	}
	if opts.Overwrite && d.name == "postgres" {
		if err := w.Clear(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	return w, nil
}

func waitPing(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func prepareSQLiteFile(path string, overwrite bool) error {
	if overwrite {
		for _, p := range []string{path, path + "-wal", path + "-shm"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove %q: %w", p, err)
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	return nil
}

func (w *UnifiedWriter) migrate(ctx context.Context) error {
	for _, stmt := range w.dialect.pragmas {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	for _, stmt := range w.dialect.schemaStatements() {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Clear deletes every stored row.
func (w *UnifiedWriter) Clear(ctx context.Context) error {
	if _, err := w.exec().ExecContext(ctx, "DELETE FROM "+TableName); err != nil {
		return fmt.Errorf("clear %s: %w", TableName, err)
	}
	return nil
}

func (w *UnifiedWriter) exec() executor {
	if w.tx != nil {
		return w.tx
	}
	return w.db
}

func (w *UnifiedWriter) begin(ctx context.Context) error {
	if w.tx != nil {
		return nil
	}
	// Not bound to ctx cancellation; Close commits it on every exit path.
	tx, err := w.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	w.tx = tx
	return nil
}

// Upsert writes rec unless the row already stored for its VIN comes from a
// strictly higher-priority source. A write always replaces the whole row.
// Records without vin or source are rejected without touching the store.
func (w *UnifiedWriter) Upsert(ctx context.Context, rec *models.Record) (bool, error) {
	if w.closed {
		return false, errors.New("upsert on closed writer")
	}
	if rec == nil {
		return false, nil
	}
	vin, source := rec.String("vin"), rec.String("source")
	if vin == "" || source == "" {
		return false, nil
	}

	if err := w.begin(ctx); err != nil {
		return false, err
	}

	var stored sql.NullString
	err := w.tx.QueryRowContext(ctx, w.dialect.selectSourceSQL(), vin).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("lookup %s: %w", vin, err)
	case !w.priorities.Allows(stored.String, source):
		return false, nil
	}

	if _, err := w.tx.ExecContext(ctx, w.upsertSQL, rec.Values()...); err != nil {
		return false, fmt.Errorf("upsert %s: %w", vin, err)
	}
	return true, nil
}

// Commit makes buffered writes durable. Calling it with nothing pending is
// a no-op.
func (w *UnifiedWriter) Commit() error {
	if w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close commits outstanding writes and releases the database handle.
// Calling it more than once is safe.
func (w *UnifiedWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	commitErr := w.Commit()
	closeErr := w.db.Close()
	return errors.Join(commitErr, closeErr)
}

// Get returns the stored record for vin, or nil when there is none.
func (w *UnifiedWriter) Get(ctx context.Context, vin string) (*models.Record, error) {
	rows, err := w.exec().QueryContext(ctx, w.dialect.selectRecordSQL(), vin)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", vin, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRecord(rows)
}

// Each calls fn for every stored record in VIN order.
func (w *UnifiedWriter) Each(ctx context.Context, fn func(*models.Record) error) error {
	rows, err := w.exec().QueryContext(ctx, w.dialect.selectAllSQL())
	if err != nil {
		return fmt.Errorf("scan %s: %w", TableName, err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanRecord(rows *sql.Rows) (*models.Record, error) {
	values := make([]any, len(models.Columns))
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	rec := models.NewRecord()
	for i, c := range models.Columns {
		rec.Set(c.Name, values[i])
	}
	return rec, nil
}

// Count returns the number of stored rows.
func (w *UnifiedWriter) Count(ctx context.Context) (int, error) {
	var n int
	if err := w.exec().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+TableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", TableName, err)
	}
	return n, nil
}

// Summaries retrieves the reporting projection of every stored row.
func (w *UnifiedWriter) Summaries(ctx context.Context) ([]*models.ListingSummary, error) {
	rows, err := w.exec().QueryContext(ctx, `
		SELECT vin, source, heading, year, make, model, price, dealer_state
		FROM `+TableName+`
		ORDER BY vin
	`)
	if err != nil {
		return nil, fmt.Errorf("summaries: %w", err)
	}
	defer rows.Close()

	var out []*models.ListingSummary
	for rows.Next() {
		var (
			s                             models.ListingSummary
			heading, mk, mdl, dealerState sql.NullString
			year, price                   sql.NullInt64
		)
		if err := rows.Scan(&s.VIN, &s.Source, &heading, &year, &mk, &mdl, &price, &dealerState); err != nil {
			return nil, fmt.Errorf("summaries: scan row: %w", err)
		}
		s.Heading = heading.String
		s.Year = year.Int64
		s.Make = mk.String
		s.Model = mdl.String
		s.Price = price.Int64
		s.DealerState = dealerState.String
		out = append(out, &s)
	}
	return out, rows.Err()
}
