package storage

import (
	"fmt"
	"strings"

	"unified-listings/config"
	"unified-listings/models"
)

// TableName is the unified listings table.
const TableName = "unified_vehicle_listings"

// dialect captures the SQL differences between the supported stores.
type dialect struct {
	name       string
	driverName string
	types      map[models.Kind]string
	pragmas    []string
	// placeholder returns the bind marker for the 1-based argument n.
	placeholder func(n int) string
}

var (
	sqliteDialect = dialect{
		name:       "sqlite",
		driverName: "sqlite3",
		types: map[models.Kind]string{
			models.KindText:    "TEXT",
			models.KindInteger: "INTEGER",
			models.KindReal:    "REAL",
			models.KindBoolean: "BOOLEAN",
			models.KindJSON:    "TEXT",
		},
		pragmas: []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
		},
		placeholder: func(int) string { return "?" },
	}

	postgresDialect = dialect{
		name:       "postgres",
		driverName: "postgres",
		types: map[models.Kind]string{
			models.KindText:    "TEXT",
			models.KindInteger: "BIGINT",
			models.KindReal:    "DOUBLE PRECISION",
			models.KindBoolean: "BOOLEAN",
			models.KindJSON:    "JSONB",
		},
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	}
)

// ValidateDriver reports whether name selects a supported store.
func ValidateDriver(name string) error {
	_, err := lookupDialect(name)
	return err
}

func lookupDialect(name string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return sqliteDialect, nil
	case "postgres", "postgresql", "pg":
		return postgresDialect, nil
	}
	return dialect{}, fmt.Errorf("%w: unsupported store driver %q", config.ErrConfig, name)
}

// schemaStatements returns the idempotent DDL for the unified table.
func (d dialect) schemaStatements() []string {
	defs := make([]string, 0, len(models.Columns))
	for _, c := range models.Columns {
		def := c.Name + " " + d.types[c.Kind]
		if c.Name == "vin" {
			def += " PRIMARY KEY"
		}
		if c.Name == "source" {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", TableName, strings.Join(defs, ",\n\t")),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_unified_source ON %s(source)", TableName),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_unified_make_model ON %s(make, model)", TableName),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_unified_year ON %s(year)", TableName),
	}
}

// upsertSQL replaces the whole row for a VIN, one placeholder per column.
func (d dialect) upsertSQL() string {
	names := models.ColumnNames()
	marks := make([]string, len(names))
	for i := range names {
		marks[i] = d.placeholder(i + 1)
	}
	cols := strings.Join(names, ",")
	vals := strings.Join(marks, ",")

	if d.name == "sqlite" {
		return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)", TableName, cols, vals)
	}

	sets := make([]string, 0, len(names)-1)
	for _, n := range names {
		if n == "vin" {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", n, n))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (vin) DO UPDATE SET %s",
		TableName, cols, vals, strings.Join(sets, ", "))
}

func (d dialect) selectSourceSQL() string {
	return fmt.Sprintf("SELECT source FROM %s WHERE vin = %s", TableName, d.placeholder(1))
}

func (d dialect) selectRecordSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE vin = %s",
		strings.Join(models.ColumnNames(), ","), TableName, d.placeholder(1))
}

func (d dialect) selectAllSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY vin", strings.Join(models.ColumnNames(), ","), TableName)
}
