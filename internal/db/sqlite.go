package db

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// OpenSQLite opens (or creates) a SQLite database at path and applies the schema.
// ":memory:" is accepted for tests.
func OpenSQLite(path string) (*sql.DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// In-memory databases are per-connection.
	if path == ":memory:" {
		d.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := d.Exec(pragma); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("exec %s: %w", pragma, err)
		}
	}

	if _, err := d.Exec(sqliteSchema); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}
