// Package store persists normalized records to the local SQLite database
// that the presentation layer reads.
package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLite wraps the destination database using modernc.org/sqlite.
type SQLite struct {
	db *sql.DB
}

// New opens a SQLite database at the given path and configures WAL mode.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Counts returns the row count of every contract table, keyed by table name.
func (s *SQLite) Counts(ctx context.Context) (map[string]int64, error) {
	tables := []string{
		"pokemon", "stats", "types", "abilities",
		"pokemon_stats", "pokemon_types", "pokemon_abilities", "evolutions",
	}
	counts := make(map[string]int64, len(tables))
	for _, table := range tables {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, eris.Wrapf(err, "store: count %s", table)
		}
		counts[table] = n
	}
	return counts, nil
}
