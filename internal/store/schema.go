package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// column is one name→definition pair of the declared target schema.
type column struct {
	Name       string
	Definition string
}

// targetSchema declares the current shape of the pokemon table. The additive
// migration diffs it against the live table and only ever adds columns; old
// columns are never removed so older readers keep working.
var targetSchema = []column{
	{"id", "INTEGER PRIMARY KEY"},
	{"name", "TEXT NOT NULL UNIQUE"},
	{"height", "REAL"},
	{"weight", "REAL"},
	{"base_experience", "INTEGER"},
	{"sprite_url", "TEXT"},
	{"shiny_sprite_url", "TEXT"},
	{"flavor_text", "TEXT"},
	{"is_legendary", "BOOLEAN"},
	{"is_mythical", "BOOLEAN"},
	{"color", "TEXT"},
}

const createTables = `
CREATE TABLE IF NOT EXISTS stats (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS types (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS abilities (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS pokemon_stats (
	pokemon_id INTEGER,
	stat_id    INTEGER,
	base_value INTEGER NOT NULL,
	PRIMARY KEY (pokemon_id, stat_id),
	FOREIGN KEY (pokemon_id) REFERENCES pokemon(id),
	FOREIGN KEY (stat_id) REFERENCES stats(id)
);

CREATE TABLE IF NOT EXISTS pokemon_types (
	pokemon_id INTEGER,
	type_id    INTEGER,
	PRIMARY KEY (pokemon_id, type_id),
	FOREIGN KEY (pokemon_id) REFERENCES pokemon(id),
	FOREIGN KEY (type_id) REFERENCES types(id)
);

CREATE TABLE IF NOT EXISTS pokemon_abilities (
	pokemon_id INTEGER,
	ability_id INTEGER,
	PRIMARY KEY (pokemon_id, ability_id),
	FOREIGN KEY (pokemon_id) REFERENCES pokemon(id),
	FOREIGN KEY (ability_id) REFERENCES abilities(id)
);

CREATE TABLE IF NOT EXISTS evolutions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	from_species TEXT NOT NULL,
	to_species   TEXT NOT NULL,
	"trigger"    TEXT,
	trigger_item TEXT,
	min_level    INTEGER
);

-- NULLs compare distinct under a plain UNIQUE constraint, so the edge
-- uniqueness goes through COALESCE to dedupe itemless/levelless edges too.
CREATE UNIQUE INDEX IF NOT EXISTS idx_evolutions_edge
	ON evolutions (from_species, to_species, COALESCE(trigger_item, ''), COALESCE(min_level, -1));

CREATE TABLE IF NOT EXISTS sync_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME,
	requested   INTEGER NOT NULL DEFAULT 0,
	fetched     INTEGER NOT NULL DEFAULT 0,
	loaded      INTEGER NOT NULL DEFAULT 0,
	error       TEXT
);
`

// Migrate ensures all tables exist and additively migrates the pokemon table
// to the declared target schema. Running it when nothing is missing is a
// no-op. It never drops or renames a column.
func (s *SQLite) Migrate(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "store.migrate"))

	defs := make([]string, 0, len(targetSchema))
	for _, col := range targetSchema {
		defs = append(defs, col.Name+" "+col.Definition)
	}
	createPokemon := fmt.Sprintf("CREATE TABLE IF NOT EXISTS pokemon (%s)", strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, createPokemon); err != nil {
		return eris.Wrap(err, "store: create pokemon table")
	}

	if _, err := s.db.ExecContext(ctx, createTables); err != nil {
		return eris.Wrap(err, "store: create tables")
	}

	actual, err := s.tableColumns(ctx, "pokemon")
	if err != nil {
		return err
	}

	var added int
	for _, col := range targetSchema {
		if actual[col.Name] {
			continue
		}
		log.Info("applying migration",
			zap.String("table", "pokemon"),
			zap.String("column", col.Name),
		)
		alter := fmt.Sprintf("ALTER TABLE pokemon ADD COLUMN %s %s", col.Name, col.Definition)
		if _, err := s.db.ExecContext(ctx, alter); err != nil {
			return eris.Wrapf(err, "store: add column %s", col.Name)
		}
		added++
	}

	if added == 0 {
		log.Info("schema is up to date")
	} else {
		log.Info("migrations applied", zap.Int("columns_added", added))
	}
	return nil
}

// tableColumns returns the set of column names currently on a table.
func (s *SQLite) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, eris.Wrapf(err, "store: table_info %s", table)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, eris.Wrapf(err, "store: scan table_info %s", table)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
