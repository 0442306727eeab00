package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dexsync/dexsync/internal/model"
)

// LoadAll persists the whole batch inside one transaction. Re-running with
// the same records is a no-op with respect to final state: primary rows are
// replaced in place, dictionary and junction rows are insert-if-absent, and
// duplicate evolution edges are suppressed by the table's unique constraint.
// Any error rolls back the entire batch.
func (s *SQLite) LoadAll(ctx context.Context, records []model.Pokemon) error {
	log := zap.L().With(zap.String("component", "store.load"))
	log.Info("starting load phase", zap.Int("records", len(records)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, rec := range records {
		if err := loadRecord(ctx, tx, rec); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "store: commit batch")
	}

	log.Info("load phase complete", zap.Int("records", len(records)))
	return nil
}

func loadRecord(ctx context.Context, tx *sql.Tx, rec model.Pokemon) error {
	_, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO pokemon
		 (id, name, height, weight, base_experience, sprite_url, shiny_sprite_url,
		  flavor_text, is_legendary, is_mythical, color)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Height, rec.Weight, rec.BaseExperience,
		rec.SpriteURL, rec.ShinySpriteURL, rec.FlavorText,
		rec.IsLegendary, rec.IsMythical, rec.Color,
	)
	if err != nil {
		return eris.Wrapf(err, "store: upsert pokemon %s", rec.Name)
	}

	for statName, baseValue := range rec.Stats {
		statID, err := ensureDictionary(ctx, tx, "stats", statName)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO pokemon_stats (pokemon_id, stat_id, base_value) VALUES (?, ?, ?)`,
			rec.ID, statID, baseValue,
		)
		if err != nil {
			return eris.Wrapf(err, "store: upsert stat %s for %s", statName, rec.Name)
		}
	}

	for _, edge := range rec.Evolutions {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO evolutions (from_species, to_species, "trigger", trigger_item, min_level)
			 VALUES (?, ?, ?, ?, ?)`,
			edge.FromSpecies, edge.ToSpecies, edge.Trigger, edge.TriggerItem, edge.MinLevel,
		)
		if err != nil {
			return eris.Wrapf(err, "store: insert edge %s->%s", edge.FromSpecies, edge.ToSpecies)
		}
	}

	for _, typeName := range rec.Types {
		typeID, err := ensureDictionary(ctx, tx, "types", typeName)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO pokemon_types (pokemon_id, type_id) VALUES (?, ?)`,
			rec.ID, typeID,
		)
		if err != nil {
			return eris.Wrapf(err, "store: link type %s for %s", typeName, rec.Name)
		}
	}

	for _, abilityName := range rec.Abilities {
		abilityID, err := ensureDictionary(ctx, tx, "abilities", abilityName)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO pokemon_abilities (pokemon_id, ability_id) VALUES (?, ?)`,
			rec.ID, abilityID,
		)
		if err != nil {
			return eris.Wrapf(err, "store: link ability %s for %s", abilityName, rec.Name)
		}
	}

	return nil
}

// ensureDictionary inserts the name into a name-keyed dictionary table if
// absent and returns its id.
func ensureDictionary(ctx context.Context, tx *sql.Tx, table, name string) (int64, error) {
	_, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO "+table+" (name) VALUES (?)", name,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "store: ensure %s row %s", table, name)
	}
	var id int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM "+table+" WHERE name = ?", name,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "store: lookup %s row %s", table, name)
	}
	return id, nil
}
