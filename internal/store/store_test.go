package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexsync/dexsync/internal/model"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func testRecord() model.Pokemon {
	return model.Pokemon{
		ID:             1,
		Name:           "bulbasaur",
		Height:         7,
		Weight:         69,
		BaseExperience: 64,
		SpriteURL:      strPtr("https://img/1.png"),
		Types:          []string{"grass", "poison"},
		Abilities:      []string{"overgrow"},
		Stats:          map[string]int{"hp": 45, "attack": 49},
		Evolutions: []model.EvolutionEdge{
			{FromSpecies: "bulbasaur", ToSpecies: "ivysaur", Trigger: strPtr("level-up"), MinLevel: intPtr(16)},
		},
		FlavorText: strPtr("A strange seed was planted on its back at birth."),
		Color:      strPtr("green"),
	}
}

func TestLoadAll_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	records := []model.Pokemon{testRecord()}

	require.NoError(t, st.LoadAll(ctx, records))
	first, err := st.Counts(ctx)
	require.NoError(t, err)

	require.NoError(t, st.LoadAll(ctx, records))
	second, err := st.Counts(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), second["pokemon"])
	assert.Equal(t, int64(2), second["stats"])
	assert.Equal(t, int64(2), second["types"])
	assert.Equal(t, int64(1), second["abilities"])
	assert.Equal(t, int64(2), second["pokemon_stats"])
	assert.Equal(t, int64(2), second["pokemon_types"])
	assert.Equal(t, int64(1), second["pokemon_abilities"])
	assert.Equal(t, int64(1), second["evolutions"])
}

func TestLoadAll_UpdatesInPlace(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec := testRecord()
	require.NoError(t, st.LoadAll(ctx, []model.Pokemon{rec}))

	rec.BaseExperience = 100
	rec.FlavorText = strPtr("updated text")
	require.NoError(t, st.LoadAll(ctx, []model.Pokemon{rec}))

	var baseExp int
	var flavor string
	err := st.db.QueryRow(`SELECT base_experience, flavor_text FROM pokemon WHERE id = 1`).Scan(&baseExp, &flavor)
	require.NoError(t, err)
	assert.Equal(t, 100, baseExp)
	assert.Equal(t, "updated text", flavor)

	counts, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["pokemon"])
}

func TestLoadAll_EdgeDeduplication(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	edge := model.EvolutionEdge{
		FromSpecies: "pikachu", ToSpecies: "raichu",
		Trigger: strPtr("use-item"), TriggerItem: strPtr("thunder-stone"),
	}
	rec := testRecord()
	rec.Evolutions = []model.EvolutionEdge{edge}

	// Same edge across two separate runs lands exactly once.
	require.NoError(t, st.LoadAll(ctx, []model.Pokemon{rec}))
	require.NoError(t, st.LoadAll(ctx, []model.Pokemon{rec}))

	var n int64
	err := st.db.QueryRow(`SELECT COUNT(*) FROM evolutions WHERE from_species = 'pikachu'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// A different level makes it a distinct edge.
	rec.Evolutions[0].MinLevel = intPtr(20)
	require.NoError(t, st.LoadAll(ctx, []model.Pokemon{rec}))
	err = st.db.QueryRow(`SELECT COUNT(*) FROM evolutions WHERE from_species = 'pikachu'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestLoadAll_NullableEdgeFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec := testRecord()
	rec.Evolutions = []model.EvolutionEdge{
		{FromSpecies: "feebas", ToSpecies: "milotic"},
	}
	require.NoError(t, st.LoadAll(ctx, []model.Pokemon{rec}))

	var trigger, item sql.NullString
	var level sql.NullInt64
	err := st.db.QueryRow(`SELECT "trigger", trigger_item, min_level FROM evolutions WHERE from_species = 'feebas'`).
		Scan(&trigger, &item, &level)
	require.NoError(t, err)
	assert.False(t, trigger.Valid)
	assert.False(t, item.Valid)
	assert.False(t, level.Valid)
}

func TestLoadAll_RollbackOnMidBatchError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Reject one record's insert partway through the batch.
	_, err := st.db.Exec(`CREATE TRIGGER reject_second BEFORE INSERT ON pokemon
		WHEN NEW.id = 2 BEGIN SELECT RAISE(ABORT, 'simulated write failure'); END`)
	require.NoError(t, err)

	good := testRecord()
	bad := testRecord()
	bad.ID = 2
	bad.Name = "ivysaur"

	err = st.LoadAll(ctx, []model.Pokemon{good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated write failure")

	// No partial writes retained: the first record's rows (including its
	// dictionary and junction entries) rolled back with the batch.
	counts, err := st.Counts(ctx)
	require.NoError(t, err)
	for table, n := range counts {
		assert.Zero(t, n, "table %s retained rows", table)
	}
}

func TestLoadAll_CancelledContext(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.LoadAll(context.Background(), []model.Pokemon{testRecord()}))
	before, err := st.Counts(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	next := testRecord()
	next.ID = 2
	next.Name = "ivysaur"
	require.Error(t, st.LoadAll(ctx, []model.Pokemon{next}))

	after, err := st.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMigrate_AddsMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// Simulate an older deployment whose pokemon table predates the
	// species-derived columns.
	legacy, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE pokemon (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		height REAL,
		weight REAL,
		base_experience INTEGER
	)`)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO pokemon (id, name, height, weight, base_experience) VALUES (1, 'bulbasaur', 7, 69, 64)`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	st, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	cols, err := st.tableColumns(ctx, "pokemon")
	require.NoError(t, err)
	for _, col := range targetSchema {
		assert.True(t, cols[col.Name], "missing column %s", col.Name)
	}

	// Pre-existing rows survive with the new columns defaulting to NULL.
	var name string
	var flavor sql.NullString
	err = st.db.QueryRow(`SELECT name, flavor_text FROM pokemon WHERE id = 1`).Scan(&name, &flavor)
	require.NoError(t, err)
	assert.Equal(t, "bulbasaur", name)
	assert.False(t, flavor.Valid)

	// Running again is a no-op.
	require.NoError(t, st.Migrate(ctx))
}

func TestMigrate_Idempotent(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.Migrate(context.Background()))
}

func TestRunLog_Lifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.StartRun(ctx, 20)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	runs, err := st.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusRunning, runs[0].Status)
	assert.Equal(t, 20, runs[0].Requested)
	assert.Nil(t, runs[0].FinishedAt)

	require.NoError(t, st.CompleteRun(ctx, id, 19, 19))

	runs, err = st.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	assert.Equal(t, 19, runs[0].Fetched)
	assert.Equal(t, 19, runs[0].Loaded)
	require.NotNil(t, runs[0].FinishedAt)
}

func TestRunLog_Fail(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.StartRun(ctx, 5)
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, id, 3, "store: commit batch: disk I/O error"))

	runs, err := st.RecentRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Equal(t, 3, runs[0].Fetched)
	assert.Contains(t, runs[0].Error, "disk I/O error")
}

func TestRunLog_UnknownRun(t *testing.T) {
	st := newTestStore(t)
	err := st.CompleteRun(context.Background(), "no-such-run", 0, 0)
	require.Error(t, err)
}
