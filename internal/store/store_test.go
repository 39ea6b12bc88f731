package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/blueprint-solver/internal/models"
	"github.com/napolitain/blueprint-solver/internal/scenario"
	"github.com/napolitain/blueprint-solver/internal/solver/frontier"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func solved(t *testing.T, bp *models.Blueprint, horizon int) *frontier.Result {
	t.Helper()
	s, err := frontier.NewSolver(bp)
	require.NoError(t, err)
	res, err := s.Run(context.Background(), horizon)
	require.NoError(t, err)
	return res
}

func TestSaveAndLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	bp := models.NewBlueprint(1, 4, 2, 3, 14, 2, 7)
	res := solved(t, bp, 24)

	_, _, ok, err := s.Lookup(ctx, bp.Fingerprint(), 24, "d1-b1-c1-r1")
	require.NoError(t, err)
	assert.False(t, ok)

	id, err := s.Save(ctx, bp.Fingerprint(), 24, "d1-b1-c1-r1", res)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	got, gotID, ok, err := s.Lookup(ctx, bp.Fingerprint(), 24, "d1-b1-c1-r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, gotID)
	assert.Equal(t, 9, got.Yield)
	assert.Equal(t, res.Plan, got.Plan)
	assert.Equal(t, res.Stats, got.Stats)

	_, _, ok, err = s.Lookup(ctx, bp.Fingerprint(), 23, "d1-b1-c1-r1")
	require.NoError(t, err)
	assert.False(t, ok, "different horizon must miss")
}

func TestRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.Save(ctx, "fp", 10+i, "d1-b1-c1-r1", &frontier.Result{Yield: i})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Equal(t, 12, runs[0].Horizon)
	assert.False(t, runs[0].CreatedAt.IsZero())

	_, err = s.Recent(ctx, 0)
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var version int
	require.NoError(t, db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version))
	assert.Equal(t, SchemaVersion, version)

	assert.Error(t, Migrate(nil))
}

func TestNilStore(t *testing.T) {
	var s *Store
	_, _, _, err := s.Lookup(context.Background(), "fp", 1, "x")
	assert.Error(t, err)
	_, err = s.Save(context.Background(), "fp", 1, "x", &frontier.Result{})
	assert.Error(t, err)
	assert.NoError(t, s.Close())

	_, err = New(nil)
	assert.Error(t, err)
}

func TestStoreServesAsRunnerCache(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	bps := []*models.Blueprint{
		models.NewBlueprint(1, 4, 2, 3, 14, 2, 7),
		models.NewBlueprint(2, 2, 3, 3, 8, 3, 12),
	}

	r := scenario.NewRunner(frontier.DefaultConfig(), 2).WithCache(s)

	total, first, err := r.QualitySum(ctx, bps, scenario.QualityHorizon)
	require.NoError(t, err)
	assert.Equal(t, 33, total)

	total, second, err := r.QualitySum(ctx, bps, scenario.QualityHorizon)
	require.NoError(t, err)
	assert.Equal(t, 33, total)
	for i := range second {
		assert.True(t, second[i].Cached)
		assert.Equal(t, first[i].RunID, second[i].RunID)
		assert.Equal(t, first[i].Plan, second[i].Plan)
	}

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
