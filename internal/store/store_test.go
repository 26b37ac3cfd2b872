package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/svdlab/internal/metrics"
	"github.com/yyyoichi/svdlab/internal/store"
)

func open(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "svdlab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertRun(t *testing.T) {
	db := open(t)
	run := store.Run{Signal: "three-peaks", Rows: 60, Cols: 60, Method: "thin", Sigma: 0.15, Seed: 2026, TrueRank: 3}

	id, err := db.InsertRun(run)
	require.NoError(t, err)
	// same configuration resolves to the same row
	again, err := db.InsertRun(run)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	run.Sigma = 0.3
	other, err := db.InsertRun(run)
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	// seeds above MaxInt64 survive the round trip
	run.Seed = 1<<63 + 5
	_, err = db.InsertRun(run)
	require.NoError(t, err)

	runs, err := db.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "three-peaks", runs[0].Signal)
	assert.Equal(t, 0.15, runs[0].Sigma)
	assert.Equal(t, uint64(2026), runs[0].Seed)
	assert.Equal(t, uint64(1<<63+5), runs[2].Seed)
	assert.False(t, runs[0].Created.IsZero())
}

func TestReports(t *testing.T) {
	db := open(t)
	id, err := db.InsertRun(store.Run{Signal: "ridge", Rows: 10, Cols: 8, Method: "full", Sigma: 0.1, Seed: 1, TrueRank: 3})
	require.NoError(t, err)

	reports := []metrics.Report{
		{Rank: 1, Energy: 0.8, ErrClean: 1.5, ErrNoisy: 2, TailBound: 2},
		{Rank: 2, Energy: 0.9, ErrClean: 0.7, ErrNoisy: 1, TailBound: 1},
		{Rank: 3, Energy: 0.99, ErrClean: 0.4, ErrNoisy: 0.5, TailBound: 0.5, Gain: 60},
		{Rank: 4, Energy: 1, ErrClean: 0.6, ErrNoisy: 0.1, TailBound: 0.1},
	}
	require.NoError(t, db.InsertReports(id, reports))

	got, err := db.Reports(id)
	require.NoError(t, err)
	assert.Equal(t, reports, got)

	best, err := db.BestRank(id)
	require.NoError(t, err)
	assert.Equal(t, 3, best.Rank)
	assert.Equal(t, 60.0, best.Gain)

	// replacing a rank overwrites it
	reports[3].ErrClean = 0.1
	require.NoError(t, db.InsertReports(id, reports[3:]))
	best, err = db.BestRank(id)
	require.NoError(t, err)
	assert.Equal(t, 4, best.Rank)

	_, err = db.BestRank(id + 100)
	assert.ErrorIs(t, err, store.ErrNotFound)

	empty, err := db.Reports(id + 100)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInsertReports_UnknownRun(t *testing.T) {
	db := open(t)
	err := db.InsertReports(42, []metrics.Report{{Rank: 1}})
	assert.Error(t, err)
}
