package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/labframe/lib/geom"
	"github.com/phil-mansfield/labframe/lib/snapio"
)

func openTest(t *testing.T) *Catalog {
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRecordAndQuery(t *testing.T) {
	c := openTest(t)
	md := &snapio.Metadata{RunID: "run-a", Gamma: 2, Beta: 0.866, DzLab: 1e-6}
	require.NoError(t, c.RecordRun(md))

	snap := snapio.DiagRecord{
		Kind: "snapshot", FileNum: 1, Dir: snapio.SnapshotDir("out", 1),
		TLab: 2e-13, NCells: geom.IntVect{4, 4, 16},
		Lo: [3]float64{-2, -2, 0}, Hi: [3]float64{2, 2, 16},
	}
	slice := snapio.DiagRecord{
		Kind: "slice", FileNum: 0, Dir: snapio.SliceDir("out", 0),
		TLab: 0, NCells: geom.IntVect{4, 1, 16},
	}
	first := snap
	first.FileNum, first.Dir = 0, snapio.SnapshotDir("out", 0)

	for _, rec := range []snapio.DiagRecord{snap, slice, first} {
		require.NoError(t, c.RecordDiagnostic(md.RunID, rec))
	}

	recs, err := c.Diagnostics(md.RunID)
	require.NoError(t, err)
	assert.Equal(t, []snapio.DiagRecord{slice, first, snap}, recs)

	recs, err = c.Diagnostics("run-b")
	require.NoError(t, err)
	assert.Empty(t, recs)

	flushes := []Flush{
		{Dir: snap.Dir, FlushNum: 1, FileName: "b1", NSlabs: 8, TBoost: 2},
		{Dir: snap.Dir, FlushNum: 0, FileName: "b0", NSlabs: 8,
			NParticles: 12, TBoost: 1},
	}
	for _, f := range flushes {
		require.NoError(t, c.RecordFlush(md.RunID, f))
	}

	got, err := c.Flushes(md.RunID, snap.Dir)
	require.NoError(t, err)
	assert.Equal(t, []Flush{flushes[1], flushes[0]}, got)
}

func TestConstraints(t *testing.T) {
	c := openTest(t)
	md := &snapio.Metadata{RunID: "run-a", Gamma: 2}
	require.NoError(t, c.RecordRun(md))
	assert.Error(t, c.RecordRun(md), "duplicate run")

	rec := snapio.DiagRecord{Kind: "slice", Dir: "out/slices/slice00000"}
	assert.Error(t, c.RecordDiagnostic("missing-run", rec))
	require.NoError(t, c.RecordDiagnostic(md.RunID, rec))

	f := Flush{Dir: rec.Dir}
	require.NoError(t, c.RecordFlush(md.RunID, f))
	assert.Error(t, c.RecordFlush(md.RunID, f), "duplicate flush")
	assert.Error(t, c.RecordFlush(md.RunID, Flush{Dir: "unknown"}))
}

func TestMigrations(t *testing.T) {
	c := openTest(t)
	version, dirty, err := c.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	md := &snapio.Metadata{RunID: "run-a", Gamma: 2}
	require.NoError(t, c.RecordRun(md))

	// Version 1 has no diagnostic domains.
	require.NoError(t, c.MigrateTo(1))
	rec := snapio.DiagRecord{Kind: "slice", Dir: "out/slices/slice00000",
		Lo: [3]float64{1, 2, 3}}
	assert.Error(t, c.RecordDiagnostic(md.RunID, rec))

	require.NoError(t, c.MigrateUp())
	require.NoError(t, c.RecordDiagnostic(md.RunID, rec))
	recs, err := c.Diagnostics(md.RunID)
	require.NoError(t, err)
	assert.Equal(t, []snapio.DiagRecord{rec}, recs)

	// Reopening an up-to-date catalog is a no-op.
	path := filepath.Join(t.TempDir(), "reopen.db")
	c1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c1.Close())
	c2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c2.Close())
}
