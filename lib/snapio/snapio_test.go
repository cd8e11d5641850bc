package snapio

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/google/go-cmp/cmp"

	"github.com/phil-mansfield/labframe/lib/compress"
	"github.com/phil-mansfield/labframe/lib/geom"
)

func TestNames(t *testing.T) {
	tests := []struct {
		got, exp string
	}{
		{SnapshotDir("out", 3), "out/snapshots/snapshot00003"},
		{SliceDir("out", 12), "out/slices/slice00012"},
		{FieldDumpName("out/slices/slice00012", 7),
			"out/slices/slice00012/fields/buffer00007.lfd"},
		{ParticleDumpName("out/snapshots/snapshot00000", "beam", 0),
			"out/snapshots/snapshot00000/particles/beam/buffer00000.lfd"},
	}

	for i := range tests {
		if tests[i].got != tests[i].exp {
			t.Errorf("%d) Expected %s, got %s.", i, tests[i].exp, tests[i].got)
		}
	}
}

func TestDiagHeader(t *testing.T) {
	fs := memfs.New()
	dir := SnapshotDir(DefaultRoot, 0)
	if err := CreateDirectories(fs, dir, []string{"beam", "plasma"}); err != nil {
		t.Fatal(err.Error())
	}

	hd := &DiagHeader{
		TLab:   1.0 / 3e8,
		NCells: geom.IntVect{4, 4, 16},
		Domain: geom.RealBox{
			Lo: [3]float64{-1e-6, -1e-6, 0.1},
			Hi: [3]float64{1e-6, 1e-6, 0.3},
		},
		DiagDomain: geom.RealBox{
			Lo: [3]float64{-1e-6, -1e-6, 0.1},
			Hi: [3]float64{1e-6, 1e-6, 0.3},
		},
		FieldNames: []string{"Ex", "By", "rho"},
	}

	if err := WriteDiagHeader(fs, dir, hd); err != nil {
		t.Fatal(err.Error())
	}
	got, err := ReadDiagHeader(fs, dir)
	if err != nil {
		t.Fatal(err.Error())
	}
	if diff := cmp.Diff(hd, got); diff != "" {
		t.Errorf("Header mismatch (-exp +got):\n%s", diff)
	}

	species, err := Species(fs, dir)
	if err != nil {
		t.Fatal(err.Error())
	}
	if diff := cmp.Diff([]string{"beam", "plasma"}, species); diff != "" {
		t.Errorf("Species mismatch (-exp +got):\n%s", diff)
	}

	if _, err := ReadDiagHeader(fs, SnapshotDir(DefaultRoot, 1)); err == nil {
		t.Errorf("Expected an error when reading a missing header.")
	}
}

func TestRunHeaderAndMetadata(t *testing.T) {
	fs := memfs.New()
	if err := fs.MkdirAll(DefaultRoot, 0755); err != nil {
		t.Fatal(err.Error())
	}

	run := &RunHeader{
		NSnapshots: 2, DtSnapshotsLab: 1.5e-13, Gamma: 2,
		Beta: 0.8660254037844386, NSlices: 1, DtSlicesLab: 2e-13,
		ParticleSliceDx: 1e-7,
	}
	if err := WriteRunHeader(fs, DefaultRoot, run); err != nil {
		t.Fatal(err.Error())
	}
	gotRun, err := ReadRunHeader(fs, DefaultRoot)
	if err != nil {
		t.Fatal(err.Error())
	}
	if diff := cmp.Diff(run, gotRun); diff != "" {
		t.Errorf("Run header mismatch (-exp +got):\n%s", diff)
	}

	md := &Metadata{
		RunID: "3f1b2c3d-0000-4000-8000-000000000000",
		Gamma: 2, Beta: run.Beta, BoostDirection: 2, DzLab: 1e-6,
		FieldNames: []string{"Ex", "Ey"},
		Species:    []string{},
		Diagnostics: []DiagRecord{
			{Kind: "snapshot", FileNum: 0, Dir: SnapshotDir(DefaultRoot, 0),
				TLab: 0, NCells: geom.IntVect{2, 2, 8}},
		},
	}
	if err := WriteMetadata(fs, DefaultRoot, md); err != nil {
		t.Fatal(err.Error())
	}
	gotMD, err := ReadMetadata(fs, DefaultRoot)
	if err != nil {
		t.Fatal(err.Error())
	}
	if diff := cmp.Diff(md, gotMD); diff != "" {
		t.Errorf("Metadata mismatch (-exp +got):\n%s", diff)
	}
}

// writeDump writes a field dump with two columns holding the given slabs.
func writeDump(t *testing.T, fs billy.Filesystem, dir string, flush int, slabs []int64) {
	n := 4 * len(slabs)
	hd := compress.FixedWidthHeader{
		Kind: compress.FieldDump, FlushNum: int64(flush), N: int64(n),
		Span: [3]int64{2, 2, int64(len(slabs))}, Dir: 2,
	}
	wr := compress.NewWriter(fs, FieldDumpName(dir, flush), hd, slabs,
		binary.LittleEndian)
	for _, name := range []string{"Ex", "Ey"} {
		if err := wr.AddField(name, make([]float64, n)); err != nil {
			t.Fatal(err.Error())
		}
	}
	if err := wr.Flush(); err != nil {
		t.Fatal(err.Error())
	}
}

func setupVerify(t *testing.T) billy.Filesystem {
	fs := memfs.New()
	dir := SnapshotDir(DefaultRoot, 0)
	if err := CreateDirectories(fs, dir, nil); err != nil {
		t.Fatal(err.Error())
	}

	hd := &DiagHeader{
		NCells:     geom.IntVect{2, 2, 8},
		FieldNames: []string{"Ex", "Ey"},
	}
	if err := WriteDiagHeader(fs, dir, hd); err != nil {
		t.Fatal(err.Error())
	}
	if err := WriteRunHeader(fs, DefaultRoot, &RunHeader{NSnapshots: 1}); err != nil {
		t.Fatal(err.Error())
	}
	md := &Metadata{
		RunID: "run", BoostDirection: 2,
		Diagnostics: []DiagRecord{
			{Kind: "snapshot", Dir: dir, NCells: hd.NCells},
		},
	}
	if err := WriteMetadata(fs, DefaultRoot, md); err != nil {
		t.Fatal(err.Error())
	}
	return fs
}

func TestVerify(t *testing.T) {
	fs := setupVerify(t)
	dir := SnapshotDir(DefaultRoot, 0)
	writeDump(t, fs, dir, 0, []int64{7, 6, 5})
	writeDump(t, fs, dir, 1, []int64{4, 3, 2})

	rep, err := Verify(fs, DefaultRoot)
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(rep.Diags) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d.", len(rep.Diags))
	}
	dr := rep.Diags[0]
	if dr.NDumps != 2 || dr.NSlabs != 6 {
		t.Errorf("Expected 2 dumps and 6 slabs, got %d and %d.",
			dr.NDumps, dr.NSlabs)
	}
	if diff := cmp.Diff([]int64{0, 1}, dr.Missing); diff != "" {
		t.Errorf("Missing slab mismatch (-exp +got):\n%s", diff)
	}

	slabs, err := SortedSlabs(fs, dir)
	if err != nil {
		t.Fatal(err.Error())
	}
	if diff := cmp.Diff([]int64{2, 3, 4, 5, 6, 7}, slabs); diff != "" {
		t.Errorf("Slab mismatch (-exp +got):\n%s", diff)
	}
}

func TestVerifyErrors(t *testing.T) {
	tests := []struct {
		slabs [][]int64
		msg   string
	}{
		{[][]int64{{1, 2}, {2, 3}}, "more than once"},
		{[][]int64{{8}}, "only has 8 slabs"},
		{[][]int64{{-1}}, "only has 8 slabs"},
	}

	for i := range tests {
		fs := setupVerify(t)
		dir := SnapshotDir(DefaultRoot, 0)
		for flush, slabs := range tests[i].slabs {
			writeDump(t, fs, dir, flush, slabs)
		}

		_, err := Verify(fs, DefaultRoot)
		if err == nil {
			t.Errorf("%d) Expected an error.", i)
		} else if !strings.Contains(err.Error(), tests[i].msg) {
			t.Errorf("%d) Expected an error containing '%s', got '%s'.",
				i, tests[i].msg, err.Error())
		}
	}
}
