package grid

import (
	"testing"

	"github.com/phil-mansfield/labframe/lib/geom"
)

func box(lo, hi geom.IntVect) geom.Box { return geom.NewBox(lo, hi) }

// fill sets component c of every cell to a value that encodes its position.
func fill(mf *MultiFab, c int) {
	for i := 0; i < mf.Len(); i++ {
		f := mf.Fab(i)
		b := f.Box()
		for k := b.Lo[2]; k <= b.Hi[2]; k++ {
			for j := b.Lo[1]; j <= b.Hi[1]; j++ {
				for ii := b.Lo[0]; ii <= b.Hi[0]; ii++ {
					f.Set(geom.IntVect{ii, j, k}, c, code(ii, j, k, c))
				}
			}
		}
	}
}

func code(i, j, k, c int) float64 {
	return float64(i + 100*j + 10000*k + 1000000*c)
}

func TestMaxSize(t *testing.T) {
	tests := []struct {
		b      geom.Box
		n      int
		nBoxes int
	}{
		{box(geom.IntVect{0, 0, 0}, geom.IntVect{7, 7, 7}), 4, 8},
		{box(geom.IntVect{0, 0, 0}, geom.IntVect{7, 7, 7}), 8, 1},
		{box(geom.IntVect{0, 0, 0}, geom.IntVect{9, 0, 0}), 4, 3},
		{box(geom.IntVect{-3, 0, 5}, geom.IntVect{3, 2, 5}), 3, 3},
	}

	for i := range tests {
		ba := NewBoxArray(tests[i].b).MaxSize(tests[i].n)
		if len(ba) != tests[i].nBoxes {
			t.Errorf("%d) Expected %d boxes, got %d: %v.",
				i, tests[i].nBoxes, len(ba), ba)
		}
		if n := ba.NumPts(); n != tests[i].b.NumPts() {
			t.Errorf("%d) Expected chopped boxes to cover %d cells, got %d.",
				i, tests[i].b.NumPts(), n)
		}
		for _, b := range ba {
			for d := 0; d < 3; d++ {
				if b.Length(d) > tests[i].n {
					t.Errorf("%d) Box %s is longer than %d.", i, b, tests[i].n)
				}
			}
		}
	}
}

func TestParallelCopy(t *testing.T) {
	dom := box(geom.IntVect{0, 0, 0}, geom.IntVect{7, 5, 9})
	srcBA := NewBoxArray(dom).MaxSize(4)
	src := NewMultiFab(srcBA, NewDistributionMapping(srcBA, 3), 2)
	fill(src, 0)
	fill(src, 1)

	dstBA := NewBoxArray(dom).MaxSize(3)
	dst := NewMultiFab(dstBA, NewDistributionMapping(dstBA, 2), 1)

	n := ParallelCopy(dst, src, geom.IntVect{}, 1, 0, 1)
	if n != dom.NumPts() {
		t.Errorf("Expected %d cells copied, got %d.", dom.NumPts(), n)
	}

	for k := 0; k <= 9; k++ {
		for j := 0; j <= 5; j++ {
			for i := 0; i <= 7; i++ {
				x, ok := dst.Get(geom.IntVect{i, j, k}, 0)
				if !ok || x != code(i, j, k, 1) {
					t.Errorf("Expected dst(%d,%d,%d) = %g, got %g.",
						i, j, k, code(i, j, k, 1), x)
				}
			}
		}
	}
}

func TestSliceDataAndShift(t *testing.T) {
	dom := box(geom.IntVect{0, 0, 0}, geom.IntVect{3, 3, 11})
	ba := NewBoxArray(dom).MaxSize(4)
	src := NewMultiFab(ba, NewDistributionMapping(ba, 2), 1)
	fill(src, 0)

	slab := SliceData(src, 2, 6)
	if len(slab.BoxArray()) != 1 {
		t.Fatalf("Expected 1 box in slab, got %d.", len(slab.BoxArray()))
	}
	if b := slab.BoxArray()[0]; b.Lo[2] != 6 || b.Hi[2] != 6 {
		t.Errorf("Expected slab at k = 6, got %s.", b)
	}
	if slab.Owner(0) != src.Owner(1) {
		t.Errorf("Expected slab to be owned by rank %d, got %d.",
			src.Owner(1), slab.Owner(0))
	}

	// Move the slab from k = 6 to k = 40.
	dstBA := NewBoxArray(box(geom.IntVect{0, 0, 40}, geom.IntVect{3, 3, 40}))
	dst := NewMultiFab(dstBA, NewDistributionMapping(dstBA, 1), 1)
	n := ParallelCopy(dst, slab, geom.IntVect{0, 0, 34}, 0, 0, 1)
	if n != 16 {
		t.Errorf("Expected 16 cells copied, got %d.", n)
	}
	if x, _ := dst.Get(geom.IntVect{2, 1, 40}, 0); x != code(2, 1, 6, 0) {
		t.Errorf("Expected shifted value %g, got %g.", code(2, 1, 6, 0), x)
	}
}

func TestCopyFromPanics(t *testing.T) {
	a := NewFab(box(geom.IntVect{0, 0, 0}, geom.IntVect{1, 1, 1}), 1)
	b := NewFab(box(geom.IntVect{0, 0, 0}, geom.IntVect{3, 3, 3}), 1)

	defer func() {
		if recover() == nil {
			t.Errorf("Expected out-of-bounds CopyFrom to panic.")
		}
	}()
	a.CopyFrom(b, b.Box(), geom.IntVect{}, 0, 0, 1)
}
