package geom

import (
	"testing"
)

func TestBoxIntersect(t *testing.T) {
	tests := []struct {
		b1, b2 Box
		out    Box
		ok     bool
	}{
		{Box{IntVect{0, 0, 0}, IntVect{7, 7, 7}},
			Box{IntVect{4, 4, 4}, IntVect{11, 11, 11}},
			Box{IntVect{4, 4, 4}, IntVect{7, 7, 7}}, true},
		{Box{IntVect{0, 0, 0}, IntVect{7, 7, 7}},
			Box{IntVect{0, 0, 3}, IntVect{7, 7, 3}},
			Box{IntVect{0, 0, 3}, IntVect{7, 7, 3}}, true},
		{Box{IntVect{0, 0, 0}, IntVect{7, 7, 7}},
			Box{IntVect{8, 0, 0}, IntVect{9, 7, 7}},
			Box{}, false},
		{Box{IntVect{0, 0, 0}, IntVect{7, 7, 7}},
			Box{IntVect{7, 7, 7}, IntVect{9, 9, 9}},
			Box{IntVect{7, 7, 7}, IntVect{7, 7, 7}}, true},
	}

	for i := range tests {
		out, ok := tests[i].b1.Intersect(tests[i].b2)
		if ok != tests[i].ok {
			t.Errorf("%d) Expected ok = %v, got %v.", i, tests[i].ok, ok)
		} else if ok && out != tests[i].out {
			t.Errorf("%d) Expected intersection %s, got %s.",
				i, tests[i].out, out)
		}
	}
}

func TestBoxIndex(t *testing.T) {
	b := Box{IntVect{2, -1, 5}, IntVect{4, 1, 6}}
	if n := b.NumPts(); n != 18 {
		t.Fatalf("Expected 18 cells, got %d.", n)
	}

	seen := make([]bool, b.NumPts())
	for k := b.Lo[2]; k <= b.Hi[2]; k++ {
		for j := b.Lo[1]; j <= b.Hi[1]; j++ {
			for i := b.Lo[0]; i <= b.Hi[0]; i++ {
				idx := b.Index(IntVect{i, j, k})
				if seen[idx] {
					t.Errorf("Index %d of (%d,%d,%d) used twice.", idx, i, j, k)
				}
				seen[idx] = true
			}
		}
	}

	if idx := b.Index(b.Lo); idx != 0 {
		t.Errorf("Expected Index(Lo) = 0, got %d.", idx)
	}
	if idx := b.Index(b.Hi); idx != 17 {
		t.Errorf("Expected Index(Hi) = 17, got %d.", idx)
	}
}

func TestGeometry(t *testing.T) {
	g := NewGeometry(IntVect{4, 4, 10},
		RealBox{[3]float64{0, 0, -5}, [3]float64{4, 8, 5}})

	if dx := g.CellSize(1); dx != 2 {
		t.Errorf("Expected CellSize(1) = 2, got %g.", dx)
	}

	tests := []struct {
		x float64
		i int
	}{{-5, 0}, {-4.5, 0}, {-4, 1}, {4.99, 9}, {5, 9}, {100, 9}, {-100, 0}}
	for _, test := range tests {
		if i := g.CellIndex(2, test.x); i != test.i {
			t.Errorf("Expected CellIndex(2, %g) = %d, got %d.", test.x, test.i, i)
		}
	}
}

func TestRealBox(t *testing.T) {
	dom := RealBox{[3]float64{0, 0, 0}, [3]float64{1, 1, 1}}
	plane := RealBox{[3]float64{0.5, 0, 0}, [3]float64{0.5, 1, 1}}
	if !plane.Ok() {
		t.Errorf("Expected zero-width plane %v to be Ok.", plane)
	}
	if !dom.ContainsBox(plane) {
		t.Errorf("Expected %v to contain %v.", dom, plane)
	}

	outside := plane.WithRange(0, 0.5, 1.5)
	if dom.ContainsBox(outside) {
		t.Errorf("Expected %v not to contain %v.", dom, outside)
	}

	flipped := RealBox{[3]float64{1, 0, 0}, [3]float64{0, 1, 1}}
	if flipped.Ok() {
		t.Errorf("Expected inverted box %v to not be Ok.", flipped)
	}
}
