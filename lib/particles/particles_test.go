package particles

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUint64(t *testing.T) {
	out := []uint64{42, 0, 23, 0, 16, 0, 15, 0, 8, 0, 4, 0}
	data := []uint64{4, 8, 15, 16, 23, 42}
	from := []int{5, 4, 3, 2, 1, 0}
	to := []int{0, 2, 4, 6, 8, 10}
	name := "test_value"

	x := NewUint64(name, data)

	if x.Len() != len(data) {
		t.Fatalf("Expected x.Len() = %d, got %d.", len(data), x.Len())
	} else if diff := cmp.Diff(data, x.Data()); diff != "" {
		t.Fatalf("Unexpected x.Data() (-want +got):\n%s", diff)
	}

	p := Particles{}
	x.CreateDestination(p, len(out))
	if _, ok := p[name]; !ok {
		t.Fatalf("Expected Particles to gain '%s' field, but it wasn't added.",
			name)
	}

	if err := x.Transfer(p, from, to); err != nil {
		t.Fatalf("Expected Transfer to succeed, got '%s'.", err.Error())
	}
	if diff := cmp.Diff(out, p[name].Data()); diff != "" {
		t.Errorf("Unexpected p['%s'] (-want +got):\n%s", name, diff)
	}
}

func TestFloat64Append(t *testing.T) {
	data := []float64{4, 8, 15, 16, 23, 42}
	x := NewFloat64("x", data)

	p := Particles{"x": NewFloat64("x", []float64{1})}
	if err := x.Append(p, []int{5, 0, 2}); err != nil {
		t.Fatalf("Expected Append to succeed, got '%s'.", err.Error())
	}
	if diff := cmp.Diff([]float64{1, 42, 4, 15}, p["x"].Data()); diff != "" {
		t.Errorf("Unexpected appended data (-want +got):\n%s", diff)
	}

	if err := x.Append(Particles{}, []int{0}); err == nil {
		t.Errorf("Expected Append to a Particles without 'x' to fail.")
	}
	if err := x.Append(Particles{"x": NewUint64("x", nil)}, []int{0}); err == nil {
		t.Errorf("Expected Append to a mistyped field to fail.")
	}

	p.Reset()
	if p.Len() != 0 {
		t.Errorf("Expected Reset to empty p, but p.Len() = %d.", p.Len())
	}
}

func TestDiagnosticAppendFrom(t *testing.T) {
	src := NewDiagnosticData()
	for _, name := range DiagnosticFields {
		src.SetColumn(name, []float64{1, 2, 3})
	}
	dst := NewDiagnosticData()

	if err := dst.AppendFrom(src, []int{2, 0}); err != nil {
		t.Fatalf("Expected AppendFrom to succeed, got '%s'.", err.Error())
	}
	if dst.Len() != 2 {
		t.Fatalf("Expected 2 particles, got %d.", dst.Len())
	}
	for _, name := range DiagnosticFields {
		if diff := cmp.Diff([]float64{3, 1}, dst.Column(name)); diff != "" {
			t.Errorf("Unexpected column '%s' (-want +got):\n%s", name, diff)
		}
	}
}

func TestCrossed(t *testing.T) {
	// The plane moves from z = 1.0 to z = 0.5 during the step.
	s := &Species{
		Name: "electrons",
		W:    []float64{1, 2, 3, 4, 5},
		XOld: [][3]float64{{0, 0, 0.2}, {0, 0, 0.8}, {0, 0, 2.0}, {0, 0, 0.6},
			{0, 0, 0.0}},
		X: [][3]float64{{0, 0, 0.3}, {0, 0, 0.8}, {0, 0, 2.1}, {0, 0, 0.4},
			{0, 0, 0.5}},
		U:    make([][3]float64, 5),
		UOld: make([][3]float64, 5),
	}
	if err := s.Check(); err != nil {
		t.Fatalf("Expected a valid species, got '%s'.", err.Error())
	}

	c := &Container{[]*Species{s}}
	got := c.Crossed(0, 2, 1.0, 0.5)

	// Particles 0 and 3 stay below the plane and particle 2 stays above it.
	if diff := cmp.Diff([]float64{2, 5}, got.W); diff != "" {
		t.Errorf("Unexpected crossing particles (-want +got):\n%s", diff)
	}
	if got.Name != "electrons" {
		t.Errorf("Expected selection to keep name 'electrons', got '%s'.",
			got.Name)
	}
}

func TestCrossedOnPlane(t *testing.T) {
	// A particle at rest at z = 0.5 while the plane moves 1.0 -> 0.5 -> 0.0.
	s := &Species{
		Name: "ions",
		W:    []float64{1},
		XOld: [][3]float64{{0, 0, 0.5}},
		X:    [][3]float64{{0, 0, 0.5}},
		U:    make([][3]float64, 1),
		UOld: make([][3]float64, 1),
	}
	c := &Container{[]*Species{s}}

	steps := []struct {
		zOld, zNew float64
		n          int
	}{
		{1.0, 0.5, 1},
		{0.5, 0.0, 0},
	}
	for i := range steps {
		got := c.Crossed(0, 2, steps[i].zOld, steps[i].zNew)
		if got.Len() != steps[i].n {
			t.Errorf("%d) Expected %d crossing particles, got %d.",
				i, steps[i].n, got.Len())
		}
	}
}

func TestSpeciesCheck(t *testing.T) {
	s := &Species{Name: "ions", W: []float64{1, 2}, X: make([][3]float64, 1)}
	if err := s.Check(); err == nil {
		t.Errorf("Expected mismatched species arrays to fail Check.")
	}
}
