package synth

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/labframe/lib/geom"
	"github.com/phil-mansfield/labframe/lib/lorentz"
)

func testGeometry() geom.Geometry {
	return geom.NewGeometry(geom.IntVect{2, 2, 8}, geom.RealBox{
		Lo: [3]float64{-1e-6, -1e-6, -4e-6},
		Hi: [3]float64{1e-6, 1e-6, 4e-6},
	})
}

func TestRNG(t *testing.T) {
	a, b := NewRNG(7), NewRNG(7)
	for i := 0; i < 1000; i++ {
		x, y := a.Uniform(), b.Uniform()
		if x != y {
			t.Fatalf("%d) Expected identical sequences, got %g and %g.",
				i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Errorf("%d) Expected a value in [0, 1), got %g.", i, x)
		}
		if z := a.UniformIn(-3, -2); z < -3 || z >= -2 {
			t.Errorf("%d) Expected a value in [-3, -2), got %g.", i, z)
		}
		b.Uniform()
	}
}

func TestFields(t *testing.T) {
	cfg := &Config{
		Dir: 2, WaveAmplitude: 1e9, WaveNumber: 2 * math.Pi / 8e-6,
		AxialE: 3, AxialB: 4, Rho: 5, Jz: 6,
		MaxBoxSize: 4, Ranks: 2,
	}
	g := testGeometry()
	s, err := New(cfg, g, 0)
	if err != nil {
		t.Fatal(err.Error())
	}
	dt := 1e-15
	s.Step(dt)

	if s.Fields().Len() != 2 {
		t.Errorf("Expected the fields to be split into 2 boxes, got %d.",
			s.Fields().Len())
	}

	for k := 0; k < 8; k++ {
		iv := geom.IntVect{1, 0, k}
		z := -4e-6 + (float64(k)+0.5)*1e-6
		e := s.Wave(z, dt)

		exp := make([]float64, lorentz.NumFields)
		exp[lorentz.Ex], exp[lorentz.By] = e, e/lorentz.C
		exp[lorentz.Ez], exp[lorentz.Bz] = 3, 4
		exp[lorentz.Jz], exp[lorentz.Rho] = 6, 5

		got := make([]float64, lorentz.NumFields)
		for c := range got {
			var ok bool
			if got[c], ok = s.Fields().Get(iv, c); !ok {
				t.Fatalf("Cell %v is not in the fields.", iv)
			}
		}
		if !floats.EqualApprox(exp, got, 1e-12) {
			t.Errorf("%d) Expected fields %.4g, got %.4g.", k, exp, got)
		}
	}
}

func TestBeams(t *testing.T) {
	u := [3]float64{0, 0, lorentz.C}
	cfg := &Config{
		Dir: 2, MaxBoxSize: 8, Ranks: 1, Seed: 3,
		Beams: []Beam{
			{Name: "beam", N: 50, Width: [3]float64{1e-7, 1e-7, 1e-6},
				U: u, Weight: 2},
			{Name: "plasma", N: 0},
		},
	}
	s, err := New(cfg, testGeometry(), 0)
	if err != nil {
		t.Fatal(err.Error())
	}

	names := s.SpeciesNames()
	if len(names) != 2 || names[0] != "beam" || names[1] != "plasma" {
		t.Fatalf("Expected species [beam plasma], got %v.", names)
	}

	sp := s.Particles().Species[0]
	start := append([][3]float64{}, sp.X...)
	for i := range start {
		if math.Abs(start[i][2]) > 1e-6 || math.Abs(start[i][0]) > 1e-7 {
			t.Errorf("Particle %d starts outside its beam at %v.", i, start[i])
		}
	}

	dt := 1e-15
	s.Step(dt)
	// u = c gives v = c/sqrt(2).
	vz := lorentz.C / math.Sqrt(2)
	for i := range sp.X {
		if sp.XOld[i] != start[i] {
			t.Errorf("Expected old position %v, got %v.", start[i], sp.XOld[i])
		}
		dz := sp.X[i][2] - start[i][2]
		if math.Abs(dz-vz*dt) > 1e-9*vz*dt {
			t.Errorf("Expected particle %d to move %g, got %g.", i, vz*dt, dz)
		}
	}
	if err := sp.Check(); err != nil {
		t.Error(err.Error())
	}
	if math.Abs(s.Time()-dt) > 1e-30 {
		t.Errorf("Expected time %g, got %g.", dt, s.Time())
	}

	if _, err := New(&Config{Dir: 3, MaxBoxSize: 1}, testGeometry(), 0); err == nil {
		t.Errorf("Expected an error for Dir = 3.")
	}
}
