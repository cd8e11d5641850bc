/*package synth generates an analytic boosted-frame simulation which can
stand in for a real field solver and particle pusher. The fields are a
vacuum plane wave travelling along the boost axis on top of uniform axial
fields and a uniform charge density, and the particles are beams drifting
at constant velocity. Everything is known in closed form, so the lab-frame
output can be checked against the Lorentz transform of the input.
*/
package synth

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/labframe/lib/geom"
	"github.com/phil-mansfield/labframe/lib/grid"
	"github.com/phil-mansfield/labframe/lib/lorentz"
	"github.com/phil-mansfield/labframe/lib/particles"
)

// Config describes the synthetic fields and beams.
type Config struct {
	// Dir is the axis the wave travels along.
	Dir int
	// WaveAmplitude is the peak transverse electric field of the plane wave
	// and WaveNumber is its wavenumber in the boosted frame.
	WaveAmplitude, WaveNumber float64
	// AxialE and AxialB are uniform fields along Dir. Rho and Jz are a
	// uniform charge density and current density along Dir.
	AxialE, AxialB float64
	Rho, Jz        float64

	MaxBoxSize, Ranks int

	Beams []Beam
	Seed  uint64
}

// Beam is a group of particles drifting with a shared momentum.
type Beam struct {
	Name string
	N    int
	// Particles start uniformly distributed in Center +/- Width.
	Center, Width [3]float64
	// U is the momentum per unit mass, gamma*v.
	U      [3]float64
	Weight float64
}

// Source is the state of the synthetic simulation.
type Source struct {
	cfg    Config
	g      geom.Geometry
	fields *grid.MultiFab
	parts  *particles.Container
	t      float64
}

// New creates a Source on geometry g at time t0.
func New(cfg *Config, g geom.Geometry, t0 float64) (*Source, error) {
	if cfg.Dir < 0 || cfg.Dir > 2 {
		return nil, fmt.Errorf("The wave direction must be 0, 1, or 2, but "+
			"it was set to %d.", cfg.Dir)
	} else if cfg.MaxBoxSize <= 0 {
		return nil, fmt.Errorf("MaxBoxSize must be positive, but it was set "+
			"to %d.", cfg.MaxBoxSize)
	}

	ba := grid.NewBoxArray(g.Domain).MaxSize(cfg.MaxBoxSize)
	dm := grid.NewDistributionMapping(ba, cfg.Ranks)
	s := &Source{
		cfg:    *cfg,
		g:      g,
		fields: grid.NewMultiFab(ba, dm, lorentz.NumFields),
		parts:  &particles.Container{},
		t:      t0,
	}

	rng := NewRNG(cfg.Seed)
	for _, b := range cfg.Beams {
		if b.N < 0 {
			return nil, fmt.Errorf("Beam '%s' has %d particles.", b.Name, b.N)
		}
		s.parts.Species = append(s.parts.Species, newSpecies(b, rng))
	}

	s.setFields()
	return s, nil
}

func newSpecies(b Beam, rng *RNG) *particles.Species {
	sp := &particles.Species{
		Name: b.Name,
		W:    make([]float64, b.N),
		X:    make([][3]float64, b.N), XOld: make([][3]float64, b.N),
		U: make([][3]float64, b.N), UOld: make([][3]float64, b.N),
	}
	for i := 0; i < b.N; i++ {
		for d := 0; d < 3; d++ {
			sp.X[i][d] = rng.UniformIn(b.Center[d]-b.Width[d],
				b.Center[d]+b.Width[d])
		}
		sp.XOld[i] = sp.X[i]
		sp.U[i], sp.UOld[i] = b.U, b.U
		sp.W[i] = b.Weight
	}
	return sp
}

// Fields returns the cell-centered fields at the current time.
func (s *Source) Fields() *grid.MultiFab { return s.fields }

// Particles returns the particles at the current and previous step.
func (s *Source) Particles() *particles.Container { return s.parts }

// Time returns the current time.
func (s *Source) Time() float64 { return s.t }

// Geometry returns the boosted-frame geometry.
func (s *Source) Geometry() geom.Geometry { return s.g }

// SpeciesNames returns the name of every beam.
func (s *Source) SpeciesNames() []string {
	out := make([]string, s.parts.NumSpecies())
	for i := range out {
		out[i] = s.parts.SpeciesName(i)
	}
	return out
}

// Step advances the simulation by dt.
func (s *Source) Step(dt float64) {
	s.t += dt
	for _, sp := range s.parts.Species {
		for i := range sp.W {
			sp.XOld[i], sp.UOld[i] = sp.X[i], sp.U[i]
			v := Velocity(sp.U[i])
			for d := 0; d < 3; d++ {
				sp.X[i][d] += v[d] * dt
			}
		}
	}
	s.setFields()
}

// Velocity converts a momentum per unit mass into a velocity.
func Velocity(u [3]float64) [3]float64 {
	u2 := u[0]*u[0] + u[1]*u[1] + u[2]*u[2]
	invGamma := 1 / math.Sqrt(1+u2/(lorentz.C*lorentz.C))
	return [3]float64{u[0] * invGamma, u[1] * invGamma, u[2] * invGamma}
}

// Wave returns the transverse electric field of the plane wave at position
// z along the wave axis and time t. The magnetic field is Wave/c.
func (s *Source) Wave(z, t float64) float64 {
	return s.cfg.WaveAmplitude * math.Cos(s.cfg.WaveNumber*(z-lorentz.C*t))
}

func (s *Source) setFields() {
	a := s.cfg.Dir
	u, v := (a+1)%3, (a+2)%3
	dx := s.g.CellSize(a)

	for i := 0; i < s.fields.Len(); i++ {
		fab := s.fields.Fab(i)
		b := fab.Box()
		for c := 0; c < lorentz.NumFields; c++ {
			fab.SetVal(c, 0)
		}
		fab.SetVal(lorentz.Ex+a, s.cfg.AxialE)
		fab.SetVal(lorentz.Bx+a, s.cfg.AxialB)
		fab.SetVal(lorentz.Jx+a, s.cfg.Jz)
		fab.SetVal(lorentz.Rho, s.cfg.Rho)

		for k := b.Lo[2]; k <= b.Hi[2]; k++ {
			for j := b.Lo[1]; j <= b.Hi[1]; j++ {
				for ii := b.Lo[0]; ii <= b.Hi[0]; ii++ {
					iv := geom.IntVect{ii, j, k}
					z := s.g.ProbLo(a) + (float64(iv[a])+0.5)*dx
					e := s.Wave(z, s.t)
					// E along u and B along v travel towards +a.
					fab.Set(iv, lorentz.Ex+u, e)
					fab.Set(iv, lorentz.Bx+v, e/lorentz.C)
				}
			}
		}
	}
}
