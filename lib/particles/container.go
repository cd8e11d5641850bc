package particles

import (
	"fmt"
)

// Species is the boosted-frame state of one particle species at the current
// step and at the previous step. U is momentum per unit mass (gamma*v).
type Species struct {
	Name    string
	W       []float64
	X, XOld [][3]float64
	U, UOld [][3]float64
}

// Len returns the number of particles in the species.
func (s *Species) Len() int { return len(s.W) }

// Check returns an error if the arrays of s have inconsistent lengths.
func (s *Species) Check() error {
	n := len(s.W)
	if len(s.X) != n || len(s.XOld) != n || len(s.U) != n || len(s.UOld) != n {
		return fmt.Errorf("Species '%s' has %d weights, but %d, %d, %d, and "+
			"%d positions, old positions, momenta, and old momenta.",
			s.Name, n, len(s.X), len(s.XOld), len(s.U), len(s.UOld))
	}
	return nil
}

// Select returns a new Species holding the particles at the given indices.
func (s *Species) Select(idx []int) *Species {
	out := &Species{
		Name: s.Name,
		W:    make([]float64, len(idx)),
		X:    make([][3]float64, len(idx)), XOld: make([][3]float64, len(idx)),
		U: make([][3]float64, len(idx)), UOld: make([][3]float64, len(idx)),
	}
	for i, j := range idx {
		out.W[i] = s.W[j]
		out.X[i], out.XOld[i] = s.X[j], s.XOld[j]
		out.U[i], out.UOld[i] = s.U[j], s.UOld[j]
	}
	return out
}

// Container holds every species of a boosted-frame simulation.
type Container struct {
	Species []*Species
}

// NumSpecies returns the number of species.
func (c *Container) NumSpecies() int { return len(c.Species) }

// SpeciesName returns the name of species i.
func (c *Container) SpeciesName(i int) string { return c.Species[i].Name }

// Crossed returns the particles of species i which crossed the moving plane
// along axis dir during the last step: the plane was at zOld at the previous
// step and is at zNew now. A particle crossed if it is on or past the plane
// now and was strictly before it then, in either direction, so a particle
// left on the plane by one step isn't selected again by the next.
func (c *Container) Crossed(i, dir int, zOld, zNew float64) *Species {
	s := c.Species[i]
	idx := []int{}
	for j := range s.W {
		zp, zpOld := s.X[j][dir], s.XOld[j][dir]
		if (zp >= zNew && zpOld < zOld) || (zp <= zNew && zpOld > zOld) {
			idx = append(idx, j)
		}
	}
	return s.Select(idx)
}
