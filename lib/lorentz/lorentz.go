/*package lorentz contains the Lorentz transformations between a boosted frame,
in which the simulation runs, and the lab frame, in which diagnostics are
reported.

The boosted frame moves at +beta*c along the boost axis relative to the lab.
For boost axis a, with transverse axes u = (a+1)%3 and v = (a+2)%3, fields
transform to the lab frame as

	E_u' = gamma (E_u + beta c B_v)    B_v' = gamma (B_v + beta E_u / c)
	E_v' = gamma (E_v - beta c B_u)    B_u' = gamma (B_u - beta E_v / c)
	j_a' = gamma (j_a + beta c rho)    rho' = gamma (rho + beta j_a / c)

and E_a, B_a, j_u, j_v are unchanged. For a boost along z this is the usual
Ex' = gamma (Ex + beta c By), Ey' = gamma (Ey - beta c Bx).
*/
package lorentz

import (
	"fmt"
	"math"
)

// C is the speed of light in m/s.
const C = 299792458.0

// Indices of the cell-centered field components.
const (
	Ex = iota
	Ey
	Ez
	Bx
	By
	Bz
	Jx
	Jy
	Jz
	Rho
	NumFields
)

// FieldNames gives the name of every cell-centered component, in index order.
var FieldNames = []string{
	"Ex", "Ey", "Ez", "Bx", "By", "Bz", "jx", "jy", "jz", "rho",
}

// FieldIndex returns the component index of a named field.
func FieldIndex(name string) (int, bool) {
	for i := range FieldNames {
		if FieldNames[i] == name {
			return i, true
		}
	}
	return -1, false
}

// FieldMap converts a list of field names into the component indices used by
// cell-centered data. An empty list selects every field.
func FieldMap(names []string) ([]int, error) {
	if len(names) == 0 {
		names = FieldNames
	}
	out := make([]int, len(names))
	seen := map[string]bool{}
	for i, name := range names {
		idx, ok := FieldIndex(name)
		if !ok {
			return nil, fmt.Errorf("'%s' is not a valid field name. Valid "+
				"names are %s.", name, FieldNames)
		} else if seen[name] {
			return nil, fmt.Errorf("The field '%s' is listed more than once.",
				name)
		}
		seen[name] = true
		out[i] = idx
	}
	return out, nil
}

// Boost holds the Lorentz parameters of the boosted frame.
type Boost struct {
	Gamma, Beta       float64
	InvGamma, InvBeta float64
	// Dir is the boost axis: 0, 1, or 2.
	Dir int
}

// NewBoost creates a Boost with the given Lorentz factor along axis dir.
func NewBoost(gamma float64, dir int) (Boost, error) {
	if math.IsNaN(gamma) || gamma <= 1 {
		return Boost{}, fmt.Errorf("The boost factor must be greater than 1, "+
			"but it was set to %g.", gamma)
	} else if dir < 0 || dir > 2 {
		return Boost{}, fmt.Errorf("The boost direction must be 0, 1, or 2, "+
			"but it was set to %d.", dir)
	}
	beta := math.Sqrt(1 - 1/(gamma*gamma))
	return Boost{gamma, beta, 1 / gamma, 1 / beta, dir}, nil
}

// ZBoost returns the boosted-frame position of the plane which is sampled at
// lab time tLab when the boosted frame is at time tBoost.
func (b Boost) ZBoost(tLab, tBoost float64) float64 {
	return (tLab*b.InvGamma - tBoost) * C * b.InvBeta
}

// ZLab returns the lab-frame position of the plane which is sampled at lab
// time tLab when the boosted frame is at time tBoost.
func (b Boost) ZLab(tLab, tBoost float64) float64 {
	return (tLab - tBoost*b.InvGamma) * C * b.InvBeta
}

// DzLab returns the lab-frame distance the sampling plane moves during one
// boosted-frame step of length dtBoost.
func (b Boost) DzLab(dtBoost float64) float64 {
	return C * dtBoost * b.InvBeta * b.InvGamma
}

// transverse returns the two axes perpendicular to the boost axis, ordered
// so that (u, v, Dir) is right-handed.
func (b Boost) transverse() (u, v int) {
	return (b.Dir + 1) % 3, (b.Dir + 2) % 3
}
