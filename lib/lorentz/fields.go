package lorentz

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/labframe/lib/grid"
)

// TransformFields converts every cell of mf from the boosted frame to the lab
// frame in place. mf must have the NumFields components listed in
// FieldNames.
func (b Boost) TransformFields(mf *grid.MultiFab) {
	if mf.NComp() < NumFields {
		panic(fmt.Sprintf("Internal error: field transform needs %d "+
			"components, but the slab has %d.", NumFields, mf.NComp()))
	}

	scratch := []float64{}
	for i := 0; i < mf.Len(); i++ {
		scratch = b.transformFab(mf.Fab(i), scratch)
	}
}

func (b Boost) transformFab(f *grid.Fab, scratch []float64) []float64 {
	n := f.Box().NumPts()
	if cap(scratch) < n {
		scratch = make([]float64, n)
	}
	scratch = scratch[:n]

	u, v := b.transverse()
	a := b.Dir
	bc, bOverC := b.Beta*C, b.Beta/C

	b.mix(f.Comp(Ex+u), f.Comp(Bx+v), bc, bOverC, scratch)
	b.mix(f.Comp(Ex+v), f.Comp(Bx+u), -bc, -bOverC, scratch)
	b.mix(f.Comp(Jx+a), f.Comp(Rho), bc, bOverC, scratch)

	return scratch
}

// mix applies p' = gamma (p + alpha q), q' = gamma (q + alphaInv p) to a
// pair of component arrays in place.
func (b Boost) mix(p, q []float64, alpha, alphaInv float64, scratch []float64) {
	floats.AddScaledTo(scratch, p, alpha, q)
	floats.AddScaled(q, alphaInv, p)
	floats.Scale(b.Gamma, q)
	floats.ScaleTo(p, b.Gamma, scratch)
}
