/*package grid is a small block-structured array container: a MultiFab is a set
of boxes (a BoxArray), an owner for each box (a DistributionMapping) and one
multi-component array (a Fab) per box. It provides the two operations the
back-transformation needs from a grid: extracting a one-cell-thick slab and
copying data between two MultiFabs with different ownership maps.
*/
package grid

import (
	"fmt"

	"github.com/phil-mansfield/labframe/lib/geom"
)

// Fab is a multi-component array of float64 values over a Box. Components are
// stored one after another and each component is box-ordered (see
// geom.Box.Index).
type Fab struct {
	box   geom.Box
	nComp int
	data  []float64
}

// NewFab allocates a zeroed Fab.
func NewFab(box geom.Box, nComp int) *Fab {
	if !box.Ok() {
		panic(fmt.Sprintf("Internal error: Fab allocated over empty box %s.",
			box))
	}
	return &Fab{box, nComp, make([]float64, box.NumPts()*nComp)}
}

// Box returns the region covered by the Fab.
func (f *Fab) Box() geom.Box { return f.box }

// NComp returns the number of components.
func (f *Fab) NComp() int { return f.nComp }

// Comp returns the underlying slice for component c. Writes to the slice
// modify the Fab.
func (f *Fab) Comp(c int) []float64 {
	n := f.box.NumPts()
	return f.data[c*n : (c+1)*n]
}

// Get returns component c of cell iv.
func (f *Fab) Get(iv geom.IntVect, c int) float64 {
	return f.data[c*f.box.NumPts()+f.box.Index(iv)]
}

// Set sets component c of cell iv.
func (f *Fab) Set(iv geom.IntVect, c int, x float64) {
	f.data[c*f.box.NumPts()+f.box.Index(iv)] = x
}

// SetVal sets every cell of component c to x.
func (f *Fab) SetVal(c int, x float64) {
	comp := f.Comp(c)
	for i := range comp {
		comp[i] = x
	}
}

// CopyFrom copies the cells in region from src into f. Cell iv of src is
// written to cell iv + shift of f. Component srcComp+i goes to dstComp+i for
// i in [0, nComp). region is given in src's index space and must lie inside
// both Fabs after shifting.
func (f *Fab) CopyFrom(
	src *Fab, region geom.Box, shift geom.IntVect,
	srcComp, dstComp, nComp int,
) {
	dstRegion := region
	for d := 0; d < 3; d++ {
		dstRegion = dstRegion.Shift(d, shift[d])
	}
	if !src.box.ContainsBox(region) || !f.box.ContainsBox(dstRegion) {
		panic(fmt.Sprintf("Internal error: copy region %s (shifted to %s) "+
			"does not fit inside source %s and destination %s.",
			region, dstRegion, src.box, f.box))
	} else if srcComp+nComp > src.nComp || dstComp+nComp > f.nComp {
		panic(fmt.Sprintf("Internal error: copying components [%d, %d) to "+
			"[%d, %d), but the Fabs have %d and %d components.",
			srcComp, srcComp+nComp, dstComp, dstComp+nComp,
			src.nComp, f.nComp))
	}

	for c := 0; c < nComp; c++ {
		s, d := src.Comp(srcComp+c), f.Comp(dstComp+c)
		for k := region.Lo[2]; k <= region.Hi[2]; k++ {
			for j := region.Lo[1]; j <= region.Hi[1]; j++ {
				// Rows along axis 0 are contiguous in both Fabs.
				i0 := src.box.Index(geom.IntVect{region.Lo[0], j, k})
				o0 := f.box.Index(geom.IntVect{
					region.Lo[0] + shift[0], j + shift[1], k + shift[2],
				})
				n := region.Length(0)
				copy(d[o0:o0+n], s[i0:i0+n])
			}
		}
	}
}
