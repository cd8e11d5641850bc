package grid

import (
	"fmt"

	"github.com/phil-mansfield/labframe/lib/geom"
)

// BoxArray is a list of disjoint boxes.
type BoxArray []geom.Box

// NewBoxArray creates a BoxArray with a single box.
func NewBoxArray(b geom.Box) BoxArray { return BoxArray{b} }

// MaxSize chops every box so that no box is longer than n cells along any
// axis. The chopped boxes cover exactly the same cells as the original ones.
func (ba BoxArray) MaxSize(n int) BoxArray {
	if n <= 0 {
		panic(fmt.Sprintf("Internal error: MaxSize(%d) called.", n))
	}

	out := ba
	for d := 0; d < 3; d++ {
		next := BoxArray{}
		for _, b := range out {
			for lo := b.Lo[d]; lo <= b.Hi[d]; lo += n {
				hi := lo + n - 1
				if hi > b.Hi[d] {
					hi = b.Hi[d]
				}
				next = append(next, b.WithRange(d, lo, hi))
			}
		}
		out = next
	}
	return out
}

// NumPts returns the total number of cells in the BoxArray.
func (ba BoxArray) NumPts() int {
	n := 0
	for _, b := range ba {
		n += b.NumPts()
	}
	return n
}

// DistributionMapping assigns an owning rank to each box of a BoxArray.
type DistributionMapping []int

// NewDistributionMapping assigns boxes to ranks round-robin.
func NewDistributionMapping(ba BoxArray, ranks int) DistributionMapping {
	if ranks <= 0 {
		ranks = 1
	}
	dm := make(DistributionMapping, len(ba))
	for i := range dm {
		dm[i] = i % ranks
	}
	return dm
}

// MultiFab is a distributed multi-component array: one Fab per box of its
// BoxArray, each owned by the rank listed in its DistributionMapping.
type MultiFab struct {
	ba    BoxArray
	dm    DistributionMapping
	nComp int
	fabs  []*Fab
}

// NewMultiFab allocates a zeroed MultiFab.
func NewMultiFab(ba BoxArray, dm DistributionMapping, nComp int) *MultiFab {
	if len(ba) != len(dm) {
		panic(fmt.Sprintf("Internal error: BoxArray has %d boxes but the "+
			"DistributionMapping has %d entries.", len(ba), len(dm)))
	}
	mf := &MultiFab{ba, dm, nComp, make([]*Fab, len(ba))}
	for i := range ba {
		mf.fabs[i] = NewFab(ba[i], nComp)
	}
	return mf
}

// BoxArray returns the boxes covered by the MultiFab.
func (mf *MultiFab) BoxArray() BoxArray { return mf.ba }

// DistributionMap returns the owner of each box.
func (mf *MultiFab) DistributionMap() DistributionMapping { return mf.dm }

// NComp returns the number of components.
func (mf *MultiFab) NComp() int { return mf.nComp }

// Len returns the number of Fabs.
func (mf *MultiFab) Len() int { return len(mf.fabs) }

// Fab returns the i-th Fab.
func (mf *MultiFab) Fab(i int) *Fab { return mf.fabs[i] }

// Owner returns the rank owning the i-th Fab.
func (mf *MultiFab) Owner(i int) int { return mf.dm[i] }

// SetVal sets component c of every cell to x.
func (mf *MultiFab) SetVal(c int, x float64) {
	for _, f := range mf.fabs {
		f.SetVal(c, x)
	}
}

// Get returns component c of cell iv, or false if no Fab contains iv.
func (mf *MultiFab) Get(iv geom.IntVect, c int) (float64, bool) {
	for _, f := range mf.fabs {
		if f.box.Contains(iv) {
			return f.Get(iv, c), true
		}
	}
	return 0, false
}

// ParallelCopy copies the overlapping cells of src into dst: every cell iv of
// src lands on cell iv + shift of dst if dst covers it. Components
// [srcComp, srcComp+nComp) of src go to [dstComp, dstComp+nComp) of dst. The
// two MultiFabs may have unrelated BoxArrays and DistributionMappings; since
// the boxes of each are disjoint every destination cell is written at most
// once. It returns the number of cells copied.
func ParallelCopy(
	dst, src *MultiFab, shift geom.IntVect, srcComp, dstComp, nComp int,
) int {
	n := 0
	for _, df := range dst.fabs {
		// Destination box expressed in src's index space.
		target := df.box
		for d := 0; d < 3; d++ {
			target = target.Shift(d, -shift[d])
		}
		for _, sf := range src.fabs {
			region, ok := sf.box.Intersect(target)
			if !ok {
				continue
			}
			df.CopyFrom(sf, region, shift, srcComp, dstComp, nComp)
			n += region.NumPts()
		}
	}
	return n
}

// SliceData extracts the one-cell-thick slab at index k along axis dir. The
// slab keeps src's ownership: each Fab of the slab is owned by the rank
// owning the source Fab it was cut from, so the extraction is local.
func SliceData(src *MultiFab, dir, k int) *MultiFab {
	ba, dm, from := BoxArray{}, DistributionMapping{}, []int{}
	for i, b := range src.ba {
		if k < b.Lo[dir] || k > b.Hi[dir] {
			continue
		}
		ba = append(ba, b.WithRange(dir, k, k))
		dm = append(dm, src.dm[i])
		from = append(from, i)
	}

	slab := NewMultiFab(ba, dm, src.nComp)
	for i, f := range slab.fabs {
		f.CopyFrom(src.fabs[from[i]], f.box, geom.IntVect{},
			0, 0, src.nComp)
	}
	return slab
}
