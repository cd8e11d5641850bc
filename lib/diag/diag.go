/*package diag contains LabFrameDiag, the state of a single lab-frame
diagnostic. A diagnostic records the lab-frame fields and particles at one
fixed lab time, t_lab. Because of the relativity of simultaneity that time
corresponds to a plane which sweeps through the boosted-frame domain as the
simulation advances, so a diagnostic is assembled one slab at a time and
buffered until the buffer is full or the run ends.

There are two kinds of diagnostic. A Snapshot records the full lab-frame
domain. A Slice records only a user-chosen sub-domain, which may be a 1D line,
a 2D plane, or a 3D box.
*/
package diag

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/labframe/lib/geom"
	"github.com/phil-mansfield/labframe/lib/grid"
	"github.com/phil-mansfield/labframe/lib/lorentz"
	"github.com/phil-mansfield/labframe/lib/particles"
	"github.com/phil-mansfield/labframe/lib/snapio"
)

// Kind distinguishes full-domain snapshots from reduced-domain slices.
type Kind int

const (
	Snapshot Kind = iota
	Slice
)

func (k Kind) String() string {
	switch k {
	case Snapshot:
		return "snapshot"
	case Slice:
		return "slice"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Params are the run-wide parameters every diagnostic is built from.
type Params struct {
	Boost lorentz.Boost
	// DzLab is the lab-frame cell size along the boost axis.
	DzLab float64
	// NumBuffer is the number of slabs held in memory before a flush and
	// MaxBoxSize is the longest a buffer box may be along any axis. Ranks is
	// the number of owners the buffer boxes are distributed over.
	NumBuffer, MaxBoxSize, Ranks int
	// FieldNames are the fields written to disk. They must be a subset of
	// lorentz.FieldNames.
	FieldNames []string
	// Species lists the particle species to record. Particles are not
	// recorded if it is empty.
	Species []string
	// Root is the output directory.
	Root string
}

// Diag is a single lab-frame diagnostic.
type Diag struct {
	Kind     Kind
	FileName string
	FileNum  int
	TLab     float64

	// ProbDomainLab and ProbNCellsLab describe the full lab-frame grid at
	// TLab. DiagDomainLab is the region actually recorded, and BuffBox is the
	// same region in lab-frame cell indices.
	ProbDomainLab geom.RealBox
	ProbNCellsLab geom.IntVect
	DiagDomainLab geom.RealBox
	BuffBox       geom.Box

	// CurrentZLab and CurrentZBoost are the positions of the sampling plane
	// at the most recent boosted-frame time.
	CurrentZLab, CurrentZBoost float64

	invGammaBoost, invBetaBoost float64
	dzLab                       float64
	particleSliceDxLab          float64

	NComp      int
	FieldNames []string

	dir                          int
	numBuffer, maxBoxSize, ranks int

	data      *grid.MultiFab
	slabK     []int64
	species   []string
	particles []particles.Particles
	counter   int
	flushNum  int
}

// NewSnapshot creates a diagnostic covering the full lab-frame domain prob
// (with ncells cells) at time tLab.
func NewSnapshot(
	fileNum int, tLab, tBoost float64,
	prob geom.RealBox, ncells geom.IntVect, p *Params,
) *Diag {
	box := geom.NewBox(geom.IntVect{},
		geom.IntVect{ncells[0] - 1, ncells[1] - 1, ncells[2] - 1})
	d := newDiag(Snapshot, snapio.SnapshotDir(p.Root, fileNum), fileNum,
		tLab, prob, ncells, prob, box, p)
	d.UpdateCurrentZPositions(tBoost, d.invGammaBoost, d.invBetaBoost)
	return d
}

// NewSlice creates a diagnostic at time tLab which only records the region
// sliceDomain of the full lab-frame domain prob. sliceBox is the same region
// in cell indices. Particles within particleSliceDx of the region along every
// transverse axis are recorded.
func NewSlice(
	fileNum int, tLab, tBoost float64,
	prob geom.RealBox, ncells geom.IntVect,
	sliceDomain geom.RealBox, sliceBox geom.Box,
	particleSliceDx float64, p *Params,
) *Diag {
	d := newDiag(Slice, snapio.SliceDir(p.Root, fileNum), fileNum,
		tLab, prob, ncells, sliceDomain, sliceBox, p)
	d.particleSliceDxLab = particleSliceDx
	d.UpdateCurrentZPositions(tBoost, d.invGammaBoost, d.invBetaBoost)
	return d
}

func newDiag(
	kind Kind, fileName string, fileNum int, tLab float64,
	prob geom.RealBox, ncells geom.IntVect,
	diagDomain geom.RealBox, buffBox geom.Box, p *Params,
) *Diag {
	if p.NumBuffer <= 0 || p.MaxBoxSize <= 0 {
		panic(fmt.Sprintf("Internal error: diagnostic created with "+
			"NumBuffer = %d and MaxBoxSize = %d.", p.NumBuffer, p.MaxBoxSize))
	} else if !buffBox.Ok() {
		panic(fmt.Sprintf("Internal error: diagnostic created with an "+
			"empty buffer box %s.", buffBox))
	}

	d := &Diag{
		Kind: kind, FileName: fileName, FileNum: fileNum, TLab: tLab,
		ProbDomainLab: prob, ProbNCellsLab: ncells,
		DiagDomainLab: diagDomain, BuffBox: buffBox,
		invGammaBoost: p.Boost.InvGamma, invBetaBoost: p.Boost.InvBeta,
		dzLab: p.DzLab,
		NComp: len(p.FieldNames),
		FieldNames: append([]string{}, p.FieldNames...),
		dir:        p.Boost.Dir,
		numBuffer:  p.NumBuffer, maxBoxSize: p.MaxBoxSize, ranks: p.Ranks,
		slabK:   make([]int64, p.NumBuffer),
		species: append([]string{}, p.Species...),
	}

	d.particles = make([]particles.Particles, len(d.species))
	for i := range d.particles {
		d.particles[i] = particles.NewDiagnosticData()
	}
	return d
}

// UpdateCurrentZPositions moves the sampling plane to boosted-frame time
// tBoost.
func (d *Diag) UpdateCurrentZPositions(tBoost, invGamma, invBeta float64) {
	d.CurrentZBoost = (d.TLab*invGamma - tBoost) * lorentz.C * invBeta
	d.CurrentZLab = (d.TLab - tBoost*invGamma) * lorentz.C * invBeta
}

// BufferCounter returns the number of slabs currently held in the buffer.
func (d *Diag) BufferCounter() int { return d.counter }

// NumBuffer returns the capacity of the buffer in slabs.
func (d *Diag) NumBuffer() int { return d.numBuffer }

// BufferFull returns true if the buffer must be flushed before it accepts
// another slab.
func (d *Diag) BufferFull() bool { return d.counter == d.numBuffer }

// FlushNum returns the number of dumps written so far.
func (d *Diag) FlushNum() int { return d.flushNum }

// NumParticles returns the number of buffered particles of each species.
func (d *Diag) NumParticles() []int {
	out := make([]int, len(d.particles))
	for i := range d.particles {
		out[i] = d.particles[i].Len()
	}
	return out
}

// SlabLayout returns the boxes and owners that a lab-frame slab at index
// kLab along the boost axis should be laid out on before it is passed to
// AddDataToBuffer.
func (d *Diag) SlabLayout(kLab int) (grid.BoxArray, grid.DistributionMapping) {
	ba := grid.NewBoxArray(d.BuffBox.WithRange(d.dir, kLab, kLab)).
		MaxSize(d.maxBoxSize)
	return ba, grid.NewDistributionMapping(ba, d.ranks)
}

// LabIndex returns the lab-frame cell index of the current sampling plane
// along the boost axis, and false if the plane is outside the lab-frame
// grid. The plane moves exactly one cell per step, so planes within 1e-8
// cells below an edge belong to the cell above it.
func (d *Diag) LabIndex() (int, bool) {
	lo := d.ProbDomainLab.Lo[d.dir]
	x := (d.CurrentZLab-lo)/d.dzLab + 1e-8
	if x < 0 {
		return 0, false
	}
	k := int(math.Floor(x))
	return k, k < d.ProbNCellsLab[d.dir]
}

// InDomain returns true if lab-frame slab kLab lies inside the region
// recorded by the diagnostic. A slice with no extent along the boost axis
// records the single slab containing it.
func (d *Diag) InDomain(kLab int) bool {
	return kLab >= d.BuffBox.Lo[d.dir] && kLab <= d.BuffBox.Hi[d.dir]
}

// bufferLayout is the layout of the field buffer: the recorded region with
// one cell along the boost axis per buffer slot.
func (d *Diag) bufferLayout() (grid.BoxArray, grid.DistributionMapping) {
	ba := grid.NewBoxArray(d.BuffBox.WithRange(d.dir, 0, d.numBuffer-1)).
		MaxSize(d.maxBoxSize)
	return ba, grid.NewDistributionMapping(ba, d.ranks)
}

// AddDataToBuffer copies a transformed lab-frame slab into buffer slot
// slot. Component i of the buffer comes from component fieldMap[i] of the
// slab. Snapshots copy the whole slab and slices copy only the part that
// intersects their sub-domain. It returns true, and advances the buffer
// counter, if any cells were copied.
//
// slot must be in [0, NumBuffer()) and the buffer must not be full.
func (d *Diag) AddDataToBuffer(slab *grid.MultiFab, slot int, fieldMap []int) bool {
	if slot < 0 || slot >= d.numBuffer {
		panic(fmt.Sprintf("Internal error: buffer slot %d of %s is outside "+
			"[0, %d).", slot, d.FileName, d.numBuffer))
	} else if d.BufferFull() {
		panic(fmt.Sprintf("Internal error: %s was given a slab while its "+
			"buffer of %d slabs was full.", d.FileName, d.numBuffer))
	} else if len(fieldMap) != d.NComp {
		panic(fmt.Sprintf("Internal error: %s records %d fields, but was "+
			"given a field map with %d entries.",
			d.FileName, d.NComp, len(fieldMap)))
	}
	for i, c := range fieldMap {
		if c < 0 || c >= slab.NComp() {
			panic(fmt.Sprintf("Internal error: field %d of %s maps to "+
				"component %d, but the slab only has %d components.",
				i, d.FileName, c, slab.NComp()))
		}
	}

	kLab, ok := slabIndex(slab, d.dir)
	if !ok {
		return false
	}

	switch d.Kind {
	case Snapshot:
	case Slice:
		if kLab < d.BuffBox.Lo[d.dir] || kLab > d.BuffBox.Hi[d.dir] {
			return false
		}
	default:
		panic(fmt.Sprintf("Internal error: unknown diagnostic kind %d.",
			int(d.Kind)))
	}

	if d.data == nil {
		ba, dm := d.bufferLayout()
		d.data = grid.NewMultiFab(ba, dm, d.NComp)
	}

	// The buffer's boxes only cover the recorded region, so the copy is
	// cropped to the slice's sub-domain.
	shift := geom.IntVect{}
	shift[d.dir] = slot - kLab
	if grid.ParallelCopy(d.data, slab, shift, fieldMap[0], 0, 1) == 0 {
		return false
	}
	for i := 1; i < len(fieldMap); i++ {
		grid.ParallelCopy(d.data, slab, shift, fieldMap[i], i, 1)
	}

	d.slabK[slot] = int64(kLab)
	d.counter++
	return true
}

// slabIndex returns the index of a one-cell-thick slab along dir.
func slabIndex(slab *grid.MultiFab, dir int) (int, bool) {
	if slab.Len() == 0 {
		return 0, false
	}
	k := slab.BoxArray()[0].Lo[dir]
	for _, b := range slab.BoxArray() {
		if b.Lo[dir] != k || b.Hi[dir] != k {
			panic(fmt.Sprintf("Internal error: slab box %s is not a single "+
				"cell thick at index %d along axis %d.", b, k, dir))
		}
	}
	return k, true
}

// AddPartDataToParticleBuffer appends transformed particles to the particle
// buffer. batch[i] holds species i in the particles.DiagnosticFields layout.
// Snapshots keep every particle and slices keep only those within the
// admission width of their sub-domain along the transverse axes.
func (d *Diag) AddPartDataToParticleBuffer(
	batch []particles.Particles, nSpecies int,
) {
	if nSpecies > len(batch) {
		panic(fmt.Sprintf("Internal error: %d species requested, but the "+
			"particle batch only has %d.", nSpecies, len(batch)))
	}
	if nSpecies > len(d.particles) {
		nSpecies = len(d.particles)
	}

	for i := 0; i < nSpecies; i++ {
		src := batch[i]
		n := src.Len()
		if n == 0 {
			continue
		}

		var idx []int
		switch d.Kind {
		case Snapshot:
			idx = make([]int, n)
			for j := range idx {
				idx[j] = j
			}
		case Slice:
			idx = d.admitted(src)
		default:
			panic(fmt.Sprintf("Internal error: unknown diagnostic kind %d.",
				int(d.Kind)))
		}

		if err := d.particles[i].AppendFrom(src, idx); err != nil {
			panic(fmt.Sprintf("Internal error: %s", err.Error()))
		}
	}
}

// admitted returns the particles of p which lie inside the slice's
// sub-domain widened by particleSliceDxLab along the transverse axes.
func (d *Diag) admitted(p particles.Particles) []int {
	w := d.particleSliceDxLab
	lo, hi := d.DiagDomainLab.Lo, d.DiagDomainLab.Hi
	idx := []int{}
	for j := 0; j < p.Len(); j++ {
		x := p.Position(j)
		ok := true
		for ax := 0; ax < 3; ax++ {
			if ax == d.dir {
				continue
			}
			if x[ax] < lo[ax]-w || x[ax] > hi[ax]+w {
				ok = false
				break
			}
		}
		if ok {
			idx = append(idx, j)
		}
	}
	return idx
}
