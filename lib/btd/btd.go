/*package btd contains BackTransformedDiagnostic, which turns the data of a
simulation running in a boosted frame into lab-frame snapshots and slices.

Events that are simultaneous in the boosted frame are not simultaneous in the
lab frame, so every boosted-frame step contributes one slab to each lab-frame
diagnostic whose sampling plane currently lies inside the simulation. The
diagnostics are kept sorted by lab time and diagnostics which share a lab
time share a single extracted and transformed slab.
*/
package btd

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/phil-mansfield/labframe/lib/catalog"
	"github.com/phil-mansfield/labframe/lib/diag"
	"github.com/phil-mansfield/labframe/lib/geom"
	"github.com/phil-mansfield/labframe/lib/grid"
	"github.com/phil-mansfield/labframe/lib/logging"
	"github.com/phil-mansfield/labframe/lib/lorentz"
	"github.com/phil-mansfield/labframe/lib/particles"
	"github.com/phil-mansfield/labframe/lib/snapio"
)

// ParticleSource is the boosted-frame particle data read every step.
// *particles.Container satisfies it.
type ParticleSource interface {
	NumSpecies() int
	SpeciesName(i int) string
	// Crossed returns the particles of species i which crossed the plane
	// that moved from zOld to zNew along axis dir during the last step.
	Crossed(i, dir int, zOld, zNew float64) *particles.Species
}

// group is a run of diagnostics that share a lab time.
type group struct {
	tLab float64
	idx  []int
}

// BackTransformedDiagnostic owns every lab-frame diagnostic of a run.
type BackTransformedDiagnostic struct {
	boost   lorentz.Boost
	dzLab   float64
	dtBoost float64

	nSnapshots, nSlices         int
	dtSnapshotsLab, dtSlicesLab float64
	particleSliceWidthLab       float64
	doParticles                 bool

	fieldMap   []int
	fieldNames []string
	species    []string

	diags  []*diag.Diag
	groups []group
	// oldZBoost[i] is the boosted-frame plane of diags[i] at the previous
	// step.
	oldZBoost []float64
	tBoost    float64

	fs      billy.Filesystem
	root    string
	runID   string
	catalog *catalog.Catalog
}

// New creates the diagnostics described by cfg for a boosted-frame
// simulation with geometry g, starting at time tBoost with steps of
// dtBoost. species lists the names of the particle species that will be
// passed to WriteLabFrameData. Every diagnostic's output directory and
// header are created on fs. Errors caused by cfg wrap ErrConfig.
func New(
	cfg *Config, g geom.Geometry, tBoost, dtBoost float64,
	species []string, fs billy.Filesystem,
) (*BackTransformedDiagnostic, error) {
	boost, err := lorentz.NewBoost(cfg.GammaBoost, cfg.BoostDirection)
	if err != nil {
		return nil, configErr("%s", err.Error())
	}
	if badFloat(dtBoost) || dtBoost <= 0 {
		return nil, configErr("The boosted-frame time step must be "+
			"positive, but it was set to %g.", dtBoost)
	}
	if err := cfg.validate(g); err != nil {
		return nil, err
	}

	fieldMap, fieldNames, err := cfg.fieldMap()
	if err != nil {
		return nil, err
	}

	dzLab := boost.DzLab(dtBoost)
	prob, ncells, err := cfg.labGeometry(g, dzLab)
	if err != nil {
		return nil, err
	}

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	snapIdx, sliceIdx := cfg.snapshotIndices(), cfg.sliceIndices()
	btd := &BackTransformedDiagnostic{
		boost: boost, dzLab: dzLab, dtBoost: dtBoost,
		nSnapshots: len(snapIdx), nSlices: len(sliceIdx),
		dtSnapshotsLab: cfg.DtSnapshotsLab, dtSlicesLab: cfg.DtSlicesLab,
		particleSliceWidthLab: cfg.ParticleSliceWidthLab,
		doParticles:           cfg.DoParticles,
		fieldMap:              fieldMap, fieldNames: fieldNames,
		tBoost: tBoost,
		fs:     fs, root: cfg.Root, runID: runID, catalog: cfg.Catalog,
	}
	if cfg.DoParticles {
		btd.species = append([]string{}, species...)
	}

	p := &diag.Params{
		Boost: boost, DzLab: dzLab,
		NumBuffer: cfg.NumBuffer, MaxBoxSize: cfg.MaxBoxSize,
		Ranks:      cfg.Ranks,
		FieldNames: fieldNames, Species: btd.species,
		Root: cfg.Root,
	}

	dir := boost.Dir
	for _, i := range snapIdx {
		tLab := float64(i) * cfg.DtSnapshotsLab
		shift := cfg.VWindowLab * tLab
		snapProb := prob.WithRange(dir, prob.Lo[dir]+shift, prob.Hi[dir]+shift)
		btd.diags = append(btd.diags,
			diag.NewSnapshot(i, tLab, tBoost, snapProb, ncells, p))
	}

	if len(sliceIdx) > 0 {
		sliceBox := cfg.sliceBox(g, ncells, dzLab)
		for _, i := range sliceIdx {
			tLab := float64(i) * cfg.DtSlicesLab
			shift := cfg.VWindowLab * tLab
			sliceProb := prob.WithRange(dir,
				prob.Lo[dir]+shift, prob.Hi[dir]+shift)
			dom := cfg.SliceDomain.WithRange(dir,
				cfg.SliceDomain.Lo[dir]+shift, cfg.SliceDomain.Hi[dir]+shift)
			btd.diags = append(btd.diags, diag.NewSlice(
				i, tLab, tBoost, sliceProb, ncells, dom, sliceBox,
				cfg.ParticleSliceWidthLab, p,
			))
		}
	}

	btd.sortDiags()

	for _, d := range btd.diags {
		if err := d.CreateLabFrameDirectories(fs); err != nil {
			return nil, err
		}
		if err := d.WriteLabFrameHeader(fs); err != nil {
			return nil, err
		}
	}

	if btd.catalog != nil {
		if err := btd.catalog.RecordRun(btd.metadata()); err != nil {
			return nil, err
		}
		for _, d := range btd.diags {
			if err := btd.catalog.RecordDiagnostic(runID, d.Record()); err != nil {
				return nil, err
			}
		}
	}

	logging.Logf("Created %d lab-frame snapshots and %d slices with "+
		"gamma = %g, dz_lab = %g, and %d lab-frame cells along axis %d.",
		len(snapIdx), len(sliceIdx), boost.Gamma, dzLab, ncells[dir], dir)

	return btd, nil
}

// sortDiags sorts the diagnostics by lab time and groups the ones that share
// a lab time.
func (btd *BackTransformedDiagnostic) sortDiags() {
	sort.SliceStable(btd.diags, func(i, j int) bool {
		return btd.diags[i].TLab < btd.diags[j].TLab
	})

	btd.groups = btd.groups[:0]
	for i, d := range btd.diags {
		n := len(btd.groups)
		if n > 0 && sameLabTime(btd.groups[n-1].tLab, d.TLab) {
			btd.groups[n-1].idx = append(btd.groups[n-1].idx, i)
		} else {
			btd.groups = append(btd.groups, group{d.TLab, []int{i}})
		}
	}

	btd.oldZBoost = make([]float64, len(btd.diags))
	for i, d := range btd.diags {
		btd.oldZBoost[i] = d.CurrentZBoost
	}
}

// sameLabTime returns true if two lab times only differ by the rounding of
// index*dt, e.g. snapshot 3 at dt and slice 1 at 3*dt.
func sameLabTime(t1, t2 float64) bool {
	return math.Abs(t1-t2) <= 1e-12*math.Max(math.Abs(t1), math.Abs(t2))
}

// Diags returns the diagnostics in lab-time order.
func (btd *BackTransformedDiagnostic) Diags() []*diag.Diag { return btd.diags }

// RunID returns the identifier written to metadata.json.
func (btd *BackTransformedDiagnostic) RunID() string { return btd.runID }

// Boost returns the Lorentz parameters of the run.
func (btd *BackTransformedDiagnostic) Boost() lorentz.Boost { return btd.boost }

// DzLab returns the lab-frame cell size along the boost axis.
func (btd *BackTransformedDiagnostic) DzLab() float64 { return btd.dzLab }

// WriteLabFrameData adds the slabs of the boosted-frame step which ended at
// tBoost to every diagnostic whose sampling plane lies inside the simulation
// domain. fields holds the cell-centered data of every component in
// lorentz.FieldNames on geometry g, and dt is the length of the step. parts
// may be nil. Diagnostics whose buffers fill up are flushed.
func (btd *BackTransformedDiagnostic) WriteLabFrameData(
	fields *grid.MultiFab, parts ParticleSource,
	g geom.Geometry, tBoost, dt float64,
) error {
	btd.tBoost = tBoost
	dir := btd.boost.Dir
	for i, d := range btd.diags {
		btd.oldZBoost[i] = d.CurrentZBoost
		d.UpdateCurrentZPositions(tBoost, btd.boost.InvGamma, btd.boost.InvBeta)
	}

	for _, grp := range btd.groups {
		zBoost := btd.diags[grp.idx[0]].CurrentZBoost
		if zBoost < g.ProbLo(dir) || zBoost > g.ProbHi(dir) {
			continue
		}

		var (
			slice  *grid.MultiFab
			kBoost int
			batch  []particles.Particles
		)

		for _, i := range grp.idx {
			d := btd.diags[i]
			kLab, ok := d.LabIndex()
			if !ok || !d.InDomain(kLab) {
				continue
			}

			if slice == nil {
				kBoost = g.CellIndex(dir, zBoost)
				slice = grid.SliceData(fields, dir, kBoost)
				btd.boost.TransformFields(slice)
			}

			ba, dm := d.SlabLayout(kLab)
			tmp := grid.NewMultiFab(ba, dm, slice.NComp())
			shift := geom.IntVect{}
			shift[dir] = kLab - kBoost
			grid.ParallelCopy(tmp, slice, shift, 0, 0, slice.NComp())

			d.AddDataToBuffer(tmp, d.BufferCounter(), btd.fieldMap)

			if btd.doParticles && parts != nil && len(btd.species) > 0 {
				if batch == nil {
					batch = btd.crossedParticles(parts, btd.oldZBoost[i],
						zBoost, tBoost, dt, d.TLab)
				}
				d.AddPartDataToParticleBuffer(batch, len(batch))
			}

			if d.BufferFull() {
				if err := btd.flushDiag(d); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// crossedParticles selects and transforms the particles of every species
// which crossed the plane that moved from zOld to zNew.
func (btd *BackTransformedDiagnostic) crossedParticles(
	parts ParticleSource, zOld, zNew, tBoost, dt, tLab float64,
) []particles.Particles {
	n := parts.NumSpecies()
	if n > len(btd.species) {
		n = len(btd.species)
	}
	batch := make([]particles.Particles, n)
	for i := range batch {
		s := parts.Crossed(i, btd.boost.Dir, zOld, zNew)
		batch[i] = btd.boost.TransformParticles(s, tBoost, dt, tLab)
	}
	return batch
}

// Flush writes the buffers of every diagnostic to disk, even if they are
// only partially full.
func (btd *BackTransformedDiagnostic) Flush() error {
	for _, d := range btd.diags {
		if err := btd.flushDiag(d); err != nil {
			return err
		}
	}
	return nil
}

func (btd *BackTransformedDiagnostic) flushDiag(d *diag.Diag) error {
	info, err := d.Flush(btd.fs)
	if err != nil {
		return fmt.Errorf("Could not flush lab-frame %s %d: %w",
			d.Kind, d.FileNum, err)
	}
	if !info.Written {
		return nil
	}

	logging.Logf("Flushed %s: dump %d, %d slabs, %d particles.",
		d.FileName, info.FlushNum, info.NSlabs, info.NParticles)

	if btd.catalog != nil {
		f := catalog.Flush{
			Dir: d.FileName, FlushNum: info.FlushNum,
			FileName: info.FieldFile, NSlabs: info.NSlabs,
			NParticles: info.NParticles, TBoost: btd.tBoost,
		}
		if err := btd.catalog.RecordFlush(btd.runID, f); err != nil {
			return err
		}
	}
	return nil
}

func (btd *BackTransformedDiagnostic) metadata() *snapio.Metadata {
	md := &snapio.Metadata{
		RunID: btd.runID,
		Gamma: btd.boost.Gamma, Beta: btd.boost.Beta,
		BoostDirection: btd.boost.Dir,
		DzLab:          btd.dzLab,
		DtSnapshotsLab: btd.dtSnapshotsLab,
		DtSlicesLab:    btd.dtSlicesLab,
		FieldNames:     append([]string{}, btd.fieldNames...),
		Species:        append([]string{}, btd.species...),
		Diagnostics:    []snapio.DiagRecord{},
	}
	for _, d := range btd.diags {
		md.Diagnostics = append(md.Diagnostics, d.Record())
	}
	return md
}

// WriteMetaData writes the run Header and metadata.json, which describe the
// Lorentz parameters and list every diagnostic.
func (btd *BackTransformedDiagnostic) WriteMetaData() error {
	if err := btd.fs.MkdirAll(btd.root, 0755); err != nil {
		return fmt.Errorf("Could not create the output directory %s: %w",
			btd.root, err)
	}

	run := &snapio.RunHeader{
		NSnapshots: btd.nSnapshots, DtSnapshotsLab: btd.dtSnapshotsLab,
		Gamma: btd.boost.Gamma, Beta: btd.boost.Beta,
		NSlices: btd.nSlices, DtSlicesLab: btd.dtSlicesLab,
		ParticleSliceDx: btd.particleSliceWidthLab,
	}
	if err := snapio.WriteRunHeader(btd.fs, btd.root, run); err != nil {
		return err
	}
	if err := snapio.WriteMetadata(btd.fs, btd.root, btd.metadata()); err != nil {
		return err
	}

	logging.Logf("Wrote metadata for run %s to %s.", btd.runID, btd.root)
	return nil
}
