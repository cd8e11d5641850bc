package btd

import (
	"errors"
	"fmt"
	"math"

	"github.com/phil-mansfield/labframe/lib/catalog"
	"github.com/phil-mansfield/labframe/lib/geom"
	"github.com/phil-mansfield/labframe/lib/lorentz"
	"github.com/phil-mansfield/labframe/lib/snapio"
)

// ErrConfig is wrapped by every error New returns because of an invalid
// Config.
var ErrConfig = errors.New("invalid back-transformed diagnostic configuration")

// Config describes the lab-frame diagnostics requested for a run.
type Config struct {
	// ZMinLab and ZMaxLab bound the lab-frame domain along the boost axis at
	// t_lab = 0. The domain moves at VWindowLab.
	ZMinLab, ZMaxLab float64
	VWindowLab       float64

	GammaBoost     float64
	BoostDirection int

	// Snapshot i is taken at t_lab = i*DtSnapshotsLab and slice i at
	// t_lab = i*DtSlicesLab.
	NSnapshots     int
	DtSnapshotsLab float64
	NSlices        int
	DtSlicesLab    float64
	// SnapshotIndices and SliceIndices, if non-nil, replace the default
	// indices [0, NSnapshots) and [0, NSlices).
	SnapshotIndices, SliceIndices []int

	// SliceDomain is the sub-domain recorded by slices at t_lab = 0. Zero
	// width axes are allowed. Particles within ParticleSliceWidthLab of it
	// along the transverse axes are recorded.
	SliceDomain           geom.RealBox
	ParticleSliceWidthLab float64

	NumBuffer, MaxBoxSize, Ranks int

	// FieldNames selects the fields to write. Empty means every field.
	FieldNames  []string
	DoParticles bool

	// Root is the output directory. RunID identifies the run in
	// metadata.json; a random UUID is used if it is empty.
	Root  string
	RunID string
	// Catalog, if non-nil, is updated with every diagnostic and flush.
	Catalog *catalog.Catalog
}

// DefaultConfig returns a Config with the default buffer sizes and output
// location and no diagnostics.
func DefaultConfig() *Config {
	return &Config{
		NumBuffer:      256,
		MaxBoxSize:     256,
		Ranks:          1,
		DoParticles:    true,
		BoostDirection: 2,
		Root:           snapio.DefaultRoot,
	}
}

func configErr(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, a...))
}

func badFloat(x float64) bool { return math.IsNaN(x) || math.IsInf(x, 0) }

// validate checks everything about cfg that can be checked without knowing
// the lab-frame cell size.
func (cfg *Config) validate(g geom.Geometry) error {
	if badFloat(cfg.ZMinLab) || badFloat(cfg.ZMaxLab) || cfg.ZMaxLab <= cfg.ZMinLab {
		return configErr("The lab-frame domain must have ZMinLab < ZMaxLab, "+
			"but ZMinLab = %g and ZMaxLab = %g.", cfg.ZMinLab, cfg.ZMaxLab)
	} else if badFloat(cfg.VWindowLab) {
		return configErr("VWindowLab = %g is not a finite number.",
			cfg.VWindowLab)
	} else if cfg.NSnapshots < 0 || cfg.NSlices < 0 {
		return configErr("NSnapshots = %d and NSlices = %d may not be "+
			"negative.", cfg.NSnapshots, cfg.NSlices)
	} else if len(cfg.snapshotIndices()) > 1 && !(cfg.DtSnapshotsLab > 0) {
		return configErr("DtSnapshotsLab must be positive when more than "+
			"one snapshot is requested, but it was set to %g.",
			cfg.DtSnapshotsLab)
	} else if len(cfg.sliceIndices()) > 1 && !(cfg.DtSlicesLab > 0) {
		return configErr("DtSlicesLab must be positive when more than one "+
			"slice is requested, but it was set to %g.", cfg.DtSlicesLab)
	} else if cfg.NumBuffer <= 0 || cfg.MaxBoxSize <= 0 || cfg.Ranks <= 0 {
		return configErr("NumBuffer, MaxBoxSize, and Ranks must be positive, "+
			"but were set to %d, %d, and %d.",
			cfg.NumBuffer, cfg.MaxBoxSize, cfg.Ranks)
	} else if !g.Domain.Ok() || !g.Prob.Ok() {
		return configErr("The boosted-frame geometry with domain %s is empty.",
			g.Domain)
	}

	for _, idx := range [][]int{cfg.SnapshotIndices, cfg.SliceIndices} {
		seen := map[int]bool{}
		for _, i := range idx {
			if i < 0 || seen[i] {
				return configErr("The diagnostic indices %v must be "+
					"distinct and non-negative.", idx)
			}
			seen[i] = true
		}
	}

	if len(cfg.sliceIndices()) == 0 {
		return nil
	}

	dir := cfg.BoostDirection
	lab := g.Prob.WithRange(dir, cfg.ZMinLab, cfg.ZMaxLab)
	if !cfg.SliceDomain.Ok() {
		return configErr("The slice domain %v - %v is not a valid box.",
			cfg.SliceDomain.Lo, cfg.SliceDomain.Hi)
	} else if !lab.ContainsBox(cfg.SliceDomain) {
		return configErr("The slice domain %v - %v is not inside the "+
			"lab-frame domain %v - %v.", cfg.SliceDomain.Lo,
			cfg.SliceDomain.Hi, lab.Lo, lab.Hi)
	} else if badFloat(cfg.ParticleSliceWidthLab) || cfg.ParticleSliceWidthLab < 0 {
		return configErr("ParticleSliceWidthLab must be non-negative, but "+
			"was set to %g.", cfg.ParticleSliceWidthLab)
	}
	return nil
}

// labGeometry returns the lab-frame domain and cell count at t_lab = 0.
func (cfg *Config) labGeometry(
	g geom.Geometry, dzLab float64,
) (geom.RealBox, geom.IntVect, error) {
	dir := cfg.BoostDirection
	nz := int(math.Floor((cfg.ZMaxLab-cfg.ZMinLab)/dzLab + 1e-8))
	if nz < 1 {
		return geom.RealBox{}, geom.IntVect{}, configErr("The lab-frame "+
			"domain [%g, %g] is smaller than a single lab-frame cell, %g.",
			cfg.ZMinLab, cfg.ZMaxLab, dzLab)
	}

	prob := g.Prob.WithRange(dir, cfg.ZMinLab, cfg.ZMaxLab)
	ncells := g.Domain.Size()
	ncells[dir] = nz
	return prob, ncells, nil
}

// sliceBox converts the slice domain into lab-frame cell indices: every cell
// the domain overlaps, or the single containing cell along zero-width axes.
func (cfg *Config) sliceBox(
	g geom.Geometry, ncells geom.IntVect, dzLab float64,
) geom.Box {
	box := geom.Box{}
	for d := 0; d < 3; d++ {
		lo0, dx := g.ProbLo(d), g.CellSize(d)
		if d == cfg.BoostDirection {
			lo0, dx = cfg.ZMinLab, dzLab
		}

		lo := (cfg.SliceDomain.Lo[d] - lo0) / dx
		hi := (cfg.SliceDomain.Hi[d] - lo0) / dx
		box.Lo[d] = clamp(int(math.Floor(lo+1e-8)), 0, ncells[d]-1)
		if cfg.SliceDomain.Hi[d] > cfg.SliceDomain.Lo[d] {
			box.Hi[d] = clamp(int(math.Ceil(hi-1e-8))-1, box.Lo[d], ncells[d]-1)
		} else {
			box.Hi[d] = box.Lo[d]
		}
	}
	return box
}

func (cfg *Config) snapshotIndices() []int {
	return indices(cfg.SnapshotIndices, cfg.NSnapshots)
}

func (cfg *Config) sliceIndices() []int {
	return indices(cfg.SliceIndices, cfg.NSlices)
}

func indices(idx []int, n int) []int {
	if idx != nil {
		return idx
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	} else if x > hi {
		return hi
	}
	return x
}

// fieldMap resolves cfg.FieldNames.
func (cfg *Config) fieldMap() ([]int, []string, error) {
	fieldMap, err := lorentz.FieldMap(cfg.FieldNames)
	if err != nil {
		return nil, nil, configErr("%s", err.Error())
	}
	names := make([]string, len(fieldMap))
	for i, c := range fieldMap {
		names[i] = lorentz.FieldNames[c]
	}
	return fieldMap, names, nil
}
