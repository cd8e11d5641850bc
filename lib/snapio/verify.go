package snapio

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-git/go-billy/v5"

	"github.com/phil-mansfield/labframe/lib/compress"
)

// DiagReport summarizes the dumps of a single diagnostic.
type DiagReport struct {
	Record DiagRecord
	// NDumps is the number of field dumps and NSlabs is the number of
	// distinct lab-frame slabs they contain.
	NDumps, NSlabs int
	// Missing lists the lab-frame slabs along the boost direction that no
	// dump contains.
	Missing    []int64
	NParticles map[string]int
}

// Report summarizes an entire output directory.
type Report struct {
	Metadata *Metadata
	Run      *RunHeader
	Diags    []DiagReport
}

// Verify reads back every dump under root and checks that it is consistent
// with the headers that describe it. An error is returned if any file is
// unreadable, if a slab is written twice, or if a slab lies outside the grid
// its header describes. Slabs that were never written are not an error, since
// a run may end before the boosted domain sweeps past them.
func Verify(fs billy.Filesystem, root string) (*Report, error) {
	md, err := ReadMetadata(fs, root)
	if err != nil {
		return nil, err
	}
	run, err := ReadRunHeader(fs, root)
	if err != nil {
		return nil, err
	}

	rep := &Report{Metadata: md, Run: run}
	for _, rec := range md.Diagnostics {
		dr, err := verifyDiag(fs, md, rec)
		if err != nil {
			return nil, err
		}
		rep.Diags = append(rep.Diags, *dr)
	}
	return rep, nil
}

func verifyDiag(
	fs billy.Filesystem, md *Metadata, rec DiagRecord,
) (*DiagReport, error) {
	hd, err := ReadDiagHeader(fs, rec.Dir)
	if err != nil {
		return nil, err
	}
	if hd.TLab != rec.TLab || hd.NCells != rec.NCells {
		return nil, fmt.Errorf("The header in %s describes a grid with "+
			"t_lab = %g and %v cells, but metadata.json says t_lab = %g and "+
			"%v cells.", rec.Dir, hd.TLab, hd.NCells, rec.TLab, rec.NCells)
	}

	dir := md.BoostDirection
	nz := int64(hd.NCells[dir])
	dr := &DiagReport{Record: rec, NParticles: map[string]int{}}
	seen := map[int64]bool{}

	dumps, err := FieldDumps(fs, rec.Dir)
	if err != nil {
		return nil, err
	}
	for _, fname := range dumps {
		rd, err := compress.NewReader(fs, fname)
		if err != nil {
			return nil, err
		}
		if rd.Kind != compress.FieldDump {
			return nil, fmt.Errorf("%s is in a field directory, but is not "+
				"a field dump.", fname)
		}

		for _, k := range rd.Index {
			if k < 0 || k >= nz {
				return nil, fmt.Errorf("%s contains slab %d, but the "+
					"diagnostic only has %d slabs.", fname, k, nz)
			} else if seen[k] {
				return nil, fmt.Errorf("Slab %d of %s was written more "+
					"than once.", k, rec.Dir)
			}
			seen[k] = true
		}

		for _, name := range hd.FieldNames {
			x, err := rd.ReadField(name)
			if err != nil {
				return nil, err
			}
			if i := firstNaN(x); i != -1 {
				return nil, fmt.Errorf("Column '%s' of %s contains a NaN "+
					"at element %d.", name, fname, i)
			}
		}
		dr.NDumps++
	}

	dr.NSlabs = len(seen)
	for k := int64(0); k < nz; k++ {
		if !seen[k] {
			dr.Missing = append(dr.Missing, k)
		}
	}

	species, err := Species(fs, rec.Dir)
	if err != nil {
		return nil, err
	}
	for _, s := range species {
		pdumps, err := ParticleDumps(fs, rec.Dir, s)
		if err != nil {
			return nil, err
		}
		for _, fname := range pdumps {
			rd, err := compress.NewReader(fs, fname)
			if err != nil {
				return nil, err
			}
			dr.NParticles[s] += int(rd.N)
		}
	}

	return dr, nil
}

func firstNaN(x []float64) int {
	for i := range x {
		if math.IsNaN(x[i]) {
			return i
		}
	}
	return -1
}

// SortedSlabs returns every slab index stored in the field dumps of the
// diagnostic in dir, in increasing order.
func SortedSlabs(fs billy.Filesystem, dir string) ([]int64, error) {
	dumps, err := FieldDumps(fs, dir)
	if err != nil {
		return nil, err
	}
	out := []int64{}
	for _, fname := range dumps {
		rd, err := compress.NewReader(fs, fname)
		if err != nil {
			return nil, err
		}
		out = append(out, rd.Index...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
