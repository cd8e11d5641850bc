package lib

/* check.go contains the core functions of labframe's "check" mode. */

import (
	"fmt"
	"math"
	"runtime"

	"github.com/go-git/go-billy/v5/memfs"

	"github.com/phil-mansfield/labframe/lib/btd"
	"github.com/phil-mansfield/labframe/lib/lorentz"
	"github.com/phil-mansfield/labframe/lib/synth"
)

// Check runs the labframe "check" command on the provided Args and returns
// every problem it finds. The diagnostics are constructed on an in-memory
// filesystem, so nothing is written to disk. What the caller does with the
// errors depends on args.Strictness.
func Check(args *Args) []error {
	errs := []error{}

	if args.Steps <= 0 {
		errs = append(errs, fmt.Errorf("Run.Steps must be positive, but "+
			"was set to %d.", args.Steps))
	}
	if args.Threads != -1 && (args.Threads <= 0 || args.Threads > runtime.NumCPU()) {
		errs = append(errs, fmt.Errorf("Run.Threads = %d, but it must be -1 "+
			"or between 1 and %d.", args.Threads, runtime.NumCPU()))
	}

	g := args.Geometry
	if !g.Domain.Ok() || g.Domain.NumPts() == 0 {
		errs = append(errs, fmt.Errorf("Source.Cells = %v, but every axis "+
			"needs at least one cell.", g.Domain.Size()))
		return errs
	}
	for d := 0; d < 3; d++ {
		if !(g.ProbHi(d) > g.ProbLo(d)) {
			errs = append(errs, fmt.Errorf("Source.ProbLo = %v and "+
				"Source.ProbHi = %v, but ProbHi must be larger than ProbLo "+
				"on every axis.", g.Prob.Lo, g.Prob.Hi))
			return errs
		}
	}
	if math.IsNaN(args.Dt) || math.IsInf(args.Dt, 0) || args.Dt <= 0 {
		errs = append(errs, fmt.Errorf("The boosted-frame time step is %g, "+
			"but it must be positive.", args.Dt))
		return errs
	}

	src, err := synth.New(args.Source, g, 0)
	if err != nil {
		errs = append(errs, err)
		return errs
	}
	for _, b := range args.Source.Beams {
		for d := 0; d < 3; d++ {
			if b.Center[d] < g.ProbLo(d) || b.Center[d] > g.ProbHi(d) {
				errs = append(errs, fmt.Errorf("Beam '%s' is centered at %v, "+
					"which is outside the boosted-frame domain.",
					b.Name, b.Center))
				break
			}
		}
	}

	cfg := *args.Config
	cfg.Catalog = nil
	if _, err := btd.New(&cfg, g, 0, args.Dt, src.SpeciesNames(),
		memfs.New()); err != nil {
		errs = append(errs, err)
	}

	written := map[string]bool{}
	for _, name := range cfg.FieldNames {
		written[name] = true
	}
	for _, name := range args.Lineouts {
		if _, ok := lorentz.FieldIndex(name); !ok {
			errs = append(errs, fmt.Errorf("Output.Lineout contains the "+
				"unknown field '%s'.", name))
		} else if len(written) > 0 && !written[name] {
			errs = append(errs, fmt.Errorf("Output.Lineout contains '%s', "+
				"but that field is not in Output.Fields.", name))
		}
	}

	if len(cfg.SnapshotIndices)+len(cfg.SliceIndices)+
		cfg.NSnapshots+cfg.NSlices == 0 {
		errs = append(errs, fmt.Errorf("No snapshots or slices were "+
			"requested, so labframe would not write anything."))
	}

	return errs
}
