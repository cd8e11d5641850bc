/*package lib contains the functions behind labframe's command line modes:
config parsing, checking, the synthetic run driver, and output confirmation.
Almost all of the heavy lifting is done by lib/'s subpackages.
*/
package lib

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/phil-mansfield/labframe/lib/btd"
	"github.com/phil-mansfield/labframe/lib/catalog"
	"github.com/phil-mansfield/labframe/lib/format"
	"github.com/phil-mansfield/labframe/lib/lineout"
	"github.com/phil-mansfield/labframe/lib/logging"
	"github.com/phil-mansfield/labframe/lib/snapio"
	"github.com/phil-mansfield/labframe/lib/synth"
)

var (
	// Version is the version of the software. This can potentially be used
	// to differentiate between breaking changes to the output format.
	Version uint64 = 0x1
)

// outputFS returns a filesystem rooted at the parent of root along with the
// name of root inside it.
func outputFS(root string) (billy.Filesystem, string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, "", fmt.Errorf("Could not resolve the output "+
			"directory %s: %w", root, err)
	}
	return osfs.New(filepath.Dir(abs)), filepath.Base(abs), nil
}

// Run runs labframe's "run" mode: it drives the synthetic boosted-frame
// source for args.Steps steps, writes the lab-frame diagnostics, flushes
// them, and writes the run metadata.
func Run(args *Args) error {
	if err := SetThreads(args.Threads); err != nil {
		return err
	}

	fs, root, err := outputFS(args.Config.Root)
	if err != nil {
		return err
	}
	cfg := *args.Config
	cfg.Root = root

	if args.CatalogPath != "" {
		cat, err := catalog.Open(args.CatalogPath)
		if err != nil {
			return err
		}
		defer cat.Close()
		cfg.Catalog = cat
	}

	src, err := synth.New(args.Source, args.Geometry, 0)
	if err != nil {
		return err
	}
	diags, err := btd.New(&cfg, args.Geometry, src.Time(), args.Dt,
		src.SpeciesNames(), fs)
	if err != nil {
		return err
	}

	return drive(diags, src, args.Steps, args.Dt)
}

// drive steps src n times, feeding every step to diags, and then flushes
// everything.
func drive(diags *btd.BackTransformedDiagnostic, src *synth.Source, n int, dt float64) error {
	g := src.Geometry()
	for i := 0; i < n; i++ {
		src.Step(dt)
		err := diags.WriteLabFrameData(src.Fields(), src.Particles(), g,
			src.Time(), dt)
		if err != nil {
			return fmt.Errorf("Step %d of %d failed: %w", i+1, n, err)
		}
		if (i+1)%100 == 0 {
			logging.Logf("Finished step %d of %d, t_boost = %g.",
				i+1, n, src.Time())
		}
	}

	if err := diags.Flush(); err != nil {
		return err
	}
	return diags.WriteMetaData()
}

// Confirm runs labframe's "confirm" mode: it reads back everything under
// args.Config.Root and checks it against the run metadata and, if one is
// configured, the catalog. A summary is written to w, and a lineout of every
// field in args.Lineouts is plotted into each diagnostic's directory.
func Confirm(args *Args, w io.Writer) (*snapio.Report, error) {
	fs, root, err := outputFS(args.Config.Root)
	if err != nil {
		return nil, err
	}
	rep, err := snapio.Verify(fs, root)
	if err != nil {
		return nil, err
	}

	var cat *catalog.Catalog
	if args.CatalogPath != "" {
		if cat, err = catalog.Open(args.CatalogPath); err != nil {
			return nil, err
		}
		defer cat.Close()
	}

	fmt.Fprintf(w, "Run %s: gamma = %g, beta = %g, %d snapshots, "+
		"%d slices.\n", rep.Metadata.RunID, rep.Run.Gamma, rep.Run.Beta,
		rep.Run.NSnapshots, rep.Run.NSlices)
	for _, dr := range rep.Diags {
		if err := confirmDiag(w, cat, rep.Metadata.RunID, root, dr); err != nil {
			return nil, err
		}
		for _, field := range args.Lineouts {
			fname, err := lineout.WritePNG(fs, dr.Record.Dir, field)
			if err != nil {
				return nil, err
			} else if fname != "" {
				fmt.Fprintf(w, "    plotted %s\n", fname)
			}
		}
	}
	return rep, nil
}

func confirmDiag(
	w io.Writer, cat *catalog.Catalog, runID, root string, dr snapio.DiagReport,
) error {
	rec := dr.Record
	rel, err := filepath.Rel(root, rec.Dir)
	if err != nil {
		rel = rec.Dir
	}
	fmt.Fprintf(w, "  %s: t_lab = %g, %d dumps, %d slabs", rel, rec.TLab,
		dr.NDumps, dr.NSlabs)
	if len(dr.Missing) > 0 {
		missing := make([]int, len(dr.Missing))
		for i := range missing {
			missing[i] = int(dr.Missing[i])
		}
		fmt.Fprintf(w, ", missing %s", format.FormatSequence(missing))
	}
	for _, s := range sortedKeys(dr.NParticles) {
		fmt.Fprintf(w, ", %d %s", dr.NParticles[s], s)
	}
	fmt.Fprintln(w)

	if cat == nil {
		return nil
	}
	flushes, err := cat.Flushes(runID, rec.Dir)
	if err != nil {
		return err
	}
	nDumps := 0
	for _, f := range flushes {
		if f.FileName != "" {
			nDumps++
		}
	}
	if nDumps != dr.NDumps {
		return fmt.Errorf("The catalog lists %d field dumps for %s, but %d "+
			"were found on disk.", nDumps, rec.Dir, dr.NDumps)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
