/*package lineout reduces a lab-frame diagnostic to a one-dimensional profile
of a single field along the boost axis and plots it. Each point of a
lineout is the transverse average of one lab-frame slab.
*/
package lineout

import (
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/phil-mansfield/labframe/lib/compress"
	"github.com/phil-mansfield/labframe/lib/snapio"
)

// Lineout is the transverse average of a field at every slab a diagnostic
// has written, in increasing order of Z.
type Lineout struct {
	Field string
	TLab  float64
	// K is the lab-frame slab index, Z is the lab-frame position of the
	// slab's center, and Mean is the average of the field over the slab.
	K    []int64
	Z    []float64
	Mean []float64
}

// Read computes the lineout of field from the dumps of the diagnostic in
// dir.
func Read(fs billy.Filesystem, dir, field string) (*Lineout, error) {
	hd, err := snapio.ReadDiagHeader(fs, dir)
	if err != nil {
		return nil, err
	}
	dumps, err := snapio.FieldDumps(fs, dir)
	if err != nil {
		return nil, err
	}

	sum, count := map[int64]float64{}, map[int64]int{}
	axis := -1
	for _, fname := range dumps {
		rd, err := compress.NewReader(fs, fname)
		if err != nil {
			return nil, err
		}
		x, err := rd.ReadField(field)
		if err != nil {
			return nil, err
		}
		axis = int(rd.Dir)

		span := rd.Span
		for i := range x {
			iv := [3]int64{
				int64(i) % span[0],
				(int64(i) / span[0]) % span[1],
				int64(i) / (span[0] * span[1]),
			}
			k := rd.Index[iv[axis]]
			sum[k] += x[i]
			count[k]++
		}
	}

	l := &Lineout{Field: field, TLab: hd.TLab}
	for k := range sum {
		l.K = append(l.K, k)
	}
	sort.Slice(l.K, func(i, j int) bool { return l.K[i] < l.K[j] })
	if len(l.K) == 0 {
		return l, nil
	}

	lo := hd.Domain.Lo[axis]
	dz := hd.Domain.Length(axis) / float64(hd.NCells[axis])
	for _, k := range l.K {
		l.Z = append(l.Z, lo+(float64(k)+0.5)*dz)
		l.Mean = append(l.Mean, sum[k]/float64(count[k]))
	}
	return l, nil
}

// Plot draws the lineout and writes it to w as a PNG.
func (l *Lineout) Plot(w io.Writer) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s at t_lab = %.4g s", l.Field, l.TLab)
	p.X.Label.Text = "z_lab (m)"
	p.Y.Label.Text = fmt.Sprintf("<%s>", l.Field)
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(l.Z))
	for i := range l.Z {
		pts[i] = plotter.XY{X: l.Z[i], Y: l.Mean[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("Could not plot the %s lineout: %w", l.Field, err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("Could not render the %s lineout: %w", l.Field, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// WritePNG plots the lineout of field into dir/lineout_<field>.png and
// returns the file name. Diagnostics with no slabs are skipped and return
// an empty name.
func WritePNG(fs billy.Filesystem, dir, field string) (string, error) {
	l, err := Read(fs, dir, field)
	if err != nil {
		return "", err
	}
	if len(l.Z) == 0 {
		return "", nil
	}

	fname := path.Join(dir, fmt.Sprintf("lineout_%s.png", field))
	f, err := fs.Create(fname)
	if err != nil {
		return "", fmt.Errorf("Could not create %s: %w", fname, err)
	}
	if err := l.Plot(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("Could not close %s: %w", fname, err)
	}
	return fname, nil
}
