package diag

import (
	"encoding/binary"
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/phil-mansfield/labframe/lib/compress"
	"github.com/phil-mansfield/labframe/lib/geom"
	"github.com/phil-mansfield/labframe/lib/grid"
	"github.com/phil-mansfield/labframe/lib/particles"
	"github.com/phil-mansfield/labframe/lib/snapio"
)

// FlushInfo describes a single call to Flush.
type FlushInfo struct {
	// Written is false if the buffers were empty and nothing was written.
	Written    bool
	FlushNum   int
	FieldFile  string
	NSlabs     int
	NParticles int
}

// CreateLabFrameDirectories creates the diagnostic's output directories.
func (d *Diag) CreateLabFrameDirectories(fs billy.Filesystem) error {
	return snapio.CreateDirectories(fs, d.FileName, d.species)
}

// WriteLabFrameHeader writes the diagnostic's Header file.
func (d *Diag) WriteLabFrameHeader(fs billy.Filesystem) error {
	return snapio.WriteDiagHeader(fs, d.FileName, d.Header())
}

// Header returns the text header describing the diagnostic.
func (d *Diag) Header() *snapio.DiagHeader {
	return &snapio.DiagHeader{
		TLab:       d.TLab,
		NCells:     d.ProbNCellsLab,
		Domain:     d.ProbDomainLab,
		DiagDomain: d.DiagDomainLab,
		FieldNames: append([]string{}, d.FieldNames...),
	}
}

// Record returns the catalogue entry of the diagnostic.
func (d *Diag) Record() snapio.DiagRecord {
	return snapio.DiagRecord{
		Kind: d.Kind.String(), FileNum: d.FileNum, Dir: d.FileName,
		TLab: d.TLab, NCells: d.ProbNCellsLab,
		Lo: d.DiagDomainLab.Lo, Hi: d.DiagDomainLab.Hi,
	}
}

// Flush writes everything currently buffered to fs, even if the buffer is
// only partially full, then empties the buffers and resets the counter.
func (d *Diag) Flush(fs billy.Filesystem) (*FlushInfo, error) {
	info := &FlushInfo{FlushNum: d.flushNum, NSlabs: d.counter}
	for i := range d.particles {
		info.NParticles += d.particles[i].Len()
	}
	if info.NSlabs == 0 && info.NParticles == 0 {
		return info, nil
	}

	if d.counter > 0 {
		info.FieldFile = snapio.FieldDumpName(d.FileName, d.flushNum)
		if err := d.writeFields(fs, info.FieldFile); err != nil {
			return nil, err
		}
	}

	for i := range d.particles {
		if d.particles[i].Len() == 0 {
			continue
		}
		fname := snapio.ParticleDumpName(d.FileName, d.species[i], d.flushNum)
		if err := d.writeParticles(fs, fname, d.particles[i]); err != nil {
			return nil, err
		}
		d.particles[i].Reset()
	}

	d.counter = 0
	d.data = nil
	d.flushNum++
	info.Written = true
	return info, nil
}

// writeFields gathers the occupied buffer slots into a single box and writes
// one column per field.
func (d *Diag) writeFields(fs billy.Filesystem, fname string) error {
	box := d.BuffBox.WithRange(d.dir, 0, d.counter-1)
	ba := grid.NewBoxArray(box)
	out := grid.NewMultiFab(ba, grid.NewDistributionMapping(ba, 1), d.NComp)
	grid.ParallelCopy(out, d.data, geom.IntVect{}, 0, 0, d.NComp)

	hd := compress.FixedWidthHeader{
		Kind:     compress.FieldDump,
		FileNum:  int64(d.FileNum),
		FlushNum: int64(d.flushNum),
		N:        int64(box.NumPts()),
		Dir:      int64(d.dir),
		TLab:     d.TLab,
	}
	size := box.Size()
	for ax := 0; ax < 3; ax++ {
		hd.Origin[ax] = int64(d.BuffBox.Lo[ax])
		hd.Span[ax] = int64(size[ax])
	}

	wr := compress.NewWriter(fs, fname, hd,
		append([]int64{}, d.slabK[:d.counter]...), binary.LittleEndian)
	fab := out.Fab(0)
	for c, name := range d.FieldNames {
		if err := wr.AddField(name, fab.Comp(c)); err != nil {
			return err
		}
	}
	if err := wr.Flush(); err != nil {
		return fmt.Errorf("Could not flush %s: %w", d.FileName, err)
	}
	return nil
}

func (d *Diag) writeParticles(
	fs billy.Filesystem, fname string, p particles.Particles,
) error {
	hd := compress.FixedWidthHeader{
		Kind:     compress.ParticleDump,
		FileNum:  int64(d.FileNum),
		FlushNum: int64(d.flushNum),
		N:        int64(p.Len()),
		Dir:      int64(d.dir),
		TLab:     d.TLab,
	}
	wr := compress.NewWriter(fs, fname, hd, nil, binary.LittleEndian)
	for _, name := range particles.DiagnosticFields {
		if err := wr.AddField(name, p.Column(name)); err != nil {
			return err
		}
	}
	if err := wr.Flush(); err != nil {
		return fmt.Errorf("Could not flush %s: %w", d.FileName, err)
	}
	return nil
}
