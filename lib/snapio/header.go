package snapio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/phil-mansfield/labframe/lib/geom"
)

// DiagHeader is the text header written once into every diagnostic
// directory. It describes the lab-frame grid the dumps are laid out on.
type DiagHeader struct {
	TLab   float64
	NCells geom.IntVect
	// Domain is the full lab-frame domain at TLab. DiagDomain is the
	// (possibly reduced) region the diagnostic actually records.
	Domain, DiagDomain geom.RealBox
	FieldNames         []string
}

// RunHeader is the text header written into the output root.
type RunHeader struct {
	NSnapshots      int
	DtSnapshotsLab  float64
	Gamma, Beta     float64
	NSlices         int
	DtSlicesLab     float64
	ParticleSliceDx float64
}

// WriteDiagHeader writes the Header file of the diagnostic in dir.
func WriteDiagHeader(fs billy.Filesystem, dir string, hd *DiagHeader) error {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "%.17g\n", hd.TLab)
	fmt.Fprintf(buf, "%d %d %d\n", hd.NCells[0], hd.NCells[1], hd.NCells[2])
	writeVec(buf, hd.Domain.Lo)
	writeVec(buf, hd.Domain.Hi)
	writeVec(buf, hd.DiagDomain.Lo)
	writeVec(buf, hd.DiagDomain.Hi)
	fmt.Fprintf(buf, "%d\n", len(hd.FieldNames))
	for _, name := range hd.FieldNames {
		fmt.Fprintln(buf, name)
	}

	fname := path.Join(dir, "Header")
	if err := util.WriteFile(fs, fname, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("Could not write header %s: %w", fname, err)
	}
	return nil
}

// ReadDiagHeader reads the Header file of the diagnostic in dir.
func ReadDiagHeader(fs billy.Filesystem, dir string) (*DiagHeader, error) {
	fname := path.Join(dir, "Header")
	b, err := util.ReadFile(fs, fname)
	if err != nil {
		return nil, fmt.Errorf("Could not read header %s: %w", fname, err)
	}

	hd := &DiagHeader{}
	rd := bytes.NewReader(b)
	_, err = fmt.Fscan(rd, &hd.TLab,
		&hd.NCells[0], &hd.NCells[1], &hd.NCells[2],
		&hd.Domain.Lo[0], &hd.Domain.Lo[1], &hd.Domain.Lo[2],
		&hd.Domain.Hi[0], &hd.Domain.Hi[1], &hd.Domain.Hi[2],
		&hd.DiagDomain.Lo[0], &hd.DiagDomain.Lo[1], &hd.DiagDomain.Lo[2],
		&hd.DiagDomain.Hi[0], &hd.DiagDomain.Hi[1], &hd.DiagDomain.Hi[2],
	)
	if err != nil {
		return nil, fmt.Errorf("Header %s is malformed: %w", fname, err)
	}

	nComp := 0
	if _, err = fmt.Fscan(rd, &nComp); err != nil || nComp < 0 {
		return nil, fmt.Errorf("Header %s has a malformed field count.", fname)
	}
	hd.FieldNames = make([]string, nComp)
	for i := range hd.FieldNames {
		if _, err = fmt.Fscan(rd, &hd.FieldNames[i]); err != nil {
			return nil, fmt.Errorf("Header %s lists %d fields, but only "+
				"%d could be read.", fname, nComp, i)
		}
	}

	return hd, nil
}

// WriteRunHeader writes the Header file in the output root.
func WriteRunHeader(fs billy.Filesystem, root string, hd *RunHeader) error {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "%d\n%.17g\n%.17g\n%.17g\n",
		hd.NSnapshots, hd.DtSnapshotsLab, hd.Gamma, hd.Beta)
	fmt.Fprintf(buf, "%d\n%.17g\n%.17g\n",
		hd.NSlices, hd.DtSlicesLab, hd.ParticleSliceDx)

	fname := path.Join(root, "Header")
	if err := util.WriteFile(fs, fname, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("Could not write header %s: %w", fname, err)
	}
	return nil
}

// ReadRunHeader reads the Header file in the output root.
func ReadRunHeader(fs billy.Filesystem, root string) (*RunHeader, error) {
	fname := path.Join(root, "Header")
	b, err := util.ReadFile(fs, fname)
	if err != nil {
		return nil, fmt.Errorf("Could not read header %s: %w", fname, err)
	}

	hd := &RunHeader{}
	_, err = fmt.Fscan(bytes.NewReader(b), &hd.NSnapshots, &hd.DtSnapshotsLab,
		&hd.Gamma, &hd.Beta, &hd.NSlices, &hd.DtSlicesLab, &hd.ParticleSliceDx)
	if err != nil {
		return nil, fmt.Errorf("Header %s is malformed: %w", fname, err)
	}
	return hd, nil
}

func writeVec(buf *bytes.Buffer, x [3]float64) {
	fmt.Fprintf(buf, "%.17g %.17g %.17g\n", x[0], x[1], x[2])
}

// Metadata is the machine-readable summary of a run written to
// metadata.json in the output root.
type Metadata struct {
	RunID          string       `json:"run_id"`
	Gamma          float64      `json:"gamma"`
	Beta           float64      `json:"beta"`
	BoostDirection int          `json:"boost_direction"`
	DzLab          float64      `json:"dz_lab"`
	DtSnapshotsLab float64      `json:"dt_snapshots_lab"`
	DtSlicesLab    float64      `json:"dt_slices_lab"`
	FieldNames     []string     `json:"field_names"`
	Species        []string     `json:"species"`
	Diagnostics    []DiagRecord `json:"diagnostics"`
}

// DiagRecord is the catalogue entry of a single diagnostic.
type DiagRecord struct {
	Kind    string       `json:"kind"`
	FileNum int          `json:"file_num"`
	Dir     string       `json:"dir"`
	TLab    float64      `json:"t_lab"`
	NCells  geom.IntVect `json:"n_cells"`
	Lo      [3]float64   `json:"lo"`
	Hi      [3]float64   `json:"hi"`
}

// WriteMetadata writes metadata.json into the output root.
func WriteMetadata(fs billy.Filesystem, root string, md *Metadata) error {
	b, err := json.MarshalIndent(md, "", "    ")
	if err != nil {
		return fmt.Errorf("Could not encode run metadata: %w", err)
	}

	fname := path.Join(root, "metadata.json")
	if err := util.WriteFile(fs, fname, append(b, '\n'), 0644); err != nil {
		return fmt.Errorf("Could not write %s: %w", fname, err)
	}
	return nil
}

// ReadMetadata reads metadata.json from the output root.
func ReadMetadata(fs billy.Filesystem, root string) (*Metadata, error) {
	fname := path.Join(root, "metadata.json")
	b, err := util.ReadFile(fs, fname)
	if err != nil {
		return nil, fmt.Errorf("Could not read %s: %w", fname, err)
	}

	md := &Metadata{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(md); err != nil {
		return nil, fmt.Errorf("%s is not a valid metadata file: %w",
			fname, err)
	}
	if strings.TrimSpace(md.RunID) == "" {
		return nil, fmt.Errorf("%s does not contain a run ID.", fname)
	}
	return md, nil
}
