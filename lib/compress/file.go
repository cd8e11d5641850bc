package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const (
	// MagicNumber is an arbitrary number at the start of all dump files
	// which should help identify when the code is run on something else by
	// accident.
	MagicNumber = 0x1abf3a3e
	// ReverseMagicNumber is the magic number if read on a machine with
	// flipped endianness.
	ReverseMagicNumber = 0x3e3abf1a
	Version            = 1
)

// Kind says what a dump file contains.
type Kind int64

const (
	// FieldDump files hold lab-frame field slabs.
	FieldDump Kind = iota
	// ParticleDump files hold lab-frame particles of a single species.
	ParticleDump
)

// FixedWidthHeader is the part of a dump's header with a fixed binary size.
type FixedWidthHeader struct {
	Kind Kind
	// FileNum is the index of the diagnostic which wrote the dump and
	// FlushNum counts the flushes that diagnostic has done before this one.
	FileNum, FlushNum int64
	// N is the number of values in every column.
	N int64
	// Origin and Span give the lab-frame index box covered by a field dump:
	// the box starts at Origin and has Span cells along each axis. Along the
	// boost axis Span counts slabs, which are not contiguous, and the
	// lab-frame index of each slab is given by Header.Index. Zero for
	// particle dumps.
	Origin, Span [3]int64
	// Dir is the boost axis.
	Dir int64
	// TLab is the lab-frame time of the diagnostic.
	TLab float64
}

// Header is the full header of a dump file.
type Header struct {
	FixedWidthHeader
	// Names gives the names of all the columns stored in the file.
	Names []string
	// Index gives the lab-frame slab index of every slab in a field dump.
	Index []int64
}

// Writer handles writing a dump to disk. The pattern is that you create a
// single Writer with NewWriter, add columns with AddField, and finally call
// Flush when you want to write everything to disk.
type Writer struct {
	Header
	fs    billy.Filesystem
	fname string
	order binary.ByteOrder
	edges []int64
	data  *bytes.Buffer
	b     []byte
	buf   []byte
}

// NewWriter creates a Writer targeting the file fname in fs.
func NewWriter(
	fs billy.Filesystem, fname string,
	hd FixedWidthHeader, index []int64, order binary.ByteOrder,
) *Writer {
	return &Writer{
		Header: Header{hd, []string{}, index},
		fs:     fs, fname: fname, order: order,
		edges: []int64{0}, data: &bytes.Buffer{},
	}
}

// AddField compresses a new column into the Writer's in-RAM copy of the file.
func (wr *Writer) AddField(name string, x []float64) error {
	if int64(len(x)) != wr.N {
		return fmt.Errorf("File %s stores %d values per column, but was "+
			"given a new column, %s, with %d values.",
			wr.fname, wr.N, name, len(x))
	} else if findString(wr.Names, name) != -1 {
		return fmt.Errorf("The column '%s' was added to %s twice.",
			name, wr.fname)
	}

	var err error
	wr.b, wr.buf, err = WriteCompressedFloats(x, wr.b, wr.buf, wr.data)
	if err != nil {
		return err
	}

	wr.Names = append(wr.Names, name)
	wr.edges = append(wr.edges, int64(wr.data.Len()))
	return nil
}

// Flush writes the file to disk.
func (wr *Writer) Flush() error {
	f, err := wr.fs.Create(wr.fname)
	if err != nil {
		return fmt.Errorf("Could not create %s: %w", wr.fname, err)
	}

	werr := wr.write(f)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("Could not write %s: %w", wr.fname, werr)
	} else if cerr != nil {
		return fmt.Errorf("Could not close %s: %w", wr.fname, cerr)
	}
	return nil
}

func (wr *Writer) write(f io.Writer) error {
	if err := binary.Write(f, wr.order, uint32(MagicNumber)); err != nil {
		return err
	}
	if err := binary.Write(f, wr.order, uint32(Version)); err != nil {
		return err
	}
	if err := wr.Header.write(f, wr.order); err != nil {
		return err
	}

	// Navigation information.
	if err := binary.Write(f, wr.order, wr.edges); err != nil {
		return err
	}
	_, err := f.Write(wr.data.Bytes())
	return err
}

func (hd *Header) write(f io.Writer, order binary.ByteOrder) error {
	if err := binary.Write(f, order, &hd.FixedWidthHeader); err != nil {
		return err
	}

	nFields := uint32(len(hd.Names))
	if err := binary.Write(f, order, nFields); err != nil {
		return err
	}
	nNames := make([]uint32, nFields)
	for i := range nNames {
		nNames[i] = uint32(len(hd.Names[i]))
	}
	if err := binary.Write(f, order, nNames); err != nil {
		return err
	}
	for i := range hd.Names {
		if _, err := f.Write([]byte(hd.Names[i])); err != nil {
			return err
		}
	}

	nIndex := uint32(len(hd.Index))
	if err := binary.Write(f, order, nIndex); err != nil {
		return err
	}
	return binary.Write(f, order, hd.Index)
}

func (hd *Header) read(f io.Reader, order binary.ByteOrder) error {
	if err := binary.Read(f, order, &hd.FixedWidthHeader); err != nil {
		return err
	}

	var nFields uint32
	if err := binary.Read(f, order, &nFields); err != nil {
		return err
	}
	nNames := make([]uint32, nFields)
	if err := binary.Read(f, order, nNames); err != nil {
		return err
	}
	hd.Names = make([]string, nFields)
	for i := range nNames {
		b := make([]byte, nNames[i])
		if _, err := io.ReadFull(f, b); err != nil {
			return err
		}
		hd.Names[i] = string(b)
	}

	var nIndex uint32
	if err := binary.Read(f, order, &nIndex); err != nil {
		return err
	}
	hd.Index = make([]int64, nIndex)
	return binary.Read(f, order, hd.Index)
}

// Reader handles reading columns back out of a dump file. The whole file is
// read into memory when the Reader is created.
type Reader struct {
	Header
	fname string
	order binary.ByteOrder
	edges []int64
	data  []byte
	b     []byte
	buf   []byte
}

// NewReader reads the dump file fname from fs.
func NewReader(fs billy.Filesystem, fname string) (*Reader, error) {
	raw, err := util.ReadFile(fs, fname)
	if err != nil {
		return nil, fmt.Errorf("Could not read %s: %w", fname, err)
	}
	f := bytes.NewReader(raw)

	order, err := checkFile(fname, f)
	if err != nil {
		return nil, err
	}

	rd := &Reader{fname: fname, order: order}
	if err := rd.Header.read(f, order); err != nil {
		return nil, fmt.Errorf("Could not read the header of %s: %w",
			fname, err)
	}

	rd.edges = make([]int64, len(rd.Names)+1)
	if err := binary.Read(f, order, rd.edges); err != nil {
		return nil, fmt.Errorf("Could not read the column offsets of %s: %w",
			fname, err)
	}

	rd.data = raw[len(raw)-f.Len():]
	if n := rd.edges[len(rd.edges)-1]; n != int64(len(rd.data)) {
		return nil, fmt.Errorf("%s should contain %d bytes of column data, "+
			"but contains %d. The file was probably truncated.",
			fname, n, len(rd.data))
	}
	return rd, nil
}

// ReadField decompresses the named column.
func (rd *Reader) ReadField(name string) ([]float64, error) {
	i := findString(rd.Names, name)
	if i == -1 {
		return nil, fmt.Errorf("The column '%s' is not in the file %s. It "+
			"only contains the columns %s.", name, rd.fname, rd.Names)
	}

	x := make([]float64, rd.N)
	block := bytes.NewReader(rd.data[rd.edges[i]:rd.edges[i+1]])
	var err error
	rd.b, rd.buf, err = ReadCompressedFloats(block, rd.b, rd.buf, x)
	if err != nil {
		return nil, fmt.Errorf("Could not decompress column '%s' of %s: %w",
			name, rd.fname, err)
	}
	return x, nil
}

// findString returns the index of the first instance of target in x and -1 if
// target isn't in x.
func findString(x []string, target string) int {
	for i := range x {
		if x[i] == target {
			return i
		}
	}
	return -1
}

// checkFile reads in the file's magic number and version number and makes
// sure that labframe can actually read it. If it can, the byte order is
// returned. Otherwise an error is returned.
func checkFile(fname string, f io.Reader) (binary.ByteOrder, error) {
	var magicNumber, version uint32

	order := binary.ByteOrder(binary.LittleEndian)
	if err := binary.Read(f, order, &magicNumber); err != nil {
		return nil, fmt.Errorf("Could not read %s: %w", fname, err)
	}

	switch magicNumber {
	case MagicNumber:
	case ReverseMagicNumber:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%s is not a labframe dump. All dumps begin "+
			"with either the 32-bit integer %x or %x. This file begins with "+
			"%x.", fname, MagicNumber, ReverseMagicNumber, magicNumber)
	}

	if err := binary.Read(f, order, &version); err != nil {
		return nil, fmt.Errorf("Could not read %s: %w", fname, err)
	}
	if version > Version {
		return nil, fmt.Errorf("The file %s was created with dump version "+
			"%d, but you are trying to read it with version %d.",
			fname, version, Version)
	}

	return order, nil
}

// Exists returns true if fname exists in fs.
func Exists(fs billy.Filesystem, fname string) (bool, error) {
	_, err := fs.Stat(fname)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("Could not stat %s: %w", fname, err)
	}
}
