package compress

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
)

func TestHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	hd1 := &Header{
		FixedWidthHeader{FieldDump, 3, 2, 48, [3]int64{0, 4, 0},
			[3]int64{4, 3, 4}, 2, 1.5e-12},
		[]string{"Ex", "By", "", "rho"},
		[]int64{12, 11, 10, 9},
	}

	if err := hd1.write(buf, binary.LittleEndian); err != nil {
		t.Fatalf("Expected header write to succeed, got '%s'.", err.Error())
	}
	hd2 := &Header{}
	if err := hd2.read(buf, binary.LittleEndian); err != nil {
		t.Fatalf("Expected header read to succeed, got '%s'.", err.Error())
	}

	if diff := cmp.Diff(hd1, hd2); diff != "" {
		t.Errorf("Read header differs from written header (-want +got):\n%s",
			diff)
	}
}

func TestCompressedFloats(t *testing.T) {
	tests := [][]float64{
		{},
		{0},
		{1, -1, math.Inf(1), math.SmallestNonzeroFloat64, math.MaxFloat64},
		make([]float64, 1000),
	}
	for i := range tests[3] {
		tests[3][i] = rand.NormFloat64() * 1e9
	}

	var b, buf []byte
	for i, x := range tests {
		wr := &bytes.Buffer{}
		var err error
		b, buf, err = WriteCompressedFloats(x, b, buf, wr)
		if err != nil {
			t.Fatalf("%d) Expected write to succeed, got '%s'.", i, err.Error())
		}

		y := make([]float64, len(x))
		b, buf, err = ReadCompressedFloats(wr, b, buf, y)
		if err != nil {
			t.Fatalf("%d) Expected read to succeed, got '%s'.", i, err.Error())
		}
		for j := range x {
			if math.Float64bits(x[j]) != math.Float64bits(y[j]) {
				t.Errorf("%d) Expected y[%d] = %g, got %g.", i, j, x[j], y[j])
				break
			}
		}
		if wr.Len() != 0 {
			t.Errorf("%d) %d bytes were left unread.", i, wr.Len())
		}
	}
}

func TestFile(t *testing.T) {
	fs := memfs.New()
	ex := make([]float64, 24)
	rho := make([]float64, 24)
	for i := range ex {
		ex[i] = float64(i) * 1e6
		rho[i] = -float64(i) * 1e-3
	}

	hd := FixedWidthHeader{
		Kind: FieldDump, FileNum: 1, FlushNum: 0, N: 24,
		Span: [3]int64{2, 3, 4}, Dir: 2, TLab: 2e-12,
	}
	index := []int64{7, 6, 5, 4}

	wr := NewWriter(fs, "snapshot00001/fields/buffer00000.lfd", hd,
		index, binary.LittleEndian)
	if err := wr.AddField("Ex", ex); err != nil {
		t.Fatalf("Expected AddField to succeed, got '%s'.", err.Error())
	}
	if err := wr.AddField("rho", rho); err != nil {
		t.Fatalf("Expected AddField to succeed, got '%s'.", err.Error())
	}
	if err := wr.AddField("Ex", ex); err == nil {
		t.Errorf("Expected AddField with a repeated name to fail.")
	}
	if err := wr.AddField("Ey", ex[:3]); err == nil {
		t.Errorf("Expected AddField with the wrong length to fail.")
	}
	if err := wr.Flush(); err != nil {
		t.Fatalf("Expected Flush to succeed, got '%s'.", err.Error())
	}

	rd, err := NewReader(fs, "snapshot00001/fields/buffer00000.lfd")
	if err != nil {
		t.Fatalf("Expected NewReader to succeed, got '%s'.", err.Error())
	}
	if rd.FixedWidthHeader != hd {
		t.Errorf("Expected header %+v, got %+v.", hd, rd.FixedWidthHeader)
	}
	if diff := cmp.Diff(index, rd.Index); diff != "" {
		t.Errorf("Unexpected slab index (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Ex", "rho"}, rd.Names); diff != "" {
		t.Errorf("Unexpected names (-want +got):\n%s", diff)
	}

	for name, want := range map[string][]float64{"Ex": ex, "rho": rho} {
		got, err := rd.ReadField(name)
		if err != nil {
			t.Fatalf("Expected ReadField(%s) to succeed, got '%s'.",
				name, err.Error())
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Unexpected column %s (-want +got):\n%s", name, diff)
		}
	}
	if _, err := rd.ReadField("Bz"); err == nil {
		t.Errorf("Expected ReadField of a missing column to fail.")
	}
}

func TestBadFiles(t *testing.T) {
	fs := memfs.New()
	if _, err := NewReader(fs, "missing.lfd"); err == nil {
		t.Errorf("Expected reading a missing file to fail.")
	}

	if err := util.WriteFile(fs, "text.lfd", []byte("hello world"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReader(fs, "text.lfd"); err == nil {
		t.Errorf("Expected reading a non-dump file to fail.")
	}

	wr := NewWriter(fs, "short.lfd", FixedWidthHeader{N: 100},
		nil, binary.LittleEndian)
	if err := wr.AddField("x", make([]float64, 100)); err != nil {
		t.Fatal(err)
	}
	if err := wr.Flush(); err != nil {
		t.Fatal(err)
	}
	raw, _ := util.ReadFile(fs, "short.lfd")
	if err := util.WriteFile(fs, "short.lfd", raw[:len(raw)-3], 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReader(fs, "short.lfd"); err == nil {
		t.Errorf("Expected reading a truncated file to fail.")
	}

	if ok, err := Exists(fs, "short.lfd"); !ok || err != nil {
		t.Errorf("Expected short.lfd to exist, got %v, %v.", ok, err)
	}
	if ok, err := Exists(fs, "nope.lfd"); ok || err != nil {
		t.Errorf("Expected nope.lfd to not exist, got %v, %v.", ok, err)
	}
}
