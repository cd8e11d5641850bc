/*package compress reads and writes labframe's binary dump files. A dump stores
a small fixed-width header, a list of named float64 columns and, for field
dumps, the lab-frame slab index of every slab in the dump. Each column is
split into eight byte planes (all the most significant bytes, then the next
bytes, and so on) and each plane is compressed separately with zstd, which
lets the nearly-constant exponent bytes compress to almost nothing.
*/
package compress

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/DataDog/zstd"
)

// Level is the zstd compression level used for every byte plane.
var Level = 1

// floatToPlane writes byte i (0 is the least significant) of every value in
// x to b.
func floatToPlane(x []float64, b []byte, i int) {
	shift := uint(8 * i)
	for j := range x {
		b[j] = byte(math.Float64bits(x[j]) >> shift)
	}
}

// planeToFloat ORs byte i of every value in x in from b. x must start zeroed
// (as bits) before the first plane is applied.
func planeToFloat(b []byte, bits []uint64, i int) {
	shift := uint(8 * i)
	for j := range b {
		bits[j] |= uint64(b[j]) << shift
	}
}

// WriteCompressedFloats writes x to wr as eight zstd-compressed byte planes,
// each prefixed by its compressed length. b and buf are internal buffers;
// they are resized as needed and returned so they can be passed to the next
// call. Nothing is written for an empty column.
func WriteCompressedFloats(
	x []float64, b, buf []byte, wr io.Writer,
) (bOut, bufOut []byte, err error) {
	if len(x) == 0 {
		return b, buf, nil
	}
	b = resizeBytes(b, len(x))

	for i := 7; i >= 0; i-- {
		floatToPlane(x, b, i)

		buf, err = zstd.CompressLevel(buf[:cap(buf)], b, Level)
		if err != nil {
			return nil, nil, err
		}

		err = binary.Write(wr, binary.LittleEndian, int64(len(buf)))
		if err != nil {
			return nil, nil, err
		}
		if _, err = wr.Write(buf); err != nil {
			return nil, nil, err
		}
	}

	return b[:0], buf[:0], nil
}

// ReadCompressedFloats reads len(x) values written by WriteCompressedFloats
// from rd into x. b and buf are internal buffers, handled the same way as in
// WriteCompressedFloats.
func ReadCompressedFloats(
	rd io.Reader, b, buf []byte, x []float64,
) (bOut, bufOut []byte, err error) {
	if len(x) == 0 {
		return b, buf, nil
	}
	bits := make([]uint64, len(x))

	for i := 7; i >= 0; i-- {
		nBuf := int64(0)
		if err = binary.Read(rd, binary.LittleEndian, &nBuf); err != nil {
			return nil, nil, err
		} else if nBuf < 0 {
			return nil, nil, fmt.Errorf("A compressed byte plane claims to "+
				"have %d bytes.", nBuf)
		}

		buf = resizeBytes(buf, int(nBuf))
		if _, err = io.ReadFull(rd, buf); err != nil {
			return nil, nil, err
		}

		b, err = zstd.Decompress(resizeBytes(b, len(x)), buf)
		if err != nil {
			return nil, nil, err
		} else if len(b) != len(x) {
			return nil, nil, fmt.Errorf("A byte plane decompressed to %d "+
				"bytes, but the column has %d values.", len(b), len(x))
		}

		planeToFloat(b, bits, i)
	}

	for j := range x {
		x[j] = math.Float64frombits(bits[j])
	}

	return b[:0], buf[:0], nil
}

// resizeBytes returns a byte slice of length n, reusing b's storage if it's
// large enough.
func resizeBytes(b []byte, n int) []byte {
	if cap(b) >= n {
		return b[:n]
	}
	b = b[:cap(b)]
	return append(b, make([]byte, n-len(b))...)
}
