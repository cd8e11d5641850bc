/*package geom contains the index boxes and physical boxes used to describe the
boosted-frame grid and the lab-frame diagnostic domains. Index boxes follow
the usual block-structured convention: both ends are inclusive cell indices.
*/
package geom

import (
	"fmt"
	"math"
)

// IntVect is a three-dimensional cell index.
type IntVect [3]int

// Box is a rectangular region of cells. Lo and Hi are both inclusive. A Box
// with Hi[d] < Lo[d] on any axis is empty.
type Box struct {
	Lo, Hi IntVect
}

// NewBox creates a box spanning the cells [lo, hi].
func NewBox(lo, hi IntVect) Box { return Box{lo, hi} }

// Ok returns true if the box contains at least one cell.
func (b Box) Ok() bool {
	for d := 0; d < 3; d++ {
		if b.Hi[d] < b.Lo[d] {
			return false
		}
	}
	return true
}

// Length returns the number of cells along axis d.
func (b Box) Length(d int) int {
	if b.Hi[d] < b.Lo[d] {
		return 0
	}
	return b.Hi[d] - b.Lo[d] + 1
}

// Size returns the number of cells along each axis.
func (b Box) Size() IntVect {
	return IntVect{b.Length(0), b.Length(1), b.Length(2)}
}

// NumPts returns the total number of cells in the box.
func (b Box) NumPts() int {
	return b.Length(0) * b.Length(1) * b.Length(2)
}

// Contains returns true if the cell iv is inside the box.
func (b Box) Contains(iv IntVect) bool {
	for d := 0; d < 3; d++ {
		if iv[d] < b.Lo[d] || iv[d] > b.Hi[d] {
			return false
		}
	}
	return true
}

// ContainsBox returns true if every cell of b2 is inside b.
func (b Box) ContainsBox(b2 Box) bool {
	return b2.Ok() && b.Contains(b2.Lo) && b.Contains(b2.Hi)
}

// Intersect returns the overlap of two boxes and whether that overlap is
// non-empty.
func (b Box) Intersect(b2 Box) (Box, bool) {
	out := Box{}
	for d := 0; d < 3; d++ {
		out.Lo[d] = maxInt(b.Lo[d], b2.Lo[d])
		out.Hi[d] = minInt(b.Hi[d], b2.Hi[d])
	}
	return out, out.Ok()
}

// WithRange returns a copy of b whose extent along axis d is [lo, hi].
func (b Box) WithRange(d, lo, hi int) Box {
	b.Lo[d], b.Hi[d] = lo, hi
	return b
}

// Shift returns a copy of b moved by n cells along axis d.
func (b Box) Shift(d, n int) Box {
	b.Lo[d] += n
	b.Hi[d] += n
	return b
}

// Index returns the position of iv in a box-ordered array, with axis 0
// varying fastest. iv must be inside b.
func (b Box) Index(iv IntVect) int {
	nx, ny := b.Length(0), b.Length(1)
	return (iv[0] - b.Lo[0]) + nx*((iv[1]-b.Lo[1])+ny*(iv[2]-b.Lo[2]))
}

func (b Box) String() string {
	return fmt.Sprintf("(%d,%d,%d)-(%d,%d,%d)",
		b.Lo[0], b.Lo[1], b.Lo[2], b.Hi[0], b.Hi[1], b.Hi[2])
}

// RealBox is a rectangular region of physical space.
type RealBox struct {
	Lo, Hi [3]float64
}

// Length returns the physical width of the box along axis d.
func (rb RealBox) Length(d int) float64 { return rb.Hi[d] - rb.Lo[d] }

// Ok returns true if Lo <= Hi on every axis. Zero-width axes are allowed:
// they describe reduced (1D or 2D) slices.
func (rb RealBox) Ok() bool {
	for d := 0; d < 3; d++ {
		if math.IsNaN(rb.Lo[d]) || math.IsNaN(rb.Hi[d]) || rb.Hi[d] < rb.Lo[d] {
			return false
		}
	}
	return true
}

// Contains returns true if the point x is inside the closed box.
func (rb RealBox) Contains(x [3]float64) bool {
	for d := 0; d < 3; d++ {
		if x[d] < rb.Lo[d] || x[d] > rb.Hi[d] {
			return false
		}
	}
	return true
}

// ContainsBox returns true if rb2 lies entirely inside the closed box rb.
func (rb RealBox) ContainsBox(rb2 RealBox) bool {
	return rb.Contains(rb2.Lo) && rb.Contains(rb2.Hi)
}

// WithRange returns a copy of rb whose extent along axis d is [lo, hi].
func (rb RealBox) WithRange(d int, lo, hi float64) RealBox {
	rb.Lo[d], rb.Hi[d] = lo, hi
	return rb
}

// Geometry ties an index domain to the physical region it covers. The index
// domain always starts at cell 0.
type Geometry struct {
	Domain Box
	Prob   RealBox
}

// NewGeometry creates a Geometry with n cells covering prob.
func NewGeometry(n IntVect, prob RealBox) Geometry {
	return Geometry{
		Domain: Box{IntVect{0, 0, 0}, IntVect{n[0] - 1, n[1] - 1, n[2] - 1}},
		Prob:   prob,
	}
}

// CellSize returns the width of a cell along axis d.
func (g Geometry) CellSize(d int) float64 {
	return g.Prob.Length(d) / float64(g.Domain.Length(d))
}

// ProbLo returns the lower physical edge along axis d.
func (g Geometry) ProbLo(d int) float64 { return g.Prob.Lo[d] }

// ProbHi returns the upper physical edge along axis d.
func (g Geometry) ProbHi(d int) float64 { return g.Prob.Hi[d] }

// CellIndex returns the cell containing position x along axis d, clamped to
// the index domain.
func (g Geometry) CellIndex(d int, x float64) int {
	i := int(math.Floor((x - g.Prob.Lo[d]) / g.CellSize(d)))
	if i < g.Domain.Lo[d] {
		return g.Domain.Lo[d]
	} else if i > g.Domain.Hi[d] {
		return g.Domain.Hi[d]
	}
	return i
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
