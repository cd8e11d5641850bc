/*package particles contains the particle data structures used by labframe: a
generic named-column Particles type, the fixed column layout used by
lab-frame particle buffers, and the boosted-frame species container that the
diagnostics sample particles from.*/
package particles

/* This file contains functions for managing particles and their fields. */

import (
	"fmt"
)

// Particles represents a set of particles. It maps the name of each field
// (e.g. 'x', 'uz', 'w') to a Field.
type Particles map[string]Field

// Field is a generic interface around a named column of particle data.
type Field interface {
	// Name returns the name of the field.
	Name() string
	// Len returns the length of the underlying array.
	Len() int
	// Data returns the underlying array as an interface{}.
	Data() interface{}
	// Transfer transfers data from the Field to the appropriately named field
	// in dest. Particles are transferred from the indices 'from' to the
	// indices 'to'. These indices are passed as arrays to amortize the cost
	// of error handling and type conversion.
	Transfer(dest Particles, from, to []int) error
	// Append appends the particles at the indices 'from' to the end of the
	// appropriately named field in dest.
	Append(dest Particles, from []int) error
	// CreateDestination creates output fields in p with the specified size
	// that have the correct names and types.
	CreateDestination(p Particles, n int)
	// Reset truncates the field to zero length while keeping its capacity.
	Reset()
}

// Type assertions
var (
	_ Field = &Uint64{}
	_ Field = &Float64{}
)

// Uint64 implements the Field interface for []uint64 data. See the Field
// interface for documentation of this struct's methods.
type Uint64 struct {
	name string
	data []uint64
}

// NewUint64 creates a field with a given name associated with a given array.
func NewUint64(name string, x []uint64) *Uint64 {
	return &Uint64{name, x}
}

func (x *Uint64) Name() string      { return x.name }
func (x *Uint64) Len() int          { return len(x.data) }
func (x *Uint64) Data() interface{} { return x.data }
func (x *Uint64) Reset()            { x.data = x.data[:0] }

func (x *Uint64) CreateDestination(p Particles, n int) {
	p[x.name] = NewUint64(x.name, make([]uint64, n))
}

func (x *Uint64) destination(dest Particles) (*Uint64, error) {
	destField, ok := dest[x.name]
	if !ok {
		return nil, fmt.Errorf("Destination Particles object does not "+
			"contain the field '%s'.", x.name)
	}
	out, ok := destField.(*Uint64)
	if !ok {
		return nil, fmt.Errorf("Field '%s' in destination Particles object "+
			"does not have []uint64 type, as expected.", x.name)
	}
	return out, nil
}

func (x *Uint64) Transfer(dest Particles, from, to []int) error {
	out, err := x.destination(dest)
	if err != nil {
		return err
	}
	if len(from) != len(to) {
		return fmt.Errorf("'from' index array has length %d, but 'to' has "+
			"length %d.", len(from), len(to))
	}
	for i := range from {
		out.data[to[i]] = x.data[from[i]]
	}
	return nil
}

func (x *Uint64) Append(dest Particles, from []int) error {
	out, err := x.destination(dest)
	if err != nil {
		return err
	}
	for _, i := range from {
		out.data = append(out.data, x.data[i])
	}
	return nil
}

// Float64 implements the Field interface for []float64 data. See the Field
// interface for documentation of this struct's methods.
type Float64 struct {
	name string
	data []float64
}

// NewFloat64 creates a field with a given name associated with a given array.
func NewFloat64(name string, x []float64) *Float64 {
	return &Float64{name, x}
}

func (x *Float64) Name() string      { return x.name }
func (x *Float64) Len() int          { return len(x.data) }
func (x *Float64) Data() interface{} { return x.data }
func (x *Float64) Reset()            { x.data = x.data[:0] }

// Values returns the underlying array without the interface conversion.
func (x *Float64) Values() []float64 { return x.data }

func (x *Float64) CreateDestination(p Particles, n int) {
	p[x.name] = NewFloat64(x.name, make([]float64, n))
}

func (x *Float64) destination(dest Particles) (*Float64, error) {
	destField, ok := dest[x.name]
	if !ok {
		return nil, fmt.Errorf("Destination Particles object does not "+
			"contain the field '%s'.", x.name)
	}
	out, ok := destField.(*Float64)
	if !ok {
		return nil, fmt.Errorf("Field '%s' in destination Particles object "+
			"does not have []float64 type, as expected.", x.name)
	}
	return out, nil
}

func (x *Float64) Transfer(dest Particles, from, to []int) error {
	out, err := x.destination(dest)
	if err != nil {
		return err
	}
	if len(from) != len(to) {
		return fmt.Errorf("'from' index array has length %d, but 'to' has "+
			"length %d.", len(from), len(to))
	}
	for i := range from {
		out.data[to[i]] = x.data[from[i]]
	}
	return nil
}

func (x *Float64) Append(dest Particles, from []int) error {
	out, err := x.destination(dest)
	if err != nil {
		return err
	}
	for _, i := range from {
		out.data = append(out.data, x.data[i])
	}
	return nil
}

// Len returns the number of particles in p. All fields of a Particles object
// have the same length; an empty map has length zero.
func (p Particles) Len() int {
	for _, f := range p {
		return f.Len()
	}
	return 0
}

// AppendFrom appends the particles of src at the indices 'from' to the
// matching fields of p.
func (p Particles) AppendFrom(src Particles, from []int) error {
	for name, f := range src {
		if _, ok := p[name]; !ok {
			return fmt.Errorf("Destination Particles object does not "+
				"contain the field '%s'.", name)
		}
		if err := f.Append(p, from); err != nil {
			return err
		}
	}
	return nil
}

// Reset empties every field of p.
func (p Particles) Reset() {
	for _, f := range p {
		f.Reset()
	}
}
