package particles

import (
	"fmt"
)

// DiagnosticFields lists the columns stored for every lab-frame particle:
// weight, position and momentum per unit mass (gamma*v).
var DiagnosticFields = []string{"w", "x", "y", "z", "ux", "uy", "uz"}

// NewDiagnosticData returns an empty Particles object with the
// DiagnosticFields columns.
func NewDiagnosticData() Particles {
	p := Particles{}
	for _, name := range DiagnosticFields {
		p[name] = NewFloat64(name, []float64{})
	}
	return p
}

// Column returns the values of a DiagnosticFields column. It panics if p
// wasn't made by NewDiagnosticData.
func (p Particles) Column(name string) []float64 {
	f, ok := p[name].(*Float64)
	if !ok {
		panic(fmt.Sprintf("Internal error: diagnostic particle data has no "+
			"float64 column '%s'.", name))
	}
	return f.data
}

// Position returns the position of particle i of diagnostic data.
func (p Particles) Position(i int) [3]float64 {
	return [3]float64{
		p.Column("x")[i], p.Column("y")[i], p.Column("z")[i],
	}
}

// SetColumn replaces a DiagnosticFields column.
func (p Particles) SetColumn(name string, x []float64) {
	p[name] = NewFloat64(name, x)
}
