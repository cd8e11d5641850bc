package lorentz

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/phil-mansfield/labframe/lib/particles"
)

// matrix returns the 2x2 boost acting on (c t, z) or (gamma_p c, u_z), taking
// boosted-frame values to lab-frame values.
func (b Boost) matrix() *mat.Dense {
	gb := b.Gamma * b.Beta
	return mat.NewDense(2, 2, []float64{b.Gamma, gb, gb, b.Gamma})
}

// TransformParticles converts particles which crossed a sampling plane to the
// lab frame at time tLab. The state of each particle at the end of the
// current step (time tBoost) and the previous step (tBoost - dt) is boosted
// to the lab frame, and the two lab-frame states are linearly interpolated
// to tLab. The result uses the particles.DiagnosticFields layout.
func (b Boost) TransformParticles(
	s *particles.Species, tBoost, dt, tLab float64,
) particles.Particles {
	out := particles.NewDiagnosticData()
	n := s.Len()
	if n == 0 {
		return out
	}

	a := b.Dir
	lambda := b.matrix()

	// Events and four-momenta for the new (columns [0, n)) and old
	// (columns [n, 2n)) states.
	events := mat.NewDense(2, 2*n, nil)
	moms := mat.NewDense(2, 2*n, nil)
	for i := 0; i < n; i++ {
		events.Set(0, i, C*tBoost)
		events.Set(1, i, s.X[i][a])
		events.Set(0, n+i, C*(tBoost-dt))
		events.Set(1, n+i, s.XOld[i][a])

		moms.Set(0, i, gammaC(s.U[i]))
		moms.Set(1, i, s.U[i][a])
		moms.Set(0, n+i, gammaC(s.UOld[i]))
		moms.Set(1, n+i, s.UOld[i][a])
	}

	var labEvents, labMoms mat.Dense
	labEvents.Mul(lambda, events)
	labMoms.Mul(lambda, moms)

	pos := [3][]float64{make([]float64, n), make([]float64, n),
		make([]float64, n)}
	mom := [3][]float64{make([]float64, n), make([]float64, n),
		make([]float64, n)}
	w := make([]float64, n)

	ctLab := C * tLab
	for i := 0; i < n; i++ {
		ctNew, ctOld := labEvents.At(0, i), labEvents.At(0, n+i)
		wNew, wOld := 1.0, 0.0
		if ctNew != ctOld {
			wOld = (ctNew - ctLab) / (ctNew - ctOld)
			wNew = (ctLab - ctOld) / (ctNew - ctOld)
		}

		for d := 0; d < 3; d++ {
			if d == a {
				pos[d][i] = wOld*labEvents.At(1, n+i) + wNew*labEvents.At(1, i)
				mom[d][i] = wOld*labMoms.At(1, n+i) + wNew*labMoms.At(1, i)
			} else {
				pos[d][i] = wOld*s.XOld[i][d] + wNew*s.X[i][d]
				mom[d][i] = wOld*s.UOld[i][d] + wNew*s.U[i][d]
			}
		}
		w[i] = s.W[i]
	}

	out.SetColumn("w", w)
	out.SetColumn("x", pos[0])
	out.SetColumn("y", pos[1])
	out.SetColumn("z", pos[2])
	out.SetColumn("ux", mom[0])
	out.SetColumn("uy", mom[1])
	out.SetColumn("uz", mom[2])
	return out
}

// gammaC returns gamma_p * c for a particle with momentum per mass u.
func gammaC(u [3]float64) float64 {
	u2 := u[0]*u[0] + u[1]*u[1] + u[2]*u[2]
	return C * math.Sqrt(1+u2/(C*C))
}
