package transport

import (
	"fmt"
	"math"

	"github.com/notargets/gotransport/autodiff"
	"github.com/notargets/gotransport/operators"
	"github.com/notargets/gotransport/utils"
	"gonum.org/v1/gonum/floats"
)

// stepData holds everything fixed during one time step
type stepData struct {
	s0     []float64 // saturation at the start of the step
	dtpv   []float64 // dt / porevolume
	qpos   []float64 // wetting phase injection, >= 0
	qneg   []float64 // total production, <= 0
	iflux  []float64 // total flux on interior faces
	upwind *operators.UpwindSelector
}

// Source is a per-cell transport source, the injected wetting phase rate and the produced total
// rate kept apart. *state.TransportSource satisfies it.
type Source interface {
	Injection() []float64
	Production() []float64
}

// prepare validates the inputs of a step. Nothing is modified.
func (ts *TransportSolverTwophaseAD) prepare(porevolume []float64, q Source, dt float64,
	faceflux, s0 []float64) (sd *stepData, err error) {
	var (
		nc        = ts.ops.NumCells
		nf        = ts.grid.NumFaces()
		inj, prod []float64
	)
	if q != nil {
		inj, prod = q.Injection(), q.Production()
	}
	switch {
	case !(dt > 0) || math.IsInf(dt, 1):
		return nil, fmt.Errorf("%w: time step must be positive and finite, got %g", ErrConfiguration, dt)
	case len(porevolume) != nc:
		return nil, fmt.Errorf("%w: %d pore volumes for %d cells", ErrConfiguration, len(porevolume), nc)
	case inj != nil && len(inj) != nc:
		return nil, fmt.Errorf("%w: %d injection rates for %d cells", ErrConfiguration, len(inj), nc)
	case prod != nil && len(prod) != nc:
		return nil, fmt.Errorf("%w: %d production rates for %d cells", ErrConfiguration, len(prod), nc)
	case len(faceflux) != nf:
		return nil, fmt.Errorf("%w: %d face fluxes for %d faces", ErrConfiguration, len(faceflux), nf)
	case len(s0) != nc:
		return nil, fmt.Errorf("%w: %d saturations for %d cells", ErrConfiguration, len(s0), nc)
	case !utils.IsFinite(faceflux):
		return nil, fmt.Errorf("%w: face flux is not finite", ErrConfiguration)
	case !utils.IsFinite(inj) || !utils.IsFinite(prod):
		return nil, fmt.Errorf("%w: source is not finite", ErrConfiguration)
	}
	for c, v := range s0 {
		// also catches NaN
		if !(v >= 0 && v <= 1) {
			return nil, fmt.Errorf("%w: saturation of cell %d is outside [0,1]: %g", ErrConfiguration, c, v)
		}
	}
	sd = &stepData{
		s0:   append([]float64{}, s0...),
		dtpv: make([]float64, nc),
		qpos: make([]float64, nc),
		qneg: make([]float64, nc),
	}
	for c, pv := range porevolume {
		if !(pv > 0) || math.IsInf(pv, 1) {
			return nil, fmt.Errorf("%w: pore volume of cell %d must be positive, got %g", ErrConfiguration, c, pv)
		}
		sd.dtpv[c] = dt / pv
	}
	for c, v := range inj {
		if v < 0 {
			return nil, fmt.Errorf("%w: injection rate of cell %d is negative: %g", ErrConfiguration, c, v)
		}
		sd.qpos[c] = v
	}
	for c, v := range prod {
		if v > 0 {
			return nil, fmt.Errorf("%w: production rate of cell %d is positive: %g", ErrConfiguration, c, v)
		}
		sd.qneg[c] = v
	}
	sd.iflux = ts.ops.InteriorFlux(faceflux)
	// flux is frozen for the step, so is the upwind direction
	if sd.upwind, err = operators.NewUpwindSelector(ts.ops, sd.iflux); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return
}

// residual assembles, for the iterate s,
//
//	r = s - s0 + dt/pv * (div(fw_up * v) - qpos - fw * qneg)
//
// which is the accumulation/flux/source balance divided by pv/dt. Its Jacobian with respect to
// s is the Newton matrix.
func (ts *TransportSolverTwophaseAD) residual(sd *stepData, s []float64) autodiff.ADB {
	var (
		sAD  = autodiff.Variables(s)[0]
		negS = make([]float64, len(sd.s0))
	)
	for c, v := range sd.s0 {
		negS[c] = -v
	}
	fw := fracFlow(ts.mobilities(sAD.Clamp(0, 1)))
	flux := sd.upwind.Select(fw).MulConst(sd.iflux)
	qtr := fw.MulConst(sd.qneg).AddConst(sd.qpos)
	balance := flux.Premultiply(ts.ops.Div).Sub(qtr).MulConst(sd.dtpv)
	return sAD.AddConst(negS).Add(balance)
}

// residualNorm is the max-norm, which does not depend on summation order
func residualNorm(r autodiff.ADB) float64 {
	v := r.Value()
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, math.Inf(1))
}

// Residual evaluates the step residual at saturation s, for a step from saturation s0 with the
// given face fluxes and source q (nil for none). A converged Solve leaves a saturation whose
// residual max-norm is below the tolerance.
func (ts *TransportSolverTwophaseAD) Residual(porevolume []float64, q Source, dt float64,
	faceflux, s0, s []float64) (r autodiff.ADB, err error) {
	var sd *stepData
	if sd, err = ts.prepare(porevolume, q, dt, faceflux, s0); err != nil {
		return
	}
	if len(s) != len(s0) {
		err = fmt.Errorf("%w: %d saturations for %d cells", ErrConfiguration, len(s), len(s0))
		return
	}
	r = ts.residual(sd, s)
	return
}

// ResidualNorm is the max-norm of Residual
func (ts *TransportSolverTwophaseAD) ResidualNorm(porevolume []float64, q Source, dt float64,
	faceflux, s0, s []float64) (norm float64, err error) {
	var r autodiff.ADB
	if r, err = ts.Residual(porevolume, q, dt, faceflux, s0, s); err != nil {
		return
	}
	return residualNorm(r), nil
}
