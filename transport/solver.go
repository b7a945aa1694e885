// Package transport solves the implicit saturation equation of incompressible two-phase flow
// for one time step, with advection by a given total velocity field.
//
// The residual is assembled from automatically differentiated quantities, so its Jacobian is
// exact, and driven to zero by Newton-Raphson iteration. Saturation updates are chopped to
// [0,1] after every Newton step.
package transport

import (
	"fmt"

	"github.com/notargets/gotransport/grid"
	"github.com/notargets/gotransport/linsolve"
	"github.com/notargets/gotransport/operators"
	"github.com/notargets/gotransport/props"
	"github.com/notargets/gotransport/state"
	"github.com/notargets/gotransport/utils"
)

// State is the part of the reservoir state used by the solver. FaceFlux is read, Saturation is
// read as the initial iterate and overwritten in place after a converged solve.
type State interface {
	FaceFlux() []float64
	Saturation() []float64
}

// Report summarises the last call to Solve
type Report struct {
	Converged    bool
	Iterations   int
	ResidualNorm float64
}

// TransportSolverTwophaseAD is an implicit transport solver using automatic differentiation.
//
// The grid, property model and linear solver are borrowed: they must stay unchanged and alive
// for as long as the solver is used. The operators built from the grid are shared read-only
// by all solves, but a solver must not run two solves at the same time.
type TransportSolverTwophaseAD struct {
	grid      *grid.Grid
	props     props.Model
	linsolver linsolve.LinearSolver
	ops       *operators.HelperOps
	params    Params
	pm        *utils.PartitionMap
	last      Report
}

func New(g *grid.Grid, pm props.Model, ls linsolve.LinearSolver, params Params) (ts *TransportSolverTwophaseAD, err error) {
	switch {
	case g == nil:
		return nil, fmt.Errorf("%w: nil grid", ErrConfiguration)
	case pm == nil:
		return nil, fmt.Errorf("%w: nil property model", ErrConfiguration)
	case ls == nil:
		return nil, fmt.Errorf("%w: nil linear solver", ErrConfiguration)
	}
	if err = params.validate(); err != nil {
		return
	}
	var ops *operators.HelperOps
	if ops, err = operators.NewHelperOps(g); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	ts = &TransportSolverTwophaseAD{
		grid:      g,
		props:     pm,
		linsolver: ls,
		ops:       ops,
		params:    params,
		pm:        utils.NewPartitionMap(params.parallelDegree(), g.NumCells()),
	}
	return
}

func (ts *TransportSolverTwophaseAD) Params() Params           { return ts.params }
func (ts *TransportSolverTwophaseAD) Ops() *operators.HelperOps { return ts.ops }

// LastReport returns iteration count and final residual norm of the last Solve
func (ts *TransportSolverTwophaseAD) LastReport() Report { return ts.last }

// Solve advances the saturation of state by one time step dt.
//
// porevolume holds one strictly positive pore volume per cell. source holds one signed rate per
// cell, positive for injected wetting phase and negative for total production; nil means no
// sources. Use SolveSource when a cell both injects and produces.
//
// On success state.Saturation() holds the new saturation. On failure the state is untouched and
// the error is a *SolveError wrapping ErrLinearSolve or ErrNotConverged, or an error wrapping
// ErrConfiguration for invalid input, saturation outside [0,1] included. Retrying with a
// smaller dt is up to the caller.
func (ts *TransportSolverTwophaseAD) Solve(porevolume, source []float64, dt float64, st State) (err error) {
	return ts.SolveSource(porevolume, state.SplitSource(source), dt, st)
}

// SolveSource is Solve with the injection and production of every cell given apart, as built
// by state.ComputeTransportSource.
func (ts *TransportSolverTwophaseAD) SolveSource(porevolume []float64, q Source, dt float64, st State) (err error) {
	var (
		sd *stepData
	)
	ts.last = Report{}
	if sd, err = ts.prepare(porevolume, q, dt, st.FaceFlux(), st.Saturation()); err != nil {
		return
	}
	var (
		tol   = ts.params.Tolerance
		maxit = ts.params.MaxIterations
		s     = make([]float64, len(sd.s0))
		it    int
	)
	copy(s, sd.s0)
	res := ts.residual(sd, s)
	norm := residualNorm(res)
	if ts.params.Verbose {
		fmt.Printf("Newton iteration %3d: residual = %10.4e\n", it, norm)
	}
	for !(norm < tol) && it < maxit {
		ds, rep, lerr := ts.linsolver.Solve(res.Jacobian(0), res.Value())
		if lerr == nil && !utils.IsFinite(ds) {
			lerr = fmt.Errorf("non-finite update after %d linear iterations", rep.Iterations)
		}
		if lerr != nil {
			ts.last = Report{Iterations: it, ResidualNorm: norm}
			return &SolveError{
				Iterations:   it,
				ResidualNorm: norm,
				Wrapped:      fmt.Errorf("%w: %w", ErrLinearSolve, lerr),
			}
		}
		for c := range s {
			s[c] = chop01(s[c] - ds[c])
		}
		it++
		res = ts.residual(sd, s)
		norm = residualNorm(res)
		if ts.params.Verbose {
			fmt.Printf("Newton iteration %3d: residual = %10.4e, linear iterations = %d\n",
				it, norm, rep.Iterations)
		}
	}
	ts.last = Report{Iterations: it, ResidualNorm: norm}
	if !(norm < tol) {
		return &SolveError{Iterations: it, ResidualNorm: norm, Wrapped: ErrNotConverged}
	}
	ts.last.Converged = true
	copy(st.Saturation(), s)
	return
}

func chop01(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
