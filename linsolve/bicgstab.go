package linsolve

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"github.com/notargets/gotransport/utils"
	"gonum.org/v1/gonum/floats"
)

// BiCGStab is the stabilised bi-conjugate gradient method with a Jacobi preconditioner,
// working directly on the CSR storage
type BiCGStab struct {
	Tolerance     float64 // relative residual reduction, 0 means 1e-12
	MaxIterations int     // 0 means 2 * system size + 10
}

func NewBiCGStab(tol float64, maxIterations int) *BiCGStab {
	return &BiCGStab{Tolerance: tol, MaxIterations: maxIterations}
}

func (s *BiCGStab) Solve(A *sparse.CSR, b []float64) (x []float64, rep Report, err error) {
	var (
		n int
	)
	if n, err = checkShape(A, b); err != nil {
		return
	}
	maxit, tol := s.MaxIterations, s.Tolerance
	if maxit <= 0 {
		maxit = 2*n + 10
	}
	if tol <= 0 {
		tol = 1.e-12
	}
	dinv := utils.SpDiagonal(A)
	for i, d := range dinv {
		if d == 0 {
			err = fmt.Errorf("%w: zero diagonal in row %d", ErrSingular, i)
			return
		}
		dinv[i] = 1 / d
	}
	precond := func(dst, v []float64) { floats.MulTo(dst, dinv, v) }

	x = make([]float64, n)
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		rep = Report{Converged: true}
		return
	}
	var (
		r     = append([]float64{}, b...)
		rhat  = append([]float64{}, b...)
		p     = make([]float64, n)
		v     = make([]float64, n)
		phat  = make([]float64, n)
		shat  = make([]float64, n)
		sv    = make([]float64, n)
		rho   = 1.
		alpha = 1.
		omega = 1.
	)
	for it := 1; it <= maxit; it++ {
		rhoNew := floats.Dot(rhat, r)
		if rhoNew == 0 {
			err = fmt.Errorf("%w: breakdown (rho = 0) at iteration %d", ErrNotConverged, it)
			break
		}
		if it == 1 {
			copy(p, r)
		} else {
			beta := (rhoNew / rho) * (alpha / omega)
			// p = r + beta * (p - omega * v)
			floats.AddScaled(p, -omega, v)
			floats.Scale(beta, p)
			floats.Add(p, r)
		}
		rho = rhoNew
		precond(phat, p)
		copy(v, utils.SpMulVec(A, phat))
		alpha = rho / floats.Dot(rhat, v)
		// s = r - alpha v
		copy(sv, r)
		floats.AddScaled(sv, -alpha, v)
		if res := floats.Norm(sv, 2) / bnorm; res < tol {
			floats.AddScaled(x, alpha, phat)
			rep = Report{Converged: true, Iterations: it, ResidualReduction: res}
			return
		}
		precond(shat, sv)
		t := utils.SpMulVec(A, shat)
		tt := floats.Dot(t, t)
		if tt == 0 {
			err = fmt.Errorf("%w: breakdown (t = 0) at iteration %d", ErrNotConverged, it)
			break
		}
		omega = floats.Dot(t, sv) / tt
		floats.AddScaled(x, alpha, phat)
		floats.AddScaled(x, omega, shat)
		copy(r, sv)
		floats.AddScaled(r, -omega, t)
		res := floats.Norm(r, 2) / bnorm
		rep = Report{Iterations: it, ResidualReduction: res}
		if math.IsNaN(res) {
			err = fmt.Errorf("%w: residual is NaN at iteration %d", ErrNotConverged, it)
			break
		}
		if res < tol {
			rep.Converged = true
			return
		}
		if omega == 0 {
			err = fmt.Errorf("%w: breakdown (omega = 0) at iteration %d", ErrNotConverged, it)
			break
		}
	}
	if err == nil {
		err = fmt.Errorf("%w: residual reduction %g after %d iterations", ErrNotConverged,
			rep.ResidualReduction, rep.Iterations)
	}
	return
}
