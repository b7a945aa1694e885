package linsolve

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"github.com/notargets/gotransport/utils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DenseLU factorises a dense copy of the matrix with partial pivoting. It is exact up to
// rounding and intended for the small and medium systems of a single transport step.
type DenseLU struct {
	// MaxCondition rejects factorisations with a larger estimated condition number,
	// zero means mat.ConditionTolerance
	MaxCondition float64
}

func NewDenseLU() *DenseLU {
	return &DenseLU{MaxCondition: mat.ConditionTolerance}
}

func (s *DenseLU) Solve(A *sparse.CSR, b []float64) (x []float64, rep Report, err error) {
	var (
		n  int
		lu mat.LU
	)
	if n, err = checkShape(A, b); err != nil {
		return
	}
	maxCond := s.MaxCondition
	if maxCond <= 0 {
		maxCond = mat.ConditionTolerance
	}
	lu.Factorize(utils.SpToDense(A))
	if cond := lu.Cond(); math.IsInf(cond, 1) || math.IsNaN(cond) || cond > maxCond {
		err = fmt.Errorf("%w: condition number %g", ErrSingular, cond)
		return
	}
	var xv mat.VecDense
	if err = lu.SolveVecTo(&xv, false, mat.NewVecDense(n, append([]float64{}, b...))); err != nil {
		err = fmt.Errorf("%w: %v", ErrSingular, err)
		return
	}
	x = make([]float64, n)
	copy(x, xv.RawVector().Data)
	rep = Report{
		Converged:         true,
		Iterations:        1,
		ResidualReduction: residualReduction(A, x, b),
	}
	return
}

func residualReduction(A *sparse.CSR, x, b []float64) float64 {
	r := utils.SpMulVec(A, x)
	floats.Sub(r, b)
	bn := floats.Norm(b, 2)
	if bn == 0 {
		return floats.Norm(r, 2)
	}
	return floats.Norm(r, 2) / bn
}
