// Package autodiff implements forward mode automatic differentiation on vectors.
//
// An ADB carries a value vector together with one sparse Jacobian per independent variable
// block. Every operation returns a new ADB whose Jacobians follow from the sum, product,
// quotient and chain rules, so the derivative of a residual assembled from ADB operations
// is exact up to floating point rounding.
//
// ADB values are immutable. Lengths of operands must agree; a mismatch panics with an error
// wrapping ErrDimensionMismatch, in the same way gonum/mat panics on shape errors.
package autodiff

import (
	"errors"
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"github.com/notargets/gotransport/utils"
)

var ErrDimensionMismatch = errors.New("autodiff: dimension mismatch")

type ADB struct {
	val []float64
	jac []*sparse.CSR // jac[b] is len(val) x (size of block b)
}

func mismatch(format string, args ...interface{}) {
	panic(fmt.Errorf("%w: %s", ErrDimensionMismatch, fmt.Sprintf(format, args...)))
}

// Constant returns an ADB with zero Jacobians for blocks of the given sizes. With no block
// sizes the constant carries no Jacobians and combines with ADBs of any block structure.
func Constant(val []float64, blockSizes ...int) (R ADB) {
	R.val = make([]float64, len(val))
	copy(R.val, val)
	if len(blockSizes) != 0 {
		R.jac = make([]*sparse.CSR, len(blockSizes))
		for b, n := range blockSizes {
			R.jac[b] = utils.NewSpZeros(len(val), n)
		}
	}
	return
}

// FromJacobians builds an ADB from a value and caller supplied Jacobians, one per block
func FromJacobians(val []float64, jac ...*sparse.CSR) (R ADB) {
	R.val = make([]float64, len(val))
	copy(R.val, val)
	R.jac = make([]*sparse.CSR, len(jac))
	for b, J := range jac {
		if nr, _ := J.Dims(); nr != len(val) {
			mismatch("jacobian block %d has %d rows for a value of length %d", b, nr, len(val))
		}
		R.jac[b] = J
	}
	return
}

// Variables returns one independent variable per input vector. Variable i has the identity
// as its Jacobian with respect to block i and zero Jacobians for every other block.
func Variables(vals ...[]float64) (vars []ADB) {
	var (
		nb    = len(vals)
		sizes = make([]int, nb)
	)
	for b, v := range vals {
		sizes[b] = len(v)
	}
	vars = make([]ADB, nb)
	for i, v := range vals {
		jac := make([]*sparse.CSR, nb)
		for b := range vals {
			if b == i {
				jac[b] = utils.NewSpIdentity(len(v))
			} else {
				jac[b] = utils.NewSpZeros(len(v), sizes[b])
			}
		}
		vars[i] = FromJacobians(v, jac...)
	}
	return
}

func (a ADB) Size() int      { return len(a.val) }
func (a ADB) NumBlocks() int { return len(a.jac) }

// Value returns a copy of the value vector
func (a ADB) Value() (v []float64) {
	v = make([]float64, len(a.val))
	copy(v, a.val)
	return
}

// At returns element i of the value
func (a ADB) At(i int) float64 { return a.val[i] }

// Jacobian returns the derivative with respect to block b. It is shared with the ADB and
// must not be modified.
func (a ADB) Jacobian(b int) *sparse.CSR { return a.jac[b] }

// Derivative returns all Jacobian blocks
func (a ADB) Derivative() (jac []*sparse.CSR) {
	jac = make([]*sparse.CSR, len(a.jac))
	copy(jac, a.jac)
	return
}

// FullJacobian returns the Jacobian blocks concatenated column-wise
func (a ADB) FullJacobian() *sparse.CSR {
	if len(a.jac) == 0 {
		return utils.NewSpZeros(len(a.val), 0)
	}
	if len(a.jac) == 1 {
		return a.jac[0]
	}
	return utils.SpHStack(a.jac...)
}

func (a ADB) checkSize(b ADB, op string) {
	if len(a.val) != len(b.val) {
		mismatch("%s of lengths %d and %d", op, len(a.val), len(b.val))
	}
}

func (a ADB) checkLen(v []float64, op string) {
	if len(a.val) != len(v) {
		mismatch("%s of lengths %d and %d", op, len(a.val), len(v))
	}
}

// combine returns diag(da)*Ja + diag(db)*Jb block by block. A nil scale means the identity.
// An operand without blocks contributes nothing.
func combine(da []float64, a ADB, db []float64, b ADB) (jac []*sparse.CSR) {
	scaled := func(d []float64, J *sparse.CSR) *sparse.CSR {
		if d == nil {
			return J
		}
		return utils.SpScaleRows(d, J)
	}
	switch {
	case len(a.jac) == 0 && len(b.jac) == 0:
		return nil
	case len(b.jac) == 0:
		jac = make([]*sparse.CSR, len(a.jac))
		for i, J := range a.jac {
			jac[i] = scaled(da, J)
		}
		return
	case len(a.jac) == 0:
		jac = make([]*sparse.CSR, len(b.jac))
		for i, J := range b.jac {
			jac[i] = scaled(db, J)
		}
		return
	case len(a.jac) != len(b.jac):
		mismatch("operands have %d and %d jacobian blocks", len(a.jac), len(b.jac))
	}
	jac = make([]*sparse.CSR, len(a.jac))
	for i := range a.jac {
		_, ca := a.jac[i].Dims()
		_, cb := b.jac[i].Dims()
		if ca != cb {
			mismatch("jacobian block %d has %d and %d columns", i, ca, cb)
		}
		jac[i] = utils.SpAdd(1, scaled(da, a.jac[i]), 1, scaled(db, b.jac[i]))
	}
	return
}

func (a ADB) mapBlocks(f func(J *sparse.CSR) *sparse.CSR) (jac []*sparse.CSR) {
	if len(a.jac) == 0 {
		return nil
	}
	jac = make([]*sparse.CSR, len(a.jac))
	for i, J := range a.jac {
		jac[i] = f(J)
	}
	return
}

func (a ADB) Add(b ADB) (R ADB) {
	a.checkSize(b, "add")
	R.val = make([]float64, len(a.val))
	for i := range a.val {
		R.val[i] = a.val[i] + b.val[i]
	}
	R.jac = combine(nil, a, nil, b)
	return
}

func (a ADB) Sub(b ADB) (R ADB) {
	a.checkSize(b, "subtract")
	R.val = make([]float64, len(a.val))
	for i := range a.val {
		R.val[i] = a.val[i] - b.val[i]
	}
	R.jac = combine(nil, a, nil, b.Neg())
	return
}

// Mul is the elementwise product, d(ab) = b da + a db
func (a ADB) Mul(b ADB) (R ADB) {
	a.checkSize(b, "multiply")
	R.val = make([]float64, len(a.val))
	for i := range a.val {
		R.val[i] = a.val[i] * b.val[i]
	}
	R.jac = combine(b.val, a, a.val, b)
	return
}

// Div is the elementwise quotient, d(a/b) = da/b - a db/b^2
func (a ADB) Div(b ADB) (R ADB) {
	a.checkSize(b, "divide")
	var (
		n  = len(a.val)
		da = make([]float64, n)
		db = make([]float64, n)
	)
	R.val = make([]float64, n)
	for i := range a.val {
		R.val[i] = a.val[i] / b.val[i]
		da[i] = 1 / b.val[i]
		db[i] = -a.val[i] / (b.val[i] * b.val[i])
	}
	R.jac = combine(da, a, db, b)
	return
}

func (a ADB) Neg() (R ADB) {
	return a.Scale(-1)
}

func (a ADB) Scale(c float64) (R ADB) {
	R.val = make([]float64, len(a.val))
	for i, v := range a.val {
		R.val[i] = c * v
	}
	R.jac = a.mapBlocks(func(J *sparse.CSR) *sparse.CSR { return utils.SpScale(c, J) })
	return
}

func (a ADB) AddScalar(c float64) (R ADB) {
	R.val = make([]float64, len(a.val))
	for i, v := range a.val {
		R.val[i] = v + c
	}
	R.jac = a.jac
	return
}

// MulConst multiplies elementwise by a constant vector
func (a ADB) MulConst(v []float64) (R ADB) {
	a.checkLen(v, "multiply")
	R.val = make([]float64, len(a.val))
	for i := range a.val {
		R.val[i] = a.val[i] * v[i]
	}
	R.jac = a.mapBlocks(func(J *sparse.CSR) *sparse.CSR { return utils.SpScaleRows(v, J) })
	return
}

// AddConst adds a constant vector elementwise
func (a ADB) AddConst(v []float64) (R ADB) {
	a.checkLen(v, "add")
	R.val = make([]float64, len(a.val))
	for i := range a.val {
		R.val[i] = a.val[i] + v[i]
	}
	R.jac = a.jac
	return
}

// Premultiply applies a constant sparse operator: value M*a, Jacobians M*J
func (a ADB) Premultiply(M *sparse.CSR) (R ADB) {
	_, nc := M.Dims()
	if nc != len(a.val) {
		mismatch("operator with %d columns applied to a value of length %d", nc, len(a.val))
	}
	R.val = utils.SpMulVec(M, a.val)
	R.jac = a.mapBlocks(func(J *sparse.CSR) *sparse.CSR { return utils.SpMul(M, J) })
	return
}

// Subset gathers the elements listed in I
func (a ADB) Subset(I utils.Index) (R ADB) {
	return a.Premultiply(utils.NewSpSelector(I, len(a.val)))
}

// ChainRule returns f(a) given the elementwise values fx = f(a) and derivatives dfdx = f'(a)
func (a ADB) ChainRule(fx, dfdx []float64) (R ADB) {
	a.checkLen(fx, "chain rule value")
	a.checkLen(dfdx, "chain rule derivative")
	R.val = make([]float64, len(fx))
	copy(R.val, fx)
	R.jac = a.mapBlocks(func(J *sparse.CSR) *sparse.CSR { return utils.SpScaleRows(dfdx, J) })
	return
}

// Apply evaluates an elementwise function f that returns both its value and derivative
func (a ADB) Apply(f func(x float64) (fx, dfdx float64)) (R ADB) {
	var (
		n    = len(a.val)
		fx   = make([]float64, n)
		dfdx = make([]float64, n)
	)
	for i, x := range a.val {
		fx[i], dfdx[i] = f(x)
	}
	return a.ChainRule(fx, dfdx)
}

// selectBranch returns mask*a + (1-mask)*b with the Jacobian of the active branch per row
func selectBranch(a, b ADB, useA []bool) (R ADB) {
	var (
		n      = len(a.val)
		ma, mb = make([]float64, n), make([]float64, n)
	)
	R.val = make([]float64, n)
	for i := range a.val {
		if useA[i] {
			R.val[i], ma[i] = a.val[i], 1
		} else {
			R.val[i], mb[i] = b.val[i], 1
		}
	}
	R.jac = combine(ma, a, mb, b)
	return
}

// Max is the elementwise maximum. The derivative follows the larger operand, and a on ties.
func Max(a, b ADB) (R ADB) {
	a.checkSize(b, "max")
	useA := make([]bool, len(a.val))
	for i := range a.val {
		useA[i] = a.val[i] >= b.val[i]
	}
	return selectBranch(a, b, useA)
}

// Min is the elementwise minimum. The derivative follows the smaller operand, and a on ties.
func Min(a, b ADB) (R ADB) {
	a.checkSize(b, "min")
	useA := make([]bool, len(a.val))
	for i := range a.val {
		useA[i] = a.val[i] <= b.val[i]
	}
	return selectBranch(a, b, useA)
}

// Clamp limits the value to [lo, hi]. Clamped rows have a zero derivative, values on the
// bounds keep theirs.
func (a ADB) Clamp(lo, hi float64) (R ADB) {
	var (
		n    = len(a.val)
		keep = make([]float64, n)
	)
	R.val = make([]float64, n)
	for i, v := range a.val {
		switch {
		case v < lo:
			R.val[i] = lo
		case v > hi:
			R.val[i] = hi
		case math.IsNaN(v):
			R.val[i] = v
		default:
			R.val[i], keep[i] = v, 1
		}
	}
	R.jac = a.mapBlocks(func(J *sparse.CSR) *sparse.CSR { return utils.SpScaleRows(keep, J) })
	return
}

// Vertcat stacks ADBs end to end. All operands must share the same block structure, or have
// no blocks at all.
func Vertcat(adbs ...ADB) (R ADB) {
	var (
		nb    int
		sizes []int
	)
	for _, a := range adbs {
		R.val = append(R.val, a.val...)
		if len(a.jac) == 0 {
			continue
		}
		if sizes == nil {
			nb = len(a.jac)
			sizes = make([]int, nb)
			for b, J := range a.jac {
				_, sizes[b] = J.Dims()
			}
			continue
		}
		if len(a.jac) != nb {
			mismatch("vertcat operands have %d and %d jacobian blocks", nb, len(a.jac))
		}
		for b, J := range a.jac {
			if _, nc := J.Dims(); nc != sizes[b] {
				mismatch("vertcat block %d has %d and %d columns", b, sizes[b], nc)
			}
		}
	}
	if R.val == nil {
		R.val = []float64{}
	}
	if sizes == nil {
		return
	}
	R.jac = make([]*sparse.CSR, nb)
	for b := 0; b < nb; b++ {
		parts := make([]*sparse.CSR, len(adbs))
		for k, a := range adbs {
			if len(a.jac) == 0 {
				parts[k] = utils.NewSpZeros(len(a.val), sizes[b])
			} else {
				parts[k] = a.jac[b]
			}
		}
		R.jac[b] = utils.SpVStack(parts...)
	}
	return
}

func (a ADB) String() string {
	return fmt.Sprintf("ADB{size: %d, blocks: %d, value: %v}", len(a.val), len(a.jac), a.val)
}
