package utils

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// The CSR helpers below operate directly on the compressed storage returned by
// RawMatrix(). Every helper allocates a fresh result and leaves its inputs untouched,
// so operator matrices can be shared read-only between solves.

func NewSpIdentity(n int) (R *sparse.CSR) {
	var (
		ia   = make([]int, n+1)
		ja   = make([]int, n)
		data = make([]float64, n)
	)
	for i := 0; i < n; i++ {
		ia[i+1] = i + 1
		ja[i] = i
		data[i] = 1
	}
	R = sparse.NewCSR(n, n, ia, ja, data)
	return
}

func NewSpZeros(nr, nc int) (R *sparse.CSR) {
	R = sparse.NewCSR(nr, nc, make([]int, nr+1), []int{}, []float64{})
	return
}

// NewSpSelector returns a len(rows) x nc 0/1 matrix with a single one per row at column rows[i]
func NewSpSelector(rows Index, nc int) (R *sparse.CSR) {
	var (
		nr   = len(rows)
		ia   = make([]int, nr+1)
		ja   = make([]int, nr)
		data = make([]float64, nr)
	)
	for i, col := range rows {
		if col < 0 || col >= nc {
			panic(fmt.Errorf("selector column out of range: col = %d, nc = %d", col, nc))
		}
		ia[i+1] = i + 1
		ja[i] = col
		data[i] = 1
	}
	R = sparse.NewCSR(nr, nc, ia, ja, data)
	return
}

func SpCopy(A *sparse.CSR) (R *sparse.CSR) {
	var (
		raw    = A.RawMatrix()
		nr, nc = A.Dims()
		ia     = make([]int, len(raw.Indptr))
		ja     = make([]int, len(raw.Ind))
		data   = make([]float64, len(raw.Data))
	)
	copy(ia, raw.Indptr)
	copy(ja, raw.Ind)
	copy(data, raw.Data)
	R = sparse.NewCSR(nr, nc, ia, ja, data)
	return
}

// SpScaleRows computes diag(d) * A
func SpScaleRows(d []float64, A *sparse.CSR) (R *sparse.CSR) {
	var (
		nr, _ = A.Dims()
	)
	if len(d) != nr {
		panic(fmt.Errorf("row scale length mismatch: len(d) = %d, rows = %d", len(d), nr))
	}
	R = SpCopy(A)
	raw := R.RawMatrix()
	for i := 0; i < nr; i++ {
		for ind := raw.Indptr[i]; ind < raw.Indptr[i+1]; ind++ {
			raw.Data[ind] *= d[i]
		}
	}
	return
}

// SpScale computes alpha * A
func SpScale(alpha float64, A *sparse.CSR) (R *sparse.CSR) {
	R = SpCopy(A)
	raw := R.RawMatrix()
	for i := range raw.Data {
		raw.Data[i] *= alpha
	}
	return
}

// SpAdd computes alpha*A + beta*B. Column indices within each row of the result are sorted,
// and entries are summed in a fixed order so the result is reproducible.
func SpAdd(alpha float64, A *sparse.CSR, beta float64, B *sparse.CSR) (R *sparse.CSR) {
	var (
		nr, nc   = A.Dims()
		nrB, ncB = B.Dims()
		rA, rB   = A.RawMatrix(), B.RawMatrix()
		acc      = make([]float64, nc)
		marker   = make([]int, nc)
		ia       = make([]int, nr+1)
		ja       []int
		data     []float64
		pattern  []int
	)
	if nr != nrB || nc != ncB {
		panic(fmt.Errorf("sparse add dimension mismatch: (%d,%d) + (%d,%d)", nr, nc, nrB, ncB))
	}
	for j := range marker {
		marker[j] = -1
	}
	for i := 0; i < nr; i++ {
		pattern = pattern[:0]
		for ind := rA.Indptr[i]; ind < rA.Indptr[i+1]; ind++ {
			j := rA.Ind[ind]
			if marker[j] != i {
				marker[j] = i
				acc[j] = 0
				pattern = append(pattern, j)
			}
			acc[j] += alpha * rA.Data[ind]
		}
		for ind := rB.Indptr[i]; ind < rB.Indptr[i+1]; ind++ {
			j := rB.Ind[ind]
			if marker[j] != i {
				marker[j] = i
				acc[j] = 0
				pattern = append(pattern, j)
			}
			acc[j] += beta * rB.Data[ind]
		}
		sort.Ints(pattern)
		for _, j := range pattern {
			ja = append(ja, j)
			data = append(data, acc[j])
		}
		ia[i+1] = len(ja)
	}
	if ja == nil {
		ja, data = []int{}, []float64{}
	}
	R = sparse.NewCSR(nr, nc, ia, ja, data)
	return
}

// SpMul computes A * B
func SpMul(A, B *sparse.CSR) (R *sparse.CSR) {
	var (
		nr, ncA = A.Dims()
		nrB, nc = B.Dims()
	)
	if ncA != nrB {
		panic(fmt.Errorf("sparse multiply dimension mismatch: (%d,%d) * (%d,%d)", nr, ncA, nrB, nc))
	}
	R = sparse.NewCSR(nr, nc, nil, nil, nil)
	R.Mul(A, B)
	return
}

// SpMulVec computes y = A * x
func SpMulVec(A *sparse.CSR, x []float64) (y []float64) {
	var (
		nr, nc = A.Dims()
		raw    = A.RawMatrix()
	)
	if len(x) != nc {
		panic(fmt.Errorf("sparse mat-vec dimension mismatch: cols = %d, len(x) = %d", nc, len(x)))
	}
	y = make([]float64, nr)
	for i := 0; i < nr; i++ {
		var sum float64
		for ind := raw.Indptr[i]; ind < raw.Indptr[i+1]; ind++ {
			sum += raw.Data[ind] * x[raw.Ind[ind]]
		}
		y[i] = sum
	}
	return
}

// SpHStack concatenates matrices with equal row counts side by side
func SpHStack(blocks ...*sparse.CSR) (R *sparse.CSR) {
	var (
		nr, ncTot int
		offsets   = make([]int, len(blocks))
	)
	if len(blocks) == 0 {
		panic("no blocks to stack")
	}
	nr, _ = blocks[0].Dims()
	for b, B := range blocks {
		r, c := B.Dims()
		if r != nr {
			panic(fmt.Errorf("hstack row mismatch: block %d has %d rows, expected %d", b, r, nr))
		}
		offsets[b] = ncTot
		ncTot += c
	}
	ia := make([]int, nr+1)
	ja := []int{}
	data := []float64{}
	for i := 0; i < nr; i++ {
		for b, B := range blocks {
			raw := B.RawMatrix()
			for ind := raw.Indptr[i]; ind < raw.Indptr[i+1]; ind++ {
				ja = append(ja, raw.Ind[ind]+offsets[b])
				data = append(data, raw.Data[ind])
			}
		}
		ia[i+1] = len(ja)
	}
	R = sparse.NewCSR(nr, ncTot, ia, ja, data)
	return
}

// SpVStack concatenates matrices with equal column counts top to bottom
func SpVStack(blocks ...*sparse.CSR) (R *sparse.CSR) {
	var (
		nc, nrTot int
	)
	if len(blocks) == 0 {
		panic("no blocks to stack")
	}
	_, nc = blocks[0].Dims()
	ia := []int{0}
	ja := []int{}
	data := []float64{}
	for b, B := range blocks {
		r, c := B.Dims()
		if c != nc {
			panic(fmt.Errorf("vstack column mismatch: block %d has %d cols, expected %d", b, c, nc))
		}
		raw := B.RawMatrix()
		for i := 0; i < r; i++ {
			for ind := raw.Indptr[i]; ind < raw.Indptr[i+1]; ind++ {
				ja = append(ja, raw.Ind[ind])
				data = append(data, raw.Data[ind])
			}
			ia = append(ia, len(ja))
		}
		nrTot += r
	}
	R = sparse.NewCSR(nrTot, nc, ia, ja, data)
	return
}

// SpDiagonal extracts the main diagonal
func SpDiagonal(A *sparse.CSR) (d []float64) {
	var (
		nr, _ = A.Dims()
		raw   = A.RawMatrix()
	)
	d = make([]float64, nr)
	for i := 0; i < nr; i++ {
		for ind := raw.Indptr[i]; ind < raw.Indptr[i+1]; ind++ {
			if raw.Ind[ind] == i {
				d[i] += raw.Data[ind]
			}
		}
	}
	return
}

func SpToDense(A *sparse.CSR) (R *mat.Dense) {
	var (
		nr, nc = A.Dims()
	)
	R = mat.NewDense(nr, nc, nil)
	A.DoNonZero(func(i, j int, v float64) {
		R.Set(i, j, R.At(i, j)+v)
	})
	return
}

// NewSpFromTriplets assembles a CSR matrix from (row, col, value) triplets through a DOK,
// duplicate entries overwrite each other the way DOK.Set does.
func NewSpFromTriplets(nr, nc int, RI, CI Index, vals []float64) (R *sparse.CSR, err error) {
	if len(RI) != len(CI) || len(RI) != len(vals) {
		err = fmt.Errorf("length of triplet arrays are not equal: len(RI) = %v, len(CI) = %v, len(vals) = %v",
			len(RI), len(CI), len(vals))
		return
	}
	dok := sparse.NewDOK(nr, nc)
	for ii, val := range vals {
		i, j := RI[ii], CI[ii]
		if i < 0 || i >= nr || j < 0 || j >= nc {
			err = fmt.Errorf("triplet index out of bounds: (%d,%d) in (%d,%d)", i, j, nr, nc)
			return
		}
		dok.Set(i, j, val)
	}
	R = dok.ToCSR()
	return
}
