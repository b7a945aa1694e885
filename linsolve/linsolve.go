// Package linsolve provides the sparse linear solvers used for Newton updates.
package linsolve

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/james-bowman/sparse"
)

var (
	ErrSingular     = errors.New("linsolve: singular matrix")
	ErrNotConverged = errors.New("linsolve: iteration did not converge")
	ErrShape        = errors.New("linsolve: matrix and right hand side shapes differ")
)

// Report describes the outcome of one linear solve
type Report struct {
	Converged         bool
	Iterations        int
	ResidualReduction float64 // |b - Ax| / |b|
}

// LinearSolver solves A x = b for square sparse A
type LinearSolver interface {
	Solve(A *sparse.CSR, b []float64) (x []float64, rep Report, err error)
}

// New returns a solver by name: "lu" or "bicgstab"
func New(name string) (ls LinearSolver, err error) {
	allocator, ok := allocators[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("linear solver %q is not available, have %v", name, Names())
	}
	return allocator(), nil
}

func Names() (names []string) {
	for name := range allocators {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

var allocators = map[string]func() LinearSolver{
	"lu":       func() LinearSolver { return NewDenseLU() },
	"bicgstab": func() LinearSolver { return NewBiCGStab(1.e-12, 0) },
}

func checkShape(A *sparse.CSR, b []float64) (n int, err error) {
	nr, nc := A.Dims()
	if nr != nc || nr != len(b) {
		return 0, fmt.Errorf("%w: A is %dx%d, len(b) = %d", ErrShape, nr, nc, len(b))
	}
	return nr, nil
}
