package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned before any iteration for invalid parameters or inputs
	ErrConfiguration = errors.New("transport: configuration error")
	// ErrLinearSolve is returned when the linear solver fails on a Newton update
	ErrLinearSolve = errors.New("transport: linear solve failed")
	// ErrNotConverged is returned when the residual stays above tolerance
	ErrNotConverged = errors.New("transport: newton iteration did not converge")
)

// SolveError reports a failed Solve. The state passed to Solve is unchanged when it is returned.
type SolveError struct {
	Iterations   int
	ResidualNorm float64
	Wrapped      error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("%v (after %d iterations, residual norm %g)", e.Wrapped, e.Iterations, e.ResidualNorm)
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}
