package transport

import (
	"fmt"
	"runtime"
)

// Params configures the Newton-Raphson iteration
type Params struct {
	// Tolerance is the convergence threshold on the max-norm of the residual. The residual is
	// measured in saturation units, see Residual.
	Tolerance      float64 `json:"tolerance" mapstructure:"tolerance"`
	// MaxIterations caps the number of Newton updates. Zero allows no update: the solve then
	// succeeds only if the initial saturation already satisfies Tolerance.
	MaxIterations  int     `json:"max_iterations" mapstructure:"max_iterations"`
	// ParallelDegree is the number of goroutines evaluating cell mobilities, 0 uses all CPUs
	ParallelDegree int     `json:"parallel_degree" mapstructure:"parallel_degree"`
	Verbose        bool    `json:"verbose" mapstructure:"verbose"`
}

// DefaultParams returns tolerance 1e-9, 30 iterations and serial property evaluation
func DefaultParams() Params {
	return Params{
		Tolerance:      1.e-9,
		MaxIterations:  30,
		ParallelDegree: 1,
	}
}

func (p Params) validate() error {
	switch {
	case !(p.Tolerance > 0):
		return fmt.Errorf("%w: tolerance must be positive, got %g", ErrConfiguration, p.Tolerance)
	case p.MaxIterations < 0:
		return fmt.Errorf("%w: max_iterations must not be negative, got %d", ErrConfiguration, p.MaxIterations)
	case p.ParallelDegree < 0:
		return fmt.Errorf("%w: parallel_degree must not be negative, got %d", ErrConfiguration, p.ParallelDegree)
	}
	return nil
}

func (p Params) parallelDegree() int {
	if p.ParallelDegree == 0 {
		return runtime.NumCPU()
	}
	return p.ParallelDegree
}

func (p Params) Print() {
	fmt.Printf("%8.3e\t\t= Tolerance\n", p.Tolerance)
	fmt.Printf("[%d]\t\t\t= Max Iterations\n", p.MaxIterations)
	fmt.Printf("[%d]\t\t\t= Parallel Degree\n", p.ParallelDegree)
}
