// Package BuckleyLeverett drives the implicit transport solver through time for a water flood
// driven by a uniform velocity along +x, on a Cartesian grid or an SU2 mesh.
package BuckleyLeverett

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/notargets/gotransport/InputParameters"
	"github.com/notargets/gotransport/grid"
	"github.com/notargets/gotransport/linsolve"
	"github.com/notargets/gotransport/props"
	"github.com/notargets/gotransport/readfiles"
	"github.com/notargets/gotransport/state"
	"github.com/notargets/gotransport/transport"
	"github.com/notargets/gotransport/utils"
)

// Solver advances a state by one time step, *transport.TransportSolverTwophaseAD satisfies it
type Solver interface {
	SolveSource(porevolume []float64, q transport.Source, dt float64, st transport.State) error
}

type BuckleyLeverett struct {
	Grid       *grid.Grid
	State      *state.TwophaseState
	Model      props.Model
	Solver     Solver
	PoreVolume []float64
	Source     *state.TransportSource // injection scaled by the injected fraction
	FinalTime  float64
	Dt, MinDt  float64
	Verbose    bool
	LogFreq    int

	// accumulated during Run
	Time               float64
	Steps, Retries     int
	Injected, Produced float64 // wetting phase volumes
}

func NewBuckleyLeverett(ip *InputParameters.InputParameters, verbose bool) (c *BuckleyLeverett, err error) {
	if err = ip.Validate(); err != nil {
		return
	}
	c = &BuckleyLeverett{
		FinalTime: ip.FinalTime,
		MinDt:     ip.MinDt,
		Verbose:   verbose,
		LogFreq:   ip.LogFrequency,
	}
	if ip.GridFile != "" {
		if c.Grid, _, err = readfiles.ReadSU2(ip.GridFile, verbose); err != nil {
			return
		}
	} else if c.Grid, err = grid.NewCartesian2D(ip.Nx, ip.Ny, ip.Lx/float64(ip.Nx), ip.Ly/float64(ip.Ny)); err != nil {
		return
	}
	if c.Model, err = ip.NewModel(); err != nil {
		return
	}
	var ls linsolve.LinearSolver
	if ls, err = linsolve.New(ip.LinearSolver); err != nil {
		return
	}
	params := transport.Params{
		Tolerance:      ip.Tolerance,
		MaxIterations:  ip.MaxIterations,
		ParallelDegree: ip.ParallelDegree,
		Verbose:        verbose,
	}
	var ts *transport.TransportSolverTwophaseAD
	if ts, err = transport.New(c.Grid, c.Model, ls, params); err != nil {
		return
	}
	c.Solver = ts
	c.State = state.NewTwophaseState(c.Grid)
	c.State.SetSaturation(ip.InitialSaturation)
	var (
		flux    = c.State.FaceFlux()
		maxFlux float64
	)
	// uniform velocity along +x
	for f, face := range c.Grid.Faces {
		flux[f] = ip.InjectionRate / ip.Ly * face.Normal[0]
		maxFlux = math.Max(maxFlux, math.Abs(flux[f]))
	}
	if c.Source, err = state.ComputeTransportSource(ts.Ops(), nil, flux, ip.InjectedFraction); err != nil {
		return
	}
	c.PoreVolume = make([]float64, c.Grid.NumCells())
	minPV := math.MaxFloat64
	for i, vol := range c.Grid.CellVolumes {
		c.PoreVolume[i] = ip.Porosity * vol
		minPV = math.Min(minPV, c.PoreVolume[i])
	}
	// CFL is measured against the largest face flux
	c.Dt = c.FinalTime
	if maxFlux > 0 {
		c.Dt = math.Min(c.Dt, ip.CFL*minPV/maxFlux)
	}
	return
}

// Step tries to advance by dt, halving it after each failed solve until it would drop below
// MinDt. It returns the step actually taken. Configuration errors are not retried.
func (c *BuckleyLeverett) Step(dt float64) (taken float64, err error) {
	for {
		if err = c.Solver.SolveSource(c.PoreVolume, c.Source, dt, c.State); err == nil {
			return dt, nil
		}
		var se *transport.SolveError
		if !errors.As(err, &se) || dt/2 < c.MinDt {
			return 0, err
		}
		c.Retries++
		if c.Verbose {
			fmt.Printf("step %d failed with dt = %8.5e: %v, retrying with dt/2\n", c.Steps+1, dt, err)
		}
		dt /= 2
	}
}

// Run steps until FinalTime, the last step is shortened to land on it
func (c *BuckleyLeverett) Run() (err error) {
	var (
		elapsed time.Duration
		dt      float64
	)
	c.PrintInitialization()
	for c.FinalTime-c.Time > 1.e-12*c.FinalTime {
		start := time.Now()
		if dt, err = c.Step(math.Min(c.Dt, c.FinalTime-c.Time)); err != nil {
			return fmt.Errorf("at time %8.5f, step %d: %w", c.Time, c.Steps+1, err)
		}
		elapsed += time.Since(start)
		c.accumulate(dt)
		c.Time += dt
		c.Steps++
		if c.LogFreq > 0 && (c.Steps%c.LogFreq == 0 || c.Steps == 1) {
			c.PrintUpdate(dt)
		}
	}
	c.PrintFinal(elapsed)
	return
}

// accumulate books the wetting phase crossing the sources during a step of length dt,
// evaluated at the end of step saturation like the implicit residual does
func (c *BuckleyLeverett) accumulate(dt float64) {
	var (
		s    = c.State.Saturation()
		prod = c.Source.Production()
	)
	for i, q := range c.Source.Injection() {
		c.Injected += dt * q
		if prod[i] < 0 {
			lw, lo := c.Model.Mobility(s[i])
			c.Produced -= dt * prod[i] * lw / (lw + lo)
		}
	}
}

// WaterInPlace is the wetting phase volume in the reservoir
func (c *BuckleyLeverett) WaterInPlace() (v float64) {
	for i, s := range c.State.Saturation() {
		v += c.PoreVolume[i] * s
	}
	return
}

func (c *BuckleyLeverett) PrintInitialization() {
	fmt.Printf("Solving until finaltime = %8.5f, %d cells, dt = %8.5e\n",
		c.FinalTime, c.Grid.NumCells(), c.Dt)
	if c.Verbose {
		fmt.Printf("BLAS: %s\n", utils.BLASBackend())
	}
	fmt.Printf("    iter    time        dt     water  produced\n")
}

func (c *BuckleyLeverett) PrintUpdate(dt float64) {
	fmt.Printf("%8d%8.5f%10.3e%10.5f%10.5f\n", c.Steps, c.Time, dt, c.WaterInPlace(), c.Produced)
}

func (c *BuckleyLeverett) PrintFinal(elapsed time.Duration) {
	if c.Steps == 0 {
		return
	}
	rate := float64(elapsed.Microseconds()) / float64(c.Grid.NumCells()*c.Steps)
	fmt.Printf("\nRate of execution = %8.5f us/(cell*step) over %d steps, %d retries\n",
		rate, c.Steps, c.Retries)
	if c.Verbose {
		fmt.Println(utils.GetMemUsage())
	}
}
