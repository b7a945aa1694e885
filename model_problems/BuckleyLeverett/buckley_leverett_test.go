package BuckleyLeverett

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/gotransport/InputParameters"
	"github.com/notargets/gotransport/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallCase() *InputParameters.InputParameters {
	ip := InputParameters.Default()
	ip.Nx = 20
	ip.FinalTime = 0.05
	ip.CFL = 0.2
	ip.LogFrequency = 0
	return ip
}

// flakySolver fails every step longer than maxDt
type flakySolver struct {
	maxDt float64
	calls int
	err   error
}

func (f *flakySolver) SolveSource(porevolume []float64, q transport.Source, dt float64, st transport.State) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if dt > f.maxDt {
		return &transport.SolveError{Wrapped: transport.ErrNotConverged}
	}
	return nil
}

func TestRunConservesWater(t *testing.T) {
	for _, model := range []string{"lin", "corey"} {
		ip := smallCase()
		ip.RelPerm.Model = model
		c, err := NewBuckleyLeverett(ip, false)
		require.NoError(t, err)
		w0 := c.WaterInPlace()
		require.NoError(t, c.Run(), model)
		assert.InDelta(t, ip.FinalTime, c.Time, 1.e-12, model)
		assert.Greater(t, c.Steps, 1, model)
		assert.InDelta(t, c.Injected-c.Produced, c.WaterInPlace()-w0, 1.e-7, model)
		// unit rate, injected fraction one
		assert.InDelta(t, ip.FinalTime, c.Injected, 1.e-12, model)
		s := c.State.Saturation()
		for i := range s {
			assert.GreaterOrEqual(t, s[i], 0., model)
			assert.LessOrEqual(t, s[i], 1., model)
			if i > 0 {
				assert.GreaterOrEqual(t, s[i-1], s[i]-1.e-12, "%s: cell %d", model, i)
			}
		}
		assert.Greater(t, s[0], s[len(s)-1], model)
	}
}

func TestTwoDimensionalRowsMatch(t *testing.T) {
	ip := smallCase()
	ip.Nx, ip.Ny = 10, 3
	ip.FinalTime = 0.02
	c, err := NewBuckleyLeverett(ip, false)
	require.NoError(t, err)
	require.NoError(t, c.Run())
	// flux is uniform in y, every row sees the same 1D displacement
	s := c.State.Saturation()
	for j := 1; j < ip.Ny; j++ {
		assert.InDeltaSlice(t, s[:ip.Nx], s[j*ip.Nx:(j+1)*ip.Nx], 1.e-9, "row %d", j)
	}
}

const twoSquares = `NDIME= 2
NELEM= 4
5 0 1 4 0
5 0 4 3 1
5 1 2 5 2
5 1 5 4 3
NPOIN= 6
0 0 0
1 0 1
2 0 2
0 1 3
1 1 4
2 1 5
NMARK= 2
MARKER_TAG= inlet
MARKER_ELEMS= 1
3 3 0
MARKER_TAG= outlet
MARKER_ELEMS= 1
3 2 5
`

func TestRunOnSU2Mesh(t *testing.T) {
	file := filepath.Join(t.TempDir(), "two_squares.su2")
	require.NoError(t, os.WriteFile(file, []byte(twoSquares), 0644))
	ip := smallCase()
	ip.GridFile = file
	ip.Nx, ip.Ny = 0, 0
	ip.Lx = 2
	ip.RelPerm.Model = "lin"
	ip.CFL = 0.5
	ip.FinalTime = 0.2
	c, err := NewBuckleyLeverett(ip, false)
	require.NoError(t, err)
	require.Equal(t, 4, c.Grid.NumCells())
	assert.InDelta(t, 0.05, c.Dt, 1.e-15)
	require.NoError(t, c.Run())
	assert.Equal(t, 4, c.Steps)
	assert.InDelta(t, c.Injected-c.Produced, c.WaterInPlace(), 1.e-9)
	assert.InDelta(t, 0.2, c.Injected, 1.e-12)
}

func TestSingleCellChannel(t *testing.T) {
	ip := smallCase()
	ip.Nx = 1
	ip.RelPerm.Model = "lin"
	ip.FinalTime = 0.5
	ip.CFL = 2.5
	c, err := NewBuckleyLeverett(ip, false)
	require.NoError(t, err)
	require.Equal(t, 1, c.Grid.NumCells())
	// inflow and outflow of the only cell are booked apart
	assert.Equal(t, []float64{1}, c.Source.Injection())
	assert.Equal(t, []float64{-1}, c.Source.Production())
	require.NoError(t, c.Run())
	assert.Greater(t, c.WaterInPlace(), 0.)
	assert.InDelta(t, c.Injected-c.Produced, c.WaterInPlace(), 1.e-9)
}

func TestStepRetry(t *testing.T) {
	c, err := NewBuckleyLeverett(smallCase(), false)
	require.NoError(t, err)
	fake := &flakySolver{maxDt: 0.3}
	c.Solver = fake
	c.MinDt = 0.1

	dt, err := c.Step(1)
	require.NoError(t, err)
	assert.Equal(t, 0.25, dt)
	assert.Equal(t, 3, fake.calls)
	assert.Equal(t, 2, c.Retries)

	// halving below MinDt gives up with the solver error
	fake.maxDt = 0.01
	_, err = c.Step(1)
	assert.ErrorIs(t, err, transport.ErrNotConverged)

	// configuration errors are returned at once
	fake.err = transport.ErrConfiguration
	fake.calls = 0
	_, err = c.Step(1)
	assert.ErrorIs(t, err, transport.ErrConfiguration)
	assert.Equal(t, 1, fake.calls)
}

func TestRejectsInvalidInput(t *testing.T) {
	ip := smallCase()
	ip.Porosity = 0
	_, err := NewBuckleyLeverett(ip, false)
	assert.Error(t, err)
}

func TestShockSaturation(t *testing.T) {
	ip := InputParameters.Default()
	ip.RelPerm.Params = map[string]float64{"nw": 2, "no": 2}
	m, err := ip.NewModel()
	require.NoError(t, err)
	// equal viscosities and quadratic permeabilities give s* = 1/sqrt(2)
	assert.InDelta(t, 0.7071067811865476, ShockSaturation(m, 0), 1.e-9)

	ip.RelPerm.Model = "lin"
	ip.RelPerm.Params = nil
	m, err = ip.NewModel()
	require.NoError(t, err)
	assert.Equal(t, 1., ShockSaturation(m, 0))
	S := AnalyticSaturation(m, 0, 2, 0.25, []float64{0.1, 0.49, 0.51})
	assert.Equal(t, []float64{1, 1, 0}, S)
}

func TestConvergesToAnalytic(t *testing.T) {
	ip := InputParameters.Default()
	ip.Nx = 200
	ip.CFL = 0.5
	ip.FinalTime = 0.08
	ip.LogFrequency = 0
	c, err := NewBuckleyLeverett(ip, false)
	require.NoError(t, err)
	require.NoError(t, c.Run())

	var (
		dx = ip.Lx / float64(ip.Nx)
		X  = make([]float64, ip.Nx)
	)
	for i := range X {
		X[i] = c.Grid.CellCentroids[i][0]
	}
	exact := AnalyticSaturation(c.Model, ip.InitialSaturation, ip.InjectionRate/ip.Porosity, c.Time, X)
	var l1 float64
	for i, s := range c.State.Saturation() {
		l1 += dx * math.Abs(s-exact[i])
	}
	// implicit upwinding smears the front over a few cells
	assert.Less(t, l1, 0.05)
	// the front has travelled about half way
	assert.Greater(t, exact[int(0.4/dx)], 0.5)
	assert.Zero(t, exact[int(0.6/dx)])
}
