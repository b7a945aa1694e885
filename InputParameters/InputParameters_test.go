package InputParameters

import (
	"testing"

	"github.com/notargets/gotransport/props"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := []byte(`
Title: "Quarter five spot"
Nx: 20
Ny: 10
Lx: 2
CFL: 0.5
RelPerm:
  Model: Corey
  Params:
    swr: 0.2
    sor: 0.1
    nw: 3
LinearSolver: bicgstab
`)
	ip := Default()
	require.NoError(t, ip.Parse(data))
	assert.Equal(t, "Quarter five spot", ip.Title)
	assert.Equal(t, 20, ip.Nx)
	assert.Equal(t, 10, ip.Ny)
	assert.Equal(t, 2., ip.Lx)
	assert.Equal(t, 0.5, ip.CFL)
	assert.Equal(t, "bicgstab", ip.LinearSolver)
	// keys absent from the file keep their defaults
	assert.Equal(t, 0.2, ip.Porosity)
	assert.Equal(t, 30, ip.MaxIterations)
	assert.Equal(t, map[string]float64{"swr": 0.2, "sor": 0.1, "nw": 3}, ip.RelPerm.Params)

	m, err := ip.NewModel()
	require.NoError(t, err)
	require.IsType(t, &props.Corey{}, m)
	lw, lo := m.Mobility(0.2)
	assert.Zero(t, lw)
	assert.InDelta(t, 1., lo, 1.e-15)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())
	for name, change := range map[string]func(ip *InputParameters){
		"grid":         func(ip *InputParameters) { ip.Nx = 0 },
		"porosity":     func(ip *InputParameters) { ip.Porosity = 1.5 },
		"fraction":     func(ip *InputParameters) { ip.InjectedFraction = -0.1 },
		"final time":   func(ip *InputParameters) { ip.FinalTime = 0 },
		"tolerance":    func(ip *InputParameters) { ip.Tolerance = 0 },
		"relperm":      func(ip *InputParameters) { ip.RelPerm.Model = "stone" },
		"relperm prms": func(ip *InputParameters) { ip.RelPerm.Params = map[string]float64{"swr": 0.6, "sor": 0.6} },
		"solver":       func(ip *InputParameters) { ip.LinearSolver = "cholesky" },
	} {
		ip := Default()
		change(ip)
		assert.Error(t, ip.Validate(), name)
	}
	ip := Default()
	assert.Error(t, ip.Parse([]byte("Nx: [1, 2]")))
}
