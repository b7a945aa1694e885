package state

import (
	"testing"

	"github.com/notargets/gotransport/grid"
	"github.com/notargets/gotransport/operators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwophaseState(t *testing.T) {
	g, err := grid.NewCartesian1D(3, 1)
	require.NoError(t, err)
	s := NewTwophaseState(g)
	assert.Len(t, s.FaceFlux(), 4)
	assert.Len(t, s.Saturation(), 3)

	s.SetSaturation(0.25)
	s.Saturation()[1] = 1
	assert.Equal(t, []float64{0.75, 0, 0.75}, s.NonWetting())

	c := s.Copy()
	c.Saturation()[0] = 0.5
	assert.Equal(t, 0.25, s.Saturation()[0])

	sw := []float64{1, 0}
	w := FromArrays([]float64{0.5}, sw)
	w.Saturation()[1] = 0.3
	assert.Equal(t, 0.3, sw[1])
}

func newOps(t *testing.T, nx int) *operators.HelperOps {
	t.Helper()
	g, err := grid.NewCartesian1D(nx, 1)
	require.NoError(t, err)
	ops, err := operators.NewHelperOps(g)
	require.NoError(t, err)
	return ops
}

func TestComputeTransportSource(t *testing.T) {
	ops := newOps(t, 3)

	// flow left to right: enters cell 0 through face 0, leaves cell 2 through face 3
	flux := []float64{2, 2, 2, 2}
	q, err := ComputeTransportSource(ops, nil, flux, 0.8)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.6, 0, 0}, q.Injection(), 1.e-15)
	assert.InDeltaSlice(t, []float64{0, 0, -2}, q.Production(), 1.e-15)
	assert.InDeltaSlice(t, []float64{1.6, 0, -2}, q.Net(), 1.e-15)

	// flow right to left, plus a well injecting in the middle and producing in cell 0
	flux = []float64{-1, -1, -1, -1}
	q, err = ComputeTransportSource(ops, []float64{-0.5, 1, 0}, flux, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 1}, q.Injection())
	assert.Equal(t, []float64{-1.5, 0, 0}, q.Production())

	_, err = ComputeTransportSource(ops, []float64{1}, flux, 1)
	assert.Error(t, err)
	_, err = ComputeTransportSource(ops, nil, flux[:2], 1)
	assert.Error(t, err)
	_, err = ComputeTransportSource(ops, nil, flux, 1.5)
	assert.Error(t, err)
}

func TestSourceInAndOutOfOneCell(t *testing.T) {
	ops := newOps(t, 1)
	q, err := ComputeTransportSource(ops, nil, []float64{1, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, q.Injection())
	assert.Equal(t, []float64{-1}, q.Production())
	assert.Equal(t, []float64{0}, q.Net())
}

func TestSplitSource(t *testing.T) {
	q := SplitSource([]float64{2, 0, -3})
	assert.Equal(t, []float64{2, 0, 0}, q.Injection())
	assert.Equal(t, []float64{0, 0, -3}, q.Production())
	q = SplitSource(nil)
	assert.Nil(t, q.Injection())
	assert.Nil(t, q.Production())
}
