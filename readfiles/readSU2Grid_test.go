package readfiles

import (
	"bytes"
	"strings"
	"testing"

	"github.com/notargets/gotransport/grid"
	"github.com/notargets/gotransport/linsolve"
	"github.com/notargets/gotransport/props"
	"github.com/notargets/gotransport/state"
	"github.com/notargets/gotransport/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSU2(t *testing.T) {
	g, markers, err := ParseSU2(bytes.NewReader(inputFile))
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.Equal(t, 2, g.Dimensions)
	assert.Equal(t, 22, g.NumCells())
	// V - E + F = 1 for a simply connected mesh
	assert.Equal(t, 39, g.NumFaces())
	assert.Equal(t, 12, len(g.BoundaryFaces()))
	var total float64
	for _, vol := range g.CellVolumes {
		total += vol
	}
	assert.InDelta(t, 200., total, 1.e-9)

	labels := []string{"periodic-left", "periodic-right", "top", "bottom"}
	sizes := []int{2, 2, 4, 4}
	require.Equal(t, len(labels), len(markers))
	for i, label := range labels {
		require.Len(t, markers[label], sizes[i], label)
		for _, f := range markers[label] {
			assert.True(t, g.IsBoundary(f), label)
		}
	}
	// bottom edges lie on y = 0 and their normals point down, out of the domain
	for _, f := range markers["bottom"] {
		assert.InDelta(t, 0., g.Faces[f].Centroid[1], 1.e-12)
		assert.Less(t, g.Faces[f].Normal[1], 0.)
	}

	// every cell is closed: the outward normals sum to zero
	closure := make([][2]float64, g.NumCells())
	for _, face := range g.Faces {
		for side, c := range face.Cells {
			if c == grid.Boundary {
				continue
			}
			sign := 1.
			if side == 1 {
				sign = -1
			}
			closure[c][0] += sign * face.Normal[0]
			closure[c][1] += sign * face.Normal[1]
		}
	}
	for c := range closure {
		assert.InDelta(t, 0., closure[c][0], 1.e-9, "cell %d", c)
		assert.InDelta(t, 0., closure[c][1], 1.e-9, "cell %d", c)
	}
}

func TestTransportOnTriangles(t *testing.T) {
	g, _, err := ParseSU2(bytes.NewReader(inputFile))
	require.NoError(t, err)
	// linear fractional flow keeps the implicit upwind system linear and monotone
	pm, err := props.NewInit("lin", nil)
	require.NoError(t, err)
	ts, err := transport.New(g, pm, &linsolve.DenseLU{}, transport.DefaultParams())
	require.NoError(t, err)

	// uniform velocity along +x, divergence free on the mesh
	st := state.NewTwophaseState(g)
	for f, face := range g.Faces {
		st.FaceFlux()[f] = face.Normal[0]
	}
	q, err := state.ComputeTransportSource(ts.Ops(), nil, st.FaceFlux(), 1)
	require.NoError(t, err)
	var qsum float64
	for _, v := range q.Net() {
		qsum += v
	}
	assert.InDelta(t, 0., qsum, 1.e-9)

	var (
		pv = make([]float64, g.NumCells())
		dt = 0.1
	)
	for c, vol := range g.CellVolumes {
		pv[c] = 0.2 * vol
	}
	require.NoError(t, ts.SolveSource(pv, q, dt, st))
	var (
		water, balance float64
	)
	for c, s := range st.Saturation() {
		assert.GreaterOrEqual(t, s, 0.)
		assert.LessOrEqual(t, s, 1.)
		water += pv[c] * s
		lw, lo := pm.Mobility(s)
		balance += dt * (q.Injection()[c] + q.Production()[c]*lw/(lw+lo))
	}
	assert.Greater(t, water, 0.)
	assert.InDelta(t, balance, water, 1.e-7)
}

func TestParseSU2Errors(t *testing.T) {
	for name, text := range map[string]string{
		"3D":        "NDIME= 3\n",
		"element":   "NDIME= 2\nNELEM= 1\n7 0 1 2 3\n",
		"truncated": "NDIME= 2\nNELEM= 2\n5 0 1 2 0\n",
		"vertex":    "NDIME= 2\nNELEM= 1\n5 0 1 3 0\nNPOIN= 3\n0 0\n1 0\n0 1\nNMARK= 0\n",
		"marker":    "NDIME= 2\nNELEM= 1\n5 0 1 2 0\nNPOIN= 3\n0 0\n1 0\n0 1\nNMARK= 1\nMARKER_TAG= wall\nMARKER_ELEMS= 1\n3 0 5\n",
	} {
		_, _, err := ParseSU2(strings.NewReader(text))
		assert.ErrorIs(t, err, grid.ErrMalformed, name)
	}
	// clockwise input is reoriented
	g, markers, err := ParseSU2(strings.NewReader(
		"NDIME= 2\nNELEM= 1\n5 0 2 1 0\nNPOIN= 3\n0 0\n1 0\n0 1\nNMARK= 1\nMARKER_TAG= wall\nMARKER_ELEMS= 1\n3 0 1"))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, g.CellVolumes[0], 1.e-15)
	assert.InDeltaSlice(t, []float64{1. / 3., 1. / 3., 0}, g.CellCentroids[0][:], 1.e-15)
	require.Len(t, markers["wall"], 1)
	assert.Equal(t, [3]float64{0, -1, 0}, g.Faces[markers["wall"][0]].Normal)
}

var (
	inputFile = []byte(` %This is an example input file in SU2 format, output from gmsh
% Comments can appear outside of data areas
NDIME= 2
% Comments can appear outside of data areas
NELEM= 22
5 5 6 13 0
5 9 10 12 1
5 12 5 13 2
5 9 12 13 3
5 13 6 14 4
5 12 10 15 5
5 8 9 13 6
5 4 5 12 7
5 1 7 14 8
5 6 1 14 9
5 3 11 15 10
5 10 3 15 11
5 8 13 16 12
5 4 12 17 13
5 13 14 16 14
5 12 15 17 15
5 7 2 16 16
5 11 0 17 17
5 2 8 16 18
5 0 4 17 19
5 14 7 16 20
5 15 11 17 21
% Comments can appear outside of data areas
NPOIN= 18
-10 0 0
10 0 1
10 10 2
-10 10 3
-5.000000000004944 0 4
-1.231725832440134e-11 0 5
4.99999999999384 0 6
10 4.999999999992398 7
5.000000000004944 10 8
1.231725832440134e-11 10 9
-4.99999999999384 10 10
-10 5 11
-2.500000000008632 4.330127018915808 12
2.50000000000863 5.669872981084192 13
6.712741669205853 3.668411415814691 14
-6.712741669205681 6.331588584184096 15
7.100939331384343 7.110089675963254 16
-7.100939331382065 2.889910324036197 17
NMARK= 4
% Comments can appear outside of data areas
MARKER_TAG= periodic-left
% Comments can appear outside of data areas
MARKER_ELEMS= 2
3 3 11
3 11 0
% Comments can appear outside of data areas
MARKER_TAG= periodic-right
MARKER_ELEMS= 2
3 1 7
3 7 2
% Comments can appear outside of data areas
MARKER_TAG= top
MARKER_ELEMS= 4
3 2 8
3 8 9
3 9 10
3 10 3
MARKER_TAG= bottom
% Comments can appear outside of data areas
MARKER_ELEMS= 4
3 0 4
3 4 5
3 5 6
3 6 1
% Comments can appear outside of data areas
`)
)
