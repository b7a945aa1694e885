package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartesian1D(t *testing.T) {
	g, err := NewCartesian1D(3, 0.5)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.Equal(t, 1, g.Dimensions)
	assert.Equal(t, 3, g.NumCells())
	assert.Equal(t, 4, g.NumFaces())
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, g.CellVolumes)
	assert.Equal(t, [2]int{Boundary, 0}, g.Faces[0].Cells)
	assert.Equal(t, [2]int{0, 1}, g.Faces[1].Cells)
	assert.Equal(t, [2]int{1, 2}, g.Faces[2].Cells)
	assert.Equal(t, [2]int{2, Boundary}, g.Faces[3].Cells)
	assert.Equal(t, []int{1, 2}, []int(g.InteriorFaces()))
	assert.Equal(t, []int{0, 3}, []int(g.BoundaryFaces()))

	cell, sign := g.BoundaryCell(0)
	assert.Equal(t, 0, cell)
	assert.Equal(t, -1., sign)
	cell, sign = g.BoundaryCell(3)
	assert.Equal(t, 2, cell)
	assert.Equal(t, 1., sign)
}

func TestCartesian2D(t *testing.T) {
	var (
		nx, ny = 3, 2
	)
	g, err := NewCartesian2D(nx, ny, 1, 2)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.Equal(t, 2, g.Dimensions)
	assert.Equal(t, nx*ny, g.NumCells())
	assert.Equal(t, (nx+1)*ny+nx*(ny+1), g.NumFaces())
	assert.Equal(t, (nx-1)*ny+nx*(ny-1), len(g.InteriorFaces()))
	assert.Equal(t, 2*ny+2*nx, len(g.BoundaryFaces()))
	// x-face between cells 3 and 4 in the second row
	assert.Equal(t, [2]int{3, 4}, g.Faces[1+(nx+1)*1].Cells)
	// first y-face row is the bottom boundary, second row links j=0 to j=1
	yOff := (nx + 1) * ny
	assert.Equal(t, [2]int{Boundary, 0}, g.Faces[yOff].Cells)
	assert.Equal(t, [2]int{1, 4}, g.Faces[yOff+nx+1].Cells)
	assert.Equal(t, 2., g.CellVolumes[0])

	// every cell is touched by exactly four faces
	touch := make([]int, g.NumCells())
	for _, f := range g.Faces {
		for _, c := range f.Cells {
			if c != Boundary {
				touch[c]++
			}
		}
	}
	for c, n := range touch {
		assert.Equal(t, 4, n, "cell %d", c)
	}
}

func TestValidate(t *testing.T) {
	_, err := NewCartesian1D(0, 1)
	assert.True(t, errors.Is(err, ErrMalformed))
	_, err = NewCartesian2D(2, 2, 1, -1)
	assert.True(t, errors.Is(err, ErrMalformed))

	cases := []*Grid{
		{},
		{CellVolumes: []float64{1, 0}},
		{CellVolumes: []float64{1}, Faces: []Face{{Cells: [2]int{Boundary, Boundary}}}},
		{CellVolumes: []float64{1}, Faces: []Face{{Cells: [2]int{0, 0}}}},
		{CellVolumes: []float64{1}, Faces: []Face{{Cells: [2]int{0, 5}}}},
		{CellVolumes: []float64{1}, CellCentroids: [][3]float64{{}, {}}},
	}
	for i, g := range cases {
		assert.True(t, errors.Is(g.Validate(), ErrMalformed), "case %d", i)
	}
}
