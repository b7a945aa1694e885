// Package grid holds the cell/face topology consumed by the transport solver.
package grid

import (
	"errors"
	"fmt"

	"github.com/notargets/gotransport/utils"
)

var ErrMalformed = errors.New("malformed grid")

// Boundary marks the missing neighbour of a boundary face
const Boundary = -1

// Face connects two cells. Positive flux through a face runs from Cells[0] to Cells[1].
// One of the two cells is Boundary for a face on the domain boundary.
type Face struct {
	Cells    [2]int
	Area     float64
	Centroid [3]float64
	Normal   [3]float64
}

type Grid struct {
	Dimensions    int
	CellVolumes   []float64
	CellCentroids [][3]float64
	Faces         []Face
}

func (g *Grid) NumCells() int { return len(g.CellVolumes) }
func (g *Grid) NumFaces() int { return len(g.Faces) }

// IsBoundary reports whether face f has only one neighbouring cell
func (g *Grid) IsBoundary(f int) bool {
	c := g.Faces[f].Cells
	return c[0] == Boundary || c[1] == Boundary
}

// InteriorFaces returns the faces with two neighbouring cells, in face order
func (g *Grid) InteriorFaces() (I utils.Index) {
	I = utils.Index{}
	for f := range g.Faces {
		if !g.IsBoundary(f) {
			I = append(I, f)
		}
	}
	return
}

// BoundaryFaces returns the faces with one neighbouring cell, in face order
func (g *Grid) BoundaryFaces() (I utils.Index) {
	I = utils.Index{}
	for f := range g.Faces {
		if g.IsBoundary(f) {
			I = append(I, f)
		}
	}
	return
}

// BoundaryCell returns the interior cell of boundary face f and the orientation sign:
// +1 when positive face flux leaves the cell, -1 when it enters.
func (g *Grid) BoundaryCell(f int) (cell int, sign float64) {
	c := g.Faces[f].Cells
	if c[1] == Boundary {
		return c[0], 1
	}
	return c[1], -1
}

func (g *Grid) Validate() (err error) {
	var (
		nc = g.NumCells()
	)
	if nc == 0 {
		return fmt.Errorf("%w: grid has no cells", ErrMalformed)
	}
	if g.CellCentroids != nil && len(g.CellCentroids) != nc {
		return fmt.Errorf("%w: %d centroids for %d cells", ErrMalformed, len(g.CellCentroids), nc)
	}
	for c, vol := range g.CellVolumes {
		if !(vol > 0) {
			return fmt.Errorf("%w: cell %d has non-positive volume %g", ErrMalformed, c, vol)
		}
	}
	for f, face := range g.Faces {
		c0, c1 := face.Cells[0], face.Cells[1]
		switch {
		case c0 == Boundary && c1 == Boundary:
			return fmt.Errorf("%w: face %d has no neighbouring cell", ErrMalformed, f)
		case c0 == c1:
			return fmt.Errorf("%w: face %d connects cell %d to itself", ErrMalformed, f, c0)
		case c0 < Boundary || c0 >= nc || c1 < Boundary || c1 >= nc:
			return fmt.Errorf("%w: face %d references cells %v outside [0,%d)", ErrMalformed, f, face.Cells, nc)
		}
	}
	return
}
