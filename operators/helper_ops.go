// Package operators builds the discrete operators of a grid once, for reuse by every
// transport solve on that grid.
package operators

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/notargets/gotransport/grid"
	"github.com/notargets/gotransport/utils"
)

// HelperOps holds the sparse operators derived from the grid topology. All matrices are
// read-only after construction and may be shared between solves.
type HelperOps struct {
	NumCells      int
	NumFaces      int
	InternalFaces utils.Index // grid face number of each interior face
	Nbi           [][2]int    // neighbouring cells of each interior face, in face orientation
	BoundaryFaces utils.Index // grid face number of each boundary face
	BoundaryCells utils.Index // interior cell of each boundary face
	BoundarySign  []float64   // +1 when positive face flux leaves BoundaryCells[i]

	// NGrad (interior faces x cells) has +1 at the first and -1 at the second cell of a face
	NGrad *sparse.CSR
	// Grad = -NGrad, the difference c1 - c0 across each interior face
	Grad *sparse.CSR
	// Div = NGrad^T maps interior face fluxes to the net outflow of each cell
	Div *sparse.CSR
	// BoundaryDiv (cells x boundary faces) maps boundary face fluxes to net outflow
	BoundaryDiv *sparse.CSR
}

func NewHelperOps(g *grid.Grid) (ops *HelperOps, err error) {
	if err = g.Validate(); err != nil {
		return
	}
	var (
		nc  = g.NumCells()
		ifs = g.InteriorFaces()
		bfs = g.BoundaryFaces()
		nif = len(ifs)
		nbf = len(bfs)
	)
	ops = &HelperOps{
		NumCells:      nc,
		NumFaces:      g.NumFaces(),
		InternalFaces: ifs,
		Nbi:           make([][2]int, nif),
		BoundaryFaces: bfs,
		BoundaryCells: utils.NewIndex(nbf),
		BoundarySign:  make([]float64, nbf),
	}
	var (
		RI, CI = utils.NewIndex(2*nif), utils.NewIndex(2*nif)
		vals   = make([]float64, 2*nif)
	)
	for i, f := range ifs {
		c := g.Faces[f].Cells
		ops.Nbi[i] = c
		RI[2*i], CI[2*i], vals[2*i] = i, c[0], 1
		RI[2*i+1], CI[2*i+1], vals[2*i+1] = i, c[1], -1
	}
	if ops.NGrad, err = utils.NewSpFromTriplets(nif, nc, RI, CI, vals); err != nil {
		return nil, fmt.Errorf("assembling face gradient: %w", err)
	}
	ops.Grad = utils.SpScale(-1, ops.NGrad)
	if ops.Div, err = utils.NewSpFromTriplets(nc, nif, CI, RI, vals); err != nil {
		return nil, fmt.Errorf("assembling divergence: %w", err)
	}

	var (
		bRI, bCI = utils.NewIndex(nbf), utils.NewIndex(nbf)
	)
	for i, f := range bfs {
		cell, sign := g.BoundaryCell(f)
		ops.BoundaryCells[i], ops.BoundarySign[i] = cell, sign
		bRI[i], bCI[i] = cell, i
	}
	if ops.BoundaryDiv, err = utils.NewSpFromTriplets(nc, nbf, bRI, bCI, ops.BoundarySign); err != nil {
		return nil, fmt.Errorf("assembling boundary divergence: %w", err)
	}
	return
}

// InteriorFlux gathers the interior face entries of a per-face array
func (ops *HelperOps) InteriorFlux(faceflux []float64) []float64 {
	return ops.InternalFaces.Gather(faceflux)
}

// BoundaryFlux gathers the boundary face entries of a per-face array
func (ops *HelperOps) BoundaryFlux(faceflux []float64) []float64 {
	return ops.BoundaryFaces.Gather(faceflux)
}

// BoundaryExchange splits the boundary face fluxes into the rate entering and the rate leaving
// each cell through the boundary. Both are non-negative, a cell can have both.
func (ops *HelperOps) BoundaryExchange(faceflux []float64) (inflow, outflow []float64) {
	var (
		bflux    = ops.BoundaryFlux(faceflux)
		entering = make([]float64, len(bflux))
		leaving  = make([]float64, len(bflux))
	)
	for b, v := range bflux {
		if ops.BoundarySign[b]*v > 0 {
			leaving[b] = v
		} else {
			entering[b] = v
		}
	}
	outflow = utils.SpMulVec(ops.BoundaryDiv, leaving)
	inflow = utils.SpMulVec(ops.BoundaryDiv, entering)
	for c := range inflow {
		inflow[c] = -inflow[c]
	}
	return
}
