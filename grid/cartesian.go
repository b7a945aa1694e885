package grid

import "fmt"

// NewCartesian1D builds nx cells of width dx and unit cross section along x.
// Face i sits at x = i*dx, faces 0 and nx are the left and right boundaries.
func NewCartesian1D(nx int, dx float64) (g *Grid, err error) {
	return NewCartesian2D(nx, 1, dx, 1)
}

// NewCartesian2D builds an nx by ny grid with cell c = i + nx*j.
// The first (nx+1)*ny faces are x-faces ordered row by row (face i + (nx+1)*j), followed by
// nx*(ny+1) y-faces when ny > 1. With ny == 1 the grid is one dimensional and has no y-faces.
// Faces are oriented along +x and +y so positive flux runs in the coordinate direction.
func NewCartesian2D(nx, ny int, dx, dy float64) (g *Grid, err error) {
	if nx < 1 || ny < 1 {
		err = fmt.Errorf("%w: cartesian dimensions must be positive: nx, ny = %d, %d", ErrMalformed, nx, ny)
		return
	}
	if !(dx > 0) || !(dy > 0) {
		err = fmt.Errorf("%w: cartesian spacing must be positive: dx, dy = %g, %g", ErrMalformed, dx, dy)
		return
	}
	var (
		nc   = nx * ny
		cell = func(i, j int) int {
			if i < 0 || i >= nx || j < 0 || j >= ny {
				return Boundary
			}
			return i + nx*j
		}
	)
	g = &Grid{
		Dimensions:    2,
		CellVolumes:   make([]float64, nc),
		CellCentroids: make([][3]float64, nc),
		Faces:         make([]Face, 0, (nx+1)*ny+nx*(ny+1)),
	}
	if ny == 1 {
		g.Dimensions = 1
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			c := cell(i, j)
			g.CellVolumes[c] = dx * dy
			g.CellCentroids[c] = [3]float64{(float64(i) + 0.5) * dx, (float64(j) + 0.5) * dy, 0}
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i <= nx; i++ {
			g.Faces = append(g.Faces, Face{
				Cells:    [2]int{cell(i-1, j), cell(i, j)},
				Area:     dy,
				Centroid: [3]float64{float64(i) * dx, (float64(j) + 0.5) * dy, 0},
				Normal:   [3]float64{dy, 0, 0},
			})
		}
	}
	if ny > 1 {
		for j := 0; j <= ny; j++ {
			for i := 0; i < nx; i++ {
				g.Faces = append(g.Faces, Face{
					Cells:    [2]int{cell(i, j-1), cell(i, j)},
					Area:     dx,
					Centroid: [3]float64{(float64(i) + 0.5) * dx, float64(j) * dy, 0},
					Normal:   [3]float64{0, dx, 0},
				})
			}
		}
	}
	return
}
