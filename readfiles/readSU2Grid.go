// Package readfiles builds transport grids from unstructured 2D meshes in SU2 format.
package readfiles

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/notargets/gotransport/grid"
)

// From here: https://su2code.github.io/docs_v7/Mesh-File/
type SU2ElementType uint8

const (
	ELType_LINE          SU2ElementType = 3
	ELType_Triangle      SU2ElementType = 5
	ELType_Quadrilateral SU2ElementType = 9
)

// Markers maps each SU2 marker tag to the boundary faces it covers, in file order
type Markers map[string][]int

type edgeKey [2]int

func newEdgeKey(v1, v2 int) edgeKey {
	if v1 > v2 {
		v1, v2 = v2, v1
	}
	return edgeKey{v1, v2}
}

type su2Mesh struct {
	cells   [][]int // vertex numbers, counter clockwise after reading
	vx, vy  []float64
	markers map[string][]edgeKey
	tags    []string
}

func ReadSU2(filename string, verbose bool) (g *grid.Grid, markers Markers, err error) {
	var (
		file *os.File
	)
	if verbose {
		fmt.Printf("Reading SU2 file named: %s\n", filename)
	}
	if file, err = os.Open(filename); err != nil {
		return nil, nil, fmt.Errorf("unable to open file %s: %w", filename, err)
	}
	defer file.Close()
	if g, markers, err = ParseSU2(file); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filename, err)
	}
	if verbose {
		fmt.Printf("Read %d cells, %d faces, %d markers\n", g.NumCells(), g.NumFaces(), len(markers))
	}
	return
}

// ParseSU2 reads a 2D SU2 mesh of triangles and quadrilaterals. Every mesh edge becomes a face,
// oriented from its first cell outwards, with a normal scaled by the edge length.
func ParseSU2(r io.Reader) (g *grid.Grid, markers Markers, err error) {
	var (
		reader = bufio.NewReader(r)
		mesh   = &su2Mesh{markers: make(map[string][]edgeKey)}
		dim    int
	)
	if dim, err = readNumber(reader); err != nil {
		return
	}
	if dim != 2 {
		return nil, nil, fmt.Errorf("%w: only 2 dimensional meshes are supported, NDIME = %d", grid.ErrMalformed, dim)
	}
	if err = mesh.readElements(reader); err != nil {
		return
	}
	if err = mesh.readVertices(reader); err != nil {
		return
	}
	if err = mesh.readBCs(reader); err != nil {
		return
	}
	return mesh.build()
}

func (m *su2Mesh) readElements(reader *bufio.Reader) (err error) {
	var (
		K int
	)
	if K, err = readNumber(reader); err != nil {
		return
	}
	m.cells = make([][]int, K)
	for k := 0; k < K; k++ {
		var (
			line   string
			fields []int
		)
		if line, err = getLine(reader); err != nil {
			return
		}
		if fields, err = parseInts(line); err != nil {
			return
		}
		if len(fields) == 0 {
			return fmt.Errorf("%w: empty element line %d", grid.ErrMalformed, k)
		}
		var nv int
		switch SU2ElementType(fields[0]) {
		case ELType_Triangle:
			nv = 3
		case ELType_Quadrilateral:
			nv = 4
		default:
			return fmt.Errorf("%w: unable to deal with element type %d", grid.ErrMalformed, fields[0])
		}
		if len(fields) < nv+1 {
			return fmt.Errorf("%w: element %d has %d vertices, expected %d", grid.ErrMalformed, k, len(fields)-1, nv)
		}
		m.cells[k] = append([]int{}, fields[1:nv+1]...)
	}
	return
}

func (m *su2Mesh) readVertices(reader *bufio.Reader) (err error) {
	var (
		n, Nv int
		x, y  float64
		line  string
	)
	if Nv, err = readNumber(reader); err != nil {
		return
	}
	m.vx, m.vy = make([]float64, Nv), make([]float64, Nv)
	for i := 0; i < Nv; i++ {
		if line, err = getLine(reader); err != nil {
			return
		}
		if n, err = fmt.Sscanf(line, "%f %f", &x, &y); err != nil || n != 2 {
			return fmt.Errorf("%w: unable to read coordinates of vertex %d from [%s]", grid.ErrMalformed, i, line)
		}
		m.vx[i], m.vy[i] = x, y
	}
	return
}

func (m *su2Mesh) readBCs(reader *bufio.Reader) (err error) {
	var (
		NBCs, nEdges  int
		nType, v1, v2 int
		label, line   string
	)
	if NBCs, err = readNumber(reader); err != nil {
		return
	}
	for n := 0; n < NBCs; n++ {
		if label, err = readLabel(reader); err != nil {
			return
		}
		if nEdges, err = readNumber(reader); err != nil {
			return
		}
		// repeated tags, periodic pairs for instance, accumulate
		if _, ok := m.markers[label]; !ok {
			m.tags = append(m.tags, label)
		}
		for i := 0; i < nEdges; i++ {
			if line, err = getLine(reader); err != nil {
				return
			}
			if _, err = fmt.Sscanf(line, "%d %d %d", &nType, &v1, &v2); err != nil {
				return fmt.Errorf("%w: marker %s: %v", grid.ErrMalformed, label, err)
			}
			if SU2ElementType(nType) != ELType_LINE {
				return fmt.Errorf("%w: marker %s: BCs should only contain line elements in 2D", grid.ErrMalformed, label)
			}
			m.markers[label] = append(m.markers[label], newEdgeKey(v1, v2))
		}
	}
	return
}

func (m *su2Mesh) build() (g *grid.Grid, markers Markers, err error) {
	var (
		K     = len(m.cells)
		Nv    = len(m.vx)
		faces = make(map[edgeKey]int)
	)
	g = &grid.Grid{
		Dimensions:    2,
		CellVolumes:   make([]float64, K),
		CellCentroids: make([][3]float64, K),
	}
	for k, verts := range m.cells {
		for _, v := range verts {
			if v < 0 || v >= Nv {
				return nil, nil, fmt.Errorf("%w: element %d references vertex %d of %d", grid.ErrMalformed, k, v, Nv)
			}
		}
		area, cx, cy := m.polygon(verts)
		if area < 0 {
			// clockwise, reverse so edge normals (dy, -dx) point outwards
			for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
				verts[i], verts[j] = verts[j], verts[i]
			}
			area = -area
		}
		if !(area > 0) {
			return nil, nil, fmt.Errorf("%w: element %d is degenerate", grid.ErrMalformed, k)
		}
		g.CellVolumes[k] = area
		g.CellCentroids[k] = [3]float64{cx, cy, 0}
		for i, v1 := range verts {
			v2 := verts[(i+1)%len(verts)]
			key := newEdgeKey(v1, v2)
			if f, ok := faces[key]; ok {
				if g.Faces[f].Cells[1] != grid.Boundary {
					return nil, nil, fmt.Errorf("%w: edge (%d,%d) is shared by more than two elements",
						grid.ErrMalformed, key[0], key[1])
				}
				g.Faces[f].Cells[1] = k
				continue
			}
			var (
				dx, dy = m.vx[v2] - m.vx[v1], m.vy[v2] - m.vy[v1]
			)
			faces[key] = len(g.Faces)
			g.Faces = append(g.Faces, grid.Face{
				Cells:    [2]int{k, grid.Boundary},
				Area:     math.Hypot(dx, dy),
				Centroid: [3]float64{0.5 * (m.vx[v1] + m.vx[v2]), 0.5 * (m.vy[v1] + m.vy[v2]), 0},
				Normal:   [3]float64{dy, -dx, 0},
			})
		}
	}
	markers = make(Markers, len(m.tags))
	for _, tag := range m.tags {
		for _, key := range m.markers[tag] {
			f, ok := faces[key]
			if !ok || !g.IsBoundary(f) {
				return nil, nil, fmt.Errorf("%w: marker %s edge (%d,%d) is not a boundary edge of the mesh",
					grid.ErrMalformed, tag, key[0], key[1])
			}
			markers[tag] = append(markers[tag], f)
		}
	}
	return
}

// polygon returns the signed area and the centroid of a cell
func (m *su2Mesh) polygon(verts []int) (area, cx, cy float64) {
	for i, v1 := range verts {
		v2 := verts[(i+1)%len(verts)]
		cross := m.vx[v1]*m.vy[v2] - m.vx[v2]*m.vy[v1]
		area += cross
		cx += (m.vx[v1] + m.vx[v2]) * cross
		cy += (m.vy[v1] + m.vy[v2]) * cross
	}
	area *= 0.5
	if area != 0 {
		cx /= 6 * area
		cy /= 6 * area
	}
	return
}

func parseInts(line string) (vals []int, err error) {
	for _, tok := range strings.Fields(line) {
		var v int
		if _, err = fmt.Sscanf(tok, "%d", &v); err != nil {
			return nil, fmt.Errorf("%w: bad integer [%s] in [%s]", grid.ErrMalformed, tok, line)
		}
		vals = append(vals, v)
	}
	return
}

func getToken(reader *bufio.Reader) (token string, err error) {
	var (
		line string
	)
	if line, err = getLineNoComments(reader); err != nil {
		return
	}
	ind := strings.Index(line, "=")
	if ind < 0 {
		return "", fmt.Errorf("%w: badly formed input line [%s], should have an =", grid.ErrMalformed, line)
	}
	token = line[ind+1:]
	return
}

func readLabel(reader *bufio.Reader) (label string, err error) {
	var (
		token string
	)
	if token, err = getToken(reader); err != nil {
		return
	}
	if _, err = fmt.Sscanf(token, "%s", &label); err != nil {
		return "", fmt.Errorf("%w: unable to read label from token: [%s]", grid.ErrMalformed, token)
	}
	label = strings.Trim(label, " ")
	return
}

func readNumber(reader *bufio.Reader) (num int, err error) {
	var (
		token string
	)
	if token, err = getToken(reader); err != nil {
		return
	}
	if _, err = fmt.Sscanf(token, "%d", &num); err != nil {
		return 0, fmt.Errorf("%w: unable to read number from token: [%s]", grid.ErrMalformed, token)
	}
	return
}

func getLineNoComments(reader *bufio.Reader) (line string, err error) {
	for {
		if line, err = getLine(reader); err != nil {
			return
		}
		line = strings.Trim(line, " ")
		if !strings.HasPrefix(line, "%") {
			return
		}
	}
}

func getLine(reader *bufio.Reader) (line string, err error) {
	line, err = reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) != 0 {
			err = nil
		} else {
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: early end of file", grid.ErrMalformed)
			}
			return
		}
	}
	line = strings.TrimRight(line, "\r\n")
	return
}
