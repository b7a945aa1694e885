package operators

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/notargets/gotransport/autodiff"
	"github.com/notargets/gotransport/utils"
)

// UpwindSelector picks, for every interior face, the cell the flux comes from.
//
// A face with flux >= 0 flows from its first to its second cell, so the first cell is
// upstream. Exactly zero flux therefore always selects the first cell, which keeps the
// selection reproducible for identical input.
type UpwindSelector struct {
	Upstream   utils.Index
	Downstream utils.Index
	up, down   *sparse.CSR
}

func NewUpwindSelector(ops *HelperOps, ifaceflux []float64) (u *UpwindSelector, err error) {
	var (
		nif = len(ops.Nbi)
	)
	if len(ifaceflux) != nif {
		err = fmt.Errorf("upwind selection needs one flux per interior face: got %d, want %d",
			len(ifaceflux), nif)
		return
	}
	u = &UpwindSelector{
		Upstream:   utils.NewIndex(nif),
		Downstream: utils.NewIndex(nif),
	}
	for i, nb := range ops.Nbi {
		if ifaceflux[i] >= 0 {
			u.Upstream[i], u.Downstream[i] = nb[0], nb[1]
		} else {
			u.Upstream[i], u.Downstream[i] = nb[1], nb[0]
		}
	}
	u.up = utils.NewSpSelector(u.Upstream, ops.NumCells)
	u.down = utils.NewSpSelector(u.Downstream, ops.NumCells)
	return
}

// Select gathers the upstream cell value of x onto every interior face
func (u *UpwindSelector) Select(x autodiff.ADB) autodiff.ADB {
	return x.Premultiply(u.up)
}

// SelectDownstream gathers the downstream cell value of x onto every interior face
func (u *UpwindSelector) SelectDownstream(x autodiff.ADB) autodiff.ADB {
	return x.Premultiply(u.down)
}

func (u *UpwindSelector) SelectValues(x []float64) []float64 {
	return utils.SpMulVec(u.up, x)
}

// Matrix returns the 0/1 upstream selection matrix (interior faces x cells)
func (u *UpwindSelector) Matrix() *sparse.CSR { return u.up }
