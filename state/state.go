// Package state holds the two-phase reservoir state read and written by the transport solver.
package state

import (
	"fmt"

	"github.com/notargets/gotransport/grid"
	"github.com/notargets/gotransport/operators"
)

// TwophaseState stores one total flux per face and one wetting-phase saturation per cell
type TwophaseState struct {
	faceflux   []float64
	saturation []float64
}

func NewTwophaseState(g *grid.Grid) *TwophaseState {
	return &TwophaseState{
		faceflux:   make([]float64, g.NumFaces()),
		saturation: make([]float64, g.NumCells()),
	}
}

// FromArrays wraps existing arrays without copying them
func FromArrays(faceflux, saturation []float64) *TwophaseState {
	return &TwophaseState{faceflux: faceflux, saturation: saturation}
}

// FaceFlux returns the per-face total flux, writable in place
func (s *TwophaseState) FaceFlux() []float64 { return s.faceflux }

// Saturation returns the per-cell wetting saturation, writable in place
func (s *TwophaseState) Saturation() []float64 { return s.saturation }

// NonWetting returns 1 - s per cell
func (s *TwophaseState) NonWetting() (so []float64) {
	so = make([]float64, len(s.saturation))
	for i, sw := range s.saturation {
		so[i] = 1 - sw
	}
	return
}

func (s *TwophaseState) SetSaturation(sw float64) {
	for i := range s.saturation {
		s.saturation[i] = sw
	}
}

func (s *TwophaseState) Copy() *TwophaseState {
	return &TwophaseState{
		faceflux:   append([]float64{}, s.faceflux...),
		saturation: append([]float64{}, s.saturation...),
	}
}

// TransportSource is the per-cell transport source, with the wetting phase injection rate and
// the total production rate kept apart. Netting them per cell would cancel the inflow against
// the outflow of a cell that is both fed and drained through its boundary.
type TransportSource struct {
	injection  []float64 // >= 0
	production []float64 // <= 0
}

func NewTransportSource(nc int) *TransportSource {
	return &TransportSource{
		injection:  make([]float64, nc),
		production: make([]float64, nc),
	}
}

// SplitSource separates a signed per-cell rate, positive entries inject and negative
// entries produce. A nil rate gives a nil source.
func SplitSource(net []float64) (q *TransportSource) {
	if net == nil {
		return nil
	}
	q = NewTransportSource(len(net))
	for c, v := range net {
		if v > 0 {
			q.injection[c] = v
		} else {
			q.production[c] = v
		}
	}
	return
}

// Injection is the wetting phase rate entering each cell
func (q *TransportSource) Injection() []float64 {
	if q == nil {
		return nil
	}
	return q.injection
}

// Production is the total rate leaving each cell, negative or zero
func (q *TransportSource) Production() []float64 {
	if q == nil {
		return nil
	}
	return q.production
}

func (q *TransportSource) Net() (net []float64) {
	net = make([]float64, len(q.injection))
	for c := range net {
		net[c] = q.injection[c] + q.production[c]
	}
	return
}

// ComputeTransportSource builds the transport source from a total source per cell and the
// fluxes through boundary faces. Inflow (positive source, or flux entering through a boundary
// face) is scaled by inflowFrac, the wetting fraction of the injected fluid. Outflow stays a
// negative total rate; the transport residual multiplies it by the fractional flow of the
// producing cell.
func ComputeTransportSource(ops *operators.HelperOps, src, faceflux []float64, inflowFrac float64) (q *TransportSource, err error) {
	var (
		nc = ops.NumCells
	)
	switch {
	case src != nil && len(src) != nc:
		return nil, fmt.Errorf("source has %d entries for %d cells", len(src), nc)
	case len(faceflux) != ops.NumFaces:
		return nil, fmt.Errorf("face flux has %d entries for %d faces", len(faceflux), ops.NumFaces)
	case inflowFrac < 0 || inflowFrac > 1:
		return nil, fmt.Errorf("inflow fraction must lie in [0,1], got %g", inflowFrac)
	}
	q = NewTransportSource(nc)
	for c := range src {
		if src[c] > 0 {
			q.injection[c] = src[c] * inflowFrac
		} else {
			q.production[c] = src[c]
		}
	}
	inflow, outflow := ops.BoundaryExchange(faceflux)
	for c := range q.injection {
		q.injection[c] += inflow[c] * inflowFrac
		q.production[c] -= outflow[c]
	}
	return
}
