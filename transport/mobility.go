package transport

import (
	"github.com/notargets/gotransport/autodiff"
)

// mobilities evaluates both phase mobilities of every cell from the property model and
// carries their saturation derivatives into the AD chain
func (ts *TransportSolverTwophaseAD) mobilities(s autodiff.ADB) (mob [2]autodiff.ADB) {
	var (
		nc       = s.Size()
		sv       = s.Value()
		lw, lo   = make([]float64, nc), make([]float64, nc)
		dlw, dlo = make([]float64, nc), make([]float64, nc)
	)
	// every cell is independent, each partition writes only its own range
	ts.pm.ParallelRange(func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			lw[c], lo[c] = ts.props.Mobility(sv[c])
			dlw[c], dlo[c] = ts.props.DmobilityDs(sv[c])
		}
	})
	mob[0] = s.ChainRule(lw, dlw)
	mob[1] = s.ChainRule(lo, dlo)
	return
}

// fracFlow returns the wetting fractional flow λw / (λw + λo)
func fracFlow(mob [2]autodiff.ADB) autodiff.ADB {
	return mob[0].Div(mob[0].Add(mob[1]))
}
