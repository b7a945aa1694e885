package props

import (
	"fmt"
	"strings"
)

// Lin implements linear relative permeabilities: krw = sw, kro = 1 - sw.
// With equal viscosities the fractional flow equals sw.
type Lin struct {
	muw float64 // wetting phase viscosity
	muo float64 // non-wetting phase viscosity
}

// add model to factory
func init() {
	allocators["lin"] = func() Model { return new(Lin) }
}

// Init initialises model
func (o *Lin) Init(prms Params) (err error) {
	o.muw, o.muo = 1, 1
	for _, p := range prms {
		switch strings.ToLower(p.N) {
		case "muw":
			o.muw = p.V
		case "muo":
			o.muo = p.V
		default:
			return fmt.Errorf("lin: parameter named %q is incorrect", p.N)
		}
	}
	if err = positive("muw", o.muw); err != nil {
		return
	}
	return positive("muo", o.muo)
}

// GetPrms gets (an example) of parameters
func (o Lin) GetPrms(example bool) Params {
	return Params{
		&Param{N: "muw", V: 1},
		&Param{N: "muo", V: 1},
	}
}

func (o Lin) Mobility(sw float64) (lw, lo float64) {
	sw = chop(sw)
	return sw / o.muw, (1 - sw) / o.muo
}

func (o Lin) DmobilityDs(sw float64) (dlw, dlo float64) {
	if sw < 0 || sw > 1 {
		return 0, 0
	}
	return 1 / o.muw, -1 / o.muo
}

func chop(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
