package props

import (
	"fmt"
	"math"
	"strings"
)

// Corey implements power-law relative permeabilities on the normalised saturation
//
//	se  = (sw - swr) / (1 - swr - sor)
//	krw = krwmax * se^nw
//	kro = kromax * (1 - se)^no
type Corey struct {
	// parameters
	swr, sor       float64 // residual saturations
	nw, no         float64 // exponents
	krwmax, kromax float64 // end-point relative permeabilities
	muw, muo       float64 // viscosities

	// derived
	ds float64 // 1 - swr - sor
}

// add model to factory
func init() {
	allocators["corey"] = func() Model { return new(Corey) }
}

// Init initialises model
func (o *Corey) Init(prms Params) (err error) {
	o.nw, o.no = 2, 2
	o.krwmax, o.kromax = 1, 1
	o.muw, o.muo = 1, 1
	for _, p := range prms {
		switch strings.ToLower(p.N) {
		case "swr":
			o.swr = p.V
		case "sor":
			o.sor = p.V
		case "nw":
			o.nw = p.V
		case "no":
			o.no = p.V
		case "krwmax":
			o.krwmax = p.V
		case "kromax":
			o.kromax = p.V
		case "muw":
			o.muw = p.V
		case "muo":
			o.muo = p.V
		default:
			return fmt.Errorf("corey: parameter named %q is incorrect", p.N)
		}
	}
	o.ds = 1 - o.swr - o.sor
	switch {
	case o.swr < 0 || o.sor < 0 || !(o.ds > 0):
		return fmt.Errorf("corey: residual saturations must satisfy swr, sor >= 0 and swr + sor < 1: swr = %g, sor = %g",
			o.swr, o.sor)
	case o.nw < 1 || o.no < 1:
		return fmt.Errorf("corey: exponents must be >= 1: nw = %g, no = %g", o.nw, o.no)
	}
	for _, chk := range []struct {
		n string
		v float64
	}{{"krwmax", o.krwmax}, {"kromax", o.kromax}, {"muw", o.muw}, {"muo", o.muo}} {
		if err = positive(chk.n, chk.v); err != nil {
			return fmt.Errorf("corey: %w", err)
		}
	}
	return
}

// GetPrms gets (an example) of parameters
func (o Corey) GetPrms(example bool) Params {
	return Params{
		&Param{N: "swr", V: 0.1},
		&Param{N: "sor", V: 0.1},
		&Param{N: "nw", V: 2},
		&Param{N: "no", V: 2},
		&Param{N: "krwmax", V: 1},
		&Param{N: "kromax", V: 1},
		&Param{N: "muw", V: 1},
		&Param{N: "muo", V: 5},
	}
}

// se returns the normalised saturation and whether sw lies strictly inside the mobile range
func (o Corey) se(sw float64) (se float64, inside bool) {
	se = (sw - o.swr) / o.ds
	switch {
	case se <= 0:
		return 0, false
	case se >= 1:
		return 1, false
	}
	return se, true
}

func (o Corey) Mobility(sw float64) (lw, lo float64) {
	se, _ := o.se(sw)
	lw = o.krwmax * math.Pow(se, o.nw) / o.muw
	lo = o.kromax * math.Pow(1-se, o.no) / o.muo
	return
}

func (o Corey) DmobilityDs(sw float64) (dlw, dlo float64) {
	se, inside := o.se(sw)
	if !inside {
		return 0, 0
	}
	dlw = o.krwmax * o.nw * math.Pow(se, o.nw-1) / (o.ds * o.muw)
	dlo = -o.kromax * o.no * math.Pow(1-se, o.no-1) / (o.ds * o.muo)
	return
}
