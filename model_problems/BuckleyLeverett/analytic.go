package BuckleyLeverett

import (
	"github.com/notargets/gotransport/props"
)

// fracFlow returns the fractional flow and its saturation derivative
func fracFlow(model props.Model, s float64) (fw, dfw float64) {
	lw, lo := model.Mobility(s)
	dlw, dlo := model.DmobilityDs(s)
	lt := lw + lo
	return lw / lt, (dlw*lo - lw*dlo) / (lt * lt)
}

// ShockSaturation finds the saturation behind the displacement front by the Welge tangent
// construction from the initial saturation sInit. A fractional flow without an inflection
// moves as a single shock to saturation one.
func ShockSaturation(model props.Model, sInit float64) (sShock float64) {
	var (
		fwInit, _ = fracFlow(model, sInit)
		tangent   = func(s float64) float64 {
			fw, dfw := fracFlow(model, s)
			return dfw*(s-sInit) - (fw - fwInit)
		}
		lo, hi = sInit + 1.e-9, 1.
	)
	if !(tangent(lo) > 0) || tangent(hi) > 0 {
		return 1
	}
	return bisect(tangent, lo, hi)
}

// AnalyticSaturation is the Buckley-Leverett similarity solution at positions X and time t,
// for saturation one injected at x = 0 into saturation sInit with interstitial velocity v.
func AnalyticSaturation(model props.Model, sInit, v, t float64, X []float64) (S []float64) {
	var (
		sShock         = ShockSaturation(model, sInit)
		fwShock, _     = fracFlow(model, sShock)
		fwInit, _      = fracFlow(model, sInit)
		xFront         = v * t * (fwShock - fwInit) / (sShock - sInit)
		_, dfwOne      = fracFlow(model, 1)
		xRarefactionLo = v * t * dfwOne
	)
	S = make([]float64, len(X))
	for i, x := range X {
		switch {
		case x > xFront:
			S[i] = sInit
		case x <= xRarefactionLo:
			S[i] = 1
		default:
			// x = v t fw'(s) is decreasing in s behind the front
			S[i] = bisect(func(s float64) float64 {
				_, dfw := fracFlow(model, s)
				return v*t*dfw - x
			}, sShock, 1)
		}
	}
	return
}

// bisect finds a root of f bracketed by [a, b], f(a) and f(b) having opposite signs
func bisect(f func(x float64) float64, a, b float64) float64 {
	var (
		tol = 1.e-12
		fa  = f(a)
	)
	for b-a > tol {
		m := 0.5 * (a + b)
		fm := f(m)
		if fm == 0 {
			return m
		}
		if (fm > 0) == (fa > 0) {
			a, fa = m, fm
		} else {
			b = m
		}
	}
	return 0.5 * (a + b)
}
