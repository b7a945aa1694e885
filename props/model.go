// Package props implements incompressible two-phase rock/fluid property models: relative
// permeability and viscosity, combined into phase mobilities.
package props

import (
	"fmt"
	"sort"
	"strings"
)

// Param is a named model parameter
type Param struct {
	N string  `json:"N"`
	V float64 `json:"V"`
}

type Params []*Param

// Model computes phase mobilities λ = kr/μ of the wetting (w) and non-wetting (o) phases as
// functions of the wetting saturation sw
type Model interface {
	Init(prms Params) error                    // Init initialises this structure
	GetPrms(example bool) Params               // gets (an example) of parameters
	Mobility(sw float64) (lw, lo float64)      // Mobility returns λw and λo
	DmobilityDs(sw float64) (dlw, dlo float64) // DmobilityDs returns ∂λw/∂sw and ∂λo/∂sw
}

// New allocates a model by name. The model still needs Init.
func New(name string) (model Model, err error) {
	allocator, ok := allocators[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("model %q is not available in 'props' database, have %v", name, Names())
	}
	return allocator(), nil
}

// NewInit allocates a model by name and initialises it with prms
func NewInit(name string, prms Params) (model Model, err error) {
	if model, err = New(name); err != nil {
		return
	}
	if err = model.Init(prms); err != nil {
		return nil, err
	}
	return
}

func Names() (names []string) {
	for name := range allocators {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// allocators holds all available models
var allocators = map[string]func() Model{}

// Find returns the value of the named parameter
func (prms Params) Find(name string) (val float64, ok bool) {
	for _, p := range prms {
		if strings.EqualFold(p.N, name) {
			return p.V, true
		}
	}
	return
}

func positive(name string, v float64) error {
	if !(v > 0) {
		return fmt.Errorf("parameter %q must be positive, got %g", name, v)
	}
	return nil
}
