package InputParameters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/notargets/gotransport/linsolve"
	"github.com/notargets/gotransport/props"
)

// RelPerm selects a relative permeability model by name, Params are passed to its Init
type RelPerm struct {
	Model  string             `json:"Model"`
	Params map[string]float64 `json:"Params"`
}

// Parameters obtained from the YAML case file. ghodss/yaml converts to JSON first, so the
// json tags name the YAML keys.
type InputParameters struct {
	Title             string  `json:"Title"`
	GridFile          string  `json:"GridFile"` // SU2 mesh, replaces the Nx by Ny Cartesian grid
	Nx                int     `json:"Nx"`
	Ny                int     `json:"Ny"`
	Lx                float64 `json:"Lx"`
	Ly                float64 `json:"Ly"`
	Porosity          float64 `json:"Porosity"`
	InjectionRate     float64 `json:"InjectionRate"`     // total flux along +x through a section of height Ly
	InjectedFraction  float64 `json:"InjectedFraction"`  // wetting fraction of the injected fluid
	InitialSaturation float64 `json:"InitialSaturation"` // uniform initial wetting saturation
	FinalTime         float64 `json:"FinalTime"`
	CFL               float64 `json:"CFL"`   // dt = CFL * pore volume / injection rate of one cell
	MinDt             float64 `json:"MinDt"` // smallest time step tried after failures
	RelPerm           RelPerm `json:"RelPerm"`
	LinearSolver      string  `json:"LinearSolver"`
	Tolerance         float64 `json:"Tolerance"`
	MaxIterations     int     `json:"MaxIterations"`
	ParallelDegree    int     `json:"ParallelDegree"`
	LogFrequency      int     `json:"LogFrequency"`
}

// Default returns the parameters of a unit 1D Buckley-Leverett displacement
func Default() *InputParameters {
	return &InputParameters{
		Title:            "Buckley-Leverett",
		Nx:               100,
		Ny:               1,
		Lx:               1,
		Ly:               1,
		Porosity:         0.2,
		InjectionRate:    1,
		InjectedFraction: 1,
		FinalTime:        0.1,
		CFL:              1,
		MinDt:            1.e-8,
		RelPerm:          RelPerm{Model: "corey"},
		LinearSolver:     "lu",
		Tolerance:        1.e-9,
		MaxIterations:    30,
		ParallelDegree:   1,
		LogFrequency:     10,
	}
}

// Parse overlays the file contents on the receiver, keys missing from the file keep their value
func (ip *InputParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	return ip.Validate()
}

func (ip *InputParameters) Validate() (err error) {
	switch {
	case ip.GridFile == "" && (ip.Nx < 1 || ip.Ny < 1):
		return fmt.Errorf("grid dimensions must be positive: Nx, Ny = %d, %d", ip.Nx, ip.Ny)
	case !(ip.Lx > 0) || !(ip.Ly > 0):
		return fmt.Errorf("domain lengths must be positive: Lx, Ly = %g, %g", ip.Lx, ip.Ly)
	case !(ip.Porosity > 0) || ip.Porosity > 1:
		return fmt.Errorf("porosity must lie in (0,1], got %g", ip.Porosity)
	case ip.InjectionRate < 0:
		return fmt.Errorf("injection rate must not be negative, got %g", ip.InjectionRate)
	case ip.InjectedFraction < 0 || ip.InjectedFraction > 1:
		return fmt.Errorf("injected fraction must lie in [0,1], got %g", ip.InjectedFraction)
	case ip.InitialSaturation < 0 || ip.InitialSaturation > 1:
		return fmt.Errorf("initial saturation must lie in [0,1], got %g", ip.InitialSaturation)
	case !(ip.FinalTime > 0):
		return fmt.Errorf("final time must be positive, got %g", ip.FinalTime)
	case !(ip.CFL > 0):
		return fmt.Errorf("CFL must be positive, got %g", ip.CFL)
	case ip.MinDt < 0:
		return fmt.Errorf("minimum time step must not be negative, got %g", ip.MinDt)
	case !(ip.Tolerance > 0):
		return fmt.Errorf("tolerance must be positive, got %g", ip.Tolerance)
	case ip.MaxIterations < 0:
		return fmt.Errorf("max iterations must not be negative, got %d", ip.MaxIterations)
	case ip.ParallelDegree < 0:
		return fmt.Errorf("parallel degree must not be negative, got %d", ip.ParallelDegree)
	}
	if _, err = ip.NewModel(); err != nil {
		return
	}
	if _, err = linsolve.New(ip.LinearSolver); err != nil {
		return
	}
	return
}

// NewModel allocates and initialises the relative permeability model
func (ip *InputParameters) NewModel() (model props.Model, err error) {
	var prms props.Params
	for _, key := range ip.relPermKeys() {
		prms = append(prms, &props.Param{N: key, V: ip.RelPerm.Params[key]})
	}
	return props.NewInit(ip.RelPerm.Model, prms)
}

func (ip *InputParameters) relPermKeys() (keys []string) {
	for k := range ip.RelPerm.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	if ip.GridFile != "" {
		fmt.Printf("[%s]\t\t= Grid File\n", ip.GridFile)
	} else {
		fmt.Printf("[%d x %d]\t\t= Grid\n", ip.Nx, ip.Ny)
	}
	fmt.Printf("[%g x %g]\t\t= Domain\n", ip.Lx, ip.Ly)
	fmt.Printf("%8.5f\t\t= Porosity\n", ip.Porosity)
	fmt.Printf("%8.5f\t\t= Injection Rate\n", ip.InjectionRate)
	fmt.Printf("%8.5f\t\t= Injected Fraction\n", ip.InjectedFraction)
	fmt.Printf("%8.5f\t\t= Initial Saturation\n", ip.InitialSaturation)
	fmt.Printf("%8.5f\t\t= CFL\n", ip.CFL)
	fmt.Printf("%8.5f\t\t= FinalTime\n", ip.FinalTime)
	fmt.Printf("[%s]\t\t\t= Linear Solver\n", ip.LinearSolver)
	fmt.Printf("%8.3e\t\t= Tolerance\n", ip.Tolerance)
	fmt.Printf("[%d]\t\t\t= Max Iterations\n", ip.MaxIterations)
	fmt.Printf("[%s]\t\t\t= RelPerm Model\n", strings.ToLower(ip.RelPerm.Model))
	for _, key := range ip.relPermKeys() {
		fmt.Printf("RelPerm[%s] = %v\n", key, ip.RelPerm.Params[key])
	}
}
