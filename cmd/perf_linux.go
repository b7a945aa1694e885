//go:build linux

package cmd

import (
	"fmt"

	perf "github.com/hodgesds/perf-utils"
)

func runWithPerf(run func() error) (err error) {
	var pv *perf.ProfileValue
	pv, err = perf.CPUInstructions(run)
	if err != nil {
		return
	}
	fmt.Printf("CPU instructions = %d (enabled %d ns, running %d ns)\n", pv.Value, pv.TimeEnabled, pv.TimeRunning)
	return
}
