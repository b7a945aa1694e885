//go:build !linux

package cmd

import "fmt"

func runWithPerf(run func() error) error {
	fmt.Println("perf counters are only available on linux, running without them")
	return run()
}
