/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/notargets/gotransport/InputParameters"
	"github.com/notargets/gotransport/model_problems/BuckleyLeverett"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const exampleFile = `
########################################
Title: "Buckley-Leverett"
Nx: 100
Ny: 1
Lx: 1
Ly: 1
Porosity: 0.2
InjectionRate: 1
InjectedFraction: 1
InitialSaturation: 0
FinalTime: 0.1
CFL: 0.5
MinDt: 1.e-8
RelPerm:
  Model: corey # or lin
  Params:
    swr: 0.2
    sor: 0.2
    nw: 2
    no: 2
LinearSolver: lu # or bicgstab
Tolerance: 1.e-9
MaxIterations: 30
LogFrequency: 10
########################################
`

// TransportCmd represents the transport command
var TransportCmd = &cobra.Command{
	Use:   "transport",
	Short: "Water flood of a Cartesian reservoir with the implicit transport solver",
	Long: `
Runs an implicit Buckley-Leverett displacement described by a YAML case file,

gotransport transport -I case.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		icFile, _ := cmd.Flags().GetString("inputConditionsFile")
		prof, _ := cmd.Flags().GetString("profile")
		usePerf, _ := cmd.Flags().GetBool("perf")
		ip := processInput(icFile)
		switch prof {
		case "":
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
		default:
			fmt.Printf("error: unknown profile type [%s], use cpu or mem\n", prof)
			os.Exit(1)
		}
		run := func() error { return RunTransport(ip) }
		if usePerf {
			err = runWithPerf(run)
		} else {
			err = run()
		}
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func processInput(icFile string) (ip *InputParameters.InputParameters) {
	var (
		err  error
		data []byte
	)
	if len(icFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	if data, err = ioutil.ReadFile(icFile); err != nil {
		panic(err)
	}
	ip = InputParameters.Default()
	if err = ip.Parse(data); err != nil {
		fmt.Printf("error: %s: %s\n", icFile, err.Error())
		os.Exit(1)
	}
	// command line and config file override the case file
	if viper.IsSet("tolerance") {
		ip.Tolerance = viper.GetFloat64("tolerance")
	}
	if viper.IsSet("max_iterations") {
		ip.MaxIterations = viper.GetInt("max_iterations")
	}
	if viper.IsSet("parallel_degree") {
		ip.ParallelDegree = viper.GetInt("parallel_degree")
	}
	if err = ip.Validate(); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	return
}

func init() {
	rootCmd.AddCommand(TransportCmd)
	TransportCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for the case, see the example printed without it")
	TransportCmd.Flags().Float64P("tolerance", "t", 1.e-9, "Newton convergence tolerance on the max-norm of the residual")
	TransportCmd.Flags().IntP("maxIterations", "m", 30, "maximum number of Newton iterations per time step")
	TransportCmd.Flags().IntP("parallelDegree", "p", 1, "goroutines evaluating properties, 0 uses all CPUs")
	TransportCmd.Flags().String("profile", "", "write a cpu or mem profile to the current directory")
	TransportCmd.Flags().Bool("perf", false, "count CPU instructions of the run (linux only)")
	_ = viper.BindPFlag("tolerance", TransportCmd.Flags().Lookup("tolerance"))
	_ = viper.BindPFlag("max_iterations", TransportCmd.Flags().Lookup("maxIterations"))
	_ = viper.BindPFlag("parallel_degree", TransportCmd.Flags().Lookup("parallelDegree"))
}

func RunTransport(ip *InputParameters.InputParameters) (err error) {
	var (
		c       *BuckleyLeverett.BuckleyLeverett
		verbose = viper.GetBool("verbose")
	)
	ip.Print()
	if c, err = BuckleyLeverett.NewBuckleyLeverett(ip, verbose); err != nil {
		return
	}
	if err = c.Run(); err != nil {
		return
	}
	fmt.Printf("Final water in place = %8.5f, produced = %8.5f\n", c.WaterInPlace(), c.Produced)
	return
}
