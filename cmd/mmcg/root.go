// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/oxslab/mmcore/mm/cgevolve"
	"github.com/oxslab/mmcore/mm/sim"
	"github.com/oxslab/mmcore/mm/sim/quadratic"
	"github.com/oxslab/mmcore/mm/warn"
)

// cliOptions mirrors the Config option table from spec §6, bound to
// pflag flags on the run/selftest subcommands.
type cliOptions struct {
	method         string
	preconditioner string
	precondWeight  float64

	gradientResetAngle float64
	gradientResetCount int
	kludgeAdjustAngle  float64
	minBracketStep     float64
	maxBracketStep     float64
	anglePrecision     float64
	lineMinRelwidth    float64
	energyPrecision    float64

	maxCycles int
	seed      int64
	fieldZ    float64
	tiltDeg   float64
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:   "mmcg",
		Short: "Drive the conjugate-gradient micromagnetic minimizer",
	}
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newSelftestCmd(opts))
	return root
}

func bindCommonFlags(cmd *cobra.Command, opts *cliOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.method, "method", "fletcher-reeves", "fletcher-reeves or polak-ribiere")
	f.StringVar(&opts.preconditioner, "preconditioner", "msv", "none, msv, or diagonal")
	f.Float64Var(&opts.precondWeight, "preconditioner-weight", 0.5, "preconditioner blend weight in [0,1]")
	f.Float64Var(&opts.gradientResetAngle, "gradient-reset-angle", 80, "degrees")
	f.IntVar(&opts.gradientResetCount, "gradient-reset-count", 50, "max sub-cycles before forced restart")
	f.Float64Var(&opts.kludgeAdjustAngle, "kludge-adjust-angle", 5, "degrees")
	f.Float64Var(&opts.minBracketStep, "minimum-bracket-step", 0.05, "degrees")
	f.Float64Var(&opts.maxBracketStep, "maximum-bracket-step", 10, "degrees")
	f.Float64Var(&opts.anglePrecision, "line-minimum-angle-precision", 0.01, "degrees")
	f.Float64Var(&opts.lineMinRelwidth, "line-minimum-relwidth", 1e-4, "relative span stop criterion")
	f.Float64Var(&opts.energyPrecision, "energy-precision", 1e-14, "ULP scale for slack estimation")
	f.IntVar(&opts.maxCycles, "max-cycles", 200, "maximum Step calls before giving up")
	f.Int64Var(&opts.seed, "seed", 1, "nudge_bestpt PRNG seed")
	f.Float64Var(&opts.fieldZ, "field", 1e5, "applied field magnitude along z, A/m")
	f.Float64Var(&opts.tiltDeg, "tilt", 45, "initial spin tilt from the field axis, degrees")
}

func (o *cliOptions) toConfig() (cgevolve.Config, error) {
	cfg := cgevolve.DefaultConfig()
	switch o.method {
	case "fletcher-reeves":
		cfg.Method = cgevolve.FletcherReeves
	case "polak-ribiere":
		cfg.Method = cgevolve.PolakRibiere
	default:
		return cfg, fmt.Errorf("unknown method %q", o.method)
	}
	switch o.preconditioner {
	case "none":
		cfg.Preconditioner = cgevolve.PrecondNone
	case "msv":
		cfg.Preconditioner = cgevolve.PrecondMsVolume
	case "diagonal":
		cfg.Preconditioner = cgevolve.PrecondDiagonal
	default:
		return cfg, fmt.Errorf("unknown preconditioner %q", o.preconditioner)
	}
	cfg.PreconditionerWeight = o.precondWeight
	cfg.GradientResetAngleDeg = o.gradientResetAngle
	cfg.GradientResetCount = o.gradientResetCount
	cfg.KludgeAdjustAngleDeg = o.kludgeAdjustAngle
	cfg.MinimumBracketStepDeg = o.minBracketStep
	cfg.MaximumBracketStepDeg = o.maxBracketStep
	cfg.LineMinimumAnglePrecisionDeg = o.anglePrecision
	cfg.LineMinimumRelwidth = o.lineMinRelwidth
	cfg.EnergyPrecision = o.energyPrecision
	return cfg, nil
}

func newRunCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Minimize the synthetic Zeeman problem and print convergence progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMinimization(cmd, opts, true)
		},
	}
	bindCommonFlags(cmd, opts)
	return cmd
}

func newSelftestCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the minimizer to completion and fail if it does not converge",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMinimization(cmd, opts, false)
		},
	}
	bindCommonFlags(cmd, opts)
	return cmd
}

func runMinimization(cmd *cobra.Command, opts *cliOptions, verbose bool) error {
	cfg, err := opts.toConfig()
	if err != nil {
		return err
	}

	mesh := quadratic.NewMesh(1, 1e-24)
	field := sim.Vec3{Z: opts.fieldZ}
	zeeman := quadratic.ZeemanModule{Field: field}
	coll := quadratic.Collaborator{}

	theta := opts.tiltDeg * math.Pi / 180
	start := quadratic.NewState(0, mesh,
		[]sim.Vec3{{X: math.Sin(theta), Z: math.Cos(theta)}},
		[]float64{8e5})

	driver := quadratic.Driver{MinStep: 1e-6, MaxStep: 1}
	ev, err := cgevolve.New(cfg, coll, []sim.EnergyModule{zeeman}, driver, opts.seed)
	if err != nil {
		return err
	}
	ev.SetWarningSink(func(m warn.Message) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", m.Text)
	})

	state := sim.State(start)
	var report sim.EnergyReport
	for i := 0; i < opts.maxCycles; i++ {
		state, err = ev.Step(state)
		if err != nil {
			return err
		}
		report, err = coll.ComputeEnergies(state, []sim.EnergyModule{zeeman}, false, false)
		if err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "cycle %4d  energy=%.6e  max|mxHxm|=%.6e\n", i, report.TotalEnergy, report.MaxMxHxm)
		}
		if report.MaxMxHxm < 1e-8 {
			break
		}
	}

	counters := ev.Counters()
	fmt.Fprintf(cmd.OutOrStdout(), "final max|mxHxm|=%.6e  energy-calcs=%d  cycles=%d  bracket=%d  line-min=%d\n",
		report.MaxMxHxm, counters.EnergyCalcCount, counters.CycleCount, counters.BracketCount, counters.LineMinCount)

	if report.MaxMxHxm >= 1e-8 {
		return fmt.Errorf("did not converge within %d cycles: max|mxHxm|=%.3e", opts.maxCycles, report.MaxMxHxm)
	}
	return nil
}
