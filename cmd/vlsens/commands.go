package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/san-kum/vlsens/internal/config"
	"github.com/san-kum/vlsens/internal/geom"
	"github.com/san-kum/vlsens/internal/report"
	"github.com/san-kum/vlsens/internal/solver"
	"github.com/san-kum/vlsens/internal/storage"
	"github.com/san-kum/vlsens/internal/sweep"
	"github.com/spf13/cobra"
)

const bannerWidth = 60

func solverOptions() solver.Options {
	return solver.Options{
		Kernel:    cfg.Kernel,
		Tolerance: cfg.Tolerance,
		FDStep:    cfg.FDStep,
		Logger:    logger,
	}
}

// condition merges, in increasing precedence, the config file, a preset and
// the command-line flags.
func condition(cmd *cobra.Command) (config.Condition, error) {
	c := cfg.Condition
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return c, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		c = *p
	}
	if cmd.Flags().Changed("alpha") {
		c.Alpha = alpha
	}
	if cmd.Flags().Changed("beta") {
		c.Beta = beta
	}
	if len(controls) > 0 {
		merged := make(map[string]float64, len(c.Controls)+len(controls))
		for k, v := range c.Controls {
			merged[k] = v
		}
		for k, s := range controls {
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return c, fmt.Errorf("control %s: %w", k, err)
			}
			merged[k] = x
		}
		c.Controls = merged
	}
	return c, nil
}

// solve loads path, applies the flight condition and executes.
func solve(cmd *cobra.Command, path string) (*solver.Instance, error) {
	c, err := condition(cmd)
	if err != nil {
		return nil, err
	}
	inst, err := solver.LoadFile(path, solverOptions())
	if err != nil {
		return nil, err
	}
	if err := c.Apply(inst); err != nil {
		return nil, err
	}
	if err := inst.Execute(); err != nil {
		return nil, err
	}
	return inst, nil
}

func checkGeometry(cmd *cobra.Command, args []string) error {
	desc, err := geom.LoadFile(args[0])
	if err != nil {
		return err
	}
	rep, err := geom.Validate(desc)
	if err != nil {
		return err
	}
	fmt.Println(report.Warnings(rep.Warnings))

	inst, err := solver.Load(desc, solverOptions())
	if err != nil {
		return err
	}
	strips, vortices := inst.MeshSize()
	fmt.Println(report.Banner(inst.Title(), inst.KernelName(), bannerWidth))
	fmt.Println(report.Metric("surfaces", inst.NumSurfaces()))
	fmt.Println(report.Metric("bodies", len(inst.BodyNames(false))))
	fmt.Println(report.Metric("controls", inst.NumControls()))
	fmt.Println(report.Metric("strips", strips))
	fmt.Println(report.Metric("vortices", vortices))
	return nil
}

func runCase(cmd *cobra.Command, args []string) error {
	inst, err := solve(cmd, args[0])
	if err != nil {
		return err
	}
	data, err := storage.Collect(inst, args[0], nil)
	if err != nil {
		return err
	}

	fmt.Println(report.Banner(inst.Title(), inst.KernelName(), bannerWidth))
	fmt.Println(report.Heading("forces"))
	fmt.Println(report.Forces(data.Forces))
	fmt.Println(report.Heading("surfaces"))
	fmt.Println(report.Surfaces(data.Surfaces, inst.SurfaceNames(false)))
	fmt.Println(report.Heading("stability derivatives"))
	fmt.Println(report.Derivatives(data.StabDerivs))
	if len(data.ControlDerivs) > 0 {
		fmt.Println(report.Heading("control derivatives"))
		fmt.Println(report.Derivatives(data.ControlDerivs))
	}

	if jsonOut != "" {
		if err := storage.ExportJSON(jsonOut, data); err != nil {
			return err
		}
		fmt.Printf("\nwritten to %s\n", jsonOut)
	}
	return nil
}

func runSensitivities(cmd *cobra.Command, args []string) error {
	inst, err := solve(cmd, args[0])
	if err != nil {
		return err
	}
	req := solver.Request{Funcs: funcs, StabDerivs: stabDerivs, ControlDerivs: ctrlDerivs}
	res, err := inst.Sensitivities(req)
	if err != nil {
		return err
	}
	forces, err := inst.TotalForces()
	if err != nil {
		return err
	}

	fmt.Println(report.Banner(inst.Title(), inst.KernelName(), bannerWidth))
	fmt.Println(report.Heading("sensitivities"))
	fmt.Println(report.Sensitivities(res))

	if showStats {
		printStats(inst)
	}

	if noSave {
		return nil
	}
	cond := make(map[string]float64)
	for _, name := range inst.ConstraintNames() {
		if x, err := inst.Constraint(name); err == nil {
			cond[name] = x
		}
	}
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Geometry:  args[0],
		Title:     inst.Title(),
		Kernel:    inst.KernelName(),
		Condition: cond,
		Forces:    forces,
	}, res)
	if err != nil {
		return err
	}
	fmt.Printf("\nsaved: %s\n", runID)
	return nil
}

func printStats(inst *solver.Instance) {
	families, err := inst.Metrics().Registry().Gather()
	if err != nil {
		logger.Warn("gather metrics", "error", err)
		return
	}
	fmt.Println(report.Heading("kernel activity"))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			fmt.Printf("%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
}

func exportGeometry(cmd *cobra.Command, args []string) error {
	inst, err := solver.LoadFile(args[0], solverOptions())
	if err != nil {
		return err
	}
	desc, err := inst.Export()
	if err != nil {
		return err
	}
	if outFile == "" {
		return geom.Encode(os.Stdout, desc)
	}
	return geom.SaveFile(outFile, desc)
}

func plotSpanwise(cmd *cobra.Command, args []string) error {
	inst, err := solve(cmd, args[0])
	if err != nil {
		return err
	}
	strips, err := inst.StripData()
	if err != nil {
		return err
	}
	chart, err := report.PlotSpanwise(strips, surface, field, width, height)
	if err != nil {
		return err
	}
	fmt.Println(chart)
	return nil
}

// parseSweepVar reads name=from:to:steps.
func parseSweepVar(s string) (string, []float64, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("sweep variable %q: want name=from:to:steps", s)
	}
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("sweep variable %q: want name=from:to:steps", s)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, err
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, err
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", nil, err
	}
	return name, sweep.Linspace(lo, hi, n), nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := condition(cmd)
	if err != nil {
		return err
	}
	var names []string
	var ranges [][]float64
	for _, v := range sweepVars {
		name, xs, err := parseSweepVar(v)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, xs)
	}
	conds, err := sweep.Grid(base, names, ranges)
	if err != nil {
		return err
	}
	desc, err := geom.LoadFile(args[0])
	if err != nil {
		return err
	}

	n := workers
	if n == 0 {
		n = cfg.Workers
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	points, err := sweep.New(desc, solverOptions(), n).Run(ctx, conds)
	if err != nil {
		return err
	}

	fmt.Println(report.Sweep(points, names, outputs))
	for _, out := range outputs {
		series := make([]float64, 0, len(points))
		for _, p := range points {
			if p.Err == nil {
				series = append(series, p.Forces[out])
			}
		}
		fmt.Printf("%-4s %s\n", out, report.Sparkline(series, len(series)))
	}
	for _, p := range points {
		if p.Err != nil {
			logger.Warn("sweep point failed", "index", p.Index, "error", p.Err)
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	fmt.Println(report.Runs(runs))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println(report.Presets(config.ListPresets()))
	return nil
}
