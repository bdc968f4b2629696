package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/vlsens/internal/config"
	"github.com/san-kum/vlsens/internal/kernel"
	"github.com/spf13/cobra"
)

var (
	configFile string
	dataDir    string
	logLevel   string
	// Flight condition
	preset   string
	alpha    float64
	beta     float64
	controls map[string]string
	// Outputs
	jsonOut    string
	outFile    string
	funcs      []string
	stabDerivs []string
	ctrlDerivs []string
	noSave     bool
	showStats  bool
	// Plotting
	field   string
	surface string
	width   int
	height  int
	// Sweeps
	sweepVars []string
	outputs   []string
	workers   int

	cfg    *config.Config
	logger *slog.Logger
)

// main registers the vlsens commands and exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "vlsens",
		Short:         "vortex-lattice loads and sensitivities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Resolve(configFile); err != nil {
				return err
			}
			if cmd.Flags().Changed("data") {
				cfg.DataDir = dataDir
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			var level slog.Level
			if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")

	conditionFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&preset, "preset", "", "use a named flight condition")
		cmd.Flags().Float64Var(&alpha, "alpha", 0, "angle of attack (deg)")
		cmd.Flags().Float64Var(&beta, "beta", 0, "sideslip angle (deg)")
		cmd.Flags().StringToStringVar(&controls, "control", nil, "control deflections, name=deg")
	}

	checkCmd := &cobra.Command{
		Use:   "check [geometry]",
		Short: "validate a geometry description",
		Args:  cobra.ExactArgs(1),
		RunE:  checkGeometry,
	}

	runCmd := &cobra.Command{
		Use:   "run [geometry]",
		Short: "solve and print forces and derivatives",
		Args:  cobra.ExactArgs(1),
		RunE:  runCase,
	}
	conditionFlags(runCmd)
	runCmd.Flags().StringVar(&jsonOut, "json", "", "also write results to a JSON file")

	sensCmd := &cobra.Command{
		Use:   "sens [geometry]",
		Short: "adjoint sensitivities of outputs",
		Args:  cobra.ExactArgs(1),
		RunE:  runSensitivities,
	}
	conditionFlags(sensCmd)
	sensCmd.Flags().StringSliceVar(&funcs, "func", []string{"CL", "CD"}, "functions (CL, CD, CDi, CM, CR)")
	sensCmd.Flags().StringSliceVar(&stabDerivs, "stab", nil, "stability derivatives, e.g. dCL/dalpha")
	sensCmd.Flags().StringSliceVar(&ctrlDerivs, "control-deriv", nil, "control derivatives, e.g. dCM/delevator")
	sensCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	sensCmd.Flags().BoolVar(&showStats, "stats", false, "print kernel call counters")

	exportCmd := &cobra.Command{
		Use:   "export [geometry]",
		Short: "load and re-export a geometry description",
		Args:  cobra.ExactArgs(1),
		RunE:  exportGeometry,
	}
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	plotCmd := &cobra.Command{
		Use:   "plot [geometry]",
		Short: "plot spanwise strip data",
		Args:  cobra.ExactArgs(1),
		RunE:  plotSpanwise,
	}
	conditionFlags(plotCmd)
	plotCmd.Flags().StringVar(&field, "field", "load", "chord, gamma, load, width or cl")
	plotCmd.Flags().StringVar(&surface, "surface", "", "restrict to one surface")
	plotCmd.Flags().IntVar(&width, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&height, "height", 12, "plot height")

	sweepCmd := &cobra.Command{
		Use:   "sweep [geometry]",
		Short: "evaluate a grid of flight conditions concurrently",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	conditionFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepVars, "var", []string{"alpha=-4:12:9"}, "swept variable, name=from:to:steps")
	sweepCmd.Flags().StringSliceVar(&outputs, "out", []string{"CL", "CD", "CM"}, "outputs to tabulate")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent instances (default from config, else CPUs)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved sensitivity runs",
		RunE:  listRuns,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list flight-condition presets",
		RunE:  listPresets,
	}

	kernelsCmd := &cobra.Command{
		Use:   "kernels",
		Short: "list registered kernels",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range kernel.List() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(checkCmd, runCmd, sensCmd, exportCmd, plotCmd, sweepCmd, listCmd, presetsCmd, kernelsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
