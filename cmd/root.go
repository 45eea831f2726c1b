package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/ecmc-sim/ecmc-sim/sim"
	"github.com/ecmc-sim/ecmc-sim/sim/bounds"
	"github.com/ecmc-sim/ecmc-sim/sim/cell"
	"github.com/ecmc-sim/ecmc-sim/sim/potential"
	"github.com/ecmc-sim/ecmc-sim/sim/setup"
	"github.com/ecmc-sim/ecmc-sim/sim/trace"
)

var (
	specPath string  // Path to the YAML run specification
	seed     int64   // Override of the spec's seed (-1 keeps the spec value)
	horizon  float64 // Override of the spec's horizon (0 keeps the spec value)
	logLevel string  // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ecmc-sim",
	Short: "Event-chain Monte Carlo simulator with cell-veto sampling",
}

// loadSpec reads the run spec and applies the CLI overrides.
func loadSpec() *setup.Spec {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)

	if specPath == "" {
		logrus.Fatalf("Run spec not provided. Exiting simulation.")
	}
	spec, err := setup.Load(specPath)
	if err != nil {
		logrus.Fatalf("Unable to read run spec: %v", err)
	}
	if seed >= 0 {
		spec.Seed = seed
	}
	if horizon > 0 {
		spec.Horizon = horizon
	}
	if err := spec.Validate(); err != nil {
		logrus.Fatalf("Invalid run spec: %v", err)
	}
	return spec
}

// runCmd executes the simulation using the YAML run spec plus CLI overrides.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the event-chain simulation",
	Run: func(cmd *cobra.Command, args []string) {
		spec := loadSpec()
		startTime := time.Now()

		s, err := sim.NewSimulatorFromSpec(spec)
		if err != nil {
			logrus.Fatalf("Unable to assemble the simulator: %v", err)
		}
		s.Run()

		if s.Trace.Config.Level == trace.TraceLevelDecisions {
			summary := s.Trace.Summarize()
			logrus.Infof("Veto decisions: %d proposed, %d committed, %d empty cell, %d thinned, "+
				"%d negative rate, acceptance rate %.4f",
				summary.Proposed, summary.Committed, summary.EmptyCell, summary.Thinned,
				summary.NegativeRate, summary.AcceptanceRate)
		}
		if violations := len(s.Trace.Violations); violations > 0 {
			logrus.Warnf("Observed %d derivative bound violations; increase the estimator prefactor", violations)
		}
		logrus.Infof("Simulation complete after %v.", time.Since(startTime))
	},
}

// boundsCmd builds only the bound table of the spec and reports its rates,
// which is how an estimator prefactor is tuned before committing to a run.
var boundsCmd = &cobra.Command{
	Use:   "bounds",
	Short: "Build the derivative bound table and report its event rates",
	Run: func(cmd *cobra.Command, args []string) {
		spec := loadSpec()

		geometry, err := cell.NewGeometry(spec.Box)
		if err != nil {
			logrus.Fatalf("Invalid box: %v", err)
		}
		grid, err := cell.NewCuboidPeriodicCells(geometry, spec.CellsPerSide, spec.NeighborLayers)
		if err != nil {
			logrus.Fatalf("Invalid cell system: %v", err)
		}
		pot, err := potential.New(spec.Potential)
		if err != nil {
			logrus.Fatalf("Invalid potential: %v", err)
		}
		estimator, err := bounds.NewInnerPointEstimator(geometry, pot, spec.Estimator)
		if err != nil {
			logrus.Fatalf("Invalid estimator: %v", err)
		}
		table, err := bounds.NewCellBoundTable(grid, estimator, spec.Potential.Charged && spec.HasNegativeCharge())
		if err != nil {
			logrus.Fatalf("Unable to build the bound table: %v", err)
		}
		rates, err := sim.NewVetoRates(table, geometry.Dimension())
		if err != nil {
			logrus.Fatalf("Unable to build the alias samplers: %v", err)
		}

		logrus.Infof("Bound table: %d cells, %d sampled separations, lower bounds: %v",
			len(grid.Cells()), len(table.Separations()), table.HasLowerBounds())
		for axis := 0; axis < geometry.Dimension(); axis++ {
			items := table.UpperRateItems(axis)
			maxRate := 0.0
			for _, item := range items {
				if item.Rate > maxRate {
					maxRate = item.Rate
				}
			}
			logrus.Infof("Axis %d: total bounding rate %.6g, mean %.6g, max per cell %.6g",
				axis, rates.TotalRate(axis), rates.TotalRate(axis)/float64(len(items)), maxRate)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&specPath, "spec", "", "Path to the YAML run specification")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", -1, "Seed override (negative keeps the spec's seed)")
	rootCmd.PersistentFlags().Float64Var(&horizon, "horizon", 0, "Horizon override (0 keeps the spec's horizon)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(boundsCmd)
}
