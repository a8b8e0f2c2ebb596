package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/popsim-lab/popsim/sim"
	"github.com/popsim-lab/popsim/sim/history"
	"github.com/popsim-lab/popsim/sim/metrics"
)

var (
	// CLI flags for the run
	scenarioPath string // Path to the scenario YAML
	seed         int64  // Overrides the scenario seed when set
	generations  int64  // Overrides the scenario generation count when > 0
	logLevel     string // Log verbosity level
	envFile      string // Optional dotenv file

	// CLI flags for outputs
	historyKind string // memory or sqlite
	historyPath string // SQLite database path
	metricsAddr string // Address to serve Prometheus metrics on; empty disables
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "popsim",
	Short: "Forward-in-time population genetics simulator",
}

// runCmd executes a scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario",
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadEnvFile(envFile); err != nil {
			logrus.Fatalf("Failed to load env file %s: %v", envFile, err)
		}
		setupLogging(cmd)

		sc, err := LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		applyOverrides(cmd, sc)
		if err := sc.Validate(); err != nil {
			logrus.Fatalf("Invalid scenario %s: %v", scenarioPath, err)
		}

		store, err := history.NewStore(historyKind, historyPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer func() {
			if err := history.CloseIfSupported(store); err != nil {
				logrus.Errorf("Closing history store: %v", err)
			}
		}()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := store.Init(ctx); err != nil {
			logrus.Fatalf("Initializing history store: %v", err)
		}

		var observers []sim.Observer
		if metricsAddr != "" {
			recorder := metrics.NewRecorder()
			observers = append(observers, recorder)
			srv := &http.Server{Addr: metricsAddr, Handler: recorder.Handler()}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logrus.Errorf("Metrics server: %v", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			logrus.Infof("Serving metrics on %s", metricsAddr)
		}

		res, err := simulate(ctx, sc, scenarioPath, store, observers...)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		printReport(os.Stdout, res)
		logrus.Info("Simulation complete.")
	},
}

// validateCmd checks a scenario without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a scenario file",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := LoadScenario(scenarioPath)
		if err != nil {
			return err
		}
		if err := sc.Validate(); err != nil {
			return err
		}
		if _, _, _, err := sc.Build(sim.NewPartitionedRNG(sim.NewSimulationKey(sc.Seed))); err != nil {
			return err
		}
		cmd.Printf("%s: ok (%d subpopulations, %d generations)\n", scenarioPath, len(sc.Subpops), sc.Generations)
		return nil
	},
}

// loadEnvFile loads path into the environment if it exists. A missing
// default file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return godotenv.Load(path)
	}
	return nil
}

func setupLogging(cmd *cobra.Command) {
	if !cmd.Flags().Changed("log") {
		if env := os.Getenv("POPSIM_LOG"); env != "" {
			logLevel = env
		}
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// applyOverrides lets the flags, then POPSIM_SEED, take precedence over the
// scenario file.
func applyOverrides(cmd *cobra.Command, sc *Scenario) {
	if cmd.Flags().Changed("seed") {
		sc.Seed = seed
	} else if env := os.Getenv("POPSIM_SEED"); env != "" {
		v, err := strconv.ParseInt(env, 10, 64)
		if err != nil {
			logrus.Fatalf("Invalid POPSIM_SEED %q: %v", env, err)
		}
		sc.Seed = v
	}
	if generations > 0 {
		sc.Generations = generations
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Seed overriding the scenario seed")
	runCmd.Flags().Int64Var(&generations, "generations", 0, "Generation count overriding the scenario (0 keeps the scenario value)")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before reading POPSIM_* variables")
	runCmd.Flags().StringVar(&historyKind, "history", "memory", "History store (memory, sqlite)")
	runCmd.Flags().StringVar(&historyPath, "history-path", "popsim.db", "SQLite database path for --history sqlite")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	_ = runCmd.MarkFlagRequired("scenario")

	validateCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
	_ = validateCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
