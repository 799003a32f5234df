// Package cli implements the plasma-migrate command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AndyHydro/plasma-contracts/internal/artifacts"
	"github.com/AndyHydro/plasma-contracts/internal/chain"
	"github.com/AndyHydro/plasma-contracts/internal/config"
	"github.com/AndyHydro/plasma-contracts/internal/deploy"
)

// Version is set at build time.
var Version = "dev"

// app holds the state shared by all commands of one invocation.
type app struct {
	// Global flags
	cfgFile  string
	jsonOut  bool
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer

	newDialer func(store *artifacts.Store, logger *slog.Logger) deploy.Dialer
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:    out,
		errOut: errOut,
		newDialer: func(store *artifacts.Store, logger *slog.Logger) deploy.Dialer {
			return chain.NewTransport(store, chain.WithLogger(logger))
		},
	}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plasma-migrate",
		Short: "Deploy the plasma contracts to a configured network",
		Long: `plasma-migrate deploys the plasma root chain and its companion contracts
in order, feeding each deployed address into the contracts that depend on it.

Configuration (in order of priority):
  1. Command-line flags
  2. Environment variables (PLASMA_*, plus a .env file in the working directory)
  3. Config file (./plasma.yaml, ./config/plasma.yaml or ~/.plasma/plasma.yaml)

Get started:
  $ plasma-migrate networks                 # List network profiles
  $ plasma-migrate plan                     # Show the migration plan
  $ plasma-migrate migrate -n development   # Deploy`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./plasma.yaml)")
	cmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "output in JSON format")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(
		a.migrateCmd(),
		a.networksCmd(),
		a.planCmd(),
		a.historyCmd(),
		a.versionCmd(),
	)
	return cmd
}

// setup loads configuration and the logger. It runs before every command.
func (a *app) setup() error {
	cfg, err := config.Load(config.Options{File: a.cfgFile})
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, err := newLogger(cfg.Log, a.errOut)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	slog.SetDefault(logger)
	return nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// skip config loading
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "plasma-migrate version %s\n", Version)
		},
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.rootCmd().Execute(); err != nil {
		a.printError(err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps configuration problems to 2 and every other failure to 1.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case deploy.IsConfigurationError(err), errors.Is(err, config.ErrUnknownNetwork):
		return 2
	default:
		return 1
	}
}

// printError prints an error message, naming the failed step when known.
func (a *app) printError(err error) {
	fmt.Fprintf(a.errOut, "%s %s\n", colorRed("Error:"), err.Error())

	var failure *deploy.DeploymentFailure
	if errors.As(err, &failure) {
		fmt.Fprintf(a.errOut, "  Failed step: %s (index %d)\n", failure.Step, failure.Index)
	}
}
