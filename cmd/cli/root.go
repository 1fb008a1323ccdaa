// Package cli implements the netscan command-line interface. Commands
// cover single-port checks, multi-port scans, subnet sweeps, DNS lookups,
// liveness checks, route tracing, and a long-running serve mode.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netscan-tools/netscan/internal/config"
	"github.com/netscan-tools/netscan/internal/errors"
	"github.com/netscan-tools/netscan/internal/logging"
	"github.com/netscan-tools/netscan/internal/metrics"
)

var (
	cfgFile    string
	verbose    bool
	jsonOutput bool

	appConfig *config.Config
)

// Build information, set by ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "netscan",
	Short: "Network diagnostics toolkit",
	Long: `Netscan is a cross-platform network diagnostics toolkit. It checks
individual ports, scans port ranges concurrently, sweeps subnets for live
hosts, resolves names in both directions, and traces routes, with a serve
mode exposing the same operations over a REST API.`,
	Version:       getVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and exits with a code reflecting the failure
// class: 0 success, 2 unreachable, 3 timeout, 1 anything else.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(errors.ExitCode(err))
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./netscan.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output results as JSON")

	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind verbose flag: %v\n", err)
	}
}

// initConfig loads configuration and environment variables, then wires
// logging and metrics to match.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("netscan")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("NETSCAN")

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	cfg, err := config.Load(viper.ConfigFileUsed())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		cfg = config.Default()
	}
	appConfig = cfg

	initLogging(cfg)
	metrics.SetEnabled(cfg.Metrics.Enabled)
}

func initLogging(cfg *config.Config) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     logging.LogLevel(level),
		Format:    logging.LogFormat(cfg.Logging.Format),
		Output:    cfg.Logging.Output,
		AddSource: level == "debug",
	})
	if err != nil {
		logger = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	logging.SetDefault(logger)
}

// currentConfig returns the loaded configuration, falling back to the
// defaults when no config has been loaded yet.
func currentConfig() *config.Config {
	if appConfig == nil {
		return config.Default()
	}
	return appConfig
}

func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion records build information, called from main.
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}
