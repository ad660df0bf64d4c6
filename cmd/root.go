package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sequor-org/sequor/internal/build"
	"github.com/sequor-org/sequor/internal/config"
	"github.com/sequor-org/sequor/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           build.AppName,
	Short:         "Declarative acceptance-test orchestrator for eventually-consistent services",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to config file")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text or json)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress log output to stderr")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI; any error (including test failures) yields a
// non-zero process exit status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.WithConfigFile(configFile))
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Debug = true
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		cfg.Log.Quiet = true
	}
	return cfg, cfg.Validate()
}

// newLogger builds the run logger from config, optionally wiring a
// warning counter for strict-warnings mode.
func newLogger(cfg *config.Config, counter *logger.WarnCounter) logger.Logger {
	opts := []logger.Option{logger.WithFormat(cfg.Log.Format)}
	if cfg.Log.Debug {
		opts = append(opts, logger.WithDebug())
	}
	if cfg.Log.Quiet {
		opts = append(opts, logger.WithQuiet())
	}
	if counter != nil {
		opts = append(opts, logger.WithWarnCounter(counter))
	}
	return logger.NewLogger(opts...)
}
