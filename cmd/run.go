package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sequor-org/sequor/internal/acceptance"
	"github.com/sequor-org/sequor/internal/agent"
	"github.com/sequor-org/sequor/internal/config"
	"github.com/sequor-org/sequor/internal/logger"
	"github.com/sequor-org/sequor/internal/manifest"
	"github.com/sequor-org/sequor/internal/metrics"
	"github.com/sequor-org/sequor/internal/remote"
	"github.com/sequor-org/sequor/internal/suite"
)

var runCmd = &cobra.Command{
	Use:   "run [flags]",
	Short: "Run a test suite and report per-test outcomes",
	Long: `Runs the built-in track-library acceptance suite, or a YAML suite
manifest when --suite is given. The exit status is non-zero if any test
failed.`,
	RunE: runSuite,
}

func init() {
	runCmd.Flags().String("suite", "", "path to a YAML suite manifest (default: built-in library suite)")
	runCmd.Flags().String("base-url", "", "base URL of the remote service")
	runCmd.Flags().Int("workers", 0, "max concurrent tests within a batch")
	runCmd.Flags().Duration("timeout", 0, "overall run timeout")
	runCmd.Flags().Bool("strict-warnings", false, "fail the run if warnings were logged")
	runCmd.Flags().String("metrics-addr", "", "address to expose /metrics on during the run")
}

func runSuite(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	warnCounter := logger.NewWarnCounter()
	ctx := logger.WithLogger(cmd.Context(), newLogger(cfg, warnCounter))

	if cfg.Metrics.Addr != "" {
		metrics.Serve(ctx, cfg.Metrics.Addr)
	}

	params, err := buildParams(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	params.WarnCounter = warnCounter

	summary, runErr := agent.New(cfg, params).Run(ctx)
	if len(summary.Nodes) == 0 && runErr != nil {
		// The run never started (lock, build or plan failure).
		return runErr
	}

	fmt.Fprintln(cmd.OutOrStdout(), summary.Render())

	if summary.ExitCode() != 0 {
		return fmt.Errorf("suite %q failed: %d failed, %d skipped of %d tests",
			params.Suite, summary.Failed, summary.Skipped, len(summary.Nodes))
	}
	return nil
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
		cfg.Remote.BaseURL = baseURL
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Run.MaxWorkers = workers
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Run.Timeout = timeout
	}
	if strict, _ := cmd.Flags().GetBool("strict-warnings"); strict {
		cfg.Run.StrictWarnings = true
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.Metrics.Addr = addr
	}
}

// buildParams assembles the suite to run: a manifest-defined one, or the
// built-in library acceptance suite with login/logout hooks.
func buildParams(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (agent.Params, error) {
	suitePath, _ := cmd.Flags().GetString("suite")

	if suitePath != "" {
		def, err := manifest.Load(ctx, suitePath)
		if err != nil {
			return agent.Params{}, err
		}
		tests, err := manifest.Build(def, cfg.Remote.BaseURL)
		if err != nil {
			return agent.Params{}, err
		}
		return agent.Params{Suite: def.Suite, Tests: tests}, nil
	}

	if err := cfg.ValidateRemote(); err != nil {
		return agent.Params{}, err
	}
	client := remote.NewClient(cfg.Remote.BaseURL,
		remote.WithRateLimit(cfg.Remote.RequestsPerSecond),
		remote.WithPageSize(cfg.Remote.PageSize),
	)
	return agent.Params{
		Suite: "library",
		Tests: acceptance.Suite(client, acceptance.Options{Poll: suite.PollSpec{
			Attempts: 4,
			Interval: time.Second,
			Factor:   2,
		}}),
		Setup: func(ctx context.Context) error {
			return client.Login(ctx, cfg.Remote.Email, cfg.Remote.Password)
		},
		Teardown: func(ctx context.Context) error {
			return client.Logout(ctx)
		},
	}, nil
}
