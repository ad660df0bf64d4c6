package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sequor-org/sequor/internal/logger"
	"github.com/sequor-org/sequor/internal/planner"
)

var planCmd = &cobra.Command{
	Use:   "plan [flags]",
	Short: "Resolve and print the execution plan without running anything",
	RunE:  showPlan,
}

func init() {
	planCmd.Flags().String("suite", "", "path to a YAML suite manifest (default: built-in library suite)")
	planCmd.Flags().String("base-url", "", "base URL of the remote service")
}

func showPlan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if cfg.Remote.BaseURL == "" {
		// Nothing executes here, the client only needs a syntactically
		// valid target.
		cfg.Remote.BaseURL = "http://localhost"
	}

	ctx := logger.WithLogger(cmd.Context(), newLogger(cfg, nil))

	params, err := buildParams(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	graph, err := planner.Build(params.Tests)
	if err != nil {
		return err
	}
	plan, err := planner.NewPlan(graph)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Batch", "Test", "Groups", "Always Run"})
	for i, batch := range plan.Batches {
		for _, node := range batch {
			test := node.Test()
			t.AppendRow(table.Row{
				fmt.Sprintf("%d", i+1),
				test.Name,
				strings.Join(test.Groups, ", "),
				test.AlwaysRun,
			})
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
