package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sequor-org/sequor/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", build.AppName, build.Version)
	},
}
