// Package cmd implements the harness's command-line surface: a health
// check against the local chat bridge, the training loop runner, a
// test-generation comparator, a trajectory export utility, and direct
// config-field patching.
package cmd

import (
	"context"
	"fmt"
	"os"

	"charm.land/fang/v2"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "openagents",
	Short: "OpenAgents training harness",
	Long: `The openagents training harness drives self-improving agent runs:
capturing trajectories, generating tests, hill-climbing task configs, and
mining patterns back into reusable skills.`,
	SilenceUsage: true,
}

// Execute runs the root command, rendering errors through fang and exiting
// non-zero on failure.
func Execute() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ResolveCwd returns the --cwd flag value if set, else the process's
// working directory.
func ResolveCwd(cmd *cobra.Command) (string, error) {
	if cwd, _ := cmd.Flags().GetString("cwd"); cwd != "" {
		return cwd, nil
	}
	return os.Getwd()
}

func init() {
	rootCmd.PersistentFlags().String("cwd", "", "working directory (defaults to the current directory)")
}
