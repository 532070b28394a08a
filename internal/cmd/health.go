package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/openagents/harness/internal/chatprovider/fmbridge"
	"github.com/spf13/cobra"
)

func init() {
	healthCmd.Flags().String("base-url", "", "bridge base URL (default http://localhost:8181)")
	healthCmd.Flags().Duration("timeout", 5*time.Second, "request timeout")
	rootCmd.AddCommand(healthCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health-check",
	Short: "Print the local Foundation-Model bridge's health status",
	Long: `Performs GET /health against the local Foundation-Model bridge and
prints the response as JSON. Exits non-zero if the bridge is unreachable
or reports itself unhealthy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseURL, _ := cmd.Flags().GetString("base-url")
		if baseURL == "" {
			baseURL = "http://localhost:8181"
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		health, err := fmbridge.Health(ctx, baseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bridge unreachable: %v\n", err)
			os.Exit(1)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(health); err != nil {
			return err
		}

		if health.Status != "server_running" || !health.ModelAvailable {
			os.Exit(1)
		}
		return nil
	},
}
