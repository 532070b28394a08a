package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/openagents/harness/internal/atif"
	"github.com/openagents/harness/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	trajectoryCmd.Flags().String("session", "", "session ID to export (required)")
	trajectoryCmd.Flags().String("format", "json", "export format: json or html")
	trajectoryCmd.Flags().String("out", "", "output file path (defaults to stdout)")
	_ = trajectoryCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(trajectoryCmd)
}

var trajectoryCmd = &cobra.Command{
	Use:   "trajectory",
	Short: "Export a stored trajectory as JSON or HTML",
	Long: `Loads a captured trajectory by session ID and writes it out,
independent of any training run — useful for inspecting a single episode's
steps without replaying the loop that produced it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := ResolveCwd(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.Load(cwd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		sessionID, _ := cmd.Flags().GetString("session")
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")

		store := atif.NewStore(cfg.TrajectoryDir(), false)
		traj, err := store.Load(sessionID)
		if err != nil {
			return fmt.Errorf("loading trajectory %q: %w", sessionID, err)
		}

		var data []byte
		switch format {
		case "json":
			data, err = json.MarshalIndent(traj, "", "  ")
		case "html":
			data, err = atif.RenderHTML(traj)
		default:
			return fmt.Errorf("unknown format %q (want json or html)", format)
		}
		if err != nil {
			return fmt.Errorf("rendering trajectory: %w", err)
		}

		if outPath == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		return os.WriteFile(outPath, data, 0o644)
	},
}
