package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/openagents/harness/internal/config"
	"github.com/openagents/harness/internal/episode"
	"github.com/openagents/harness/internal/loop"
	"github.com/openagents/harness/internal/sandbox"
	"github.com/spf13/cobra"
)

func init() {
	loopCmd.Flags().String("model", "", "model name the task worker should use")
	loopCmd.Flags().String("subset", "", "starting subset label (TB_10, TB_30, TB_89)")
	loopCmd.Flags().Int("iterations", 0, "stop after this many total iterations (0 = unbounded)")
	rootCmd.AddCommand(loopCmd)
}

var loopCmd = &cobra.Command{
	Use:   "training-loop",
	Short: "Run the progressive TB_10 -> TB_30 -> TB_89 training loop",
	Long: `Drives the training loop runner: each iteration executes one pass
over the current subset, records an episode, and progresses to the next
subset once the pass rate holds above the configured threshold for enough
iterations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := ResolveCwd(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.Load(cwd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		model, _ := cmd.Flags().GetString("model")
		subsetLabel, _ := cmd.Flags().GetString("subset")
		maxIterations, _ := cmd.Flags().GetInt("iterations")

		loopCfg := loop.DefaultConfig(cfg.LoopStatePath())
		loopCfg.ProgressionThreshold = cfg.Loop.ProgressionThreshold
		loopCfg.MinIterationsBeforeProgression = cfg.Loop.MinIterationsBeforeProgression
		loopCfg.MaxIterations = maxIterations
		if subsetLabel != "" {
			loopCfg.StartSubset = loop.Subset(subsetLabel)
		}

		episodes := episode.NewStore(filepath.Dir(cfg.GymDir()))
		box := sandbox.Sandbox(sandbox.Unconfigured{})
		defer box.Close()

		runner := &loop.Runner{Config: loopCfg}
		state, err := runner.Start()
		if err != nil {
			return fmt.Errorf("starting loop: %w", err)
		}
		runner.Run = runOneIteration(box, episodes, model, state.RunID)

		for state.Status == loop.StatusRunning {
			state, err = runner.Step(cmd.Context())
			if err != nil {
				return fmt.Errorf("iteration failed: %w", err)
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	},
}

// runOneIteration builds a loop.IterationFunc that executes a subset's
// tasks through box and records the outcome as an episode. With no
// concrete sandbox backend wired in, box.Execute reports
// sandbox.ReasonNotConfigured and the iteration fails immediately —
// that collaborator is supplied by the caller's deployment, not this CLI.
func runOneIteration(box sandbox.Sandbox, episodes *episode.Store, model, runID string) loop.IterationFunc {
	return func(ctx context.Context, subset loop.Subset, iteration int) (episode.Summary, string, error) {
		if _, err := box.Execute(ctx, sandbox.Command{Name: "run_subset", Arguments: map[string]any{
			"subset": string(subset),
			"model":  model,
		}}); err != nil {
			return episode.Summary{}, "", err
		}

		ep := &episode.Episode{
			ID:        fmt.Sprintf("%s-%d", subset, iteration),
			RunID:     runID,
			Iteration: iteration,
			Model:     model,
		}
		if err := episodes.Save(ep); err != nil {
			return episode.Summary{}, "", err
		}
		return ep.Summary, ep.ID, nil
	}
}
