package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/openagents/harness/internal/config"
	"github.com/openagents/harness/internal/testgen"
	"github.com/spf13/cobra"
)

func init() {
	testgenCmd.Flags().String("task-id", "", "task identifier (required)")
	testgenCmd.Flags().String("description", "", "task description to generate tests against (required)")
	testgenCmd.Flags().StringSlice("roles", []string{string(config.RoleTestGen)}, "agent roles to compare, one test-gen pass per role")
	_ = testgenCmd.MarkFlagRequired("task-id")
	_ = testgenCmd.MarkFlagRequired("description")
	rootCmd.AddCommand(testgenCmd)
}

var testgenCmd = &cobra.Command{
	Use:   "test-gen",
	Short: "Generate a verification test suite for a task and score it",
	Long: `Runs the iterative, category-ordered test generator once per
configured role (by default just test_gen), and prints each run's
comprehensiveness score alongside the generated tests — a quick way to
compare how different providers/models perform at test synthesis for the
same task.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := ResolveCwd(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.Load(cwd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		taskID, _ := cmd.Flags().GetString("task-id")
		description, _ := cmd.Flags().GetString("description")
		roleNames, _ := cmd.Flags().GetStringSlice("roles")

		env := testgen.EnvironmentInfo{}
		genCfg := testgen.DefaultConfig()

		results := make([]testgenResult, 0, len(roleNames))
		for _, roleName := range roleNames {
			role := config.AgentRole(roleName)
			provider, model, err := cfg.BuildProviderForRole(role)
			if err != nil {
				return fmt.Errorf("resolving provider for role %q: %w", roleName, err)
			}

			roleCfg := genCfg
			roleCfg.Model = model

			gen := &testgen.Generator{Provider: provider}
			tests, err := gen.Run(cmd.Context(), taskID, description, env, roleCfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "role %q failed: %v\n", roleName, err)
				continue
			}

			results = append(results, testgenResult{
				Role:              roleName,
				Model:             model,
				TestCount:         len(tests),
				Comprehensiveness: testgen.ComprehensivenessScore(tests),
				Tests:             tests,
			})
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

type testgenResult struct {
	Role              string               `json:"role"`
	Model             string               `json:"model"`
	TestCount         int                  `json:"testCount"`
	Comprehensiveness float64              `json:"comprehensivenessScore"`
	Tests             []testgen.GeneratedTest `json:"tests"`
}
