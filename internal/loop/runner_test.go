package loop

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/openagents/harness/internal/episode"
	"github.com/stretchr/testify/require"
)

func TestRunnerProgressesAfterThreeStrongIterations(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "loop-state.json")
	cfg := DefaultConfig(statePath)
	cfg.AutoResume = false

	runner := &Runner{
		Config: cfg,
		Run: func(ctx context.Context, subset Subset, iteration int) (episode.Summary, string, error) {
			return episode.Summary{Total: 10, Passed: 9, PassRate: 0.9}, "ep", nil
		},
	}

	_, err := runner.Start()
	require.NoError(t, err)
	require.Equal(t, SubsetTB10, runner.State().CurrentSubset)

	for i := 0; i < 3; i++ {
		_, err := runner.Step(context.Background())
		require.NoError(t, err)
	}

	require.Equal(t, SubsetTB30, runner.State().CurrentSubset)
	require.Equal(t, 0, runner.State().Iteration)
}

func TestRunnerStaysOnSubsetBelowThreshold(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "loop-state.json")
	cfg := DefaultConfig(statePath)
	cfg.AutoResume = false

	runner := &Runner{
		Config: cfg,
		Run: func(ctx context.Context, subset Subset, iteration int) (episode.Summary, string, error) {
			return episode.Summary{Total: 10, Passed: 5, PassRate: 0.5}, "ep", nil
		},
	}

	_, err := runner.Start()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := runner.Step(context.Background())
		require.NoError(t, err)
	}

	require.Equal(t, SubsetTB10, runner.State().CurrentSubset)
}

func TestRunnerCompletesCleanlyOnIterationLimit(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "loop-state.json")
	cfg := DefaultConfig(statePath)
	cfg.AutoResume = false
	cfg.MaxIterations = 2

	runner := &Runner{
		Config: cfg,
		Run: func(ctx context.Context, subset Subset, iteration int) (episode.Summary, string, error) {
			return episode.Summary{Total: 10, Passed: 1, PassRate: 0.1}, "ep", nil
		},
	}
	_, err := runner.Start()
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := runner.Step(context.Background())
		require.NoError(t, err)
	}

	require.Equal(t, StatusCompleted, runner.State().Status)
	require.Empty(t, runner.State().Error)
}

func TestRunnerTransitionsToFailedOnIterationError(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "loop-state.json")
	cfg := DefaultConfig(statePath)
	cfg.AutoResume = false

	boom := errors.New("sandbox exploded")
	runner := &Runner{
		Config: cfg,
		Run: func(ctx context.Context, subset Subset, iteration int) (episode.Summary, string, error) {
			return episode.Summary{}, "", boom
		},
	}
	_, err := runner.Start()
	require.NoError(t, err)

	_, err = runner.Step(context.Background())
	require.Error(t, err)
	require.Equal(t, StatusFailed, runner.State().Status)
	require.Equal(t, boom.Error(), runner.State().Error)
}
