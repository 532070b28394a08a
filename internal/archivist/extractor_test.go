package archivist

import (
	"testing"

	"github.com/openagents/harness/internal/atif"
	"github.com/stretchr/testify/require"
)

func repeatedFailureTrajectory(sessionID string) *atif.Trajectory {
	steps := make([]atif.Step, 0, 6)
	for i := 0; i < 3; i++ {
		steps = append(steps,
			atif.Step{
				StepID:    i * 2,
				Timestamp: "2026-01-01T00:00:00Z",
				Source:    atif.SourceAgent,
				Message:   "trying to read config",
				ToolCalls: []atif.ToolCall{{ToolCallID: "c1", Name: "read_file"}},
			},
			atif.Step{
				StepID:    i*2 + 1,
				Timestamp: "2026-01-01T00:00:01Z",
				Source:    atif.SourceSystem,
				Message:   "tool result",
				Observation: &atif.Observation{Results: []atif.ObservationResult{
					{SourceCallID: "c1", Content: "Error: file not found"},
				}},
			},
		)
	}
	return &atif.Trajectory{
		SchemaVersion: atif.SchemaVersion,
		SessionID:     sessionID,
		Agent:         atif.Agent{Name: "worker"},
		CreatedAt:     "2026-01-01T00:00:00Z",
		Steps:         steps,
	}
}

func TestHeuristicExtractor_FlagsRepeatedFailure(t *testing.T) {
	t.Parallel()

	store := atif.NewStore(t.TempDir(), false)
	traj := repeatedFailureTrajectory("session-2026-01-01T00-00-00-abcdefgh")
	require.NoError(t, store.Save(traj))

	ex := &HeuristicExtractor{Trajectories: store}
	patterns, err := ex.Extract(traj.SessionID)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	require.Equal(t, PatternPitfall, patterns[0].Type)
	require.Equal(t, 3, patterns[0].Occurrences)
	require.Equal(t, []string{traj.SessionID}, patterns[0].SourceEpisodeIDs)
}

func TestHeuristicExtractor_FlagsRecurringToolSequence(t *testing.T) {
	t.Parallel()

	steps := make([]atif.Step, 0, 6)
	for i := 0; i < 3; i++ {
		steps = append(steps, atif.Step{
			StepID:    i * 2,
			Timestamp: "2026-01-01T00:00:00Z",
			Source:    atif.SourceAgent,
			Message:   "edit then test",
			ToolCalls: []atif.ToolCall{{Name: "edit_file"}, {Name: "run_tests"}},
		})
	}
	traj := &atif.Trajectory{
		SchemaVersion: atif.SchemaVersion,
		SessionID:     "session-2026-01-02T00-00-00-abcdefgh",
		Agent:         atif.Agent{Name: "worker"},
		CreatedAt:     "2026-01-02T00:00:00Z",
		Steps:         steps,
	}

	store := atif.NewStore(t.TempDir(), false)
	require.NoError(t, store.Save(traj))

	ex := &HeuristicExtractor{Trajectories: store}
	patterns, err := ex.Extract(traj.SessionID)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	require.Equal(t, PatternOptimization, patterns[0].Type)
	require.GreaterOrEqual(t, patterns[0].Occurrences, 3)
}

func TestHeuristicExtractor_NoPatternsOnCleanSession(t *testing.T) {
	t.Parallel()

	traj := &atif.Trajectory{
		SchemaVersion: atif.SchemaVersion,
		SessionID:     "session-2026-01-03T00-00-00-abcdefgh",
		Agent:         atif.Agent{Name: "worker"},
		CreatedAt:     "2026-01-03T00:00:00Z",
		Steps: []atif.Step{
			{StepID: 0, Timestamp: "2026-01-03T00:00:00Z", Source: atif.SourceAgent, Message: "done"},
		},
	}
	store := atif.NewStore(t.TempDir(), false)
	require.NoError(t, store.Save(traj))

	ex := &HeuristicExtractor{Trajectories: store}
	patterns, err := ex.Extract(traj.SessionID)
	require.NoError(t, err)
	require.Empty(t, patterns)
}
