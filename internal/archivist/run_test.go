package archivist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/openagents/harness/internal/atif"
	"github.com/openagents/harness/internal/db"
	"github.com/openagents/harness/internal/memory"
	"github.com/openagents/harness/internal/pubsub"
	"github.com/openagents/harness/internal/skill"
	"github.com/stretchr/testify/require"
)

func newTestArchivist(t *testing.T) (*Archivist, *atif.Store) {
	t.Helper()

	conn, err := db.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	trajStore := atif.NewStore(t.TempDir(), false)
	tracker, err := NewArchivedTracker(filepath.Join(t.TempDir(), "archived.json"))
	require.NoError(t, err)

	return &Archivist{
		Trajectories: trajStore,
		Archived:     tracker,
		Skills:       skill.NewStore(conn),
		Memory:       memory.NewStore(conn),
		Events:       pubsub.NewBroker[Payload](),
		Config:       DefaultConfig(),
	}, trajStore
}

func TestArchivist_RunQuickDoesNotPromoteConfidentPitfall(t *testing.T) {
	t.Parallel()

	a, store := newTestArchivist(t)
	traj := repeatedFailureTrajectory("session-2026-02-01T00-00-00-abcdefgh")
	require.NoError(t, store.Save(traj))

	counts, err := a.RunQuick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, counts.TrajectoriesProcessed)
	require.Equal(t, 1, counts.PatternsFound)
	require.Equal(t, 0, counts.SkillsPromoted, "pitfalls are not promoted to skills")
	require.True(t, a.Archived.IsArchived(traj.SessionID))
}

func TestArchivist_RunQuickPromotesOptimizationToSkill(t *testing.T) {
	t.Parallel()

	a, store := newTestArchivist(t)

	steps := make([]atif.Step, 0, 6)
	for i := 0; i < 3; i++ {
		steps = append(steps, atif.Step{
			StepID:    i * 2,
			Timestamp: "2026-02-02T00:00:00Z",
			Source:    atif.SourceAgent,
			Message:   "edit then test",
			ToolCalls: []atif.ToolCall{{Name: "edit_file"}, {Name: "run_tests"}},
		})
	}
	traj := &atif.Trajectory{
		SchemaVersion: atif.SchemaVersion,
		SessionID:     "session-2026-02-02T00-00-00-abcdefgh",
		Agent:         atif.Agent{Name: "worker"},
		CreatedAt:     "2026-02-02T00:00:00Z",
		Steps:         steps,
	}
	require.NoError(t, store.Save(traj))

	counts, err := a.RunQuick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, counts.SkillsPromoted)

	skills, err := a.Skills.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, skills, 1)
	require.Equal(t, skill.SourceLearned, skills[0].Source)

	memories, err := a.Memory.ForEpisode(context.Background(), traj.SessionID)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	require.Equal(t, skills[0].ID, memories[0].SkillID)
}

func TestArchivist_SkipsAlreadyArchivedSessions(t *testing.T) {
	t.Parallel()

	a, store := newTestArchivist(t)
	traj := repeatedFailureTrajectory("session-2026-02-03T00-00-00-abcdefgh")
	require.NoError(t, store.Save(traj))

	_, err := a.RunQuick(context.Background())
	require.NoError(t, err)

	counts, err := a.RunQuick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, counts.TrajectoriesProcessed, "second pass should skip the already-archived session")
}
