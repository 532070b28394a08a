package atif

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), true)
	tr := validTrajectory()

	require.NoError(t, store.Save(tr))

	loaded, err := store.Load(tr.SessionID)
	require.NoError(t, err)
	require.Equal(t, tr.SessionID, loaded.SessionID)
	require.Equal(t, len(tr.Steps), len(loaded.Steps))
}

func TestStore_SaveRejectsInvalidWhenValidating(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), true)
	tr := validTrajectory()
	tr.Steps[0].Source = "robot"

	err := store.Save(tr)
	require.Error(t, err)
}

func TestStore_LoadNotFound(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), false)
	_, err := store.Load("session-2026-07-30T12-00-00-missing")
	require.Error(t, err)
	var se *StoreError
	require.ErrorAs(t, err, &se)
	require.Equal(t, ReasonNotFound, se.Reason)
}

func TestStore_ListAndDelete(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), false)
	tr := validTrajectory()
	require.NoError(t, store.Save(tr))

	ids, err := store.List()
	require.NoError(t, err)
	require.Contains(t, ids, tr.SessionID)

	require.NoError(t, store.Delete(tr.SessionID))
	_, err = store.Load(tr.SessionID)
	require.Error(t, err)
}

func TestStore_GetTreeFollowsSubagentRefs(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), false)

	root := validTrajectory()
	root.SessionID = "session-2026-07-30T12-00-00-root000"
	root.Steps[2].Observation.Results[0].SubagentTrajectoryRef = []string{"session-2026-07-30T12-00-00-child01"}
	require.NoError(t, store.Save(root))

	child := validTrajectory()
	child.SessionID = "session-2026-07-30T12-00-00-child01"
	child.ParentSessionID = root.SessionID
	require.NoError(t, store.Save(child))

	tree, err := store.GetTree(root.SessionID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{root.SessionID, child.SessionID}, tree)

	children, err := store.FindChildren(root.SessionID)
	require.NoError(t, err)
	require.Equal(t, []string{child.SessionID}, children)
}

// GetTree must not hang on a cycle, even though a cycle is itself a bug in
// the producer.
func TestStore_GetTreeIsCycleSafe(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), false)

	a := validTrajectory()
	a.SessionID = "session-2026-07-30T12-00-00-aaaaaa"
	a.Steps[2].Observation.Results[0].SubagentTrajectoryRef = []string{"session-2026-07-30T12-00-00-bbbbbb"}
	require.NoError(t, store.Save(a))

	b := validTrajectory()
	b.SessionID = "session-2026-07-30T12-00-00-bbbbbb"
	b.Steps[2].Observation.Results[0].SubagentTrajectoryRef = []string{a.SessionID}
	require.NoError(t, store.Save(b))

	done := make(chan []string, 1)
	go func() {
		tree, _ := store.GetTree(a.SessionID)
		done <- tree
	}()

	select {
	case tree := <-done:
		require.ElementsMatch(t, []string{a.SessionID, b.SessionID}, tree)
	case <-time.After(2 * time.Second):
		t.Fatal("GetTree did not terminate on a cyclic reference graph")
	}
}
