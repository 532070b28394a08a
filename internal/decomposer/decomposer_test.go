package decomposer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecomposeFallsBackToThreeSubtasks(t *testing.T) {
	t.Parallel()

	d := Decompose("never-seen-task-id")
	require.Len(t, d.Subtasks, 3)
	require.Equal(t, "understand", d.Subtasks[0].ID)
	require.Equal(t, "implement", d.Subtasks[1].ID)
	require.Equal(t, "verify", d.Subtasks[2].ID)
	require.True(t, d.Subtasks[2].Terminal)
}

func TestGetCurrentSubtaskRespectsDependencyOrder(t *testing.T) {
	t.Parallel()

	d := Decompose("never-seen-task-id")
	progress := Progress{}

	cur := GetCurrentSubtask(d, progress, nil)
	require.NotNil(t, cur)
	require.Equal(t, "understand", cur.ID)

	progress["understand"] = 1
	cur = GetCurrentSubtask(d, progress, nil)
	require.NotNil(t, cur)
	require.Equal(t, "implement", cur.ID)
}

func TestGetCurrentSubtaskReturnsNilWhenAllComplete(t *testing.T) {
	t.Parallel()

	d := Decompose("never-seen-task-id")
	progress := Progress{"understand": 1, "implement": 1, "verify": 1}
	require.Nil(t, GetCurrentSubtask(d, progress, nil))
}

func TestIsSubtaskCompleteRequiresArtifactsAndProgress(t *testing.T) {
	t.Parallel()

	st := Subtask{ID: "implement", ExpectedArtifacts: []string{"out.txt"}}
	require.False(t, IsSubtaskComplete(st, Progress{"implement": 0.6}, nil))
	require.True(t, IsSubtaskComplete(st, Progress{"implement": 0.6}, []string{"/tmp/run/out.txt"}))
}

func TestIsSubtaskCompleteTerminalNeedsFullProgress(t *testing.T) {
	t.Parallel()

	st := Subtask{ID: "verify", Terminal: true}
	require.False(t, IsSubtaskComplete(st, Progress{"verify": 0.9}, nil))
	require.True(t, IsSubtaskComplete(st, Progress{"verify": 1}, nil))
}
