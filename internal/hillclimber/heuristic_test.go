package hillclimber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeuristicFallbackSeedsEmptyHint(t *testing.T) {
	t.Parallel()

	change := proposeHeuristic("regex-log", ConfigInput{TaskID: "regex-log", UseSkills: true}, TaskRunResult{Passed: false})
	require.Equal(t, ChangeUpdateHint, change.Type)
	require.Equal(t, "Write the regex directly to /app/regex.txt. The regex should match dates in YYYY-MM-DD format.", change.NewHint)
}

func TestHeuristicFallbackKeepsWhenNoSeedAndEmptyHint(t *testing.T) {
	t.Parallel()

	change := proposeHeuristic("unknown-task", ConfigInput{TaskID: "unknown-task"}, TaskRunResult{Passed: false})
	require.Equal(t, ChangeKeep, change.Type)
}

func TestHeuristicFallbackAppendsEfficiencyNudgeOnSlowPass(t *testing.T) {
	t.Parallel()

	change := proposeHeuristic("t1", ConfigInput{TaskID: "t1", Hint: "Do the thing."}, TaskRunResult{Passed: true, Turns: 25})
	require.Equal(t, ChangeUpdateHint, change.Type)
	require.Contains(t, change.NewHint, "Be direct and efficient.")
}

func TestHeuristicFallbackKeepsOnFastPass(t *testing.T) {
	t.Parallel()

	change := proposeHeuristic("t1", ConfigInput{TaskID: "t1", Hint: "Do the thing."}, TaskRunResult{Passed: true, Turns: 5})
	require.Equal(t, ChangeKeep, change.Type)
}

func TestHeuristicFallbackTargetsErrorSignatures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		errMsg string
		want   string
	}{
		{"Error: file not found at /tmp/x", "exact file path"},
		{"bash: permission denied", "file permissions"},
		{"SyntaxError: invalid syntax", "validate syntax"},
	}
	for _, tc := range cases {
		change := proposeHeuristic("t1", ConfigInput{TaskID: "t1", Hint: "Do the thing."}, TaskRunResult{Passed: false, ErrorMessage: tc.errMsg})
		require.Equal(t, ChangeUpdateHint, change.Type)
		require.Contains(t, change.NewHint, tc.want)
	}
}

func TestHeuristicFallbackKeepsOnUnrecognizedFailure(t *testing.T) {
	t.Parallel()

	change := proposeHeuristic("t1", ConfigInput{TaskID: "t1", Hint: "Do the thing."}, TaskRunResult{Passed: false, ErrorMessage: "assertion mismatch"})
	require.Equal(t, ChangeKeep, change.Type)
}
