package hillclimber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigHashStableForIdenticalTuples(t *testing.T) {
	t.Parallel()

	turns := 10
	a := ConfigInput{TaskID: "t1", Hint: "hint", UseSkills: true, MaxTurnsOverride: &turns}
	b := ConfigInput{TaskID: "t1", Hint: "hint", UseSkills: true, MaxTurnsOverride: &turns}
	require.Equal(t, ConfigHash(a), ConfigHash(b))
}

func TestConfigHashChangesOnHintDifference(t *testing.T) {
	t.Parallel()

	a := ConfigInput{TaskID: "t1", Hint: "hint-a", UseSkills: true}
	b := ConfigInput{TaskID: "t1", Hint: "hint-b", UseSkills: true}
	require.NotEqual(t, ConfigHash(a), ConfigHash(b))
}

func TestApplyKeepReturnsEquivalentConfig(t *testing.T) {
	t.Parallel()

	current := ConfigInput{TaskID: "t1", Hint: "hint", UseSkills: true}
	next := Apply(current, ConfigChange{Type: ChangeKeep})
	require.Equal(t, ConfigHash(current), ConfigHash(next))
}

func TestApplyUpdateHint(t *testing.T) {
	t.Parallel()

	current := ConfigInput{TaskID: "t1", Hint: "old"}
	next := Apply(current, ConfigChange{Type: ChangeUpdateHint, NewHint: "new"})
	require.Equal(t, "new", next.Hint)
}

func TestParseReasonerResponseKeepVariants(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"KEEP", "  keep  ", "Keep the current hint", "No change needed", ""} {
		change := parseReasonerResponse(raw)
		require.Equal(t, ChangeKeep, change.Type, "input: %q", raw)
	}
}

func TestParseReasonerResponseOverLengthIsKeep(t *testing.T) {
	t.Parallel()

	long := make([]byte, maxReasonerResponseLen+1)
	for i := range long {
		long[i] = 'x'
	}
	change := parseReasonerResponse(string(long))
	require.Equal(t, ChangeKeep, change.Type)
}

func TestParseReasonerResponseStripsQuotes(t *testing.T) {
	t.Parallel()

	change := parseReasonerResponse(`"Write the output to /app/out.txt"`)
	require.Equal(t, ChangeUpdateHint, change.Type)
	require.Equal(t, "Write the output to /app/out.txt", change.NewHint)
}
