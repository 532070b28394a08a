package chatprovider

import (
	"errors"
	"testing"

	"github.com/openagents/harness/internal/chatprovider/fmbridge"
	"github.com/stretchr/testify/require"
)

func TestBuildBridgePrompt_SplitsLastAssistantMessageAsSummary(t *testing.T) {
	t.Parallel()

	req := Request{
		Tools: []Tool{{Name: "read_file"}, {Name: "write_file"}},
		Messages: []Message{
			{Role: RoleSystem, Content: "you are a task worker"},
			{Role: RoleUser, Content: "fix the failing test"},
			{Role: RoleAssistant, Content: "ran pytest, one failure in test_add"},
		},
	}

	prompt := buildBridgePrompt(req)

	require.Contains(t, prompt, "tools:read_file,write_file")
	require.Contains(t, prompt, "|prev:ran pytest, one failure in test_add|")
	require.Contains(t, prompt, "<tool_call>")
	require.LessOrEqual(t, len([]rune(prompt)), fmbridge.PromptCharBudget)
}

func TestBuildBridgePrompt_NoMessagesYieldsEmptyContext(t *testing.T) {
	t.Parallel()

	prompt := buildBridgePrompt(Request{Tools: []Tool{{Name: "run_command"}}})

	require.Contains(t, prompt, "tools:run_command")
	require.Contains(t, prompt, "|ctx:|prev:|")
	require.Contains(t, prompt, "<tool_call>")
}

func TestTranslateBridgeError_MapsKnownReasons(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   *fmbridge.BridgeError
		want FailureReason
	}{
		{&fmbridge.BridgeError{Reason: fmbridge.ErrNotMacOS}, ReasonNotMacOS},
		{&fmbridge.BridgeError{Reason: fmbridge.ErrBridgeNotFound}, ReasonBridgeNotFound},
		{&fmbridge.BridgeError{Reason: fmbridge.ErrServerNotRunning}, ReasonServerNotRunning},
	}

	for _, tc := range cases {
		got := translateBridgeError(tc.in)
		cpErr, ok := got.(*Error)
		require.True(t, ok)
		require.Equal(t, tc.want, cpErr.Reason)
	}
}

func TestTranslateBridgeError_UnknownErrorFallsBackToRequestFailed(t *testing.T) {
	t.Parallel()

	got := translateBridgeError(errors.New("boom"))
	cpErr, ok := got.(*Error)
	require.True(t, ok)
	require.Equal(t, ReasonRequestFailed, cpErr.Reason)
}
