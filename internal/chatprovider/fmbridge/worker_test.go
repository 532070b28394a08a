package fmbridge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPromptStaysWithinBudget(t *testing.T) {
	t.Parallel()

	tools := []string{"write_file", "read_file", "run_command", "edit_file"}
	longContext := strings.Repeat("x", 500)
	longPrev := strings.Repeat("y", 500)

	prompt := BuildPrompt(tools, longPrev, longContext)
	require.LessOrEqual(t, len(prompt), PromptCharBudget)
	require.Contains(t, prompt, "<tool_call>")
}

func TestParseToolCallXMLWrapped(t *testing.T) {
	t.Parallel()

	raw := `<tool_call>{"name":"read_file","arguments":{"path":"a.txt"}}</tool_call>`
	tc, perr := ParseToolCall(raw)
	require.Nil(t, perr)
	require.Equal(t, "read_file", tc.Name)
	require.Equal(t, "a.txt", tc.Arguments["path"])
}

func TestParseToolCallFencedJSON(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"tool_call\":{\"name\":\"run_command\",\"arguments\":{\"command\":\"ls\"}}}\n```"
	tc, perr := ParseToolCall(raw)
	require.Nil(t, perr)
	require.Equal(t, "run_command", tc.Name)
	require.Equal(t, "ls", tc.Arguments["command"])
}

func TestParseToolCallFencedResponseWrapper(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"response\":\"Using read_file tool with arguments: path=b.txt\"}\n```"
	tc, perr := ParseToolCall(raw)
	require.Nil(t, perr)
	require.Equal(t, "read_file", tc.Name)
	require.Equal(t, "b.txt", tc.Arguments["path"])
}

func TestParseToolCallDescriptiveWriteFile(t *testing.T) {
	t.Parallel()

	raw := "Using write_file tool with arguments: path=hello.txt, content=Hello, world!"
	tc, perr := ParseToolCall(raw)
	require.Nil(t, perr)
	require.Equal(t, "write_file", tc.Name)
	require.Equal(t, "hello.txt", tc.Arguments["path"])
	require.Equal(t, "Hello, world!", tc.Arguments["content"])
}

func TestParseToolCallDescriptiveCaseInsensitive(t *testing.T) {
	t.Parallel()

	raw := "USING run_command TOOL WITH ARGUMENTS: command=echo hi"
	tc, perr := ParseToolCall(raw)
	require.Nil(t, perr)
	require.Equal(t, "run_command", tc.Name)
	require.Equal(t, "echo hi", tc.Arguments["command"])
}

func TestParseToolCallNoValidFormatYieldsStructuredError(t *testing.T) {
	t.Parallel()

	raw := strings.Repeat("garbled nonsense ", 30)
	tc, perr := ParseToolCall(raw)
	require.Nil(t, tc)
	require.NotNil(t, perr)
	require.Equal(t, "FM_TOOL_PARSE_ERROR", perr.Type)
	require.Equal(t, ReasonNoValidFormat, perr.Reason)
	require.LessOrEqual(t, len(perr.RawSnippet), 200)
}

func TestParseToolCallMalformedJSONReportsJSONParseError(t *testing.T) {
	t.Parallel()

	raw := `<tool_call>{"name": "read_file", "arguments": }</tool_call>`
	tc, perr := ParseToolCall(raw)
	require.Nil(t, tc)
	require.NotNil(t, perr)
	require.Equal(t, ReasonJSONParseError, perr.Reason)
}
