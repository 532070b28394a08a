package fmbridge

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// PromptCharBudget bounds the tiny fixed-shape prompt sent to the local
// single-turn FM worker.
const PromptCharBudget = 180

// ToolCall is a parsed single tool invocation.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ParseErrorReason enumerates why a worker's raw output couldn't be parsed
// into a ToolCall.
type ParseErrorReason string

const (
	ReasonNoValidFormat  ParseErrorReason = "no_valid_format"
	ReasonJSONParseError ParseErrorReason = "json_parse_error"
)

// ParseError is the structured record emitted on a parse failure.
type ParseError struct {
	Type       string           `json:"type"`
	Reason     ParseErrorReason `json:"reason"`
	RawSnippet string           `json:"rawSnippet"`
	Details    string           `json:"details,omitempty"`
	Timestamp  string           `json:"timestamp"`
}

func newParseError(reason ParseErrorReason, raw, details string) *ParseError {
	snippet := raw
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return &ParseError{
		Type:       "FM_TOOL_PARSE_ERROR",
		Reason:     reason,
		RawSnippet: snippet,
		Details:    details,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// BuildPrompt assembles the tiny fixed-shape single-turn prompt: a tool
// list, one action, short context, a summary of the previous step, and the
// opening "<tool_call>" token the model is meant to continue from. The
// result is truncated to PromptCharBudget characters, trimming context
// first and the previous-step summary second, since the tool list and
// opening token must always survive intact for the parser to find them.
func BuildPrompt(tools []string, previousStepSummary, context string) string {
	toolList := strings.Join(tools, ",")
	const opening = "<tool_call>"

	budgetForVariable := PromptCharBudget - len(toolList) - len(opening) - len("tools:|ctx:|prev:|")
	if budgetForVariable < 0 {
		budgetForVariable = 0
	}

	ctxBudget := budgetForVariable * 2 / 3
	prevBudget := budgetForVariable - ctxBudget

	context = truncateRunes(context, ctxBudget)
	previousStepSummary = truncateRunes(previousStepSummary, prevBudget)

	prompt := "tools:" + toolList + "|ctx:" + context + "|prev:" + previousStepSummary + "|" + opening
	return truncateRunes(prompt, PromptCharBudget)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	xmlToolCallRe    = regexp.MustCompile(`(?s)<tool_call>\s*(.*?)\s*</tool_call>`)
	fencedJSONRe     = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	descriptiveRe    = regexp.MustCompile(`(?i)using\s+(\S+)\s+tool\s+with\s+arguments:\s*(.*)`)
)

// ParseToolCall parses a worker's raw completion into a ToolCall, trying
// formats in a fixed order.
func ParseToolCall(raw string) (*ToolCall, *ParseError) {
	if m := xmlToolCallRe.FindStringSubmatch(raw); m != nil {
		if tc, err := parseJSONToolCall(m[1]); err == nil {
			return tc, nil
		}
		return nil, newParseError(ReasonJSONParseError, raw, "malformed <tool_call> JSON body")
	}

	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		body := strings.TrimSpace(m[1])
		if tc, err := parseJSONToolCall(body); err == nil {
			return tc, nil
		}
		// Try unwrapping a {"response": "..."} envelope containing a
		// descriptive call string.
		var wrapper map[string]any
		if err := json.Unmarshal([]byte(body), &wrapper); err == nil {
			if resp, ok := wrapper["response"].(string); ok {
				if tc, perr := parseDescriptive(resp); perr == nil {
					return tc, nil
				}
			}
		}
		return nil, newParseError(ReasonJSONParseError, raw, "malformed fenced JSON block")
	}

	if tc, perr := parseDescriptive(raw); perr == nil {
		return tc, nil
	}

	return nil, newParseError(ReasonNoValidFormat, raw, "no <tool_call>, fenced JSON, or descriptive call found")
}

func parseJSONToolCall(body string) (*ToolCall, error) {
	// Accept either a bare {"name":..,"arguments":{...}} or a
	// {"tool_call": {...}} wrapper.
	var generic map[string]any
	if err := json.Unmarshal([]byte(body), &generic); err != nil {
		return nil, err
	}
	if wrapped, ok := generic["tool_call"].(map[string]any); ok {
		generic = wrapped
	}
	name, _ := generic["name"].(string)
	if name == "" {
		return nil, &json.UnmarshalTypeError{}
	}
	args, _ := generic["arguments"].(map[string]any)
	return &ToolCall{Name: name, Arguments: args}, nil
}

// parseDescriptive matches "Using <tool> tool with arguments: k=v, k2=v2"
// case-insensitively, applying tool-specific key splitting for the tools
// whose argument values may themselves contain commas (write_file's
// content, in particular).
func parseDescriptive(raw string) (*ToolCall, *ParseError) {
	m := descriptiveRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, newParseError(ReasonNoValidFormat, raw, "no descriptive 'Using ... tool with arguments:' phrase found")
	}

	name := strings.ToLower(strings.TrimSpace(m[1]))
	argsStr := strings.TrimSpace(m[2])

	args := make(map[string]any)
	switch name {
	case "write_file", "edit_file":
		// "path=hello.txt, content=Hello, world!" — only the first comma
		// before an "=" delimits path from the (possibly comma-containing)
		// remaining argument value.
		parts := strings.SplitN(argsStr, ",", 2)
		if len(parts) == 2 {
			if k, v, ok := splitKV(parts[0]); ok {
				args[k] = v
			}
			rest := strings.TrimSpace(parts[1])
			if k, v, ok := splitKV(rest); ok {
				args[k] = v
			} else if name == "write_file" {
				args["content"] = rest
			} else {
				args["new_content"] = rest
			}
		} else if k, v, ok := splitKV(argsStr); ok {
			args[k] = v
		}
	case "read_file", "run_command":
		if k, v, ok := splitKV(argsStr); ok {
			args[k] = v
		} else {
			key := "path"
			if name == "run_command" {
				key = "command"
			}
			args[key] = argsStr
		}
	default:
		for _, pair := range strings.Split(argsStr, ",") {
			if k, v, ok := splitKV(pair); ok {
				args[k] = v
			}
		}
	}

	return &ToolCall{Name: name, Arguments: args}, nil
}

func splitKV(s string) (key, value string, ok bool) {
	s = strings.TrimSpace(s)
	idx := strings.Index(s, "=")
	if idx <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:]), true
}
