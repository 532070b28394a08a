package archivist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openagents/harness/internal/atif"
	"github.com/openagents/harness/internal/chatprovider"
)

// HeuristicExtractor mines patterns from a trajectory using fixed rules
// only: no model call, used by the quick archive path. It flags repeated
// tool-call failures as pitfalls and repeated identical tool-call
// sequences across a session as a candidate optimization.
type HeuristicExtractor struct {
	Trajectories *atif.Store
}

func (h *HeuristicExtractor) Extract(sessionID string) ([]Pattern, error) {
	traj, err := h.Trajectories.Load(sessionID)
	if err != nil {
		return nil, fmt.Errorf("archivist: loading trajectory %s: %w", sessionID, err)
	}

	var patterns []Pattern
	if p, ok := detectRepeatedFailure(traj); ok {
		p.SourceEpisodeIDs = []string{sessionID}
		patterns = append(patterns, p)
	}
	if p, ok := detectToolRepetition(traj); ok {
		p.SourceEpisodeIDs = []string{sessionID}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// detectRepeatedFailure flags a pitfall when the same tool name produces an
// error-looking observation three or more times in one trajectory.
func detectRepeatedFailure(traj *atif.Trajectory) (Pattern, bool) {
	failuresByTool := map[string]int{}
	callNames := map[string]string{}
	for _, step := range traj.Steps {
		for _, tc := range step.ToolCalls {
			if tc.ToolCallID != "" {
				callNames[tc.ToolCallID] = tc.Name
			}
		}
		if step.Observation == nil {
			continue
		}
		for _, res := range step.Observation.Results {
			if !looksLikeFailure(res.Content) {
				continue
			}
			if name, ok := callNames[res.SourceCallID]; ok {
				failuresByTool[name]++
			} else if res.SourceCallID == "" {
				for _, tc := range step.ToolCalls {
					failuresByTool[tc.Name]++
				}
			}
		}
	}

	for tool, count := range failuresByTool {
		if count >= 3 {
			return Pattern{
				Name:        fmt.Sprintf("repeated-%s-failure", tool),
				Type:        PatternPitfall,
				Description: fmt.Sprintf("%s failed %d times in a single session", tool, count),
				Content:     fmt.Sprintf("Calls to %s repeatedly produced error-looking output; check arguments or preconditions before retrying.", tool),
				Category:    "pitfall",
				Confidence:  0.65,
				Occurrences: count,
			}, true
		}
	}
	return Pattern{}, false
}

// detectToolRepetition flags an optimization candidate when an identical
// ordered pair of tool calls recurs three or more times, suggesting the
// pair could collapse into one operation or a reusable skill.
func detectToolRepetition(traj *atif.Trajectory) (Pattern, bool) {
	pairCounts := map[string]int{}
	var prevNames []string
	for _, step := range traj.Steps {
		for _, tc := range step.ToolCalls {
			prevNames = append(prevNames, tc.Name)
		}
	}
	for i := 0; i+1 < len(prevNames); i++ {
		key := prevNames[i] + "->" + prevNames[i+1]
		pairCounts[key]++
	}

	for pair, count := range pairCounts {
		if count >= 3 {
			return Pattern{
				Name:        "recurring-" + strings.ReplaceAll(pair, "->", "-then-"),
				Type:        PatternOptimization,
				Description: fmt.Sprintf("tool sequence %s recurred %d times", pair, count),
				Content:     fmt.Sprintf("The sequence %s repeats often enough to consider a combined skill.", pair),
				Category:    "optimization",
				Confidence:  0.6,
				Occurrences: count,
			}, true
		}
	}
	return Pattern{}, false
}

func looksLikeFailure(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range []string{"error", "failed", "not found", "permission denied", "traceback"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ChatExtractor asks a chat provider to summarize reusable patterns out of
// a full trajectory transcript. Used by the full archive path.
type ChatExtractor struct {
	Provider chatprovider.Provider
	Trajectories *atif.Store
	Model        string
}

type chatPatternItem struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Content     string  `json:"content"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
}

func (c *ChatExtractor) Extract(sessionID string) ([]Pattern, error) {
	traj, err := c.Trajectories.Load(sessionID)
	if err != nil {
		return nil, fmt.Errorf("archivist: loading trajectory %s: %w", sessionID, err)
	}

	prompt := buildExtractPrompt(traj)
	resp, err := c.Provider.Chat(context.Background(), chatprovider.Request{
		Model:          c.Model,
		Messages:       []chatprovider.Message{{Role: chatprovider.RoleUser, Content: prompt}},
		ResponseFormat: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("archivist: extracting patterns from %s: %w", sessionID, err)
	}

	content := firstChatContent(resp)
	var items []chatPatternItem
	if err := json.Unmarshal([]byte(extractJSONArray(content)), &items); err != nil {
		return nil, fmt.Errorf("archivist: parsing extraction response for %s: %w", sessionID, err)
	}

	patterns := make([]Pattern, 0, len(items))
	for _, item := range items {
		if item.Name == "" {
			continue
		}
		patterns = append(patterns, Pattern{
			Name:             item.Name,
			Type:             PatternType(item.Type),
			Description:      item.Description,
			Content:          item.Content,
			Category:         item.Category,
			Confidence:       item.Confidence,
			Occurrences:      1,
			SourceEpisodeIDs: []string{sessionID},
		})
	}
	return patterns, nil
}

func buildExtractPrompt(traj *atif.Trajectory) string {
	var sb strings.Builder
	sb.WriteString("Review this agent session transcript and extract reusable patterns.\n")
	sb.WriteString("Classify each as one of: skill, optimization, pitfall.\n")
	sb.WriteString("Respond with a JSON array of objects: name, type, description, content, category, confidence (0-1).\n\n")
	for _, step := range traj.Steps {
		fmt.Fprintf(&sb, "[%s] %s\n", step.Source, step.Message)
		for _, tc := range step.ToolCalls {
			fmt.Fprintf(&sb, "  tool_call: %s\n", tc.Name)
		}
		if step.Observation != nil {
			for _, res := range step.Observation.Results {
				fmt.Fprintf(&sb, "  result: %s\n", truncateForPrompt(res.Content, 300))
			}
		}
	}
	return sb.String()
}

func truncateForPrompt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func firstChatContent(resp *chatprovider.Response) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

// extractJSONArray pulls the first top-level JSON array out of content,
// tolerating surrounding prose or a fenced code block.
func extractJSONArray(content string) string {
	start := strings.IndexByte(content, '[')
	end := strings.LastIndexByte(content, ']')
	if start == -1 || end == -1 || end < start {
		return content
	}
	return content[start : end+1]
}
