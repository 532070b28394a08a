// Package atif implements the Agent Trajectory Interchange Format (ATIF-v1.4):
// an append-only, crash-safe log of agent session steps plus a full-trajectory
// store used for cross-session lookup, tree traversal, and archival.
package atif

// SchemaVersion is the only schema version this package emits and accepts.
const SchemaVersion = "ATIF-v1.4"

// Source identifies who produced a Step.
type Source string

const (
	SourceUser   Source = "user"
	SourceAgent  Source = "agent"
	SourceSystem Source = "system"
)

// Status is the lifecycle state recorded in a trajectory's index.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Header is the first line of a trajectory's JSONL file, and the envelope
// fields of a saved full trajectory.
type Header struct {
	SchemaVersion   string `json:"schema_version"`
	SessionID       string `json:"session_id"`
	Agent           Agent  `json:"agent"`
	ParentSessionID string `json:"parent_session_id,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// Agent describes the agent that produced a trajectory.
type Agent struct {
	Name      string `json:"name"`
	Version   string `json:"version,omitempty"`
	ModelName string `json:"model_name,omitempty"`
}

// Trajectory is a full, in-memory session: header plus ordered steps.
type Trajectory struct {
	SchemaVersion   string        `json:"schema_version"`
	SessionID       string        `json:"session_id"`
	Agent           Agent         `json:"agent"`
	ParentSessionID string        `json:"parent_session_id,omitempty"`
	CreatedAt       string        `json:"created_at"`
	Steps           []Step        `json:"steps"`
	FinalMetrics    *FinalMetrics `json:"final_metrics,omitempty"`
}

// Step is one observable event in an agent session.
type Step struct {
	StepID           int          `json:"step_id"`
	Timestamp        string       `json:"timestamp"`
	Source           Source       `json:"source"`
	Message          string       `json:"message"`
	ToolCalls        []ToolCall   `json:"tool_calls,omitempty"`
	Observation      *Observation `json:"observation,omitempty"`
	ModelName        string       `json:"model_name,omitempty"`
	ReasoningContent string       `json:"reasoning_content,omitempty"`
	Metrics          *StepMetrics `json:"metrics,omitempty"`
}

// ToolCall is a named function invocation produced by the agent.
type ToolCall struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Arguments  any    `json:"arguments,omitempty"`
}

// Observation carries the results of tool executions attached to a step.
type Observation struct {
	Results []ObservationResult `json:"results"`
}

// ObservationResult is one tool result, optionally linked back to the call
// that produced it and to any subagent trajectories it spawned.
type ObservationResult struct {
	SourceCallID         string   `json:"source_call_id,omitempty"`
	Content              string   `json:"content,omitempty"`
	SubagentTrajectoryRef []string `json:"subagent_trajectory_ref,omitempty"`
}

// StepMetrics carries token usage and cost attributed to a single step.
type StepMetrics struct {
	PromptTokens     int64   `json:"prompt_tokens,omitempty"`
	CompletionTokens int64   `json:"completion_tokens,omitempty"`
	CachedTokens     int64   `json:"cached_tokens,omitempty"`
	CostUSD          float64 `json:"cost_usd,omitempty"`
}

// FinalMetrics carries aggregate metrics for a whole session.
type FinalMetrics struct {
	TotalPromptTokens     int64   `json:"total_prompt_tokens,omitempty"`
	TotalCompletionTokens int64   `json:"total_completion_tokens,omitempty"`
	TotalCachedTokens     int64   `json:"total_cached_tokens,omitempty"`
	TotalCostUSD          float64 `json:"total_cost_usd,omitempty"`
	TotalSteps            int     `json:"total_steps,omitempty"`
}

// Checkpoint is the mutable progress marker stored in the index.
type Checkpoint struct {
	StepID              int    `json:"step_id"`
	Timestamp           string `json:"timestamp"`
	CompletedStepCount  int    `json:"completed_step_count"`
}

// Index is the small JSON sidecar rewritten atomically after every step.
type Index struct {
	SessionID       string        `json:"session_id"`
	Agent           Agent         `json:"agent"`
	Checkpoint      Checkpoint    `json:"checkpoint"`
	Status          Status        `json:"status"`
	FinalMetrics    *FinalMetrics `json:"final_metrics,omitempty"`
	ParentSessionID string        `json:"parent_session_id,omitempty"`
}

// Metadata is a derived summary of a stored trajectory, used by tree
// traversal and cross-session lookups without loading every step.
type Metadata struct {
	SessionID       string   `json:"session_id"`
	ParentSessionID string   `json:"parent_session_id,omitempty"`
	ChildSessionIDs []string `json:"child_session_ids,omitempty"`
	Agent           Agent    `json:"agent"`
	TotalCostUSD    float64  `json:"total_cost_usd"`
	TotalSteps      int      `json:"total_steps"`
}
