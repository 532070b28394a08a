// Package loop implements the training loop runner: progressive iteration
// across TB_10 -> TB_30 -> TB_89 subsets with checkpoint/resume.
package loop

import "time"

// Subset is one of the progressively larger benchmark slices.
type Subset string

const (
	SubsetTB10 Subset = "TB_10"
	SubsetTB30 Subset = "TB_30"
	SubsetTB89 Subset = "TB_89"
)

// Next returns the subset that follows s, and false if s is already the
// largest (TB_89).
func (s Subset) Next() (Subset, bool) {
	switch s {
	case SubsetTB10:
		return SubsetTB30, true
	case SubsetTB30:
		return SubsetTB89, true
	default:
		return s, false
	}
}

// Status is the loop runner's coarse lifecycle state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// SubsetStats tracks per-subset progress: how many iterations have run on
// this subset, a rolling success rate, and the best success rate ever
// observed on it.
type SubsetStats struct {
	Iterations  int     `json:"iterations"`
	SuccessRate float64 `json:"success_rate"`
	BestRate    float64 `json:"best_rate"`
}

// State is the loop runner's full persisted checkpoint, written to
// training/loop-state.json.
type State struct {
	RunID           string                 `json:"run_id"`
	Status          Status                 `json:"status"`
	CurrentSubset   Subset                 `json:"current_subset"`
	Iteration       int                    `json:"iteration"`
	TotalIterations int                    `json:"total_iterations"`
	PerSubset       map[Subset]SubsetStats `json:"per_subset"`
	OverallRate     float64                `json:"overall_rate"`
	StartedAt       time.Time              `json:"started_at"`
	LastUpdatedAt   time.Time              `json:"last_updated_at"`
	TotalDurationMs int64                  `json:"total_duration_ms"`
	LastEpisodeID   string                 `json:"last_episode_id,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// Config tunes a Runner.
type Config struct {
	StartSubset                   Subset
	MaxDurationMs                 int64 // 0 = unlimited
	MaxIterations                 int   // 0 = unlimited
	IterationDelayMs              int64
	ProgressionThreshold          float64
	MinIterationsBeforeProgression int
	StateFilePath                 string
	AutoResume                    bool
}

// DefaultConfig returns the harness's built-in defaults.
func DefaultConfig(stateFilePath string) Config {
	return Config{
		StartSubset:                    SubsetTB10,
		ProgressionThreshold:           0.8,
		MinIterationsBeforeProgression: 3,
		StateFilePath:                  stateFilePath,
		AutoResume:                     true,
	}
}
