// Package episode records the outcome of one pass through a task subset
// and persists it under the workspace's gym/<run_id>/ directory.
package episode

import "time"

// Status is an episode's terminal outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailure Status = "failure"
)

// Summary aggregates per-task results into subset-level statistics.
type Summary struct {
	Total           int     `json:"total"`
	Passed          int     `json:"passed"`
	Failed          int     `json:"failed"`
	Timeout         int     `json:"timeout"`
	Error           int     `json:"error"`
	PassRate        float64 `json:"pass_rate"`
	AvgTurns        float64 `json:"avg_turns"`
	AvgTokens       float64 `json:"avg_tokens"`
	TotalDurationMs int64   `json:"total_duration_ms"`
}

// Episode is one pass of the agent across a benchmark subset.
type Episode struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id"`
	Iteration    int       `json:"iteration"`
	Model        string    `json:"model"`
	SuiteVersion string    `json:"suite_version"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Status       Status    `json:"status"`
	Summary      Summary   `json:"summary"`
	ResultsPath  string    `json:"results_path"`
}

// TaskOutcome is one task's individual result, used to build a Summary.
type TaskOutcome struct {
	Passed     bool
	TimedOut   bool
	Errored    bool
	Turns      int
	Tokens     int
	DurationMs int64
}

// Summarize aggregates a set of task outcomes into a Summary.
func Summarize(outcomes []TaskOutcome) Summary {
	s := Summary{Total: len(outcomes)}
	if len(outcomes) == 0 {
		return s
	}

	var totalTurns, totalTokens int
	for _, o := range outcomes {
		switch {
		case o.TimedOut:
			s.Timeout++
		case o.Errored:
			s.Error++
		case o.Passed:
			s.Passed++
		default:
			s.Failed++
		}
		totalTurns += o.Turns
		totalTokens += o.Tokens
		s.TotalDurationMs += o.DurationMs
	}

	s.PassRate = float64(s.Passed) / float64(s.Total)
	s.AvgTurns = float64(totalTurns) / float64(s.Total)
	s.AvgTokens = float64(totalTokens) / float64(s.Total)
	return s
}

// StatusFromSummary derives an episode-level status from its summary:
// success when every task passed, failure when none did, partial
// otherwise.
func StatusFromSummary(s Summary) Status {
	switch {
	case s.Total > 0 && s.Passed == s.Total:
		return StatusSuccess
	case s.Passed == 0:
		return StatusFailure
	default:
		return StatusPartial
	}
}
