package loop

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openagents/harness/internal/episode"
)

// IterationFunc runs one iteration of the given subset and returns the
// resulting episode outcome.
type IterationFunc func(ctx context.Context, subset Subset, iteration int) (episode.Summary, string, error)

// Runner drives the subset-progression state machine.
type Runner struct {
	Config Config
	Run    IterationFunc

	state *State
}

// Start loads persisted state (if Config.AutoResume finds a running one)
// or creates a fresh State with a new run_id.
func (r *Runner) Start() (*State, error) {
	if r.Config.AutoResume {
		existing, err := loadState(r.Config.StateFilePath)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.Status == StatusRunning {
			r.state = existing
			return r.state, nil
		}
	}

	startSubset := r.Config.StartSubset
	if startSubset == "" {
		startSubset = SubsetTB10
	}

	r.state = &State{
		RunID:         uuid.NewString(),
		Status:        StatusRunning,
		CurrentSubset: startSubset,
		PerSubset:     map[Subset]SubsetStats{},
		StartedAt:     time.Now().UTC(),
		LastUpdatedAt: time.Now().UTC(),
	}
	if err := saveState(r.Config.StateFilePath, r.state); err != nil {
		return nil, err
	}
	return r.state, nil
}

// State returns the runner's current in-memory state.
func (r *Runner) State() *State {
	return r.state
}

// Pause is cooperative: it marks the state paused, taking effect at the
// top of the next iteration (the caller must stop calling Step).
func (r *Runner) Pause() error {
	r.state.Status = StatusPaused
	return saveState(r.Config.StateFilePath, r.state)
}

// Resume transitions a paused state back to running.
func (r *Runner) Resume() error {
	r.state.Status = StatusRunning
	return saveState(r.Config.StateFilePath, r.state)
}

// Step runs exactly one iteration if the state is running: the subset's
// task, records the resulting episode's summary, updates counters, checks
// progression, and persists the new state. Returns the updated state.
func (r *Runner) Step(ctx context.Context) (*State, error) {
	if r.state.Status != StatusRunning {
		return r.state, nil
	}

	iterStart := time.Now()
	summary, episodeID, err := r.Run(ctx, r.state.CurrentSubset, r.state.Iteration)
	if err != nil {
		r.state.Status = StatusFailed
		r.state.Error = err.Error()
		_ = saveState(r.Config.StateFilePath, r.state)
		return r.state, &Error{Reason: ReasonIterationFailed, Cause: err}
	}

	r.recordIteration(summary, episodeID, time.Since(iterStart))

	if r.shouldProgress() {
		r.progress()
	}

	r.checkLimits()

	if err := saveState(r.Config.StateFilePath, r.state); err != nil {
		return r.state, err
	}
	return r.state, nil
}

func (r *Runner) recordIteration(summary episode.Summary, episodeID string, elapsed time.Duration) {
	stats := r.state.PerSubset[r.state.CurrentSubset]
	stats.Iterations++
	// Rolling success rate: running mean over this subset's iterations.
	stats.SuccessRate = ((stats.SuccessRate * float64(stats.Iterations-1)) + summary.PassRate) / float64(stats.Iterations)
	if summary.PassRate > stats.BestRate {
		stats.BestRate = summary.PassRate
	}
	r.state.PerSubset[r.state.CurrentSubset] = stats

	r.state.Iteration++
	r.state.TotalIterations++
	r.state.LastEpisodeID = episodeID
	r.state.TotalDurationMs += elapsed.Milliseconds()
	r.state.LastUpdatedAt = time.Now().UTC()

	var totalWeighted, totalIters float64
	for _, s := range r.state.PerSubset {
		totalWeighted += s.SuccessRate * float64(s.Iterations)
		totalIters += float64(s.Iterations)
	}
	if totalIters > 0 {
		r.state.OverallRate = totalWeighted / totalIters
	}
}

// shouldProgress reports whether the current subset's iterations >= min
// AND its success rate >= threshold AND it isn't already TB_89.
func (r *Runner) shouldProgress() bool {
	if r.state.CurrentSubset == SubsetTB89 {
		return false
	}
	stats := r.state.PerSubset[r.state.CurrentSubset]
	minIters := r.Config.MinIterationsBeforeProgression
	if minIters <= 0 {
		minIters = 3
	}
	threshold := r.Config.ProgressionThreshold
	if threshold <= 0 {
		threshold = 0.8
	}
	return stats.Iterations >= minIters && stats.SuccessRate >= threshold
}

func (r *Runner) progress() {
	next, ok := r.state.CurrentSubset.Next()
	if !ok {
		return
	}
	r.state.CurrentSubset = next
	r.state.Iteration = 0
}

// checkLimits transitions to completed when maxDurationMs or
// maxIterations has been exceeded; these are clean completions, not
// failures.
func (r *Runner) checkLimits() {
	if r.Config.MaxDurationMs > 0 && r.state.TotalDurationMs >= r.Config.MaxDurationMs {
		r.state.Status = StatusCompleted
		return
	}
	if r.Config.MaxIterations > 0 && r.state.TotalIterations >= r.Config.MaxIterations {
		r.state.Status = StatusCompleted
	}
}
