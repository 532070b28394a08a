package hillclimber

import (
	"context"
	"fmt"
	"strings"
)

// MetaReasoner is the minimal capability the climber needs from a chat
// backend: produce free-form text for a prompt. Both the "free" meta-model
// and the deeper "auto-routing" model satisfy this with different
// underlying providers.
type MetaReasoner interface {
	Reason(ctx context.Context, prompt string) (string, error)
}

// AutoRoutingEveryN is how often (in run count) the climber escalates to
// the deeper auto-routing reasoner instead of the free one.
const AutoRoutingEveryN = 10

// Climber runs the per-task hill-climbing loop for one task_id.
type Climber struct {
	TaskID       string
	Store        *Store
	FreeReasoner MetaReasoner
	AutoReasoner MetaReasoner
	EveryN       int // defaults to AutoRoutingEveryN when zero
}

// Iterate runs one full cycle: load config, record the run, propose and
// apply a config change, persist everything, and update best-hint tracking.
func (c *Climber) Iterate(ctx context.Context, result TaskRunResult) (ConfigInput, ConfigChange, error) {
	current, err := c.Store.LoadConfig(ctx, c.TaskID)
	if err != nil {
		return ConfigInput{}, ConfigChange{}, err
	}

	configHash := ConfigHash(current)
	runNumber, err := c.Store.RecordRun(ctx, c.TaskID, configHash, result)
	if err != nil {
		return ConfigInput{}, ConfigChange{}, err
	}

	change, err := c.propose(ctx, current, result, runNumber)
	if err != nil {
		return ConfigInput{}, ConfigChange{}, err
	}

	next := Apply(current, change)
	if err := c.Store.SaveConfig(ctx, next); err != nil {
		return ConfigInput{}, ConfigChange{}, err
	}

	score := 0.0
	if result.Passed {
		score = 1.0
	}
	if err := c.Store.UpdateBestHint(ctx, c.TaskID, current.Hint, score); err != nil {
		return ConfigInput{}, ConfigChange{}, err
	}

	return next, change, nil
}

func (c *Climber) propose(ctx context.Context, current ConfigInput, result TaskRunResult, runNumber int) (ConfigChange, error) {
	every := c.EveryN
	if every <= 0 {
		every = AutoRoutingEveryN
	}

	reasoner := c.FreeReasoner
	if c.AutoReasoner != nil && every > 0 && runNumber%every == 0 {
		reasoner = c.AutoReasoner
	}
	if reasoner == nil {
		return proposeHeuristic(c.TaskID, current, result), nil
	}

	history, err := c.Store.BuildHistory(ctx, c.TaskID)
	if err != nil {
		return ConfigChange{}, err
	}

	prompt := buildReasonerPrompt(current, result, history)
	raw, err := reasoner.Reason(ctx, prompt)
	if err != nil {
		// The meta-reasoner is unavailable: fall back to the heuristic
		// rather than surfacing the failure.
		return proposeHeuristic(c.TaskID, current, result), nil
	}

	return parseReasonerResponse(raw), nil
}

// buildReasonerPrompt assembles a prompt from the current hint, pass/fail
// flag, turn count, step summary, and a history section.
func buildReasonerPrompt(current ConfigInput, result TaskRunResult, history History) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current hint: %q\n", current.Hint)
	fmt.Fprintf(&sb, "Outcome: passed=%t, turns=%d\n", result.Passed, result.Turns)
	if result.ErrorMessage != "" {
		fmt.Fprintf(&sb, "Error: %s\n", result.ErrorMessage)
	}
	if len(result.StepSummary) > 0 {
		sb.WriteString("Recent steps:\n")
		for _, s := range result.StepSummary {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}
	fmt.Fprintf(&sb, "History: %d runs, %d passes, pass_rate=%.2f\n", history.TotalRuns, history.TotalPasses, history.PassRate)
	if history.BestHint != "" {
		fmt.Fprintf(&sb, "Best-ever hint (score %.2f): %q\n", history.BestScore, history.BestHint)
	}
	if len(history.TriedHints) > 0 {
		sb.WriteString("Previously tried hints: ")
		sb.WriteString(strings.Join(history.TriedHints, " | "))
		sb.WriteString("\n")
	}
	if len(history.RecentOutcomes) > 0 {
		sb.WriteString("Recent outcomes: ")
		for i, o := range history.RecentOutcomes {
			if i > 0 {
				sb.WriteString(", ")
			}
			if o {
				sb.WriteString("pass")
			} else {
				sb.WriteString("fail")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Do not re-propose a hint that has already been tried without improvement.\n")
	sb.WriteString("Reply with KEEP to leave the hint unchanged, or with the new hint text.")
	return sb.String()
}
