// Package ttt implements test-time training: generate solution attempts for
// a target task, score each against labelled training examples, and pick a
// final prediction by weighted majority vote.
package ttt

import "context"

// Example is one labelled training pair.
type Example struct {
	Input  any
	Output any
}

// Attempt is one candidate solution along with its measured performance
// against the training examples.
type Attempt struct {
	Output           any
	TrainingAccuracy float64
	ExamplesTested   int
	ExamplesPassed   int
	ExampleResults   []bool
}

// Generator produces n candidate solution attempts for a task, optionally
// informed by hindsight pairs synthesized from prior failures.
type Generator interface {
	Generate(ctx context.Context, task string, examples []Example, hindsight []HindsightPair, n int) ([]any, error)
}

// Validator executes a candidate output against the training examples and
// reports per-example pass/fail plus aggregate accuracy.
type Validator interface {
	Validate(ctx context.Context, task string, output any, examples []Example) (Attempt, error)
}

// HindsightPair is a synthesized (task, solution) pair derived from a
// failed attempt that still scored nonzero training accuracy — useful as an
// extra in-context example for the next iteration's generator.
type HindsightPair struct {
	Task     string
	Solution any
}

// Config tunes the TTT loop.
type Config struct {
	MaxIterations           int
	AttemptsPerIteration    int
	SatisfactionThreshold   float64
	MinImprovementThreshold float64
	HindsightEnabled        bool
}

// DefaultConfig returns the harness's built-in defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations:           5,
		AttemptsPerIteration:    50,
		SatisfactionThreshold:   1.0,
		MinImprovementThreshold: 0.01,
		HindsightEnabled:        true,
	}
}

// Result is the outcome of a full TTT run.
type Result struct {
	Iterations     []IterationResult
	FinalPrediction any
	Confidence     float64
	Success        bool
}

// IterationResult captures one iteration's attempts and best accuracy.
type IterationResult struct {
	Attempts        []Attempt
	BestAccuracy    float64
	HindsightPairs  []HindsightPair
}
