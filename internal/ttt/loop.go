package ttt

import "context"

// Run drives the full generate-attempt-relabel-vote loop for task against
// examples, terminating early on satisfaction, stalled improvement, or the
// iteration limit.
func Run(ctx context.Context, task string, examples []Example, gen Generator, val Validator, cfg Config) (Result, error) {
	var iterations []IterationResult
	var hindsight []HindsightPair
	prevBest := -1.0

	for i := 0; i < cfg.MaxIterations; i++ {
		outputs, err := gen.Generate(ctx, task, examples, hindsight, cfg.AttemptsPerIteration)
		if err != nil {
			return Result{}, err
		}

		attempts := make([]Attempt, 0, len(outputs))
		best := 0.0
		for _, out := range outputs {
			attempt, err := val.Validate(ctx, task, out, examples)
			if err != nil {
				continue
			}
			attempts = append(attempts, attempt)
			if attempt.TrainingAccuracy > best {
				best = attempt.TrainingAccuracy
			}
		}

		var newHindsight []HindsightPair
		if cfg.HindsightEnabled {
			newHindsight = synthesizeHindsight(task, attempts)
			hindsight = append(hindsight, newHindsight...)
		}

		iterations = append(iterations, IterationResult{Attempts: attempts, BestAccuracy: best, HindsightPairs: newHindsight})

		if best >= cfg.SatisfactionThreshold {
			break
		}
		if prevBest >= 0 && best-prevBest < cfg.MinImprovementThreshold {
			break
		}
		prevBest = best
	}

	result := Result{Iterations: iterations}
	if len(iterations) == 0 {
		return result, nil
	}

	last := iterations[len(iterations)-1]
	output, confidence, ok := Vote(last.Attempts)
	if !ok {
		return result, nil
	}
	result.FinalPrediction = output
	result.Confidence = confidence
	result.Success = last.BestAccuracy >= cfg.SatisfactionThreshold
	return result, nil
}

// synthesizeHindsight pairs each failed-but-partially-correct attempt
// (nonzero training accuracy, not fully satisfying) with its own output as
// a worked example for the next iteration's generator (synthesize
// hindsight task-solution pairs from failed attempts with nonzero training
// accuracy").
func synthesizeHindsight(task string, attempts []Attempt) []HindsightPair {
	var pairs []HindsightPair
	for _, a := range attempts {
		if a.TrainingAccuracy > 0 && a.TrainingAccuracy < 1 {
			pairs = append(pairs, HindsightPair{Task: task, Solution: a.Output})
		}
	}
	return pairs
}
