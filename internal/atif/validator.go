package atif

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks a trajectory against the ATIF-v1.4 invariants and returns
// the first violation found, in step order. A nil error means the
// trajectory is valid.
func Validate(t *Trajectory) error {
	errs := validate(t, true)
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// ValidateAll runs every check and returns every violation found, rather
// than stopping at the first one.
func ValidateAll(t *Trajectory) []*ValidationError {
	return validate(t, false)
}

func validate(t *Trajectory, firstFail bool) []*ValidationError {
	var errs []*ValidationError
	report := func(e *ValidationError) bool {
		errs = append(errs, e)
		return firstFail
	}

	if t.SchemaVersion != SchemaVersion {
		if report(&ValidationError{
			Reason:  ReasonInvalidSchemaVersion,
			Details: fmt.Sprintf("expected %q, got %q", SchemaVersion, t.SchemaVersion),
		}) {
			return errs
		}
	}

	knownToolCalls := make(map[string]bool)

	expected := 1
	for _, step := range t.Steps {
		if step.StepID != expected {
			if report(&ValidationError{
				Reason:  ReasonInvalidStepSequence,
				StepID:  step.StepID,
				Details: fmt.Sprintf("expected step_id %d, got %d", expected, step.StepID),
			}) {
				return errs
			}
			// Resynchronize so a single bad step doesn't cascade into every
			// subsequent step being reported as out of sequence.
			expected = step.StepID
		}
		expected++

		if !validTimestamp(step.Timestamp) {
			if report(&ValidationError{
				Reason:  ReasonInvalidTimestamp,
				StepID:  step.StepID,
				Details: fmt.Sprintf("unparseable or missing 'T' separator: %q", step.Timestamp),
			}) {
				return errs
			}
		}

		switch step.Source {
		case SourceUser, SourceAgent, SourceSystem:
		default:
			if report(&ValidationError{
				Reason:  ReasonInvalidSource,
				StepID:  step.StepID,
				Details: fmt.Sprintf("unknown source %q", step.Source),
			}) {
				return errs
			}
		}

		if step.Source != SourceAgent && (step.ModelName != "" || step.ReasoningContent != "") {
			if report(&ValidationError{
				Reason:  ReasonAgentOnlyFieldOnNonAgent,
				StepID:  step.StepID,
				Details: "model_name/reasoning_content only valid on source=agent steps",
			}) {
				return errs
			}
		}

		if step.Message == "" && len(step.ToolCalls) == 0 && step.Observation == nil {
			if report(&ValidationError{
				Reason:  ReasonMissingRequiredField,
				StepID:  step.StepID,
				Details: "message is required",
			}) {
				return errs
			}
		}

		for _, tc := range step.ToolCalls {
			if tc.ToolCallID != "" {
				knownToolCalls[tc.ToolCallID] = true
			}
		}

		if step.Observation != nil {
			for _, res := range step.Observation.Results {
				if res.SourceCallID == "" {
					continue
				}
				if !knownToolCalls[res.SourceCallID] {
					if report(&ValidationError{
						Reason:  ReasonOrphanToolReference,
						StepID:  step.StepID,
						Details: fmt.Sprintf("source_call_id %q references no earlier tool_call_id", res.SourceCallID),
					}) {
						return errs
					}
				}
			}
		}
	}

	// final_metrics.total_steps mismatches are tolerated, not validated: the
	// source behaviour here is ambiguous.

	return errs
}

// validTimestamp requires an RFC3339-parseable timestamp with a literal 'T'
// date/time separator.
func validTimestamp(ts string) bool {
	if !strings.Contains(ts, "T") {
		return false
	}
	if _, err := time.Parse(time.RFC3339, ts); err == nil {
		return true
	}
	if _, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return true
	}
	return false
}
