package atif

import "fmt"

// ValidationReason enumerates the ways a trajectory can fail validation.
type ValidationReason string

const (
	ReasonInvalidStepSequence    ValidationReason = "invalid_step_sequence"
	ReasonInvalidTimestamp       ValidationReason = "invalid_timestamp"
	ReasonInvalidSource          ValidationReason = "invalid_source"
	ReasonOrphanToolReference    ValidationReason = "orphan_tool_reference"
	ReasonAgentOnlyFieldOnNonAgent ValidationReason = "agent_only_field_on_non_agent"
	ReasonMissingRequiredField   ValidationReason = "missing_required_field"
	ReasonInvalidSchemaVersion   ValidationReason = "invalid_schema_version"
)

// ValidationError reports a single invariant violation, tagged with the
// step it occurred at (0 when the violation is at the header level).
type ValidationError struct {
	Reason  ValidationReason
	StepID  int
	Details string
}

func (e *ValidationError) Error() string {
	if e.StepID > 0 {
		return fmt.Sprintf("atif: %s at step %d: %s", e.Reason, e.StepID, e.Details)
	}
	return fmt.Sprintf("atif: %s: %s", e.Reason, e.Details)
}

// StoreReason enumerates trajectory-store failure classes.
type StoreReason string

const (
	ReasonNotFound         StoreReason = "not_found"
	ReasonParseError       StoreReason = "parse_error"
	ReasonWriteError       StoreReason = "write_error"
	ReasonValidationFailed StoreReason = "validation_failed"
	ReasonInvalidPath      StoreReason = "invalid_path"
)

// StoreError is a tagged error returned by the trajectory store.
type StoreError struct {
	Reason StoreReason
	Cause  error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("atif store: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("atif store: %s", e.Reason)
}

func (e *StoreError) Unwrap() error { return e.Cause }

func newStoreErr(reason StoreReason, cause error) *StoreError {
	return &StoreError{Reason: reason, Cause: cause}
}
