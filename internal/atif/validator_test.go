package atif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validTrajectory() *Trajectory {
	return &Trajectory{
		SchemaVersion: SchemaVersion,
		SessionID:     "session-2026-07-30T12-00-00-abcdef",
		Agent:         Agent{Name: "openagents-trainer"},
		Steps: []Step{
			{StepID: 1, Timestamp: "2026-07-30T12:00:00Z", Source: SourceUser, Message: "do the thing"},
			{
				StepID:    2,
				Timestamp: "2026-07-30T12:00:01Z",
				Source:    SourceAgent,
				Message:   "working on it",
				ModelName: "claude-test",
				ToolCalls: []ToolCall{{ToolCallID: "tc-1", Name: "run_command"}},
			},
			{
				StepID:    3,
				Timestamp: "2026-07-30T12:00:02Z",
				Source:    SourceSystem,
				Message:   "tool result",
				Observation: &Observation{
					Results: []ObservationResult{{SourceCallID: "tc-1", Content: "ok"}},
				},
			},
		},
	}
}

func TestValidate_AcceptsValidTrajectory(t *testing.T) {
	t.Parallel()
	require.NoError(t, Validate(validTrajectory()))
}

func TestValidate_RejectsBadSchemaVersion(t *testing.T) {
	t.Parallel()
	tr := validTrajectory()
	tr.SchemaVersion = "ATIF-v1.0"
	err := Validate(tr)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ReasonInvalidSchemaVersion, ve.Reason)
}

func TestValidate_RejectsStepSequenceGap(t *testing.T) {
	t.Parallel()
	tr := validTrajectory()
	tr.Steps[2].StepID = 5
	err := Validate(tr)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ReasonInvalidStepSequence, ve.Reason)
	require.Equal(t, 5, ve.StepID)
}

func TestValidate_RejectsBadTimestamp(t *testing.T) {
	t.Parallel()
	tr := validTrajectory()
	tr.Steps[0].Timestamp = "2026-07-30 12:00:00" // no literal 'T'
	err := Validate(tr)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ReasonInvalidTimestamp, ve.Reason)
}

func TestValidate_RejectsUnknownSource(t *testing.T) {
	t.Parallel()
	tr := validTrajectory()
	tr.Steps[0].Source = "robot"
	err := Validate(tr)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ReasonInvalidSource, ve.Reason)
}

func TestValidate_RejectsAgentOnlyFieldOnNonAgentStep(t *testing.T) {
	t.Parallel()
	tr := validTrajectory()
	tr.Steps[0].ReasoningContent = "thinking out loud"
	err := Validate(tr)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ReasonAgentOnlyFieldOnNonAgent, ve.Reason)
}

func TestValidate_RejectsOrphanToolReference(t *testing.T) {
	t.Parallel()
	tr := validTrajectory()
	tr.Steps[2].Observation.Results[0].SourceCallID = "tc-missing"
	err := Validate(tr)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ReasonOrphanToolReference, ve.Reason)
	require.Equal(t, 3, ve.StepID)
}

func TestValidate_ToleratesFinalMetricsMismatch(t *testing.T) {
	t.Parallel()
	tr := validTrajectory()
	tr.FinalMetrics = &FinalMetrics{TotalSteps: 999}
	require.NoError(t, Validate(tr))
}

func TestValidateAll_CollectsEveryViolation(t *testing.T) {
	t.Parallel()
	tr := validTrajectory()
	tr.Steps[0].Source = "robot"
	tr.Steps[2].Observation.Results[0].SourceCallID = "tc-missing"

	errs := ValidateAll(tr)
	require.Len(t, errs, 2)
}
