package ttt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVoteWeightsByTrainingAccuracy(t *testing.T) {
	t.Parallel()

	attempts := []Attempt{
		{Output: "A", TrainingAccuracy: 0.9},
		{Output: "A", TrainingAccuracy: 0.8},
		{Output: "B", TrainingAccuracy: 1.0},
	}

	output, confidence, ok := Vote(attempts)
	require.True(t, ok)
	require.Equal(t, "A", output)
	require.InDelta(t, 1702.0/2703.0, confidence, 0.0005)
}

func TestVoteGroupsStructurallyEqualOutputs(t *testing.T) {
	t.Parallel()

	attempts := []Attempt{
		{Output: map[string]any{"b": 2, "a": 1}, TrainingAccuracy: 0.5},
		{Output: map[string]any{"a": 1, "b": 2}, TrainingAccuracy: 0.5},
	}

	output, _, ok := Vote(attempts)
	require.True(t, ok)
	require.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, output)
}

func TestVoteReturnsFalseOnNoAttempts(t *testing.T) {
	t.Parallel()

	_, _, ok := Vote(nil)
	require.False(t, ok)
}
