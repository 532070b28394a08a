package sandbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnconfigured_ExecuteReturnsNotConfigured(t *testing.T) {
	t.Parallel()

	var sb Sandbox = Unconfigured{}
	_, err := sb.Execute(context.Background(), Command{Name: "run_tests"})

	var sbErr *Error
	require.True(t, errors.As(err, &sbErr))
	require.Equal(t, ReasonNotConfigured, sbErr.Reason)
	require.NoError(t, sb.Close())
}
