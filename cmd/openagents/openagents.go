// Package openagents is the public entry point for the training harness
// binary.
package openagents

import (
	"github.com/openagents/harness/internal/cmd"
)

// Execute runs the root harness command.
func Execute() {
	cmd.Execute()
}
