// Package runner invokes an agent to execute one phase and parses the
// structured PhaseResult it produces. Two implementations exist:
// SubprocessRunner shells out to a CLI agent binary and parses its
// stream-json output; AnthropicRunner calls the Anthropic API directly
// from within the process. Both honor the same contract so the
// Executor (internal/executor) is indifferent to which backend a
// project configures.
package runner

import (
	"context"
	"time"

	"github.com/orcd/orcd/internal/model"
)

// Runner invokes an agent against prompt, expecting it to (eventually)
// produce a PhaseResult readable at resultPath, and enforces timeout
// itself — callers do not wrap the context.
type Runner interface {
	RunAgent(ctx context.Context, prompt, resultPath string, timeout time.Duration) (*model.PhaseResult, error)
}

// ExpandVars substitutes ${VAR} references in a prompt template using
// vars, falling back to the process environment — grounded on the
// teacher's dispatch.ExpandVars.
func ExpandVars(template string, vars map[string]string) string {
	return expandVars(template, vars)
}
