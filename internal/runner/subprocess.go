package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/orcd/orcd/internal/model"
)

// SubprocessRunner shells out to a configured agent CLI binary (the
// shell/binary is explicitly out of scope per spec.md §1 — this is the
// default collaborator) and parses its stream-json output, grounded
// directly on the teacher's dispatch.RunAgent/runAgentTurn/processStream.
// The agent is expected to write a PhaseResult JSON document to
// resultPath before exiting zero.
type SubprocessRunner struct {
	Binary     string
	AllowTools []string
	WorkDir    string
	Logger     *log.Logger
}

func (r *SubprocessRunner) RunAgent(ctx context.Context, prompt, resultPath string, timeout time.Duration) (*model.PhaseResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sessionID := uuid.New().String()
	args := r.buildArgs(prompt, sessionID)

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = r.WorkDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("agent stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting agent binary %q: %w", r.Binary, err)
	}

	summary, streamErr := drainStream(ctx, stdout)
	code, waitErr := exitCode(cmd.Wait())
	if waitErr != nil {
		return nil, fmt.Errorf("agent process error: %w", waitErr)
	}
	if streamErr != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("reading agent stream: %w", streamErr)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if summary != nil && r.Logger != nil {
		r.Logger.Debug("agent turn finished", "session_id", sessionID, "cost_usd", summary.CostUSD, "exit_code", code)
	}
	if code != 0 {
		return nil, fmt.Errorf("agent %q exited with code %d", r.Binary, code)
	}

	return ParsePhaseResult(resultPath)
}

func (r *SubprocessRunner) buildArgs(prompt, sessionID string) []string {
	args := []string{
		"-p", prompt,
		"--output-format", "stream-json",
		"--verbose",
		"--session-id", sessionID,
	}
	if len(r.AllowTools) > 0 {
		args = append(args, "--allowedTools")
		args = append(args, r.AllowTools...)
	}
	return args
}
