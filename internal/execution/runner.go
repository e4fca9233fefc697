package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/pinchbench/pinchbench/internal/models"
)

// DefaultBinary is the external agent CLI invoked for every run.
const DefaultBinary = "openclaw"

// notFoundMessage is the stderr marker for a missing executable. Status
// classification matches on it, so launch failures stay recoverable.
const notFoundMessage = "command not found"

// CommandRequest describes one invocation of the agent CLI.
type CommandRequest struct {
	Args []string
	Dir  string

	// Timeout bounds wall-clock time. Zero means no bound.
	Timeout time.Duration
}

// CommandResult is the interpreted outcome of a CLI invocation. Launch
// failure and timeout are encoded in the result rather than returned as
// errors: both are recoverable per-run conditions.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// CommandRunner runs agent CLI commands. The process-management details stay
// behind this interface so the orchestrator only interprets results.
type CommandRunner interface {
	Run(ctx context.Context, req CommandRequest) CommandResult
}

// CLIRunner executes the agent CLI as a subprocess.
type CLIRunner struct {
	// Binary overrides the executable name. Empty means [DefaultBinary].
	Binary string
}

func (r *CLIRunner) binary() string {
	if r.Binary != "" {
		return r.Binary
	}
	return DefaultBinary
}

// Run implements [CommandRunner].
func (r *CLIRunner) Run(ctx context.Context, req CommandRequest) CommandResult {
	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, r.binary(), req.Args...)
	cmd.Dir = req.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: models.ExitUnknown,
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		return result
	}

	if err != nil && errors.Is(err, exec.ErrNotFound) {
		result.Stderr = fmt.Sprintf("%s %s: %v", r.binary(), notFoundMessage, err)
		return result
	}

	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	return result
}

// LaunchFailed reports whether the result indicates the executable could not
// be located.
func (c CommandResult) LaunchFailed() bool {
	return c.Stderr != "" && bytes.Contains([]byte(c.Stderr), []byte(notFoundMessage))
}
