// Package execution invokes the external agent CLI for benchmark runs and
// interprets the outcome: status classification, transcript retrieval, and
// usage accounting.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pinchbench/pinchbench/internal/models"
	"github.com/pinchbench/pinchbench/internal/session"
)

// DefaultWorkRoot is where per-run task workspaces are created when the
// agent has no configured workspace of its own.
const DefaultWorkRoot = "/tmp/pinchbench"

// Orchestrator runs one task (or one helper prompt) at a time against an
// agent identity. Runs sharing an agent identity must not overlap: the
// session store's cleanup-before-run protocol assumes exclusive ownership of
// the agent's session directory while a run is in flight.
type Orchestrator struct {
	Runner CommandRunner
	Store  *session.Store

	// AssetsDir is where task fixture sources live.
	AssetsDir string

	// WorkRoot overrides [DefaultWorkRoot].
	WorkRoot string

	// TimeoutMultiplier scales task timeouts. Zero means 1.0.
	TimeoutMultiplier float64
}

func (o *Orchestrator) workRoot() string {
	if o.WorkRoot != "" {
		return o.WorkRoot
	}
	return DefaultWorkRoot
}

func (o *Orchestrator) multiplier() float64 {
	if o.TimeoutMultiplier > 0 {
		return o.TimeoutMultiplier
	}
	return 1.0
}

// Execute runs one task to completion and returns a classified result.
// Launch failure and timeout are recoverable (classified in the result);
// only workspace preparation failure is returned as an error.
func (o *Orchestrator) Execute(ctx context.Context, task *models.Task, agentID, runID string) (*models.ExecutionResult, error) {
	slog.Info("agent starting task", "agent", agentID, "task", task.TaskID, "name", task.Name, "category", task.Category)

	// Prior transcripts must be gone before the run so most-recently-modified
	// resolution can't pick up a stale file.
	o.Store.Cleanup(agentID)

	start := time.Now()
	workspace, err := o.PrepareWorkspace(ctx, task, runID, agentID)
	if err != nil {
		return nil, err
	}

	sessionID := fmt.Sprintf("%s_%d", task.TaskID, start.UnixMilli())
	timeout := time.Duration(float64(task.TimeoutSec) * o.multiplier() * float64(time.Second))

	res := o.Runner.Run(ctx, CommandRequest{
		Args: []string{
			"agent",
			"--agent", agentID,
			"--session-id", sessionID,
			"--message", task.Prompt,
		},
		Dir:     workspace,
		Timeout: timeout,
	})

	transcript := o.Store.Collect(agentID, sessionID, start)

	return &models.ExecutionResult{
		AgentID:    agentID,
		TaskID:     task.TaskID,
		Status:     ClassifyStatus(res, len(transcript)),
		Transcript: transcript,
		Usage:      ExtractUsage(transcript),
		Workspace:  workspace,
		ExitCode:   res.ExitCode,
		TimedOut:   res.TimedOut,
		Duration:   time.Since(start),
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
	}, nil
}

// RunPrompt sends a single free-standing prompt to an agent (used for helper
// agents like the judge) through the same execution path as task runs.
func (o *Orchestrator) RunPrompt(ctx context.Context, agentID, prompt, workspace string, timeout time.Duration) *models.ExecutionResult {
	o.Store.Cleanup(agentID)

	start := time.Now()
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		slog.Warn("failed to create prompt workspace", "dir", workspace, "error", err)
	}

	sessionID := fmt.Sprintf("judge_%d", start.UnixMilli())

	res := o.Runner.Run(ctx, CommandRequest{
		Args: []string{
			"agent",
			"--agent", agentID,
			"--session-id", sessionID,
			"--message", prompt,
		},
		Dir:     workspace,
		Timeout: timeout,
	})

	transcript := o.Store.Collect(agentID, sessionID, start)

	return &models.ExecutionResult{
		AgentID:    agentID,
		Status:     ClassifyStatus(res, len(transcript)),
		Transcript: transcript,
		Usage:      ExtractUsage(transcript),
		Workspace:  workspace,
		ExitCode:   res.ExitCode,
		TimedOut:   res.TimedOut,
		Duration:   time.Since(start),
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
	}
}

// PrepareWorkspace creates the task workspace and places fixture files in
// it. A missing fixture source is fatal: the run cannot proceed without its
// inputs.
func (o *Orchestrator) PrepareWorkspace(ctx context.Context, task *models.Task, runID, agentID string) (string, error) {
	workspace := o.AgentWorkspace(ctx, agentID)
	if workspace == "" {
		slog.Warn("could not determine agent workspace, using fallback")
		workspace = filepath.Join(o.workRoot(), runID, task.TaskID)
	}

	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return "", fmt.Errorf("creating workspace: %w", err)
	}

	for _, wf := range task.WorkspaceFiles {
		if wf.Content != "" {
			dest := filepath.Join(workspace, wf.Path)
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return "", fmt.Errorf("creating workspace subdir: %w", err)
			}
			if err := os.WriteFile(dest, []byte(wf.Content), 0o644); err != nil {
				return "", fmt.Errorf("writing inline workspace file %s: %w", wf.Path, err)
			}
			continue
		}

		source := o.resolveFixture(wf.Source)
		dest := filepath.Join(workspace, wf.Dest)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return "", fmt.Errorf("creating workspace subdir: %w", err)
		}
		data, err := os.ReadFile(source)
		if err != nil {
			return "", fmt.Errorf("workspace fixture %s: %w", source, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return "", fmt.Errorf("copying fixture to %s: %w", dest, err)
		}
	}

	return workspace, nil
}

// resolveFixture locates a fixture source on disk. Task suites keep fixtures
// in an assets/ directory next to the task files; sources sitting directly in
// the tasks directory are also accepted.
func (o *Orchestrator) resolveFixture(source string) string {
	nested := filepath.Join(o.AssetsDir, "assets", source)
	if _, err := os.Stat(nested); err == nil {
		return nested
	}
	return filepath.Join(o.AssetsDir, source)
}

// ClassifyStatus derives a run status from the process outcome and the
// resolved transcript length.
//
// An empty transcript overrides a successful exit code: completion without
// evidence is not trusted. A timed-out run is always reported as timeout,
// even when its transcript is empty or its exit code is garbage.
func ClassifyStatus(res CommandResult, transcriptLen int) models.RunStatus {
	status := models.StatusSuccess

	if transcriptLen == 0 {
		status = models.StatusError
	}
	if res.ExitCode != 0 && res.ExitCode != models.ExitUnknown && !res.TimedOut {
		status = models.StatusError
	}
	if res.LaunchFailed() {
		status = models.StatusError
	}
	if res.TimedOut {
		status = models.StatusTimeout
	}

	return status
}

// ExtractUsage folds token and cost usage over the transcript. Only
// assistant-authored message events contribute; each counts as one request.
func ExtractUsage(events []models.TranscriptEvent) models.UsageTotals {
	var totals models.UsageTotals
	for _, evt := range events {
		if evt.Type != models.EventTypeMessage || evt.Message == nil {
			continue
		}
		if evt.Message.Role != models.RoleAssistant {
			continue
		}
		totals.Add(evt.Message.Usage)
	}
	return totals
}

// AssistantText concatenates the free text of all assistant messages in a
// transcript, newline-joined. Used to recover a judge's reply.
func AssistantText(events []models.TranscriptEvent) string {
	var chunks []string
	for _, evt := range events {
		if evt.Type != models.EventTypeMessage || evt.Message == nil {
			continue
		}
		if evt.Message.Role != models.RoleAssistant {
			continue
		}
		for _, block := range evt.Message.Content {
			if block.Type == models.ContentText && block.Text != "" {
				chunks = append(chunks, block.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(chunks, "\n"))
}
