package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	_ "embed"

	"github.com/pinchbench/pinchbench/internal/models"
)

//go:embed data/grade_wrapper.py
var gradeWrapperPy string

const defaultPythonTimeout = 60 * time.Second

func (g *Grader) pythonTimeout() time.Duration {
	if g.PythonTimeout > 0 {
		return g.PythonTimeout
	}
	return defaultPythonTimeout
}

func resolvePythonBin() string {
	// Prefer python3, but verify it actually works. On Windows the
	// Microsoft Store registers a python3.exe stub that just prints
	// "Python was not found" and exits 9009.
	if path, err := exec.LookPath("python3"); err == nil {
		cmd := exec.Command(path, "--version")
		if cmd.Run() == nil {
			return "python3"
		}
	}
	return "python"
}

// runPythonGrader executes task-supplied python scoring code through the
// embedded wrapper script as a subprocess, confined to the task workspace
// and bounded by the grader's python timeout.
func (g *Grader) runPythonGrader(ctx context.Context, source string, transcript []models.TranscriptEvent, workspace string) (map[string]any, error) {
	runCtx, cancel := context.WithTimeout(ctx, g.pythonTimeout())
	defer cancel()

	wrapper, err := os.CreateTemp("", "pinchbench-grade-*.py")
	if err != nil {
		return nil, err
	}
	defer os.Remove(wrapper.Name()) //nolint:errcheck

	if _, err := wrapper.WriteString(gradeWrapperPy); err != nil {
		return nil, err
	}
	if err := wrapper.Close(); err != nil {
		return nil, err
	}

	if transcript == nil {
		transcript = []models.TranscriptEvent{}
	}
	stdin, err := json.Marshal(struct {
		Source     string                   `json:"source"`
		Transcript []models.TranscriptEvent `json:"transcript"`
		Workspace  string                   `json:"workspace"`
	}{
		Source:     source,
		Transcript: transcript,
		Workspace:  workspace,
	})
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(runCtx, resolvePythonBin(), wrapper.Name())
	cmd.Dir = workspace
	cmd.Stdin = bytes.NewReader(stdin)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("scoring script failed (%s): %w", bytes.TrimSpace(exitErr.Stderr), err)
		}
		return nil, fmt.Errorf("scoring script failed: %w", err)
	}

	var parsed struct {
		Scores map[string]any `json:"scores"`
	}
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("decoding scoring output (%s): %w", bytes.TrimSpace(output), err)
	}
	if parsed.Scores == nil {
		parsed.Scores = map[string]any{}
	}
	return parsed.Scores, nil
}
