package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTasksCommand(t *testing.T) {
	dir := t.TempDir()
	task := `---
id: task_demo
name: Demo task
category: shell
grading_type: automated
---

## Prompt

Do the demo thing, thoroughly and at length so the prompt preview gets truncated somewhere past one hundred characters.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "task_demo.md"), []byte(task), 0o644))

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"tasks", "--tasks-dir", dir})

	require.NoError(t, cmd.Execute())

	got := out.String()
	require.Contains(t, got, "1 tasks in")
	require.Contains(t, got, "[task_demo] Demo task")
	require.Contains(t, got, "Grading:  automated")
	require.Contains(t, got, "...")
}

func TestUploadCommand_DryRun(t *testing.T) {
	results := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(results, []byte(`{"model":"m","run_id":"0001","tasks":[]}`), 0o644))

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"upload", results, "--dry-run", "--token", "tok"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "Upload dry_run")
}

func TestRunCommand_RequiresModel(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run"})

	require.Error(t, cmd.Execute())
}
