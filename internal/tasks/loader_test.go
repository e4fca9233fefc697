package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pinchbench/pinchbench/internal/models"
)

const sampleTask = `---
id: task_count_files
name: Count files
category: shell
grading_type: hybrid
timeout_seconds: 90
workspace_files:
  - source: fixtures/data.csv
    dest: data.csv
  - path: notes.txt
    content: "hello"
grading_weights:
  automated: 0.6
  llm_judge: 0.4
---

## Prompt

Count the files in the workspace.

## Expected Behavior

Runs ls exactly once and reports the count.

## Grading Criteria

- [ ] Correct count reported
- [x] Single tool call
- not a checklist item

## Automated Checks

` + "```lua\nfunction grade(t, w) return {count = 1.0} end\n```" + `

## LLM Judge Rubric

- correctness: did the agent report the right count?
`

func writeTask(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTask(t *testing.T) {
	path := writeTask(t, t.TempDir(), "task_count_files.md", sampleTask)

	task, err := LoadTask(path)
	require.NoError(t, err)

	require.Equal(t, "task_count_files", task.TaskID)
	require.Equal(t, "Count files", task.Name)
	require.Equal(t, "shell", task.Category)
	require.Equal(t, models.GradingHybrid, task.GradingMode)
	require.Equal(t, 90, task.TimeoutSec)
	require.Equal(t, []models.WorkspaceFile{
		{Source: "fixtures/data.csv", Dest: "data.csv"},
		{Path: "notes.txt", Content: "hello"},
	}, task.WorkspaceFiles)
	require.Equal(t, map[string]float64{"automated": 0.6, "llm_judge": 0.4}, task.GradingWeights)

	require.Equal(t, "Count the files in the workspace.", task.Prompt)
	require.Equal(t, "Runs ls exactly once and reports the count.", task.ExpectedBehavior)
	require.Equal(t, []string{"Correct count reported", "Single tool call"}, task.GradingCriteria)
	require.Contains(t, task.AutomatedChecks, "function grade")
	require.Contains(t, task.JudgeRubric, "correctness")
	require.Equal(t, path, task.FilePath)
	require.Equal(t, "task_count_files", task.Frontmatter["id"])
}

func TestLoadTask_Defaults(t *testing.T) {
	content := `---
id: task_min
name: Minimal
grading_type: automated
---

## Prompt

Do nothing.
`
	task, err := LoadTask(writeTask(t, t.TempDir(), "task_min.md", content))
	require.NoError(t, err)
	require.Equal(t, 120, task.TimeoutSec)
	require.Equal(t, models.GradingAutomated, task.GradingMode)
	require.Empty(t, task.GradingCriteria)
	require.Empty(t, task.WorkspaceFiles)
}

func TestLoadTask_Invalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("no frontmatter", func(t *testing.T) {
		_, err := LoadTask(writeTask(t, dir, "task_a.md", "## Prompt\n\nhi\n"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "frontmatter")
	})

	t.Run("unterminated frontmatter", func(t *testing.T) {
		_, err := LoadTask(writeTask(t, dir, "task_b.md", "---\nid: x\n"))
		require.Error(t, err)
	})

	t.Run("schema violation", func(t *testing.T) {
		content := "---\nid: task_x\nname: X\ngrading_type: guesswork\n---\n\n## Prompt\n\nhi\n"
		_, err := LoadTask(writeTask(t, dir, "task_c.md", content))
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid frontmatter")
	})

	t.Run("missing required fields", func(t *testing.T) {
		content := "---\ncategory: misc\n---\n\n## Prompt\n\nhi\n"
		_, err := LoadTask(writeTask(t, dir, "task_d.md", content))
		require.Error(t, err)
	})
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "task_b_second.md", "---\nid: task_b\nname: B\ngrading_type: automated\n---\n\n## Prompt\n\nb\n")
	writeTask(t, dir, "task_a_first.md", "---\nid: task_a\nname: A\ngrading_type: automated\n---\n\n## Prompt\n\na\n")
	// Broken file is skipped, not fatal.
	writeTask(t, dir, "task_c_broken.md", "no frontmatter")
	// Non-matching names are ignored.
	writeTask(t, dir, "README.md", "ignored")

	loader := &Loader{Dir: dir}
	tasks, err := loader.LoadAll()
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, "task_a", tasks[0].TaskID)
	require.Equal(t, "task_b", tasks[1].TaskID)
}

func TestParseSections(t *testing.T) {
	body := "preamble is dropped\n\n## One\n\nfirst\n\n## Two\n\nsecond\nline\n"
	sections := parseSections(body)
	require.Equal(t, "first", sections["One"])
	require.Equal(t, "second\nline", sections["Two"])
	require.NotContains(t, sections, "preamble is dropped")
}

func TestValidateFrontmatter(t *testing.T) {
	valid := map[string]any{
		"id":           "task_x",
		"name":         "X",
		"grading_type": "automated",
	}
	require.Empty(t, ValidateFrontmatter(valid))

	invalid := map[string]any{
		"id":              "",
		"name":            "X",
		"grading_type":    "automated",
		"timeout_seconds": 0,
	}
	errs := ValidateFrontmatter(invalid)
	require.NotEmpty(t, errs)
}
