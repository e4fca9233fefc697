// Package bench drives a benchmark run end to end: task selection, agent
// provisioning, per-task execution and grading, and the aggregate report.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pinchbench/pinchbench/internal/execution"
	"github.com/pinchbench/pinchbench/internal/grading"
	"github.com/pinchbench/pinchbench/internal/models"
	"github.com/pinchbench/pinchbench/internal/runid"
)

// Suite names understood by SelectTasks besides comma-separated task ids.
const (
	SuiteAll           = "all"
	SuiteAutomatedOnly = "automated-only"
)

// Runner executes a benchmark run for one model.
type Runner struct {
	Orchestrator *execution.Orchestrator
	Grader       *grading.Grader

	Model  string
	Suite  string
	Trials int

	// OutputDir is where the aggregate report is written.
	OutputDir string
}

func (r *Runner) trials() int {
	if r.Trials > 0 {
		return r.Trials
	}
	return 1
}

// SelectTasks filters tasks by suite: "all", "automated-only", or a
// comma-separated list of task ids. Unknown ids are ignored.
func SelectTasks(all []*models.Task, suite string) []*models.Task {
	switch suite {
	case "", SuiteAll:
		return all
	case SuiteAutomatedOnly:
		var selected []*models.Task
		for _, task := range all {
			if task.GradingMode == models.GradingAutomated {
				selected = append(selected, task)
			}
		}
		return selected
	}

	wanted := map[string]bool{}
	for _, id := range strings.Split(suite, ",") {
		if id = strings.TrimSpace(id); id != "" {
			wanted[id] = true
		}
	}
	var selected []*models.Task
	for _, task := range all {
		if wanted[task.TaskID] {
			selected = append(selected, task)
		}
	}
	return selected
}

// Run executes the selected tasks and writes the aggregate report. Per-task
// failures are recorded in the report, not fatal; only setup failures (run id
// allocation, workspace preparation, report writing) abort the run. Returns
// the report and the path it was written to.
func (r *Runner) Run(ctx context.Context, allTasks []*models.Task) (*RunReport, string, error) {
	selected := SelectTasks(allTasks, r.Suite)
	slog.Info("starting benchmark", "model", r.Model, "suite", r.Suite, "tasks", len(selected), "trials", r.trials())

	workRoot := r.Orchestrator.WorkRoot
	if workRoot == "" {
		workRoot = execution.DefaultWorkRoot
	}
	runID, err := runid.Next(workRoot)
	if err != nil {
		return nil, "", fmt.Errorf("allocating run id: %w", err)
	}

	modelSlug := execution.SlugifyModel(r.Model)
	agentID := "bench-" + modelSlug
	agentWorkspace := filepath.Join(workRoot, runID, "agent_workspace")
	r.Orchestrator.EnsureAgent(ctx, agentID, r.Model, agentWorkspace)

	report := &RunReport{
		Model:     r.Model,
		RunID:     runID,
		Suite:     r.Suite,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
	}

	for i, task := range selected {
		slog.Info("running task", "task", task.TaskID, "position", fmt.Sprintf("%d/%d", i+1, len(selected)))

		taskReport, err := r.runTask(ctx, task, agentID, runID)
		if err != nil {
			slog.Error("task run failed", "task", task.TaskID, "error", err)
			taskReport = &TaskReport{
				TaskID: task.TaskID,
				Status: models.StatusError,
				Grading: map[string]any{
					"task_id":      task.TaskID,
					"score":        0.0,
					"max_score":    1.0,
					"grading_type": string(task.GradingMode),
					"breakdown":    map[string]float64{},
					"notes":        "Run failed: " + err.Error(),
				},
				Frontmatter: task.Frontmatter,
			}
		}
		report.Tasks = append(report.Tasks, *taskReport)
	}

	path, err := WriteReport(report, r.OutputDir, modelSlug)
	if err != nil {
		return nil, "", err
	}
	slog.Info("benchmark complete", "tasks", len(report.Tasks), "report", path)
	return report, path, nil
}

// runTask executes and grades one task for the configured trial count.
func (r *Runner) runTask(ctx context.Context, task *models.Task, agentID, runID string) (*TaskReport, error) {
	trials := r.trials()
	var (
		lastResult *models.ExecutionResult
		grades     []*models.GradeResult
		totalTime  float64
		usage      models.UsageTotals
	)

	for trial := 0; trial < trials; trial++ {
		result, err := r.Orchestrator.Execute(ctx, task, agentID, runID)
		if err != nil {
			return nil, err
		}

		grade, err := r.Grader.Grade(ctx, task, result)
		if err != nil {
			return nil, err
		}

		slog.Info("task graded",
			"task", task.TaskID,
			"trial", trial+1,
			"status", result.Status,
			"score", fmt.Sprintf("%.3f", grade.Score))

		lastResult = result
		grades = append(grades, grade)
		totalTime += result.ExecutionSeconds()
		usage.InputTokens += result.Usage.InputTokens
		usage.OutputTokens += result.Usage.OutputTokens
		usage.CacheReadTokens += result.Usage.CacheReadTokens
		usage.CacheWriteTokens += result.Usage.CacheWriteTokens
		usage.TotalTokens += result.Usage.TotalTokens
		usage.CostUSD += result.Usage.CostUSD
		usage.RequestCount += result.Usage.RequestCount
	}

	var gradingRecord map[string]any
	if trials == 1 {
		gradingRecord = singleTrialGrading(grades[0])
	} else {
		gradingRecord = multiTrialGrading(task.TaskID, grades)
	}

	return &TaskReport{
		TaskID:           task.TaskID,
		Status:           lastResult.Status,
		TimedOut:         lastResult.TimedOut,
		ExecutionTime:    totalTime,
		TranscriptLength: len(lastResult.Transcript),
		Workspace:        lastResult.Workspace,
		Usage:            usage,
		Frontmatter:      task.Frontmatter,
		Grading:          gradingRecord,
	}, nil
}
