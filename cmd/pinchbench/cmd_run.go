package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pinchbench/pinchbench/internal/bench"
	"github.com/pinchbench/pinchbench/internal/execution"
	"github.com/pinchbench/pinchbench/internal/grading"
	"github.com/pinchbench/pinchbench/internal/leaderboard"
	"github.com/pinchbench/pinchbench/internal/models"
	"github.com/pinchbench/pinchbench/internal/session"
	"github.com/pinchbench/pinchbench/internal/tasks"
)

var (
	runModel             string
	runSuite             string
	runTasksDir          string
	runOutputDir         string
	runWorkRoot          string
	runNoUpload          bool
	runTimeoutMultiplier float64
	runTrials            int
	runJudgeModel        string
	runJudgeTimeout      time.Duration
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark suite against a model",
		Long: `Run the benchmark suite against a model.

Each task is executed by a dedicated openclaw agent, graded per the task's
grading mode, and collected into a results file. Unless --no-upload is set
the results are submitted to the leaderboard afterwards.`,
		RunE: runCommandE,
	}

	cmd.Flags().StringVar(&runModel, "model", "", "Model identifier (e.g. anthropic/claude-sonnet-4)")
	cmd.Flags().StringVar(&runSuite, "suite", bench.SuiteAll, `Tasks to run: "all", "automated-only", or comma-separated IDs`)
	cmd.Flags().StringVar(&runTasksDir, "tasks-dir", "tasks", "Directory holding task_*.md files and their fixtures")
	cmd.Flags().StringVar(&runOutputDir, "output-dir", "results", "Results directory")
	cmd.Flags().StringVar(&runWorkRoot, "work-root", execution.DefaultWorkRoot, "Root directory for run workspaces")
	cmd.Flags().BoolVar(&runNoUpload, "no-upload", false, "Skip uploading to the leaderboard")
	cmd.Flags().Float64Var(&runTimeoutMultiplier, "timeout-multiplier", 1.0, "Scale all task timeouts")
	cmd.Flags().IntVar(&runTrials, "trials", 1, "Trials per task (>1 adds bootstrap statistics)")
	cmd.Flags().StringVar(&runJudgeModel, "judge-model", grading.DefaultJudgeModel, "Model used for LLM judge grading")
	cmd.Flags().DurationVar(&runJudgeTimeout, "judge-timeout", grading.DefaultJudgeTimeout, "Timeout for each judge invocation")

	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	loader := &tasks.Loader{Dir: runTasksDir}
	allTasks, err := loader.LoadAll()
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	if len(allTasks) == 0 {
		return fmt.Errorf("no tasks found in %s", runTasksDir)
	}

	orchestrator := &execution.Orchestrator{
		Runner:            &execution.CLIRunner{},
		Store:             session.NewStore(""),
		AssetsDir:         runTasksDir,
		WorkRoot:          runWorkRoot,
		TimeoutMultiplier: runTimeoutMultiplier,
	}

	runner := &bench.Runner{
		Orchestrator: orchestrator,
		Grader: &grading.Grader{
			Orchestrator: orchestrator,
			JudgeModel:   runJudgeModel,
			JudgeTimeout: runJudgeTimeout,
		},
		Model:     runModel,
		Suite:     runSuite,
		Trials:    runTrials,
		OutputDir: runOutputDir,
	}

	report, reportPath, err := runner.Run(cmd.Context(), allTasks)
	if err != nil {
		return err
	}

	printRunSummary(cmd.OutOrStdout(), report, reportPath)

	if runNoUpload {
		fmt.Fprintln(cmd.OutOrStdout(), "Skipping upload (--no-upload)")
	} else {
		client := &leaderboard.Client{Version: version}
		result, err := client.Upload(cmd.Context(), reportPath, false)
		if err != nil {
			return fmt.Errorf("uploading results: %w (re-run with --no-upload to skip, or `pinchbench register` to get a token)", err)
		}
		printUploadResult(cmd.OutOrStdout(), result)
	}

	errored := 0
	for _, task := range report.Tasks {
		if task.Status == models.StatusError {
			errored++
		}
	}
	if errored > 0 {
		return &RunFailureError{Message: fmt.Sprintf("%d of %d tasks ended in error", errored, len(report.Tasks))}
	}
	return nil
}
