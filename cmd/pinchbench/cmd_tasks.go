package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pinchbench/pinchbench/internal/tasks"
)

var tasksDir string

func newTasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks in the benchmark suite",
		RunE:  tasksCommandE,
	}

	cmd.Flags().StringVar(&tasksDir, "tasks-dir", "tasks", "Directory holding task_*.md files")

	return cmd
}

func tasksCommandE(cmd *cobra.Command, args []string) error {
	loader := &tasks.Loader{Dir: tasksDir}
	loaded, err := loader.LoadAll()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d tasks in %s\n\n", len(loaded), tasksDir)
	for _, task := range loaded {
		fmt.Fprintf(w, "[%s] %s\n", task.TaskID, task.Name)
		fmt.Fprintf(w, "  Category: %s\n", task.Category)
		fmt.Fprintf(w, "  Grading:  %s\n", task.GradingMode)
		fmt.Fprintf(w, "  Timeout:  %ds\n", task.TimeoutSec)
		fmt.Fprintf(w, "  Criteria: %d items\n", len(task.GradingCriteria))

		prompt := task.Prompt
		if len(prompt) > 100 {
			prompt = prompt[:100] + "..."
		}
		fmt.Fprintf(w, "  Prompt:   %s\n\n", strings.ReplaceAll(prompt, "\n", " "))
	}
	return nil
}
