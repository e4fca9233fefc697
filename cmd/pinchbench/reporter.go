package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pinchbench/pinchbench/internal/bench"
	"github.com/pinchbench/pinchbench/internal/leaderboard"
	"github.com/pinchbench/pinchbench/internal/models"
)

func printRunSummary(w io.Writer, report *bench.RunReport, reportPath string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "BENCHMARK SUMMARY  model=%s  run=%s\n", report.Model, report.RunID)
	fmt.Fprintln(w, strings.Repeat("=", 72))

	var totalScore, maxScore, totalTime float64
	for _, task := range report.Tasks {
		score := gradingScore(task.Grading)
		totalScore += score
		maxScore += gradingMax(task.Grading)
		totalTime += task.ExecutionTime

		marker := "ok"
		switch task.Status {
		case models.StatusTimeout:
			marker = "TIMEOUT"
		case models.StatusError:
			marker = "ERROR"
		}
		fmt.Fprintf(w, "%-32s %-8s score=%.3f time=%.1fs\n", task.TaskID, marker, score, task.ExecutionTime)
	}

	fmt.Fprintln(w, strings.Repeat("-", 72))
	fmt.Fprintf(w, "Total score: %.3f / %.1f over %d tasks in %.1fs\n",
		totalScore, maxScore, len(report.Tasks), totalTime)
	fmt.Fprintf(w, "Results written to %s\n", reportPath)
}

func printUploadResult(w io.Writer, result *leaderboard.UploadResult) {
	fmt.Fprintf(w, "Upload %s (submission %s)\n", result.Status, result.SubmissionID)
	if result.Rank != nil {
		fmt.Fprintf(w, "Leaderboard rank: #%d", *result.Rank)
		if result.Percentile != nil {
			fmt.Fprintf(w, " (%.0fth percentile)", *result.Percentile*100)
		}
		fmt.Fprintln(w)
	}
	if result.LeaderboardURL != "" {
		fmt.Fprintln(w, result.LeaderboardURL)
	}
}

func gradingScore(grading map[string]any) float64 {
	if v, ok := grading["score"].(float64); ok {
		return v
	}
	if v, ok := grading["mean"].(float64); ok {
		return v
	}
	return 0
}

func gradingMax(grading map[string]any) float64 {
	if v, ok := grading["max_score"].(float64); ok {
		return v
	}
	return 0
}
