package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pinchbench/pinchbench/internal/models"
	"github.com/pinchbench/pinchbench/internal/statistics"
)

// TaskReport is the per-task record of a benchmark run as written to the
// results file.
type TaskReport struct {
	TaskID           string             `json:"task_id"`
	Status           models.RunStatus   `json:"status"`
	TimedOut         bool               `json:"timed_out"`
	ExecutionTime    float64            `json:"execution_time"`
	TranscriptLength int                `json:"transcript_length"`
	Workspace        string             `json:"workspace"`
	Usage            models.UsageTotals `json:"usage"`
	Frontmatter      map[string]any     `json:"frontmatter,omitempty"`

	// Grading is the grade record. Single-trial runs carry the grade fields
	// directly (score, max_score, grading_type, breakdown, notes);
	// multi-trial runs carry runs, mean and stats.
	Grading map[string]any `json:"grading"`
}

// RunReport is the aggregate result of one benchmark run.
type RunReport struct {
	Model     string       `json:"model"`
	RunID     string       `json:"run_id"`
	Suite     string       `json:"suite,omitempty"`
	Timestamp float64      `json:"timestamp"`
	Tasks     []TaskReport `json:"tasks"`
}

// singleTrialGrading renders one grade as the task's grading record.
func singleTrialGrading(grade *models.GradeResult) map[string]any {
	return grade.ToMap()
}

// multiTrialGrading renders repeated trials: the per-trial grade records,
// their mean, and bootstrap statistics. The first trial's breakdown and
// grading type are surfaced at the top level for consumers that only read
// single-trial records.
func multiTrialGrading(taskID string, grades []*models.GradeResult) map[string]any {
	runs := make([]map[string]any, 0, len(grades))
	scores := make([]float64, 0, len(grades))
	maxScore := 0.0
	for _, g := range grades {
		runs = append(runs, g.ToMap())
		scores = append(scores, g.Score)
		if g.MaxScore > maxScore {
			maxScore = g.MaxScore
		}
	}

	record := map[string]any{
		"task_id":   taskID,
		"runs":      runs,
		"mean":      statistics.Mean(scores),
		"max_score": maxScore,
		"stats":     statistics.Summarize(scores),
	}
	if len(grades) > 0 {
		record["grading_type"] = grades[0].Mode
		record["breakdown"] = grades[0].Breakdown
		record["notes"] = grades[0].Notes
	}
	return record
}

// WriteReport writes the aggregate report as indented JSON to
// <dir>/<modelSlug>_<runID>.json and returns the path.
func WriteReport(report *RunReport, dir, modelSlug string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", modelSlug, report.RunID))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
