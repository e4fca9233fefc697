package grading

import (
	"strings"

	"github.com/pinchbench/pinchbench/internal/models"
)

// Combine blends an automated grade and a judge grade into one hybrid grade
// using the task's grading weights (default 0.5/0.5; a non-positive weight
// sum resets to the default). Breakdown keys are namespaced by source mode
// so criteria with the same name never collide.
func Combine(task *models.Task, auto, judge *models.GradeResult) *models.GradeResult {
	autoWeight, llmWeight := 0.5, 0.5
	if w, ok := task.GradingWeights["automated"]; ok {
		autoWeight = w
	}
	if w, ok := task.GradingWeights["llm_judge"]; ok {
		llmWeight = w
	}

	totalWeight := autoWeight + llmWeight
	if totalWeight <= 0 {
		autoWeight, llmWeight = 0.5, 0.5
		totalWeight = 1.0
	}

	breakdown := make(map[string]float64, len(auto.Breakdown)+len(judge.Breakdown))
	for k, v := range auto.Breakdown {
		breakdown["automated."+k] = v
	}
	for k, v := range judge.Breakdown {
		breakdown["llm_judge."+k] = v
	}

	var notes []string
	for _, n := range []string{auto.Notes, judge.Notes} {
		if n != "" {
			notes = append(notes, n)
		}
	}

	return &models.GradeResult{
		TaskID:    task.TaskID,
		Score:     (auto.Score*autoWeight + judge.Score*llmWeight) / totalWeight,
		MaxScore:  1.0,
		Mode:      models.GradingHybrid,
		Breakdown: breakdown,
		Notes:     strings.Join(notes, " | "),
	}
}
