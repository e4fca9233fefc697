// Package grading scores execution results. Three modes: automated (the task
// supplies scoring code), llm_judge (a judge agent scores against a rubric),
// and hybrid (a weighted blend of both).
package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/pinchbench/pinchbench/internal/execution"
	"github.com/pinchbench/pinchbench/internal/models"
)

// Judge defaults, overridable per Grader.
const (
	DefaultJudgeModel       = "anthropic/claude-opus-4.5"
	DefaultJudgeAgentPrefix = "bench-judge"
	DefaultJudgeTimeout     = 180 * time.Second
)

// Grader grades execution results for tasks.
type Grader struct {
	// Orchestrator runs judge prompts. Required for llm_judge and hybrid
	// tasks, unused for automated ones.
	Orchestrator *execution.Orchestrator

	JudgeModel       string
	JudgeAgentPrefix string
	JudgeTimeout     time.Duration

	// JudgeWorkRoot is where per-task judge workspaces are created. Empty
	// means <orchestrator work root>/judge.
	JudgeWorkRoot string

	// PythonTimeout bounds task-supplied python scoring code. Zero means
	// [defaultPythonTimeout].
	PythonTimeout time.Duration
}

func (g *Grader) judgeModel() string {
	if g.JudgeModel != "" {
		return g.JudgeModel
	}
	return DefaultJudgeModel
}

func (g *Grader) judgePrefix() string {
	if g.JudgeAgentPrefix != "" {
		return g.JudgeAgentPrefix
	}
	return DefaultJudgeAgentPrefix
}

func (g *Grader) judgeTimeout() time.Duration {
	if g.JudgeTimeout > 0 {
		return g.JudgeTimeout
	}
	return DefaultJudgeTimeout
}

// Grade scores one execution result according to the task's grading mode.
func (g *Grader) Grade(ctx context.Context, task *models.Task, result *models.ExecutionResult) (*models.GradeResult, error) {
	switch task.GradingMode {
	case models.GradingAutomated:
		return g.GradeAutomated(ctx, task, result), nil
	case models.GradingLLMJudge:
		return g.GradeJudge(ctx, task, result), nil
	case models.GradingHybrid:
		auto := g.GradeAutomated(ctx, task, result)
		judge := g.GradeJudge(ctx, task, result)
		return Combine(task, auto, judge), nil
	}
	return nil, fmt.Errorf("unknown grading mode: %q", task.GradingMode)
}

// meanScores averages the numeric values of a score mapping. Non-numeric
// values are ignored; an empty or all-non-numeric mapping averages to 0.
func meanScores(scores map[string]any) float64 {
	sum := 0.0
	n := 0
	for _, v := range scores {
		f, ok := asNumber(v)
		if !ok {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return 0.0
	}
	return sum / float64(n)
}

// normalizeScores coerces a score mapping to float64 values, dropping
// entries that aren't numeric.
func normalizeScores(scores map[string]any) map[string]float64 {
	out := map[string]float64{}
	for k, v := range scores {
		if f, ok := asNumber(v); ok {
			out[k] = f
		}
	}
	return out
}

// clampScore keeps a score inside [0, max]. Scoring inputs are untrusted
// (task-supplied code, judge replies), but a grade's score must stay in range
// no matter what they return.
func clampScore(score, max float64) float64 {
	return math.Max(0, math.Min(score, max))
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
