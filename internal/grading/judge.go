package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pinchbench/pinchbench/internal/execution"
	"github.com/pinchbench/pinchbench/internal/models"
)

// GradeJudge asks a judge agent to score the run against the task's rubric.
// Judge failures (missing CLI, timeout, unparsable reply) degrade to a zero
// grade; the benchmark run continues.
func (g *Grader) GradeJudge(ctx context.Context, task *models.Task, result *models.ExecutionResult) *models.GradeResult {
	grade := &models.GradeResult{
		TaskID:    task.TaskID,
		MaxScore:  1.0,
		Mode:      models.GradingLLMJudge,
		Breakdown: map[string]float64{},
	}

	rubric := task.JudgeRubric
	if strings.TrimSpace(rubric) == "" {
		rubric = formatGradingCriteria(task)
	}

	summary := SummarizeTranscript(result.Transcript)
	prompt := buildJudgePrompt(task, summary, rubric)

	agentID := fmt.Sprintf("%s-%s", g.judgePrefix(), execution.SlugifyModel(g.judgeModel()))
	g.Orchestrator.EnsureAgent(ctx, agentID, g.judgeModel(), filepath.Join(g.judgeRoot(), "workspace"))

	judgeResult := g.Orchestrator.RunPrompt(ctx, agentID, prompt, filepath.Join(g.judgeRoot(), task.TaskID), g.judgeTimeout())

	parsed := ParseJudgeResponse(execution.AssistantText(judgeResult.Transcript))
	if len(parsed) == 0 {
		slog.Warn("judge produced no parsable response", "task", task.TaskID, "judge_status", judgeResult.Status)
	}

	breakdown, _ := parsed["scores"].(map[string]any)
	grade.Breakdown = normalizeScores(breakdown)

	if total, ok := asNumber(parsed["total"]); ok {
		grade.Score = total
	} else {
		grade.Score = meanScores(breakdown)
	}
	grade.Score = clampScore(grade.Score, grade.MaxScore)

	if notes, ok := parsed["notes"].(string); ok {
		grade.Notes = notes
	}
	return grade
}

func (g *Grader) judgeRoot() string {
	if g.JudgeWorkRoot != "" {
		return g.JudgeWorkRoot
	}
	root := execution.DefaultWorkRoot
	if g.Orchestrator != nil && g.Orchestrator.WorkRoot != "" {
		root = g.Orchestrator.WorkRoot
	}
	return filepath.Join(root, "judge")
}

func formatGradingCriteria(task *models.Task) string {
	var lines []string
	for _, criterion := range task.GradingCriteria {
		lines = append(lines, "- "+criterion)
	}
	return strings.Join(lines, "\n")
}

// SummarizeTranscript condenses a transcript for the judge prompt: tool
// calls with their arguments, truncated tool results, and user messages.
// Assistant free text is omitted so the judge scores actions, not prose.
func SummarizeTranscript(transcript []models.TranscriptEvent) string {
	var parts []string
	for _, evt := range transcript {
		if evt.Type != models.EventTypeMessage || evt.Message == nil {
			continue
		}
		msg := evt.Message
		switch msg.Role {
		case models.RoleAssistant:
			for _, block := range msg.Content {
				if block.Type != models.ContentToolCall {
					continue
				}
				args := block.Arguments
				if args == nil {
					args = map[string]any{}
				}
				encoded, err := json.Marshal(args)
				if err != nil {
					encoded = []byte("{}")
				}
				parts = append(parts, fmt.Sprintf("Tool: %s(%s)", block.Name, encoded))
			}
		case models.RoleToolResult:
			if len(msg.Content) > 0 {
				parts = append(parts, "Result: "+msg.Content[0].Preview(200))
			}
		case models.RoleUser:
			if len(msg.Content) > 0 {
				parts = append(parts, "User: "+msg.Content[0].Preview(0))
			}
		}
	}
	return strings.Join(parts, "\n")
}

func buildJudgePrompt(task *models.Task, transcriptSummary, rubric string) string {
	return "You are grading an AI agent's performance on a task.\n\n" +
		"Be a strict evaluator. Reserve 1.0 for genuinely excellent performance. " +
		"An average acceptable completion should score around 0.6-0.7. " +
		"Deduct points for unnecessary steps, verbose output, and inefficient tool usage.\n\n" +
		"## Task\n" +
		task.Prompt + "\n\n" +
		"## Expected Behavior\n" +
		task.ExpectedBehavior + "\n\n" +
		"## Agent Transcript (summarized)\n" +
		transcriptSummary + "\n\n" +
		"## Grading Rubric\n" +
		rubric + "\n\n" +
		"Score each criterion from 0.0 to 1.0. Provide brief justification for each score. " +
		"Output strict JSON with keys: scores (object), total (number 0-1), notes (string)."
}
