package grading

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pinchbench/pinchbench/internal/models"
)

// Languages accepted for task-supplied scoring code. Lua runs in-process in a
// restricted interpreter; python runs as a subprocess in the task workspace.
const (
	langLua    = "lua"
	langPython = "python"
)

// GradeAutomated runs the task's embedded scoring code against the
// transcript and workspace. Scoring failures degrade to a zero grade with an
// explanatory note rather than failing the benchmark run.
func (g *Grader) GradeAutomated(ctx context.Context, task *models.Task, result *models.ExecutionResult) *models.GradeResult {
	grade := &models.GradeResult{
		TaskID:    task.TaskID,
		MaxScore:  1.0,
		Mode:      models.GradingAutomated,
		Breakdown: map[string]float64{},
	}

	lang, source := extractGradingSource(task.AutomatedChecks)
	if source == "" {
		grade.Notes = "No automated grading code found"
		return grade
	}

	var scores map[string]any
	var err error
	switch lang {
	case langLua:
		scores, err = runLuaGrader(ctx, source, result.Transcript, result.Workspace)
	case langPython:
		scores, err = g.runPythonGrader(ctx, source, result.Transcript, result.Workspace)
	}
	if err != nil {
		slog.Warn("automated grading failed", "task", task.TaskID, "lang", lang, "error", err)
		grade.Notes = "Automated grading failed: " + err.Error()
		return grade
	}

	grade.Score = clampScore(meanScores(scores), grade.MaxScore)
	grade.Breakdown = normalizeScores(scores)
	return grade
}

// extractGradingSource returns the language tag and body of the first fenced
// code block in the markdown tagged with a supported scoring language.
func extractGradingSource(markdown string) (lang, source string) {
	if strings.TrimSpace(markdown) == "" {
		return "", ""
	}

	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || source != "" {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		tag := string(fence.Language(src))
		if tag != langLua && tag != langPython {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		lines := fence.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}

		lang = tag
		source = buf.String()
		return ast.WalkSkipChildren, nil
	})

	return lang, strings.TrimSpace(source)
}
