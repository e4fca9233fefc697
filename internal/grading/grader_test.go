package grading

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pinchbench/pinchbench/internal/models"
)

func TestMeanScores(t *testing.T) {
	require.InDelta(t, 0.75, meanScores(map[string]any{"a": 1.0, "b": 0.5}), 1e-9)
	require.Zero(t, meanScores(map[string]any{}))
	require.Zero(t, meanScores(nil))
	// Non-numeric values are ignored entirely.
	require.Zero(t, meanScores(map[string]any{"a": "great", "b": true}))
	require.InDelta(t, 1.0, meanScores(map[string]any{"a": 1.0, "b": "skipped"}), 1e-9)
}

func TestNormalizeScores(t *testing.T) {
	got := normalizeScores(map[string]any{"a": 0.5, "b": 1, "c": "oops", "d": nil})
	require.Equal(t, map[string]float64{"a": 0.5, "b": 1.0}, got)
}

func TestGrade_UnknownMode(t *testing.T) {
	g := &Grader{}
	_, err := g.Grade(context.Background(), &models.Task{GradingMode: "vibes"}, &models.ExecutionResult{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "vibes")
}

func TestCombine(t *testing.T) {
	auto := &models.GradeResult{
		Score:     0.8,
		Breakdown: map[string]float64{"files": 1.0, "output": 0.6},
		Notes:     "auto note",
	}
	judge := &models.GradeResult{
		Score:     0.4,
		Breakdown: map[string]float64{"clarity": 0.4},
		Notes:     "judge note",
	}

	t.Run("weighted blend", func(t *testing.T) {
		task := &models.Task{
			TaskID:         "t1",
			GradingWeights: map[string]float64{"automated": 0.3, "llm_judge": 0.7},
		}
		got := Combine(task, auto, judge)
		require.InDelta(t, 0.52, got.Score, 1e-9)
		require.Equal(t, models.GradingHybrid, got.Mode)
		require.Equal(t, map[string]float64{
			"automated.files":   1.0,
			"automated.output":  0.6,
			"llm_judge.clarity": 0.4,
		}, got.Breakdown)
		require.Equal(t, "auto note | judge note", got.Notes)
	})

	t.Run("default weights", func(t *testing.T) {
		got := Combine(&models.Task{TaskID: "t1"}, auto, judge)
		require.InDelta(t, 0.6, got.Score, 1e-9)
	})

	t.Run("non-positive weight sum resets to even split", func(t *testing.T) {
		task := &models.Task{
			TaskID:         "t1",
			GradingWeights: map[string]float64{"automated": 0, "llm_judge": 0},
		}
		got := Combine(task, auto, judge)
		require.InDelta(t, 0.6, got.Score, 1e-9)
	})

	t.Run("unnormalized weights are normalized by their sum", func(t *testing.T) {
		task := &models.Task{
			TaskID:         "t1",
			GradingWeights: map[string]float64{"automated": 3, "llm_judge": 1},
		}
		got := Combine(task, auto, judge)
		require.InDelta(t, 0.7, got.Score, 1e-9)
	})

	t.Run("empty notes are dropped from the join", func(t *testing.T) {
		quiet := &models.GradeResult{Score: 0.5, Breakdown: map[string]float64{}}
		got := Combine(&models.Task{TaskID: "t1"}, quiet, judge)
		require.Equal(t, "judge note", got.Notes)
	})
}
