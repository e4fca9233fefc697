package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
)

// usageSummary aggregates token usage across all tasks of a submission.
type usageSummary struct {
	TotalInputTokens  int     `json:"total_input_tokens"`
	TotalOutputTokens int     `json:"total_output_tokens"`
	TotalRequests     int     `json:"total_requests"`
	TotalCostUSD      float64 `json:"total_cost_usd"`
}

// BuildPayload reads an aggregate results file and shapes it into the
// submission payload. Task grading records may be single-trial (score,
// max_score) or multi-trial (runs, mean); both shapes are handled.
func BuildPayload(ctx context.Context, resultsPath, clientVersion string) (map[string]any, error) {
	data, err := os.ReadFile(resultsPath)
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}

	rawTasks, _ := raw["tasks"].([]any)

	var (
		totalScore float64
		maxScore   float64
		totalTime  float64
		totalCost  float64
		usage      usageSummary
	)
	formattedTasks := make([]map[string]any, 0, len(rawTasks))

	for _, rt := range rawTasks {
		task, ok := rt.(map[string]any)
		if !ok {
			continue
		}
		grading, _ := task["grading"].(map[string]any)
		runs, _ := grading["runs"].([]any)

		score := numberOr(grading["score"], numberOr(grading["mean"], 0))

		maxForTask := 0.0
		if v, ok := asFloat(grading["max_score"]); ok {
			maxForTask = v
		} else {
			for _, rr := range runs {
				if run, ok := rr.(map[string]any); ok {
					maxForTask = math.Max(maxForTask, numberOr(run["max_score"], 0))
				}
			}
		}
		totalScore += score
		maxScore += maxForTask

		taskUsage, _ := task["usage"].(map[string]any)
		execTime := numberOr(task["execution_time"], 0)
		costUSD := numberOr(taskUsage["cost_usd"], 0)
		totalTime += execTime
		totalCost += costUSD
		usage.TotalInputTokens += int(numberOr(taskUsage["input_tokens"], 0))
		usage.TotalOutputTokens += int(numberOr(taskUsage["output_tokens"], 0))
		usage.TotalRequests += int(numberOr(taskUsage["request_count"], 0))
		usage.TotalCostUSD += costUSD

		gradingType, _ := grading["grading_type"].(string)
		breakdown := grading["breakdown"]
		notes, _ := grading["notes"].(string)
		if len(runs) > 0 {
			if first, ok := runs[0].(map[string]any); ok {
				if gradingType == "" {
					gradingType, _ = first["grading_type"].(string)
				}
				if breakdown == nil {
					breakdown = first["breakdown"]
				}
				if notes == "" {
					notes, _ = first["notes"].(string)
				}
			}
		}
		if breakdown == nil {
			breakdown = map[string]any{}
		}

		timedOut, _ := task["timed_out"].(bool)
		frontmatter, _ := task["frontmatter"].(map[string]any)
		if frontmatter == nil {
			frontmatter = map[string]any{}
		}

		formattedTasks = append(formattedTasks, map[string]any{
			"task_id":                task["task_id"],
			"score":                  score,
			"max_score":              maxForTask,
			"grading_type":           gradingType,
			"timed_out":              timedOut,
			"execution_time_seconds": execTime,
			"breakdown":              breakdown,
			"notes":                  notes,
			"frontmatter":            frontmatter,
		})
	}

	model, _ := raw["model"].(string)
	provider := ""
	if idx := strings.Index(model, "/"); idx > 0 {
		provider = model[:idx]
	}

	payload := map[string]any{
		"submission_id":                uuid.NewString(),
		"timestamp":                    formatTimestamp(raw["timestamp"]),
		"client_version":               clientVersion,
		"benchmark_version":            raw["benchmark_version"],
		"model":                        model,
		"provider":                     provider,
		"run_id":                       raw["run_id"],
		"openclaw_version":             agentCLIVersion(ctx),
		"total_score":                  round6(totalScore),
		"max_score":                    round6(maxScore),
		"total_execution_time_seconds": round6(totalTime),
		"total_cost_usd":               round6(totalCost),
		"tasks":                        formattedTasks,
		"usage_summary":                usage,
		"metadata": map[string]any{
			"suite":  raw["suite"],
			"system": CollectSystemMetadata(),
		},
	}
	return payload, nil
}

func formatTimestamp(v any) string {
	switch ts := v.(type) {
	case float64:
		return time.Unix(int64(ts), 0).UTC().Format("2006-01-02T15:04:05Z")
	case string:
		return ts
	}
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// agentCLIVersion asks the agent CLI for its version, or "" when the CLI is
// unavailable.
func agentCLIVersion(ctx context.Context) string {
	verCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(verCtx, "openclaw", "--version").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func numberOr(v any, fallback float64) float64 {
	if f, ok := asFloat(v); ok {
		return f
	}
	return fallback
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
