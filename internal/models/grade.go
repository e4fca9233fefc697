package models

// GradeResult is the scored outcome of one (task, run). Score is always in
// [0, MaxScore]; unscoreable inputs degrade to 0.0 with an explanatory note
// rather than an error, so one bad task never aborts a batch.
type GradeResult struct {
	TaskID    string             `json:"task_id"`
	Score     float64            `json:"score"`
	MaxScore  float64            `json:"max_score"`
	Mode      GradingMode        `json:"grading_type"`
	Breakdown map[string]float64 `json:"breakdown"`
	Notes     string             `json:"notes"`
}

// ToMap converts the result to the mapping shape consumed by the
// aggregation and upload layers.
func (g GradeResult) ToMap() map[string]any {
	breakdown := make(map[string]float64, len(g.Breakdown))
	for k, v := range g.Breakdown {
		breakdown[k] = v
	}

	return map[string]any{
		"task_id":      g.TaskID,
		"score":        g.Score,
		"max_score":    g.MaxScore,
		"grading_type": string(g.Mode),
		"breakdown":    breakdown,
		"notes":        g.Notes,
	}
}

// GradeResultFromMap is the inverse of [GradeResult.ToMap]. Missing or
// mistyped fields default to zero values.
func GradeResultFromMap(m map[string]any) GradeResult {
	g := GradeResult{
		Breakdown: map[string]float64{},
	}

	if v, ok := m["task_id"].(string); ok {
		g.TaskID = v
	}
	if v, ok := asFloat(m["score"]); ok {
		g.Score = v
	}
	if v, ok := asFloat(m["max_score"]); ok {
		g.MaxScore = v
	}
	if v, ok := m["grading_type"].(string); ok {
		g.Mode = GradingMode(v)
	}
	if v, ok := m["notes"].(string); ok {
		g.Notes = v
	}

	switch bd := m["breakdown"].(type) {
	case map[string]float64:
		for k, v := range bd {
			g.Breakdown[k] = v
		}
	case map[string]any:
		for k, raw := range bd {
			if v, ok := asFloat(raw); ok {
				g.Breakdown[k] = v
			}
		}
	}

	return g
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
