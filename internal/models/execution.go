package models

import "time"

// RunStatus classifies the outcome of one task execution.
type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusTimeout RunStatus = "timeout"
	StatusError   RunStatus = "error"
)

// ExitUnknown is the exit-code sentinel used when the agent process never
// produced an exit code (launch failure or timeout).
const ExitUnknown = -1

// ExecutionResult is the record of one (task, run). Immutable once returned
// by the orchestrator.
type ExecutionResult struct {
	AgentID    string            `json:"agent_id"`
	TaskID     string            `json:"task_id,omitempty"`
	Status     RunStatus         `json:"status"`
	Transcript []TranscriptEvent `json:"transcript"`
	Usage      UsageTotals       `json:"usage"`
	Workspace  string            `json:"workspace"`
	ExitCode   int               `json:"exit_code"`
	TimedOut   bool              `json:"timed_out"`
	Duration   time.Duration     `json:"-"`
	Stdout     string            `json:"stdout,omitempty"`
	Stderr     string            `json:"stderr,omitempty"`
}

// ExecutionSeconds returns the wall-clock duration in seconds, which is how
// durations appear in result files and uploads.
func (r *ExecutionResult) ExecutionSeconds() float64 {
	return r.Duration.Seconds()
}

// UsageTotals accumulates token and cost usage over all assistant messages
// in a transcript. Reset per execution.
type UsageTotals struct {
	InputTokens      int     `json:"input_tokens"`
	OutputTokens     int     `json:"output_tokens"`
	CacheReadTokens  int     `json:"cache_read_tokens"`
	CacheWriteTokens int     `json:"cache_write_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	CostUSD          float64 `json:"cost_usd"`
	RequestCount     int     `json:"request_count"`
}

// Add folds one assistant message's usage into the totals. A nil usage still
// counts as a request; every missing field defaults to zero.
func (u *UsageTotals) Add(usage *TokenUsage) {
	u.RequestCount++
	if usage == nil {
		return
	}
	u.InputTokens += usage.Input
	u.OutputTokens += usage.Output
	u.CacheReadTokens += usage.CacheRead
	u.CacheWriteTokens += usage.CacheWrite
	u.TotalTokens += usage.TotalTokens
	u.CostUSD += usage.Cost.Total
}
