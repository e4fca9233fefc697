package execution

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pinchbench/pinchbench/internal/models"
	"github.com/pinchbench/pinchbench/internal/session"
)

// fakeRunner returns canned results and records every request.
type fakeRunner struct {
	results  map[string]CommandResult
	fallback CommandResult
	requests []CommandRequest
}

func (f *fakeRunner) Run(_ context.Context, req CommandRequest) CommandResult {
	f.requests = append(f.requests, req)
	if len(req.Args) > 0 {
		if res, ok := f.results[req.Args[0]]; ok {
			return res
		}
	}
	return f.fallback
}

const transcriptLine = `{"type":"message","message":{"role":"assistant","content":[{"type":"text","text":"ok"}],"usage":{"input":100,"output":20,"totalTokens":120,"cost":{"total":0.01}}}}`

func newTestOrchestrator(t *testing.T, runner CommandRunner) (*Orchestrator, string) {
	t.Helper()
	sessionRoot := t.TempDir()
	store := session.NewStore(sessionRoot)
	store.Attempts = 1
	return &Orchestrator{
		Runner:   runner,
		Store:    store,
		WorkRoot: t.TempDir(),
	}, sessionRoot
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name          string
		res           CommandResult
		transcriptLen int
		want          models.RunStatus
	}{
		{
			name:          "clean run",
			res:           CommandResult{ExitCode: 0},
			transcriptLen: 3,
			want:          models.StatusSuccess,
		},
		{
			name:          "empty transcript overrides exit zero",
			res:           CommandResult{ExitCode: 0},
			transcriptLen: 0,
			want:          models.StatusError,
		},
		{
			name:          "nonzero exit",
			res:           CommandResult{ExitCode: 2},
			transcriptLen: 3,
			want:          models.StatusError,
		},
		{
			name:          "unknown exit code alone is not an error",
			res:           CommandResult{ExitCode: models.ExitUnknown},
			transcriptLen: 3,
			want:          models.StatusSuccess,
		},
		{
			name:          "launch failure",
			res:           CommandResult{ExitCode: models.ExitUnknown, Stderr: "openclaw command not found: exec: not found"},
			transcriptLen: 3,
			want:          models.StatusError,
		},
		{
			name:          "timeout always wins",
			res:           CommandResult{ExitCode: models.ExitUnknown, TimedOut: true},
			transcriptLen: 3,
			want:          models.StatusTimeout,
		},
		{
			name:          "timeout wins over empty transcript",
			res:           CommandResult{ExitCode: models.ExitUnknown, TimedOut: true},
			transcriptLen: 0,
			want:          models.StatusTimeout,
		},
		{
			name:          "timeout wins over nonzero exit",
			res:           CommandResult{ExitCode: 137, TimedOut: true},
			transcriptLen: 0,
			want:          models.StatusTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ClassifyStatus(tt.res, tt.transcriptLen))
		})
	}
}

func TestExtractUsage(t *testing.T) {
	events := []models.TranscriptEvent{
		{Type: "message", Message: &models.AgentMessage{
			Role:  models.RoleAssistant,
			Usage: &models.TokenUsage{Input: 100, Output: 50, TotalTokens: 150, Cost: models.UsageCost{Total: 0.02}},
		}},
		{Type: "message", Message: &models.AgentMessage{Role: models.RoleUser}},
		{Type: "message", Message: &models.AgentMessage{
			Role:  models.RoleAssistant,
			Usage: &models.TokenUsage{Input: 40, Output: 10, CacheRead: 200, TotalTokens: 250, Cost: models.UsageCost{Total: 0.01}},
		}},
		// Assistant message without usage still counts as a request.
		{Type: "message", Message: &models.AgentMessage{Role: models.RoleAssistant}},
		{Raw: "garbage", ParseError: "invalid"},
	}

	totals := ExtractUsage(events)
	require.Equal(t, 3, totals.RequestCount)
	require.Equal(t, 140, totals.InputTokens)
	require.Equal(t, 60, totals.OutputTokens)
	require.Equal(t, 200, totals.CacheReadTokens)
	require.Equal(t, 400, totals.TotalTokens)
	require.InDelta(t, 0.03, totals.CostUSD, 1e-9)
}

func TestExecute(t *testing.T) {
	task := &models.Task{
		TaskID:      "task_demo",
		Name:        "Demo",
		GradingMode: models.GradingAutomated,
		TimeoutSec:  60,
		Prompt:      "do the thing",
	}

	t.Run("successful run collects transcript and usage", func(t *testing.T) {
		runner := &fakeRunner{
			results: map[string]CommandResult{
				"agent": {ExitCode: 0, Stdout: "done"},
				// `agents list` has no workspace info, forcing the fallback dir.
				"agents": {ExitCode: 0, Stdout: ""},
			},
		}
		o, sessionRoot := newTestOrchestrator(t, runner)

		// The transcript has to exist before Collect scans the directory.
		sessions := filepath.Join(sessionRoot, "bench-demo", "sessions")
		require.NoError(t, os.MkdirAll(sessions, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(sessions, "s1.jsonl"), []byte(transcriptLine+"\n"), 0o644))

		res, err := o.Execute(context.Background(), task, "bench-demo", "0001")
		require.NoError(t, err)
		require.Equal(t, models.StatusSuccess, res.Status)
		require.Equal(t, "task_demo", res.TaskID)
		require.Len(t, res.Transcript, 1)
		require.Equal(t, 1, res.Usage.RequestCount)
		require.Equal(t, 120, res.Usage.TotalTokens)
		require.DirExists(t, res.Workspace)

		// The agent invocation carries the prompt and a per-run session id.
		var agentReq *CommandRequest
		for i := range runner.requests {
			if runner.requests[i].Args[0] == "agent" {
				agentReq = &runner.requests[i]
			}
		}
		require.NotNil(t, agentReq)
		require.Contains(t, agentReq.Args, "do the thing")
		require.Equal(t, 60*time.Second, agentReq.Timeout)
	})

	t.Run("timeout classified even with empty transcript", func(t *testing.T) {
		runner := &fakeRunner{
			results: map[string]CommandResult{
				"agent":  {ExitCode: models.ExitUnknown, TimedOut: true},
				"agents": {ExitCode: 0},
			},
		}
		o, _ := newTestOrchestrator(t, runner)

		res, err := o.Execute(context.Background(), task, "bench-demo", "0001")
		require.NoError(t, err)
		require.Equal(t, models.StatusTimeout, res.Status)
		require.True(t, res.TimedOut)
		require.Empty(t, res.Transcript)
	})

	t.Run("timeout multiplier scales the deadline", func(t *testing.T) {
		runner := &fakeRunner{
			results: map[string]CommandResult{
				"agent":  {ExitCode: 0},
				"agents": {ExitCode: 0},
			},
		}
		o, _ := newTestOrchestrator(t, runner)
		o.TimeoutMultiplier = 2.5

		_, err := o.Execute(context.Background(), task, "bench-demo", "0001")
		require.NoError(t, err)

		var agentReq *CommandRequest
		for i := range runner.requests {
			if runner.requests[i].Args[0] == "agent" {
				agentReq = &runner.requests[i]
			}
		}
		require.NotNil(t, agentReq)
		require.Equal(t, 150*time.Second, agentReq.Timeout)
	})
}

func TestPrepareWorkspace(t *testing.T) {
	runner := &fakeRunner{results: map[string]CommandResult{"agents": {ExitCode: 0}}}

	t.Run("copies fixtures and writes inline files", func(t *testing.T) {
		o, _ := newTestOrchestrator(t, runner)
		o.AssetsDir = t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(o.AssetsDir, "data.csv"), []byte("a,b\n1,2\n"), 0o644))

		task := &models.Task{
			TaskID: "task_ws",
			WorkspaceFiles: []models.WorkspaceFile{
				{Source: "data.csv", Dest: "input/data.csv"},
				{Path: "notes.txt", Content: "inline"},
			},
		}

		ws, err := o.PrepareWorkspace(context.Background(), task, "0001", "bench-demo")
		require.NoError(t, err)

		copied, err := os.ReadFile(filepath.Join(ws, "input", "data.csv"))
		require.NoError(t, err)
		require.Equal(t, "a,b\n1,2\n", string(copied))

		inline, err := os.ReadFile(filepath.Join(ws, "notes.txt"))
		require.NoError(t, err)
		require.Equal(t, "inline", string(inline))
	})

	t.Run("fixtures under an assets subdirectory are preferred", func(t *testing.T) {
		o, _ := newTestOrchestrator(t, runner)
		o.AssetsDir = t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(o.AssetsDir, "assets"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(o.AssetsDir, "assets", "data.csv"), []byte("nested\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(o.AssetsDir, "data.csv"), []byte("flat\n"), 0o644))

		task := &models.Task{
			TaskID:         "task_ws",
			WorkspaceFiles: []models.WorkspaceFile{{Source: "data.csv", Dest: "data.csv"}},
		}

		ws, err := o.PrepareWorkspace(context.Background(), task, "0001", "bench-demo")
		require.NoError(t, err)

		copied, err := os.ReadFile(filepath.Join(ws, "data.csv"))
		require.NoError(t, err)
		require.Equal(t, "nested\n", string(copied))
	})

	t.Run("missing fixture is fatal", func(t *testing.T) {
		o, _ := newTestOrchestrator(t, runner)
		o.AssetsDir = t.TempDir()

		task := &models.Task{
			TaskID:         "task_ws",
			WorkspaceFiles: []models.WorkspaceFile{{Source: "nope.csv", Dest: "nope.csv"}},
		}

		_, err := o.PrepareWorkspace(context.Background(), task, "0001", "bench-demo")
		require.Error(t, err)
		require.Contains(t, err.Error(), "nope.csv")
	})
}

func TestAssistantText(t *testing.T) {
	events := []models.TranscriptEvent{
		{Type: "message", Message: &models.AgentMessage{
			Role:    models.RoleAssistant,
			Content: []models.ContentBlock{{Type: models.ContentText, Text: "first"}},
		}},
		{Type: "message", Message: &models.AgentMessage{
			Role:    models.RoleUser,
			Content: []models.ContentBlock{{Type: models.ContentText, Text: "ignored"}},
		}},
		{Type: "message", Message: &models.AgentMessage{
			Role:    models.RoleAssistant,
			Content: []models.ContentBlock{{Type: models.ContentText, Text: "second"}},
		}},
	}

	require.Equal(t, "first\nsecond", AssistantText(events))
	require.Empty(t, AssistantText(nil))
}
