package execution

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SlugifyModel turns a model id into a filesystem- and agent-name-safe slug.
func SlugifyModel(modelID string) string {
	return strings.NewReplacer("/", "-", ".", "-").Replace(modelID)
}

// NormalizeModelID ensures a model id is provider-qualified for the agent CLI.
func NormalizeModelID(modelID string) string {
	if !strings.Contains(modelID, "/") {
		return modelID
	}
	if strings.HasPrefix(modelID, "openrouter/") {
		return modelID
	}
	return "openrouter/" + modelID
}

// EnsureAgent creates the named agent if it doesn't exist yet. Returns true
// when a creation was attempted. A missing CLI is logged and reported as
// not-created rather than failing the run.
func (o *Orchestrator) EnsureAgent(ctx context.Context, agentID, modelID, workspaceDir string) bool {
	if err := os.MkdirAll(workspaceDir, 0o755); err != nil {
		slog.Warn("failed to create agent workspace", "dir", workspaceDir, "error", err)
	}

	list := o.Runner.Run(ctx, CommandRequest{Args: []string{"agents", "list"}})
	if list.LaunchFailed() {
		slog.Error("agent CLI not found while listing agents")
		return false
	}

	if list.ExitCode == 0 && listedAgents(list.Stdout)[agentID] {
		slog.Info("agent already exists", "agent", agentID)
		return false
	}

	slog.Info("creating agent", "agent", agentID, "model", modelID)
	create := o.Runner.Run(ctx, CommandRequest{Args: []string{
		"agents", "add", agentID,
		"--model", NormalizeModelID(modelID),
		"--workspace", workspaceDir,
		"--non-interactive",
	}})
	if create.LaunchFailed() {
		slog.Error("agent CLI not found while creating agent")
		return false
	}
	if create.ExitCode != 0 {
		slog.Warn("agent creation failed", "exit_code", create.ExitCode, "stderr", create.Stderr)
	}
	return true
}

// listedAgents parses `agents list` output into a name set. Matching must be
// exact: "bench-foo-4" appearing as a substring of "bench-foo-4-5" is not a
// hit. Lines look like "- <agent_id>" or "- <agent_id> (default)".
func listedAgents(stdout string) map[string]bool {
	agents := map[string]bool{}
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "- ")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) > 0 {
			agents[fields[0]] = true
		}
	}
	return agents
}

// AgentWorkspace returns the workspace directory configured for an agent,
// parsed from `agents list` output, or "" when it can't be determined.
func (o *Orchestrator) AgentWorkspace(ctx context.Context, agentID string) string {
	list := o.Runner.Run(ctx, CommandRequest{Args: []string{"agents", "list"}})
	if list.LaunchFailed() || list.ExitCode != 0 {
		return ""
	}

	inAgent := false
	for _, line := range strings.Split(list.Stdout, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "- "+agentID):
			inAgent = true
		case inAgent && strings.Contains(trimmed, "Workspace:"):
			ws := strings.TrimSpace(strings.SplitN(trimmed, "Workspace:", 2)[1])
			if after, ok := strings.CutPrefix(ws, "~/"); ok {
				if home, err := os.UserHomeDir(); err == nil {
					ws = filepath.Join(home, after)
				}
			}
			return ws
		case inAgent && strings.HasPrefix(trimmed, "-"):
			// Next agent entry; stop looking.
			return ""
		}
	}
	return ""
}
