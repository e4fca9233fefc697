package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pinchbench/pinchbench/internal/models"
)

func TestSlugifyModel(t *testing.T) {
	require.Equal(t, "anthropic-claude-opus-4-5", SlugifyModel("anthropic/claude-opus-4.5"))
	require.Equal(t, "plain", SlugifyModel("plain"))
}

func TestNormalizeModelID(t *testing.T) {
	require.Equal(t, "openrouter/meta/llama-3", NormalizeModelID("meta/llama-3"))
	require.Equal(t, "openrouter/meta/llama-3", NormalizeModelID("openrouter/meta/llama-3"))
	// Unqualified ids pass through untouched.
	require.Equal(t, "gpt-4o", NormalizeModelID("gpt-4o"))
}

func TestListedAgents(t *testing.T) {
	out := `Agents:
- bench-foo-4 (default)
  Workspace: ~/bench
- bench-foo-4-5
- judge
`
	agents := listedAgents(out)
	require.True(t, agents["bench-foo-4"])
	require.True(t, agents["bench-foo-4-5"])
	require.True(t, agents["judge"])
	require.False(t, agents["bench-foo"])
	require.Len(t, agents, 3)
}

func TestEnsureAgent(t *testing.T) {
	t.Run("skips creation when agent exists", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]CommandResult{
			"agents": {ExitCode: 0, Stdout: "- bench-x\n"},
		}}
		o, _ := newTestOrchestrator(t, runner)

		created := o.EnsureAgent(context.Background(), "bench-x", "gpt-4o", t.TempDir())
		require.False(t, created)
		// Only the list call ran.
		require.Len(t, runner.requests, 1)
	})

	t.Run("substring match does not count as existing", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]CommandResult{
			"agents": {ExitCode: 0, Stdout: "- bench-x-longer\n"},
		}}
		o, _ := newTestOrchestrator(t, runner)

		created := o.EnsureAgent(context.Background(), "bench-x", "gpt-4o", t.TempDir())
		require.True(t, created)
		require.Len(t, runner.requests, 2)
		require.Equal(t, []string{
			"agents", "add", "bench-x",
			"--model", "gpt-4o",
			"--workspace", runner.requests[1].Args[6],
			"--non-interactive",
		}, runner.requests[1].Args)
	})

	t.Run("missing CLI reported as not created", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]CommandResult{
			"agents": {ExitCode: models.ExitUnknown, Stderr: "openclaw command not found: exec"},
		}}
		o, _ := newTestOrchestrator(t, runner)

		require.False(t, o.EnsureAgent(context.Background(), "bench-x", "gpt-4o", t.TempDir()))
	})
}

func TestAgentWorkspace(t *testing.T) {
	t.Run("parses workspace line for the named agent", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]CommandResult{
			"agents": {ExitCode: 0, Stdout: `Agents:
- other
  Workspace: /srv/other
- bench-x
  Model: gpt-4o
  Workspace: /srv/bench-x
`},
		}}
		o, _ := newTestOrchestrator(t, runner)

		require.Equal(t, "/srv/bench-x", o.AgentWorkspace(context.Background(), "bench-x"))
	})

	t.Run("stops at the next agent entry", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]CommandResult{
			"agents": {ExitCode: 0, Stdout: `- bench-x
- other
  Workspace: /srv/other
`},
		}}
		o, _ := newTestOrchestrator(t, runner)

		require.Empty(t, o.AgentWorkspace(context.Background(), "bench-x"))
	})

	t.Run("list failure yields empty", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]CommandResult{
			"agents": {ExitCode: 1, Stderr: "boom"},
		}}
		o, _ := newTestOrchestrator(t, runner)

		require.Empty(t, o.AgentWorkspace(context.Background(), "bench-x"))
	})
}
