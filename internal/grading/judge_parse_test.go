package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJudgeResponse(t *testing.T) {
	t.Run("strict JSON", func(t *testing.T) {
		got := ParseJudgeResponse(`{"scores": {"a": 0.8}, "total": 0.8, "notes": "fine"}`)
		require.Equal(t, 0.8, got["total"])
		require.Equal(t, "fine", got["notes"])
	})

	t.Run("json code fence wins over surrounding prose", func(t *testing.T) {
		raw := "Here is my evaluation:\n\n```json\n{\"scores\": {\"a\": 1.0}, \"total\": 1.0, \"notes\": \"\"}\n```\n\nThanks!"
		got := ParseJudgeResponse(raw)
		require.Equal(t, 1.0, got["total"])
	})

	t.Run("embedded object found by brace scanning", func(t *testing.T) {
		raw := `After careful review {of the run}, my verdict: {"scores": {"a": 0.5}, "total": 0.5, "notes": "meh"} as stated.`
		got := ParseJudgeResponse(raw)
		require.Equal(t, 0.5, got["total"])
	})

	t.Run("latest object with scores key preferred", func(t *testing.T) {
		raw := `{"scores": {"a": 0.1}, "total": 0.1} then I reconsidered: {"scores": {"a": 0.9}, "total": 0.9}`
		got := ParseJudgeResponse(raw)
		require.Equal(t, 0.9, got["total"])
	})

	t.Run("object without scores key still accepted", func(t *testing.T) {
		got := ParseJudgeResponse(`verdict: {"total": 0.7, "notes": "no breakdown"}`)
		require.Equal(t, 0.7, got["total"])
	})

	t.Run("nested braces", func(t *testing.T) {
		got := ParseJudgeResponse(`{"scores": {"a": 0.2, "b": 0.4}, "total": 0.3, "notes": "x"}`)
		scores, ok := got["scores"].(map[string]any)
		require.True(t, ok)
		require.Len(t, scores, 2)
	})

	t.Run("slightly broken JSON is repaired", func(t *testing.T) {
		// Trailing comma and single quotes, typical LLM output damage.
		got := ParseJudgeResponse(`{'scores': {'a': 0.6,}, 'total': 0.6, 'notes': 'ok',}`)
		require.Equal(t, 0.6, got["total"])
	})

	t.Run("unrecoverable reply yields empty map", func(t *testing.T) {
		require.Empty(t, ParseJudgeResponse("I refuse to answer in JSON."))
		require.Empty(t, ParseJudgeResponse(""))
		require.Empty(t, ParseJudgeResponse("   \n  "))
	})
}

func TestBraceCandidates(t *testing.T) {
	got := braceCandidates(`a {"x": 1} b {"y": {"z": 2}} } c`)
	require.Equal(t, []string{`{"x": 1}`, `{"y": {"z": 2}}`}, got)

	require.Empty(t, braceCandidates("no braces here"))
	// An unclosed object never completes.
	require.Empty(t, braceCandidates(`{"open": 1`))
}
