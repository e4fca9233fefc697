package models

import (
	"encoding/json"
	"strings"
)

// Transcript event types and message roles as written by the openclaw CLI.
const (
	EventTypeMessage = "message"

	RoleUser       = "user"
	RoleAssistant  = "assistant"
	RoleToolResult = "toolResult"
)

// Content block types inside an agent message.
const (
	ContentText     = "text"
	ContentToolCall = "toolCall"
)

// TranscriptEvent is one line of a session transcript. A line that fails to
// parse is retained with Raw and ParseError set instead of being dropped, so
// one corrupt line never loses the rest of the transcript.
type TranscriptEvent struct {
	Type    string        `json:"type,omitempty"`
	Message *AgentMessage `json:"message,omitempty"`

	Raw        string `json:"raw,omitempty"`
	ParseError string `json:"parse_error,omitempty"`
}

// Malformed reports whether this event is a retained unparsable line.
func (e TranscriptEvent) Malformed() bool {
	return e.ParseError != ""
}

// AgentMessage is the message payload of a "message" event.
type AgentMessage struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content,omitempty"`
	Usage   *TokenUsage    `json:"usage,omitempty"`
}

// ContentBlock is one entry of a message's content list. The CLI writes
// objects for assistant content ({"type": "text"|"toolCall", ...}) but tool
// results may carry arbitrary JSON values, so the raw bytes are kept for
// previewing.
type ContentBlock struct {
	Type      string         `json:"type,omitempty"`
	Text      string         `json:"text,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`

	raw json.RawMessage
}

func (c *ContentBlock) UnmarshalJSON(data []byte) error {
	c.raw = append(c.raw[:0], data...)

	// Best effort: non-object content (strings, numbers) is preview-only.
	var v struct {
		Type      string         `json:"type"`
		Text      string         `json:"text"`
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}

	c.Type = v.Type
	c.Text = v.Text
	c.Name = v.Name
	c.Arguments = v.Arguments
	return nil
}

func (c ContentBlock) MarshalJSON() ([]byte, error) {
	if c.raw != nil {
		return c.raw, nil
	}

	type alias struct {
		Type      string         `json:"type,omitempty"`
		Text      string         `json:"text,omitempty"`
		Name      string         `json:"name,omitempty"`
		Arguments map[string]any `json:"arguments,omitempty"`
	}
	return json.Marshal(alias{Type: c.Type, Text: c.Text, Name: c.Name, Arguments: c.Arguments})
}

// Preview renders the block as a short single string, truncated to max
// characters. Text blocks render their text; anything else renders its
// compact JSON form.
func (c ContentBlock) Preview(max int) string {
	s := c.Text
	if s == "" && len(c.raw) > 0 {
		s = string(c.raw)
		if unquoted := strings.Trim(s, `"`); json.Valid(c.raw) && strings.HasPrefix(s, `"`) {
			s = unquoted
		}
	}
	if max > 0 {
		if runes := []rune(s); len(runes) > max {
			s = string(runes[:max])
		}
	}
	return s
}

// TokenUsage is the per-message usage record written by the CLI.
type TokenUsage struct {
	Input       int       `json:"input,omitempty"`
	Output      int       `json:"output,omitempty"`
	CacheRead   int       `json:"cacheRead,omitempty"`
	CacheWrite  int       `json:"cacheWrite,omitempty"`
	TotalTokens int       `json:"totalTokens,omitempty"`
	Cost        UsageCost `json:"cost,omitempty"`
}

// UsageCost is the cost sub-record of TokenUsage.
type UsageCost struct {
	Total float64 `json:"total,omitempty"`
}
