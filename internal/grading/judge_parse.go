package grading

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseJudgeResponse recovers the judge's JSON verdict from free-form reply
// text. Judges are asked for strict JSON but routinely wrap it in prose or
// markdown, so parsing is layered: a json-tagged code fence first, then
// balanced-brace candidates scanned from the end of the reply (preferring
// objects carrying a "scores" key), then a repair pass over the whole text.
// An unrecoverable reply yields an empty map.
func ParseJudgeResponse(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}

	if parsed := parseFencedJSON(raw); parsed != nil {
		return parsed
	}

	candidates := braceCandidates(raw)

	for i := len(candidates) - 1; i >= 0; i-- {
		if parsed := parseObject(candidates[i]); parsed != nil {
			if _, ok := parsed["scores"]; ok {
				return parsed
			}
		}
	}
	for i := len(candidates) - 1; i >= 0; i-- {
		if parsed := parseObject(candidates[i]); parsed != nil {
			return parsed
		}
	}

	if repaired, err := jsonrepair.JSONRepair(raw); err == nil {
		if parsed := parseObject(repaired); parsed != nil {
			return parsed
		}
	}

	slog.Warn("failed to parse judge response")
	return map[string]any{}
}

func parseObject(candidate string) map[string]any {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil
	}
	return parsed
}

// parseFencedJSON returns the first json-tagged fenced code block that
// parses as an object, or nil.
func parseFencedJSON(raw string) map[string]any {
	src := []byte(raw)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var result map[string]any
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || result != nil {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok || string(fence.Language(src)) != "json" {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		lines := fence.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		result = parseObject(buf.String())
		return ast.WalkSkipChildren, nil
	})
	return result
}

// braceCandidates extracts top-level {...} spans by brace depth. Braces
// inside JSON strings are not tracked; a candidate broken by one simply
// fails to parse and is skipped.
func braceCandidates(raw string) []string {
	var candidates []string
	depth := 0
	start := -1
	for i, r := range raw {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				candidates = append(candidates, raw[start:i+1])
				start = -1
			}
		}
	}
	return candidates
}
