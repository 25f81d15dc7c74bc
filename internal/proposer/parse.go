package proposer

import (
	"encoding/json"
	"fmt"

	"github.com/routegate-ai/routegate/internal/intent"
	"github.com/routegate-ai/routegate/internal/route"
)

// draftWire is the JSON shape a model is asked to emit for a routing
// draft. Field names mirror the final decision so the model sees one
// consistent vocabulary.
type draftWire struct {
	Intent           string   `json:"intent"`
	RouteTo          string   `json:"route_to"`
	RequiredPrereqs  []string `json:"required_prereqs"`
	RecommendedTools string   `json:"recommended_tools"`
	Explanation      string   `json:"explanation"`
	Confidence       float64  `json:"confidence"`
}

// parseDraft extracts the first JSON object from model output and decodes
// it into an untrusted draft. Models wrap JSON in prose and code fences,
// so the object is located by brace matching rather than decoding the
// whole text.
func parseDraft(text string) (*route.Draft, error) {
	raw, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}
	var w draftWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode routing draft: %w", err)
	}
	return &route.Draft{
		Intent:           intent.Intent(w.Intent),
		RouteTo:          route.RouteTo(w.RouteTo),
		RequiredPrereqs:  w.RequiredPrereqs,
		RecommendedTools: route.ToolClass(w.RecommendedTools),
		Explanation:      w.Explanation,
		Confidence:       w.Confidence,
	}, nil
}

// extractJSONObject returns the first balanced top-level JSON object in
// text. String contents and escapes are honored so braces inside values
// do not unbalance the scan.
func extractJSONObject(text string) (json.RawMessage, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if start == -1 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return json.RawMessage(text[start : i+1]), nil
				}
			}
		}
	}
	return nil, fmt.Errorf("no JSON object found in proposer output")
}

// stringifyArgs flattens a decoded JSON argument object into the string
// map the tool gate dispatches with.
func stringifyArgs(input json.RawMessage) (map[string]string, error) {
	if len(input) == 0 {
		return map[string]string{}, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(input, &raw); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}
	args := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			args[k] = t
		case float64, bool, nil:
			args[k] = fmt.Sprintf("%v", t)
		default:
			b, err := json.Marshal(t)
			if err != nil {
				return nil, fmt.Errorf("encode tool argument %q: %w", k, err)
			}
			args[k] = string(b)
		}
	}
	return args, nil
}
