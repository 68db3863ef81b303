package advisor

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	claudeProviderName = "claude"
	openAIProviderName = "openai"
	staticProviderName = "static"
)

// parseModelPayload decodes a JSON object out of free-form model text,
// tolerating code fences and surrounding prose.
func parseModelPayload[T any](text string) (T, error) {
	var payload T
	fragment := extractJSONFragment(text)
	if fragment == "" {
		return payload, fmt.Errorf("no JSON object found in model response")
	}
	if err := json.Unmarshal([]byte(fragment), &payload); err != nil {
		return payload, fmt.Errorf("decode model response: %w", err)
	}
	return payload, nil
}

// extractJSONFragment returns the first balanced top-level JSON object in
// text, or "" when none exists.
func extractJSONFragment(text string) string {
	trimmed := trimCodeFence(text)
	start := strings.Index(trimmed, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(trimmed); i++ {
		ch := trimmed[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return trimmed[start : i+1]
			}
		}
	}
	return ""
}

// trimCodeFence strips a surrounding markdown fence, with or without a
// language tag.
func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

type refinePayload struct {
	Title  string   `json:"title"`
	Prompt string   `json:"prompt"`
	Tags   []string `json:"tags"`
}
