package generation

import (
	"strings"
)

// StripFences removes a surrounding Markdown code fence (``` or ```json)
// and surrounding whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the info string ("json") on the opening fence line.
		if !strings.ContainsAny(s[:nl], "{[\"") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject returns the outermost JSON object in s, tolerating prose
// before or after it. ok is false when no braces are found.
func extractObject(s string) (string, bool) {
	s = StripFences(s)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// cleanText unwraps a plain-text completion and drops a leading speaker
// label.
func cleanText(s string) string {
	s = unquote(StripFences(s))
	for _, prefix := range []string{"You:", "Prospect:", "Customer:"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
		}
	}
	return unquote(s)
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
