package summarizer

import "strings"

// ParseSummary trims model output and unwraps a single ``` fenced block,
// with or without a language tag. It returns "" for blank input.
func ParseSummary(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	// Drop the language tag on the opening line, if any.
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(inner[:nl]); tag == "" || isWord(tag) {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}

func isWord(s string) bool {
	for _, r := range s {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
