package util

import "strings"

// FirstJSONObject returns the first balanced {...} span in text, or ""
// if none exists. Generative backends often wrap JSON in prose or code
// fences; callers cut the span out before unmarshaling.
func FirstJSONObject(text string) string {
	return firstBalanced(text, '{', '}')
}

// FirstJSONArray returns the first balanced [...] span in text, or "".
func FirstJSONArray(text string) string {
	return firstBalanced(text, '[', ']')
}

// firstBalanced scans for the first balanced open..close span, tracking
// string literals and escapes so braces inside JSON strings don't count.
func firstBalanced(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}

// StripCodeFences removes a surrounding markdown code fence from a
// backend response, if present.
func StripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
