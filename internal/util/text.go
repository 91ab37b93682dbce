// ABOUTME: Text utilities shared by the pipeline, classifier, and storage
// ABOUTME: Sentence-boundary trimming, defensive JSON extraction, token estimation
package util

import "strings"

// sentenceEnders are the characters that close a complete sentence.
const sentenceEnders = ".!?"

// TrimToSentenceBoundary cuts a length-limited generation back to its last
// complete sentence. If no boundary exists within the trailing half of the
// text, the text is returned unchanged rather than losing most of it.
func TrimToSentenceBoundary(text string) string {
	trimmed := strings.TrimRight(text, " \n\t")
	if trimmed == "" {
		return text
	}
	idx := strings.LastIndexAny(trimmed, sentenceEnders)
	if idx < 0 || idx < len(trimmed)/2 {
		return text
	}
	// Keep a closing quote or bracket that follows the ender.
	end := idx + 1
	for end < len(trimmed) && (trimmed[end] == '"' || trimmed[end] == '\'' || trimmed[end] == ')') {
		end++
	}
	return trimmed[:end]
}

// FirstJSONObject extracts the first balanced top-level JSON object from raw
// model output, tolerating prose or code fences around it. Returns false if
// no complete object is present.
func FirstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// EstimateTokens approximates the token count of text using the standard
// 4-characters-per-token heuristic.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(text)/4 + 1
}
