package chunking

import "strings"

// Sentences splits text into trimmed sentence-like units. Abbreviation
// handling is deliberately minimal; downstream scoring is robust to the
// occasional bad split.
func Sentences(text string) []string {
	if text == "" {
		return nil
	}

	out := make([]string, 0, 32)
	var b strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if !isSentenceEnd(r) {
			continue
		}
		// Require a following space or end of text so "e.g." style dots
		// inside a token do not split.
		if i+1 < len(runes) && !isSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// Window caps an excerpt at maxRunes without cutting mid-word when possible.
func Window(text string, maxRunes int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= maxRunes {
		return string(runes)
	}
	cut := maxRunes
	for cut > 0 && !isSpace(runes[cut-1]) {
		cut--
	}
	if cut == 0 {
		cut = maxRunes
	}
	return strings.TrimSpace(string(runes[:cut]))
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
