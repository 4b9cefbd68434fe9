package vision

import (
	"strings"
	"unicode/utf8"
)

// minKeptLength is the shortest cleaned fragment worth keeping. Shorter
// fragments are almost always watermark noise or stray UI glyphs.
const minKeptLength = 4

// CleanTexts normalizes recognized text fragments: internal whitespace is
// collapsed, exact duplicates are dropped, and fragments shorter than four
// characters are discarded. Input order is preserved for survivors.
func CleanTexts(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	cleaned := make([]string, 0, len(texts))

	for _, text := range texts {
		normalized := strings.Join(strings.Fields(text), " ")
		if utf8.RuneCountInString(normalized) < minKeptLength {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		cleaned = append(cleaned, normalized)
	}
	return cleaned
}
