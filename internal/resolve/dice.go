package resolve

import (
	"strings"
	"unicode"
)

// DiceSimilarity computes the Sørensen-Dice coefficient over character
// bigrams of the two strings. Comparison is case-insensitive and ignores
// all whitespace, so "Blue Bottle" and "bluebottle" are identical.
// Returns a value in [0, 1].
func DiceSimilarity(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)

	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	runesA := []rune(a)
	runesB := []rune(b)
	if len(runesA) < 2 || len(runesB) < 2 {
		return 0
	}

	bigramsA := bigrams(runesA)
	bigramsB := bigrams(runesB)

	matches := 0
	for bg, countA := range bigramsA {
		if countB, ok := bigramsB[bg]; ok {
			if countA < countB {
				matches += countA
			} else {
				matches += countB
			}
		}
	}

	totalA := len(runesA) - 1
	totalB := len(runesB) - 1
	return 2 * float64(matches) / float64(totalA+totalB)
}

func normalize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if !unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// bigrams counts adjacent character pairs of the normalized string.
func bigrams(runes []rune) map[string]int {
	counts := make(map[string]int, len(runes))
	for i := 0; i < len(runes)-1; i++ {
		counts[string(runes[i:i+2])]++
	}
	return counts
}
