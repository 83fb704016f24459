package receipt

import (
	"strings"
	"unicode"

	"anjo/internal/core"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minSimilarity is the edit-distance similarity a fuzzy match needs.
const minSimilarity = 0.75

// normalize folds case and strips diacritics: "Alimentação" -> "alimentacao".
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(cases.Fold().String(out))
}

// MatchCategory finds the category whose name best matches name: an exact
// match first, then containment either way, then the most similar name
// above minSimilarity. Earlier categories win ties.
func MatchCategory(name string, categories []core.Category) (core.Category, bool) {
	target := normalize(name)
	if target == "" {
		return core.Category{}, false
	}
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = normalize(c.Name)
	}

	for i, n := range names {
		if n == target {
			return categories[i], true
		}
	}
	for i, n := range names {
		if n != "" && (strings.Contains(n, target) || strings.Contains(target, n)) {
			return categories[i], true
		}
	}

	best, bestScore := -1, 0.0
	for i, n := range names {
		if score := similarity(n, target); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore >= minSimilarity {
		return categories[best], true
	}
	return core.Category{}, false
}

// similarity is 1 - levenshtein(a, b) / max(len(a), len(b)) over runes.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
