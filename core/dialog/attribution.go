package dialog

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// minSimilarity is the lowest difflib ratio accepted when matching a message word to a keyword.
const minSimilarity = 0.8

// Keywords maps a form field to the words that name it in backend messages.
type Keywords map[string][]string

// Attribute guesses which field a server message is about. It is best effort and may
// mis-attribute: exact keyword containment wins, then the closest fuzzy match of a single word.
// fields gives the precedence order. It returns "" when nothing matches.
func Attribute(msg string, fields []string, kw Keywords) string {
	msg = strings.ToLower(msg)
	for _, field := range fields {
		for _, k := range keywordsOf(field, kw) {
			if strings.Contains(msg, k) {
				return field
			}
		}
	}

	words := strings.FieldsFunc(msg, func(r rune) bool { return !unicode.IsLetter(r) })
	var (
		best      string
		bestRatio float64
	)
	for _, word := range words {
		if len([]rune(word)) < 4 {
			continue
		}
		for _, field := range fields {
			for _, k := range keywordsOf(field, kw) {
				r := similarity(word, k)
				if r >= minSimilarity && r > bestRatio {
					best, bestRatio = field, r
				}
			}
		}
	}
	return best
}

func keywordsOf(field string, kw Keywords) []string {
	out := []string{strings.ToLower(field)}
	for _, k := range kw[field] {
		out = append(out, strings.ToLower(k))
	}
	return out
}

func similarity(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
