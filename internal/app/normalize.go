package app

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// accentFold maps the accented Latin characters players commonly type (or
// skip) to their unaccented base. Anything outside the table is left as-is.
var accentFold = map[rune]rune{
	'À': 'A', 'Á': 'A', 'Â': 'A', 'Ã': 'A', 'Ä': 'A', 'Å': 'A',
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'Ò': 'O', 'Ó': 'O', 'Ô': 'O', 'Õ': 'O', 'Ö': 'O', 'Ø': 'O',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o', 'ø': 'o',
	'È': 'E', 'É': 'E', 'Ê': 'E', 'Ë': 'E',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'Ç': 'C', 'ç': 'c',
	'Ð': 'D', 'ð': 'd',
	'Ì': 'I', 'Í': 'I', 'Î': 'I', 'Ï': 'I',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'Ù': 'U', 'Ú': 'U', 'Û': 'U', 'Ü': 'U',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'Ñ': 'N', 'ñ': 'n',
	'Š': 'S', 'š': 's',
	'Ÿ': 'Y', 'ÿ': 'y', 'ý': 'y',
	'Ž': 'Z', 'ž': 'z',
}

func foldRune(r rune) rune {
	if base, ok := accentFold[r]; ok {
		return base
	}
	return r
}

// Normalize strips accents using the fixed fold table, lower-cases, and trims
// surrounding whitespace. Two answers match when their normalized forms are equal.
func Normalize(s string) string {
	// Casers are stateful, so the chain is built per call.
	t := transform.Chain(runes.Map(foldRune), cases.Lower(language.Und))
	out, _, err := transform.String(t, s)
	if err != nil {
		// Only reachable on invalid UTF-8 edge cases; fall back to the plain path.
		out = strings.ToLower(strings.Map(foldRune, s))
	}
	return strings.TrimSpace(out)
}

// isRevealable reports whether r belongs to the reveal alphabet. Spaces and
// punctuation are never masked and never counted.
func isRevealable(r rune) bool {
	f := foldRune(r)
	return unicode.IsLetter(f) || unicode.IsDigit(f)
}
