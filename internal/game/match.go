package game

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultTolerance is the maximum edit distance a guess may be from the
// canonical string and still count as a match.
const DefaultTolerance = 2

// qualifierPattern matches a trailing parenthesized or bracketed version
// qualifier such as "(Remix)", "[Live]", or "(feat. X)". Only qualifiers
// from a fixed vocabulary are stripped so titles like "(I Can't Get No)
// Satisfaction" keep their parentheses.
var qualifierPattern = regexp.MustCompile(
	`(?i)\s*[(\[][^()\[\]]*\b(remix|edit|live|feat|ft|version|acoustic|instrumental|explicit|clean|demo|radio)\b[^()\[\]]*[)\]]\s*$`)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Matches reports whether guess and canonical refer to the same title or
// artist, comparing their normalized forms with an edit-distance tolerance.
//
// Two empty normalized strings match; an empty and a non-empty string never
// match regardless of tolerance.
func Matches(guess, canonical string, tolerance int) bool {
	g := NormalizeGuess(guess)
	c := NormalizeGuess(canonical)

	if g == c {
		return true
	}
	if g == "" || c == "" {
		return false
	}

	return levenshtein.ComputeDistance(g, c) <= tolerance
}

// NormalizeGuess applies the comparison pipeline: lowercase, diacritic
// stripping, trailing qualifier removal, "&" to "and", punctuation removal,
// and whitespace collapsing.
func NormalizeGuess(s string) string {
	s = strings.ToLower(s)

	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}

	for {
		trimmed := qualifierPattern.ReplaceAllString(s, "")
		if trimmed == s {
			break
		}
		s = trimmed
	}

	s = strings.ReplaceAll(s, "&", "and")

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
