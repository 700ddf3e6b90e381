// Package textnorm provides the shared text normalization used for
// case- and diacritic-insensitive display-name matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options controls optional normalization behavior.
type Options struct {
	// RemovePunctuation strips punctuation and symbol runes after
	// diacritic removal.
	RemovePunctuation bool
	// CollapseSpaces replaces runs of whitespace with a single space.
	// When false, whitespace is removed entirely.
	CollapseSpaces bool
}

// DefaultOptions keeps spaces and leaves punctuation intact.
func DefaultOptions() Options {
	return Options{RemovePunctuation: false, CollapseSpaces: true}
}

// stripMarks removes combining diacritical marks after NFD decomposition.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize returns the canonical matching form of input: NFC-composed,
// lowercased, diacritics stripped, whitespace collapsed and trimmed.
// Two strings match iff their normalized forms are byte-identical.
func Normalize(input string, opts Options) string {
	s := norm.NFC.String(input)
	s = strings.ToLower(s)

	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}

	if opts.RemovePunctuation {
		s = strings.Map(func(r rune) rune {
			if unicode.IsPunct(r) || unicode.IsSymbol(r) {
				return -1
			}
			return r
		}, s)
	}

	fields := strings.Fields(s)
	if opts.CollapseSpaces {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields, "")
}

// Equal reports whether a and b are equivalent under the default
// normalization options.
func Equal(a, b string) bool {
	return Normalize(a, DefaultOptions()) == Normalize(b, DefaultOptions())
}
