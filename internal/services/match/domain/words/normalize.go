// Package words implements word normalization, bounded fuzzy matching, and
// category lookup for match scoring.
package words

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowers a raw word and strips combining marks so that accented
// spellings compare equal to their plain form. All comparisons in this
// package run on normalized words.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	folded, _, err := transform.String(foldTransformer, trimmed)
	if err != nil {
		// Fold failures leave the input untouched; lookup still works on
		// the lowercased original.
		folded = trimmed
	}
	return strings.ToLower(folded)
}
