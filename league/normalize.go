// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package league

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds s for case, accent and punctuation insensitive comparison:
// "Trail-Blazers" and "trail blazers" normalize alike, "Dončić" → "doncic".
func Normalize(s string) string {
	// Transformers keep state, so build one per call
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = cases.Fold().String(folded)

	var sb strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '/':
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Slug turns a team name into a document-safe identifier.
func Slug(name string) string {
	return strings.ReplaceAll(Normalize(name), " ", "-")
}

// CollapseSpace lower-cases s and collapses runs of whitespace.
// Used for upgrade text where punctuation like "+1" is significant.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
