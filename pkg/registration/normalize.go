package registration

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName reduces a name to its comparison form: trimmed, without
// diacritics and case-folded. "José" and "JOSE" normalize to the same value.
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)

	// transformers keep state, so a fresh chain per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	return cases.Fold().String(stripped)
}

type identity struct {
	first string
	last  string
}

func identityOf(first, last string) identity {
	return identity{first: NormalizeName(first), last: NormalizeName(last)}
}
