package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalise folds a header or tab name to a comparable key: accents removed, lower case, no
// whitespace or underscores. 'Categoría', 'categoria' and 'CATEGORIA ' all fold to 'categoria'.
func Normalise(v string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), v)
	if err != nil {
		folded = v
	}

	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' {
			return -1
		}

		return unicode.ToLower(r)
	}, folded)
}

func clean(v string) string {
	return strings.TrimSpace(v)
}
