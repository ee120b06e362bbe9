package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// NormalizePlate folds full-width characters to their narrow forms, drops all
// whitespace, and upper-cases the result, e.g. "ａｂｃ 123" -> "ABC123".
func NormalizePlate(plate string) string {
	folded := width.Fold.String(plate)
	folded = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
	return strings.ToUpper(folded)
}
