package geocode

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters with a stroke or slash have no canonical decomposition.
var strokeFolds = map[rune]rune{
	'ł': 'l', 'Ł': 'L',
	'ø': 'o', 'Ø': 'O',
	'đ': 'd', 'Đ': 'D',
	'ħ': 'h', 'Ħ': 'H',
	'ŧ': 't', 'Ŧ': 'T',
	'ı': 'i',
}

func foldStroke(r rune) rune {
	if f, ok := strokeFolds[r]; ok {
		return f
	}
	return r
}

// NormalizeQuery folds a search query into a cache key: diacritics are
// removed, case is lowered and runs of whitespace collapse to one space.
// "  São   Paulo " and "sao paulo" normalize to the same key.
func NormalizeQuery(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("input string is not valid UTF-8")
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), runes.Map(foldStroke), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(strings.ToLower(result)), " "), nil
}
