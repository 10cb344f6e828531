package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that have no combining-mark decomposition.
var special = strings.NewReplacer(
	"ı", "i",
	"ß", "ss",
	"æ", "ae",
	"ø", "o",
	"đ", "d",
	"ł", "l",
	"œ", "oe",
	"þ", "th",
)

// Generate creates a URL-friendly slug from name: lower-cased, diacritics
// removed, apostrophes dropped and every other run of non-alphanumerics
// collapsed to a single hyphen.
//
//	"Çocuk Ürünleri" -> "cocuk-urunleri"
//	"Men's T-Shirts" -> "mens-t-shirts"
func Generate(name string) string {
	s := special.Replace(strings.ToLower(name))

	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = stripped
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		switch {
		case r == '\'' || r == '’':
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}
