package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// genericWords are dropped from derived keywords. They appear in almost every
// disease or plant name and carry no discriminating signal.
var genericWords = map[string]bool{
	"cay": true, "plant": true, "benh": true, "disease": true,
	"cua": true, "tren": true, "the": true, "and": true, "on": true,
}

// Normalize lowercases s and strips diacritics (NFD decomposition followed by
// combining-mark removal). Vietnamese "đ" has no decomposition and is folded to "d".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		out = strings.ToLower(strings.TrimSpace(s))
	}
	out = strings.ReplaceAll(out, "đ", "d")
	return strings.Join(strings.Fields(out), " ")
}

// Keywords splits a disease or plant name into search keywords: generic words
// are removed, the text is split on whitespace and commas, and tokens of two
// runes or fewer are dropped. Keywords keep their original spelling; order is
// first-seen and duplicates are removed.
func Keywords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == '/' || r == '(' || r == ')'
	})

	seen := make(map[string]bool, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".:-_\"'")
		if utf8.RuneCountInString(f) <= 2 {
			continue
		}
		n := Normalize(f)
		if genericWords[n] || seen[n] {
			continue
		}
		seen[n] = true
		keywords = append(keywords, strings.ToLower(f))
	}
	return keywords
}

// normalizedKeywords is Keywords passed through Normalize, used for overlap scoring.
func normalizedKeywords(s string) map[string]bool {
	set := make(map[string]bool)
	for _, k := range Keywords(s) {
		set[Normalize(k)] = true
	}
	return set
}
