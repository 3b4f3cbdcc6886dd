package transform

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	bracketedRe     = regexp.MustCompile(`\[[^\]]*\]`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	seriesSuffixRe  = regexp.MustCompile(`(?i)[\s:~-]*(시즌\s*\d+|season\s*\d+|part\s*\d+|\d+부|외전|스페셜|번외편)\s*$`)
)

// normalizer is one named string transform from a rule's normalizer pipeline.
type normalizer func(string) string

var normalizers = map[string]normalizer{
	"lowercase": strings.ToLower,
	"strip_parenthetical": func(s string) string {
		return strings.TrimSpace(parentheticalRe.ReplaceAllString(s, ""))
	},
	"collapse_whitespace": func(s string) string {
		return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	},
	"unicode_canonicalize": func(s string) string {
		return norm.NFKC.String(s)
	},
	"strip_bracketed": func(s string) string {
		return strings.TrimSpace(bracketedRe.ReplaceAllString(s, ""))
	},
	"strip_series_suffix": func(s string) string {
		return strings.TrimSpace(seriesSuffixRe.ReplaceAllString(s, ""))
	},
}

// ApplyNormalizer runs one named step. Unknown names are a no-op so old
// deployments tolerate rules written for newer builds.
func ApplyNormalizer(name, value string) string {
	fn, ok := normalizers[name]
	if !ok {
		return value
	}
	return fn(value)
}

// MergeNormalize reduces a title to its identity-comparison form:
// NFKC-folded, lowercased, with all whitespace, punctuation and separator
// runes removed. Equality after this is the only title match the merge
// path accepts; there is no fuzzy scoring.
func MergeNormalize(title string) string {
	folded := strings.ToLower(norm.NFKC.String(title))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
