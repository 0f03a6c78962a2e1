package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize turns a raw identifier into its canonical comparison key:
// NFKD decomposition, then only ASCII letters and digits survive, folded
// to upper case. The same function runs on catalog and query values, so
// two spellings a human reads as the same part number collide on one key.
// Total and idempotent; garbage in yields "" out, never an error.
func Normalize(input string) string {
	decomposed := norm.NFKD.String(input)
	out := strings.Builder{}
	out.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r >= 'a' && r <= 'z':
			out.WriteRune(r - 'a' + 'A')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			out.WriteRune(r)
		}
	}
	return out.String()
}

// SplitKeywords parses the comma-separated keyword field from the upload
// form. Fragments are trimmed; anything shorter than two characters is
// dropped as too ambiguous to select a column by.
func SplitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len([]rune(p)) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }
