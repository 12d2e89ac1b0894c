package domain

import (
	"strings"
	"unicode"
)

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone keeps digits and a leading plus sign.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "+" {
		return ""
	}
	return out
}

// NormalizeContacts applies normalize to each value and returns the sorted
// set of non-empty results.
func NormalizeContacts(in []string, normalize func(string) string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = normalize(v); v != "" {
			out = append(out, v)
		}
	}
	return NormalizeSet(out)
}

// SplitContacts splits a cell holding several addresses or numbers.
func SplitContacts(raw string, normalize func(string) string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := normalize(p); v != "" {
			out = append(out, v)
		}
	}
	return NormalizeSet(out)
}
