// Package sanitize cleans untrusted form input before it is validated or
// stored. Every function is pure, never fails, and returns a (possibly
// empty) string.
package sanitize

import "strings"

const (
	maxTextLen    = 255
	maxEmailLen   = 254
	maxNumericLen = 20
)

// Text trims surrounding whitespace, strips the markup-significant
// characters < > " ' and truncates to 255 characters.
func Text(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'':
			return -1
		}
		return r
	}, s)
	return truncate(s, maxTextLen)
}

// Email lowercases, trims and truncates to 254 characters. No characters are
// stripped; anything suspicious is left for validation to reject.
func Email(s string) string {
	return truncate(strings.ToLower(strings.TrimSpace(s)), maxEmailLen)
}

// Numeric keeps only digits, '.' and '-', truncated to 20 characters. Used
// for card numbers, CVCs, amounts and postal codes.
func Numeric(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	return truncate(s, maxNumericLen)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
