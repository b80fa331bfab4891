package common

import "strings"

// Exchange symbols are uppercase and may carry '&', '-' or '.'
// (M&M, BAJAJ-AUTO). Dictionary overlays are validated against this form
// so a typo in a YAML file fails at startup, not at query time.

// ValidSymbol reports whether s looks like an exchange symbol
func ValidSymbol(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '&' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return true
}

// NormalizeSymbol canonicalizes a symbol string: trims whitespace, strips
// an optional exchange qualifier ("NSE:HDFCBANK" -> "HDFCBANK") and
// uppercases the code.
func NormalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Exchange-qualified form EXCHANGE:CODE
	if idx := strings.Index(s, ":"); idx > 0 {
		s = s[idx+1:]
	}

	return strings.ToUpper(s)
}
