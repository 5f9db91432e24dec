package stackprint

import "strings"

// asciiLower folds A-Z to a-z and leaves every other byte alone, so byte
// offsets in the result line up with the input. Catalog patterns are ASCII.
func asciiLower(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}

// containsFold reports whether lowerPattern occurs in s, ignoring ASCII case.
// The pattern must already be lower case.
func containsFold(s, lowerPattern string) bool {
	return strings.Contains(asciiLower(s), lowerPattern)
}
