// Package shell provides escaping of raw strings so they can be embedded
// as single words in a generated shell command line.
package shell

import "strings"

// Characters which must be backslash-escaped inside a double-quoted word
// because the shell still interprets them there.
const escapedWithinQuotes = "\"$`"

// Escape returns a shell-safe rendering of raw. Input that is already fully
// quoted, or that consists only of characters with no special meaning to a
// shell word, is returned unchanged. Anything else is wrapped in double
// quotes; within the wrapping only the double quote, dollar sign and backtick
// are backslash-escaped since the surrounding quotes neutralize the rest.
func Escape(raw string) string {
	if isQuoted(raw) || isPlain(raw) {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw) + 2)
	b.WriteByte('"')
	for i := 0; i < len(raw); i++ {
		if strings.IndexByte(escapedWithinQuotes, raw[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(raw[i])
	}
	b.WriteByte('"')
	return b.String()
}

// isQuoted reports whether s is already enclosed in a matching pair of
// single or double quotes, in which case the caller has quoted it themselves.
func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '\'' || first == '"') && first == last
}

// isPlain reports whether s contains only characters that are never special
// to a shell word. The empty string needs no quoting either.
func isPlain(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '.':
		default:
			return false
		}
	}
	return true
}
