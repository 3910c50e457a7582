package core

import (
	"regexp"
	"strings"
	"unicode"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// SecureFilename returns a flat ASCII version of name that is safe to use as a path segment.
// Separators become spaces, whitespace becomes "_", leading dots and underscores are dropped.
// The result may be empty.
func SecureFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return ' '
		}
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// IsSimpleEmail is the loose syntactic check used by the public forms: an '@' and a '.'.
func IsSimpleEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

// IsDigits reports whether s is made of ASCII digits only.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
