// Package pushtoken defines push tokens issued by the notification provider
// and the envelope check that guards every use of them.
package pushtoken

import "strings"

// Token is an opaque push token issued by the notification provider.
type Token string

// Format describes the sentinel envelope a provider wraps its tokens in.
type Format struct {
	Prefix string
	Suffix string
}

// DefaultFormat is the envelope used by Expo push tokens.
var DefaultFormat = Format{
	Prefix: "ExponentPushToken[",
	Suffix: "]",
}

// Valid reports whether s starts with the prefix, ends with the suffix and
// has a non-empty body between them.
func (f Format) Valid(s string) bool {
	if f.Prefix == "" && f.Suffix == "" {
		return s != ""
	}
	if len(s) <= len(f.Prefix)+len(f.Suffix) {
		return false
	}
	return strings.HasPrefix(s, f.Prefix) && strings.HasSuffix(s, f.Suffix)
}

// Body returns the part of s between the envelope markers.
// It returns an empty string if s is not valid.
func (f Format) Body(s string) string {
	if !f.Valid(s) {
		return ""
	}
	return s[len(f.Prefix) : len(s)-len(f.Suffix)]
}

// Valid reports whether s is a well-formed token under DefaultFormat.
func Valid(s string) bool {
	return DefaultFormat.Valid(s)
}

// String implements fmt.Stringer.
func (t Token) String() string {
	return string(t)
}

// IsZero reports whether the token is empty.
func (t Token) IsZero() bool {
	return t == ""
}

// Last4 returns the last 4 characters of the token for display purposes.
// Tokens are never logged in full.
func (t Token) Last4() string {
	if len(t) < 4 {
		return string(t)
	}
	return string(t[len(t)-4:])
}
