package domain

import (
	"strings"
	"unicode/utf8"
)

const BearerScheme = "Bearer "

// BearerHeader returns the Authorization header value for token,
// or "" when no token is configured.
func BearerHeader(token string) string {
	if token == "" {
		return ""
	}
	return BearerScheme + token
}

// Sanitize drops invalid UTF-8 and anything outside printable ASCII,
// keeping newlines and tabs.
func Sanitize(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if (r >= 32 && r <= 126) || r == '\n' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
