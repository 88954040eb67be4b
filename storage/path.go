package storage

import (
	"path"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// DefaultEscapeByte reports whether c is escaped in storage keys
func DefaultEscapeByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	}
	switch c {
	case '-', '_', '.', '~', '/':
		return false
	}
	return true
}

// Normalize cleans key and percent escapes bytes matching shouldEscape
func Normalize(key string, shouldEscape func(c byte) bool) string {
	key = strings.Trim(path.Clean("/"+key), "/")
	if shouldEscape == nil {
		shouldEscape = DefaultEscapeByte
	}
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// SafeChars escape func that keeps chars unescaped on top of DefaultEscapeByte
func SafeChars(chars string) func(c byte) bool {
	if chars == "" {
		return DefaultEscapeByte
	}
	safe := map[byte]bool{}
	for i := 0; i < len(chars); i++ {
		safe[chars[i]] = true
	}
	return func(c byte) bool {
		return !safe[c] && DefaultEscapeByte(c)
	}
}

// PathPrefix normalizes a key prefix into "/" or "/foo/"
func PathPrefix(prefix string) string {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix != "/" {
		prefix += "/"
	}
	return prefix
}
