package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a unique identifier with the given prefix, e.g. "o_1f8a...".
// Prefixes in use: "u" users, "p" products, "o" orders, "t" topups.
func NewID(prefix string) string {
	if prefix == "" {
		prefix = "id"
	}
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "_" + raw[:16]
}

// NormalizeHandle canonicalizes a user handle: trims whitespace, strips a
// leading "@", lowercases, drops everything outside [a-z0-9_], and re-applies
// the "@" prefix. NormalizeHandle(" @My.User! ") == "@myuser".
func NormalizeHandle(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "@")
	v = strings.ToLower(v)

	var b strings.Builder
	for _, c := range v {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		}
	}
	return "@" + b.String()
}
