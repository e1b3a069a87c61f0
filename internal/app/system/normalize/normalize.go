// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email lowercases and trims an email address. Empty or whitespace-only
// input normalizes to "".
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// AuthMethod lowercases and trims an auth method value (password, google).
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Slug lowercases, trims, and collapses interior whitespace to hyphens so
// team slugs are URL-safe and comparable.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	fields := strings.Fields(s)
	return strings.Join(fields, "-")
}
