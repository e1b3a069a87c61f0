// Package inputval validates user-supplied account fields before they reach
// the stores.
package inputval

import (
	"net/mail"
	"strings"
)

// allowedAuthMethods are the ways an account can authenticate, in display
// order. "password" is internal email+password; "google" is OAuth.
var allowedAuthMethods = []string{"password", "google"}

// IsValidEmail reports whether s is a plausible email address. Parsing
// follows RFC 5322 via net/mail, with extra structural checks the RFC
// grammar alone would let through for our purposes (display names,
// surrounding whitespace).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// Reject "Name <addr>" forms; we want the bare address.
	if addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return true
}

// IsValidAuthMethod reports whether method names a supported auth method.
// Matching is case-insensitive and ignores surrounding whitespace.
func IsValidAuthMethod(method string) bool {
	m := strings.ToLower(strings.TrimSpace(method))
	for _, a := range allowedAuthMethods {
		if m == a {
			return true
		}
	}
	return false
}

// AllowedAuthMethodsList returns the supported auth methods in display
// order. The slice is freshly allocated.
func AllowedAuthMethodsList() []string {
	out := make([]string, len(allowedAuthMethods))
	copy(out, allowedAuthMethods)
	return out
}
