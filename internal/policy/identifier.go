package policy

import "strings"

// CanonicalIdentifier trims s and lower-cases it when it is email-shaped.
// Rate keys, cache keys and attempt rows all derive from this form, so every
// spelling of one mailbox shares a single budget. Phone numbers keep their
// characters.
func CanonicalIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "@") {
		return strings.ToLower(s)
	}
	return s
}

// ValidEmail reports whether s has the minimal shape of an email address.
func ValidEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

// ValidPhone reports whether s is at least ten characters of digits and '+'.
func ValidPhone(s string) bool {
	if len(s) < 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '+' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
