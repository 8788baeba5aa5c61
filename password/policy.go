package password

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SpecialCharacters is the default set a password must draw one symbol from.
const SpecialCharacters = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// Policy describes acceptable new passwords. Lengths count characters, not bytes.
type Policy struct {
	MinLength int
	MaxLength int
	Specials  string
}

// DefaultPolicy is 8..128 characters with lower, upper, digit and special.
func DefaultPolicy() Policy {
	return Policy{MinLength: 8, MaxLength: 128, Specials: SpecialCharacters}
}

// Check returns every rule pw breaks, in a stable order. An empty result
// means pw is acceptable.
func (p Policy) Check(pw string) []string {
	var violations []string

	n := utf8.RuneCountInString(pw)
	if n < p.MinLength {
		violations = append(violations, fmt.Sprintf("Password must be at least %d characters long", p.MinLength))
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		violations = append(violations, fmt.Sprintf("Password must not exceed %d characters", p.MaxLength))
	}

	var lower, upper, digit, special bool
	specials := p.Specials
	if specials == "" {
		specials = SpecialCharacters
	}
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specials, r):
			special = true
		}
	}

	if !lower {
		violations = append(violations, "Password must contain at least one lowercase letter")
	}
	if !upper {
		violations = append(violations, "Password must contain at least one uppercase letter")
	}
	if !digit {
		violations = append(violations, "Password must contain at least one number")
	}
	if !special {
		violations = append(violations, "Password must contain at least one special character")
	}
	return violations
}
