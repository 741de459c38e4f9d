package strings

import "strings"

// TrimPtr returns a trimmed copy of *v, or nil when v is nil. Partial updates
// use nil for "leave unchanged", so an all-space value stays present as "".
func TrimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
