// Package validate holds the field-shape checks that run before any store
// or network work. These are the same patterns the registration form
// enforces, so a record that passes here can only be rejected on semantic
// grounds by the owning service.
package validate

import "regexp"

var (
	phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

	// 6-digit region, 8-digit birth date (years 18xx-20xx with valid
	// month/day), 3 sequence digits, 1 check digit or X.
	idCardPattern = regexp.MustCompile(`^[1-9]\d{5}(18|19|20)\d{2}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])\d{3}[0-9Xx]$`)

	digitsOnly = regexp.MustCompile(`^\d+$`)
)

// Phone reports whether s is an 11-digit mobile number beginning with 1.
func Phone(s string) bool {
	return phonePattern.MatchString(s)
}

// IDCard reports whether s is an 18-character national ID.
func IDCard(s string) bool {
	return idCardPattern.MatchString(s)
}

// LooksLikePhone reports whether s is all digits, meaning a login input
// must validate as a phone number rather than a username.
func LooksLikePhone(s string) bool {
	return digitsOnly.MatchString(s)
}
