package service

import "strings"

// NormalizeEmail trims and lowercases an address so uniqueness checks and
// login lookups agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
