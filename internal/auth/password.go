package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckAdminCredentials compares against the configured admin account.
// configuredPassword may be plain text or a bcrypt hash ("$2a$...").
// An unconfigured account never matches.
func CheckAdminCredentials(username, password, configuredUser, configuredPassword string) bool {
	if configuredUser == "" || configuredPassword == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(configuredUser)) == 1

	var passOK bool
	if strings.HasPrefix(configuredPassword, "$2") {
		passOK = bcrypt.CompareHashAndPassword([]byte(configuredPassword), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(configuredPassword)) == 1
	}
	return userOK && passOK
}

// EqualSecret is a constant time comparison for shared secrets such as bearer tokens.
func EqualSecret(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
