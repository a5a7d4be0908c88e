// internal/app/system/authutil/password.go

// Package authutil handles account password hashing and policy. Passwords
// gate access to an owner's entire tree, so the rules here are the only
// strength check in the system.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8

	// bcrypt hashes only the first 72 bytes of input. Longer passwords are
	// rejected outright rather than silently truncated.
	MaxPasswordLength = 72

	BcryptCost = 12
)

var (
	ErrPasswordTooShort = errors.New("Password must be at least 8 characters.")
	ErrPasswordTooLong  = errors.New("Password must be at most 72 characters.")
	ErrPasswordCommon   = errors.New("This password is too common. Please choose a different one.")
)

// commonPasswords blocks frequently-guessed passwords. Entries shorter than
// MinPasswordLength are omitted since the length check rejects them first.
var commonPasswords = map[string]bool{
	"12345678":   true,
	"123456789":  true,
	"1234567890": true,
	"password":   true,
	"password1":  true,
	"passw0rd":   true,
	"qwerty123":  true,
	"qwertyuiop": true,
	"iloveyou":   true,
	"sunshine":   true,
	"princess":   true,
	"football":   true,
	"baseball":   true,
	"superman":   true,
	"trustno1":   true,
	"welcome1":   true,
	"letmein1":   true,
	"11111111":   true,
	"00000000":   true,
}

// PasswordRules returns a human-readable description of the password rules
// for display alongside registration errors.
func PasswordRules() string {
	return "Password must be 8 to 72 characters and cannot be a common password like \"12345678\" or \"password\"."
}

// ValidatePassword checks a candidate password against the account policy.
// Returns nil if acceptable, or an error describing the first failed rule.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword hashes a password with bcrypt. Callers run ValidatePassword
// first; HashPassword assumes the input fits bcrypt's length cap.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether a plain-text password matches a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
