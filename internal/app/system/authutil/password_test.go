package authutil

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid minimal", "abcd1234", nil},
		{"valid phrase", "my secret password", nil},
		{"valid with special chars", "P@ssw0rd!123", nil},
		{"valid at max", strings.Repeat("x", MaxPasswordLength), nil},

		{"too short 7 chars", "abcd123", ErrPasswordTooShort},
		{"too short empty", "", ErrPasswordTooShort},
		{"too long", strings.Repeat("x", MaxPasswordLength+1), ErrPasswordTooLong},

		{"common 12345678", "12345678", ErrPasswordCommon},
		{"common password", "password", ErrPasswordCommon},
		{"common uppercase", "PASSWORD", ErrPasswordCommon},
		{"common mixed case", "ILoveYou", ErrPasswordCommon},
		{"common qwerty123", "qwerty123", ErrPasswordCommon},

		// Short common passwords fail the length check first.
		{"short common qwerty", "qwerty", ErrPasswordTooShort},
		{"short common 123456", "123456", ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.password); err != tt.wantErr {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword_BoundaryLengths(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr error
	}{
		{"min-1", MinPasswordLength - 1, ErrPasswordTooShort},
		{"min", MinPasswordLength, nil},
		{"max", MaxPasswordLength, nil},
		{"max+1", MaxPasswordLength + 1, ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwd := strings.Repeat("x", tt.length)
			if err := ValidatePassword(pwd); err != tt.wantErr {
				t.Errorf("ValidatePassword(len=%d) = %v, want %v", tt.length, err, tt.wantErr)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	password := "mySecurePassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash does not appear to be bcrypt: %s", hash)
	}

	// Same password produces different hashes (random salt).
	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() second call error = %v", err)
	}
	if hash == hash2 {
		t.Error("two hashes of the same password should differ")
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"correct password", password, hash, true},
		{"wrong password", "wrongPassword456", hash, false},
		{"empty password", "", hash, false},
		{"empty hash", password, "", false},
		{"invalid hash format", password, "not-a-valid-hash", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword(%q, hash) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	passwords := []string{
		"simple123",
		"Complex!P@ssw0rd#123",
		"with spaces in it",
		"unicode: éàü12",
		strings.Repeat("a", 50),
	}

	for _, password := range passwords {
		t.Run(password[:min(20, len(password))], func(t *testing.T) {
			hash, err := HashPassword(password)
			if err != nil {
				t.Fatalf("HashPassword() error = %v", err)
			}
			if !CheckPassword(password, hash) {
				t.Error("CheckPassword() failed to verify correct password")
			}
			if CheckPassword(password+"x", hash) {
				t.Error("CheckPassword() verified a wrong password")
			}
		})
	}
}

func TestPasswordRules(t *testing.T) {
	rules := PasswordRules()
	if !strings.Contains(rules, "8") || !strings.Contains(rules, "72") {
		t.Errorf("PasswordRules() should mention both length bounds: %q", rules)
	}
}

func TestErrorMessages(t *testing.T) {
	if !strings.Contains(ErrPasswordTooShort.Error(), "8") {
		t.Error("ErrPasswordTooShort should mention the minimum length")
	}
	if !strings.Contains(ErrPasswordTooLong.Error(), "72") {
		t.Error("ErrPasswordTooLong should mention the maximum length")
	}
	if !strings.Contains(ErrPasswordCommon.Error(), "common") {
		t.Error("ErrPasswordCommon should mention 'common'")
	}
}
