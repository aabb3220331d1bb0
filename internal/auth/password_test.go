package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"ok", "alice_99", "secret", nil},
		{"short username", "al", "secret", ErrInvalidUsername},
		{"long username", strings.Repeat("a", 33), "secret", ErrInvalidUsername},
		{"bad rune", "alice!", "secret", ErrInvalidUsername},
		{"space", "al ice", "secret", ErrInvalidUsername},
		{"short password", "alice", "12345", ErrWeakPassword},
		{"long password", "alice", strings.Repeat("x", 73), ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateCredentials(tt.username, tt.password); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("hash should not equal the password")
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "hunter23") {
		t.Error("expected wrong password to fail")
	}
	if CheckPassword("", "hunter22") {
		t.Error("accounts without a password must never match")
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := NormalizeUsername("  bob \n"); got != "bob" {
		t.Errorf("got %q", got)
	}
}
