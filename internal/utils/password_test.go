package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("bootstrap-secret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("bootstrap-secret")); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")) == nil {
		t.Fatalf("wrong password verified")
	}
}

func TestHashPassword_InvalidCost(t *testing.T) {
	if _, err := HashPassword("x", bcrypt.MaxCost+1); err == nil {
		t.Fatalf("expected error for out-of-range cost")
	}
}
