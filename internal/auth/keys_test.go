package auth

import (
	"strings"
	"testing"
)

func TestGenerateAndVerifyKey(t *testing.T) {
	key, hash, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}
	if !strings.HasPrefix(key, KeyPrefix) {
		t.Fatalf("expected %s prefix, got %s", KeyPrefix, key)
	}
	if !VerifyKey(key, hash) {
		t.Fatal("VerifyKey returned false")
	}
	if VerifyKey(key+"x", hash) {
		t.Fatal("VerifyKey unexpectedly true")
	}
}

func TestVerifyKeyIgnoresHashCase(t *testing.T) {
	key, hash, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}
	if !VerifyKey(key, strings.ToUpper(hash)) {
		t.Fatal("VerifyKey should accept upper-cased hash")
	}
}

func TestGeneratedKeysAreUnique(t *testing.T) {
	a, _, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}
	b, _, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}
	if a == b {
		t.Fatal("two generated keys collided")
	}
}
