package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// KeyPrefix marks generated keys so they are recognizable in logs and
	// secret scanners without revealing anything.
	KeyPrefix = "cgk_"

	base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// GenerateAPIKey returns a fresh raw key and its hash. The raw key is shown
// once; only the hash belongs in configuration.
func GenerateAPIKey() (raw, hash string, err error) {
	suffix, err := randomBase62(32)
	if err != nil {
		return "", "", err
	}
	raw = KeyPrefix + suffix
	return raw, HashKey(raw), nil
}

func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func VerifyKey(raw, hash string) bool {
	computed := HashKey(raw)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(computed)), []byte(strings.ToLower(hash))) == 1
}

func randomBase62(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	buf := make([]byte, n)
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("random: %w", err)
	}
	for i := range raw {
		buf[i] = base62Alphabet[int(raw[i])%len(base62Alphabet)]
	}
	return string(buf), nil
}
