package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// APIKeyBytes is the amount of entropy in a generated API key.
const APIKeyBytes = 32

// GenerateAPIKey returns a hex encoded random key of 2*APIKeyBytes characters.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, APIKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// TokensEqual compares two tokens in constant time.
func TokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
