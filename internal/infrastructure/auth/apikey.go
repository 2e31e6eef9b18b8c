package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// APIKeyPrefix marks keys issued by this service.
const APIKeyPrefix = "cl_"

const apiKeyBytes = 32

// GenerateAPIKey returns a new random plaintext key and its hash.
func GenerateAPIKey() (key, hash string, err error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate api key: %w", err)
	}
	key = APIKeyPrefix + hex.EncodeToString(buf)
	return key, HashAPIKey(key), nil
}

// HashAPIKey returns the hex BLAKE2b-256 digest stored for a key.
func HashAPIKey(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
