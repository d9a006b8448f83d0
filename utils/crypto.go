package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	keySize    = 32
	iterations = 100000
	apiKeySize = 32
)

// GenerateSalt generates a random salt
func GenerateSalt() (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// GenerateAPIKey generates a random site API key. The plaintext key is shown
// to the operator exactly once at registration; only the hash is stored.
func GenerateAPIKey() (string, error) {
	key := make([]byte, apiKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// HashAPIKey hashes an API key with a salt using PBKDF2
func HashAPIKey(key, salt string) string {
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		// If salt decode fails, return empty string (this should never happen with valid salts)
		return ""
	}
	hash := pbkdf2.Key([]byte(key), saltBytes, iterations, keySize, sha256.New)
	return base64.StdEncoding.EncodeToString(hash)
}

// VerifyAPIKey verifies an API key against a hash using constant-time comparison
func VerifyAPIKey(key, salt, hash string) bool {
	computedHash := HashAPIKey(key, salt)
	// Use constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(computedHash), []byte(hash)) == 1
}
