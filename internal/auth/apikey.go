// Package auth provides the credential primitives for the marketplace:
// API key generation/verification and JWT session tokens for the dashboard.
// API keys are long-lived bearer secrets; only their bcrypt hash and a short
// display prefix are persisted. See internal/middleware/auth.go for the
// request-time logic that uses these primitives.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyPrefix is the scheme tag every marketplace key starts with.
	KeyPrefix = "smk"

	// keyRandomBytes is the length of the random part of the key in bytes.
	keyRandomBytes = 32

	// DisplayPrefixLength is how many characters of the full secret are kept
	// for display and candidate lookup. Short enough to be useless to an
	// attacker, long enough to keep prefix collisions rare.
	DisplayPrefixLength = 10

	// bcryptCost is the cost factor for hashing key secrets.
	bcryptCost = 12
)

// GenerateAPIKey creates a new random key secret.
// Returns the full secret (shown to the caller exactly once), the bcrypt hash
// to store, and the display prefix.
func GenerateAPIKey() (secret string, hash string, displayPrefix string, err error) {
	randomBytes := make([]byte, keyRandomBytes)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	secret = fmt.Sprintf("%s_%s", KeyPrefix, base64.RawURLEncoding.EncodeToString(randomBytes))

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to hash API key: %w", err)
	}

	displayPrefix = secret
	if len(secret) > DisplayPrefixLength {
		displayPrefix = secret[:DisplayPrefixLength]
	}

	return secret, string(hashBytes), displayPrefix, nil
}

// HashAPIKey hashes an externally supplied secret, for seeding fixtures.
func HashAPIKey(secret string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// ValidateAPIKey reports whether a presented secret matches the stored hash.
func ValidateAPIKey(presented, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(presented)) == nil
}

// DisplayPrefix returns the candidate-lookup prefix of a presented secret.
func DisplayPrefix(secret string) string {
	if len(secret) > DisplayPrefixLength {
		return secret[:DisplayPrefixLength]
	}
	return secret
}

// ExtractAPIKeyFromHeader pulls the key out of an Authorization header of the
// form "Bearer smk_...".
func ExtractAPIKeyFromHeader(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header is empty")
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("authorization header must start with 'Bearer '")
	}
	key := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if key == "" {
		return "", errors.New("API key is empty after Bearer prefix")
	}
	return key, nil
}
