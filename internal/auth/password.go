package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var legacyDigestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// LegacyDigest is the unsalted SHA-256 hex digest older accounts were stored with.
func LegacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword checks input against a stored digest. bcrypt digests are
// canonical; a legacy SHA-256 digest still verifies but asks for an upgrade.
// Anything else, including a plain-text value, never verifies.
func VerifyPassword(stored string, input string) (ok bool, needsUpgrade bool) {
	if stored == "" || strings.TrimSpace(input) == "" {
		return false, false
	}
	if isPasswordHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil, false
	}
	if legacyDigestPattern.MatchString(stored) {
		match := subtle.ConstantTimeCompare([]byte(stored), []byte(LegacyDigest(input))) == 1
		return match, match
	}
	return false, false
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
