// Package credential derives password verifiers bound to an identity's key pair.
//
// The verifier is hex(SHA-256(salt + password + publicKey + privateKey)) over
// the UTF-8 concatenation in exactly that order. Stored verifiers depend on the
// order, so it must not change.
package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/dtroode/signvault/internal/digest"
)

// SaltLength is the number of random bytes in a generated salt.
const SaltLength = 16

// Derive computes the credential hash for password.
func Derive(salt, password, publicKey, privateKey string) string {
	sum := digest.Sum([]byte(salt + password + publicKey + privateKey))
	return digest.Hex(sum[:])
}

// Matches compares a stored credential hash with a freshly derived one in constant time.
func Matches(stored, derived string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(derived)) == 1
}

// GenerateSalt returns n cryptographically random bytes, base64-encoded with padding.
func GenerateSalt(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
