// Package signature signs and verifies payloads with RSA PKCS#1 v1.5 over SHA-256.
package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/dtroode/signvault/internal/digest"
)

var (
	// ErrInvalidKey is returned for a missing or unusable key.
	ErrInvalidKey = errors.New("invalid RSA key")
	// ErrMalformedSignature is returned when a signature cannot have been
	// produced by the key it is checked against.
	ErrMalformedSignature = errors.New("malformed signature")
	// ErrSigningFailed is returned when the signer itself fails.
	ErrSigningFailed = errors.New("signing failed")
)

// Sign signs the SHA-256 digest of payload with key.
func Sign(payload []byte, key *rsa.PrivateKey) ([]byte, error) {
	if key == nil || key.N == nil {
		return nil, ErrInvalidKey
	}

	sum := digest.Sum(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, sum[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return sig, nil
}

// Verify reports whether sig is a valid signature of payload under key.
// A mismatch is (false, nil); an error means the inputs were unusable.
func Verify(payload, sig []byte, key *rsa.PublicKey) (bool, error) {
	if key == nil || key.N == nil {
		return false, ErrInvalidKey
	}
	if len(sig) != key.Size() {
		return false, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedSignature, len(sig), key.Size())
	}

	sum := digest.Sum(payload)
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, sum[:], sig); err != nil {
		if errors.Is(err, rsa.ErrVerification) {
			return false, nil
		}
		return false, fmt.Errorf("failed to verify signature: %w", err)
	}
	return true, nil
}
