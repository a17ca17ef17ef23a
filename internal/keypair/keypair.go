// Package keypair generates RSA key pairs and converts them to and from their
// transport form: base64 X.509 SubjectPublicKeyInfo DER for public keys and
// base64 PKCS#8 DER for private keys.
package keypair

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Bits is the RSA modulus length of generated keys.
const Bits = 2048

var (
	// ErrInvalidKeyEncoding is returned when an encoded key cannot be decoded.
	ErrInvalidKeyEncoding = errors.New("invalid key encoding")
	// ErrNotRSAKey is returned when a decoded key is not an RSA key.
	ErrNotRSAKey = errors.New("key is not an RSA key")
	// ErrKeyGenUnavailable is returned when key generation cannot run.
	ErrKeyGenUnavailable = errors.New("key generation unavailable")
)

// Encoded is a key pair in transport form.
type Encoded struct {
	Public  string
	Private string
}

// Generator creates RSA key pairs.
type Generator struct {
	random io.Reader
	bits   int
}

// NewGenerator creates a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{random: rand.Reader, bits: Bits}
}

// Generate creates a new RSA private key.
func (g *Generator) Generate() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(g.random, g.bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGenUnavailable, err)
	}
	return key, nil
}

// GenerateEncoded creates a new key pair and returns it in transport form.
func (g *Generator) GenerateEncoded() (Encoded, error) {
	key, err := g.Generate()
	if err != nil {
		return Encoded{}, err
	}

	pub, err := EncodePublic(&key.PublicKey)
	if err != nil {
		return Encoded{}, err
	}
	priv, err := EncodePrivate(key)
	if err != nil {
		return Encoded{}, err
	}

	return Encoded{Public: pub, Private: priv}, nil
}

// EncodePublic returns the base64 X.509 SubjectPublicKeyInfo encoding of key.
func EncodePublic(key *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// EncodePrivate returns the base64 PKCS#8 encoding of key.
func EncodePrivate(key *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to marshal private key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// DecodePublic is the inverse of EncodePublic.
func DecodePublic(encoded string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: public key is not base64: %w", ErrInvalidKeyEncoding, err)
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %w", ErrInvalidKeyEncoding, err)
	}

	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotRSAKey, parsed)
	}
	return key, nil
}

// DecodePrivate is the inverse of EncodePrivate.
func DecodePrivate(encoded string) (*rsa.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: private key is not base64: %w", ErrInvalidKeyEncoding, err)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %w", ErrInvalidKeyEncoding, err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotRSAKey, parsed)
	}
	return key, nil
}
