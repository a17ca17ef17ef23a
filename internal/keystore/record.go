// Package keystore provides model.KeyStore implementations.
package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/signvault/internal/model"
)

// ErrNoKey is returned when an identity carries no key material.
var ErrNoKey = errors.New("identity has no key material")

var _ model.KeyStore = (*Record)(nil)

// Record keeps both halves of the key pair in the identity row itself.
// Anyone able to read the identity store can read the signing keys.
type Record struct{}

// NewRecord creates a co-stored KeyStore.
func NewRecord() *Record {
	return &Record{}
}

// Bind writes the encoded keys onto identity.
func (r *Record) Bind(_ context.Context, identity *model.Identity, publicKey, privateKey string) error {
	if identity == nil {
		return fmt.Errorf("identity is nil")
	}
	identity.PublicKey = publicKey
	identity.PrivateKey = privateKey
	return nil
}

// PublicKey returns the identity's encoded public key.
func (r *Record) PublicKey(_ context.Context, identity model.Identity) (string, error) {
	if identity.PublicKey == "" {
		return "", fmt.Errorf("%w: public key of identity %d", ErrNoKey, identity.ID)
	}
	return identity.PublicKey, nil
}

// PrivateKey returns the identity's encoded private key.
func (r *Record) PrivateKey(_ context.Context, identity model.Identity) (string, error) {
	if identity.PrivateKey == "" {
		return "", fmt.Errorf("%w: private key of identity %d", ErrNoKey, identity.ID)
	}
	return identity.PrivateKey, nil
}
