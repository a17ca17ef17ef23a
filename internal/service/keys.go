package service

import (
	"context"
	"fmt"

	"github.com/dtroode/signvault/internal/credential"
	"github.com/dtroode/signvault/internal/keypair"
	"github.com/dtroode/signvault/internal/model"
)

// keyGenerator issues encoded RSA key pairs.
type keyGenerator interface {
	GenerateEncoded() (keypair.Encoded, error)
}

// provisioner builds the credential material of a new identity.
type provisioner struct {
	keys      model.KeyStore
	generator keyGenerator
	salt      func(n int) (string, error)
}

// provision binds a fresh key pair and salt to identity and derives its credential hash.
// Failures are crypto errors.
func (p provisioner) provision(ctx context.Context, identity *model.Identity, password string) error {
	salt, err := p.salt(credential.SaltLength)
	if err != nil {
		return fmt.Errorf("%w: failed to generate salt: %w", model.ErrCrypto, err)
	}

	pair, err := p.generator.GenerateEncoded()
	if err != nil {
		return fmt.Errorf("%w: failed to generate key pair: %w", model.ErrCrypto, err)
	}

	if err := p.keys.Bind(ctx, identity, pair.Public, pair.Private); err != nil {
		return fmt.Errorf("%w: failed to bind key pair: %w", model.ErrCrypto, err)
	}

	identity.Salt = salt
	identity.CredentialHash = credential.Derive(salt, password, pair.Public, pair.Private)
	return nil
}

// derive recomputes the credential hash of identity for password with a given salt.
func derive(ctx context.Context, keys model.KeyStore, identity model.Identity, salt, password string) (string, error) {
	publicKey, err := keys.PublicKey(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("failed to resolve public key: %w", err)
	}
	privateKey, err := keys.PrivateKey(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("failed to resolve private key: %w", err)
	}
	return credential.Derive(salt, password, publicKey, privateKey), nil
}
