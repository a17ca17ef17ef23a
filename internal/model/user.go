package model

import (
	"context"
	"time"
)

// AdminUsername is the reserved username of the bootstrap administrator.
const AdminUsername = "admin"

// IdentityStore defines persistence operations for identities.
type IdentityStore interface {
	GetByID(ctx context.Context, id int64) (Identity, error)
	GetByUsername(ctx context.Context, username string) (Identity, error)
	// Create inserts identity and returns it with the assigned ID.
	// A duplicate username yields ErrUsernameTaken.
	Create(ctx context.Context, identity Identity) (Identity, error)
	UpdateCredential(ctx context.Context, id int64, credentialHash, salt string, mustChangePassword bool) error
}

// Identity is a user account with its credential verifier and RSA key pair.
//
// PublicKey is base64 X.509 SubjectPublicKeyInfo DER and PrivateKey is base64
// PKCS#8 DER. Both halves live in the same row; reads go through KeyStore so a
// separate secrets store can replace the co-stored private key.
type Identity struct {
	ID                 int64
	FirstName          string
	LastName           string
	Username           string
	CredentialHash     string
	Salt               string
	PublicKey          string
	PrivateKey         string
	MustChangePassword bool
	IsAdmin            bool
	CreatedAt          time.Time
}

// KeyStore resolves the key material of an identity.
type KeyStore interface {
	// Bind associates an encoded key pair with identity before it is persisted.
	Bind(ctx context.Context, identity *Identity, publicKey, privateKey string) error
	PublicKey(ctx context.Context, identity Identity) (string, error)
	PrivateKey(ctx context.Context, identity Identity) (string, error)
}

// CreateAccountParams carries the input of an account creation.
// PerformedBy is nil for self-registration.
type CreateAccountParams struct {
	FirstName            string
	LastName             string
	Username             string
	Password             string
	ConfirmPassword      string
	PerformedBy          *int64
	AdminDoubleConfirmed bool
}
