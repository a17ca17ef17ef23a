package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/signvault/internal/model"
)

var _ model.IdentityStore = (*IdentityRepository)(nil)

type IdentityRepository struct {
	db *Connection
}

func NewIdentityRepository(db *Connection) *IdentityRepository {
	return &IdentityRepository{
		db: db,
	}
}

const identityColumns = `id, first_name, last_name, username, credential_hash, salt,
			  public_key, private_key, must_change_password, is_admin, created_at`

func scanIdentity(row pgx.Row) (model.Identity, error) {
	var identity model.Identity
	err := row.Scan(
		&identity.ID, &identity.FirstName, &identity.LastName, &identity.Username,
		&identity.CredentialHash, &identity.Salt, &identity.PublicKey, &identity.PrivateKey,
		&identity.MustChangePassword, &identity.IsAdmin, &identity.CreatedAt,
	)
	return identity, err
}

func (r *IdentityRepository) GetByID(ctx context.Context, id int64) (model.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`

	identity, err := scanIdentity(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Identity{}, model.ErrNotFound
		}
		return model.Identity{}, fmt.Errorf("failed to get identity by id: %w", err)
	}

	return identity, nil
}

func (r *IdentityRepository) GetByUsername(ctx context.Context, username string) (model.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE username = $1`

	identity, err := scanIdentity(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Identity{}, model.ErrNotFound
		}
		return model.Identity{}, fmt.Errorf("failed to get identity by username: %w", err)
	}

	return identity, nil
}

func (r *IdentityRepository) Create(ctx context.Context, identity model.Identity) (model.Identity, error) {
	query := `INSERT INTO identities (first_name, last_name, username, credential_hash, salt,
			  public_key, private_key, must_change_password, is_admin, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + identityColumns

	saved, err := scanIdentity(r.db.QueryRow(ctx, query,
		identity.FirstName, identity.LastName, identity.Username, identity.CredentialHash, identity.Salt,
		identity.PublicKey, identity.PrivateKey, identity.MustChangePassword, identity.IsAdmin, identity.CreatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Identity{}, model.ErrUsernameTaken
		}
		return model.Identity{}, fmt.Errorf("failed to create identity: %w", err)
	}

	return saved, nil
}

func (r *IdentityRepository) UpdateCredential(ctx context.Context, id int64, credentialHash, salt string, mustChangePassword bool) error {
	query := `UPDATE identities SET credential_hash = $1, salt = $2, must_change_password = $3 WHERE id = $4`

	tag, err := r.db.Exec(ctx, query, credentialHash, salt, mustChangePassword, id)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
