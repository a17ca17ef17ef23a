package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dtroode/signvault/internal/model"
)

var _ model.IdentityStore = (*IdentityRepository)(nil)

// IdentityRepository stores identities in the identities table.
type IdentityRepository struct {
	db *sql.DB
}

func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

const identityColumns = `id, first_name, last_name, username, credential_hash, salt,
	public_key, private_key, must_change_password, is_admin, created_at`

func scanIdentity(row scanner) (model.Identity, error) {
	var (
		identity  model.Identity
		createdAt string
	)
	err := row.Scan(
		&identity.ID, &identity.FirstName, &identity.LastName, &identity.Username,
		&identity.CredentialHash, &identity.Salt, &identity.PublicKey, &identity.PrivateKey,
		&identity.MustChangePassword, &identity.IsAdmin, &createdAt,
	)
	if err != nil {
		return model.Identity{}, err
	}
	if identity.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Identity{}, err
	}
	return identity, nil
}

func (r *IdentityRepository) GetByID(ctx context.Context, id int64) (model.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = ?`

	identity, err := scanIdentity(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Identity{}, model.ErrNotFound
		}
		return model.Identity{}, fmt.Errorf("failed to get identity by id: %w", err)
	}
	return identity, nil
}

func (r *IdentityRepository) GetByUsername(ctx context.Context, username string) (model.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE username = ?`

	identity, err := scanIdentity(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Identity{}, model.ErrNotFound
		}
		return model.Identity{}, fmt.Errorf("failed to get identity by username: %w", err)
	}
	return identity, nil
}

// Create inserts identity and returns it with the assigned ID.
func (r *IdentityRepository) Create(ctx context.Context, identity model.Identity) (model.Identity, error) {
	query := `INSERT INTO identities (first_name, last_name, username, credential_hash, salt,
		public_key, private_key, must_change_password, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		identity.FirstName, identity.LastName, identity.Username, identity.CredentialHash, identity.Salt,
		identity.PublicKey, identity.PrivateKey, identity.MustChangePassword, identity.IsAdmin,
		formatTime(identity.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Identity{}, model.ErrUsernameTaken
		}
		return model.Identity{}, fmt.Errorf("failed to create identity: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to get identity id: %w", err)
	}
	identity.ID = id
	identity.CreatedAt = identity.CreatedAt.UTC()
	return identity, nil
}

func (r *IdentityRepository) UpdateCredential(ctx context.Context, id int64, credentialHash, salt string, mustChangePassword bool) error {
	query := `UPDATE identities SET credential_hash = ?, salt = ?, must_change_password = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, credentialHash, salt, mustChangePassword, id)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return model.ErrNotFound
	}
	return nil
}
