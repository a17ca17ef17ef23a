package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/signvault/internal/credential"
	"github.com/dtroode/signvault/internal/logger"
	"github.com/dtroode/signvault/internal/model"
)

// Audit details distinguishing login failures for operators.
const (
	detailUnknownUser = "unknown user"
	detailBadPassword = "bad password"
)

type Auth struct {
	identities model.IdentityStore
	keys       model.KeyStore
	auditor    auditor
	logger     *logger.Logger
}

func NewAuth(
	identities model.IdentityStore,
	audit model.AuditStore,
	keys model.KeyStore,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		identities: identities,
		keys:       keys,
		auditor:    auditor{store: audit, now: time.Now},
		logger:     logger,
	}
}

// Authenticate checks password against the stored credential of username.
// Wrong credentials yield (nil, nil); only infrastructure failures are errors,
// and those wrap model.ErrAuthInfrastructure.
func (a *Auth) Authenticate(ctx context.Context, username, password string) (*model.Identity, error) {
	a.logger.Debug("Auth service: authenticating", "username", username)
	operationID := uuid.New()

	identity, err := a.identities.GetByUsername(ctx, username)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Info("Auth service: login failed", "reason", detailUnknownUser)
		if err := a.auditor.record(ctx, nil, model.ActionLoginFailure, detailUnknownUser, operationID); err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrAuthInfrastructure, err)
		}
		return nil, nil
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get identity by username", "error", err)
		return nil, fmt.Errorf("%w: failed to get identity: %w", model.ErrAuthInfrastructure, err)
	}

	derived, err := derive(ctx, a.keys, identity, identity.Salt, password)
	if err != nil {
		a.logger.Error("Auth service: failed to derive credential", "identity_id", identity.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", model.ErrAuthInfrastructure, err)
	}

	if !credential.Matches(identity.CredentialHash, derived) {
		a.logger.Info("Auth service: login failed", "identity_id", identity.ID, "reason", detailBadPassword)
		if err := a.auditor.record(ctx, ref(identity.ID), model.ActionLoginFailure, detailBadPassword, operationID); err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrAuthInfrastructure, err)
		}
		return nil, nil
	}

	if err := a.auditor.record(ctx, ref(identity.ID), model.ActionLoginSuccess, "", operationID); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrAuthInfrastructure, err)
	}

	a.logger.Info("Auth service: login succeeded", "identity_id", identity.ID)
	return &identity, nil
}

// Logout records the end of a session for identityID.
// Session tokens are stateless; they stay valid until they expire.
func (a *Auth) Logout(ctx context.Context, identityID int64) error {
	if err := a.auditor.record(ctx, ref(identityID), model.ActionLogout, "", uuid.New()); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	a.logger.Info("Auth service: logged out", "identity_id", identityID)
	return nil
}
