package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/signvault/internal/logger"
	"github.com/dtroode/signvault/internal/model"
)

// ErrInvalidSession is returned when a session token does not resolve to an identity.
var ErrInvalidSession = errors.New("invalid or expired session")

// Session issues session tokens after authentication and resolves them back
// to the current identity. It replaces any process-wide "current user".
type Session struct {
	manager    model.TokenManager
	identities model.IdentityStore
	logger     *logger.Logger
}

func NewSession(manager model.TokenManager, identities model.IdentityStore, logger *logger.Logger) *Session {
	return &Session{manager: manager, identities: identities, logger: logger}
}

func (s *Session) Issue(identity model.Identity) (string, error) {
	token, err := s.manager.GenerateSessionToken(identity.ID)
	if err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}
	return token, nil
}

// Resolve returns the current state of the identity named by token.
func (s *Session) Resolve(ctx context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, ErrInvalidSession
	}

	identityID, err := s.manager.ParseSessionToken(token)
	if err != nil {
		s.logger.Debug("Session service: rejected token", "error", err)
		return model.Identity{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	identity, err := s.identities.GetByID(ctx, identityID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, fmt.Errorf("%w: identity %d no longer exists", ErrInvalidSession, identityID)
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: failed to get identity: %w", model.ErrPersistence, err)
	}

	return identity, nil
}
