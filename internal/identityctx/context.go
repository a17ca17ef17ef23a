package identityctx

import (
	"context"

	"github.com/dtroode/signvault/internal/model"
)

type identityKey struct{}

// Manager carries the authenticated identity on a context.
// It implements model.ContextManager.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetIdentityToContext returns a copy of ctx carrying identity.
// Key material is stripped so it does not travel further than the service that needs it.
func (m *Manager) SetIdentityToContext(ctx context.Context, identity model.Identity) context.Context {
	identity.PrivateKey = ""
	identity.CredentialHash = ""
	identity.Salt = ""
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentityFromContext retrieves the identity stored by SetIdentityToContext.
func (m *Manager) GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(model.Identity)
	if !ok || identity.ID == 0 {
		return model.Identity{}, false
	}
	return identity, true
}
