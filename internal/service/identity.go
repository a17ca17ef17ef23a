package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/signvault/internal/credential"
	"github.com/dtroode/signvault/internal/keypair"
	"github.com/dtroode/signvault/internal/logger"
	"github.com/dtroode/signvault/internal/model"
)

// Identity manages the account lifecycle: admin bootstrap, account creation
// and the first-login password change.
type Identity struct {
	identities  model.IdentityStore
	keys        model.KeyStore
	auditor     auditor
	provisioner provisioner
	logger      *logger.Logger
	now         func() time.Time
}

func NewIdentity(
	identities model.IdentityStore,
	audit model.AuditStore,
	keys model.KeyStore,
	logger *logger.Logger,
) *Identity {
	return &Identity{
		identities: identities,
		keys:       keys,
		auditor:    auditor{store: audit, now: time.Now},
		provisioner: provisioner{
			keys:      keys,
			generator: keypair.NewGenerator(),
			salt:      credential.GenerateSalt,
		},
		logger: logger,
		now:    time.Now,
	}
}

// BootstrapAdmin creates the reserved admin identity unless it already exists.
// It reports whether an identity was created. Errors wrap model.ErrBootstrap;
// callers are expected to log them and carry on without an admin.
func (s *Identity) BootstrapAdmin(ctx context.Context, defaultPassword string) (model.Identity, bool, error) {
	s.logger.Debug("Identity service: bootstrapping admin")

	existing, err := s.identities.GetByUsername(ctx, model.AdminUsername)
	if err == nil {
		s.logger.Debug("Identity service: admin already present", "identity_id", existing.ID)
		return existing, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, false, fmt.Errorf("%w: %w: failed to look up admin: %w", model.ErrBootstrap, model.ErrPersistence, err)
	}

	admin := model.Identity{
		FirstName:          "System",
		LastName:           "Administrator",
		Username:           model.AdminUsername,
		MustChangePassword: false,
		IsAdmin:            true,
		CreatedAt:          s.now().UTC(),
	}
	if err := s.provisioner.provision(ctx, &admin, defaultPassword); err != nil {
		return model.Identity{}, false, fmt.Errorf("%w: %w", model.ErrBootstrap, err)
	}

	saved, err := s.identities.Create(ctx, admin)
	if errors.Is(err, model.ErrUsernameTaken) {
		// Another process bootstrapped first.
		existing, err := s.identities.GetByUsername(ctx, model.AdminUsername)
		if err != nil {
			return model.Identity{}, false, fmt.Errorf("%w: %w: failed to look up admin: %w", model.ErrBootstrap, model.ErrPersistence, err)
		}
		return existing, false, nil
	}
	if err != nil {
		return model.Identity{}, false, fmt.Errorf("%w: %w: failed to create admin: %w", model.ErrBootstrap, model.ErrPersistence, err)
	}

	if err := s.auditor.record(ctx, ref(saved.ID), model.ActionAdminBootstrapped, "", uuid.New()); err != nil {
		return saved, true, fmt.Errorf("%w: %w: %w", model.ErrBootstrap, model.ErrPersistence, err)
	}

	s.logger.Info("Identity service: admin bootstrapped", "identity_id", saved.ID)
	return saved, true, nil
}

// CreateAccount validates params and persists a new non-admin identity that
// must change its password on first login.
//
// When PerformedBy names an admin, AdminDoubleConfirmed must be set.
// A PerformedBy that does not resolve is treated as self-registration.
// If only the audit write fails, the persisted identity is returned with the error.
func (s *Identity) CreateAccount(ctx context.Context, params model.CreateAccountParams) (model.Identity, error) {
	s.logger.Debug("Identity service: creating account", "username", params.Username)

	if strings.TrimSpace(params.Username) == "" {
		return model.Identity{}, model.NewValidationError(model.ReasonUsernameRequired)
	}
	if params.Password != params.ConfirmPassword {
		return model.Identity{}, model.NewValidationError(model.ReasonPasswordsMismatch)
	}

	_, err := s.identities.GetByUsername(ctx, params.Username)
	if err == nil {
		s.logger.Warn("Identity service: username already exists", "username", params.Username)
		return model.Identity{}, model.NewValidationError(model.ReasonUsernameTaken)
	}
	if !errors.Is(err, model.ErrNotFound) {
		s.logger.Error("Identity service: failed to look up username", "error", err)
		return model.Identity{}, fmt.Errorf("%w: failed to look up username: %w", model.ErrPersistence, err)
	}

	performedBy, err := s.resolvePerformer(ctx, params.PerformedBy)
	if err != nil {
		return model.Identity{}, err
	}
	if performedBy != nil && performedBy.IsAdmin && !params.AdminDoubleConfirmed {
		s.logger.Warn("Identity service: admin confirmation required", "performed_by", performedBy.ID)
		return model.Identity{}, model.NewValidationError(model.ReasonDoubleVerification)
	}

	if err := credential.ValidatePassword(params.Password); err != nil {
		return model.Identity{}, err
	}

	identity := model.Identity{
		FirstName:          params.FirstName,
		LastName:           params.LastName,
		Username:           params.Username,
		MustChangePassword: true,
		IsAdmin:            false,
		CreatedAt:          s.now().UTC(),
	}
	if err := s.provisioner.provision(ctx, &identity, params.Password); err != nil {
		s.logger.Error("Identity service: failed to provision credentials", "error", err)
		return model.Identity{}, err
	}

	saved, err := s.identities.Create(ctx, identity)
	if errors.Is(err, model.ErrUsernameTaken) {
		return model.Identity{}, model.NewValidationError(model.ReasonUsernameTaken)
	}
	if err != nil {
		s.logger.Error("Identity service: failed to create identity", "error", err)
		return model.Identity{}, fmt.Errorf("%w: failed to create identity: %w", model.ErrPersistence, err)
	}

	var actor *int64
	if performedBy != nil {
		actor = ref(performedBy.ID)
	}
	details := fmt.Sprintf("username=%s", saved.Username)
	if err := s.auditor.record(ctx, actor, model.ActionUserCreated, details, uuid.New()); err != nil {
		s.logger.Error("Identity service: failed to audit account creation", "error", err)
		return saved, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	s.logger.Info("Identity service: account created", "identity_id", saved.ID, "username", saved.Username)
	return saved, nil
}

func (s *Identity) resolvePerformer(ctx context.Context, id *int64) (*model.Identity, error) {
	if id == nil {
		return nil, nil
	}
	performer, err := s.identities.GetByID(ctx, *id)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Warn("Identity service: performer not found, treating as self-registration", "performed_by", *id)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up performer: %w", model.ErrPersistence, err)
	}
	return &performer, nil
}

// ChangePasswordFirstLogin replaces the initial password of an identity that
// is flagged to change it. The key pair is kept; salt and hash are renewed.
func (s *Identity) ChangePasswordFirstLogin(ctx context.Context, identityID int64, newPassword string) error {
	s.logger.Debug("Identity service: changing password on first login", "identity_id", identityID)

	identity, err := s.identities.GetByID(ctx, identityID)
	if errors.Is(err, model.ErrNotFound) {
		return model.NewValidationError(model.ReasonUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to get identity: %w", model.ErrPersistence, err)
	}
	if !identity.MustChangePassword {
		return model.NewValidationError(model.ReasonChangeNotRequired)
	}

	if err := credential.ValidatePassword(newPassword); err != nil {
		return err
	}

	salt, err := s.provisioner.salt(credential.SaltLength)
	if err != nil {
		return fmt.Errorf("%w: failed to generate salt: %w", model.ErrCrypto, err)
	}
	hash, err := derive(ctx, s.keys, identity, salt, newPassword)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrCrypto, err)
	}

	if err := s.identities.UpdateCredential(ctx, identity.ID, hash, salt, false); err != nil {
		s.logger.Error("Identity service: failed to update credential", "error", err)
		return fmt.Errorf("%w: failed to update credential: %w", model.ErrPersistence, err)
	}

	if err := s.auditor.record(ctx, ref(identity.ID), model.ActionPasswordChanged, "", uuid.New()); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	s.logger.Info("Identity service: password changed", "identity_id", identity.ID)
	return nil
}

// History returns the audit events attributed to identityID, oldest first.
func (s *Identity) History(ctx context.Context, identityID int64) ([]model.AuditEvent, error) {
	return s.auditor.history(ctx, identityID)
}

// AuditLog returns every audit event, including login failures for unknown
// users. Only administrators may read it.
func (s *Identity) AuditLog(ctx context.Context, requester model.Identity) ([]model.AuditEvent, error) {
	if !requester.IsAdmin {
		s.logger.Warn("Identity service: audit log denied", "identity_id", requester.ID)
		return nil, model.NewValidationError(model.ReasonAdminRequired)
	}
	return s.auditor.all(ctx)
}
