package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/signvault/internal/credential"
	"github.com/dtroode/signvault/internal/mocks"
	"github.com/dtroode/signvault/internal/model"
)

func accountParams() model.CreateAccountParams {
	return model.CreateAccountParams{
		FirstName:       "John",
		LastName:        "Doe",
		Username:        "jdoe",
		Password:        strongPassword,
		ConfirmPassword: strongPassword,
	}
}

func assignID(id int64) func(context.Context, model.Identity) model.Identity {
	return func(_ context.Context, identity model.Identity) model.Identity {
		identity.ID = id
		return identity
	}
}

func TestIdentity_CreateAccount_Success(t *testing.T) {
	identities := &mocks.IdentityStore{}
	audit := &mocks.AuditStore{}
	s := newTestIdentityService(t, identities, audit)
	keys := testPair(t)

	identities.On("GetByUsername", mock.Anything, "jdoe").Return(model.Identity{}, model.ErrNotFound)
	identities.On("Create", mock.Anything, mock.Anything).Return(assignID(7), nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(e model.AuditEvent) bool {
		return e.Action == model.ActionUserCreated && e.IdentityID == nil && e.Details == "username=jdoe"
	})).Return(echoEvent, nil)

	got, err := s.CreateAccount(context.Background(), accountParams())
	require.NoError(t, err)

	assert.Equal(t, int64(7), got.ID)
	assert.True(t, got.MustChangePassword)
	assert.False(t, got.IsAdmin)
	assert.Equal(t, testSalt, got.Salt)
	assert.Equal(t, keys.Public, got.PublicKey)
	assert.Equal(t, keys.Private, got.PrivateKey)
	assert.Equal(t, credential.Derive(testSalt, strongPassword, keys.Public, keys.Private), got.CredentialHash)
	assert.Equal(t, fixedTime, got.CreatedAt)

	identities.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestIdentity_CreateAccount_Validation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*model.CreateAccountParams)
		mockSetup  func(*mocks.IdentityStore)
		wantReason []string
	}{
		{
			name:       "blank username",
			mutate:     func(p *model.CreateAccountParams) { p.Username = "   " },
			wantReason: []string{model.ReasonUsernameRequired},
		},
		{
			name:       "passwords differ",
			mutate:     func(p *model.CreateAccountParams) { p.ConfirmPassword = "StrongPwd!124" },
			wantReason: []string{model.ReasonPasswordsMismatch},
		},
		{
			name:   "username taken",
			mutate: func(*model.CreateAccountParams) {},
			mockSetup: func(identities *mocks.IdentityStore) {
				identities.On("GetByUsername", mock.Anything, "jdoe").Return(model.Identity{ID: 3, Username: "jdoe"}, nil)
			},
			wantReason: []string{model.ReasonUsernameTaken},
		},
		{
			name: "admin without confirmation",
			mutate: func(p *model.CreateAccountParams) {
				p.PerformedBy = ref(1)
			},
			mockSetup: func(identities *mocks.IdentityStore) {
				identities.On("GetByUsername", mock.Anything, "jdoe").Return(model.Identity{}, model.ErrNotFound)
				identities.On("GetByID", mock.Anything, int64(1)).Return(model.Identity{ID: 1, IsAdmin: true}, nil)
			},
			wantReason: []string{model.ReasonDoubleVerification},
		},
		{
			name: "weak password",
			mutate: func(p *model.CreateAccountParams) {
				p.Password, p.ConfirmPassword = "short", "short"
			},
			mockSetup: func(identities *mocks.IdentityStore) {
				identities.On("GetByUsername", mock.Anything, "jdoe").Return(model.Identity{}, model.ErrNotFound)
			},
			wantReason: []string{
				credential.ViolationLength,
				credential.ViolationUppercase,
				credential.ViolationDigit,
				credential.ViolationSpecial,
			},
		},
		{
			name: "double verification checked before policy",
			mutate: func(p *model.CreateAccountParams) {
				p.Password, p.ConfirmPassword = "short", "short"
				p.PerformedBy = ref(1)
			},
			mockSetup: func(identities *mocks.IdentityStore) {
				identities.On("GetByUsername", mock.Anything, "jdoe").Return(model.Identity{}, model.ErrNotFound)
				identities.On("GetByID", mock.Anything, int64(1)).Return(model.Identity{ID: 1, IsAdmin: true}, nil)
			},
			wantReason: []string{model.ReasonDoubleVerification},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identities := &mocks.IdentityStore{}
			audit := &mocks.AuditStore{}
			if tt.mockSetup != nil {
				tt.mockSetup(identities)
			}
			s := newTestIdentityService(t, identities, audit)

			params := accountParams()
			tt.mutate(&params)

			_, err := s.CreateAccount(context.Background(), params)
			require.Error(t, err)
			assert.Equal(t, tt.wantReason, validationReasons(t, err))

			identities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestIdentity_CreateAccount_AdminConfirmed(t *testing.T) {
	identities := &mocks.IdentityStore{}
	audit := &mocks.AuditStore{}
	s := newTestIdentityService(t, identities, audit)

	identities.On("GetByUsername", mock.Anything, "jdoe").Return(model.Identity{}, model.ErrNotFound)
	identities.On("GetByID", mock.Anything, int64(1)).Return(model.Identity{ID: 1, IsAdmin: true}, nil)
	identities.On("Create", mock.Anything, mock.Anything).Return(assignID(8), nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(e model.AuditEvent) bool {
		return e.Action == model.ActionUserCreated && e.IdentityID != nil && *e.IdentityID == 1
	})).Return(echoEvent, nil)

	params := accountParams()
	params.PerformedBy = ref(1)
	params.AdminDoubleConfirmed = true

	got, err := s.CreateAccount(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(8), got.ID)
	audit.AssertExpectations(t)
}

func TestIdentity_CreateAccount_UnknownPerformer(t *testing.T) {
	identities := &mocks.IdentityStore{}
	audit := &mocks.AuditStore{}
	s := newTestIdentityService(t, identities, audit)

	identities.On("GetByUsername", mock.Anything, "jdoe").Return(model.Identity{}, model.ErrNotFound)
	identities.On("GetByID", mock.Anything, int64(99)).Return(model.Identity{}, model.ErrNotFound)
	identities.On("Create", mock.Anything, mock.Anything).Return(assignID(9), nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(e model.AuditEvent) bool {
		return e.Action == model.ActionUserCreated && e.IdentityID == nil
	})).Return(echoEvent, nil)

	params := accountParams()
	params.PerformedBy = ref(99)

	_, err := s.CreateAccount(context.Background(), params)
	require.NoError(t, err)
	audit.AssertExpectations(t)
}

func TestIdentity_CreateAccount_InsertRace(t *testing.T) {
	identities := &mocks.IdentityStore{}
	audit := &mocks.AuditStore{}
	s := newTestIdentityService(t, identities, audit)

	identities.On("GetByUsername", mock.Anything, "jdoe").Return(model.Identity{}, model.ErrNotFound)
	identities.On("Create", mock.Anything, mock.Anything).Return(model.Identity{}, model.ErrUsernameTaken)

	_, err := s.CreateAccount(context.Background(), accountParams())
	assert.Equal(t, []string{model.ReasonUsernameTaken}, validationReasons(t, err))
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIdentity_CreateAccount_InfrastructureErrors(t *testing.T) {
	t.Run("lookup failure", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		s := newTestIdentityService(t, identities, &mocks.AuditStore{})
		identities.On("GetByUsername", mock.Anything, "jdoe").Return(model.Identity{}, errBoom)

		_, err := s.CreateAccount(context.Background(), accountParams())
		assert.ErrorIs(t, err, model.ErrPersistence)
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("key generation failure", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		s := newTestIdentityService(t, identities, &mocks.AuditStore{})
		s.provisioner.generator = fixedGenerator{err: errBoom}
		identities.On("GetByUsername", mock.Anything, "jdoe").Return(model.Identity{}, model.ErrNotFound)

		_, err := s.CreateAccount(context.Background(), accountParams())
		assert.ErrorIs(t, err, model.ErrCrypto)
		identities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("insert failure", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		s := newTestIdentityService(t, identities, &mocks.AuditStore{})
		identities.On("GetByUsername", mock.Anything, "jdoe").Return(model.Identity{}, model.ErrNotFound)
		identities.On("Create", mock.Anything, mock.Anything).Return(model.Identity{}, errBoom)

		_, err := s.CreateAccount(context.Background(), accountParams())
		assert.ErrorIs(t, err, model.ErrPersistence)
		var verr *model.ValidationError
		assert.False(t, errors.As(err, &verr))
	})

	t.Run("audit failure returns the persisted identity", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		audit := &mocks.AuditStore{}
		s := newTestIdentityService(t, identities, audit)
		identities.On("GetByUsername", mock.Anything, "jdoe").Return(model.Identity{}, model.ErrNotFound)
		identities.On("Create", mock.Anything, mock.Anything).Return(assignID(5), nil)
		audit.On("Create", mock.Anything, mock.Anything).Return(model.AuditEvent{}, errBoom)

		got, err := s.CreateAccount(context.Background(), accountParams())
		assert.ErrorIs(t, err, model.ErrPersistence)
		assert.Equal(t, int64(5), got.ID)
	})
}

func TestIdentity_BootstrapAdmin(t *testing.T) {
	t.Run("creates admin", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		audit := &mocks.AuditStore{}
		s := newTestIdentityService(t, identities, audit)

		identities.On("GetByUsername", mock.Anything, model.AdminUsername).Return(model.Identity{}, model.ErrNotFound)
		identities.On("Create", mock.Anything, mock.MatchedBy(func(i model.Identity) bool {
			return i.Username == model.AdminUsername && i.IsAdmin && !i.MustChangePassword
		})).Return(assignID(1), nil)
		audit.On("Create", mock.Anything, mock.MatchedBy(auditAction(model.ActionAdminBootstrapped))).Return(echoEvent, nil)

		admin, created, err := s.BootstrapAdmin(context.Background(), "Adm1n!Default#")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, int64(1), admin.ID)
		assert.Equal(t, "System", admin.FirstName)
		assert.Equal(t, "Administrator", admin.LastName)
		assert.Equal(t, credential.Derive(testSalt, "Adm1n!Default#", admin.PublicKey, admin.PrivateKey), admin.CredentialHash)
		identities.AssertExpectations(t)
		audit.AssertExpectations(t)
	})

	t.Run("existing admin is a no-op", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		audit := &mocks.AuditStore{}
		s := newTestIdentityService(t, identities, audit)

		identities.On("GetByUsername", mock.Anything, model.AdminUsername).Return(model.Identity{ID: 1, Username: model.AdminUsername, IsAdmin: true}, nil)

		admin, created, err := s.BootstrapAdmin(context.Background(), "Adm1n!Default#")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, int64(1), admin.ID)
		identities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("concurrent bootstrap", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		s := newTestIdentityService(t, identities, &mocks.AuditStore{})

		identities.On("GetByUsername", mock.Anything, model.AdminUsername).Return(model.Identity{}, model.ErrNotFound).Once()
		identities.On("Create", mock.Anything, mock.Anything).Return(model.Identity{}, model.ErrUsernameTaken)
		identities.On("GetByUsername", mock.Anything, model.AdminUsername).Return(model.Identity{ID: 2, Username: model.AdminUsername}, nil).Once()

		admin, created, err := s.BootstrapAdmin(context.Background(), "Adm1n!Default#")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, int64(2), admin.ID)
	})

	t.Run("failures wrap bootstrap error", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		s := newTestIdentityService(t, identities, &mocks.AuditStore{})
		s.provisioner.generator = fixedGenerator{err: errBoom}

		identities.On("GetByUsername", mock.Anything, model.AdminUsername).Return(model.Identity{}, model.ErrNotFound)

		_, created, err := s.BootstrapAdmin(context.Background(), "Adm1n!Default#")
		assert.False(t, created)
		assert.ErrorIs(t, err, model.ErrBootstrap)
		assert.ErrorIs(t, err, model.ErrCrypto)
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("store unreachable", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		s := newTestIdentityService(t, identities, &mocks.AuditStore{})

		identities.On("GetByUsername", mock.Anything, model.AdminUsername).Return(model.Identity{}, errBoom)

		_, _, err := s.BootstrapAdmin(context.Background(), "Adm1n!Default#")
		assert.ErrorIs(t, err, model.ErrBootstrap)
		assert.ErrorIs(t, err, model.ErrPersistence)
	})
}

func TestIdentity_ChangePasswordFirstLogin(t *testing.T) {
	const newPassword = "NewStrongPwd#456"

	flagged := func(t *testing.T) model.Identity {
		keys := testPair(t)
		return model.Identity{
			ID:                 4,
			Username:           "jdoe",
			Salt:               "b2xkc2FsdA==",
			CredentialHash:     "old",
			PublicKey:          keys.Public,
			PrivateKey:         keys.Private,
			MustChangePassword: true,
		}
	}

	t.Run("success", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		audit := &mocks.AuditStore{}
		s := newTestIdentityService(t, identities, audit)
		identity := flagged(t)
		wantHash := credential.Derive(testSalt, newPassword, identity.PublicKey, identity.PrivateKey)

		identities.On("GetByID", mock.Anything, int64(4)).Return(identity, nil)
		identities.On("UpdateCredential", mock.Anything, int64(4), wantHash, testSalt, false).Return(nil)
		audit.On("Create", mock.Anything, mock.MatchedBy(auditAction(model.ActionPasswordChanged))).Return(echoEvent, nil)

		require.NoError(t, s.ChangePasswordFirstLogin(context.Background(), 4, newPassword))
		identities.AssertExpectations(t)
		audit.AssertExpectations(t)
	})

	t.Run("unknown identity", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		s := newTestIdentityService(t, identities, &mocks.AuditStore{})
		identities.On("GetByID", mock.Anything, int64(4)).Return(model.Identity{}, model.ErrNotFound)

		err := s.ChangePasswordFirstLogin(context.Background(), 4, newPassword)
		assert.Equal(t, []string{model.ReasonUserNotFound}, validationReasons(t, err))
	})

	t.Run("change not required", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		s := newTestIdentityService(t, identities, &mocks.AuditStore{})
		identity := flagged(t)
		identity.MustChangePassword = false
		identities.On("GetByID", mock.Anything, int64(4)).Return(identity, nil)

		err := s.ChangePasswordFirstLogin(context.Background(), 4, newPassword)
		assert.Equal(t, []string{model.ReasonChangeNotRequired}, validationReasons(t, err))
		identities.AssertNotCalled(t, "UpdateCredential", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("weak password", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		s := newTestIdentityService(t, identities, &mocks.AuditStore{})
		identities.On("GetByID", mock.Anything, int64(4)).Return(flagged(t), nil)

		err := s.ChangePasswordFirstLogin(context.Background(), 4, "alllowercase")
		assert.Contains(t, validationReasons(t, err), credential.ViolationUppercase)
	})

	t.Run("update failure", func(t *testing.T) {
		identities := &mocks.IdentityStore{}
		s := newTestIdentityService(t, identities, &mocks.AuditStore{})
		identities.On("GetByID", mock.Anything, int64(4)).Return(flagged(t), nil)
		identities.On("UpdateCredential", mock.Anything, int64(4), mock.Anything, mock.Anything, false).Return(errBoom)

		err := s.ChangePasswordFirstLogin(context.Background(), 4, newPassword)
		assert.ErrorIs(t, err, model.ErrPersistence)
	})
}

func TestIdentity_AuditLog(t *testing.T) {
	failure := model.AuditEvent{ID: 1, Action: model.ActionLoginFailure, Details: detailUnknownUser}

	t.Run("admin sees unattributed events", func(t *testing.T) {
		audit := &mocks.AuditStore{}
		s := newTestIdentityService(t, &mocks.IdentityStore{}, audit)
		audit.On("List", mock.Anything).Return([]model.AuditEvent{failure}, nil)

		events, err := s.AuditLog(context.Background(), model.Identity{ID: 1, IsAdmin: true})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Nil(t, events[0].IdentityID)
		assert.Equal(t, detailUnknownUser, events[0].Details)
		audit.AssertExpectations(t)
	})

	t.Run("regular user rejected", func(t *testing.T) {
		audit := &mocks.AuditStore{}
		s := newTestIdentityService(t, &mocks.IdentityStore{}, audit)

		_, err := s.AuditLog(context.Background(), model.Identity{ID: 2})
		assert.Equal(t, []string{model.ReasonAdminRequired}, validationReasons(t, err))
		audit.AssertNotCalled(t, "List", mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		audit := &mocks.AuditStore{}
		s := newTestIdentityService(t, &mocks.IdentityStore{}, audit)
		audit.On("List", mock.Anything).Return(nil, errBoom)

		_, err := s.AuditLog(context.Background(), model.Identity{ID: 1, IsAdmin: true})
		assert.ErrorIs(t, err, model.ErrPersistence)
		assert.ErrorIs(t, err, errBoom)
	})
}
