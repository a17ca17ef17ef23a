package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/signvault/internal/mocks"
	"github.com/dtroode/signvault/internal/model"
	"github.com/dtroode/signvault/internal/testutil"
	"github.com/dtroode/signvault/internal/token"
)

func TestSession_Issue(t *testing.T) {
	manager := &mocks.TokenManager{}
	s := NewSession(manager, &mocks.IdentityStore{}, testutil.MakeNoopLogger())

	manager.On("GenerateSessionToken", int64(3)).Return("tok", nil).Once()
	got, err := s.Issue(model.Identity{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	manager.On("GenerateSessionToken", int64(4)).Return("", errBoom)
	_, err = s.Issue(model.Identity{ID: 4})
	assert.ErrorIs(t, err, errBoom)
}

func TestSession_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		mockSetup func(*mocks.TokenManager, *mocks.IdentityStore)
		wantID    int64
		wantErr   error
	}{
		{
			name:  "valid token",
			token: "tok",
			mockSetup: func(manager *mocks.TokenManager, identities *mocks.IdentityStore) {
				manager.On("ParseSessionToken", "tok").Return(int64(3), nil)
				identities.On("GetByID", mock.Anything, int64(3)).Return(model.Identity{ID: 3, Username: "jdoe"}, nil)
			},
			wantID: 3,
		},
		{
			name:      "empty token",
			token:     "",
			mockSetup: func(*mocks.TokenManager, *mocks.IdentityStore) {},
			wantErr:   ErrInvalidSession,
		},
		{
			name:  "rejected token",
			token: "bad",
			mockSetup: func(manager *mocks.TokenManager, _ *mocks.IdentityStore) {
				manager.On("ParseSessionToken", "bad").Return(int64(0), token.ErrInvalidToken)
			},
			wantErr: ErrInvalidSession,
		},
		{
			name:  "identity removed",
			token: "tok",
			mockSetup: func(manager *mocks.TokenManager, identities *mocks.IdentityStore) {
				manager.On("ParseSessionToken", "tok").Return(int64(3), nil)
				identities.On("GetByID", mock.Anything, int64(3)).Return(model.Identity{}, model.ErrNotFound)
			},
			wantErr: ErrInvalidSession,
		},
		{
			name:  "store failure",
			token: "tok",
			mockSetup: func(manager *mocks.TokenManager, identities *mocks.IdentityStore) {
				manager.On("ParseSessionToken", "tok").Return(int64(3), nil)
				identities.On("GetByID", mock.Anything, int64(3)).Return(model.Identity{}, errBoom)
			},
			wantErr: model.ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := &mocks.TokenManager{}
			identities := &mocks.IdentityStore{}
			tt.mockSetup(manager, identities)
			s := NewSession(manager, identities, testutil.MakeNoopLogger())

			got, err := s.Resolve(context.Background(), tt.token)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}
