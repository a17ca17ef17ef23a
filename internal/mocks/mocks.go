// Package mocks holds testify mocks of the model interfaces, one type per interface.
package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/signvault/internal/model"
)

var (
	_ model.IdentityStore  = (*IdentityStore)(nil)
	_ model.SignatureStore = (*SignatureStore)(nil)
	_ model.AuditStore     = (*AuditStore)(nil)
	_ model.Storage        = (*Storage)(nil)
	_ model.TokenManager   = (*TokenManager)(nil)
)

// IdentityStore is a mock of model.IdentityStore.
type IdentityStore struct {
	mock.Mock
}

func (_m *IdentityStore) GetByID(ctx context.Context, id int64) (model.Identity, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(model.Identity), ret.Error(1)
}

func (_m *IdentityStore) GetByUsername(ctx context.Context, username string) (model.Identity, error) {
	ret := _m.Called(ctx, username)
	return ret.Get(0).(model.Identity), ret.Error(1)
}

func (_m *IdentityStore) Create(ctx context.Context, identity model.Identity) (model.Identity, error) {
	ret := _m.Called(ctx, identity)
	if rf, ok := ret.Get(0).(func(context.Context, model.Identity) model.Identity); ok {
		return rf(ctx, identity), ret.Error(1)
	}
	return ret.Get(0).(model.Identity), ret.Error(1)
}

func (_m *IdentityStore) UpdateCredential(ctx context.Context, id int64, credentialHash, salt string, mustChangePassword bool) error {
	ret := _m.Called(ctx, id, credentialHash, salt, mustChangePassword)
	return ret.Error(0)
}

// SignatureStore is a mock of model.SignatureStore.
type SignatureStore struct {
	mock.Mock
}

func (_m *SignatureStore) CreatePending(ctx context.Context, record model.SignatureRecord) (model.SignatureRecord, error) {
	ret := _m.Called(ctx, record)
	if rf, ok := ret.Get(0).(func(context.Context, model.SignatureRecord) model.SignatureRecord); ok {
		return rf(ctx, record), ret.Error(1)
	}
	return ret.Get(0).(model.SignatureRecord), ret.Error(1)
}

func (_m *SignatureStore) Commit(ctx context.Context, id int64) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

func (_m *SignatureStore) GetByID(ctx context.Context, id int64) (model.SignatureRecord, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(model.SignatureRecord), ret.Error(1)
}

func (_m *SignatureStore) List(ctx context.Context) ([]model.SignatureListing, error) {
	ret := _m.Called(ctx)
	listings, _ := ret.Get(0).([]model.SignatureListing)
	return listings, ret.Error(1)
}

func (_m *SignatureStore) ListPending(ctx context.Context, createdBefore time.Time) ([]model.SignatureRecord, error) {
	ret := _m.Called(ctx, createdBefore)
	records, _ := ret.Get(0).([]model.SignatureRecord)
	return records, ret.Error(1)
}

// AuditStore is a mock of model.AuditStore.
type AuditStore struct {
	mock.Mock
}

func (_m *AuditStore) Create(ctx context.Context, event model.AuditEvent) (model.AuditEvent, error) {
	ret := _m.Called(ctx, event)
	if rf, ok := ret.Get(0).(func(context.Context, model.AuditEvent) model.AuditEvent); ok {
		return rf(ctx, event), ret.Error(1)
	}
	return ret.Get(0).(model.AuditEvent), ret.Error(1)
}

func (_m *AuditStore) ListByIdentity(ctx context.Context, identityID int64) ([]model.AuditEvent, error) {
	ret := _m.Called(ctx, identityID)
	events, _ := ret.Get(0).([]model.AuditEvent)
	return events, ret.Error(1)
}

func (_m *AuditStore) List(ctx context.Context) ([]model.AuditEvent, error) {
	ret := _m.Called(ctx)
	events, _ := ret.Get(0).([]model.AuditEvent)
	return events, ret.Error(1)
}

// Storage is a mock of model.Storage.
type Storage struct {
	mock.Mock
}

func (_m *Storage) Write(ctx context.Context, name string, reader io.Reader) error {
	ret := _m.Called(ctx, name, reader)
	return ret.Error(0)
}

func (_m *Storage) Read(ctx context.Context, name string) (io.ReadCloser, error) {
	ret := _m.Called(ctx, name)
	rc, _ := ret.Get(0).(io.ReadCloser)
	return rc, ret.Error(1)
}

func (_m *Storage) Exists(ctx context.Context, name string) (bool, error) {
	ret := _m.Called(ctx, name)
	return ret.Bool(0), ret.Error(1)
}

// TokenManager is a mock of model.TokenManager.
type TokenManager struct {
	mock.Mock
}

func (_m *TokenManager) GenerateSessionToken(identityID int64) (string, error) {
	ret := _m.Called(identityID)
	return ret.String(0), ret.Error(1)
}

func (_m *TokenManager) ParseSessionToken(token string) (int64, error) {
	ret := _m.Called(token)
	return ret.Get(0).(int64), ret.Error(1)
}
