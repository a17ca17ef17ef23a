package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dtroode/signvault/internal/keypair"
	"github.com/dtroode/signvault/internal/keystore"
	"github.com/dtroode/signvault/internal/mocks"
	"github.com/dtroode/signvault/internal/model"
	"github.com/dtroode/signvault/internal/testutil"
)

const strongPassword = "StrongPwd!123"

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

var (
	pairOnce sync.Once
	pair     keypair.Encoded
	pairErr  error
)

// testPair returns one RSA key pair shared by the package tests.
func testPair(t *testing.T) keypair.Encoded {
	t.Helper()
	pairOnce.Do(func() {
		pair, pairErr = keypair.NewGenerator().GenerateEncoded()
	})
	require.NoError(t, pairErr)
	return pair
}

type fixedGenerator struct {
	pair keypair.Encoded
	err  error
}

func (g fixedGenerator) GenerateEncoded() (keypair.Encoded, error) {
	return g.pair, g.err
}

const testSalt = "c2FsdHNhbHRzYWx0c2FsdA=="

func fixedSalt(int) (string, error) { return testSalt, nil }

var errBoom = errors.New("boom")

func newTestIdentityService(t *testing.T, identities *mocks.IdentityStore, audit *mocks.AuditStore) *Identity {
	t.Helper()
	s := NewIdentity(identities, audit, keystore.NewRecord(), testutil.MakeNoopLogger())
	s.provisioner.generator = fixedGenerator{pair: testPair(t)}
	s.provisioner.salt = fixedSalt
	s.now = fixedNow
	s.auditor.now = fixedNow
	return s
}

func newTestAuthService(identities *mocks.IdentityStore, audit *mocks.AuditStore) *Auth {
	a := NewAuth(identities, audit, keystore.NewRecord(), testutil.MakeNoopLogger())
	a.auditor.now = fixedNow
	return a
}

func newTestFileService(
	signatures *mocks.SignatureStore,
	identities *mocks.IdentityStore,
	audit *mocks.AuditStore,
	storage *mocks.Storage,
) *File {
	f := NewFile(signatures, identities, audit, storage, keystore.NewRecord(), testutil.MakeNoopLogger())
	f.now = fixedNow
	f.auditor.now = fixedNow
	return f
}

// auditAction matches an audit event by action for mock expectations.
func auditAction(action model.Action) func(model.AuditEvent) bool {
	return func(e model.AuditEvent) bool { return e.Action == action }
}

// echoEvent returns the event passed to AuditStore.Create.
func echoEvent(_ context.Context, e model.AuditEvent) model.AuditEvent { return e }

func validationReasons(t *testing.T, err error) []string {
	t.Helper()
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Reasons
}
