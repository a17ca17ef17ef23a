package service_test

import (
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/signvault/internal/keystore"
	"github.com/dtroode/signvault/internal/model"
	"github.com/dtroode/signvault/internal/repository/sqlite"
	"github.com/dtroode/signvault/internal/service"
	"github.com/dtroode/signvault/internal/storage/local"
	"github.com/dtroode/signvault/internal/testutil"
)

type harness struct {
	identity *service.Identity
	auth     *service.Auth
	file     *service.File
	audit    *sqlite.AuditRepository
	fs       afero.Fs
}

func newHarness(t *testing.T) harness {
	t.Helper()

	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	identities := sqlite.NewIdentityRepository(db)
	signatures := sqlite.NewSignatureRepository(db)
	audit := sqlite.NewAuditRepository(db)
	fs := afero.NewMemMapFs()
	keys := keystore.NewRecord()
	log := testutil.MakeNoopLogger()

	return harness{
		identity: service.NewIdentity(identities, audit, keys, log),
		auth:     service.NewAuth(identities, audit, keys, log),
		file:     service.NewFile(signatures, identities, audit, local.NewWithFs(fs), keys, log),
		audit:    audit,
		fs:       fs,
	}
}

func TestScenario_SignVerifyTamper(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	admin, created, err := h.identity.BootstrapAdmin(ctx, "Adm1n!Default#")
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := h.identity.BootstrapAdmin(ctx, "Adm1n!Default#")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)

	_, err = h.identity.CreateAccount(ctx, model.CreateAccountParams{
		FirstName:       "John",
		LastName:        "Doe",
		Username:        "jdoe",
		Password:        "StrongPwd!123",
		ConfirmPassword: "StrongPwd!123",
	})
	require.NoError(t, err)

	jdoe, err := h.auth.Authenticate(ctx, "jdoe", "StrongPwd!123")
	require.NoError(t, err)
	require.NotNil(t, jdoe)
	assert.True(t, jdoe.MustChangePassword)

	failed, err := h.auth.Authenticate(ctx, "jdoe", "WrongPwd!1234")
	require.NoError(t, err)
	assert.Nil(t, failed)

	require.NoError(t, h.identity.ChangePasswordFirstLogin(ctx, jdoe.ID, "NewStrongPwd#456"))

	stale, err := h.auth.Authenticate(ctx, "jdoe", "StrongPwd!123")
	require.NoError(t, err)
	assert.Nil(t, stale)

	jdoe, err = h.auth.Authenticate(ctx, "jdoe", "NewStrongPwd#456")
	require.NoError(t, err)
	require.NotNil(t, jdoe)
	assert.False(t, jdoe.MustChangePassword)

	record, err := h.file.SignAndStore(ctx, []byte("hello"), "report.txt", *jdoe)
	require.NoError(t, err)
	assert.Equal(t, model.SignatureStatusCommitted, record.Status)

	verdict, err := h.file.Verify(ctx, record.ID, *jdoe)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictIntact, verdict)

	rc, _, err := h.file.Open(ctx, record.ID, *jdoe)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	tampered := []byte("hello")
	tampered[0] ^= 0x01
	require.NoError(t, afero.WriteFile(h.fs, "report.txt", tampered, 0o640))

	verdict, err = h.file.Verify(ctx, record.ID, *jdoe)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictTampered, verdict)

	require.NoError(t, h.fs.Remove("report.txt"))
	verdict, err = h.file.Verify(ctx, record.ID, *jdoe)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictFileMissing, verdict)

	listings, err := h.file.List(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "jdoe", listings[0].SignerUsername)

	pending, err := h.file.Pending(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	history, err := h.identity.History(ctx, jdoe.ID)
	require.NoError(t, err)
	var actions []model.Action
	for _, e := range history {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []model.Action{
		model.ActionLoginSuccess,
		model.ActionLoginFailure,
		model.ActionPasswordChanged,
		model.ActionLoginFailure,
		model.ActionLoginSuccess,
		model.ActionFileUpload,
		model.ActionFileVerified,
		model.ActionFileDownload,
		model.ActionFileVerified,
		model.ActionFileVerified,
	}, actions)
}

func TestScenario_UnknownUserAudit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	got, err := h.auth.Authenticate(ctx, "ghost", "Whatever!1234")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = h.identity.CreateAccount(ctx, model.CreateAccountParams{
		Username:        "ghost",
		Password:        "short",
		ConfirmPassword: "short",
	})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Reasons, 4)

	stored, err := h.audit.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, model.ActionLoginFailure, stored[0].Action)
	assert.Equal(t, "unknown user", stored[0].Details)
	assert.Nil(t, stored[0].IdentityID)

	admin, _, err := h.identity.BootstrapAdmin(ctx, "Adm1n!Default#")
	require.NoError(t, err)

	events, err := h.identity.AuditLog(ctx, admin)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Nil(t, events[0].IdentityID)
	assert.Equal(t, model.ActionAdminBootstrapped, events[1].Action)
}
