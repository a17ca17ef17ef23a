package cli

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/afero"

	"github.com/dtroode/signvault/internal/config"
	"github.com/dtroode/signvault/internal/identityctx"
	"github.com/dtroode/signvault/internal/keystore"
	"github.com/dtroode/signvault/internal/logger"
	"github.com/dtroode/signvault/internal/model"
	"github.com/dtroode/signvault/internal/repository/postgres"
	"github.com/dtroode/signvault/internal/repository/sqlite"
	"github.com/dtroode/signvault/internal/service"
	"github.com/dtroode/signvault/internal/storage/local"
	miniostorage "github.com/dtroode/signvault/internal/storage/minio"
	"github.com/dtroode/signvault/internal/token"
)

// stores groups the record stores of one backend.
type stores struct {
	identities model.IdentityStore
	signatures model.SignatureStore
	audit      model.AuditStore
	close      func() error
}

// FromEnv is the Builder used by the signvault binary: it loads configuration
// from the environment and builds the App from it.
func FromEnv(ctx context.Context) (*App, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	return Build(ctx, cfg, logger.New(cfg.LogLevel))
}

// Build opens the configured store and storage backend, wires the services
// and bootstraps the admin identity. A failed bootstrap is logged only.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	storage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		_ = st.close()
		return nil, err
	}

	app := newApp(st, storage, token.NewJWT(cfg.Session.Secret, cfg.Session.TTL), afero.NewOsFs(), log)
	app.bootstrap(ctx, cfg.Admin.Password)
	return app, nil
}

func newApp(st stores, storage model.Storage, tokens model.TokenManager, files afero.Fs, log *logger.Logger) *App {
	keys := keystore.NewRecord()
	return &App{
		Identity: service.NewIdentity(st.identities, st.audit, keys, log),
		Auth:     service.NewAuth(st.identities, st.audit, keys, log),
		File:     service.NewFile(st.signatures, st.identities, st.audit, storage, keys, log),
		Session:  service.NewSession(tokens, st.identities, log),
		Contexts: identityctx.NewManager(),
		Files:    files,
		Logger:   log,
		close:    st.close,
	}
}

func (a *App) bootstrap(ctx context.Context, defaultPassword string) {
	admin, created, err := a.Identity.BootstrapAdmin(ctx, defaultPassword)
	if err != nil {
		a.Logger.Error("failed to bootstrap admin, continuing without it", "error", err)
		return
	}
	if created {
		a.Logger.Info("admin account created", "username", admin.Username)
	}
}

func openStores(ctx context.Context, cfg config.Database) (stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		conn, err := postgres.NewConnection(ctx, cfg.DSN)
		if err != nil {
			return stores{}, fmt.Errorf("failed to initialize record store: %w", err)
		}
		return stores{
			identities: postgres.NewIdentityRepository(conn),
			signatures: postgres.NewSignatureRepository(conn),
			audit:      postgres.NewAuditRepository(conn),
			close:      conn.Close,
		}, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return stores{}, fmt.Errorf("failed to initialize record store: %w", err)
		}
		return stores{
			identities: sqlite.NewIdentityRepository(db),
			signatures: sqlite.NewSignatureRepository(db),
			audit:      sqlite.NewAuditRepository(db),
			close:      db.Close,
		}, nil
	default:
		return stores{}, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openStorage(ctx context.Context, cfg config.Storage) (model.Storage, error) {
	switch cfg.Backend {
	case config.BackendMinio:
		client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
			Secure: cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		storage, err := miniostorage.NewClient(ctx, client, cfg.Minio.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage client: %w", err)
		}
		return storage, nil
	case config.BackendLocal:
		dir, err := local.NewDirectory(cfg.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return dir, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
