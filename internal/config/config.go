package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported storage backends.
const (
	BackendLocal = "local"
	BackendMinio = "minio"
)

// Config contains application configuration parameters.
type Config struct {
	LogLevel int      `env:"LOG_LEVEL" envDefault:"0"`
	Database Database `envPrefix:"DATABASE_"`
	Storage  Storage  `envPrefix:"STORAGE_"`
	Admin    Admin    `envPrefix:"ADMIN_"`
	Session  Session  `envPrefix:"SESSION_"`
}

// Database contains record store connection parameters.
type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DSN" envDefault:"file:signvault.db?_pragma=foreign_keys(1)"`
}

// Storage contains uploaded file storage parameters.
type Storage struct {
	Backend   string `env:"BACKEND" envDefault:"local"`
	UploadDir string `env:"UPLOAD_DIR"`
	Minio     Minio  `envPrefix:"MINIO_"`
}

// Minio contains object storage parameters.
type Minio struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"signvault-uploads"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// Admin contains bootstrap administrator parameters.
type Admin struct {
	Password string `env:"PASSWORD,required,notEmpty"`
}

// Session contains session token parameters.
type Session struct {
	Secret string        `env:"SECRET,required,notEmpty"`
	TTL    time.Duration `env:"TTL" envDefault:"8h"`
}

// NewConfig loads configuration from environment variables and validates it.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks settings whose requirement depends on other settings.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required"))
	}

	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.UploadDir == "" {
			errs = append(errs, errors.New("STORAGE_UPLOAD_DIR is required for the local backend"))
		}
	case BackendMinio:
		if c.Storage.Minio.Bucket == "" {
			errs = append(errs, errors.New("STORAGE_MINIO_BUCKET is required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend))
	}

	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	return errors.Join(errs...)
}
