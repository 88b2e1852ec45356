package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"

	// DevJWTSecret signs tokens when JWT_SECRET is unset outside production.
	DevJWTSecret = "dev-only-insecure-secret"
)

type Config struct {
	Port            string        `env:"PORT,             default=3000"`
	Env             string        `env:"ENV,              default=development"`
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,        default=1h"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	BcryptCost      int           `env:"BCRYPT_COST,      default=10"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	Storage StorageConfig
	About   AboutConfig
}

type StorageConfig struct {
	Driver     string `env:"STORAGE_DRIVER, default=sqlite"`
	SQLitePath string `env:"SQLITE_PATH,    default=./database/db.sqlite"`
	MongoURI   string `env:"MONGO_URI,      default=mongodb://localhost:27017"`
	MongoDB    string `env:"MONGO_DB,       default=catalog"`
}

// AboutConfig is the static identity served by /api/about.
type AboutConfig struct {
	FullName string `env:"ABOUT_FULL_NAME, default=Catalog API"`
	IDNumber string `env:"ABOUT_ID_NUMBER"`
	Section  string `env:"ABOUT_SECTION"`
}

// IsProduction reports whether ENV selects the production profile.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through the given lookuper and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the cross-field rules. Outside production a missing
// JWT_SECRET is replaced by DevJWTSecret; callers should warn about it.
func (c *Config) Validate() error {
	var errs []error

	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.JWTSecret == "" && !c.IsProduction() {
		c.JWTSecret = DevJWTSecret
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	case DriverMongo:
		if c.Storage.MongoURI == "" || c.Storage.MongoDB == "" {
			errs = append(errs, errors.New("MONGO_URI and MONGO_DB are required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not one of sqlite, mongo", c.Storage.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// UsesDevSecret reports whether tokens are signed with the development fallback.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}
