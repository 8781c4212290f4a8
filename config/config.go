/*
config.go - Environment configuration for the server and the importer CLI

PURPOSE:
  One typed struct for every setting. Values come from the process
  environment, optionally seeded from .env files (existing variables win,
  godotenv never overrides them).

VARIABLES:
  PORT                   HTTP port (8080)
  DB_DRIVER              sqlite3 | pgx (sqlite3)
  DB_DSN                 file path for sqlite3, connection URL for pgx (staffing.db)
  JWT_SECRET             HMAC secret for import credentials
  IMPORT_ROLES           roles allowed to import (ADMIN,MANAGER)
  MAX_BIND_PARAMS        bound-parameter ceiling per statement, 0 = driver default
  DEFAULT_USER_PASSWORD  initial password of batch-created app users
  LOG_MODE               development | production
  CORS_ORIGINS           allowed browser origins

SEE ALSO:
  - cmd/server/main.go: flags override PORT and DB_DSN
*/
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFiles are read by Load when present.
var DefaultEnvFiles = []string{".env", ".env.local"}

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DBDSN    string `env:"DB_DSN" envDefault:"staffing.db"`

	JWTSecret   string   `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	ImportRoles []string `env:"IMPORT_ROLES" envSeparator:"," envDefault:"ADMIN,MANAGER"`

	MaxBindParams       int    `env:"MAX_BIND_PARAMS" envDefault:"0"`
	DefaultUserPassword string `env:"DEFAULT_USER_PASSWORD" envDefault:"Staffing!2024"`

	LogMode     string   `env:"LOG_MODE" envDefault:"development"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:8080"`
}

// LoadEnv loads the env files that exist and reports how many were read.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads envFiles (DefaultEnvFiles when none are given) and parses the
// environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite3 or pgx, got %q", c.DBDriver)
	}
	if c.MaxBindParams < 0 {
		return fmt.Errorf("MAX_BIND_PARAMS must not be negative")
	}
	if len(c.ImportRoles) == 0 {
		return fmt.Errorf("IMPORT_ROLES must name at least one role")
	}
	return nil
}
