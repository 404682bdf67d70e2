// Package config loads server configuration from the environment.
//
// All variables carry the ASSETLEDGER_ prefix. In development a .env file
// in the working directory is loaded first; missing .env is not an error.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env      string `envconfig:"ASSETLEDGER_ENV" default:"dev"`
	Port     int    `envconfig:"ASSETLEDGER_PORT" default:"8080"`
	DBPath   string `envconfig:"ASSETLEDGER_DB_PATH" default:"assets.db"`
	LogLevel string `envconfig:"ASSETLEDGER_LOG_LEVEL" default:"info"`

	JWTSecret         string        `envconfig:"ASSETLEDGER_JWT_SECRET" default:""`
	JWTIssuer         string        `envconfig:"ASSETLEDGER_JWT_ISSUER" default:"asset-ledger"`
	SessionTTL        time.Duration `envconfig:"ASSETLEDGER_SESSION_TTL" default:"12h"`
	SecureCookies     bool          `envconfig:"ASSETLEDGER_SECURE_COOKIES" default:"false"`

	CORSOrigins []string `envconfig:"ASSETLEDGER_CORS_ORIGINS" default:"http://localhost:5173,http://localhost:8080"`

	ReadTimeout  time.Duration `envconfig:"ASSETLEDGER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"ASSETLEDGER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"ASSETLEDGER_IDLE_TIMEOUT" default:"60s"`
}

// Load reads .env (dev convenience) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProd() {
			return nil, fmt.Errorf("ASSETLEDGER_JWT_SECRET is required outside dev")
		}
		cfg.JWTSecret = "dev-only-secret"
	}
	return &cfg, nil
}

func (c *Config) IsProd() bool { return c.Env == "prod" }

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
