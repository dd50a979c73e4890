// Package serverconfig loads cmd/authcore-server settings from the environment and an
// optional .env file.
package serverconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/authcore/authcore"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Session backends selectable with AUTHCORE_SESSION_BACKEND.
const (
	BackendMemory    = "memory"
	BackendMiniredis = "miniredis"
	BackendRedis     = "redis"
	BackendPostgres  = "postgres"
)

type Config struct {
	Server struct {
		Addr            string        `envconfig:"AUTHCORE_ADDR" default:":8080"`
		ReadTimeout     time.Duration `envconfig:"AUTHCORE_READ_TIMEOUT" default:"5s"`
		WriteTimeout    time.Duration `envconfig:"AUTHCORE_WRITE_TIMEOUT" default:"10s"`
		IdleTimeout     time.Duration `envconfig:"AUTHCORE_IDLE_TIMEOUT" default:"120s"`
		ShutdownTimeout time.Duration `envconfig:"AUTHCORE_SHUTDOWN_TIMEOUT" default:"10s"`
		TrustProxy      bool          `envconfig:"AUTHCORE_TRUST_PROXY" default:"false"`
	}
	Log struct {
		Level  string `envconfig:"AUTHCORE_LOG_LEVEL" default:"info"`
		Format string `envconfig:"AUTHCORE_LOG_FORMAT" default:"json"`
	}
	JWT struct {
		Secret    string        `envconfig:"AUTHCORE_JWT_SECRET" required:"true"`
		AccessTTL time.Duration `envconfig:"AUTHCORE_ACCESS_TTL"`
		Issuer    string        `envconfig:"AUTHCORE_JWT_ISSUER"`
		Audience  string        `envconfig:"AUTHCORE_JWT_AUDIENCE"`
	}
	Session struct {
		Backend       string        `envconfig:"AUTHCORE_SESSION_BACKEND" default:"memory"`
		TTL           time.Duration `envconfig:"AUTHCORE_SESSION_TTL"`
		StoreTimeout  time.Duration `envconfig:"AUTHCORE_STORE_TIMEOUT" default:"2s"`
		Retention     time.Duration `envconfig:"AUTHCORE_REVOKED_RETENTION" default:"24h"`
		SweepInterval time.Duration `envconfig:"AUTHCORE_SWEEP_INTERVAL" default:"10m"`
		RedisAddr     string        `envconfig:"AUTHCORE_REDIS_ADDR"`
		RedisPrefix   string        `envconfig:"AUTHCORE_REDIS_PREFIX" default:"as"`
		PostgresURL   string        `envconfig:"AUTHCORE_POSTGRES_URL"`
	}
	Cookie struct {
		Secure bool   `envconfig:"AUTHCORE_COOKIE_SECURE" default:"true"`
		Domain string `envconfig:"AUTHCORE_COOKIE_DOMAIN"`
	}
	Seed struct {
		User string `envconfig:"AUTHCORE_SEED_USER"`
		PIN  string `envconfig:"AUTHCORE_SEED_PIN"`
	}
	Production bool `envconfig:"AUTHCORE_PRODUCTION" default:"false"`
	Audit      bool `envconfig:"AUTHCORE_AUDIT" default:"true"`
	Metrics    bool `envconfig:"AUTHCORE_METRICS" default:"true"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config from environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Session.Backend = strings.ToLower(c.Session.Backend)
	switch c.Session.Backend {
	case BackendMemory, BackendMiniredis:
	case BackendRedis:
		if c.Session.RedisAddr == "" {
			return errors.New("AUTHCORE_REDIS_ADDR is required for the redis backend")
		}
	case BackendPostgres:
		if c.Session.PostgresURL == "" {
			return errors.New("AUTHCORE_POSTGRES_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if (c.Seed.User == "") != (c.Seed.PIN == "") {
		return errors.New("AUTHCORE_SEED_USER and AUTHCORE_SEED_PIN must be set together")
	}
	return nil
}

// Engine translates the server settings into an engine configuration. Token lifetimes
// keep the preset's values unless set explicitly. The result still has to pass
// authcore.Config.Validate.
func (c *Config) Engine() authcore.Config {
	cfg := authcore.DefaultConfig()
	if c.Production {
		cfg = authcore.HighSecurityConfig()
	}

	cfg.JWT.PrivateKey = []byte(c.JWT.Secret)
	if c.JWT.AccessTTL != 0 {
		cfg.JWT.AccessTTL = c.JWT.AccessTTL
	}
	cfg.JWT.Issuer = c.JWT.Issuer
	cfg.JWT.Audience = c.JWT.Audience

	if c.Session.TTL != 0 {
		cfg.Session.TTL = c.Session.TTL
	}
	cfg.Session.StoreTimeout = c.Session.StoreTimeout
	cfg.Session.RevokedRetention = c.Session.Retention
	cfg.Session.SweepInterval = c.Session.SweepInterval
	cfg.Session.RedisPrefix = c.Session.RedisPrefix

	cfg.Cookie.Secure = c.Cookie.Secure
	cfg.Cookie.Domain = c.Cookie.Domain

	cfg.Audit.Enabled = c.Audit
	cfg.Metrics.Enabled = c.Metrics
	cfg.Metrics.EnableLatencyHistograms = c.Metrics
	cfg.Security.ProductionMode = c.Production
	return cfg
}
