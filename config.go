package authcore

import (
	"errors"
	"net/http"
	"time"

	"github.com/authcore/authcore/jwt"
	"github.com/authcore/authcore/password"
)

// Config is copied by the Builder and treated as immutable once an Engine is built.
type Config struct {
	JWT      JWTConfig
	Session  SessionConfig
	Cookie   CookieConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the access-token codec.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures refresh sessions and the store they live in.
type SessionConfig struct {
	// TTL is the refresh session lifetime and the refresh cookie MaxAge.
	TTL time.Duration
	// StoreTimeout bounds every individual store call.
	StoreTimeout time.Duration
	// RevokedRetention keeps expired and revoked records around for audit before a sweep
	// may delete them. It must be positive.
	RevokedRetention time.Duration
	RedisPrefix      string
	SweepInterval    time.Duration
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig holds the attributes the transport layer puts on both credentials.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Path        string
	Domain      string
	SameSite    http.SameSite
	Secure      bool
}

// PasswordConfig holds Argon2id parameters for the default secret hasher.
type PasswordConfig struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinSecretBytes int
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// SecurityConfig turns on the hardening checks in Validate.
type SecurityConfig struct {
	ProductionMode bool
}

// DefaultConfig returns development defaults. Signing keys are left empty and must be
// supplied before Build.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			AccessTTL:     5 * time.Minute,
			SigningMethod: string(jwt.MethodHS256),
			RequireIAT:    true,
			MaxFutureIAT:  time.Minute,
		},
		Session: SessionConfig{
			TTL:              7 * 24 * time.Hour,
			StoreTimeout:     2 * time.Second,
			RevokedRetention: 24 * time.Hour,
			RedisPrefix:      "as",
			SweepInterval:    10 * time.Minute,
		},
		Cookie: CookieConfig{
			AccessName:  "accessToken",
			RefreshName: "refreshToken",
			Path:        "/",
			SameSite:    http.SameSiteStrictMode,
			Secure:      true,
		},
		Password: PasswordConfig{
			Memory:         pw.Memory,
			Time:           pw.Time,
			Parallelism:    pw.Parallelism,
			SaltLength:     pw.SaltLength,
			KeyLength:      pw.KeyLength,
			MinSecretBytes: pw.MinSecretBytes,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// HighSecurityConfig returns DefaultConfig with ProductionMode on and a shorter access
// lifetime.
func HighSecurityConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessTTL = 2 * time.Minute
	cfg.Session.TTL = 24 * time.Hour
	cfg.Audit.Enabled = true
	cfg.Security.ProductionMode = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	if cfg.JWT.VerifyKeys != nil {
		out.JWT.VerifyKeys = make(map[string][]byte, len(cfg.JWT.VerifyKeys))
		for kid, key := range cfg.JWT.VerifyKeys {
			out.JWT.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c *Config) jwtConfig() jwt.Config {
	return jwt.Config{
		AccessTTL:     c.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(c.JWT.SigningMethod),
		PrivateKey:    c.JWT.PrivateKey,
		PublicKey:     c.JWT.PublicKey,
		Issuer:        c.JWT.Issuer,
		Audience:      c.JWT.Audience,
		Leeway:        c.JWT.Leeway,
		RequireIAT:    c.JWT.RequireIAT,
		MaxFutureIAT:  c.JWT.MaxFutureIAT,
		KeyID:         c.JWT.KeyID,
		VerifyKeys:    c.JWT.VerifyKeys,
	}
}

func (c *Config) passwordConfig() password.Config {
	return password.Config{
		Memory:         c.Password.Memory,
		Time:           c.Password.Time,
		Parallelism:    c.Password.Parallelism,
		SaltLength:     c.Password.SaltLength,
		KeyLength:      c.Password.KeyLength,
		MinSecretBytes: c.Password.MinSecretBytes,
	}
}

// NewPINHasher returns the Argon2id hasher an Engine built from cfg verifies against.
// Directories seeded outside the Engine must hash with it.
func NewPINHasher(cfg Config) (*password.Argon2, error) {
	return password.NewArgon2(cfg.passwordConfig())
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the Engine cannot run with. In ProductionMode it also
// rejects configurations that would run but weaken the credentials.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	switch jwt.SigningMethod(c.JWT.SigningMethod) {
	case jwt.MethodHS256:
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("hs256 requires PrivateKey")
		}
	case jwt.MethodEd25519:
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 && len(c.JWT.VerifyKeys) == 0 {
			return errors.New("ed25519 requires PublicKey or VerifyKeys")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT Leeway must be >= 0")
	}
	if c.JWT.MaxFutureIAT < 0 {
		return errors.New("JWT MaxFutureIAT must be >= 0")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.StoreTimeout <= 0 {
		return errors.New("Session StoreTimeout must be > 0")
	}
	if c.Session.RevokedRetention <= 0 {
		return errors.New("Session RevokedRetention must be > 0")
	}
	if c.Session.SweepInterval < 0 {
		return errors.New("Session SweepInterval must be >= 0")
	}
	if c.Session.TTL < c.JWT.AccessTTL {
		return errors.New("Session TTL must be >= JWT AccessTTL")
	}

	// Cookie
	if c.Cookie.AccessName == "" || c.Cookie.RefreshName == "" {
		return errors.New("Cookie names must not be empty")
	}
	if c.Cookie.AccessName == c.Cookie.RefreshName {
		return errors.New("Cookie AccessName and RefreshName must differ")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	if c.Security.ProductionMode {
		if c.JWT.AccessTTL > 15*time.Minute {
			return errors.New("ProductionMode requires JWT AccessTTL <= 15m")
		}
		if c.Session.TTL > 30*24*time.Hour {
			return errors.New("ProductionMode requires Session TTL <= 30d")
		}
		if jwt.SigningMethod(c.JWT.SigningMethod) == jwt.MethodHS256 && len(c.JWT.PrivateKey) < 32 {
			return errors.New("ProductionMode requires hs256 key length >= 256 bits")
		}
		if !c.Cookie.Secure {
			return errors.New("ProductionMode requires Secure cookies")
		}
		if c.Password.Memory < 64*1024 {
			return errors.New("ProductionMode requires Password Memory >= 65536 KB")
		}
		if c.Password.Time < 2 {
			return errors.New("ProductionMode requires Password Time >= 2")
		}
		if c.Password.KeyLength < 32 {
			return errors.New("ProductionMode requires Password KeyLength >= 32")
		}
	}

	return nil
}
