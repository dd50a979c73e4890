package authcore

import (
	"errors"
	"log/slog"

	"github.com/authcore/authcore/clock"
	"github.com/authcore/authcore/credential"
	"github.com/authcore/authcore/internal/audit"
	"github.com/authcore/authcore/internal/flows"
	"github.com/authcore/authcore/jwt"
	"github.com/authcore/authcore/password"
	"github.com/authcore/authcore/session"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder is single use; configure it during startup and
// call Build once.
type Builder struct {
	config Config
	clock  clock.Clock

	verifier  credential.Verifier
	directory credential.Directory

	backend  session.Backend
	redis    redis.UniversalClient
	postgres *pgxpool.Pool

	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New returns a Builder seeded with DefaultConfig and the system clock.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		clock:  clock.System{},
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithClock replaces the time source used for every expiry decision.
func (b *Builder) WithClock(c clock.Clock) *Builder {
	b.clock = c
	return b
}

// WithVerifier installs a custom credential verifier. It takes precedence over
// WithDirectory.
func (b *Builder) WithVerifier(v credential.Verifier) *Builder {
	b.verifier = v
	return b
}

// WithDirectory verifies credentials against dir using Argon2id with the configured
// Password parameters.
func (b *Builder) WithDirectory(dir credential.Directory) *Builder {
	b.directory = dir
	return b
}

// WithSessionBackend stores sessions in backend.
func (b *Builder) WithSessionBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

// WithRedis stores sessions in Redis under Session.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithPostgres stores sessions in the auth_sessions table. The schema is not created
// here; call session.PostgresBackend.EnsureSchema during migrations.
func (b *Builder) WithPostgres(pool *pgxpool.Pool) *Builder {
	b.postgres = pool
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component. It fails if no session
// backend or no credential source was provided.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.clock == nil {
		return nil, errors.New("clock must not be nil")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// -------- SESSION STORE --------
	backend, err := b.sessionBackend(cfg)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(backend, cfg.Session.RevokedRetention)

	// -------- CREDENTIALS --------
	verifier := b.verifier
	if verifier == nil {
		if b.directory == nil {
			return nil, errors.New("credential verifier or directory required")
		}
		hasher, err := password.NewArgon2(cfg.passwordConfig())
		if err != nil {
			return nil, err
		}
		dv, err := credential.NewDirectoryVerifier(b.directory, hasher)
		if err != nil {
			return nil, err
		}
		verifier = dv
	}

	// -------- TOKEN CODEC --------
	jwtManager, err := jwt.NewManager(cfg.jwtConfig())
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:       cfg,
		clock:        b.clock,
		sessionStore: store,
		jwtManager:   jwtManager,
		verifier:     verifier,
		metrics:      NewMetrics(cfg.Metrics),
		logger:       logger,
	}

	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = audit.NewSlogSink(logger)
		}
		e.audit = audit.NewDispatcher(audit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink, logger)
	}

	e.flows = e.buildFlowDeps()

	b.built = true
	return e, nil
}

func (b *Builder) sessionBackend(cfg Config) (session.Backend, error) {
	configured := 0
	for _, set := range []bool{b.backend != nil, b.redis != nil, b.postgres != nil} {
		if set {
			configured++
		}
	}
	switch {
	case configured == 0:
		return nil, errors.New("session backend required")
	case configured > 1:
		return nil, errors.New("only one session backend may be configured")
	case b.redis != nil:
		return session.NewRedisBackend(b.redis, cfg.Session.RedisPrefix, cfg.Session.RevokedRetention), nil
	case b.postgres != nil:
		return session.NewPostgresBackend(b.postgres), nil
	default:
		return b.backend, nil
	}
}

func (e *Engine) buildFlowDeps() flows.Deps {
	now := e.clock.Now
	scope := flows.Timeout(e.config.Session.StoreTimeout)

	return flows.Deps{
		Login: flows.LoginDeps{
			Verifier:     e.verifier,
			SessionStore: e.sessionStore,
			MintAccess:   e.jwtManager.Mint,
			Now:          now,
			SessionTTL:   e.config.Session.TTL,
			StoreScope:   scope,
			Warn:         e.logger.Warn,
		},
		Refresh: flows.RefreshDeps{
			SessionStore: e.sessionStore,
			MintAccess:   e.jwtManager.Mint,
			Now:          now,
			StoreScope:   scope,
		},
		Logout: flows.LogoutDeps{
			VerifyAccess: e.jwtManager.Verify,
			SessionStore: e.sessionStore,
			Now:          now,
			StoreScope:   scope,
		},
		Validate: flows.ValidateDeps{
			VerifyAccess: e.jwtManager.Verify,
			Now:          now,
		},
		Introspection: flows.IntrospectionDeps{
			SessionStore: e.sessionStore,
			Now:          now,
			StoreScope:   scope,
		},
	}
}
