package authcore

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/authcore/authcore/clock"
	"github.com/authcore/authcore/credential"
	"github.com/authcore/authcore/internal/audit"
	"github.com/authcore/authcore/internal/flows"
	"github.com/authcore/authcore/jwt"
	"github.com/authcore/authcore/session"
)

// errSessionMismatch marks a logout whose refresh token names a different session than
// the access token is bound to.
var errSessionMismatch = errors.New("refresh token does not belong to the access token's session")

// Engine is the session manager. It is immutable after Build and safe for concurrent use.
type Engine struct {
	config       Config
	clock        clock.Clock
	sessionStore *session.Store
	jwtManager   *jwt.Manager
	verifier     credential.Verifier
	audit        *audit.Dispatcher
	metrics      *Metrics
	logger       *slog.Logger
	flows        flows.Deps
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events discarded because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the configuration the Engine was built with.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// storeDegraded records an operation that could not reach the session store.
func (e *Engine) storeDegraded(ctx context.Context, op, userID, sessionID string, err error) {
	e.metricInc(MetricStoreUnavailable)
	e.emitAudit(ctx, AuditEventStoreDegraded, false, userID, sessionID, err, func() map[string]string {
		return map[string]string{"operation": op}
	})
}

// Login verifies name and secret, persists a new session and mints its first access
// token. On any failure nothing usable is returned and no session survives.
func (e *Engine) Login(ctx context.Context, name, secret string) (*LoginResult, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunLogin(ctx, name, secret, e.flows.Login)
	if res.Failure != flows.LoginFailureNone {
		err := loginError(res)
		e.metricInc(MetricLoginFailure)
		if KindOf(err) == KindStoreUnavailable {
			e.metricInc(MetricLoginStoreUnavailable)
			e.storeDegraded(ctx, "login", res.Identity.UserID, "", res.Err)
		}
		if res.Failure == flows.LoginFailureIssueAccess {
			e.logger.ErrorContext(ctx, "authcore: access token mint failed", "user_id", res.Identity.UserID, "error", res.Err)
			e.emitAudit(ctx, AuditEventOrphanedSession, res.OrphanRevoked, res.Identity.UserID, res.OrphanSessionID, res.RevokeErr, func() map[string]string {
				return map[string]string{"revoked": strconv.FormatBool(res.OrphanRevoked)}
			})
		}
		e.emitAudit(ctx, AuditEventLoginFailure, false, res.Identity.UserID, "", res.Err, func() map[string]string {
			return map[string]string{
				"identifier": name,
			}
		})
		return nil, err
	}

	e.metricInc(MetricSessionCreated)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditEventLoginSuccess, true, res.Identity.UserID, res.Session.SessionID, nil, nil)

	return &LoginResult{
		Identity:         res.Identity,
		SessionID:        res.Session.SessionID,
		AccessToken:      res.AccessToken,
		AccessExpiresAt:  res.AccessExpiresAt,
		RefreshToken:     res.Session.Token,
		RefreshExpiresAt: res.Session.ExpiresAt,
	}, nil
}

func loginError(res flows.LoginResult) error {
	switch res.Failure {
	case flows.LoginFailureCredentials:
		return failure(ErrInvalidCredentials, res.Err)
	case flows.LoginFailureDirectory:
		if errors.Is(res.Err, credential.ErrDirectoryUnavailable) {
			return failure(ErrStoreUnavailable, res.Err)
		}
		return failure(ErrInternal, res.Err)
	case flows.LoginFailureCreateSession:
		if errors.Is(res.Err, session.ErrStoreUnavailable) {
			return failure(ErrStoreUnavailable, res.Err)
		}
		return failure(ErrInternal, res.Err)
	default:
		return failure(ErrInternal, res.Err)
	}
}

// Refresh mints a new access token for the session named by refreshToken. The session is
// checked live against the store; the refresh token itself is neither rotated nor
// rewritten.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunRefresh(ctx, refreshToken, e.flows.Refresh)
	if res.Failure != flows.RefreshFailureNone {
		var err error
		switch res.Failure {
		case flows.RefreshFailureDecode:
			e.metricInc(MetricRefreshMalformed)
			err = failure(ErrMalformed, res.Err)
		case flows.RefreshFailureMissing, flows.RefreshFailureInvalid:
			switch {
			case errors.Is(res.Err, session.ErrSessionRevoked):
				e.metricInc(MetricRefreshRevoked)
			case errors.Is(res.Err, session.ErrSessionExpired):
				e.metricInc(MetricRefreshExpired)
			}
			err = failure(ErrUnauthenticated, res.Err)
		case flows.RefreshFailureStore:
			if errors.Is(res.Err, session.ErrStoreUnavailable) {
				e.storeDegraded(ctx, "refresh", res.UserID, res.SessionID, res.Err)
				err = failure(ErrStoreUnavailable, res.Err)
			} else {
				e.logger.ErrorContext(ctx, "authcore: session lookup failed", "error", res.Err)
				err = failure(ErrInternal, res.Err)
			}
		default:
			e.logger.ErrorContext(ctx, "authcore: access token mint failed", "session_id", res.SessionID, "error", res.Err)
			err = failure(ErrInternal, res.Err)
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditEventRefreshInvalid, false, res.UserID, res.SessionID, res.Err, nil)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditEventRefreshSuccess, true, res.UserID, res.SessionID, nil, nil)

	return &RefreshResult{
		Identity:        Identity{UserID: res.UserID, DisplayName: res.DisplayName},
		SessionID:       res.SessionID,
		AccessToken:     res.AccessToken,
		AccessExpiresAt: res.AccessExpiresAt,
	}, nil
}

// Logout revokes a session. The access token must verify before anything is revoked, and
// when a refresh token is supplied it must name the session the access token is bound to.
// Without a refresh token the access token's own session is revoked. Logging out of a
// session that no longer exists succeeds.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}

	res := flows.RunLogout(ctx, accessToken, refreshToken, e.flows.Logout)
	if res.Failure != flows.LogoutFailureNone {
		var err error
		cause := res.Err
		switch res.Failure {
		case flows.LogoutFailureAccess, flows.LogoutFailureUnbound:
			err = failure(ErrUnauthenticated, res.Err)
		case flows.LogoutFailureRefreshDecode:
			err = failure(ErrMalformed, res.Err)
		case flows.LogoutFailureSessionMismatch:
			cause = errSessionMismatch
			err = failure(ErrUnauthenticated, cause)
		default:
			if errors.Is(res.Err, session.ErrStoreUnavailable) {
				e.storeDegraded(ctx, "logout", res.UserID, res.SessionID, res.Err)
				err = failure(ErrStoreUnavailable, res.Err)
			} else {
				err = failure(ErrInternal, res.Err)
			}
		}
		e.metricInc(MetricLogoutFailure)
		e.emitAudit(ctx, AuditEventLogoutFailure, false, res.UserID, res.SessionID, cause, nil)
		return err
	}

	e.metricInc(MetricLogout)
	if !res.AlreadyGone {
		e.metricInc(MetricSessionRevoked)
		e.emitAudit(ctx, AuditEventSessionRevoked, true, res.UserID, res.SessionID, nil, nil)
	}
	e.emitAudit(ctx, AuditEventLogout, true, res.UserID, res.SessionID, nil, func() map[string]string {
		if res.AlreadyGone {
			return map[string]string{"already_gone": "true"}
		}
		return nil
	})
	return nil
}

// Authenticate verifies an access token by signature and expiry alone. It never touches
// the session store, so a revoked session's outstanding access token stays valid until
// it expires.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	claims, err := e.AuthenticateClaims(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: claims.UID, DisplayName: claims.Name}, nil
}

// AuthenticateClaims is Authenticate returning the full claim set, including the bound
// session id.
func (e *Engine) AuthenticateClaims(ctx context.Context, accessToken string) (*jwt.AccessClaims, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	res := flows.RunValidate(accessToken, e.flows.Validate)

	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}

	if res.Failure != flows.ValidateFailureNone {
		e.metricInc(MetricAuthenticateFailure)
		return nil, accessError(res)
	}

	e.metricInc(MetricAuthenticateSuccess)
	return res.Claims, nil
}

// accessError separates tokens that cannot be verified at all from tokens that verify
// but are no longer acceptable.
func accessError(res flows.ValidateResult) error {
	if res.Failure == flows.ValidateFailureMissing {
		return failure(ErrUnauthenticated, res.Err)
	}
	switch {
	case errors.Is(res.Err, jwt.ErrTokenMalformed),
		errors.Is(res.Err, jwt.ErrTokenSignature),
		errors.Is(res.Err, jwt.ErrTokenVersion):
		return failure(ErrMalformed, res.Err)
	default:
		return failure(ErrUnauthenticated, res.Err)
	}
}

// SweepExpired deletes session records whose expiry plus RevokedRetention has passed.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}

	n, err := flows.RunSweep(ctx, e.flows.Introspection)
	if n > 0 && e.metrics != nil {
		e.metrics.Add(MetricSessionSwept, uint64(n))
	}
	if err != nil {
		if errors.Is(err, session.ErrStoreUnavailable) {
			e.storeDegraded(ctx, "sweep", "", "", err)
			return n, failure(ErrStoreUnavailable, err)
		}
		return n, failure(ErrInternal, err)
	}
	if n > 0 {
		e.emitAudit(ctx, AuditEventSessionsSwept, true, "", "", nil, func() map[string]string {
			return map[string]string{"deleted": strconv.Itoa(n)}
		})
	}
	return n, nil
}

// SessionInfo returns the introspection view of a session. Unknown ids report
// KindUnauthenticated.
func (e *Engine) SessionInfo(ctx context.Context, sessionID string) (*SessionInfo, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	rec, err := flows.RunLookup(ctx, sessionID, e.flows.Introspection)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionInvalid):
			return nil, failure(ErrUnauthenticated, err)
		case errors.Is(err, session.ErrStoreUnavailable):
			e.storeDegraded(ctx, "session_info", "", sessionID, err)
			return nil, failure(ErrStoreUnavailable, err)
		default:
			return nil, failure(ErrInternal, err)
		}
	}

	return sessionInfoFromRecord(rec, e.clock.Now()), nil
}

func sessionInfoFromRecord(rec *session.Record, now time.Time) *SessionInfo {
	info := &SessionInfo{
		SessionID:   rec.SessionID,
		UserID:      rec.UserID,
		DisplayName: rec.DisplayName,
		IssuedAt:    rec.IssuedAt,
		ExpiresAt:   rec.ExpiresAt,
	}
	switch {
	case rec.Revoked:
		info.State = SessionRevoked
		at := rec.RevokedAt
		info.RevokedAt = &at
	case !now.Before(rec.ExpiresAt):
		info.State = SessionExpired
	default:
		info.State = SessionActive
	}
	return info
}

// Health pings the session store within StoreTimeout.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.sessionStore == nil {
		return HealthStatus{Error: ErrEngineNotReady.Error()}
	}

	latency, err := flows.RunPing(ctx, e.flows.Introspection)
	if err != nil {
		e.storeDegraded(ctx, "health", "", "", err)
		return HealthStatus{Latency: latency, Error: err.Error()}
	}
	return HealthStatus{Available: true, Latency: latency}
}
