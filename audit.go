package authcore

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/authcore/authcore/credential"
	"github.com/authcore/authcore/internal/audit"
	"github.com/authcore/authcore/jwt"
	"github.com/authcore/authcore/session"
)

type (
	AuditEvent     = audit.Event
	AuditSink      = audit.Sink
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	SlogSink       = audit.SlogSink
)

func NewChannelSink(buffer int) *ChannelSink { return audit.NewChannelSink(buffer) }

func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return audit.NewJSONWriterSink(w) }

func NewSlogSink(logger *slog.Logger) *SlogSink { return audit.NewSlogSink(logger) }

const (
	AuditEventLoginSuccess    = "login_success"
	AuditEventLoginFailure    = "login_failure"
	AuditEventRefreshSuccess  = "refresh_success"
	AuditEventRefreshInvalid  = "refresh_invalid"
	AuditEventLogout          = "logout"
	AuditEventLogoutFailure   = "logout_failure"
	AuditEventSessionRevoked  = "session_revoked"
	AuditEventSessionsSwept   = "sessions_swept"
	AuditEventStoreDegraded   = "store_unavailable"
	AuditEventOrphanedSession = "orphaned_session_revoked"
)

// AuditErrorCode is the stable reason string recorded on failed events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrMissingCredentials AuditErrorCode = "missing_credentials"
	auditErrSessionNotFound    AuditErrorCode = "session_not_found"
	auditErrSessionRevoked     AuditErrorCode = "session_revoked"
	auditErrSessionExpired     AuditErrorCode = "session_expired"
	auditErrSessionMismatch    AuditErrorCode = "session_mismatch"
	auditErrTokenMalformed     AuditErrorCode = "token_malformed"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrTokenInvalid       AuditErrorCode = "token_invalid"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.clock.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, credential.ErrMissingCredentials):
		return auditErrMissingCredentials
	case errors.Is(err, credential.ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, session.ErrStoreUnavailable), errors.Is(err, credential.ErrDirectoryUnavailable):
		return auditErrUnavailable
	case errors.Is(err, errSessionMismatch):
		return auditErrSessionMismatch
	case errors.Is(err, session.ErrSessionRevoked):
		return auditErrSessionRevoked
	case errors.Is(err, session.ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, session.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignature), errors.Is(err, jwt.ErrTokenVersion):
		return auditErrTokenMalformed
	case errors.Is(err, session.ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, jwt.ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalid):
		return auditErrTokenInvalid
	default:
		return auditErrInternal
	}
}
