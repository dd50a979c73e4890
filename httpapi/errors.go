package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/authcore/authcore"
	"github.com/authcore/authcore/logging"
)

// StatusFor maps an engine failure kind to an HTTP status.
func StatusFor(kind authcore.Kind) int {
	switch kind {
	case authcore.KindNone:
		return http.StatusOK
	case authcore.KindInvalidCredentials, authcore.KindUnauthenticated, authcore.KindMalformed:
		return http.StatusUnauthorized
	case authcore.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case authcore.KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the body of every non-2xx response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

var publicMessages = map[authcore.Kind]string{
	authcore.KindInvalidCredentials: "Invalid name or PIN",
	authcore.KindUnauthenticated:    "Authentication required",
	authcore.KindMalformed:          "Authentication required",
	authcore.KindStoreUnavailable:   "Service temporarily unavailable",
	authcore.KindInvalidRequest:     "Invalid request",
	authcore.KindInternal:           "An unexpected error occurred",
}

// writeError never echoes err to the client; it is logged instead.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := authcore.KindOf(err)
	status := StatusFor(kind)

	body := APIError{
		Code:    strings.ToUpper(kind.String()),
		Message: publicMessages[kind],
	}
	var valErr ValidationError
	if errors.As(err, &valErr) {
		body.Details = valErr.Errors
	}

	log := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.LogAttrs(r.Context(), slog.LevelError, "request failed",
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
	} else {
		log.LogAttrs(r.Context(), slog.LevelDebug, "request rejected",
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
	}

	if kind.Retryable() {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
