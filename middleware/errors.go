package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/authcore/authcore"
)

// ErrorHandler writes the response for a request a guard rejected. err always carries
// an authcore failure kind: KindStoreUnavailable for store outages, otherwise
// KindUnauthenticated or KindMalformed.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// PlainErrorHandler answers with a short text/plain body.
func PlainErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	if authcore.KindOf(err) == authcore.KindStoreUnavailable {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// rejection makes sure err classifies as a 401 kind.
func rejection(err error) error {
	switch {
	case err == nil:
		return authcore.ErrUnauthenticated
	case errors.Is(err, authcore.ErrUnauthenticated), errors.Is(err, authcore.ErrMalformed):
		return err
	default:
		return fmt.Errorf("%w: %w", authcore.ErrUnauthenticated, err)
	}
}
