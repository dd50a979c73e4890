package flows

import (
	"time"

	"github.com/authcore/authcore/jwt"
)

// ValidateFailureKind classifies access-token failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMissing
	ValidateFailureToken
)

// ValidateResult returns claims or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.AccessClaims
}

// ValidateDeps captures access-token validation dependencies. There is deliberately
// no store here.
type ValidateDeps struct {
	VerifyAccess func(token string, now time.Time) (*jwt.AccessClaims, error)
	Now          func() time.Time
}

// RunValidate verifies an access token against the current time only.
func RunValidate(token string, deps ValidateDeps) ValidateResult {
	if token == "" {
		return ValidateResult{Failure: ValidateFailureMissing, Err: jwt.ErrTokenMalformed}
	}

	claims, err := deps.VerifyAccess(token, deps.Now())
	if err != nil {
		return ValidateResult{Failure: ValidateFailureToken, Err: err}
	}
	return ValidateResult{Claims: claims}
}
