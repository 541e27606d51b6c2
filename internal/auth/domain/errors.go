package domain

import (
	"github.com/allisson/volt/internal/errors"
)

// Vault error codes produced by authentication.
const (
	CodeVoltError              = "VoltError"
	CodeUnauthorized           = "Unauthorized"
	CodeAuthenticationFailure  = "AuthenticationFailure"
	CodeTokenValidationFailure = "TokenValidationFailure"

	// DefaultValidationCode is reported when no more specific check failed.
	DefaultValidationCode = "IDX10501"
	// ExpiredValidationCode is reported for a token used after its exp claim.
	ExpiredValidationCode = "IDX10223"
)

// Authentication error definitions.
var (
	// ErrHTTPSRequired indicates bearer authentication over plain HTTP.
	ErrHTTPSRequired = errors.Wrap(errors.ErrUnavailable, "https required")

	// ErrMissingToken indicates a request without a bearer token.
	ErrMissingToken = errors.Wrap(errors.ErrUnauthorized, "missing bearer token")

	// ErrMalformedToken indicates a token that cannot be decoded.
	ErrMalformedToken = errors.Wrap(errors.ErrUnauthorized, "malformed token")

	// ErrInvalidToken indicates a decoded token that fails a claim check.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid token")
)

// NewHTTPSRequiredError reports OAuth over a plain HTTP connection.
func NewHTTPSRequiredError(requestID string) error {
	return errors.NewServiceError(
		ErrHTTPSRequired,
		CodeVoltError,
		"Request is not using HTTPS protocol. Volt Server will not respond. Please enable HTTPS to use OAuth.",
		requestID,
	)
}

// NewUnauthorizedError reports a missing or non bearer Authorization header.
func NewUnauthorizedError(requestID string) error {
	return errors.NewServiceError(
		ErrMissingToken,
		CodeUnauthorized,
		"AKV10000: Request is missing a Bearer or PoP token.",
		requestID,
	)
}

// NewAuthenticationFailureError reports a token that could not be parsed.
func NewAuthenticationFailureError(requestID string) error {
	return errors.NewServiceError(
		ErrMalformedToken,
		CodeAuthenticationFailure,
		"AKV10003: Unable to parse JWT token: bad JSON content.",
		requestID,
	)
}

// NewTokenValidationFailureError reports a failed claim check. An empty code
// falls back to DefaultValidationCode.
func NewTokenValidationFailureError(requestID, code string) error {
	if code == "" {
		code = DefaultValidationCode
	}
	return errors.NewServiceError(
		ErrInvalidToken,
		CodeTokenValidationFailure,
		"Error validating token: "+code,
		requestID,
	)
}
