// Package common defines shared constants and sentinel errors used across
// client layers of CareFollow. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Session lifecycle errors surfaced to the user.
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrDuplicateAccount      = errors.New("account already exists")
	ErrValidation            = errors.New("validation error")
	ErrMissingExchangeToken  = errors.New("missing exchange token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired exchange token")
	ErrAuthorizationExpired  = errors.New("authorization expired")

	// Transport-level errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrUnavailable  = errors.New("server unavailable")
	ErrTimeout      = errors.New("request timed out")

	// Local flow control.
	ErrNoSession              = errors.New("no session")
	ErrOperationInProgress    = errors.New("another auth operation is in progress")
	ErrCallbackAlreadyHandled = errors.New("callback already handled")
)
