// Package common contains shared constants and sentinel errors used across
// CareFollow client components.
package common

const (
	// AuthorizationHeaderName carries the bearer credential on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName carries a per-request correlation id.
	RequestIDHeaderName = "X-Request-ID"

	// ExchangeTokenKey is the fragment key holding the one-time exchange token
	// after an external identity provider redirect.
	ExchangeTokenKey = "session_id"
)
