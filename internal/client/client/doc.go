// Package client is the single HTTP entry point to the CareFollow backend.
//
// # Overview
//
// The package provides:
//  1. The Client interface: Login, Register, ExchangeSession, Me, Logout,
//     plus GetJSON/SendJSON for every other screen's REST calls.
//  2. HTTPClient, which resolves paths under <base>/api, attaches the
//     current token as a bearer credential (golang.org/x/oauth2 transport),
//     tags each request with an X-Request-ID, and maps responses to
//     sentinel errors.
//
// # Authorization failures
//
// A 401 to a request that carried a credential means the live session was
// rejected. HTTPClient calls the handler registered with
// SetUnauthorizedHandler, then returns an error matching both
// common.ErrAuthorizationExpired and common.ErrUnauthorized. Screens never
// handle 401 themselves. A 401 to an anonymous request (a login attempt)
// only returns common.ErrUnauthorized.
//
// # Transport failures
//
// Deadline expiry maps to common.ErrTimeout and connection failures to
// common.ErrUnavailable. Neither is ever reported as an auth failure.
// Cancellation returns context.Canceled.
package client
