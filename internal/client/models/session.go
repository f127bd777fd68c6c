package models

import "time"

// Session binds a stored credential token to a profile snapshot.
// A Session exists only while its token is in the credential store.
type Session struct {
	Token string
	User  *User

	// ExpiresAt is read from the token's exp claim when the token is a JWT.
	// Zero when unknown. Informational only.
	ExpiresAt time.Time
}

// TokenResponse is the backend reply to login, registration and
// external-session exchange.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// Phase is the coarse position of the auth state machine.
type Phase string

const (
	PhaseUninitialized   Phase = "uninitialized"
	PhaseInitializing    Phase = "initializing"
	PhaseAuthenticated   Phase = "authenticated"
	PhaseUnauthenticated Phase = "unauthenticated"
)

// AuthState is the process-wide view of who is signed in.
//
// Loading is true only while the startup probe or an interactive
// login/register/exchange is in flight. No gating decision is taken while
// it is set.
type AuthState struct {
	Phase   Phase
	User    *User
	Loading bool
}

func (s AuthState) Authenticated() bool {
	return s.User != nil
}
