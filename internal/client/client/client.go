package client

import (
	"context"

	"github.com/dmitrijs2005/carefollow/internal/client/models"
)

// Client is the backend contract consumed by the session manager and screens.
type Client interface {
	Login(ctx context.Context, email, password string) (*models.TokenResponse, error)
	Register(ctx context.Context, reg models.Registration) (*models.TokenResponse, error)
	ExchangeSession(ctx context.Context, sessionID string) (*models.TokenResponse, error)
	Me(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context, token string) error

	GetJSON(ctx context.Context, path string, out any) error
	SendJSON(ctx context.Context, method, path string, in, out any) error
}

// TokenProvider exposes the token of the current session, or "" if none.
type TokenProvider interface {
	AccessToken() string
}

// UnauthorizedHandler is told that the backend rejected a credential.
// rejected is the token the failed request carried, so the owner can ignore
// replies to requests sent under an older session.
type UnauthorizedHandler func(ctx context.Context, rejected string)
