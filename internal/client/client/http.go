package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/carefollow/internal/client/models"
	"github.com/dmitrijs2005/carefollow/internal/common"
)

const apiPrefix = "/api"

type HTTPClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	tokens     TokenProvider

	mu           sync.RWMutex
	unauthorized UnauthorizedHandler
}

// Option tweaks an HTTPClient at construction.
type Option func(*HTTPClient)

// WithHTTPTransport replaces the base round tripper (tests, proxies).
func WithHTTPTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) {
		c.httpClient.Transport = newAuthTransport(rt)
	}
}

// NewHTTPClient builds a client for baseURL. defaultTimeout bounds requests
// whose context has no deadline of its own; callers with long-running calls
// pass a context with a longer deadline.
func NewHTTPClient(baseURL string, defaultTimeout time.Duration, tokens TokenProvider, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    defaultTimeout,
		tokens:     tokens,
		httpClient: &http.Client{Transport: newAuthTransport(nil)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenProvider wires the session owner after construction. The session
// manager needs the client and the client needs the manager's token.
func (c *HTTPClient) SetTokenProvider(tp TokenProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = tp
}

func (c *HTTPClient) SetUnauthorizedHandler(h UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unauthorized = h
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	tp := c.tokens
	c.mu.RUnlock()
	if tp == nil {
		return ""
	}
	return tp.AccessToken()
}

func (c *HTTPClient) notifyUnauthorized(ctx context.Context, token string) {
	c.mu.RLock()
	h := c.unauthorized
	c.mu.RUnlock()
	if h != nil {
		h(ctx, token)
	}
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp models.TokenResponse
	if err := c.send(ctx, http.MethodPost, "/auth/login", body, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) (*models.TokenResponse, error) {
	var resp models.TokenResponse
	if err := c.send(ctx, http.MethodPost, "/auth/register", reg, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExchangeSession redeems a one-time token from the external identity
// provider. The token goes in the query string of a request to our own
// backend; it is never logged.
func (c *HTTPClient) ExchangeSession(ctx context.Context, sessionID string) (*models.TokenResponse, error) {
	path := "/auth/session?" + url.Values{common.ExchangeTokenKey: {sessionID}}.Encode()

	var resp models.TokenResponse
	if err := c.send(ctx, http.MethodGet, path, nil, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.GetJSON(ctx, "/auth/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout tells the backend that token is no longer in use. Callers treat it
// as best effort; the local session is already gone by then, so the token is
// passed explicitly. A backend without a logout route (404) is not an error:
// its tokens simply expire.
func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := c.send(ctx, http.MethodPost, "/auth/logout", nil, nil, token)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}

func (c *HTTPClient) GetJSON(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodGet, path, nil, out, c.currentToken())
}

func (c *HTTPClient) SendJSON(ctx context.Context, method, path string, in, out any) error {
	return c.send(ctx, method, path, in, out, c.currentToken())
}

// send performs one request carrying token, or no credential when token is
// empty. Login, registration and exchange go out anonymously.
func (c *HTTPClient) send(ctx context.Context, method, path string, in, out any, token string) error {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx = withBearer(ctx, token)

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logPath, _, _ := strings.Cut(path, "?")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return requestError(ctx, method, logPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			c.notifyUnauthorized(ctx, token)
			return fmt.Errorf("%s %s: %w: %w", method, logPath, common.ErrAuthorizationExpired, apiErr)
		}
		return fmt.Errorf("%s %s: %w", method, logPath, apiErr)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)
