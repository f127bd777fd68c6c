package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/carefollow/internal/common"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type bearerKey struct{}

// withBearer pins the token used for one request. Reading it once per
// request lets HTTPClient know afterwards whether the request carried a
// credential.
func withBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

func bearerFromContext(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}

// authTransport sets the bearer credential when the request context carries
// one and leaves the header out otherwise.
type authTransport struct {
	base http.RoundTripper
}

func newAuthTransport(base http.RoundTripper) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{base: base}
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(common.RequestIDHeaderName) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	}

	token := bearerFromContext(req.Context())
	if token == "" {
		req.Header.Del(common.AuthorizationHeaderName)
		return t.base.RoundTrip(req)
	}

	ot := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   t.base,
	}
	return ot.RoundTrip(req)
}
