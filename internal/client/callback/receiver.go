package callback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/carefollow/internal/client/gate"
	"github.com/dmitrijs2005/carefollow/internal/client/models"
	"github.com/dmitrijs2005/carefollow/internal/common"
	"github.com/dmitrijs2005/carefollow/internal/logging"
	"github.com/go-chi/chi/v5"
)

const (
	callbackPath = gate.CallbackPath
	fragmentPath = gate.CallbackPath + "/fragment"

	maxFragmentBytes = 4 << 10
)

// The fragment never reaches the server, so the landing page posts it back.
const landingPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>CareFollow</title></head>
<body><p>Signing in...</p>
<script>
fetch("` + fragmentPath + `", {method: "POST", headers: {"Content-Type": "text/plain"}, body: location.hash.replace(/^#/, "")})
  .then(function (r) { return r.text(); })
  .then(function (t) { history.replaceState(null, "", location.pathname); document.body.textContent = t; })
  .catch(function () { document.body.textContent = "Could not reach the CareFollow client."; });
</script>
</body></html>
`

// Result is the outcome of the first callback activation.
type Result struct {
	User *models.User
	Err  error
}

// Receiver is a loopback HTTP server the identity provider redirects the
// browser to. Every post of the landing page drives the same Handler, so
// repeated loads still exchange the token at most once.
type Receiver struct {
	addr    string
	handler *Handler
	log     logging.Logger

	results chan Result
	once    sync.Once

	mu     sync.Mutex
	server *http.Server
}

func NewReceiver(addr string, h *Handler, log logging.Logger) *Receiver {
	if log == nil {
		log = logging.Discard()
	}
	return &Receiver{
		addr:    addr,
		handler: h,
		log:     log,
		results: make(chan Result, 1),
	}
}

// Routes returns the receiver's HTTP routes.
func (rc *Receiver) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get(callbackPath, rc.landing)
	r.Post(fragmentPath, rc.fragment)
	return r
}

// Start listens on the configured address and serves in the background. It
// returns the redirect URL to hand to the identity provider.
func (rc *Receiver) Start(ctx context.Context) (string, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", rc.addr)
	if err != nil {
		return "", fmt.Errorf("listen for callback on %s: %w", rc.addr, err)
	}

	srv := &http.Server{
		Handler:           rc.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	rc.mu.Lock()
	rc.server = srv
	rc.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rc.log.Error(context.Background(), "callback receiver stopped", logging.Err(err))
		}
	}()

	redirect := "http://" + ln.Addr().String() + callbackPath
	rc.log.Info(ctx, "callback receiver listening", "url", redirect)
	return redirect, nil
}

// Result delivers the outcome of the first activation.
func (rc *Receiver) Result() <-chan Result {
	return rc.results
}

// Shutdown stops the server and detaches the handler, so a late exchange
// result no longer navigates.
func (rc *Receiver) Shutdown(ctx context.Context) error {
	rc.handler.Detach()

	rc.mu.Lock()
	srv := rc.server
	rc.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (rc *Receiver) landing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")
	_, _ = io.WriteString(w, landingPage)
}

func (rc *Receiver) fragment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFragmentBytes))
	if err != nil {
		http.Error(w, "could not read request", http.StatusBadRequest)
		return
	}

	// The exchange is not abandoned when the browser goes away.
	user, err := rc.handler.Deliver(context.WithoutCancel(r.Context()), strings.TrimSpace(string(body)))
	if errors.Is(err, common.ErrCallbackAlreadyHandled) {
		http.Error(w, "This sign-in link was already used. You can close this window.", http.StatusConflict)
		return
	}

	rc.once.Do(func() {
		rc.results <- Result{User: user, Err: err}
	})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, common.UserMessage(err)+". Return to the terminal and try again.")
		return
	}
	_, _ = io.WriteString(w, "Signed in. You can close this window and return to the terminal.")
}

// ProviderLoginURL builds the identity provider's login URL that redirects
// back to redirectURL.
func ProviderLoginURL(providerURL, redirectURL string) (string, error) {
	u, err := url.Parse(providerURL)
	if err != nil {
		return "", fmt.Errorf("invalid auth provider url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid auth provider url %q", providerURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	q := u.Query()
	q.Set("redirect", redirectURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
