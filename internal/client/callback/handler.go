// Package callback turns an external identity provider redirect into a
// session. The provider returns control with a one-time exchange token in
// the address fragment ("#session_id=..."); the token can be redeemed once.
package callback

import (
	"context"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/dmitrijs2005/carefollow/internal/client/gate"
	"github.com/dmitrijs2005/carefollow/internal/client/models"
	"github.com/dmitrijs2005/carefollow/internal/client/nav"
	"github.com/dmitrijs2005/carefollow/internal/common"
	"github.com/dmitrijs2005/carefollow/internal/logging"
)

// Exchanger redeems a one-time token for a session.
type Exchanger interface {
	ExchangeExternalSession(ctx context.Context, token string) (*models.User, error)
}

// Navigator is the part of nav.Navigator the handler drives.
type Navigator interface {
	Current() nav.Location
	Replace(loc nav.Location)
	ClearFragment()
	SetLocation(raw string) nav.Location
}

// Notifier shows short messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Handler processes one callback location. Each Handler stands for a single
// page load: it calls the exchanger at most once no matter how many times
// Activate runs.
type Handler struct {
	exchanger Exchanger
	nav       Navigator
	notify    Notifier
	log       logging.Logger

	handled  atomic.Bool
	detached atomic.Bool
}

func NewHandler(ex Exchanger, n Navigator, notify Notifier, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Discard()
	}
	return &Handler{exchanger: ex, nav: n, notify: notify, log: log}
}

// ExchangeToken returns the session_id value of a fragment, "" if absent.
func ExchangeToken(fragment string) string {
	values, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return ""
	}
	return values.Get(common.ExchangeTokenKey)
}

// HasExchangeToken reports whether a location carries an exchange token.
// Such a location is a callback regardless of its path.
func HasExchangeToken(loc nav.Location) bool {
	return strings.Contains(loc.Fragment, common.ExchangeTokenKey+"=")
}

// Activate reads the token from the current location and exchanges it.
//
// On success the fragment is cleared and the callback location is replaced
// by the role home. On failure, or without a token, the callback location is
// replaced by the login screen, so neither back nor a reload reaches the
// token again. Runs after the first return common.ErrCallbackAlreadyHandled
// and do nothing.
func (h *Handler) Activate(ctx context.Context) (*models.User, error) {
	if !h.handled.CompareAndSwap(false, true) {
		return nil, common.ErrCallbackAlreadyHandled
	}
	return h.exchange(ctx)
}

// Deliver records a fragment posted from outside as the callback location
// and activates. After the first activation the fragment is dropped without
// touching the navigator.
func (h *Handler) Deliver(ctx context.Context, fragment string) (*models.User, error) {
	if !h.handled.CompareAndSwap(false, true) {
		return nil, common.ErrCallbackAlreadyHandled
	}
	h.nav.SetLocation(gate.CallbackPath + "#" + strings.TrimPrefix(fragment, "#"))
	return h.exchange(ctx)
}

func (h *Handler) exchange(ctx context.Context) (*models.User, error) {
	token := ExchangeToken(h.nav.Current().Fragment)
	if token == "" {
		h.log.Warn(ctx, "callback without exchange token")
		h.apply(func() {
			h.notify.Error(common.UserMessage(common.ErrMissingExchangeToken))
			h.leave(models.LoginPath)
		})
		return nil, common.ErrMissingExchangeToken
	}

	user, err := h.exchanger.ExchangeExternalSession(ctx, token)
	if err != nil {
		h.log.Warn(ctx, "external session exchange failed", logging.Err(err))
		h.apply(func() {
			h.notify.Error(common.UserMessage(err))
			h.leave(models.LoginPath)
		})
		return nil, err
	}

	h.apply(func() {
		h.leave(models.RoleHome(user.Role))
		h.notify.Success("Signed in as " + user.Email)
	})
	return user, nil
}

// leave swaps the callback location for path in place.
func (h *Handler) leave(path string) {
	h.nav.ClearFragment()
	h.nav.Replace(nav.Location{Path: path})
}

// Detach abandons interest in a pending result: navigation and
// notifications that would follow it are skipped. The session itself is
// still established if the exchange succeeds.
func (h *Handler) Detach() {
	h.detached.Store(true)
}

func (h *Handler) apply(effects func()) {
	if h.detached.Load() {
		return
	}
	effects()
}
