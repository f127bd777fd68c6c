// Package services contains application services for the CareFollow client.
// This file defines the session manager: restoring and validating a stored
// session at startup, password login, registration, external-session
// exchange and logout.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/carefollow/internal/client/client"
	"github.com/dmitrijs2005/carefollow/internal/client/credentials"
	"github.com/dmitrijs2005/carefollow/internal/client/models"
	"github.com/dmitrijs2005/carefollow/internal/common"
	"github.com/dmitrijs2005/carefollow/internal/logging"
	"golang.org/x/sync/semaphore"
)

// AuthService owns the process-wide auth state and the credential store.
//
// Contract:
//   - Initialize: restore a stored session once at startup, optionally
//     validating it against the backend.
//   - Login, Register, ExchangeExternalSession: establish a new session and
//     return the signed-in user so the caller can route by role.
//   - Logout: end the session locally, then tell the backend best effort.
//   - State, Subscribe: read the current state or follow every transition.
//   - AccessToken: the credential attached to outgoing requests.
//
// Login, Register, ExchangeExternalSession and Initialize never overlap; a
// call made while another is in flight fails with common.ErrOperationInProgress.
type AuthService interface {
	Initialize(ctx context.Context) (models.AuthState, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Register(ctx context.Context, reg models.Registration) (*models.User, error)
	ExchangeExternalSession(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context) error

	State() models.AuthState
	Subscribe(fn func(models.AuthState)) (cancel func())
	ExpiresAt() time.Time
	AccessToken() string
}

// Options tune an AuthService. The zero value skips startup validation and
// logs nothing.
type Options struct {
	// ValidateOnStartup probes the backend for the stored session's profile.
	ValidateOnStartup bool
	Logger            logging.Logger
	// Now is the clock used for token expiry checks.
	Now func() time.Time
}

// sessionBinder is implemented by clients that read the token from the
// session owner and report rejected credentials back to it.
type sessionBinder interface {
	SetTokenProvider(client.TokenProvider)
	SetUnauthorizedHandler(client.UnauthorizedHandler)
}

type subscriber struct {
	id uint64
	fn func(models.AuthState)
}

type authService struct {
	client            client.Client
	store             credentials.Store
	log               logging.Logger
	validateOnStartup bool
	now               func() time.Time

	ops         *semaphore.Weighted
	initStarted atomic.Bool

	// commitMu orders transitions and their delivery to subscribers.
	commitMu sync.Mutex

	mu      sync.RWMutex
	state   models.AuthState
	token   string
	expires time.Time
	epoch   uint64
	subs    []subscriber
	nextSub uint64
}

// NewAuthService constructs an AuthService over the given backend client and
// credential store. When c accepts a token provider and an unauthorized
// handler, the service installs itself as both.
func NewAuthService(c client.Client, store credentials.Store, opts Options) AuthService {
	a := &authService{
		client:            c,
		store:             store,
		log:               opts.Logger,
		validateOnStartup: opts.ValidateOnStartup,
		now:               opts.Now,
		ops:               semaphore.NewWeighted(1),
		state:             models.AuthState{Phase: models.PhaseUninitialized},
	}
	if a.log == nil {
		a.log = logging.Discard()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if b, ok := c.(sessionBinder); ok {
		b.SetTokenProvider(a)
		b.SetUnauthorizedHandler(a.handleUnauthorized)
	}
	return a
}

func (a *authService) State() models.AuthState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return copyState(a.state)
}

func (a *authService) AccessToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// ExpiresAt is the exp claim of the current token, zero when unknown.
func (a *authService) ExpiresAt() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.expires
}

// Subscribe registers fn for every subsequent transition. Calls are made
// synchronously, in order, from the goroutine that caused the transition.
// fn may read State but must not start another auth operation.
func (a *authService) Subscribe(fn func(models.AuthState)) (cancel func()) {
	a.mu.Lock()
	a.nextSub++
	id := a.nextSub
	a.subs = append(a.subs, subscriber{id: id, fn: fn})
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			for i, s := range a.subs {
				if s.id == id {
					a.subs = append(a.subs[:i:i], a.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Initialize restores the stored session. It runs once; later calls return
// the current state.
func (a *authService) Initialize(ctx context.Context) (models.AuthState, error) {
	if !a.initStarted.CompareAndSwap(false, true) {
		return a.State(), nil
	}
	if err := a.ops.Acquire(ctx, 1); err != nil {
		return a.State(), err
	}
	defer a.ops.Release(1)

	sess, err := a.store.Load(ctx)
	switch {
	case errors.Is(err, common.ErrNoSession):
		a.log.Debug(ctx, "no stored session")
		_, _ = a.endSession(ctx, "no stored session", nil)
		return a.State(), nil
	case err != nil:
		a.log.Error(ctx, "failed to read stored session", logging.Err(err))
		_, _ = a.endSession(ctx, "unreadable stored session", nil)
		return a.State(), fmt.Errorf("load session: %w", err)
	}

	if exp := tokenExpiry(sess.Token); !exp.IsZero() && !a.now().Before(exp) {
		a.log.Info(ctx, "stored session expired", "expired_at", exp)
		_, _ = a.endSession(ctx, "stored token expired", nil)
		return a.State(), nil
	}

	var probeEpoch uint64
	_, _ = a.commit(ctx, func(cur snapshot) (change, bool) {
		probeEpoch = cur.epoch + 1
		return change{
			state: models.AuthState{Phase: models.PhaseInitializing, User: sess.User.Clone(), Loading: true},
			token: sess.Token,
		}, true
	})

	if !a.validateOnStartup && sess.User != nil {
		_, _ = a.commit(ctx, func(cur snapshot) (change, bool) {
			if cur.epoch != probeEpoch {
				return change{}, false
			}
			return change{
				state: models.AuthState{Phase: models.PhaseAuthenticated, User: cur.state.User},
				token: cur.token,
			}, true
		})
		return a.State(), nil
	}

	user, err := a.client.Me(ctx)
	a.finishProbe(ctx, probeEpoch, sess.User, user, err)
	return a.State(), nil
}

// finishProbe applies the startup validation result unless another
// transition happened while the probe was in flight.
func (a *authService) finishProbe(ctx context.Context, epoch uint64, cached, user *models.User, err error) {
	current := func(cur snapshot) bool { return cur.epoch == epoch }

	switch {
	case err == nil && user != nil:
		if cached != nil && cached.Role != user.Role {
			a.log.Warn(ctx, "stored session role no longer matches profile",
				"cached_role", cached.Role, "role", user.Role)
			_, _ = a.endSession(ctx, "role changed", current)
			return
		}
		validated := user.Clone()
		_, _ = a.commit(ctx, func(cur snapshot) (change, bool) {
			if !current(cur) {
				return change{}, false
			}
			return change{
				state: models.AuthState{Phase: models.PhaseAuthenticated, User: validated},
				token: cur.token,
				persist: func(ctx context.Context) error {
					if err := a.store.Save(ctx, cur.token, validated); err != nil {
						a.log.Warn(ctx, "failed to refresh cached profile", logging.Err(err))
					}
					return nil
				},
			}, true
		})

	case errors.Is(err, common.ErrUnauthorized):
		_, _ = a.endSession(ctx, "stored session rejected", current)

	default:
		a.log.Warn(ctx, "could not validate stored session", logging.Err(err))
		_, _ = a.commit(ctx, func(cur snapshot) (change, bool) {
			if !current(cur) {
				return change{}, false
			}
			if cur.state.User == nil {
				// Nothing to show without a profile. The stored token stays
				// for the next start.
				return change{state: models.AuthState{Phase: models.PhaseUnauthenticated}}, true
			}
			return change{
				state: models.AuthState{Phase: models.PhaseAuthenticated, User: cur.state.User},
				token: cur.token,
			}, true
		})
	}
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	return a.signIn(ctx, "login", func(ctx context.Context) (*models.TokenResponse, error) {
		return a.client.Login(ctx, strings.TrimSpace(email), password)
	}, loginError)
}

// Register validates reg locally before anything is sent.
func (a *authService) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	reg.Normalize()
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return a.signIn(ctx, "register", func(ctx context.Context) (*models.TokenResponse, error) {
		return a.client.Register(ctx, reg)
	}, registerError)
}

// ExchangeExternalSession redeems a one-time token from the external identity
// provider. The backend consumes the token on the first call, so callers
// must attempt each value at most once.
func (a *authService) ExchangeExternalSession(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, common.ErrMissingExchangeToken
	}
	return a.signIn(ctx, "external session exchange", func(ctx context.Context) (*models.TokenResponse, error) {
		return a.client.ExchangeSession(ctx, token)
	}, exchangeError)
}

// Logout ends the session locally and then notifies the backend. The
// returned error only reports a failure to clear the credential store.
func (a *authService) Logout(ctx context.Context) error {
	token, err := a.endSession(ctx, "logout", nil)
	if token != "" {
		if nerr := a.client.Logout(ctx, token); nerr != nil {
			a.log.Debug(ctx, "backend logout failed", logging.Err(nerr))
		}
	}
	return err
}

func (a *authService) signIn(
	ctx context.Context,
	op string,
	call func(context.Context) (*models.TokenResponse, error),
	mapErr func(error) error,
) (*models.User, error) {
	if !a.ops.TryAcquire(1) {
		return nil, common.ErrOperationInProgress
	}
	defer a.ops.Release(1)

	a.setLoading(ctx, true)

	resp, err := call(ctx)
	if err == nil {
		err = checkTokenResponse(resp)
	}
	if err != nil {
		a.setLoading(ctx, false)
		a.log.Info(ctx, op+" failed", logging.Err(err))
		return nil, mapErr(err)
	}

	user := resp.User
	token := resp.AccessToken

	// A new sign-in always starts a new session.
	if a.State().Phase == models.PhaseAuthenticated {
		_, _ = a.endSession(ctx, "replaced by "+op, nil)
	}

	_, err = a.commit(ctx, func(cur snapshot) (change, bool) {
		return change{
			state: models.AuthState{Phase: models.PhaseAuthenticated, User: user.Clone()},
			token: token,
			persist: func(ctx context.Context) error {
				return a.store.Save(ctx, token, &user)
			},
		}, true
	})
	if err != nil {
		a.setLoading(ctx, false)
		return nil, fmt.Errorf("save session: %w", err)
	}
	return user.Clone(), nil
}

func (a *authService) setLoading(ctx context.Context, loading bool) {
	_, _ = a.commit(ctx, func(cur snapshot) (change, bool) {
		next := cur.state
		next.Loading = loading
		if next.Phase == models.PhaseUninitialized {
			next.Phase = models.PhaseUnauthenticated
		}
		return change{state: next, token: cur.token}, true
	})
}

// handleUnauthorized is called by the client when the backend rejects a
// credential. Replies to requests sent under an older session are ignored.
func (a *authService) handleUnauthorized(ctx context.Context, rejected string) {
	ended, _ := a.endSession(ctx, "authorization expired", func(cur snapshot) bool {
		return rejected != "" && cur.token == rejected
	})
	if ended == "" {
		a.log.Debug(ctx, "ignoring authorization failure for a previous session")
	}
}

// endSession clears the credential store and moves to unauthenticated when
// match accepts the current session (nil matches any). It returns the token
// that was dropped and any store error; the in-memory teardown happens
// regardless of the store.
func (a *authService) endSession(ctx context.Context, reason string, match func(snapshot) bool) (string, error) {
	var (
		dropped  string
		clearErr error
	)
	applied, _ := a.commit(ctx, func(cur snapshot) (change, bool) {
		if match != nil && !match(cur) {
			return change{}, false
		}
		dropped = cur.token
		return change{
			state: models.AuthState{Phase: models.PhaseUnauthenticated},
			persist: func(ctx context.Context) error {
				if err := a.store.Clear(context.WithoutCancel(ctx)); err != nil {
					a.log.Error(ctx, "failed to clear stored session", logging.Err(err))
					clearErr = fmt.Errorf("clear session: %w", err)
				}
				return nil
			},
		}, true
	})
	if applied && dropped != "" {
		a.log.Info(ctx, "session ended", "reason", reason)
	}
	return dropped, clearErr
}

type snapshot struct {
	state models.AuthState
	token string
	epoch uint64
}

type change struct {
	state models.AuthState
	token string
	// persist runs before the in-memory state changes. An error aborts the
	// transition.
	persist func(context.Context) error
}

var errRoleChange = errors.New("role cannot change within a session")

// commit applies one transition computed by update from the current
// snapshot. Transitions are serialized; each one bumps the epoch and is
// delivered to subscribers before the next begins.
func (a *authService) commit(ctx context.Context, update func(cur snapshot) (change, bool)) (bool, error) {
	a.commitMu.Lock()
	defer a.commitMu.Unlock()

	a.mu.RLock()
	cur := snapshot{state: copyState(a.state), token: a.token, epoch: a.epoch}
	a.mu.RUnlock()

	next, ok := update(cur)
	if !ok {
		return false, nil
	}
	if cur.state.Phase == models.PhaseAuthenticated && next.state.Phase == models.PhaseAuthenticated &&
		cur.state.User != nil && next.state.User != nil && cur.state.User.Role != next.state.User.Role {
		return false, errRoleChange
	}

	if next.persist != nil {
		if err := next.persist(ctx); err != nil {
			return false, err
		}
	}

	a.mu.Lock()
	prev := a.state
	a.state = next.state
	a.token = next.token
	a.expires = time.Time{}
	if next.token != "" {
		a.expires = tokenExpiry(next.token)
	}
	a.epoch++
	subs := make([]subscriber, len(a.subs))
	copy(subs, a.subs)
	a.mu.Unlock()

	if prev.Phase != next.state.Phase {
		var role models.Role
		if next.state.User != nil {
			role = next.state.User.Role
		}
		a.log.Info(ctx, "auth state changed", "from", prev.Phase, "to", next.state.Phase, "role", role)
	}

	for _, s := range subs {
		s.fn(copyState(next.state))
	}
	return true, nil
}

func copyState(s models.AuthState) models.AuthState {
	s.User = s.User.Clone()
	return s
}

func checkTokenResponse(resp *models.TokenResponse) error {
	switch {
	case resp == nil || resp.AccessToken == "":
		return errors.New("invalid response from backend: missing access token")
	case !resp.User.Role.Valid():
		return fmt.Errorf("invalid response from backend: unknown role %q", resp.User.Role)
	}
	return nil
}

func loginError(err error) error {
	if errors.Is(err, common.ErrUnauthorized) {
		return fmt.Errorf("%w: %w", common.ErrInvalidCredentials, err)
	}
	return err
}

func registerError(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, common.ErrConflict):
		return fmt.Errorf("%w: %w", common.ErrDuplicateAccount, err)
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Detail), "already"):
		return fmt.Errorf("%w: %w", common.ErrDuplicateAccount, err)
	case errors.Is(err, common.ErrBadRequest), errors.Is(err, common.ErrValidation):
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	return err
}

func exchangeError(err error) error {
	if errors.Is(err, common.ErrUnauthorized) || errors.Is(err, common.ErrBadRequest) || errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%w: %w", common.ErrInvalidOrExpiredToken, err)
	}
	return err
}
