package cli

import (
	"context"

	"github.com/dmitrijs2005/carefollow/internal/client/callback"
	"github.com/dmitrijs2005/carefollow/internal/client/gate"
	"github.com/dmitrijs2005/carefollow/internal/client/models"
	"github.com/dmitrijs2005/carefollow/internal/client/nav"
)

// Open navigates to raw, a path or a full URL. A location carrying an
// exchange token is a provider callback whatever its path.
func (a *App) Open(ctx context.Context, raw string) error {
	loc := nav.Parse(raw)
	if callback.HasExchangeToken(loc) {
		a.nav.Push(loc)
		return a.handleCallback(ctx)
	}
	return a.show(ctx, loc)
}

// Back returns to the previous screen, gating it again for the current user.
func (a *App) Back(ctx context.Context) error {
	loc, ok := a.nav.Back()
	if !ok {
		a.println("No previous screen")
		return nil
	}
	d := a.routes.Resolve(a.auth.State(), loc.Path)
	if d.Outcome == gate.RedirectLogin || d.Outcome == gate.RedirectRoleHome {
		a.nav.Replace(nav.Location{Path: d.Target, From: d.From})
	}
	return a.render(ctx)
}

// show gates loc and renders what the gate allows. A redirect replaces the
// attempted location, so it never appears in the history.
func (a *App) show(ctx context.Context, loc nav.Location) error {
	d := a.routes.Resolve(a.auth.State(), loc.Path)
	switch d.Outcome {
	case gate.Wait:
		a.println("Loading...")
		return nil
	case gate.Render:
		a.nav.Push(loc)
	case gate.RedirectLogin, gate.RedirectRoleHome:
		a.log.Debug(ctx, "navigation redirected", "path", loc.Path, "outcome", d.Outcome.String(), "target", d.Target)
		a.nav.Push(nav.Location{Path: d.Target, From: d.From})
	}
	return a.render(ctx)
}

// afterSignIn opens the remembered location when the new user may see it,
// the role home otherwise.
func (a *App) afterSignIn(ctx context.Context, user *models.User) error {
	target := a.routes.ReturnTarget(user, a.nav.Current().From)
	return a.show(ctx, nav.Parse(target))
}

// handleCallback exchanges the token in the current location. Each call is a
// fresh page load with its own handler.
func (a *App) handleCallback(ctx context.Context) error {
	h := callback.NewHandler(a.auth, a.nav, a.notify, a.log.With("component", "callback"))
	_, err := h.Activate(ctx)
	rerr := a.render(ctx)
	if err != nil {
		return err
	}
	return rerr
}
