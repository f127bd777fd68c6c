package gate

import (
	"net/url"
	"strings"

	"github.com/dmitrijs2005/carefollow/internal/client/models"
)

type Outcome int

const (
	// Wait shows a neutral loading screen; no redirect is made.
	Wait Outcome = iota
	// RedirectLogin sends an anonymous user to the login screen.
	RedirectLogin
	// RedirectRoleHome sends a signed-in user to their own home screen.
	RedirectRoleHome
	// Render shows the requested screen.
	Render
)

func (o Outcome) String() string {
	switch o {
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect-login"
	case RedirectRoleHome:
		return "redirect-role-home"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Decision is the result of gating one navigation.
type Decision struct {
	Outcome Outcome
	// Target is the location to show: the requested one for Render, the
	// redirect destination otherwise. Empty for Wait.
	Target string
	// From is the attempted location remembered for the post-login return.
	// Set only for RedirectLogin.
	From string
}

// Decide gates a navigation to route. from is the location that was
// requested. Public routes always render; protected routes follow the
// session:
//
//	loading                 -> Wait
//	no user                 -> RedirectLogin, remembering from
//	role allowed            -> Render
//	role not allowed        -> RedirectRoleHome
func Decide(state models.AuthState, route Route, from string) Decision {
	if route.Public {
		return Decision{Outcome: Render, Target: from}
	}
	if state.Loading {
		return Decision{Outcome: Wait}
	}
	if !state.Authenticated() {
		return Decision{Outcome: RedirectLogin, Target: models.LoginPath, From: SafeReturn(from)}
	}
	if route.Allows(state.User.Role) {
		return Decision{Outcome: Render, Target: from}
	}
	return Decision{Outcome: RedirectRoleHome, Target: models.RoleHome(state.User.Role)}
}

// Resolve matches path against t and gates it. "/" and unknown paths go to
// the login screen without remembering anything.
func (t Table) Resolve(state models.AuthState, path string) Decision {
	route, ok := t.Match(path)
	if !ok {
		return Decision{Outcome: RedirectLogin, Target: models.LoginPath}
	}
	return Decide(state, route, path)
}

// ReturnTarget picks where to go right after sign-in: the remembered
// location when it would render for user, the role home otherwise.
func (t Table) ReturnTarget(user *models.User, from string) string {
	home := models.RoleHome(user.Role)
	from = SafeReturn(from)
	if from == "" {
		return home
	}
	route, ok := t.Match(from)
	if !ok || route.Public {
		return home
	}
	d := Decide(models.AuthState{Phase: models.PhaseAuthenticated, User: user}, route, from)
	if d.Outcome != Render {
		return home
	}
	return from
}

// SafeReturn keeps from only when it is a local absolute path. Anything
// with a scheme, a host or a protocol-relative prefix is dropped.
func SafeReturn(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.Contains(from, `\`) {
		return ""
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return from
}
