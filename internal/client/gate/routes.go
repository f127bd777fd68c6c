// Package gate decides, for every navigation, whether a screen may render
// for the current auth state.
package gate

import (
	"strings"

	"github.com/dmitrijs2005/carefollow/internal/client/models"
)

// Route is one screen of the portal.
type Route struct {
	// Pattern is a slash-separated path; segments starting with ':' match
	// any single segment.
	Pattern string
	// Public routes render without a session.
	Public bool
	// Roles lists the roles allowed on a protected route. Empty means any
	// signed-in user.
	Roles []models.Role
}

func (r Route) Allows(role models.Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Params extracts the values of r's ':name' segments from path. It assumes
// path matches r.
func (r Route) Params(path string) map[string]string {
	params := map[string]string{}
	want := splitPath(r.Pattern)
	got := splitPath(path)
	for i, seg := range want {
		if strings.HasPrefix(seg, ":") && i < len(got) {
			params[seg[1:]] = got[i]
		}
	}
	return params
}

func (r Route) match(path string) bool {
	want := splitPath(r.Pattern)
	got := splitPath(path)
	if len(want) != len(got) {
		return false
	}
	for i, seg := range want {
		if strings.HasPrefix(seg, ":") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if seg != got[i] {
			return false
		}
	}
	return true
}

// Table is an ordered list of routes; the first match wins, so static
// patterns go before parameterized ones.
type Table []Route

// Match returns the route for path. ok is false for "/" and unknown paths,
// which the application sends to the login screen.
func (t Table) Match(path string) (Route, bool) {
	path, _, _ = strings.Cut(path, "#")
	path, _, _ = strings.Cut(path, "?")
	for _, r := range t {
		if r.match(path) {
			return r, true
		}
	}
	return Route{}, false
}

var (
	staffOnly   = []models.Role{models.RoleStaff}
	patientOnly = []models.Role{models.RolePatient}
)

// Portal is the route table of the CareFollow client.
var Portal = Table{
	{Pattern: models.LoginPath, Public: true},
	{Pattern: "/register", Public: true},
	{Pattern: CallbackPath, Public: true},

	{Pattern: models.StaffHome, Roles: staffOnly},
	{Pattern: "/patients", Roles: staffOnly},
	{Pattern: "/patients/:patientId", Roles: staffOnly},
	{Pattern: "/appointments", Roles: staffOnly},
	{Pattern: "/appointments/new", Roles: staffOnly},
	{Pattern: "/instructions", Roles: staffOnly},
	{Pattern: "/reminders", Roles: staffOnly},
	{Pattern: "/followups", Roles: staffOnly},

	{Pattern: models.PatientHome, Roles: patientOnly},
}

// CallbackPath is where the external identity provider sends the user back.
const CallbackPath = "/auth/callback"

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
