package gate

import (
	"testing"

	"github.com/dmitrijs2005/carefollow/internal/client/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var (
	staffUser   = &models.User{ID: "s", Role: models.RoleStaff}
	patientUser = &models.User{ID: "p", Role: models.RolePatient}
)

func signedIn(u *models.User) models.AuthState {
	return models.AuthState{Phase: models.PhaseAuthenticated, User: u}
}

func TestDecide_Table(t *testing.T) {
	dashboard, _ := Portal.Match("/dashboard")
	portal, _ := Portal.Match("/portal")
	anyRole := Route{Pattern: "/profile"}

	tests := []struct {
		name  string
		state models.AuthState
		route Route
		from  string
		want  Decision
	}{
		{
			name:  "loading waits even without user",
			state: models.AuthState{Phase: models.PhaseInitializing, Loading: true},
			route: dashboard, from: "/dashboard",
			want: Decision{Outcome: Wait},
		},
		{
			name:  "loading waits with cached user",
			state: models.AuthState{Phase: models.PhaseInitializing, User: staffUser, Loading: true},
			route: dashboard, from: "/dashboard",
			want: Decision{Outcome: Wait},
		},
		{
			name:  "anonymous goes to login remembering location",
			state: models.AuthState{Phase: models.PhaseUnauthenticated},
			route: dashboard, from: "/dashboard",
			want: Decision{Outcome: RedirectLogin, Target: "/login", From: "/dashboard"},
		},
		{
			name:  "any role route renders",
			state: signedIn(patientUser),
			route: anyRole, from: "/profile",
			want: Decision{Outcome: Render, Target: "/profile"},
		},
		{
			name:  "allowed role renders",
			state: signedIn(staffUser),
			route: dashboard, from: "/dashboard",
			want: Decision{Outcome: Render, Target: "/dashboard"},
		},
		{
			name:  "patient on staff route goes to portal not login",
			state: signedIn(patientUser),
			route: dashboard, from: "/dashboard",
			want: Decision{Outcome: RedirectRoleHome, Target: "/portal"},
		},
		{
			name:  "staff on patient route goes to dashboard",
			state: signedIn(staffUser),
			route: portal, from: "/portal",
			want: Decision{Outcome: RedirectRoleHome, Target: "/dashboard"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.state, tt.route, tt.from)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Decide mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecide_PublicRoutesRenderWhileLoading(t *testing.T) {
	login, ok := Portal.Match("/login")
	assert.True(t, ok)

	d := Decide(models.AuthState{Loading: true}, login, "/login")
	assert.Equal(t, Render, d.Outcome)
}

func TestMatch(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		ok      bool
	}{
		{"/dashboard", "/dashboard", true},
		{"/dashboard/", "/dashboard", true},
		{"/patients/p_123", "/patients/:patientId", true},
		{"/appointments/new", "/appointments/new", true},
		{"/auth/callback#session_id=x", "/auth/callback", true},
		{"/patients?q=ana", "/patients", true},
		{"/", "", false},
		{"/admin", "", false},
		{"/patients/p/visits", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, ok := Portal.Match(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.pattern, r.Pattern)
		})
	}
}

func TestRoute_Params(t *testing.T) {
	r, ok := Portal.Match("/patients/p_123")
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"patientId": "p_123"}, r.Params("/patients/p_123"))
}

func TestResolve_UnknownGoesToLogin(t *testing.T) {
	for _, p := range []string{"/", "/nope"} {
		d := Portal.Resolve(signedIn(staffUser), p)
		assert.Equal(t, Decision{Outcome: RedirectLogin, Target: "/login"}, d, p)
	}
}

func TestResolve_RemembersFullLocation(t *testing.T) {
	d := Portal.Resolve(models.AuthState{Phase: models.PhaseUnauthenticated}, "/patients/p_9")
	assert.Equal(t, RedirectLogin, d.Outcome)
	assert.Equal(t, "/patients/p_9", d.From)
}

func TestReturnTarget(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		from string
		want string
	}{
		{"no remembered location", staffUser, "", "/dashboard"},
		{"remembered and allowed", staffUser, "/patients/p_1", "/patients/p_1"},
		{"remembered but wrong role", patientUser, "/patients/p_1", "/portal"},
		{"remembered public route", staffUser, "/register", "/dashboard"},
		{"remembered unknown", patientUser, "/nowhere", "/portal"},
		{"absolute url rejected", staffUser, "https://evil.test/dashboard", "/dashboard"},
		{"protocol relative rejected", staffUser, "//evil.test/dashboard", "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Portal.ReturnTarget(tt.user, tt.from))
		})
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "wait", Wait.String())
	assert.Equal(t, "redirect-role-home", RedirectRoleHome.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
