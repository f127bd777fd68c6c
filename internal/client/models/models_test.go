package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/carefollow/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleHome(t *testing.T) {
	assert.Equal(t, "/dashboard", RoleHome(RoleStaff))
	assert.Equal(t, "/portal", RoleHome(RolePatient))
	assert.Equal(t, "/dashboard", RoleHome(Role("")))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleStaff.Valid())
	assert.True(t, RolePatient.Valid())
	assert.False(t, Role("admin").Valid())
}

func TestUser_CloneIsDeep(t *testing.T) {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	u := &User{ID: "user_1", Role: RoleStaff, CreatedAt: &created}

	c := u.Clone()
	c.Role = RolePatient
	*c.CreatedAt = created.Add(time.Hour)

	assert.Equal(t, RoleStaff, u.Role)
	assert.Equal(t, created, *u.CreatedAt)
	assert.Nil(t, (*User)(nil).Clone())
}

func TestRegistration_Validate(t *testing.T) {
	valid := Registration{Name: "Dr. Ana", Email: "ana@example.com", Password: "secret1", Role: RoleStaff}

	tests := []struct {
		name   string
		mutate func(r *Registration)
		ok     bool
	}{
		{"valid", func(*Registration) {}, true},
		{"missing name", func(r *Registration) { r.Name = "" }, false},
		{"bad email", func(r *Registration) { r.Email = "ana.example.com" }, false},
		{"short password", func(r *Registration) { r.Password = "12345" }, false},
		{"unknown role", func(r *Registration) { r.Role = "admin" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestRegistration_NormalizeDefaultsRole(t *testing.T) {
	r := Registration{Name: "  Ana ", Email: " ana@example.com "}
	r.Normalize()

	assert.Equal(t, "Ana", r.Name)
	assert.Equal(t, "ana@example.com", r.Email)
	assert.Equal(t, RoleStaff, r.Role)
}

func TestAuthState_Authenticated(t *testing.T) {
	assert.False(t, AuthState{Phase: PhaseUnauthenticated}.Authenticated())
	assert.True(t, AuthState{Phase: PhaseAuthenticated, User: &User{ID: "u"}}.Authenticated())
}
