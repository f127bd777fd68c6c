// Package models defines client-side data models used by the CareFollow CLI.
package models

import "time"

// Role is the authorization role carried by a user profile.
type Role string

const (
	RoleStaff   Role = "staff"
	RolePatient Role = "patient"
)

// Role home screens. These are the only redirect targets the access gate
// uses for a signed-in user on a route they may not open.
const (
	StaffHome   = "/dashboard"
	PatientHome = "/portal"
	LoginPath   = "/login"
)

func (r Role) Valid() bool {
	return r == RoleStaff || r == RolePatient
}

// RoleHome returns the default screen for r. Unknown roles are treated as
// staff, which is what the backend assigns to new external-provider users.
func RoleHome(r Role) string {
	if r == RolePatient {
		return PatientHome
	}
	return StaffHome
}

// User is the profile snapshot returned by the backend with every token.
type User struct {
	ID        string     `json:"user_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Phone     string     `json:"phone,omitempty"`
	Picture   string     `json:"picture,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Clone returns a copy that shares no pointers with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.CreatedAt != nil {
		t := *u.CreatedAt
		c.CreatedAt = &t
	}
	return &c
}
