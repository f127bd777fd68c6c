package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/carefollow/internal/common"
)

const MinPasswordLength = 6

// Registration is the sign-up form. Role defaults to staff.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `json:"role"`
}

// Normalize trims fields and applies the default role.
func (r *Registration) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Role == "" {
		r.Role = RoleStaff
	}
}

// Validate checks the form before anything is sent. Errors wrap
// common.ErrValidation.
func (r Registration) Validate() error {
	switch {
	case r.Name == "":
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	case !strings.Contains(r.Email, "@"):
		return fmt.Errorf("%w: email is invalid", common.ErrValidation)
	case len(r.Password) < MinPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, MinPasswordLength)
	case !r.Role.Valid():
		return fmt.Errorf("%w: unknown role %q", common.ErrValidation, r.Role)
	}
	return nil
}
