// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleApplicant = "APPLICANT"
	RoleOfficer   = "OFFICER"
)

// User is an account that can authenticate against the API.
// Officers adjudicate applications; applicants submit them.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
