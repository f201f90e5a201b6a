package models

import (
	"time"

	"github.com/amirk1998/recipe-box/internal/security"
)

type User struct {
	ID                  int             `json:"id"`
	Username            string          `json:"username"`
	ImageURL            string          `json:"image_url"`
	Bio                 string          `json:"bio"`
	PasswordDigest      security.Digest `json:"-"` // write-only; never exposed
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	LastLogin           *time.Time      `json:"last_login,omitempty"`
	FailedLoginAttempts int             `json:"-"`
	LockedUntil         *time.Time      `json:"-"`
}

// Profile is the public projection of a user: the only user shape that
// crosses the API boundary.
type Profile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
	Bio      string `json:"bio"`
}

// Profile returns the public projection of the user
func (u *User) Profile() *Profile {
	return &Profile{
		ID:       u.ID,
		Username: u.Username,
		ImageURL: u.ImageURL,
		Bio:      u.Bio,
	}
}

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	ImageURL string `json:"image_url"`
	Bio      string `json:"bio"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
