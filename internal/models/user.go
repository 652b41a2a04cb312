package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/shiftswap/internal/shared"
)

// User is an account as returned by the backend.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Ref returns the [UserRef] form of u.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name}
}

// Session is the authenticated identity and credential held by the client.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// UserID returns the session owner's id.
func (s Session) UserID() string { return s.User.ID }

// Validate reports whether the session carries both an identity and a credential.
func (s Session) Validate() error {
	if strings.TrimSpace(s.Token) == "" {
		return fmt.Errorf("%w: empty credential", shared.ErrSessionMalformed)
	}
	if strings.TrimSpace(s.User.ID) == "" {
		return fmt.Errorf("%w: missing user id", shared.ErrSessionMalformed)
	}
	return nil
}
