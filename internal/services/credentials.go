package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/desertthunder/shiftswap/internal/shared"
)

var _ oauth2.TokenSource = (*CredentialStore)(nil)

// CredentialStore holds the bearer credential of the current session.
//
// It is an [oauth2.TokenSource], so an [oauth2.Transport] always sends the latest credential.
type CredentialStore struct {
	mu    sync.RWMutex
	token string
}

// NewCredentialStore creates an empty [CredentialStore].
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

// Set replaces the held credential.
func (c *CredentialStore) Set(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Clear drops the held credential.
func (c *CredentialStore) Clear() {
	c.Set("")
}

// Get returns the held credential, or "" when none is held.
func (c *CredentialStore) Get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Token implements [oauth2.TokenSource].
func (c *CredentialStore) Token() (*oauth2.Token, error) {
	raw := c.Get()
	if raw == "" {
		return nil, shared.ErrNotAuthenticated
	}

	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if exp, ok := CredentialExpiry(raw); ok {
		if time.Now().After(exp) {
			return nil, shared.ErrTokenExpired
		}
		tok.Expiry = exp
	}
	return tok, nil
}

// CredentialExpiry reads the exp claim of a JWT credential without verifying its signature.
//
// ok is false when raw is not a JWT or carries no exp claim; opaque credentials never expire
// client-side.
func CredentialExpiry(raw string) (exp time.Time, ok bool) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}

	date, err := token.Claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// CheckCredential reports whether raw is usable as a credential right now.
func CheckCredential(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty credential", shared.ErrInvalidCredential)
	}
	if exp, ok := CredentialExpiry(raw); ok && time.Now().After(exp) {
		return fmt.Errorf("%w: expired at %s", shared.ErrTokenExpired, exp.Format(time.RFC3339))
	}
	return nil
}
