package services

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/shiftswap/internal/shared"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestCredentialStore(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		if _, err := NewCredentialStore().Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Opaque Token", func(t *testing.T) {
		creds := NewCredentialStore()
		creds.Set("abc")

		tok, err := creds.Token()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok.AccessToken != "abc" || !tok.Expiry.IsZero() {
			t.Errorf("unexpected token %+v", tok)
		}
	})

	t.Run("JWT Carries Expiry", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		creds := NewCredentialStore()
		creds.Set(signedToken(t, exp))

		tok, err := creds.Token()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !tok.Expiry.Equal(exp) {
			t.Errorf("expected expiry %v, got %v", exp, tok.Expiry)
		}
	})

	t.Run("Expired JWT", func(t *testing.T) {
		creds := NewCredentialStore()
		creds.Set(signedToken(t, time.Now().Add(-time.Minute)))

		if _, err := creds.Token(); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		creds := NewCredentialStore()
		creds.Set("abc")
		creds.Clear()
		if creds.Get() != "" {
			t.Error("expected empty credential after clear")
		}
	})
}

func TestCheckCredential(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wanted error
	}{
		{"empty", "", shared.ErrInvalidCredential},
		{"opaque", "not-a-jwt", nil},
		{"valid jwt", signedToken(t, time.Now().Add(time.Hour)), nil},
		{"expired jwt", signedToken(t, time.Now().Add(-time.Hour)), shared.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCredential(tt.raw)
			if tt.wanted == nil && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if tt.wanted != nil && !errors.Is(err, tt.wanted) {
				t.Errorf("expected %v, got %v", tt.wanted, err)
			}
		})
	}
}
