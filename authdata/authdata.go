// Package authdata builds provider auth data maps for service log-in.
//
// The backend expects provider-specific payloads nested under
// authData.<provider>. These helpers produce the common shapes: anonymous
// users keyed by a random UUID, and OpenID Connect providers keyed by the
// id_token subject.
package authdata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Provider names understood by the backend's built-in adapters.
const (
	ProviderAnonymous = "anonymous"
	ProviderApple     = "apple"
	ProviderGoogle    = "google"
)

var (
	// ErrEmptyIDToken is returned when no token is supplied.
	ErrEmptyIDToken = errors.New("empty id token")
	// ErrMissingSubject is returned when the id token carries no "sub" claim.
	ErrMissingSubject = errors.New("id token has no subject")
)

// Anonymous returns auth data for an anonymous user with a fresh random id.
func Anonymous() map[string]any {
	return map[string]any{"id": uuid.NewString()}
}

// FromIDToken returns {"id": sub, "id_token": token} for an OpenID Connect
// provider.
//
// The signature is NOT verified here; the backend validates the token against
// the provider's keys. Parsing only extracts the subject the backend will
// match on.
func FromIDToken(idToken string) (map[string]any, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrEmptyIDToken
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err != nil {
		return nil, fmt.Errorf("parse id token: %w", err)
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return map[string]any{
		"id":       claims.Subject,
		"id_token": idToken,
	}, nil
}
