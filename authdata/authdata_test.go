package authdata

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return token
}

func TestAnonymousUsesRandomUUID(t *testing.T) {
	a := Anonymous()
	b := Anonymous()

	id, ok := a["id"].(string)
	if !ok {
		t.Fatalf("expected string id, got %#v", a["id"])
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("id is not a uuid: %v", err)
	}
	if a["id"] == b["id"] {
		t.Fatal("anonymous ids must differ")
	}
}

func TestFromIDTokenExtractsSubject(t *testing.T) {
	token := signedToken(t, jwt.RegisteredClaims{Subject: "001234.abcd", Issuer: "https://appleid.apple.com"})

	data, err := FromIDToken(token)
	if err != nil {
		t.Fatalf("FromIDToken failed: %v", err)
	}
	if data["id"] != "001234.abcd" {
		t.Fatalf("unexpected id %#v", data["id"])
	}
	if data["id_token"] != token {
		t.Fatal("id_token must be passed through unchanged")
	}
}

func TestFromIDTokenRejectsBadInput(t *testing.T) {
	if _, err := FromIDToken("  "); !errors.Is(err, ErrEmptyIDToken) {
		t.Fatalf("expected ErrEmptyIDToken, got %v", err)
	}
	if _, err := FromIDToken("not-a-jwt"); err == nil {
		t.Fatal("expected parse error")
	}

	noSub := signedToken(t, jwt.RegisteredClaims{Issuer: "https://accounts.google.com"})
	if _, err := FromIDToken(noSub); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}
}
