package goParse

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/MrEthical07/goParse/rest"
)

func TestDecodeUser(t *testing.T) {
	res := rest.Result{
		Meta: rest.ResponseMeta{StatusCode: http.StatusCreated},
		Object: map[string]any{
			"objectId":      "u1",
			"username":      "alice",
			"email":         "a@example.com",
			"emailVerified": false,
			"sessionToken":  "r:abc",
			"createdAt":     "2024-03-01T10:11:12.345Z",
			"updatedAt":     map[string]any{"__type": "Date", "iso": "2024-03-02T00:00:00.000Z"},
			"authData":      map[string]any{"anonymous": map[string]any{"id": "x"}},
			"nickname":      "al",
		},
	}

	u, err := DecodeUser(res)
	if err != nil {
		t.Fatalf("DecodeUser failed: %v", err)
	}
	if u.ObjectID != "u1" || u.Username != "alice" || u.Email != "a@example.com" {
		t.Fatalf("unexpected identity fields %+v", u)
	}
	if u.EmailVerified == nil || *u.EmailVerified {
		t.Fatal("emailVerified must decode to false")
	}
	if !u.IsNew {
		t.Fatal("201 must mark the user as new")
	}
	if !u.HasRevocableSession() {
		t.Fatal("r: token must be revocable")
	}
	want := time.Date(2024, 3, 1, 10, 11, 12, 345_000_000, time.UTC)
	if !u.CreatedAt.Equal(want) {
		t.Fatalf("createdAt: expected %v, got %v", want, u.CreatedAt)
	}
	if u.UpdatedAt.Day() != 2 {
		t.Fatalf("updatedAt not decoded: %v", u.UpdatedAt)
	}
	if u.Extra["nickname"] != "al" {
		t.Fatalf("unknown fields must be kept in Extra: %v", u.Extra)
	}
	if _, ok := u.AuthData["anonymous"]; !ok {
		t.Fatal("authData not decoded")
	}
}

func TestDecodeUserStatus200IsNotNew(t *testing.T) {
	u, err := DecodeUser(rest.Result{
		Meta:   rest.ResponseMeta{StatusCode: http.StatusOK},
		Object: map[string]any{"objectId": "u1", "sessionToken": "legacy"},
	})
	if err != nil {
		t.Fatalf("DecodeUser failed: %v", err)
	}
	if u.IsNew || u.HasRevocableSession() {
		t.Fatalf("unexpected flags %+v", u)
	}
}

func TestDecodeUserRejectsNonUser(t *testing.T) {
	if _, err := DecodeUser(rest.Result{Object: map[string]any{}}); !errors.Is(err, ErrUserDecode) {
		t.Fatalf("expected ErrUserDecode, got %v", err)
	}
	_, err := DecodeUser(rest.Result{Object: map[string]any{"objectId": "u", "createdAt": "yesterday"}})
	if !errors.Is(err, ErrUserDecode) {
		t.Fatalf("expected ErrUserDecode for bad date, got %v", err)
	}
}

func TestIsRevocableSessionToken(t *testing.T) {
	cases := map[string]bool{
		"r:0123":  true,
		"":        false,
		"abc":     false,
		"R:upper": false,
	}
	for token, want := range cases {
		if got := IsRevocableSessionToken(token); got != want {
			t.Fatalf("%q: expected %v, got %v", token, want, got)
		}
	}
}

func TestWithAuditMetadataDoesNotMutateParent(t *testing.T) {
	parent := WithAuditMetadata(context.Background(), "tenant", "a")
	child := WithAuditMetadata(parent, "tenant", "b")

	if auditMetadataFromContext(parent)["tenant"] != "a" {
		t.Fatal("parent metadata mutated")
	}
	if auditMetadataFromContext(child)["tenant"] != "b" {
		t.Fatal("child must override")
	}
	if auditMetadataFromContext(context.Background()) != nil {
		t.Fatal("empty context has no metadata")
	}
}
