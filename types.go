package goParse

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goParse/rest"
	"github.com/MrEthical07/goParse/task"
)

const (
	// revocableTokenPrefix marks session tokens issued under the revocable
	// session model.
	revocableTokenPrefix = "r:"

	backendTimeLayout = "2006-01-02T15:04:05.000Z"
)

// User is the decoded user object returned by the user commands.
//
// Fields the backend returns that have no dedicated field are kept in Extra.
type User struct {
	ObjectID      string
	Username      string
	Email         string
	EmailVerified *bool
	SessionToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	AuthData      map[string]any

	// IsNew is true when the backend answered 201 Created, which service
	// log-in uses to signal a freshly created account.
	IsNew bool

	Extra map[string]any
}

// HasRevocableSession reports whether SessionToken was issued under the
// revocable session model.
func (u User) HasRevocableSession() bool {
	return IsRevocableSessionToken(u.SessionToken)
}

// IsRevocableSessionToken reports whether token carries the revocable
// session prefix.
func IsRevocableSessionToken(token string) bool {
	return strings.HasPrefix(token, revocableTokenPrefix)
}

// DecodeUser converts a command result into a [User]. A result without an
// objectId is rejected with ErrUserDecode.
func DecodeUser(res rest.Result) (User, error) {
	obj := res.Object
	id, _ := obj["objectId"].(string)
	if id == "" {
		return User{}, fmt.Errorf("%w: missing objectId", ErrUserDecode)
	}

	u := User{
		ObjectID: id,
		IsNew:    res.Meta.StatusCode == http.StatusCreated,
		Extra:    map[string]any{},
	}

	for key, value := range obj {
		switch key {
		case "objectId":
		case "username":
			u.Username, _ = value.(string)
		case "email":
			u.Email, _ = value.(string)
		case "emailVerified":
			if b, ok := value.(bool); ok {
				u.EmailVerified = &b
			}
		case "sessionToken":
			u.SessionToken, _ = value.(string)
		case "createdAt", "updatedAt":
			t, err := parseBackendTime(value)
			if err != nil {
				return User{}, fmt.Errorf("%w: %s: %v", ErrUserDecode, key, err)
			}
			if key == "createdAt" {
				u.CreatedAt = t
			} else {
				u.UpdatedAt = t
			}
		case "authData":
			u.AuthData, _ = value.(map[string]any)
		default:
			u.Extra[key] = value
		}
	}

	return u, nil
}

// Dates arrive either as bare ISO strings or as {"__type":"Date","iso":...}.
func parseBackendTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case string:
		return time.Parse(backendTimeLayout, t)
	case map[string]any:
		if t["__type"] != "Date" {
			return time.Time{}, fmt.Errorf("unexpected __type %v", t["__type"])
		}
		iso, _ := t["iso"].(string)
		return time.Parse(backendTimeLayout, iso)
	default:
		return time.Time{}, fmt.Errorf("unexpected date value %T", v)
	}
}

// UserTask chains [DecodeUser] onto call.
func UserTask(call *rest.Call) *task.Task[User] {
	return task.Then(call.Task(), func(res rest.Result, err error) (User, error) {
		if err != nil {
			return User{}, err
		}
		return DecodeUser(res)
	})
}

// AwaitUser waits for call and decodes the user it returned.
func AwaitUser(ctx context.Context, call *rest.Call) (User, error) {
	return UserTask(call).Await(ctx)
}
