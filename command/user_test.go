package command

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goParse/encoder"
	"github.com/MrEthical07/goParse/rest"
)

func assertSpec(t *testing.T, cmd *UserCommand, path string, method rest.Method, kind rest.BodyKind, fields map[string]any, token string, revocable bool) {
	t.Helper()

	spec := cmd.Spec()
	if spec.Path() != path {
		t.Fatalf("path: expected %q, got %q", path, spec.Path())
	}
	if spec.Method() != method {
		t.Fatalf("method: expected %s, got %s", method, spec.Method())
	}
	if spec.Body().Kind() != kind {
		t.Fatalf("body kind: expected %s, got %s", kind, spec.Body().Kind())
	}
	if !reflect.DeepEqual(spec.Body().Fields(), fields) {
		t.Fatalf("body: expected %#v, got %#v", fields, spec.Body().Fields())
	}
	if spec.SessionToken() != token {
		t.Fatalf("session token: expected %q, got %q", token, spec.SessionToken())
	}
	if spec.RevocableSession() != revocable {
		t.Fatalf("revocable: expected %v, got %v", revocable, spec.RevocableSession())
	}
}

func TestGetCurrentUserShape(t *testing.T) {
	cmd := GetCurrentUser("r:session")
	assertSpec(t, cmd, "users/me", rest.MethodGet, rest.BodyNone, nil, "r:session", false)
	if cmd.Operation() != OpCurrentUser {
		t.Fatalf("unexpected operation %s", cmd.Operation())
	}
}

func TestSignUpShape(t *testing.T) {
	params := map[string]any{"username": "alice", "password": "pw", "email": "a@example.com"}
	cmd := SignUp(params, "", true)
	assertSpec(t, cmd, "classes/_User", rest.MethodPost, rest.BodyStructured, params, "", true)

	params["username"] = "mallory"
	if cmd.Spec().Body().Fields()["username"] != "alice" {
		t.Fatal("command must not observe caller mutation after construction")
	}
}

func TestLogInShapeIgnoresRevocableForShape(t *testing.T) {
	for _, revocable := range []bool{false, true} {
		cmd := LogIn("alice", "secret", revocable)
		assertSpec(t, cmd, "login", rest.MethodGet, rest.BodyFlat,
			map[string]any{"username": "alice", "password": "secret"}, "", revocable)
		if cmd.Spec().HasSessionToken() {
			t.Fatal("log-in must be anonymous")
		}
	}
}

func TestResetPasswordShape(t *testing.T) {
	cmd := ResetPassword("a@example.com")
	assertSpec(t, cmd, "requestPasswordReset", rest.MethodPost, rest.BodyFlat,
		map[string]any{"email": "a@example.com"}, "", false)

	h := http.Header{}
	cmd.AdditionalHeaders(h)
	if _, ok := h[HeaderRevocableSession]; ok {
		t.Fatal("reset password must never request a revocable session")
	}
}

func TestServiceLogInEncodesAuthData(t *testing.T) {
	cmd := ServiceLogIn("facebook", map[string]any{
		"id":           "1234",
		"access_token": "tok",
		"linked":       encoder.Pointer{ClassName: "_User", ObjectID: "u1"},
	}, true)

	want := map[string]any{
		"authData": map[string]any{
			"facebook": map[string]any{
				"id":           "1234",
				"access_token": "tok",
				"linked":       map[string]any{"__type": "Pointer", "className": "_User", "objectId": "u1"},
			},
		},
	}
	assertSpec(t, cmd, "users", rest.MethodPost, rest.BodyStructured, want, "", true)
	if cmd.Operation() != OpServiceLogIn {
		t.Fatalf("unexpected operation %s", cmd.Operation())
	}
}

func TestServiceLogInPanicsOnEncodingFailure(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, encoder.ErrInvalidNumber) {
			t.Fatalf("expected encoding error panic, got %#v", r)
		}
	}()

	ServiceLogIn("custom", map[string]any{"weight": math.NaN()}, false)
}

type failingEncoder struct{}

func (failingEncoder) Encode(any) (any, error) {
	return nil, &encoder.EncodeError{Err: encoder.ErrUnsupportedType}
}

func TestTryServiceLogInReturnsEncodingFailure(t *testing.T) {
	cmd, err := TryServiceLogIn(failingEncoder{}, "custom", map[string]any{"id": "x"}, false)
	if cmd != nil {
		t.Fatal("no command may be built on encoding failure")
	}
	var encErr *encoder.EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected *encoder.EncodeError, got %v", err)
	}
}

func TestTryServiceLogInRejectsCyclicAuthData(t *testing.T) {
	data := map[string]any{"id": "1"}
	data["self"] = data

	cmd, err := TryServiceLogIn(encoder.NewPointerEncoder(), "custom", data, false)
	if cmd != nil {
		t.Fatal("no command may be built on encoding failure")
	}
	if !errors.Is(err, encoder.ErrCyclicValue) {
		t.Fatalf("expected encoder.ErrCyclicValue, got %v", err)
	}
}

func TestServiceLogInWithBodyShape(t *testing.T) {
	body := map[string]any{"authData": map[string]any{"anonymous": map[string]any{"id": "abc"}}}
	cmd := ServiceLogInWithBody(body, "r:link", false)
	assertSpec(t, cmd, "users", rest.MethodPost, rest.BodyStructured, body, "r:link", false)
}

func TestRevocableHeaderIffFlag(t *testing.T) {
	for _, revocable := range []bool{false, true} {
		for _, cmd := range []*UserCommand{
			SignUp(map[string]any{}, "", revocable),
			LogIn("u", "p", revocable),
			ServiceLogIn("x", map[string]any{"id": "1"}, revocable),
			ServiceLogInWithBody(map[string]any{}, "", revocable),
		} {
			h := http.Header{"Content-Type": {"application/json"}}
			cmd.AdditionalHeaders(h)

			got, present := h[HeaderRevocableSession]
			if present != revocable {
				t.Fatalf("%s revocable=%v: header present=%v", cmd.Operation(), revocable, present)
			}
			if revocable && (len(got) != 1 || got[0] != "1") {
				t.Fatalf("%s: expected header value 1, got %v", cmd.Operation(), got)
			}
			if h.Get("Content-Type") != "application/json" {
				t.Fatal("hook must not remove existing headers")
			}
		}
	}
}

func TestInterceptResponseRecordsStatus(t *testing.T) {
	meta := LogIn("u", "p", false).InterceptResponse(&rest.Response{StatusCode: http.StatusNotFound})
	if meta.StatusCode != http.StatusNotFound || !meta.Captured() {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestSameFactoryArgumentsYieldIndependentCalls(t *testing.T) {
	var (
		mu     sync.Mutex
		status = []int{http.StatusOK, http.StatusNotFound}
		n      int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderRevocableSession) != "1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		code := status[n]
		n++
		mu.Unlock()
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"code":101,"error":"x"}`))
	}))
	defer srv.Close()

	exec, err := rest.NewExecutor(nil, rest.Options{ServerURL: srv.URL, RetryBaseDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	first := LogIn("alice", "pw", true)
	second := LogIn("alice", "pw", true)
	if !reflect.DeepEqual(first.Spec(), second.Spec()) {
		t.Fatal("identical arguments must produce identical specs")
	}

	if first.Spec().Body().Fields()["username"] != "alice" {
		t.Fatal("unexpected body")
	}

	callA := exec.Start(context.Background(), first)
	if _, err := callA.Await(context.Background()); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	callB := exec.Start(context.Background(), second)
	_, _ = callB.Await(context.Background())

	if callA.StatusCode() != http.StatusOK || callB.StatusCode() != http.StatusNotFound {
		t.Fatalf("status codes must be independent: a=%d b=%d", callA.StatusCode(), callB.StatusCode())
	}
}
