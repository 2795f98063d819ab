package command

import (
	"net/http"

	"github.com/MrEthical07/goParse/encoder"
	"github.com/MrEthical07/goParse/rest"
)

const (
	// HeaderRevocableSession opts a request into revocable session tokens.
	HeaderRevocableSession = "X-Parse-Revocable-Session"
	// HeaderTrue is the "on" value for boolean feature headers.
	HeaderTrue = "1"
)

// Backend paths used by the user commands.
const (
	PathCurrentUser   = "users/me"
	PathSignUp        = "classes/_User"
	PathLogIn         = "login"
	PathServiceLogIn  = "users"
	PathResetPassword = "requestPasswordReset"
)

// Operation identifies which user command a [UserCommand] performs.
type Operation uint8

const (
	OpCurrentUser Operation = iota
	OpSignUp
	OpLogIn
	OpServiceLogIn
	OpResetPassword
)

func (o Operation) String() string {
	switch o {
	case OpCurrentUser:
		return "current_user"
	case OpSignUp:
		return "sign_up"
	case OpLogIn:
		return "log_in"
	case OpServiceLogIn:
		return "service_log_in"
	case OpResetPassword:
		return "reset_password"
	default:
		return "unknown"
	}
}

// UserCommand is one shaped user request. It is immutable; dispatching it
// twice yields two independent calls.
type UserCommand struct {
	op   Operation
	spec rest.RequestSpec
}

func newUserCommand(op Operation, path string, method rest.Method, body rest.Body, sessionToken string, revocableSession bool) *UserCommand {
	return &UserCommand{
		op:   op,
		spec: rest.NewRequestSpec(path, method, body, sessionToken, revocableSession),
	}
}

// GetCurrentUser fetches the user that owns sessionToken.
func GetCurrentUser(sessionToken string) *UserCommand {
	return newUserCommand(OpCurrentUser, PathCurrentUser, rest.MethodGet, rest.NoBody(), sessionToken, false)
}

// SignUp creates a user from parameters. sessionToken may be empty.
func SignUp(parameters map[string]any, sessionToken string, revocableSession bool) *UserCommand {
	return newUserCommand(OpSignUp, PathSignUp, rest.MethodPost, rest.Structured(parameters), sessionToken, revocableSession)
}

// LogIn authenticates with username and password. The backend contract sends
// the credentials as GET parameters.
func LogIn(username, password string, revocableSession bool) *UserCommand {
	params := map[string]any{
		"username": username,
		"password": password,
	}
	return newUserCommand(OpLogIn, PathLogIn, rest.MethodGet, rest.Flat(params), "", revocableSession)
}

// ServiceLogIn logs in through a third-party provider. authData is encoded
// with the pointer encoder and nested as {"authData": {authType: ...}}.
//
// An encoding failure is a programming error: ServiceLogIn panics with the
// *encoder.EncodeError. Use [TryServiceLogIn] to receive it as an error.
func ServiceLogIn(authType string, authData map[string]any, revocableSession bool) *UserCommand {
	cmd, err := TryServiceLogIn(encoder.NewPointerEncoder(), authType, authData, revocableSession)
	if err != nil {
		panic(err)
	}
	return cmd
}

// TryServiceLogIn is [ServiceLogIn] with an explicit encoder and the encoding
// fault returned instead of raised. No request exists when err is non-nil.
func TryServiceLogIn(enc encoder.Encoder, authType string, authData map[string]any, revocableSession bool) (*UserCommand, error) {
	if enc == nil {
		enc = encoder.NewPointerEncoder()
	}
	encoded, err := enc.Encode(authData)
	if err != nil {
		return nil, err
	}

	parameters := map[string]any{
		"authData": map[string]any{
			authType: encoded,
		},
	}
	return ServiceLogInWithBody(parameters, "", revocableSession), nil
}

// ServiceLogInWithBody posts a pre-built service log-in body.
func ServiceLogInWithBody(parameters map[string]any, sessionToken string, revocableSession bool) *UserCommand {
	return newUserCommand(OpServiceLogIn, PathServiceLogIn, rest.MethodPost, rest.Structured(parameters), sessionToken, revocableSession)
}

// ResetPassword asks the backend to email a reset link. It never issues a
// session, so the revocable flag is always off.
func ResetPassword(email string) *UserCommand {
	params := map[string]any{"email": email}
	return newUserCommand(OpResetPassword, PathResetPassword, rest.MethodPost, rest.Flat(params), "", false)
}

// Operation reports which user command this is.
func (c *UserCommand) Operation() Operation {
	return c.op
}

// Spec implements [rest.Executable].
func (c *UserCommand) Spec() rest.RequestSpec {
	return c.spec
}

// AdditionalHeaders implements [rest.Executable].
func (c *UserCommand) AdditionalHeaders(h http.Header) {
	if c.spec.RevocableSession() {
		h.Set(HeaderRevocableSession, HeaderTrue)
	}
}

// InterceptResponse implements [rest.Executable]. It records the status code
// unconditionally; decoding happens afterwards.
func (c *UserCommand) InterceptResponse(resp *rest.Response) rest.ResponseMeta {
	return rest.ResponseMeta{StatusCode: resp.StatusCode}
}
