package goParse

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goParse/internal/rate"
	"github.com/MrEthical07/goParse/rest"
)

var (
	// ErrInvalidCredentials is returned when the backend rejects a log-in
	// (username/password mismatch or unknown user).
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSessionToken is returned when the session token is unknown or revoked.
	ErrInvalidSessionToken = errors.New("invalid session token")
	// ErrSessionMissing is returned when an operation requires a session but none was sent.
	ErrSessionMissing = errors.New("session token missing")
	ErrUsernameMissing    = errors.New("username missing")
	ErrPasswordMissing    = errors.New("password missing")
	ErrEmailMissing       = errors.New("email missing")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrEmailNotFound      = errors.New("no user found with email")
	// ErrLogInRateLimited is returned without contacting the backend when the
	// username has exhausted its failed log-in budget.
	ErrLogInRateLimited = errors.New("log in rate limited")
	// ErrPasswordResetRateLimited is returned without contacting the backend
	// when the email has exhausted its reset budget.
	ErrPasswordResetRateLimited = errors.New("password reset rate limited")
	// ErrBackendUnavailable is returned for transport failures and 5xx responses.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrThrottleUnavailable is returned when the Redis throttle cannot be reached.
	ErrThrottleUnavailable = errors.New("throttle backend unavailable")
	// ErrClientClosed is returned for commands dispatched after Close.
	ErrClientClosed = errors.New("client closed")
	// ErrUserDecode is returned by DecodeUser when the result is not a user object.
	ErrUserDecode = errors.New("response is not a user")
)

var codeSentinels = map[int]error{
	rest.CodeObjectNotFound:      ErrInvalidCredentials,
	rest.CodeInvalidSessionToken: ErrInvalidSessionToken,
	rest.CodeSessionMissing:      ErrSessionMissing,
	rest.CodeUsernameMissing:     ErrUsernameMissing,
	rest.CodePasswordMissing:     ErrPasswordMissing,
	rest.CodeEmailMissing:        ErrEmailMissing,
	rest.CodeUsernameTaken:       ErrUsernameTaken,
	rest.CodeEmailTaken:          ErrEmailTaken,
	rest.CodeEmailNotFound:       ErrEmailNotFound,
}

// classifyError attaches the matching sentinel to a call error while keeping
// the *rest.Error reachable through errors.As.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var restErr *rest.Error
	if errors.As(err, &restErr) {
		if sentinel, ok := codeSentinels[restErr.Code]; ok {
			return fmt.Errorf("%w: %w", sentinel, err)
		}
		if restErr.Temporary() {
			return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
		}
		return err
	}

	if errors.Is(err, rate.ErrRedisUnavailable) {
		return fmt.Errorf("%w: %w", ErrThrottleUnavailable, err)
	}

	return err
}
