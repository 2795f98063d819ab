package goParse

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goParse/command"
	"github.com/MrEthical07/goParse/encoder"
	"github.com/MrEthical07/goParse/internal/audit"
	"github.com/MrEthical07/goParse/internal/rate"
	"github.com/MrEthical07/goParse/rest"
	"go.uber.org/zap"
)

// Client dispatches user commands. It is safe for concurrent use.
type Client struct {
	config   Config
	executor *rest.Executor
	limiter  *rate.Limiter
	audit    *audit.Dispatcher
	metrics  *Metrics
	logger   *zap.Logger
	encoder  encoder.Encoder

	closed atomic.Bool
}

// GetCurrentUser fetches the user owning sessionToken.
func (c *Client) GetCurrentUser(ctx context.Context, sessionToken string) *rest.Call {
	return c.Dispatch(ctx, command.GetCurrentUser(sessionToken))
}

// SignUp creates a user. sessionToken may be empty; when set, the new user is
// linked to the anonymous session it identifies.
func (c *Client) SignUp(ctx context.Context, parameters map[string]any, sessionToken string) *rest.Call {
	return c.Dispatch(ctx, command.SignUp(parameters, sessionToken, c.config.Session.RevocableSession))
}

// LogIn authenticates with username and password.
func (c *Client) LogIn(ctx context.Context, username, password string) *rest.Call {
	return c.Dispatch(ctx, command.LogIn(username, password, c.config.Session.RevocableSession))
}

// ServiceLogIn logs in through a third-party provider. The error is non-nil
// only when authData cannot be encoded; no request is sent in that case.
func (c *Client) ServiceLogIn(ctx context.Context, authType string, authData map[string]any) (*rest.Call, error) {
	cmd, err := command.TryServiceLogIn(c.encoderOrDefault(), authType, authData, c.config.Session.RevocableSession)
	if err != nil {
		c.logger.Error("service log-in auth data not encodable",
			zap.String("auth_type", authType),
			zap.Error(err),
		)
		return nil, err
	}
	return c.Dispatch(ctx, cmd), nil
}

// ServiceLogInWithBody posts a caller-built service log-in body.
func (c *Client) ServiceLogInWithBody(ctx context.Context, parameters map[string]any, sessionToken string) *rest.Call {
	return c.Dispatch(ctx, command.ServiceLogInWithBody(parameters, sessionToken, c.config.Session.RevocableSession))
}

// ResetPassword asks the backend to email a password reset link.
func (c *Client) ResetPassword(ctx context.Context, email string) *rest.Call {
	return c.Dispatch(ctx, command.ResetPassword(email))
}

// Dispatch sends cmd. Log-in and password-reset commands are checked against
// the throttle first; a throttled command completes immediately with
// ErrLogInRateLimited or ErrPasswordResetRateLimited.
func (c *Client) Dispatch(ctx context.Context, cmd *command.UserCommand, opts ...rest.CallOption) *rest.Call {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.closed.Load() {
		return rest.FailedCall(cmd.Spec(), ErrClientClosed)
	}

	if err := c.checkThrottle(ctx, cmd); err != nil {
		c.recordRejected(ctx, cmd, err)
		return rest.FailedCall(cmd.Spec(), err)
	}

	if cmd.Spec().RevocableSession() {
		c.metrics.Inc(MetricRevocableSessionRequested)
	}

	started := time.Now()
	opts = append(slices.Clip(opts),
		rest.WithErrorMapper(classifyError),
		rest.WithObserver(func(ctx context.Context, call *rest.Call, res rest.Result, err error) {
			c.observe(ctx, cmd, call, err, time.Since(started))
		}),
	)
	return c.executor.Start(ctx, cmd, opts...)
}

// Close stops the audit dispatcher. Commands dispatched afterwards fail with
// ErrClientClosed; commands already in flight still complete.
func (c *Client) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.audit.Close()
}

// MetricsSnapshot returns the current counters; empty when metrics are disabled.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped reports events dropped because the audit buffer was full.
func (c *Client) AuditDropped() uint64 {
	return c.audit.Dropped()
}

func (c *Client) encoderOrDefault() encoder.Encoder {
	if c.encoder != nil {
		return c.encoder
	}
	return encoder.NewPointerEncoder()
}

// throttleKey returns the identifier a throttled command is counted under.
func throttleKey(cmd *command.UserCommand) string {
	var field string
	switch cmd.Operation() {
	case command.OpLogIn:
		field = "username"
	case command.OpResetPassword:
		field = "email"
	default:
		return ""
	}
	v, _ := cmd.Spec().Body().Fields()[field].(string)
	return v
}

func (c *Client) checkThrottle(ctx context.Context, cmd *command.UserCommand) error {
	if c.limiter == nil {
		return nil
	}
	key := throttleKey(cmd)
	if key == "" {
		return nil
	}

	var (
		err       error
		limitErr  error
		limitedID MetricID
	)
	switch cmd.Operation() {
	case command.OpLogIn:
		err = c.limiter.CheckLogIn(ctx, key)
		limitErr, limitedID = ErrLogInRateLimited, MetricLogInRateLimited
	case command.OpResetPassword:
		err = c.limiter.CheckPasswordReset(ctx, key)
		limitErr, limitedID = ErrPasswordResetRateLimited, MetricPasswordResetRateLimited
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		c.metrics.Inc(limitedID)
		return limitErr
	default:
		// Throttle outages fail open: the backend still enforces its own limits.
		c.logger.Warn("throttle check failed",
			zap.Stringer("operation", cmd.Operation()),
			zap.Error(err),
		)
		return nil
	}
}

// recordThrottle updates counters after the backend answered.
func (c *Client) recordThrottle(ctx context.Context, cmd *command.UserCommand, call *rest.Call, err error) {
	if c.limiter == nil {
		return
	}
	key := throttleKey(cmd)
	if key == "" {
		return
	}

	var tErr error
	switch cmd.Operation() {
	case command.OpLogIn:
		switch {
		case err == nil:
			tErr = c.limiter.ResetLogIn(ctx, key)
		case errors.Is(err, ErrInvalidCredentials):
			tErr = c.limiter.IncrementLogIn(ctx, key)
		}
	case command.OpResetPassword:
		if call.StatusCode() != rest.StatusCodeUnset {
			tErr = c.limiter.IncrementPasswordReset(ctx, key)
		}
	}
	if tErr != nil {
		c.logger.Warn("throttle update failed",
			zap.Stringer("operation", cmd.Operation()),
			zap.Error(tErr),
		)
	}
}

func (c *Client) observe(ctx context.Context, cmd *command.UserCommand, call *rest.Call, err error, elapsed time.Duration) {
	// Bookkeeping must outlive a caller that cancelled the dispatch.
	ctx = context.WithoutCancel(ctx)
	status := call.StatusCode()

	if id, ok := outcomeMetric(cmd.Operation(), err == nil); ok {
		c.metrics.Inc(id)
	}
	if err != nil && status == rest.StatusCodeUnset {
		c.metrics.Inc(MetricTransportFailure)
	}
	if errors.Is(err, ErrInvalidSessionToken) {
		c.metrics.Inc(MetricInvalidSessionToken)
	}
	if err == nil && cmd.Operation() == command.OpServiceLogIn && status == 201 {
		c.metrics.Inc(MetricServiceLogInNewUser)
	}
	c.metrics.Observe(elapsed)

	c.recordThrottle(ctx, cmd, call, err)

	spec := cmd.Spec()
	event := audit.Event{
		Timestamp:  time.Now(),
		Operation:  cmd.Operation().String(),
		Method:     string(spec.Method()),
		Path:       spec.Path(),
		RequestID:  call.RequestID(),
		StatusCode: status,
		Revocable:  spec.RevocableSession(),
		Success:    err == nil,
		Duration:   elapsed,
		Metadata:   auditMetadataFromContext(ctx),
	}
	if err != nil {
		event.Code = rest.CodeOf(err)
		event.Error = err.Error()
	}
	c.audit.Emit(ctx, event)

	fields := []zap.Field{
		zap.Stringer("operation", cmd.Operation()),
		zap.String("path", spec.Path()),
		zap.Int("status", status),
		zap.String("request_id", call.RequestID()),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		c.logger.Info("command failed", append(fields, zap.Error(err))...)
		return
	}
	c.logger.Debug("command completed", fields...)
}

// recordRejected accounts for a command refused before dispatch.
func (c *Client) recordRejected(ctx context.Context, cmd *command.UserCommand, err error) {
	spec := cmd.Spec()
	c.audit.Emit(ctx, audit.Event{
		Timestamp: time.Now(),
		Operation: cmd.Operation().String(),
		Method:    string(spec.Method()),
		Path:      spec.Path(),
		Revocable: spec.RevocableSession(),
		Success:   false,
		Error:     err.Error(),
		Metadata:  auditMetadataFromContext(ctx),
	})
	c.logger.Info("command throttled",
		zap.Stringer("operation", cmd.Operation()),
		zap.String("path", spec.Path()),
	)
}
