package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goParse/task"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Header names understood by the backend.
const (
	HeaderApplicationID     = "X-Parse-Application-Id"
	HeaderClientKey         = "X-Parse-Client-Key"
	HeaderMasterKey         = "X-Parse-Master-Key"
	HeaderClientVersion     = "X-Parse-Client-Version"
	HeaderInstallationID    = "X-Parse-Installation-Id"
	HeaderSessionToken      = "X-Parse-Session-Token"
	HeaderRequestID         = "X-Parse-Request-Id"
	HeaderAppBuildVersion   = "X-Parse-App-Build-Version"
	HeaderAppDisplayVersion = "X-Parse-App-Display-Version"

	contentTypeJSON = "application/json; charset=utf-8"
	methodOverride  = "_method"
)

// Transport sends a single HTTP request. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures an [Executor].
type Options struct {
	ServerURL         string
	ApplicationID     string
	ClientKey         string
	MasterKey         string
	ClientVersion     string
	InstallationID    string
	AppBuildVersion   string
	AppDisplayVersion string
	UserAgent         string

	// MethodOverride sends GET/DELETE requests that carry parameters as POST
	// with the verb in a "_method" body field, avoiding URL length limits.
	MethodOverride bool

	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RequestTimeout time.Duration

	Logger *zap.Logger
	// OnRetry is called before each retry with the attempt that just failed.
	OnRetry func(attempt int, err error)
	// NewRequestID overrides request id generation (uuid v4 by default).
	NewRequestID func() string
}

// Observer is notified once a call has a final result, before waiters see it.
type Observer func(ctx context.Context, call *Call, res Result, err error)

// CallOption customizes a single dispatch.
type CallOption func(*callConfig)

type callConfig struct {
	progress  ProgressFunc
	mapErr    func(error) error
	observers []Observer
}

// WithProgress reports response download progress.
func WithProgress(fn ProgressFunc) CallOption {
	return func(c *callConfig) { c.progress = fn }
}

// WithErrorMapper rewrites the call error before observers and waiters see it.
func WithErrorMapper(fn func(error) error) CallOption {
	return func(c *callConfig) { c.mapErr = fn }
}

// WithObserver registers fn to run when the call completes.
func WithObserver(fn Observer) CallOption {
	return func(c *callConfig) { c.observers = append(c.observers, fn) }
}

// Executor builds, sends and decodes commands. It is safe for concurrent use.
type Executor struct {
	opts      Options
	baseURL   *url.URL
	transport Transport
	logger    *zap.Logger
}

// NewExecutor validates opts and returns an executor sending through transport.
// A nil transport uses a default *http.Client.
func NewExecutor(transport Transport, opts Options) (*Executor, error) {
	base, err := url.Parse(opts.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("%w: server url: %v", ErrInvalidOptions, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: server url must be an absolute http(s) url", ErrInvalidOptions)
	}
	if opts.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: negative MaxRetries", ErrInvalidOptions)
	}
	if opts.MaxRetries > 0 && opts.RetryBaseDelay <= 0 {
		return nil, fmt.Errorf("%w: RetryBaseDelay must be > 0 when retries are enabled", ErrInvalidOptions)
	}
	if transport == nil {
		transport = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewRequestID == nil {
		opts.NewRequestID = uuid.NewString
	}

	return &Executor{
		opts:      opts,
		baseURL:   base,
		transport: transport,
		logger:    opts.Logger,
	}, nil
}

// Start dispatches cmd asynchronously and returns its [Call] immediately.
func (e *Executor) Start(ctx context.Context, cmd Executable, opts ...CallOption) *Call {
	if ctx == nil {
		ctx = context.Background()
	}

	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	call := newCall(cmd.Spec(), e.opts.NewRequestID())
	call.result = task.Go(ctx, func(ctx context.Context) (Result, error) {
		defer call.advance(StateCompleted)

		res, err := e.execute(ctx, cmd, call, cfg.progress)
		if err != nil && cfg.mapErr != nil {
			err = cfg.mapErr(err)
		}
		for _, observe := range cfg.observers {
			observe(ctx, call, res, err)
		}
		return res, err
	})

	return call
}

func (e *Executor) execute(ctx context.Context, cmd Executable, call *Call, progress ProgressFunc) (Result, error) {
	if e.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.RequestTimeout)
		defer cancel()
	}

	call.advance(StateSent)
	resp, err := e.roundTrip(ctx, cmd, call.spec, call.requestID)
	if err != nil {
		return Result{}, err
	}

	// Status capture must precede decoding so it survives a decode failure.
	meta := cmd.InterceptResponse(&Response{
		StatusCode:    resp.StatusCode,
		Header:        resp.Header,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	})
	call.capture(meta)

	obj, err := decode(resp, progress)
	return Result{Meta: meta, Object: obj}, err
}

type preparedRequest struct {
	method  Method
	url     string
	payload []byte
}

func (e *Executor) roundTrip(ctx context.Context, cmd Executable, spec RequestSpec, requestID string) (*http.Response, error) {
	prepared, err := e.prepare(spec)
	if err != nil {
		return nil, &Error{Code: CodeInvalidJSON, Message: "encode request parameters", Err: err}
	}

	var (
		resp    *http.Response
		attempt int
	)
	err = retry.Do(ctx, e.backoff(), func(ctx context.Context) error {
		attempt++

		req, err := e.newRequest(ctx, cmd, spec, prepared, requestID)
		if err != nil {
			return &Error{Code: CodeOtherCause, Message: "build request", Err: err}
		}

		r, err := e.transport.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return &Error{Code: CodeConnectionFailed, Message: "request aborted", Err: ctxErr}
			}
			failure := &Error{Code: CodeConnectionFailed, Message: "i/o failure", Err: err}
			e.noteRetry(spec, requestID, attempt, failure)
			return retry.RetryableError(failure)
		}

		if r.StatusCode >= http.StatusInternalServerError && attempt <= e.opts.MaxRetries {
			drainAndClose(r.Body)
			failure := &Error{StatusCode: r.StatusCode, Code: CodeOtherCause, Message: http.StatusText(r.StatusCode)}
			e.noteRetry(spec, requestID, attempt, failure)
			return retry.RetryableError(failure)
		}

		resp = r
		return nil
	})
	if err != nil {
		var restErr *Error
		if !errors.As(err, &restErr) {
			err = &Error{Code: CodeConnectionFailed, Message: "request aborted", Err: err}
		}
		return nil, err
	}

	return resp, nil
}

func (e *Executor) noteRetry(spec RequestSpec, requestID string, attempt int, err error) {
	if attempt > e.opts.MaxRetries {
		return
	}
	e.logger.Debug("retrying request",
		zap.String("path", spec.Path()),
		zap.String("request_id", requestID),
		zap.Int("attempt", attempt),
		zap.Error(err),
	)
	if e.opts.OnRetry != nil {
		e.opts.OnRetry(attempt, err)
	}
}

func (e *Executor) backoff() retry.Backoff {
	base := e.opts.RetryBaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	b := retry.NewExponential(base)
	if e.opts.RetryMaxDelay > 0 {
		b = retry.WithCappedDuration(e.opts.RetryMaxDelay, b)
	}
	b = retry.WithJitterPercent(10, b)
	return retry.WithMaxRetries(uint64(e.opts.MaxRetries), b)
}

func (e *Executor) prepare(spec RequestSpec) (preparedRequest, error) {
	u := e.baseURL.JoinPath(spec.Path())
	method := spec.Method()
	body := spec.Body()

	if body.Kind() == BodyNone {
		return preparedRequest{method: method, url: u.String()}, nil
	}

	if method == MethodPost || method == MethodPut {
		payload, err := json.Marshal(body.fields)
		if err != nil {
			return preparedRequest{}, err
		}
		return preparedRequest{method: method, url: u.String(), payload: payload}, nil
	}

	if e.opts.MethodOverride {
		fields := copyMap(body.fields)
		fields[methodOverride] = string(method)
		payload, err := json.Marshal(fields)
		if err != nil {
			return preparedRequest{}, err
		}
		return preparedRequest{method: MethodPost, url: u.String(), payload: payload}, nil
	}

	q := u.Query()
	for k, v := range body.fields {
		s, err := queryValue(v)
		if err != nil {
			return preparedRequest{}, err
		}
		q.Set(k, s)
	}
	u.RawQuery = q.Encode()

	return preparedRequest{method: method, url: u.String()}, nil
}

func queryValue(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (e *Executor) newRequest(ctx context.Context, cmd Executable, spec RequestSpec, p preparedRequest, requestID string) (*http.Request, error) {
	var body io.Reader
	if p.payload != nil {
		body = bytes.NewReader(p.payload)
	}

	req, err := http.NewRequestWithContext(ctx, string(p.method), p.url, body)
	if err != nil {
		return nil, err
	}

	h := req.Header
	setIf(h, HeaderApplicationID, e.opts.ApplicationID)
	setIf(h, HeaderClientKey, e.opts.ClientKey)
	setIf(h, HeaderMasterKey, e.opts.MasterKey)
	setIf(h, HeaderClientVersion, e.opts.ClientVersion)
	setIf(h, HeaderInstallationID, e.opts.InstallationID)
	setIf(h, HeaderAppBuildVersion, e.opts.AppBuildVersion)
	setIf(h, HeaderAppDisplayVersion, e.opts.AppDisplayVersion)
	setIf(h, "User-Agent", e.opts.UserAgent)
	setIf(h, HeaderSessionToken, spec.SessionToken())
	setIf(h, HeaderRequestID, requestID)
	if p.payload != nil {
		h.Set("Content-Type", contentTypeJSON)
	}

	cmd.AdditionalHeaders(h)

	return req, nil
}

func setIf(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}

func decode(resp *http.Response, progress ProgressFunc) (map[string]any, error) {
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	if progress != nil {
		r = &progressReader{r: resp.Body, total: resp.ContentLength, progress: progress}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Code: CodeConnectionFailed, Message: "read response body", Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		obj := map[string]any{}
		if len(bytes.TrimSpace(data)) == 0 {
			return obj, nil
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, &Error{StatusCode: resp.StatusCode, Code: CodeInvalidJSON, Message: "invalid response body", Err: err}
		}
		return obj, nil
	}

	return nil, decodeFailure(resp.StatusCode, data)
}

func decodeFailure(status int, data []byte) error {
	var body struct {
		Code  int    `json:"code"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && (body.Code != 0 || body.Error != "") {
		code := body.Code
		if code == 0 {
			code = CodeOtherCause
		}
		return &Error{StatusCode: status, Code: code, Message: body.Error}
	}

	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{StatusCode: status, Code: CodeOtherCause, Message: msg}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
