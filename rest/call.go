package rest

import (
	"context"
	"sync/atomic"

	"github.com/MrEthical07/goParse/task"
)

// State is a [Call] lifecycle stage. States only move forward.
type State uint32

const (
	StateConstructed State = iota
	StateSent
	StateResponseCaptured
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateSent:
		return "sent"
	case StateResponseCaptured:
		return "response_captured"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Call is one dispatch of a command. It owns the captured status code and the
// asynchronous result; nothing is shared between calls.
type Call struct {
	spec      RequestSpec
	requestID string
	state     atomic.Uint32
	status    atomic.Int64
	result    *task.Task[Result]
}

func newCall(spec RequestSpec, requestID string) *Call {
	return &Call{spec: spec, requestID: requestID}
}

// FailedCall returns a completed call that never reached the transport.
func FailedCall(spec RequestSpec, err error) *Call {
	c := newCall(spec, "")
	c.result = task.Failed[Result](err)
	c.advance(StateCompleted)
	return c
}

func (c *Call) advance(next State) {
	for {
		cur := c.state.Load()
		if State(cur) >= next {
			return
		}
		if c.state.CompareAndSwap(cur, uint32(next)) {
			return
		}
	}
}

func (c *Call) capture(meta ResponseMeta) {
	c.status.Store(int64(meta.StatusCode))
	c.advance(StateResponseCaptured)
}

// Spec returns the request this call was built from.
func (c *Call) Spec() RequestSpec {
	return c.spec
}

// RequestID is the X-Parse-Request-Id sent with every attempt of this call.
func (c *Call) RequestID() string {
	return c.requestID
}

// State reports the current lifecycle stage.
func (c *Call) State() State {
	return State(c.state.Load())
}

// StatusCode returns the HTTP status of the response, or [StatusCodeUnset]
// when none has arrived. Once set it stays set, even if decoding fails.
func (c *Call) StatusCode() int {
	return int(c.status.Load())
}

// Meta returns the captured response metadata.
func (c *Call) Meta() ResponseMeta {
	return ResponseMeta{StatusCode: c.StatusCode()}
}

// Done is closed when the result is available.
func (c *Call) Done() <-chan struct{} {
	return c.result.Done()
}

// Await waits for the decoded result. The returned Result carries the
// captured metadata even when err is non-nil.
func (c *Call) Await(ctx context.Context) (Result, error) {
	res, err := c.result.Await(ctx)
	if err != nil && !res.Meta.Captured() {
		res.Meta = c.Meta()
	}
	return res, err
}

// Task exposes the underlying task for chaining with [task.Then].
func (c *Call) Task() *task.Task[Result] {
	return c.result
}
