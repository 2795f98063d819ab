package rest

import (
	"encoding/json"
	"net/http"
)

// Method is the HTTP verb of a command.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

// BodyKind tags which shape a [Body] holds.
type BodyKind uint8

const (
	// BodyNone means the command sends no parameters.
	BodyNone BodyKind = iota
	// BodyFlat is a flat key/value parameter mapping.
	BodyFlat
	// BodyStructured is a pre-built, possibly nested JSON object.
	BodyStructured
)

func (k BodyKind) String() string {
	switch k {
	case BodyFlat:
		return "flat"
	case BodyStructured:
		return "structured"
	default:
		return "none"
	}
}

// Body is a tagged variant holding exactly one parameter shape.
//
// Constructors deep-copy their input, so a Body never observes later changes
// to the caller's map.
type Body struct {
	kind   BodyKind
	fields map[string]any
}

// NoBody returns an empty body.
func NoBody() Body {
	return Body{}
}

// Flat wraps a flat parameter mapping.
func Flat(params map[string]any) Body {
	return Body{kind: BodyFlat, fields: copyMap(params)}
}

// Structured wraps a structured JSON object.
func Structured(object map[string]any) Body {
	return Body{kind: BodyStructured, fields: copyMap(object)}
}

// Kind reports the variant.
func (b Body) Kind() BodyKind {
	return b.kind
}

// Fields returns a copy of the parameters, or nil for [BodyNone].
func (b Body) Fields() map[string]any {
	if b.kind == BodyNone {
		return nil
	}
	return copyMap(b.fields)
}

// MarshalJSON encodes the parameters as a JSON object.
func (b Body) MarshalJSON() ([]byte, error) {
	if b.kind == BodyNone {
		return []byte("null"), nil
	}
	return json.Marshal(b.fields)
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		return copyMap(value)
	case map[string]string:
		out := make(map[string]string, len(value))
		for k, s := range value {
			out[k] = s
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}

// RequestSpec is the immutable description of one backend request.
type RequestSpec struct {
	path         string
	method       Method
	body         Body
	sessionToken string
	revocable    bool
}

// NewRequestSpec builds a spec. An empty sessionToken means the request is
// anonymous.
func NewRequestSpec(path string, method Method, body Body, sessionToken string, revocableSession bool) RequestSpec {
	return RequestSpec{
		path:         path,
		method:       method,
		body:         body,
		sessionToken: sessionToken,
		revocable:    revocableSession,
	}
}

// Path is the backend-relative resource path.
func (s RequestSpec) Path() string { return s.path }

// Method is the HTTP verb.
func (s RequestSpec) Method() Method { return s.method }

// Body is the request parameters.
func (s RequestSpec) Body() Body { return s.body }

// SessionToken is the acting user's session token, empty when anonymous.
func (s RequestSpec) SessionToken() string { return s.sessionToken }

// HasSessionToken reports whether the request acts as an authenticated user.
func (s RequestSpec) HasSessionToken() bool { return s.sessionToken != "" }

// RevocableSession reports whether the revocable session model was requested.
func (s RequestSpec) RevocableSession() bool { return s.revocable }

// Executable is a command the [Executor] can run.
//
// AdditionalHeaders is called after the default headers are set and may only
// add to them. InterceptResponse is called exactly once per dispatch, with the
// final response, before the body is decoded.
type Executable interface {
	Spec() RequestSpec
	AdditionalHeaders(h http.Header)
	InterceptResponse(resp *Response) ResponseMeta
}
