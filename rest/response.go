package rest

import (
	"io"
	"net/http"
)

// StatusCodeUnset is returned by [Call.StatusCode] before a response arrives.
const StatusCodeUnset = 0

// Response is the raw backend response handed to [Executable.InterceptResponse].
// Body is read by the executor after interception; hooks must not consume it.
type Response struct {
	StatusCode    int
	Header        http.Header
	ContentLength int64
	Body          io.ReadCloser
}

// ResponseMeta is the metadata captured from a response before decoding.
type ResponseMeta struct {
	StatusCode int
}

// Captured reports whether a response status was recorded.
func (m ResponseMeta) Captured() bool {
	return m.StatusCode != StatusCodeUnset
}

// Result is the decoded outcome of a call.
type Result struct {
	Meta   ResponseMeta
	Object map[string]any
}

// ProgressFunc reports response body download progress. total is -1 when the
// length is unknown.
type ProgressFunc func(read, total int64)

type progressReader struct {
	r        io.Reader
	read     int64
	total    int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.progress(p.read, p.total)
	}
	return n, err
}
