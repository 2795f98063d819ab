// Package rest is the generic command executor for the backend's REST API.
//
// A command is anything implementing [Executable]: it supplies an immutable
// [RequestSpec] plus two extension points, an additive header hook and a
// response interception hook. [Executor.Start] turns the request spec into an HTTP
// request (URL, default headers, session token, request id), sends it through
// a [Transport] with retry/backoff, lets the command record [ResponseMeta]
// from the raw response, then decodes the JSON body into a [Result].
//
// Every dispatch yields its own [Call], which tracks the lifecycle
// Constructed → Sent → ResponseCaptured → Completed and exposes the captured
// status code once the response has arrived.
//
// # What this package must NOT do
//
//   - Know about specific endpoints or user semantics (that is package command).
//   - Log credentials or session tokens.
//   - Share mutable state between calls.
package rest
