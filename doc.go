// Package goParse is a client for the Parse Server user REST API: current
// user lookup, sign-up, username/password log-in, third-party service log-in
// and password reset.
//
// Commands are dispatched asynchronously. Every dispatch returns a *rest.Call
// that records the HTTP status code of the response before the body is
// decoded, so callers can distinguish "user created" (201) from "user logged
// in" (200) even when decoding fails.
//
// # Architecture boundaries
//
// goParse is the public surface. It exposes [Client], [Builder], [Config] and
// value types (User, MetricsSnapshot). Request shaping lives in package
// command, transport and decoding in package rest, and throttling and audit
// dispatch under internal/.
//
// # What this package must NOT do
//
//   - Log or audit session tokens, passwords or auth data.
//   - Cache users or sessions between commands.
//   - Perform I/O outside of Client methods (construction via Builder is
//     allocation-only until Build).
package goParse

// Version is reported in the default client version and user agent.
const Version = "0.4.0"
