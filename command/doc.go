// Package command builds the user-authentication commands: current user,
// sign-up, log-in, service (third-party) log-in and password reset.
//
// Each factory returns a [UserCommand], an immutable request description that
// plugs into [rest.Executor]. The command contributes one optional header,
// X-Parse-Revocable-Session: 1, when the revocable session model is
// requested, and records the response status code before the executor decodes
// the body.
//
// # What this package must NOT do
//
//   - Send requests or decode bodies (package rest owns that).
//   - Persist or cache sessions.
package command
